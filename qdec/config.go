// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package qdec

import (
	"fmt"
	"time"

	"github.com/aamcrae/config"
)

// Configuration data for a shaft encoder, read from a configuration file.
type EncoderConfig struct {
	Name      string
	PhaseA    int
	PhaseB    int
	LED       int // -1 if no LED is fitted
	Period    time.Duration
	LEDDelay  time.Duration
	ActiveLow bool
	Debounce  bool
}

// ShaftEncoder combines a decoder with the I/O it was opened with.
// A config for each encoder is parsed from a configuration file.
type ShaftEncoder struct {
	Decoder *Decoder
	Device  *MemDevice
	PhaseA  *GpioPin
	PhaseB  *GpioPin
	LED     *GpioPin
	Config  *EncoderConfig
}

// ReadConfig reads and validates an encoder config from a config file section.
// Sample config:
//  [encoder]             # name of encoder
//  phase=5,6             # GPIOs for phase A and phase B
//  led=13                # GPIO for illumination LED (optional)
//  period=512us          # Maximum time between samples (optional)
//  leddelay=100us        # LED power-up time before sampling (optional)
//  activelow=true        # Drive LED low to activate (optional)
//  debounce=true         # Enable hardware debounce filter (optional)
func ReadConfig(conf *config.Config, name string) (*EncoderConfig, error) {
	s := conf.GetSection(name)
	if s == nil {
		return nil, fmt.Errorf("no config for %s", name)
	}
	var err error
	c := &EncoderConfig{Name: name, LED: -1, Period: MinSamplePeriod * time.Microsecond}
	n, err := s.Parse("phase", "%d,%d", &c.PhaseA, &c.PhaseB)
	if err != nil {
		return nil, fmt.Errorf("phase: %v", err)
	}
	if n != 2 {
		return nil, fmt.Errorf("invalid phase arguments")
	}
	if _, err := s.GetArg("led"); err == nil {
		n, err = s.Parse("led", "%d", &c.LED)
		if err != nil {
			return nil, fmt.Errorf("led: %v", err)
		}
		if n != 1 {
			return nil, fmt.Errorf("led: argument count")
		}
	}
	if p, err := s.GetArg("period"); err == nil {
		c.Period, err = time.ParseDuration(p)
		if err != nil {
			return nil, fmt.Errorf("period: %v", err)
		}
		if c.Period < MinSamplePeriod*time.Microsecond {
			return nil, fmt.Errorf("period: must be at least %dus", MinSamplePeriod)
		}
	}
	if p, err := s.GetArg("leddelay"); err == nil {
		c.LEDDelay, err = time.ParseDuration(p)
		if err != nil {
			return nil, fmt.Errorf("leddelay: %v", err)
		}
	}
	if _, err := s.GetArg("activelow"); err == nil {
		if _, err := s.Parse("activelow", "%t", &c.ActiveLow); err != nil {
			return nil, fmt.Errorf("activelow: %v", err)
		}
	}
	if _, err := s.GetArg("debounce"); err == nil {
		if _, err := s.Parse("debounce", "%t", &c.Debounce); err != nil {
			return nil, fmt.Errorf("debounce: %v", err)
		}
	}
	return c, nil
}

// Open initialises the I/O, peripheral mapping, and decoder from the
// encoder configuration. The dispatcher may be nil if tick driven
// polling is not used.
func Open(c *EncoderConfig, tick Dispatcher) (*ShaftEncoder, error) {
	s := new(ShaftEncoder)
	s.Config = c
	var err error
	s.Device, err = OpenDevice()
	if err != nil {
		return nil, err
	}
	s.PhaseA, err = NewGpioPin(c.PhaseA)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("phase A %d: %v", c.PhaseA, err)
	}
	s.PhaseB, err = NewGpioPin(c.PhaseB)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("phase B %d: %v", c.PhaseB, err)
	}
	dc := Config{
		PhaseA:       s.PhaseA,
		PhaseB:       s.PhaseB,
		SamplePeriod: uint32(c.Period.Microseconds()),
		LEDDelay:     uint32(c.LEDDelay.Microseconds()),
		ActiveLowLED: c.ActiveLow,
		Debounce:     c.Debounce,
	}
	if c.LED >= 0 {
		s.LED, err = NewGpioPin(c.LED)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("led %d: %v", c.LED, err)
		}
		dc.LED = s.LED
	}
	s.Decoder, err = New(s.Device, tick, dc)
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close stops the decoder and releases the I/O resources.
func (s *ShaftEncoder) Close() {
	if s.Decoder != nil {
		s.Decoder.Close()
	}
	if s.PhaseA != nil {
		s.PhaseA.Close()
	}
	if s.PhaseB != nil {
		s.PhaseB.Close()
	}
	if s.LED != nil {
		s.LED.Close()
	}
	if s.Device != nil {
		s.Device.Close()
	}
}
