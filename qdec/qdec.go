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

// Package qdec is a driver for a hardware quadrature decoder, tracking
// the absolute position of a shaft encoder through a hardware
// accumulator peripheral rather than software edge counting.
package qdec

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
)

var (
	// ErrBusy indicates the peripheral is already attached, either to
	// this decoder or to another instance.
	ErrBusy = errors.New("qdec: hardware busy")
	// ErrInvalidParameter indicates a configuration value the hardware
	// cannot support.
	ErrInvalidParameter = errors.New("qdec: invalid parameter")
)

// MinSamplePeriod is the finest sampling granularity of the hardware,
// in microseconds. The peripheral supports 8 discrete sample periods,
// MinSamplePeriod << 0 through MinSamplePeriod << 7.
const MinSamplePeriod = 128

const maxPeriodCode = 7

// Config holds the decoder configuration. The configuration is fixed
// once the decoder is started.
type Config struct {
	PhaseA       Pin    // Quadrature encoder phase A input
	PhaseB       Pin    // Quadrature encoder phase B input
	LED          Pin    // Illumination LED strobe, nil if not used
	SamplePeriod uint32 // Maximum microseconds between samples; 0 selects MinSamplePeriod
	LEDDelay     uint32 // LED power-up time before sampling, in microseconds
	ActiveLowLED bool   // Drive the LED pin low to activate
	Debounce     bool   // Enable the hardware debounce filter
}

// Decoder tracks the absolute position of a quadrature encoder.
// Several decoders can exist so long as no more than one of them is
// attached to the hardware at a time; this can be a practical way to
// control several motors with their own encoders if they run only at
// different times. While attached, Poll must be called regularly
// (about ten times per second, or less if the encoder is guaranteed to
// generate fewer than 10000 counts per second) to drain the hardware
// accumulator before it overflows.
//
// All lifecycle operations are expected to run on a single execution
// context; position and error counts may be read from other goroutines.
type Decoder struct {
	dev      Device
	tick     Dispatcher
	conf     Config
	period   uint32 // Configured sample period in microseconds
	attached bool   // Peripheral is bound to this decoder
	ticking  bool   // Dispatcher polling has been requested
	position int64  // Absolute position, accumulated by Poll
	errors   uint32 // Double-transition count, saturates at uint16 max
}

// New creates a decoder for the given peripheral. The dispatcher may be
// nil if EnableSystemTick is never used.
func New(dev Device, tick Dispatcher, conf Config) (*Decoder, error) {
	if dev == nil || conf.PhaseA == nil || conf.PhaseB == nil {
		return nil, ErrInvalidParameter
	}
	if conf.SamplePeriod == 0 {
		conf.SamplePeriod = MinSamplePeriod
	}
	if conf.SamplePeriod < MinSamplePeriod {
		return nil, ErrInvalidParameter
	}
	d := new(Decoder)
	d.dev = dev
	d.tick = tick
	d.conf = conf
	d.period = conf.SamplePeriod
	return d, nil
}

// SetSamplePeriod sets the maximum time between samples of the phase
// inputs, in microseconds. The period takes effect at the next Start.
func (d *Decoder) SetSamplePeriod(period uint32) error {
	if period < MinSamplePeriod {
		return ErrInvalidParameter
	}
	if d.attached {
		return ErrBusy
	}
	d.period = period
	return nil
}

// SamplePeriod returns the configured sample period in microseconds.
func (d *Decoder) SamplePeriod() uint32 {
	return d.period
}

// Start configures the hardware to keep this decoder up to date.
// It fails with ErrBusy if the peripheral is already enabled, leaving
// all state untouched. Position and error counts are preserved across
// Start/Stop cycles.
func (d *Decoder) Start() error {
	if d.period < MinSamplePeriod {
		return ErrInvalidParameter
	}
	if d.dev.Enabled() || d.attached {
		return ErrBusy
	}
	s := Settings{
		SamplePer: periodCode(d.period),
		LEDPre:    d.conf.LEDDelay,
		PselA:     d.conf.PhaseA.Name(),
		PselB:     d.conf.PhaseB.Name(),
		PselLED:   NC,
		Debounce:  d.conf.Debounce,
	}
	if !d.conf.ActiveLowLED {
		s.LEDPol = 1
	}
	if d.conf.LED != nil {
		s.PselLED = d.conf.LED.Name()
	}
	d.dev.Program(s)
	// If these pins were previously triggering events (eg. when
	// emulating the decoder from edge transitions) put a stop to that.
	if d.conf.LED != nil {
		if err := d.conf.LED.DisableEvents(); err != nil {
			return fmt.Errorf("led pin: %v", err)
		}
	}
	if err := d.conf.PhaseA.DisableEvents(); err != nil {
		return fmt.Errorf("phase A pin: %v", err)
	}
	if err := d.conf.PhaseB.DisableEvents(); err != nil {
		return fmt.Errorf("phase B pin: %v", err)
	}
	// Discard anything accumulated before the pins were bound.
	d.dev.ReadClearAcc()
	d.dev.Enable()
	d.dev.Start()
	d.attached = true
	if d.ticking && d.tick != nil {
		d.tick.Add(d)
	}
	return nil
}

// Stop halts the hardware and makes it available to other decoders.
// Any dispatcher registration is removed even if the decoder was not
// attached. Stop is idempotent.
func (d *Decoder) Stop() {
	if d.tick != nil {
		d.tick.Remove(d)
	}
	if d.attached {
		d.dev.Stop()
		d.dev.Disable()
		d.attached = false
	}
}

// Close stops the decoder if it is still attached, guaranteeing the
// peripheral is released before the decoder is discarded.
func (d *Decoder) Close() {
	d.Stop()
}

// Poll drains the hardware accumulator into the running position, and
// folds the interval's double transitions into the error count.
// It must be called regularly while attached to stop the narrow
// hardware counter from overflowing. Double transitions are a
// diagnostic that the sample period is too long for the encoder speed,
// not a failure; the count saturates rather than wrapping.
func (d *Decoder) Poll() {
	atomic.AddInt64(&d.position, int64(d.dev.ReadClearAcc()))
	e := uint64(atomic.LoadUint32(&d.errors)) + uint64(d.dev.ReadClearDbl())
	if e > math.MaxUint16 {
		e = math.MaxUint16
	}
	atomic.StoreUint32(&d.errors, uint32(e))
}

// Position returns the absolute position at the last Poll.
func (d *Decoder) Position() int64 {
	return atomic.LoadInt64(&d.position)
}

// ResetPosition resets the position to a known value. This can be used
// to re-zero the counter on detection of an index or end-stop signal.
// The error count is not changed.
func (d *Decoder) ResetPosition(position int64) {
	atomic.StoreInt64(&d.position, position)
}

// Errors returns the number of double transitions seen, where both
// phase inputs changed within one sample so the direction could not be
// decoded. A non-zero count implies the sample period is too long.
func (d *Decoder) Errors() uint16 {
	return uint16(atomic.LoadUint32(&d.errors))
}

// EnableSystemTick arranges for Poll to be called on every tick of the
// dispatcher, keeping the position current to within one tick period.
// Registration happens immediately if the decoder is attached, or at
// the next successful Start otherwise. This should not be used if Poll
// is already being called in response to another regular event.
func (d *Decoder) EnableSystemTick() {
	if d.ticking {
		return
	}
	d.ticking = true
	if d.attached && d.tick != nil {
		d.tick.Add(d)
	}
}

// DisableSystemTick removes the dispatcher registration (the default).
func (d *Decoder) DisableSystemTick() {
	d.ticking = false
	if d.tick != nil {
		d.tick.Remove(d)
	}
}

// periodCode returns the hardware sample period code for a period in
// microseconds: the longest (most power-efficient) hardware setting
// that does not exceed the requested period. A longer setting could
// miss input transitions.
func periodCode(period uint32) uint32 {
	for code := uint32(maxPeriodCode); code > 0; code-- {
		if (MinSamplePeriod << code) <= period {
			return code
		}
	}
	return 0
}
