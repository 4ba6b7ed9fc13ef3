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

// Pin binding for the decoder peripheral.

package qdec

import (
	"fmt"

	"github.com/aamcrae/gpio"
)

// NC is the pin select value for a pin that is not connected.
const NC = 0xFFFFFFFF

// Pin names a physical pin for the peripheral's pin select registers.
// DisableEvents clears any software edge-event subscription on the pin
// so that a software decoding scheme and the hardware peripheral never
// run on the same pins at the same time.
type Pin interface {
	Name() uint32
	DisableEvents() error
}

// GpioPin binds a GPIO to the decoder peripheral.
type GpioPin struct {
	number int
	gpio   *io.Gpio
}

// NewGpioPin opens the GPIO as an input pin for use with the decoder.
func NewGpioPin(number int) (*GpioPin, error) {
	g, err := io.Pin(number)
	if err != nil {
		return nil, fmt.Errorf("pin %d: %v", number, err)
	}
	return &GpioPin{number: number, gpio: g}, nil
}

// Name returns the pin select code for this pin.
func (p *GpioPin) Name() uint32 {
	return uint32(p.number)
}

// DisableEvents removes any edge detection configured on the pin.
func (p *GpioPin) DisableEvents() error {
	return p.gpio.Edge(io.NONE)
}

// Close releases the GPIO.
func (p *GpioPin) Close() {
	p.gpio.Close()
}
