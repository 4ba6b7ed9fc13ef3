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

// Hardware register contract for the quadrature decoder peripheral.

package qdec

// Settings holds the peripheral configuration programmed at start time.
type Settings struct {
	SamplePer uint32 // 3 bit sample period code (128us << SamplePer)
	LEDPol    uint32 // LED polarity, 1 = drive high to activate
	LEDPre    uint32 // LED power-up time before sampling, in microseconds
	PselA     uint32 // Pin select for phase A input
	PselB     uint32 // Pin select for phase B input
	PselLED   uint32 // Pin select for LED output, or NC
	Debounce  bool   // Enable the input debounce filter
}

// Device is the register-level interface to a quadrature decoder
// accumulator peripheral. Only one Device exists per peripheral, and
// the Enabled state doubles as the hardware ownership flag - a decoder
// will refuse to start while the peripheral is enabled.
type Device interface {
	// Enabled returns true if the peripheral is currently enabled.
	Enabled() bool
	// Program writes the sampling configuration to the peripheral,
	// and disables all interrupt and shortcut behaviour so that the
	// peripheral is polling-only. The peripheral must be disabled.
	Program(Settings)
	// Enable and Disable gate the peripheral; Start and Stop trigger
	// the sampling tasks.
	Enable()
	Disable()
	Start()
	Stop()
	// ReadClearAcc atomically reads and clears the accumulator,
	// returning the signed movement since the last clear.
	ReadClearAcc() int32
	// ReadClearDbl returns the number of double transitions (samples
	// where both phase inputs changed, so the direction could not be
	// decoded) captured over the same interval as the preceding
	// ReadClearAcc, and clears the counter.
	ReadClearDbl() uint32
}
