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

// Memory mapped QDEC peripheral registers.

package qdec

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

const memDevice = "/dev/mem"

// Register block offsets for the nRF51 QDEC peripheral.
const (
	qdecBase = 0x40012000

	regStart      = 0x000 // Task: start the quadrature decoder
	regStop       = 0x004 // Task: stop the quadrature decoder
	regReadClrAcc = 0x008 // Task: transfer ACC/ACCDBL to read registers and clear
	regShorts     = 0x200 // Shortcut enables
	regIntenClr   = 0x308 // Interrupt disables
	regEnable     = 0x500 // Peripheral enable
	regLEDPol     = 0x504 // LED polarity
	regSamplePer  = 0x508 // Sample period code
	regReportPer  = 0x510 // Report period code
	regAccRead    = 0x518 // Snapshot of the accumulator at last read/clear
	regPselLED    = 0x51C // LED pin select
	regPselA      = 0x520 // Phase A pin select
	regPselB      = 0x524 // Phase B pin select
	regDBFEn      = 0x528 // Debounce filter enable
	regLEDPre     = 0x540 // LED pre-sample activation time
	regAccDblRead = 0x548 // Snapshot of the double-transition counter
)

// MemDevice is the QDEC peripheral accessed through a memory mapping of
// its register block.
type MemDevice struct {
	file *os.File
	mem  []byte
}

// OpenDevice maps the QDEC peripheral registers.
func OpenDevice() (*MemDevice, error) {
	return openDevice(memDevice, qdecBase)
}

func openDevice(dev string, base int64) (*MemDevice, error) {
	f, err := os.OpenFile(dev, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", dev, err)
	}
	mem, err := unix.Mmap(int(f.Fd()), base, unix.Getpagesize(),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: mmap: %v", dev, err)
	}
	return &MemDevice{file: f, mem: mem}, nil
}

// Close unmaps the register block. The peripheral should be stopped
// before the device is closed.
func (m *MemDevice) Close() {
	unix.Munmap(m.mem)
	m.file.Close()
}

// reg returns a pointer to a 32 bit register at the given offset.
func (m *MemDevice) reg(offset int) *uint32 {
	return (*uint32)(unsafe.Pointer(&m.mem[offset]))
}

// Enabled returns true if the peripheral is enabled.
func (m *MemDevice) Enabled() bool {
	return *m.reg(regEnable) != 0
}

// Program writes the sampling configuration, with all shortcut and
// interrupt paths disabled.
func (m *MemDevice) Program(s Settings) {
	*m.reg(regShorts) = 0
	*m.reg(regIntenClr) = ^uint32(0)
	*m.reg(regLEDPol) = s.LEDPol
	*m.reg(regSamplePer) = s.SamplePer
	*m.reg(regReportPer) = 7 // Slowest possible reporting (not used)
	*m.reg(regPselLED) = s.PselLED
	*m.reg(regPselA) = s.PselA
	*m.reg(regPselB) = s.PselB
	if s.Debounce {
		*m.reg(regDBFEn) = 1
	} else {
		*m.reg(regDBFEn) = 0
	}
	*m.reg(regLEDPre) = s.LEDPre
}

// Enable enables the peripheral.
func (m *MemDevice) Enable() {
	*m.reg(regEnable) = 1
}

// Disable disables the peripheral, releasing it for other users.
func (m *MemDevice) Disable() {
	*m.reg(regEnable) = 0
}

// Start triggers the sampling start task.
func (m *MemDevice) Start() {
	*m.reg(regStart) = 1
}

// Stop triggers the sampling stop task.
func (m *MemDevice) Stop() {
	*m.reg(regStop) = 1
}

// ReadClearAcc triggers the read-and-clear task and returns the signed
// movement accumulated since the last clear. The same task latches and
// clears the double-transition counter for ReadClearDbl.
func (m *MemDevice) ReadClearAcc() int32 {
	*m.reg(regReadClrAcc) = 1
	return int32(*m.reg(regAccRead))
}

// ReadClearDbl returns the double transitions captured by the last
// ReadClearAcc.
func (m *MemDevice) ReadClearDbl() uint32 {
	return *m.reg(regAccDblRead)
}

var _ Device = (*MemDevice)(nil)
