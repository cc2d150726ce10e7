// Copyright 2017-2018 DigitalOcean.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package acpi

import (
	"github.com/pkg/errors"
	"github.com/yywing/go-firmdump/binreader"
)

// Table lengths at which each group of FADT fields ends.
const (
	fadtLenV1         = 116 // ACPI 1.0, through Flags
	fadtLenReset      = 129 // RESET_REG and RESET_VALUE
	fadtLenMinor      = 132 // ARM_BOOT_ARCH and the minor version
	fadtLenXPointers  = 148 // X_FIRMWARE_CTRL and X_DSDT
	fadtLenXBlocks    = 244 // extended register blocks, ACPI 2.0 and 3.0
	fadtLenSleep      = 268 // sleep control and status, ACPI 5.0
	fadtLenHypervisor = 276 // hypervisor vendor identity, ACPI 6.0

	// Tables with a revision below this only carry the ACPI 1.0 fields.
	fadtRevisionExtended = 2
)

// A GenericAddress is an ACPI Generic Address Structure describing the
// location of a register.
type GenericAddress struct {
	AddressSpace uint8
	BitWidth     uint8
	BitOffset    uint8
	AccessSize   uint8
	Address      uint64
}

func readGAS(s *binreader.Scanner) GenericAddress {
	return GenericAddress{
		AddressSpace: s.U8(),
		BitWidth:     s.U8(),
		BitOffset:    s.U8(),
		AccessSize:   s.U8(),
		Address:      s.U64(),
	}
}

// FADT holds the fixed fields of a Fixed ACPI Description Table.
//
// Fields are decoded up to the table's declared length, in the groups added
// by each ACPI revision.  Has* flags report which optional groups were
// present.  Bytes past DecodedLen are kept verbatim in Trailing, so header,
// decoded fields and Trailing together account for every byte of the table.
type FADT struct {
	Header Header

	// ACPI 1.0.
	FirmwareCtrl       uint32
	DSDT               uint32
	PreferredPMProfile uint8
	SCIInterrupt       uint16
	SMICommand         uint32
	ACPIEnable         uint8
	ACPIDisable        uint8
	S4BIOSRequest      uint8
	PStateControl      uint8
	PM1aEventBlock     uint32
	PM1bEventBlock     uint32
	PM1aControlBlock   uint32
	PM1bControlBlock   uint32
	PM2ControlBlock    uint32
	PMTimerBlock       uint32
	GPE0Block          uint32
	GPE1Block          uint32
	PM1EventLength     uint8
	PM1ControlLength   uint8
	PM2ControlLength   uint8
	PMTimerLength      uint8
	GPE0BlockLength    uint8
	GPE1BlockLength    uint8
	GPE1Base           uint8
	CStateControl      uint8
	C2Latency          uint16
	C3Latency          uint16
	FlushSize          uint16
	FlushStride        uint16
	DutyOffset         uint8
	DutyWidth          uint8
	DayAlarm           uint8
	MonthAlarm         uint8
	Century            uint8
	IAPCBootArch       uint16
	Flags              uint32

	HasReset      bool
	ResetRegister GenericAddress
	ResetValue    uint8

	HasMinorVersion bool
	ARMBootArch     uint16
	MinorVersion    uint8

	HasXPointers  bool
	XFirmwareCtrl uint64
	XDSDT         uint64

	HasXBlocks        bool
	XPM1aEventBlock   GenericAddress
	XPM1bEventBlock   GenericAddress
	XPM1aControlBlock GenericAddress
	XPM1bControlBlock GenericAddress
	XPM2ControlBlock  GenericAddress
	XPMTimerBlock     GenericAddress
	XGPE0Block        GenericAddress
	XGPE1Block        GenericAddress

	HasSleepRegisters    bool
	SleepControlRegister GenericAddress
	SleepStatusRegister  GenericAddress

	HasHypervisorVendor bool
	HypervisorVendor    uint64

	// DecodedLen is the offset of the first byte not decoded into a field.
	DecodedLen int

	// Trailing holds the bytes between DecodedLen and the table length.
	Trailing []byte
}

// DSDTAddress returns the physical address of the DSDT, preferring the
// 64-bit X_DSDT pointer when it is set.
func (f *FADT) DSDTAddress() uint64 {
	if f.HasXPointers && f.XDSDT != 0 {
		return f.XDSDT
	}

	return uint64(f.DSDT)
}

// FACSAddress returns the physical address of the FACS, preferring the
// 64-bit X_FIRMWARE_CTRL pointer when it is set.
func (f *FADT) FACSAddress() uint64 {
	if f.HasXPointers && f.XFirmwareCtrl != 0 {
		return f.XFirmwareCtrl
	}

	return uint64(f.FirmwareCtrl)
}

// References returns the table pointers held by the FADT.  Zero pointers are
// omitted.
func (f *FADT) References() []Reference {
	var rs []Reference
	add := func(name string, addr uint64) {
		if addr != 0 {
			rs = append(rs, Reference{Name: name, Address: addr})
		}
	}

	add("FIRMWARE_CTRL", uint64(f.FirmwareCtrl))
	add("DSDT", uint64(f.DSDT))
	if f.HasXPointers {
		add("X_FIRMWARE_CTRL", f.XFirmwareCtrl)
		add("X_DSDT", f.XDSDT)
	}

	return rs
}

// DecodeFADT decodes the Fixed ACPI Description Table t.
func DecodeFADT(t RawTable) (*FADT, error) {
	h, err := DecodeHeader(t)
	if err != nil {
		return nil, err
	}
	if h.Signature != SigFADT {
		return nil, errors.Wrapf(ErrUnexpectedSignature, "expected %s, got %s", SigFADT, h.Signature)
	}

	length := int(h.Length)
	if length < fadtLenV1 {
		return nil, errors.Wrapf(ErrTableTooShort, "FADT length %d, need at least %d", length, fadtLenV1)
	}

	r := binreader.New(t.Bytes[:length])
	if err := r.Seek(HeaderLen); err != nil {
		return nil, err
	}
	s := binreader.NewScanner(r)

	f := &FADT{Header: *h}

	f.FirmwareCtrl = s.U32()
	f.DSDT = s.U32()
	_ = s.U8() // INT_MODEL, reserved since ACPI 2.0
	f.PreferredPMProfile = s.U8()
	f.SCIInterrupt = s.U16()
	f.SMICommand = s.U32()
	f.ACPIEnable = s.U8()
	f.ACPIDisable = s.U8()
	f.S4BIOSRequest = s.U8()
	f.PStateControl = s.U8()
	f.PM1aEventBlock = s.U32()
	f.PM1bEventBlock = s.U32()
	f.PM1aControlBlock = s.U32()
	f.PM1bControlBlock = s.U32()
	f.PM2ControlBlock = s.U32()
	f.PMTimerBlock = s.U32()
	f.GPE0Block = s.U32()
	f.GPE1Block = s.U32()
	f.PM1EventLength = s.U8()
	f.PM1ControlLength = s.U8()
	f.PM2ControlLength = s.U8()
	f.PMTimerLength = s.U8()
	f.GPE0BlockLength = s.U8()
	f.GPE1BlockLength = s.U8()
	f.GPE1Base = s.U8()
	f.CStateControl = s.U8()
	f.C2Latency = s.U16()
	f.C3Latency = s.U16()
	f.FlushSize = s.U16()
	f.FlushStride = s.U16()
	f.DutyOffset = s.U8()
	f.DutyWidth = s.U8()
	f.DayAlarm = s.U8()
	f.MonthAlarm = s.U8()
	f.Century = s.U8()
	f.IAPCBootArch = s.U16()
	_ = s.U8() // reserved
	f.Flags = s.U32()

	extended := h.Revision >= fadtRevisionExtended

	if extended && length >= fadtLenReset {
		f.HasReset = true
		f.ResetRegister = readGAS(s)
		f.ResetValue = s.U8()
	}

	if f.HasReset && length >= fadtLenMinor {
		f.HasMinorVersion = true
		f.ARMBootArch = s.U16()
		f.MinorVersion = s.U8()
	}

	if f.HasMinorVersion && length >= fadtLenXPointers {
		f.HasXPointers = true
		f.XFirmwareCtrl = s.U64()
		f.XDSDT = s.U64()
	}

	if f.HasXPointers && length >= fadtLenXBlocks {
		f.HasXBlocks = true
		f.XPM1aEventBlock = readGAS(s)
		f.XPM1bEventBlock = readGAS(s)
		f.XPM1aControlBlock = readGAS(s)
		f.XPM1bControlBlock = readGAS(s)
		f.XPM2ControlBlock = readGAS(s)
		f.XPMTimerBlock = readGAS(s)
		f.XGPE0Block = readGAS(s)
		f.XGPE1Block = readGAS(s)
	}

	if f.HasXBlocks && length >= fadtLenSleep {
		f.HasSleepRegisters = true
		f.SleepControlRegister = readGAS(s)
		f.SleepStatusRegister = readGAS(s)
	}

	if f.HasSleepRegisters && length >= fadtLenHypervisor {
		f.HasHypervisorVendor = true
		f.HypervisorVendor = s.U64()
	}

	if err := s.Err(); err != nil {
		return nil, errors.Wrap(err, "decode FADT")
	}

	f.DecodedLen = r.Offset()
	if r.Remaining() > 0 {
		if f.Trailing, err = r.ReadBytes(r.Remaining()); err != nil {
			return nil, err
		}
	}

	return f, nil
}
