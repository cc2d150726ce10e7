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

//go:build windows

package smbios

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

const (
	firmwareTableProviderSigRSMB uint32 = 0x52534d42 // 'RSMB' in ASCII
)

var (
	libKernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procGetSystemFirmwareTable = libKernel32.NewProc("GetSystemFirmwareTable")
)

func readTable() (*Table, error) {
	if err := procGetSystemFirmwareTable.Find(); err != nil {
		return nil, err
	}

	// Call first with empty buffer to get size.
	r1, _, err := procGetSystemFirmwareTable.Call(
		uintptr(firmwareTableProviderSigRSMB),
		0,
		0,
		0,
	)
	if r1 == 0 {
		return nil, errors.Errorf("failed to determine size of buffer needed: %v", err)
	}

	bufferSize := uint32(r1)
	buffer := make([]byte, bufferSize)

	r1, _, err = procGetSystemFirmwareTable.Call(
		uintptr(firmwareTableProviderSigRSMB),
		0,
		uintptr(unsafe.Pointer(&buffer[0])),
		uintptr(bufferSize),
	)
	if uint32(r1) != bufferSize {
		return nil, errors.Errorf("failed to read SMBIOS data: expected %d bytes, read %d bytes: %v", bufferSize, r1, err)
	}

	// Windows writes a RawSMBIOSData struct into the output buffer.
	return ParseRawSMBIOSData(buffer)
}
