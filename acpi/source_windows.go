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

package acpi

import (
	"context"
	"encoding/binary"
	"unsafe"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

const (
	// 'ACPI' as uint32
	firmwareTableProviderSigACPI uint32 = 0x41435049

	// Tables are stored below this key as
	// <signature>\<OEM ID>\<table ID>\<revision>.
	registryACPI       = `HARDWARE\ACPI`
	registryTableDepth = 4
)

var (
	libKernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procEnumSystemFirmwareTables = libKernel32.NewProc("EnumSystemFirmwareTables")
	procGetSystemFirmwareTable   = libKernel32.NewProc("GetSystemFirmwareTable")
)

// Tables which EnumSystemFirmwareTables frequently omits although
// GetSystemFirmwareTable still returns them.
var hiddenTables = []Signature{SigDSDT, SigRSDT, SigXSDT, SignatureOf("RSDP"), SignatureOf("UEFI")}

// SystemCollectors returns the collectors for the running system's firmware
// tables.  The registry holds every instance of duplicated tables such as
// SSDTs, while the firmware table API also returns tables the registry lacks.
func SystemCollectors() []Collector {
	return []Collector{registryCollector{}, firmwareCollector{}}
}

type registryCollector struct{}

func (registryCollector) Name() string { return `registry:HKLM\` + registryACPI }

func (registryCollector) Collect(ctx context.Context) ([]RawTable, error) {
	paths, err := leafKeys(registryACPI, registryTableDepth)
	if err != nil {
		return nil, err
	}

	var (
		ts      []RawTable
		lastErr error
	)
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		b, err := readRegistryTable(p)
		if err != nil {
			log.Debugf("error getting ACPI table from registry key %q: %v", p, err)
			lastErr = err
			continue
		}

		ts = append(ts, NewRawTable(b))
	}

	if len(ts) == 0 && lastErr != nil {
		return nil, lastErr
	}

	return ts, nil
}

// leafKeys returns the paths of all keys depth levels below path.
func leafKeys(path string, depth int) ([]string, error) {
	if depth == 0 {
		return []string{path}, nil
	}

	k, err := registry.OpenKey(registry.LOCAL_MACHINE, path, registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		return nil, err
	}
	names, err := k.ReadSubKeyNames(-1)
	k.Close()
	if err != nil {
		return nil, err
	}

	var out []string
	for _, n := range names {
		sub, err := leafKeys(path+`\`+n, depth-1)
		if err != nil {
			log.Debugf("error enumerating registry key %q: %v", path+`\`+n, err)
			continue
		}
		out = append(out, sub...)
	}

	return out, nil
}

// readRegistryTable reads the table stored in the key at path.  The data is
// normally in the value "00000000"; otherwise the first binary value is used.
func readRegistryTable(path string) ([]byte, error) {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, path, registry.QUERY_VALUE)
	if err != nil {
		return nil, err
	}
	defer k.Close()

	if b, _, err := k.GetBinaryValue("00000000"); err == nil {
		return b, nil
	}

	names, err := k.ReadValueNames(-1)
	if err != nil {
		return nil, err
	}
	for _, n := range names {
		if b, _, err := k.GetBinaryValue(n); err == nil {
			return b, nil
		}
	}

	return nil, errors.Errorf("no binary value in registry key %q", path)
}

type firmwareCollector struct{}

func (firmwareCollector) Name() string { return "GetSystemFirmwareTable" }

func (firmwareCollector) Collect(ctx context.Context) ([]RawTable, error) {
	sigs, err := enumFirmwareTables()
	if err != nil {
		return nil, err
	}

	listed := make(map[Signature]bool, len(sigs))
	for _, s := range sigs {
		listed[s] = true
	}
	for _, s := range hiddenTables {
		if !listed[s] {
			sigs = append(sigs, s)
		}
	}

	var (
		ts      []RawTable
		lastErr error
	)
	for _, s := range sigs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		b, err := readFirmwareTable(s)
		if err != nil {
			// Probed hidden tables are usually just absent.
			if listed[s] {
				log.Debugf("error getting ACPI table %q: %v", s, err)
				lastErr = err
			}
			continue
		}

		t := NewRawTable(b)
		if len(b) < len(t.Signature) {
			t.Signature = s
		}
		ts = append(ts, t)
	}

	if len(ts) == 0 && lastErr != nil {
		return nil, lastErr
	}

	return ts, nil
}

func enumFirmwareTables() ([]Signature, error) {
	// calling with NULL buffer will return required buffer size
	r1, _, err := procEnumSystemFirmwareTables.Call(
		uintptr(firmwareTableProviderSigACPI),
		0,
		0,
	)
	// err is never nil, r1 has to be checked
	if r1 == 0 {
		return nil, errors.Wrap(err, "error determining required buffer size")
	}

	bufSz := uint32(r1)
	buf := make([]byte, bufSz)
	r1, _, err = procEnumSystemFirmwareTables.Call(
		uintptr(firmwareTableProviderSigACPI),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(bufSz),
	)

	wrSz := uint32(r1)
	if wrSz == 0 {
		return nil, errors.Wrap(err, "failed to enumerate ACPI tables")
	}
	if wrSz > bufSz {
		return nil, errors.Errorf("too many bytes written: expected %d got %d", bufSz, wrSz)
	}

	var sigs []Signature
	for b := buf[:wrSz]; len(b) >= 4; b = b[4:] {
		var s Signature
		copy(s[:], b)
		sigs = append(sigs, s)
	}

	return sigs, nil
}

func readFirmwareTable(s Signature) ([]byte, error) {
	id := binary.LittleEndian.Uint32(s[:])

	r1, _, err := procGetSystemFirmwareTable.Call(
		uintptr(firmwareTableProviderSigACPI),
		uintptr(id),
		0,
		0,
	)
	if r1 == 0 {
		return nil, errors.Wrap(err, "error determining required buffer size")
	}

	bufSz := uint32(r1)
	buf := make([]byte, bufSz)
	r1, _, err = procGetSystemFirmwareTable.Call(
		uintptr(firmwareTableProviderSigACPI),
		uintptr(id),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(bufSz),
	)

	wrSz := uint32(r1)
	if wrSz == 0 {
		return nil, errors.Wrapf(err, "failed to read ACPI table %q", s)
	}
	if wrSz > bufSz {
		return nil, errors.Errorf("too many bytes written: expected %d got %d", bufSz, wrSz)
	}

	return buf[:wrSz], nil
}
