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

//go:build linux

package smbios

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// sysfs locations for SMBIOS information.
const (
	sysfsDMI        = "/sys/firmware/dmi/tables/DMI"
	sysfsEntryPoint = "/sys/firmware/dmi/tables/smbios_entry_point"
)

// Legacy BIOS memory range searched for an entry point when sysfs does not
// expose one.
const (
	devMem      = "/dev/mem"
	devMemStart = 0x000f0000
	devMemEnd   = 0x000fffff
)

// readTable reads the SMBIOS entry point and structure table.
func readTable() (*Table, error) {
	// First, check for the sysfs location present in modern kernels.
	_, err := os.Stat(sysfsEntryPoint)
	switch {
	case err == nil:
		return sysfsTable()
	case os.IsNotExist(err):
		log.Debugf("%s not present, searching %s", sysfsEntryPoint, devMem)
		return devMemTable()
	default:
		return nil, err
	}
}

// sysfsTable reads the SMBIOS entry point and structure table from the
// modern sysfs locations.
func sysfsTable() (*Table, error) {
	epf, err := os.Open(sysfsEntryPoint)
	if err != nil {
		return nil, err
	}
	defer epf.Close()

	ep, err := ParseEntryPoint(epf)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(sysfsDMI)
	if err != nil {
		return nil, err
	}

	return &Table{EntryPoint: ep, Data: data}, nil
}

// devMemTable searches physical memory for the entry point.
func devMemTable() (*Table, error) {
	f, err := os.Open(devMem)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return memoryTable(f, devMemStart, devMemEnd)
}
