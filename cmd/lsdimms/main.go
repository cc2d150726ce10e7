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

// Command lsdimms lists memory DIMM information from SMBIOS.
package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/yywing/go-firmdump/smbios"
)

func main() {
	// Find SMBIOS data in operating system-specific location.
	t, err := smbios.ReadTable()
	if err != nil {
		log.Fatalf("failed to read SMBIOS table: %v", err)
	}

	ss, err := t.Decode()
	if err != nil {
		log.Errorf("failed to decode structures: %v", err)
	}

	fmt.Printf("SMBIOS %s\n", t.Version())

	for _, s := range ss {
		// Only look at memory devices.
		m, ok := s.Info.(*smbios.MemoryDevice)
		if !ok {
			continue
		}

		if !m.Installed() {
			fmt.Printf("[% 3s] empty\n", m.DeviceLocator)
			continue
		}

		fmt.Printf("[% 3s] DIMM: %d MB %s\n", m.DeviceLocator, m.SizeBytes()>>20, m.TypeName())
	}
}
