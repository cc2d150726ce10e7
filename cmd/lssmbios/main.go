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

// Command lssmbios accesses and displays SMBIOS data.
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

	// Decode SMBIOS structures from the table.  Structures decoded before
	// an error are still listed.
	ss, err := t.Decode()
	if err != nil {
		log.Errorf("failed to decode structures: %v", err)
	}

	if t.EntryPoint != nil {
		addr, size := t.EntryPoint.Table()
		fmt.Printf("SMBIOS %s - table: address: %#x, size: %d\n",
			t.Version(), addr, size)
	} else {
		fmt.Printf("SMBIOS %s - table size: %d\n", t.Version(), len(t.Data))
	}

	for _, s := range ss {
		fmt.Printf("Handle 0x%04X, DMI type %d (%s), %d bytes\n",
			s.Header.Handle, s.Header.Type, smbios.TypeName(s.Header.Type), s.Header.Length)
		for i, str := range s.Strings {
			fmt.Printf("\t%d: %q\n", i+1, str)
		}
	}
}
