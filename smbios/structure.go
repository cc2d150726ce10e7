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

package smbios

import "fmt"

// A Header is a Structure's header.
type Header struct {
	Type   uint8
	Length uint8
	Handle uint16
}

// A Structure is an SMBIOS structure.
type Structure struct {
	Header Header

	// Formatted is the fixed-format part following the header.
	Formatted []byte

	// Strings is the structure's string set.  String indices in the
	// formatted part are 1-based.
	Strings []string

	// Info holds the fields decoded from Formatted.
	Info Info

	// Raw is the complete structure as it appeared in the table, including
	// the header and the string set terminator.
	Raw []byte
}

// StringAt returns the string with the 1-based index i.  Index 0 denotes an
// absent string and returns the empty string.  It reports false if i is past
// the end of the string set.
func (s *Structure) StringAt(i uint8) (string, bool) {
	if i == 0 {
		return "", true
	}
	if int(i) > len(s.Strings) {
		return "", false
	}

	return s.Strings[i-1], true
}

// A StringRef is a string-index field and the string it refers to.
type StringRef struct {
	Index uint8
	Value string

	// Bad is set if Index points past the end of the string set.
	Bad bool
}

// String implements fmt.Stringer.
func (r StringRef) String() string {
	if r.Bad {
		return fmt.Sprintf("<bad string index %d>", r.Index)
	}

	return r.Value
}

// Well-known structure types.
const (
	TypeBIOS           = 0
	TypeSystem         = 1
	TypeBaseboard      = 2
	TypeChassis        = 3
	TypeProcessor      = 4
	TypeCache          = 7
	TypeSystemSlot     = 9
	TypeOEMStrings     = 11
	TypeMemoryDevice   = 17
	TypeSystemBoot     = 32
	TypeInactive       = 126
	TypeEndOfTable     = 127
	typeOEMSpecificMin = 128
)

var typeNames = map[uint8]string{
	0:   "BIOS Information",
	1:   "System Information",
	2:   "Baseboard Information",
	3:   "System Enclosure",
	4:   "Processor Information",
	5:   "Memory Controller Information",
	6:   "Memory Module Information",
	7:   "Cache Information",
	8:   "Port Connector Information",
	9:   "System Slots",
	10:  "On Board Devices Information",
	11:  "OEM Strings",
	12:  "System Configuration Options",
	13:  "BIOS Language Information",
	14:  "Group Associations",
	15:  "System Event Log",
	16:  "Physical Memory Array",
	17:  "Memory Device",
	18:  "32-Bit Memory Error Information",
	19:  "Memory Array Mapped Address",
	20:  "Memory Device Mapped Address",
	21:  "Built-in Pointing Device",
	22:  "Portable Battery",
	23:  "System Reset",
	24:  "Hardware Security",
	25:  "System Power Controls",
	26:  "Voltage Probe",
	27:  "Cooling Device",
	28:  "Temperature Probe",
	29:  "Electrical Current Probe",
	30:  "Out-of-Band Remote Access",
	31:  "Boot Integrity Services Entry Point",
	32:  "System Boot Information",
	33:  "64-Bit Memory Error Information",
	34:  "Management Device",
	35:  "Management Device Component",
	36:  "Management Device Threshold Data",
	37:  "Memory Channel",
	38:  "IPMI Device Information",
	39:  "System Power Supply",
	40:  "Additional Information",
	41:  "Onboard Devices Extended Information",
	42:  "Management Controller Host Interface",
	43:  "TPM Device",
	44:  "Processor Additional Information",
	45:  "Firmware Inventory Information",
	46:  "String Property",
	126: "Inactive",
	127: "End Of Table",
}

// TypeName returns a human readable name for a structure type.
func TypeName(t uint8) string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	if t >= typeOEMSpecificMin {
		return fmt.Sprintf("OEM-specific Type %d", t)
	}

	return fmt.Sprintf("Unknown Type %d", t)
}
