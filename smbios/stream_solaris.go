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

//go:build solaris

package smbios

import "os"

// /dev/smbios exposes the entry point at offset 0, followed by the
// structure table at the address the entry point names.
const devSMBIOS = "/dev/smbios"

func readTable() (*Table, error) {
	f, err := os.Open(devSMBIOS)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return memoryTable(f, 0, 16)
}
