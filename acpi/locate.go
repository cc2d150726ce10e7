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
	log "github.com/sirupsen/logrus"
)

// Locate returns a copy of ts in which tables whose physical address can be
// derived from the FADT carry it.
//
// Operating systems expose table contents but not addresses.  The DSDT and
// FACS are single-instance tables pointed to by the FADT, so when ts holds
// exactly one FADT that decodes, the sole unaddressed DSDT takes
// FADT.DSDTAddress and the sole unaddressed FACS takes FADT.FACSAddress.
// Tables which already have an address are left alone, so Locate is
// idempotent.
func Locate(ts []RawTable) []RawTable {
	out := make([]RawTable, len(ts))
	copy(out, ts)

	fadt, ok := single(out, SigFADT)
	if !ok {
		return out
	}

	f, err := DecodeFADT(out[fadt])
	if err != nil {
		log.Debugf("cannot locate tables from FADT: %v", err)
		return out
	}

	for _, p := range []struct {
		sig  Signature
		addr uint64
	}{
		{sig: SigDSDT, addr: f.DSDTAddress()},
		{sig: SigFACS, addr: f.FACSAddress()},
	} {
		i, ok := single(out, p.sig)
		if !ok || p.addr == 0 || out[i].HasAddress {
			continue
		}

		log.Debugf("located %s at 0x%X", p.sig, p.addr)
		out[i] = out[i].WithAddress(p.addr)
	}

	return out
}

// single returns the index of the only table in ts with signature sig.
func single(ts []RawTable, sig Signature) (int, bool) {
	idx := -1
	for i, t := range ts {
		if t.Signature != sig {
			continue
		}
		if idx >= 0 {
			return 0, false
		}
		idx = i
	}

	return idx, idx >= 0
}
