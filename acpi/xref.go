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

// An AddressIndex maps physical addresses to the identity of the collected
// table at that address.  It is built once per enumeration and only relates
// pointers to tables; it never reads memory.
type AddressIndex struct {
	m map[uint64]ID
}

// NewAddressIndex indexes the tables in ts which have a known address.  If
// two tables claim the same address, the first one wins.
func NewAddressIndex(ts []RawTable) *AddressIndex {
	idx := &AddressIndex{m: make(map[uint64]ID)}
	for _, id := range Identify(ts) {
		if !id.HasAddress {
			continue
		}
		if _, ok := idx.m[id.Address]; ok {
			continue
		}

		idx.m[id.Address] = id
	}

	return idx
}

// Len returns the number of indexed addresses.
func (idx *AddressIndex) Len() int { return len(idx.m) }

// Lookup returns the identity of the table at addr.
func (idx *AddressIndex) Lookup(addr uint64) (ID, bool) {
	id, ok := idx.m[addr]
	return id, ok
}

// Resolve returns a copy of es with the signature of every entry whose
// address matches a collected table filled in.  Unmatched entries are left
// unresolved.
func (idx *AddressIndex) Resolve(es []Entry) []Entry {
	out := make([]Entry, len(es))
	for i, e := range es {
		out[i] = Entry{Address: e.Address}
		if id, ok := idx.Lookup(e.Address); ok {
			out[i].Signature = id.Signature
			out[i].Resolved = true
		}
	}

	return out
}

// A Reference is a named pointer held by a fixed-format table, such as the
// DSDT address in the FADT.
type Reference struct {
	Name    string
	Address uint64

	Signature Signature
	Resolved  bool
}

// ResolveReferences matches each reference against the collected tables,
// like Resolve does for root table entries.
func (idx *AddressIndex) ResolveReferences(rs []Reference) []Reference {
	out := make([]Reference, len(rs))
	for i, r := range rs {
		out[i] = Reference{Name: r.Name, Address: r.Address}
		if id, ok := idx.Lookup(r.Address); ok {
			out[i].Signature = id.Signature
			out[i].Resolved = true
		}
	}

	return out
}
