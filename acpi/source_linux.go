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

package acpi

import (
	"context"
	"os"
)

// sysfs locations for ACPI tables.  Tables loaded at runtime, including
// additional SSDTs, appear under the dynamic subdirectory.
const (
	sysfsTables        = "/sys/firmware/acpi/tables"
	sysfsDynamicTables = "/sys/firmware/acpi/tables/dynamic"
)

// SystemCollectors returns the collectors for the running system's firmware
// tables.
func SystemCollectors() []Collector {
	return []Collector{
		sysfsCollector{dir: sysfsTables},
		sysfsCollector{dir: sysfsDynamicTables, optional: true},
	}
}

// A sysfsCollector reads the tables the kernel exposes as one file per table
// (DSDT, FACP, SSDT1, SSDT2, ...).  sysfs does not expose physical
// addresses.
type sysfsCollector struct {
	dir      string
	optional bool
}

func (c sysfsCollector) Name() string { return "sysfs:" + c.dir }

func (c sysfsCollector) Collect(ctx context.Context) ([]RawTable, error) {
	ts, err := readTableDir(ctx, c.dir)
	if err != nil && c.optional && os.IsNotExist(err) {
		return nil, nil
	}

	return ts, err
}
