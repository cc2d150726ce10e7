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

//go:build darwin

package smbios

import (
	"bytes"
	"context"
	"encoding/hex"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ioregTimeout bounds the ioreg invocation.
const ioregTimeout = 10 * time.Second

func run(cmd string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), ioregTimeout)
	defer cancel()

	var stdout bytes.Buffer
	c := exec.CommandContext(ctx, cmd, args...)
	c.Stdout = &stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return "", errors.Wrapf(err, "run %s", cmd)
	}

	return stdout.String(), nil
}

// unwrapData strips the angle brackets ioreg prints around data values.
func unwrapData(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "<")
	return strings.TrimSuffix(s, ">")
}

// extractSMBIOS returns the hex encoded entry point and structure table from
// the output of ioreg.
func extractSMBIOS(lines string) (eps, table string, err error) {
	for _, line := range strings.Split(lines, "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		switch strings.TrimSpace(key) {
		case `"SMBIOS-EPS"`:
			eps = unwrapData(value)
		case `"SMBIOS"`:
			table = unwrapData(value)
		}
	}

	if eps == "" || table == "" {
		return "", "", errors.Errorf("failed to extract SMBIOS values from ioreg output:\n%s", lines)
	}

	return eps, table, nil
}

// readTable reads the SMBIOS entry point and structure table from the
// AppleSMBIOS I/O Registry entry.
func readTable() (*Table, error) {
	out, err := run("ioreg", "-rd1", "-c", "AppleSMBIOS")
	if err != nil {
		return nil, err
	}

	epsHex, tableHex, err := extractSMBIOS(out)
	if err != nil {
		return nil, err
	}

	eps, err := hex.DecodeString(epsHex)
	if err != nil {
		return nil, errors.Wrap(err, "decode SMBIOS-EPS")
	}
	data, err := hex.DecodeString(tableHex)
	if err != nil {
		return nil, errors.Wrap(err, "decode SMBIOS")
	}

	ep, err := ParseEntryPoint(bytes.NewReader(eps))
	if err != nil {
		return nil, err
	}

	return &Table{EntryPoint: ep, Data: data}, nil
}
