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

// Package config loads fwdump settings from YAML or .env files.
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	env "github.com/hashicorp/go-envparse"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Keys read from .env files.
const (
	envLogLevel   = "FWDUMP_LOG_LEVEL"
	envExportDir  = "FWDUMP_EXPORT_DIR"
	envWorkers    = "FWDUMP_WORKERS"
	envInputDir   = "FWDUMP_INPUT_DIR"
	envSMBIOSFile = "FWDUMP_SMBIOS_FILE"
)

// Config holds fwdump settings.
type Config struct {
	// LogLevel is a logrus level name such as "info" or "debug".
	LogLevel string `yaml:"log_level"`

	// ExportDir is where exported tables are written.
	ExportDir string `yaml:"export_dir"`

	// Workers bounds the number of tables exported concurrently.
	Workers int `yaml:"workers"`

	// InputDir, if set, is a directory of previously exported ACPI tables
	// read in addition to the running system's.
	InputDir string `yaml:"input_dir"`

	// SMBIOSFile, if set, is a raw SMBIOS structure table read instead of
	// the running system's.
	SMBIOSFile string `yaml:"smbios_file"`
}

// Defaults returns the configuration used when no file is given.
func Defaults() Config {
	return Config{
		LogLevel:  log.InfoLevel.String(),
		ExportDir: "fwdump",
		Workers:   runtime.NumCPU(),
	}
}

// Load reads the configuration file at path, choosing the format by its
// extension: .yaml and .yml files are YAML, .env files are dotenv.  Settings
// missing from the file keep their defaults.  An empty path yields Defaults.
func Load(path string) (Config, error) {
	c := Defaults()
	if path == "" {
		return c, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &c)
	case ".env":
		err = parseEnv(b, &c)
	default:
		err = errors.Errorf("invalid config file format %q", ext)
	}
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to parse config %q", path)
	}

	if err := c.Validate(); err != nil {
		return Config{}, errors.Wrapf(err, "invalid config %q", path)
	}

	return c, nil
}

func parseEnv(b []byte, c *Config) error {
	m, err := env.Parse(bytes.NewReader(b))
	if err != nil {
		return err
	}

	for k, p := range map[string]*string{
		envLogLevel:   &c.LogLevel,
		envExportDir:  &c.ExportDir,
		envInputDir:   &c.InputDir,
		envSMBIOSFile: &c.SMBIOSFile,
	} {
		if v, ok := m[k]; ok {
			*p = v
		}
	}

	if v, ok := m[envWorkers]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "%s", envWorkers)
		}
		c.Workers = n
	}

	return nil
}

// Validate checks that c holds usable settings.
func (c Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Workers < 1 {
		return errors.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.ExportDir == "" {
		return errors.New("export directory is required")
	}

	return nil
}

// Level returns the parsed log level, falling back to info.
func (c Config) Level() log.Level {
	l, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}

	return l
}
