//
// Copyright 2026 Nestybox, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/nestybox/sysbox-ptrace/domain"
	"github.com/nestybox/sysbox-ptrace/policy"
	"github.com/nestybox/sysbox-ptrace/tracer"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Config holds the settings read from the --config file. Command-line flags
// take precedence over it.
type Config struct {
	// Mechanism used to read the tracee's memory (ptrace, iovec, procfs).
	MemParser string `yaml:"mem-parser"`

	// Destination of the per-syscall trace lines.
	Output string `yaml:"output"`

	Policy PolicyConfig `yaml:"policy"`

	// Per-handler overrides, keyed by syscall name.
	Syscalls map[string]SyscallConfig `yaml:"syscalls"`
}

type PolicyConfig struct {
	// Substring a path must contain for a write-capable open to be allowed.
	ConfinedMarker string `yaml:"confined-marker"`

	// Max number of path bytes looked at.
	InspectLimit int `yaml:"inspect-limit"`
}

type SyscallConfig struct {
	Enabled *bool `yaml:"enabled"`
}

func Default() *Config {
	return &Config{
		MemParser: tracer.MemParserPtrace,
		Output:    "/dev/stderr",
		Policy: PolicyConfig{
			ConfinedMarker: policy.DefaultConfinedMarker,
			InspectLimit:   policy.DefaultInspectLimit,
		},
	}
}

// Load reads the YAML file at path on top of the defaults. Unknown keys are
// rejected.
func Load(fs afero.Fs, path string) (*Config, error) {

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	logrus.Debugf("Loaded config file %s", path)

	return cfg, nil
}

func (c *Config) Validate() error {

	switch c.MemParser {
	case tracer.MemParserPtrace, tracer.MemParserIOvec, tracer.MemParserProcfs:
	default:
		return fmt.Errorf("mem-parser must be one of %s, %s or %s, got %q",
			tracer.MemParserPtrace, tracer.MemParserIOvec, tracer.MemParserProcfs, c.MemParser)
	}

	if c.Output == "" {
		return fmt.Errorf("output is required")
	}

	if c.Policy.ConfinedMarker == "" {
		return fmt.Errorf("policy.confined-marker must not be empty")
	}

	if c.Policy.InspectLimit <= 0 {
		return fmt.Errorf("policy.inspect-limit must be positive, got %d", c.Policy.InspectLimit)
	}

	return nil
}

// ApplyHandlers enables or disables the syscall handlers named in the
// syscalls section.
func (c *Config) ApplyHandlers(hds domain.HandlerServiceIface) error {

	names := make([]string, 0, len(c.Syscalls))
	for name := range c.Syscalls {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		enabled := c.Syscalls[name].Enabled
		if enabled == nil {
			continue
		}
		if err := hds.EnableHandler(name, *enabled); err != nil {
			return fmt.Errorf("syscalls.%s: %w", name, err)
		}
		logrus.Debugf("Handler %s enabled: %v", name, *enabled)
	}

	return nil
}
