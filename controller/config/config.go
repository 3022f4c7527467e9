// Copyright 2021 Consortium GARR and University of Rome "Tor Vergata"
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

// Package config contains the controller configuration, loaded from a TOML
// file. Missing values fall back to defaults, unknown keys are rejected.
package config

import (
	"bytes"
	"io"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/netgroup/srv6-controller/pkg/private/serrors"
)

// Defaults.
const (
	DefaultDBPath      = "srv6_usid.db"
	DefaultNodesFile   = "nodes.yml"
	DefaultGRPCTimeout = 10 * time.Second
)

// Duration is a time.Duration that (un)marshals as a TOML string, e.g.
// "10s" or "1m30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the top level controller configuration.
type Config struct {
	Logging LoggingConfig `toml:"log,omitempty"`
	Metrics MetricsConfig `toml:"metrics,omitempty"`
	Storage StorageConfig `toml:"storage,omitempty"`
	Nodes   NodesConfig   `toml:"nodes,omitempty"`
	GRPC    GRPCConfig    `toml:"grpc,omitempty"`
}

// LoggingConfig configures the console logger.
type LoggingConfig struct {
	// Level of the logger: debug, info or error.
	Level string `toml:"level,omitempty"`
	// Format of the log entries: human or json.
	Format string `toml:"format,omitempty"`
}

// MetricsConfig configures the Prometheus exporter.
type MetricsConfig struct {
	// Prometheus is the address the metrics endpoint listens on. Empty
	// disables the exporter.
	Prometheus string `toml:"prometheus,omitempty"`
}

// StorageConfig configures the policy store.
type StorageConfig struct {
	// Path of the sqlite database file.
	Path string `toml:"path,omitempty"`
}

// NodesConfig configures the node directory.
type NodesConfig struct {
	// File is the path of the YAML node directory.
	File string `toml:"file,omitempty"`
}

// GRPCConfig configures the connections to the node managers.
type GRPCConfig struct {
	// Timeout applied to every node manager operation.
	Timeout Duration `toml:"timeout,omitempty"`
}

// InitDefaults fills in the default values for unset fields.
func (cfg *Config) InitDefaults() {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "human"
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = DefaultDBPath
	}
	if cfg.Nodes.File == "" {
		cfg.Nodes.File = DefaultNodesFile
	}
	if cfg.GRPC.Timeout.Duration == 0 {
		cfg.GRPC.Timeout.Duration = DefaultGRPCTimeout
	}
}

// Validate checks the configuration for consistency.
func (cfg *Config) Validate() error {
	switch cfg.Logging.Level {
	case "debug", "info", "error":
	default:
		return serrors.New("unsupported log level", "level", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "human", "json":
	default:
		return serrors.New("unsupported log format", "format", cfg.Logging.Format)
	}
	if cfg.GRPC.Timeout.Duration <= 0 {
		return serrors.New("grpc timeout must be positive",
			"timeout", cfg.GRPC.Timeout.Duration)
	}
	return nil
}

// LoadFile loads the configuration from a TOML file and applies the
// defaults. A missing file is not an error: the defaults are used.
func LoadFile(path string) (Config, error) {
	var cfg Config
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.InitDefaults()
			return cfg, cfg.Validate()
		}
		return Config{}, serrors.Wrap("reading config file", err, "file", path)
	}
	dec := toml.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, serrors.Wrap("parsing config file", err, "file", path)
	}
	cfg.InitDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Sample writes a commented sample configuration.
func Sample(w io.Writer) error {
	_, err := io.WriteString(w, sample)
	return err
}

const sample = `[log]
# Console logging level: debug, info or error. (default info)
level = "info"
# Log entry format: human or json. (default human)
format = "human"

[metrics]
# Address the Prometheus endpoint listens on. Empty disables it.
# (default "")
prometheus = ""

[storage]
# Path of the sqlite database holding the uSID policies.
# (default srv6_usid.db)
path = "srv6_usid.db"

[nodes]
# Path of the YAML node directory.
# (default nodes.yml)
file = "nodes.yml"

[grpc]
# Timeout applied to every node manager operation. (default 10s)
timeout = "10s"
`
