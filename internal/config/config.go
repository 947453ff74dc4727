// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package config

import (
	"errors"
	"fmt"
	"strings"
)

// Environment variables that override the configuration file.
const (
	EnvLibraryPath = "RIGGRAPH_LIBRARY_PATH"
	EnvLogLevel    = "RIGGRAPH_LOG_LEVEL"
	EnvLogFormat   = "RIGGRAPH_LOG_FORMAT"
	EnvTarget      = "RIGGRAPH_TARGET"
)

// DefaultFile is the configuration file looked up in the working directory
// when no path is given.
const DefaultFile = "riggraph.hcl"

var ErrInvalid = errors.New("invalid configuration")

// Config is the process configuration.
type Config struct {
	LogLevel  string
	LogFormat string

	// Target selects the flavor of library definitions.
	Target string

	// LibraryPaths are library roots in lookup order.
	LibraryPaths []string

	Relay Relay

	// Source is the file the configuration was read from, if any.
	Source string
}

// Relay configures the socket.io change relay.
type Relay struct {
	Address string
	Path    string
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "json",
		Target:    "default",
		Relay: Relay{
			Address: "localhost:7777",
			Path:    "/socket.io/",
		},
	}
}

// Validate checks that every field holds a usable value.
func (c *Config) Validate() error {
	var errs []error
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log level must be 'debug', 'info', 'warn', or 'error', got %q", c.LogLevel))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log format must be 'text' or 'json', got %q", c.LogFormat))
	}
	if c.Target == "" {
		errs = append(errs, errors.New("target cannot be empty"))
	}
	for i, p := range c.LibraryPaths {
		if p == "" {
			errs = append(errs, fmt.Errorf("library path %d is empty", i))
		}
	}
	if c.Relay.Address == "" {
		errs = append(errs, errors.New("relay address cannot be empty"))
	}
	if !strings.HasPrefix(c.Relay.Path, "/") {
		errs = append(errs, fmt.Errorf("relay path must start with '/', got %q", c.Relay.Path))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}
