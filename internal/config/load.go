// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/riggraph/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// hclConfigFile represents the top-level structure of a configuration file for decoding.
type hclConfigFile struct {
	LogLevel      *string   `hcl:"log_level,optional"`
	LogFormat     *string   `hcl:"log_format,optional"`
	DefaultTarget *string   `hcl:"default_target,optional"`
	LibraryPaths  []string  `hcl:"library_paths,optional"`
	Relay         *hclRelay `hcl:"relay,block"`
}

type hclRelay struct {
	Address *string `hcl:"address,optional"`
	Path    *string `hcl:"path,optional"`
}

// Loader reads configuration from a file and an environment.
type Loader struct {
	// Env replaces the process environment when non-nil.
	Env map[string]string
}

// Load reads the configuration with the process environment. See Loader.Load.
func Load(ctx context.Context, path string) (*Config, error) {
	return (&Loader{}).Load(ctx, path)
}

// Load builds a validated configuration. An empty path reads DefaultFile
// from the working directory when it exists. An explicit path must exist.
// The context must carry a logger.
func (l *Loader) Load(ctx context.Context, path string) (*Config, error) {
	logger := ctxlog.FromContext(ctx)
	env := l.env()
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat %s: %w", DefaultFile, err)
		}
	}

	if path != "" {
		if err := decodeFile(path, env, &cfg); err != nil {
			return nil, err
		}
		cfg.Source = path
		logger.Debug("Configuration file loaded.", "path", path)
	}

	applyEnv(env, &cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("Configuration resolved.", "log_level", cfg.LogLevel, "log_format", cfg.LogFormat, "target", cfg.Target, "library_paths", cfg.LibraryPaths)
	return &cfg, nil
}

func (l *Loader) env() map[string]string {
	if l.Env != nil {
		return l.Env
	}
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// decodeFile parses a single HCL file and merges the attributes it sets into cfg.
func decodeFile(path string, env map[string]string, cfg *Config) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var parsed hclConfigFile
	diags = gohcl.DecodeBody(file.Body, evalContext(env), &parsed)
	if diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	setString(&cfg.LogLevel, parsed.LogLevel)
	setString(&cfg.LogFormat, parsed.LogFormat)
	setString(&cfg.Target, parsed.DefaultTarget)
	if parsed.Relay != nil {
		setString(&cfg.Relay.Address, parsed.Relay.Address)
		setString(&cfg.Relay.Path, parsed.Relay.Path)
	}

	dir := filepath.Dir(path)
	for _, p := range parsed.LibraryPaths {
		if p != "" && !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		cfg.LibraryPaths = append(cfg.LibraryPaths, p)
	}
	return nil
}

func evalContext(env map[string]string) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(env))
	for k, v := range env {
		if hclIdentifier(k) {
			vars[k] = cty.StringVal(v)
		}
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(vars)},
	}
}

// hclIdentifier reports whether k can be used as an attribute name in
// expressions such as env.HOME.
func hclIdentifier(k string) bool {
	if k == "" {
		return false
	}
	for i, r := range k {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r == '-' || r >= '0' && r <= '9'):
		default:
			return false
		}
	}
	return true
}

func applyEnv(env map[string]string, cfg *Config) {
	if v := env[EnvLogLevel]; v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := env[EnvLogFormat]; v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
	if v := env[EnvTarget]; v != "" {
		cfg.Target = v
	}
	for _, p := range filepath.SplitList(env[EnvLibraryPath]) {
		if p != "" {
			cfg.LibraryPaths = append(cfg.LibraryPaths, p)
		}
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
