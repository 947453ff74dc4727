// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/specialistvlad/riggraph/internal/config"
	"github.com/specialistvlad/riggraph/internal/ctxlog"
	"github.com/specialistvlad/riggraph/internal/library"
	"github.com/specialistvlad/riggraph/internal/serialize"
)

// App encapsulates the application's dependencies and configuration.
type App struct {
	ctx    context.Context
	logger *slog.Logger
	config *config.Config

	mu        sync.RWMutex
	libraries *library.Registry
}

// New is the constructor for the main application. It configures an isolated
// logger writing to logW and discovers the configured libraries.
func New(ctx context.Context, logW io.Writer, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	reg, err := library.Discover(ctx, cfg.LibraryPaths, library.Options{Target: cfg.Target})
	if err != nil {
		return nil, fmt.Errorf("failed to discover libraries: %w", err)
	}
	logger.Debug("Libraries discovered.", "libraries", reg.Libraries(), "target", reg.Target())

	return &App{
		ctx:       ctx,
		logger:    logger,
		config:    cfg,
		libraries: reg,
	}, nil
}

// Context returns the application context. It carries the logger.
func (a *App) Context() context.Context { return a.ctx }

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Config returns the configuration the application was built with.
func (a *App) Config() *config.Config { return a.config }

// Libraries returns the current library snapshot.
func (a *App) Libraries() *library.Registry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.libraries
}

func (a *App) setLibraries(reg *library.Registry) {
	a.mu.Lock()
	a.libraries = reg
	a.mu.Unlock()
	a.logger.Info("Libraries reloaded.", "libraries", reg.Libraries())
}

// definitions resolves instances against whatever library snapshot is current
// when the lookup happens.
type definitions struct{ app *App }

func (d definitions) Definition(lib, typ string) (*serialize.Document, error) {
	return d.app.Libraries().Definition(lib, typ)
}
