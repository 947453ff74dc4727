// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/specialistvlad/riggraph/internal/ctxlog"
	"github.com/specialistvlad/riggraph/internal/library"
	"github.com/specialistvlad/riggraph/internal/relay"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// ServeOptions configures Serve.
type ServeOptions struct {
	// Address overrides the configured relay address.
	Address string
	// WatchLibraries reloads libraries when their files change.
	WatchLibraries bool
	// Ready is called with the listening address once the server accepts
	// connections.
	Ready func(addr string)
}

// healthHandler answers liveness probes.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// Serve exposes sess over the socket.io relay until ctx is cancelled. It also
// serves a /health endpoint on the same address.
func (a *App) Serve(ctx context.Context, sess *Session, opts ServeOptions) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	addr := opts.Address
	if addr == "" {
		addr = a.config.Relay.Address
	}

	srv := relay.NewServer(sess.Store, sess.History, relay.ServerOptions{
		Path:     a.config.Relay.Path,
		Logger:   a.logger,
		Snapshot: sess.Snapshot,
	})
	_ = sess.History.View(func() error {
		srv.Start()
		return nil
	})
	defer srv.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.Handle(srv.Path(), srv.Handler())

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	httpServer := &http.Server{Handler: mux}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("Relay listening.", "address", ln.Addr().String(), "path", srv.Path())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("relay server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		a.logger.Info("Shutting down relay server...")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("Relay server shutdown failed", "error", err)
			return err
		}
		a.logger.Debug("Relay server shut down gracefully.")
		return nil
	})
	if opts.WatchLibraries && len(a.config.LibraryPaths) > 0 {
		w := library.NewWatcher(library.WatcherConfig{
			Roots:    a.config.LibraryPaths,
			Options:  library.Options{Target: a.config.Target},
			OnChange: a.setLibraries,
		})
		g.Go(func() error { return w.Run(gctx) })
	}

	if opts.Ready != nil {
		opts.Ready(ln.Addr().String())
	}
	return g.Wait()
}

// Watch connects to a relay at url and writes every event to w as one JSON
// object per line until ctx is cancelled.
func (a *App) Watch(ctx context.Context, url string, w io.Writer) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	enc := json.NewEncoder(w)
	var writeErr error
	err := relay.Listen(ctx, url, func(ev relay.Event) {
		if writeErr != nil {
			return
		}
		writeErr = enc.Encode(ev)
	})
	if err != nil {
		return err
	}
	return writeErr
}
