// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package library

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/specialistvlad/riggraph/internal/ctxlog"
	"github.com/specialistvlad/riggraph/internal/fsutil"
)

// DefaultDebounceInterval is the time to wait after the last change before
// the libraries are discovered again.
const DefaultDebounceInterval = 250 * time.Millisecond

// WatcherConfig holds the configuration of a Watcher.
type WatcherConfig struct {
	Roots    []string
	Options  Options
	Debounce time.Duration

	// OnChange receives a fresh Registry after every settled burst of changes.
	OnChange func(*Registry)
}

// Watcher rediscovers libraries when definition files or library directories
// change below any of the roots.
type Watcher struct {
	config WatcherConfig
	ready  chan struct{}
}

// NewWatcher creates a watcher. It does nothing until Run is called.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounceInterval
	}
	return &Watcher{config: config, ready: make(chan struct{})}
}

// Ready is closed once Run has registered its watches.
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

// Run watches the roots until ctx is cancelled. The context must carry a
// logger.
func (w *Watcher) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	for _, root := range w.config.Roots {
		// root, library and target directories
		dirs, err := fsutil.FindDirs(root, 2)
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Library root does not exist, not watching.", "root", root)
			continue
		}
		if err != nil {
			return err
		}
		for _, dir := range dirs {
			if err := fsw.Add(dir); err != nil {
				return err
			}
		}
	}
	close(w.ready)
	logger.Info("Watching library roots.", "roots", w.config.Roots)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(fsw, event) {
				continue
			}
			logger.Debug("Library change detected.", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.config.Debounce)
			} else {
				timer.Reset(w.config.Debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			reg, err := Discover(ctx, w.config.Roots, w.config.Options)
			if err != nil {
				logger.Error("Library rediscovery failed.", "error", err)
				continue
			}
			if w.config.OnChange != nil {
				w.config.OnChange(reg)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Error("Library watcher error.", "error", err)
		}
	}
}

// relevant reports whether event can change discovery results. New
// directories are added to the watch list.
func (w *Watcher) relevant(fsw *fsnotify.Watcher, event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if strings.HasSuffix(event.Name, Extension) {
		return true
	}
	if event.Has(fsnotify.Create) {
		if dirs, err := fsutil.FindDirs(event.Name, 1); err == nil {
			for _, dir := range dirs {
				_ = fsw.Add(dir)
			}
			return true
		}
		return false
	}
	// removed or renamed directories
	return event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}
