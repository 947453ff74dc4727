// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/riggraph/internal/ctxlog"
	"github.com/specialistvlad/riggraph/internal/fsutil"
	"golang.org/x/sync/errgroup"
)

// Options configures Discover.
type Options struct {
	// Target selects the definition flavor. Empty means DefaultTarget.
	Target string
}

// Discover scans every root concurrently and merges the libraries it finds in
// root order. When two roots hold a library of the same name the first one
// wins. Roots that do not exist are skipped. The context must carry a logger
// (see ctxlog.WithLogger).
func Discover(ctx context.Context, roots []string, opts Options) (*Registry, error) {
	logger := ctxlog.FromContext(ctx)
	if opts.Target == "" {
		opts.Target = DefaultTarget
	}

	scanned := make([]map[string]*Library, len(roots))
	g, gctx := errgroup.WithContext(ctx)
	for i, root := range roots {
		g.Go(func() error {
			libs, err := scanRoot(gctx, root)
			if err != nil {
				return err
			}
			scanned[i] = libs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	reg := &Registry{target: opts.Target, libs: make(map[string]*Library)}
	for i, libs := range scanned {
		if libs == nil {
			logger.Warn("Library root does not exist, skipping.", "root", roots[i])
			continue
		}
		for _, name := range sortedKeys(libs) {
			if prev, dup := reg.libs[name]; dup {
				logger.Warn("Duplicate library ignored.", "library", name, "used", prev.Dir, "ignored", libs[name].Dir)
				continue
			}
			reg.libs[name] = libs[name]
		}
	}

	logger.Debug("Libraries discovered.", "roots", len(roots), "libraries", len(reg.libs), "target", reg.target)
	return reg, nil
}

// scanRoot returns nil without error when root does not exist.
func scanRoot(ctx context.Context, root string) (map[string]*Library, error) {
	files, err := fsutil.FindFilesByExtension(ctx, root, Extension)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan library root %s: %w", root, err)
	}

	libs := make(map[string]*Library)
	for _, path := range files {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil, fmt.Errorf("failed to scan library root %s: %w", root, err)
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) != 3 {
			continue
		}
		name, target, typ := parts[0], parts[1], strings.TrimSuffix(parts[2], Extension)
		if typ == "" {
			continue
		}
		lib, ok := libs[name]
		if !ok {
			lib = &Library{
				Name:  name,
				Root:  root,
				Dir:   filepath.Join(root, name),
				files: make(map[string]map[string]string),
			}
			libs[name] = lib
		}
		if lib.files[target] == nil {
			lib.files[target] = make(map[string]string)
		}
		lib.files[target][typ] = path
	}
	return libs, nil
}
