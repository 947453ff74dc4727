// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package library discovers node definition libraries on disk.
//
// A library root holds one directory per library, one directory per target
// inside it and one JSON definition document per node type:
//
//	<root>/<library>/<target>/<type>.json
//
// The target selects an application specific flavor of a definition. The
// "default" target is used when a definition is missing for the requested one.
package library

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/specialistvlad/riggraph/internal/serialize"
)

// DefaultTarget is the target directory used when no other target matches.
const DefaultTarget = "default"

// Extension is the file extension of definition documents.
const Extension = ".json"

var (
	ErrUnknownLibrary = errors.New("unknown library")
	ErrUnknownType    = errors.New("unknown node type")
)

// Library is one discovered library directory.
type Library struct {
	Name string
	Root string
	Dir  string

	// files maps target -> type -> definition path.
	files map[string]map[string]string
}

// Targets returns the target names of the library in lexical order.
func (l *Library) Targets() []string {
	return sortedKeys(l.files)
}

// Types returns the node types available for target in lexical order.
func (l *Library) Types(target string) []string {
	return sortedKeys(l.files[target])
}

func (l *Library) path(target, typ string) (string, bool) {
	if p, ok := l.files[target][typ]; ok {
		return p, true
	}
	p, ok := l.files[DefaultTarget][typ]
	return p, ok
}

// Registry is an immutable snapshot of the discovered libraries. It resolves
// instance documents for a serialize.Decoder.
type Registry struct {
	target string
	libs   map[string]*Library
}

var _ serialize.DefinitionSource = (*Registry)(nil)

// Target returns the target used by Definition.
func (r *Registry) Target() string { return r.target }

// Libraries returns the names of every discovered library in lexical order.
func (r *Registry) Libraries() []string {
	return sortedKeys(r.libs)
}

// Library returns the named library.
func (r *Registry) Library(name string) (*Library, error) {
	lib, ok := r.libs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLibrary, name)
	}
	return lib, nil
}

// Types returns the node types library provides for target, including the
// ones that only exist in the default target.
func (r *Registry) Types(library, target string) ([]string, error) {
	lib, err := r.Library(library)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	for _, t := range []string{target, DefaultTarget} {
		for typ := range lib.files[t] {
			seen[typ] = struct{}{}
		}
	}
	return sortedKeys(seen), nil
}

// Definition loads the definition of typ from library for the registry's target.
func (r *Registry) Definition(library, typ string) (*serialize.Document, error) {
	return r.DefinitionFor(library, r.target, typ)
}

// DefinitionFor loads the definition of typ from library for target.
func (r *Registry) DefinitionFor(library, target, typ string) (*serialize.Document, error) {
	lib, err := r.Library(library)
	if err != nil {
		return nil, err
	}
	path, ok := lib.path(target, typ)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s (target %s)", ErrUnknownType, library, typ, target)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition %s: %w", path, err)
	}
	doc, err := serialize.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse definition %s: %w", path, err)
	}
	if doc.Kind != serialize.KindDefinition {
		return nil, fmt.Errorf("definition %s: %w: expected %q, got %q", path, serialize.ErrUnknownKind, serialize.KindDefinition, doc.Kind)
	}
	return doc, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
