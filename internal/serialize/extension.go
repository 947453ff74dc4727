// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package serialize

import (
	"encoding/json"
	"fmt"

	"github.com/specialistvlad/riggraph/internal/rig"
)

// Extension contributes metadata to encoded entities and consumes it again on
// decode. Extensions run in registration order; when two of them write the
// same key, the later one wins.
type Extension interface {
	EncodeNode(n *rig.Node) (map[string]any, error)
	EncodePort(p *rig.Port) (map[string]any, error)
	EncodeGraph(g *rig.Graph) (map[string]any, error)
	EncodeConnection(c *rig.Connection) (map[string]any, error)

	DecodeNode(n *rig.Node, meta Metadata) error
	DecodePort(p *rig.Port, meta Metadata) error
	DecodeGraph(g *rig.Graph, meta Metadata) error
	DecodeConnection(c *rig.Connection, meta Metadata) error
}

// NopExtension implements every Extension method as a no-op. Embed it to
// implement only the hooks you need.
type NopExtension struct{}

func (NopExtension) EncodeNode(*rig.Node) (map[string]any, error)             { return nil, nil }
func (NopExtension) EncodePort(*rig.Port) (map[string]any, error)             { return nil, nil }
func (NopExtension) EncodeGraph(*rig.Graph) (map[string]any, error)           { return nil, nil }
func (NopExtension) EncodeConnection(*rig.Connection) (map[string]any, error) { return nil, nil }
func (NopExtension) DecodeNode(*rig.Node, Metadata) error                     { return nil }
func (NopExtension) DecodePort(*rig.Port, Metadata) error                     { return nil }
func (NopExtension) DecodeGraph(*rig.Graph, Metadata) error                   { return nil }
func (NopExtension) DecodeConnection(*rig.Connection, Metadata) error         { return nil }

// merge runs one encode hook across exts and merges their results.
func merge[T any](exts []Extension, entity T, hook func(Extension, T) (map[string]any, error)) (Metadata, error) {
	var out Metadata
	for _, ext := range exts {
		partial, err := hook(ext, entity)
		if err != nil {
			return nil, fmt.Errorf("extension %T: %w", ext, err)
		}
		for k, v := range partial {
			raw, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("extension %T: metadata %q: %w", ext, k, err)
			}
			if out == nil {
				out = make(Metadata)
			}
			out[k] = raw
		}
	}
	return out, nil
}

// apply runs one decode hook across exts, in order.
func apply[T any](exts []Extension, entity T, meta Metadata, hook func(Extension, T, Metadata) error) error {
	for _, ext := range exts {
		if err := hook(ext, entity, meta); err != nil {
			return fmt.Errorf("extension %T: %w", ext, err)
		}
	}
	return nil
}
