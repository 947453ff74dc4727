// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package serialize

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind tells a full node definition from a reference to a library definition.
type Kind string

const (
	KindDefinition Kind = "definition"
	KindInstance   Kind = "instance"
)

var (
	// ErrUnknownKind is returned for a document whose kind is neither
	// definition nor instance.
	ErrUnknownKind = errors.New("unknown document kind")
	// ErrNoDefinitionSource is returned when an instance is decoded without a
	// DefinitionSource to expand it.
	ErrNoDefinitionSource = errors.New("no definition source for instance")
	// ErrMalformedConnection is returned for a connection entry that is not a
	// [source, target] or [source, target, metadata] array.
	ErrMalformedConnection = errors.New("malformed connection")
)

// Metadata holds extension data keyed by name. Values are kept as raw JSON so
// that decoding and re-encoding does not alter them.
type Metadata map[string]json.RawMessage

// Document is the JSON form of a node.
type Document struct {
	Kind     Kind      `json:"kind"`
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Library  *string   `json:"library"`
	Ports    []PortDoc `json:"ports"`
	Graph    *GraphDoc `json:"graph,omitempty"`
	Metadata Metadata  `json:"metadata"`
}

// LibraryName returns the declared library, or "" when there is none.
func (d *Document) LibraryName() string {
	if d.Library == nil {
		return ""
	}
	return *d.Library
}

// PortDoc is one port entry. Definitions carry Direction and Type, instances
// carry Value. Child ports nest under Ports in both.
type PortDoc struct {
	Name      string          `json:"name"`
	Direction string          `json:"direction,omitempty"`
	Type      string          `json:"type,omitempty"`
	Value     json.RawMessage `json:"value,omitempty"`
	Ports     []PortDoc       `json:"ports,omitempty"`
	Metadata  Metadata        `json:"metadata,omitempty"`
}

// GraphDoc is the nested graph of a definition.
type GraphDoc struct {
	Nodes       []Document      `json:"nodes"`
	Connections []ConnectionDoc `json:"connections"`
	Metadata    Metadata        `json:"metadata,omitempty"`
}

// ConnectionDoc is a connection between two port references relative to the
// enclosing node. It is encoded as a [source, target] array, with extension
// metadata as an optional third element.
type ConnectionDoc struct {
	Source   string
	Target   string
	Metadata Metadata
}

func (c ConnectionDoc) MarshalJSON() ([]byte, error) {
	if len(c.Metadata) == 0 {
		return json.Marshal([2]string{c.Source, c.Target})
	}
	return json.Marshal([]any{c.Source, c.Target, c.Metadata})
}

func (c *ConnectionDoc) UnmarshalJSON(b []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(b, &parts); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedConnection, err)
	}
	if len(parts) != 2 && len(parts) != 3 {
		return fmt.Errorf("%w: expected 2 or 3 elements, got %d", ErrMalformedConnection, len(parts))
	}
	if err := json.Unmarshal(parts[0], &c.Source); err != nil {
		return fmt.Errorf("%w: source: %v", ErrMalformedConnection, err)
	}
	if err := json.Unmarshal(parts[1], &c.Target); err != nil {
		return fmt.Errorf("%w: target: %v", ErrMalformedConnection, err)
	}
	c.Metadata = nil
	if len(parts) == 3 {
		if err := json.Unmarshal(parts[2], &c.Metadata); err != nil {
			return fmt.Errorf("%w: metadata: %v", ErrMalformedConnection, err)
		}
	}
	return nil
}

// Parse decodes a node document and checks its kind.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse node document: %w", err)
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *Document) validate() error {
	switch d.Kind {
	case KindDefinition:
	case KindInstance:
		if d.Graph != nil {
			return fmt.Errorf("instance %q cannot carry a graph", d.Name)
		}
	default:
		return fmt.Errorf("%w: %q in %q", ErrUnknownKind, d.Kind, d.Name)
	}
	if d.Graph != nil {
		for i := range d.Graph.Nodes {
			if err := d.Graph.Nodes[i].validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Marshal encodes a document with two-space indentation and a trailing newline.
func Marshal(doc *Document) ([]byte, error) {
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}
