// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package serialize

import (
	"fmt"
	"log/slog"

	"github.com/specialistvlad/riggraph/internal/command"
	"github.com/specialistvlad/riggraph/internal/ctxlog"
	"github.com/specialistvlad/riggraph/internal/porttype"
	"github.com/specialistvlad/riggraph/internal/rig"
	"github.com/specialistvlad/riggraph/internal/rigpath"
)

// DefinitionSource looks up library definitions for instances.
type DefinitionSource interface {
	Definition(library, typ string) (*Document, error)
}

// Decoder rebuilds nodes from documents by running the same commands a live
// client would: CreateNode, CreatePort, ConnectPorts and SetPortValue.
type Decoder struct {
	Definitions DefinitionSource
	Extensions  []Extension
	Logger      *slog.Logger
}

// Decode parses data and builds the node it describes in graph.
func (d *Decoder) Decode(data []byte, graph *rig.Graph) (*rig.Node, *command.Sequence, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, nil, err
	}
	return d.Build(doc, graph)
}

// Build creates the node described by doc in graph. The returned Sequence is
// done and holds every command that was issued, so the whole build can be
// undone as one step. On failure nothing is left in the Store.
func (d *Decoder) Build(doc *Document, graph *rig.Graph) (*rig.Node, *command.Sequence, error) {
	seq := command.NewSequence("decode " + doc.Name)
	n, err := d.build(seq, doc, graph, 0)
	if err == nil && doc.Kind == KindInstance {
		err = d.assignValues(seq, n, nil, doc.Ports)
	}
	if err != nil {
		if rbErr := seq.Rollback(); rbErr != nil {
			d.logger().Error("Rollback after failed decode left the store inconsistent.", "error", rbErr)
		}
		return nil, nil, err
	}
	if err := seq.Do(); err != nil {
		return nil, nil, err
	}
	d.logger().Debug("Node decoded.", "node", n.Path(), "commands", len(seq.Commands))
	return n, seq, nil
}

func (d *Decoder) logger() *slog.Logger {
	if d.Logger == nil {
		return ctxlog.Discard()
	}
	return d.Logger
}

// maxInstanceDepth bounds instance expansion so a library definition that
// instantiates itself fails instead of recursing forever.
const maxInstanceDepth = 64

func (d *Decoder) build(seq *command.Sequence, doc *Document, graph *rig.Graph, depth int) (*rig.Node, error) {
	switch doc.Kind {
	case KindDefinition:
		return d.buildDefinition(seq, doc, graph, depth)
	case KindInstance:
		return d.buildInstance(seq, doc, graph, depth)
	default:
		return nil, fmt.Errorf("%w: %q in %q", ErrUnknownKind, doc.Kind, doc.Name)
	}
}

func (d *Decoder) buildDefinition(seq *command.Sequence, doc *Document, graph *rig.Graph, depth int) (*rig.Node, error) {
	create := &command.CreateNode{Graph: graph, NodeName: doc.Name, Type: doc.Type, Library: doc.LibraryName()}
	if err := seq.Run(create); err != nil {
		return nil, fmt.Errorf("decode node %q: %w", doc.Name, err)
	}
	n := create.Node()

	if err := d.buildPorts(seq, n, nil, doc.Ports); err != nil {
		return nil, err
	}

	if doc.Graph != nil {
		children := make([]*rig.Node, len(doc.Graph.Nodes))
		for i := range doc.Graph.Nodes {
			child, err := d.build(seq, &doc.Graph.Nodes[i], n.ChildGraph(), depth)
			if err != nil {
				return nil, err
			}
			children[i] = child
		}
		for _, cd := range doc.Graph.Connections {
			if err := d.buildConnection(seq, n, cd); err != nil {
				return nil, err
			}
		}
		// Stored instance values win over the values connect mirrored.
		for i, child := range children {
			if sub := &doc.Graph.Nodes[i]; sub.Kind == KindInstance {
				if err := d.assignValues(seq, child, nil, sub.Ports); err != nil {
					return nil, err
				}
			}
		}
		if err := apply(d.Extensions, n.ChildGraph(), doc.Graph.Metadata, Extension.DecodeGraph); err != nil {
			return nil, err
		}
	}

	if err := apply(d.Extensions, n, doc.Metadata, Extension.DecodeNode); err != nil {
		return nil, err
	}
	return n, nil
}

func (d *Decoder) buildPorts(seq *command.Sequence, n *rig.Node, parent *rig.Port, ports []PortDoc) error {
	for _, pd := range ports {
		dir, err := rig.ParseDirection(pd.Direction)
		if err != nil {
			return fmt.Errorf("decode port %q of %s: %w", pd.Name, n.Path(), err)
		}
		typ, err := porttype.Parse(pd.Type)
		if err != nil {
			return fmt.Errorf("decode port %q of %s: %w", pd.Name, n.Path(), err)
		}
		create := &command.CreatePort{Node: n, PortName: pd.Name, Direction: dir, Type: typ, Parent: parent}
		if err := seq.Run(create); err != nil {
			return fmt.Errorf("decode port %q of %s: %w", pd.Name, n.Path(), err)
		}
		p := create.Port()
		if err := d.buildPorts(seq, n, p, pd.Ports); err != nil {
			return err
		}
		if err := apply(d.Extensions, p, pd.Metadata, Extension.DecodePort); err != nil {
			return err
		}
	}
	return nil
}

func (d *Decoder) buildConnection(seq *command.Sequence, owner *rig.Node, cd ConnectionDoc) error {
	src, err := resolveRef(owner, cd.Source)
	if err != nil {
		return err
	}
	tgt, err := resolveRef(owner, cd.Target)
	if err != nil {
		return err
	}
	connect := &command.ConnectPorts{Graph: owner.ChildGraph(), Source: src, Target: tgt}
	if err := seq.Run(connect); err != nil {
		return fmt.Errorf("decode connection %s -> %s in %s: %w", cd.Source, cd.Target, owner.Path(), err)
	}
	return apply(d.Extensions, connect.Connection(), cd.Metadata, Extension.DecodeConnection)
}

// resolveRef finds the port a relative reference names from owner.
func resolveRef(owner *rig.Node, raw string) (*rig.Port, error) {
	ref, err := rigpath.ParsePortRef(raw)
	if err != nil {
		return nil, err
	}
	node := owner
	if !ref.IsBoundary() {
		child, ok := owner.Child(ref.Node)
		if !ok {
			return nil, fmt.Errorf("%w: node %q in %s", rig.ErrNotFound, ref.Node, owner.Path())
		}
		node = child
	}
	return node.PortAt(ref.Port...)
}

func (d *Decoder) buildInstance(seq *command.Sequence, doc *Document, graph *rig.Graph, depth int) (*rig.Node, error) {
	if d.Definitions == nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrNoDefinitionSource, doc.LibraryName(), doc.Type)
	}
	if depth >= maxInstanceDepth {
		return nil, fmt.Errorf("instance %q: library definitions nest deeper than %d", doc.Name, maxInstanceDepth)
	}
	def, err := d.Definitions.Definition(doc.LibraryName(), doc.Type)
	if err != nil {
		return nil, fmt.Errorf("instance %q: %w", doc.Name, err)
	}

	expanded := *def
	expanded.Kind = KindDefinition
	expanded.Name = doc.Name
	expanded.Type = doc.Type
	expanded.Library = doc.Library
	expanded.Metadata = doc.Metadata
	return d.buildDefinition(seq, &expanded, graph, depth+1)
}

// assignValues sets the stored port values of an instance. Callers run it after
// the connections of the enclosing graph so the values are restored exactly.
func (d *Decoder) assignValues(seq *command.Sequence, n *rig.Node, parent *rig.Port, ports []PortDoc) error {
	for _, pd := range ports {
		var p *rig.Port
		var ok bool
		if parent == nil {
			p, ok = n.Port(pd.Name)
		} else {
			p, ok = parent.Child(pd.Name)
		}
		if !ok {
			return fmt.Errorf("%w: instance %s has no port %q", rig.ErrNotFound, n.Path(), pd.Name)
		}
		if len(pd.Value) > 0 {
			v, err := p.Type().Unmarshal(pd.Value)
			if err != nil {
				return fmt.Errorf("decode value of %s: %w", p.Path(), err)
			}
			if err := seq.Run(&command.SetPortValue{Port: p, Value: v}); err != nil {
				return err
			}
		}
		if err := d.assignValues(seq, n, p, pd.Ports); err != nil {
			return err
		}
	}
	return nil
}
