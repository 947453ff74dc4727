// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package serialize

import (
	"fmt"

	"github.com/specialistvlad/riggraph/internal/rig"
	"github.com/specialistvlad/riggraph/internal/rigpath"
)

// Encoder turns nodes into documents.
type Encoder struct {
	Extensions []Extension
}

// Encode returns the indented JSON definition of n.
func (e *Encoder) Encode(n *rig.Node) ([]byte, error) {
	doc, err := e.Definition(n)
	if err != nil {
		return nil, err
	}
	return Marshal(doc)
}

// Definition encodes n with its full port schema and nested graph. Nested
// nodes that reference a library become instances.
func (e *Encoder) Definition(n *rig.Node) (*Document, error) {
	doc, err := e.header(n, KindDefinition)
	if err != nil {
		return nil, err
	}
	if doc.Ports, err = e.definitionPorts(n.TopPorts()); err != nil {
		return nil, err
	}

	g := n.ChildGraph()
	doc.Graph = &GraphDoc{Nodes: []Document{}, Connections: []ConnectionDoc{}}
	for _, child := range g.Nodes() {
		var sub *Document
		if child.Library() != "" {
			sub, err = e.Instance(child)
		} else {
			sub, err = e.Definition(child)
		}
		if err != nil {
			return nil, err
		}
		doc.Graph.Nodes = append(doc.Graph.Nodes, *sub)
	}
	for _, c := range g.Connections() {
		cd, err := e.connection(n, c)
		if err != nil {
			return nil, err
		}
		doc.Graph.Connections = append(doc.Graph.Connections, cd)
	}
	if doc.Graph.Metadata, err = merge(e.Extensions, g, Extension.EncodeGraph); err != nil {
		return nil, err
	}
	return doc, nil
}

// Instance encodes n as a reference to its library definition plus the
// current value of every port.
func (e *Encoder) Instance(n *rig.Node) (*Document, error) {
	doc, err := e.header(n, KindInstance)
	if err != nil {
		return nil, err
	}
	if doc.Ports, err = e.instancePorts(n.TopPorts()); err != nil {
		return nil, err
	}
	return doc, nil
}

func (e *Encoder) header(n *rig.Node, kind Kind) (*Document, error) {
	doc := &Document{
		Kind:  kind,
		Name:  n.Name(),
		Type:  n.Type(),
		Ports: []PortDoc{},
	}
	if lib := n.Library(); lib != "" {
		doc.Library = &lib
	}
	meta, err := merge(e.Extensions, n, Extension.EncodeNode)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		meta = Metadata{}
	}
	doc.Metadata = meta
	return doc, nil
}

func (e *Encoder) definitionPorts(ports []*rig.Port) ([]PortDoc, error) {
	out := make([]PortDoc, 0, len(ports))
	for _, p := range ports {
		pd := PortDoc{
			Name:      p.Name(),
			Direction: p.Direction().String(),
			Type:      p.Type().String(),
		}
		children, err := e.definitionPorts(p.Children())
		if err != nil {
			return nil, err
		}
		if len(children) > 0 {
			pd.Ports = children
		}
		if pd.Metadata, err = merge(e.Extensions, p, Extension.EncodePort); err != nil {
			return nil, err
		}
		out = append(out, pd)
	}
	return out, nil
}

func (e *Encoder) instancePorts(ports []*rig.Port) ([]PortDoc, error) {
	out := make([]PortDoc, 0, len(ports))
	for _, p := range ports {
		value, err := p.Type().Marshal(p.Get())
		if err != nil {
			return nil, fmt.Errorf("encode value of %s: %w", p.Path(), err)
		}
		pd := PortDoc{Name: p.Name(), Value: value}
		children, err := e.instancePorts(p.Children())
		if err != nil {
			return nil, err
		}
		if len(children) > 0 {
			pd.Ports = children
		}
		out = append(out, pd)
	}
	return out, nil
}

func (e *Encoder) connection(owner *rig.Node, c *rig.Connection) (ConnectionDoc, error) {
	src, err := portRef(owner, c.Source())
	if err != nil {
		return ConnectionDoc{}, err
	}
	tgt, err := portRef(owner, c.Target())
	if err != nil {
		return ConnectionDoc{}, err
	}
	meta, err := merge(e.Extensions, c, Extension.EncodeConnection)
	if err != nil {
		return ConnectionDoc{}, err
	}
	return ConnectionDoc{Source: src, Target: tgt, Metadata: meta}, nil
}

// portRef formats p relative to owner: ".port" for owner's own ports and
// "child.port" for ports of its direct children.
func portRef(owner *rig.Node, p *rig.Port) (string, error) {
	ref := rigpath.PortRef{Port: p.NamePath()}
	switch node := p.Node(); {
	case node == owner:
	case node.ParentNode() == owner:
		ref.Node = node.Name()
	default:
		return "", fmt.Errorf("port %s is not reachable from %s", p.Path(), owner.Path())
	}
	return ref.String(), nil
}
