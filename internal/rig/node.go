// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package rig

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/specialistvlad/riggraph/internal/rigpath"
	"github.com/specialistvlad/riggraph/internal/signal"
)

// Node is a named, hierarchically addressable entity. It owns exactly one
// child graph and a list of ports.
type Node struct {
	id          uuid.UUID
	store       *Store
	name        string
	typeTag     string
	library     string
	parentGraph uuid.UUID
	childGraph  uuid.UUID
	ports       idList

	events *signal.Emitter
}

// ID returns the node's identifier.
func (n *Node) ID() uuid.UUID { return n.id }

// Store returns the Store that owns the node.
func (n *Node) Store() *Store { return n.store }

// Events returns the emitter carrying name and port membership notifications.
func (n *Node) Events() *signal.Emitter { return n.events }

// Name returns the node's name.
func (n *Node) Name() string { return n.name }

// SetName renames the node. Uniqueness among siblings is the caller's concern.
func (n *Node) SetName(name string) {
	old := n.name
	n.name = name
	n.store.logger.Debug("Node renamed.", "node", n.id, "old", old, "new", name)
	n.events.Emit(EventNameChanged, NameChange{Node: n, Old: old, New: name})
}

// Type returns the node's type tag.
func (n *Node) Type() string { return n.typeTag }

// Library returns the name of the library declaring the node, or "".
func (n *Node) Library() string { return n.library }

// ParentGraphID returns the identifier of the graph the node is a member of.
func (n *Node) ParentGraphID() uuid.UUID { return n.parentGraph }

// ParentGraph returns the graph the node is a member of, or nil.
func (n *Node) ParentGraph() *Graph {
	return n.store.graphs[n.parentGraph]
}

// ChildGraph returns the node's internal scope, or nil once the node has been
// deleted from its Store.
func (n *Node) ChildGraph() *Graph {
	return n.store.graphs[n.childGraph]
}

// ParentNode returns the node owning the node's parent graph, or nil at the top
// of the hierarchy.
func (n *Node) ParentNode() *Node {
	if g := n.ParentGraph(); g != nil {
		return g.ParentNode()
	}
	return nil
}

// Children returns the nodes of the child graph in registration order. A
// deleted node has none.
func (n *Node) Children() []*Node {
	g := n.ChildGraph()
	if g == nil {
		return nil
	}
	return g.Nodes()
}

// Child returns the direct child node called name.
func (n *Node) Child(name string) (*Node, bool) {
	g := n.ChildGraph()
	if g == nil {
		return nil, false
	}
	return g.NodeNamed(name)
}

// Ports returns every port owned by the node, decomposed child ports included,
// in registration order.
func (n *Node) Ports() []*Port {
	out := make([]*Port, 0, len(n.ports))
	for _, id := range n.ports {
		out = append(out, n.store.mustPort(id))
	}
	return out
}

// PortIDs returns a copy of the node's port identifiers.
func (n *Node) PortIDs() []uuid.UUID { return n.ports.clone() }

// TopPorts returns the ports that are not decomposed children of another port.
func (n *Node) TopPorts() []*Port {
	var out []*Port
	for _, p := range n.Ports() {
		if p.parent == uuid.Nil {
			out = append(out, p)
		}
	}
	return out
}

// Port returns the top-level port called name.
func (n *Node) Port(name string) (*Port, bool) {
	for _, id := range n.ports {
		if p := n.store.mustPort(id); p.parent == uuid.Nil && p.name == name {
			return p, true
		}
	}
	return nil, false
}

// PortAt walks a dotted port chain such as ("m", "row0").
func (n *Node) PortAt(path ...string) (*Port, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: empty port path on %s", ErrNotFound, n.Path())
	}
	p, ok := n.Port(path[0])
	if !ok {
		return nil, fmt.Errorf("%w: port %s", ErrNotFound, rigpath.PortPath(n.NodePath(), path...))
	}
	for _, name := range path[1:] {
		if p, ok = p.Child(name); !ok {
			return nil, fmt.Errorf("%w: port %s", ErrNotFound, rigpath.PortPath(n.NodePath(), path...))
		}
	}
	return p, nil
}

// RegisterPort appends p to the node's port list.
func (n *Node) RegisterPort(p *Port) error {
	return n.attachPort(p, -1)
}

// UnregisterPort removes p from the node's port list.
func (n *Node) UnregisterPort(p *Port) error {
	_, err := n.detachPort(p.id)
	return err
}

func (n *Node) attachPort(p *Port, at int) error {
	if err := n.ports.insert(p.id, at); err != nil {
		return err
	}
	n.events.Emit(EventPortRegistered, p)
	return nil
}

func (n *Node) detachPort(id uuid.UUID) (int, error) {
	i, err := n.ports.remove(id)
	if err != nil {
		return i, err
	}
	n.events.Emit(EventPortUnregistered, n.store.ports[id])
	return i, nil
}

// NodePath returns the node's absolute path, built by walking parent nodes up
// to the top of the hierarchy.
func (n *Node) NodePath() rigpath.NodePath {
	var segments []string
	for cur := n; cur != nil; cur = cur.ParentNode() {
		segments = append(segments, cur.name)
	}
	slices.Reverse(segments)
	return rigpath.NodePath{Segments: segments}
}

// Path returns the node's absolute path, e.g. "/Body/Arm".
func (n *Node) Path() string {
	return n.NodePath().String()
}

// RelativePath returns the path leading from n to other.
func (n *Node) RelativePath(other *Node) string {
	return rigpath.Rel(n.NodePath(), other.NodePath())
}

// IsAncestorOf reports whether other sits somewhere inside n's child graph.
func (n *Node) IsAncestorOf(other *Node) bool {
	for cur := other.ParentNode(); cur != nil; cur = cur.ParentNode() {
		if cur == n {
			return true
		}
	}
	return false
}
