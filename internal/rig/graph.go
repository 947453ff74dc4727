// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package rig

import (
	"github.com/google/uuid"
	"github.com/specialistvlad/riggraph/internal/signal"
)

// Graph is an ordered membership container for the nodes, ports and
// connections of one scope. A root graph has no parent node.
type Graph struct {
	id         uuid.UUID
	store      *Store
	parentNode uuid.UUID

	nodes       idList
	ports       idList
	connections idList

	events *signal.Emitter
}

// ID returns the graph's identifier.
func (g *Graph) ID() uuid.UUID { return g.id }

// Store returns the Store that owns the graph.
func (g *Graph) Store() *Store { return g.store }

// Events returns the emitter carrying membership notifications.
func (g *Graph) Events() *signal.Emitter { return g.events }

// IsRoot reports whether the graph has no parent node.
func (g *Graph) IsRoot() bool { return g.parentNode == uuid.Nil }

// ParentNodeID returns the identifier of the node owning the graph, or uuid.Nil.
func (g *Graph) ParentNodeID() uuid.UUID { return g.parentNode }

// ParentNode returns the node owning the graph, or nil for a root graph or a
// graph whose node has been deleted.
func (g *Graph) ParentNode() *Node {
	return g.store.nodes[g.parentNode]
}

// Nodes returns the member nodes in registration order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, id := range g.nodes {
		out = append(out, g.store.mustNode(id))
	}
	return out
}

// Ports returns the member ports in registration order.
func (g *Graph) Ports() []*Port {
	out := make([]*Port, 0, len(g.ports))
	for _, id := range g.ports {
		out = append(out, g.store.mustPort(id))
	}
	return out
}

// Connections returns the member connections in registration order.
func (g *Graph) Connections() []*Connection {
	out := make([]*Connection, 0, len(g.connections))
	for _, id := range g.connections {
		out = append(out, g.store.mustConnection(id))
	}
	return out
}

// NodeIDs returns a copy of the member node identifiers.
func (g *Graph) NodeIDs() []uuid.UUID { return g.nodes.clone() }

// PortIDs returns a copy of the member port identifiers.
func (g *Graph) PortIDs() []uuid.UUID { return g.ports.clone() }

// ConnectionIDs returns a copy of the member connection identifiers.
func (g *Graph) ConnectionIDs() []uuid.UUID { return g.connections.clone() }

// HasNode reports whether id is a member node.
func (g *Graph) HasNode(id uuid.UUID) bool { return g.nodes.contains(id) }

// NodeNamed returns the first member node called name.
func (g *Graph) NodeNamed(name string) (*Node, bool) {
	for _, id := range g.nodes {
		if n := g.store.mustNode(id); n.name == name {
			return n, true
		}
	}
	return nil, false
}

// RegisterNode appends n to the graph and points its parent-graph reference here.
func (g *Graph) RegisterNode(n *Node) error {
	return g.attachNode(n, -1)
}

// UnregisterNode removes n from the graph and clears its parent-graph reference.
func (g *Graph) UnregisterNode(n *Node) error {
	_, err := g.detachNode(n.id)
	return err
}

// RegisterPort appends p to the graph.
func (g *Graph) RegisterPort(p *Port) error {
	return g.attachPort(p, -1)
}

// UnregisterPort removes p from the graph.
func (g *Graph) UnregisterPort(p *Port) error {
	_, err := g.detachPort(p.id)
	return err
}

// RegisterConnection appends c to the graph.
func (g *Graph) RegisterConnection(c *Connection) error {
	return g.attachConnection(c, -1)
}

// UnregisterConnection removes c from the graph.
func (g *Graph) UnregisterConnection(c *Connection) error {
	_, err := g.detachConnection(c.id)
	return err
}

func (g *Graph) attachNode(n *Node, at int) error {
	if err := g.nodes.insert(n.id, at); err != nil {
		return err
	}
	n.parentGraph = g.id
	g.events.Emit(EventNodeRegistered, n)
	return nil
}

func (g *Graph) detachNode(id uuid.UUID) (int, error) {
	i, err := g.nodes.remove(id)
	if err != nil {
		return i, err
	}
	n := g.store.nodes[id]
	if n != nil && n.parentGraph == g.id {
		n.parentGraph = uuid.Nil
	}
	g.events.Emit(EventNodeUnregistered, n)
	return i, nil
}

func (g *Graph) attachPort(p *Port, at int) error {
	if err := g.ports.insert(p.id, at); err != nil {
		return err
	}
	g.events.Emit(EventPortRegistered, p)
	return nil
}

func (g *Graph) detachPort(id uuid.UUID) (int, error) {
	i, err := g.ports.remove(id)
	if err != nil {
		return i, err
	}
	g.events.Emit(EventPortUnregistered, g.store.ports[id])
	return i, nil
}

func (g *Graph) attachConnection(c *Connection, at int) error {
	if err := g.connections.insert(c.id, at); err != nil {
		return err
	}
	g.events.Emit(EventConnectionRegistered, c)
	return nil
}

func (g *Graph) detachConnection(id uuid.UUID) (int, error) {
	i, err := g.connections.remove(id)
	if err != nil {
		return i, err
	}
	g.events.Emit(EventConnectionUnregistered, g.store.connections[id])
	return i, nil
}
