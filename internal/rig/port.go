// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package rig

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/specialistvlad/riggraph/internal/porttype"
	"github.com/specialistvlad/riggraph/internal/rigpath"
	"github.com/specialistvlad/riggraph/internal/signal"
	"github.com/zclconf/go-cty/cty"
)

// Direction is the flow direction of a port.
type Direction int

const (
	Input Direction = iota + 1
	Output
)

func (d Direction) String() string {
	switch d {
	case Input:
		return "input"
	case Output:
		return "output"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Valid reports whether d is Input or Output.
func (d Direction) Valid() bool {
	return d == Input || d == Output
}

// ParseDirection parses "input" or "output".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "input":
		return Input, nil
	case "output":
		return Output, nil
	}
	return 0, fmt.Errorf("unknown port direction %q", s)
}

func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("cannot marshal %s", d)
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Port is a typed value holder owned by a node. It can be decomposed into
// named child ports and linked to other ports through connections.
type Port struct {
	id        uuid.UUID
	store     *Store
	name      string
	direction Direction
	typ       porttype.Type
	value     cty.Value

	node   uuid.UUID
	graph  uuid.UUID
	parent uuid.UUID

	children   idList
	upstream   idList
	downstream idList

	events *signal.Emitter
}

// ID returns the port's identifier.
func (p *Port) ID() uuid.UUID { return p.id }

// Store returns the Store that owns the port.
func (p *Port) Store() *Store { return p.store }

// Events returns the emitter carrying value and connection notifications.
func (p *Port) Events() *signal.Emitter { return p.events }

// Name returns the port's name.
func (p *Port) Name() string { return p.name }

// Direction returns the port's direction.
func (p *Port) Direction() Direction { return p.direction }

// Type returns the port's declared value type.
func (p *Port) Type() porttype.Type { return p.typ }

// Get returns the stored value. Connections are not consulted.
func (p *Port) Get() cty.Value { return p.value }

// Set stores v after coercing it to the port's type. On failure the previous
// value is kept and the returned error wraps ErrTypeMismatch.
func (p *Port) Set(v cty.Value) error {
	coerced, err := p.typ.Coerce(v)
	if err != nil {
		return fmt.Errorf("set %s: %w", p.Path(), err)
	}
	old := p.value
	p.value = coerced
	p.store.logger.Debug("Port value set.", "port", p.id, "path", p.Path())
	p.events.Emit(EventValueChanged, ValueChange{Port: p, Old: old, New: coerced})
	return nil
}

// Node returns the owning node, or nil once that node has been deleted.
func (p *Port) Node() *Node { return p.store.nodes[p.node] }

// NodeID returns the identifier of the owning node.
func (p *Port) NodeID() uuid.UUID { return p.node }

// Graph returns the graph the port is registered in, or nil.
func (p *Port) Graph() *Graph { return p.store.graphs[p.graph] }

// Parent returns the port this one decomposes, or nil.
func (p *Port) Parent() *Port { return p.store.ports[p.parent] }

// Children returns the decomposed child ports in registration order.
func (p *Port) Children() []*Port {
	out := make([]*Port, 0, len(p.children))
	for _, id := range p.children {
		out = append(out, p.store.mustPort(id))
	}
	return out
}

// Child returns the direct child port called name.
func (p *Port) Child(name string) (*Port, bool) {
	for _, id := range p.children {
		if c := p.store.mustPort(id); c.name == name {
			return c, true
		}
	}
	return nil, false
}

// Upstream returns the connections terminating at the port.
func (p *Port) Upstream() []*Connection {
	return p.resolveConnections(p.upstream)
}

// Downstream returns the connections originating at the port.
func (p *Port) Downstream() []*Connection {
	return p.resolveConnections(p.downstream)
}

// UpstreamIDs returns a copy of the upstream connection identifiers.
func (p *Port) UpstreamIDs() []uuid.UUID { return p.upstream.clone() }

// DownstreamIDs returns a copy of the downstream connection identifiers.
func (p *Port) DownstreamIDs() []uuid.UUID { return p.downstream.clone() }

// ConnectionIDs returns upstream then downstream connection identifiers.
func (p *Port) ConnectionIDs() []uuid.UUID {
	return append(p.upstream.clone(), p.downstream...)
}

func (p *Port) resolveConnections(ids idList) []*Connection {
	out := make([]*Connection, 0, len(ids))
	for _, id := range ids {
		out = append(out, p.store.mustConnection(id))
	}
	return out
}

// NamePath returns the chain of port names from the top-level port down to p.
func (p *Port) NamePath() []string {
	var names []string
	for cur := p; cur != nil; cur = cur.Parent() {
		names = append(names, cur.name)
	}
	slices.Reverse(names)
	return names
}

// Path returns the absolute port path, e.g. "/Body/Arm.out". A port whose node
// is gone reports its names under the root path.
func (p *Port) Path() string {
	var np rigpath.NodePath
	if n := p.Node(); n != nil {
		np = n.NodePath()
	}
	return rigpath.PortPath(np, p.NamePath()...)
}

// RegisterChild appends c to the port's child list.
func (p *Port) RegisterChild(c *Port) error { return p.attachChild(c, -1) }

// UnregisterChild removes c from the port's child list.
func (p *Port) UnregisterChild(c *Port) error {
	_, err := p.detachChild(c.id)
	return err
}

// RegisterUpstream appends c to the port's upstream list.
func (p *Port) RegisterUpstream(c *Connection) error { return p.attachUpstream(c, -1) }

// UnregisterUpstream removes c from the port's upstream list.
func (p *Port) UnregisterUpstream(c *Connection) error {
	_, err := p.detachUpstream(c.id)
	return err
}

// RegisterDownstream appends c to the port's downstream list.
func (p *Port) RegisterDownstream(c *Connection) error { return p.attachDownstream(c, -1) }

// UnregisterDownstream removes c from the port's downstream list.
func (p *Port) UnregisterDownstream(c *Connection) error {
	_, err := p.detachDownstream(c.id)
	return err
}

func (p *Port) attachChild(c *Port, at int) error {
	if err := p.children.insert(c.id, at); err != nil {
		return err
	}
	p.events.Emit(EventChildRegistered, c)
	return nil
}

func (p *Port) detachChild(id uuid.UUID) (int, error) {
	i, err := p.children.remove(id)
	if err != nil {
		return i, err
	}
	p.events.Emit(EventChildUnregistered, p.store.ports[id])
	return i, nil
}

func (p *Port) attachUpstream(c *Connection, at int) error {
	if err := p.upstream.insert(c.id, at); err != nil {
		return err
	}
	p.events.Emit(EventUpstreamRegistered, c)
	return nil
}

func (p *Port) detachUpstream(id uuid.UUID) (int, error) {
	i, err := p.upstream.remove(id)
	if err != nil {
		return i, err
	}
	p.events.Emit(EventUpstreamUnregistered, p.store.connections[id])
	return i, nil
}

func (p *Port) attachDownstream(c *Connection, at int) error {
	if err := p.downstream.insert(c.id, at); err != nil {
		return err
	}
	p.events.Emit(EventDownstreamRegistered, c)
	return nil
}

func (p *Port) detachDownstream(id uuid.UUID) (int, error) {
	i, err := p.downstream.remove(id)
	if err != nil {
		return i, err
	}
	p.events.Emit(EventDownstreamUnregistered, p.store.connections[id])
	return i, nil
}
