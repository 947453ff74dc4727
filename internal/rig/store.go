// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package rig

import (
	"bytes"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/specialistvlad/riggraph/internal/ctxlog"
	"github.com/specialistvlad/riggraph/internal/porttype"
	"github.com/specialistvlad/riggraph/internal/rigpath"
	"github.com/specialistvlad/riggraph/internal/signal"
)

// Store is the sole owner of every Graph, Node, Port and Connection. It
// resolves identifiers to live entities and emits lifecycle events on its
// own Emitter.
type Store struct {
	graphs      map[uuid.UUID]*Graph
	nodes       map[uuid.UUID]*Node
	ports       map[uuid.UUID]*Port
	connections map[uuid.UUID]*Connection

	events *signal.Emitter
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for mutation traces.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		graphs:      make(map[uuid.UUID]*Graph),
		nodes:       make(map[uuid.UUID]*Node),
		ports:       make(map[uuid.UUID]*Port),
		connections: make(map[uuid.UUID]*Connection),
		events:      signal.New(),
		logger:      ctxlog.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Events returns the emitter carrying the Store's *_created and *_deleted
// notifications.
func (s *Store) Events() *signal.Emitter {
	return s.events
}

// Logger returns the logger the Store was configured with.
func (s *Store) Logger() *slog.Logger {
	return s.logger
}

// Placement records the positions an entity occupied in the membership lists
// it was detached from. A negative field means the entity was not in that list.
type Placement struct {
	Graph  int // the scope graph's node, port or connection list
	Node   int // the owning node's port list
	Parent int // the parent port's child list
	Source int // the source port's downstream list
	Target int // the target port's upstream list

	parentGraph uuid.UUID // the graph a deleted node was a member of
	child       *Graph    // the child graph destroyed together with a node
}

func noPlacement() Placement {
	return Placement{Graph: -1, Node: -1, Parent: -1, Source: -1, Target: -1}
}

// PortSpec describes a port to create.
type PortSpec struct {
	Name      string
	Direction Direction
	Type      porttype.Type
	Node      *Node
	Graph     *Graph // scope the port is registered in; usually the node's parent graph
	Parent    *Port  // set for a decomposed child port
}

// --- Creation ---

// CreateGraph creates a graph. parentNode is uuid.Nil for a root graph.
func (s *Store) CreateGraph(parentNode uuid.UUID) *Graph {
	g := &Graph{
		id:         uuid.New(),
		store:      s,
		parentNode: parentNode,
		events:     signal.New(),
	}
	s.graphs[g.id] = g
	s.logger.Debug("Graph created.", "graph", g.id, "parent_node", parentNode)
	s.events.Emit(EventGraphCreated, g)
	return g
}

// CreateNode creates a node together with its child graph and registers it
// in parent, which may be nil for a detached node.
func (s *Store) CreateNode(name string, parent *Graph, typeTag, library string) (*Node, error) {
	if err := rigpath.ValidateName(name); err != nil {
		return nil, err
	}
	if parent != nil && !s.ownsGraph(parent) {
		return nil, fmt.Errorf("%w: graph %s", ErrNotFound, parent.id)
	}

	n := &Node{
		id:      uuid.New(),
		store:   s,
		name:    name,
		typeTag: typeTag,
		library: library,
		events:  signal.New(),
	}
	s.nodes[n.id] = n
	n.childGraph = s.CreateGraph(n.id).id

	if parent != nil {
		if err := parent.RegisterNode(n); err != nil {
			return nil, err
		}
	}

	s.logger.Debug("Node created.", "node", n.id, "name", name, "type", typeTag, "library", library)
	s.events.Emit(EventNodeCreated, n)
	return n, nil
}

// CreatePort creates a port initialised to its type's zero value and
// registers it on its node, its graph and its parent port.
func (s *Store) CreatePort(spec PortSpec) (*Port, error) {
	if err := rigpath.ValidateName(spec.Name); err != nil {
		return nil, err
	}
	if !spec.Direction.Valid() {
		return nil, fmt.Errorf("invalid port direction %d", spec.Direction)
	}
	if !spec.Type.Valid() {
		return nil, fmt.Errorf("%w: invalid port type %s", ErrTypeMismatch, spec.Type)
	}
	if spec.Node == nil || !s.ownsNode(spec.Node) {
		return nil, fmt.Errorf("%w: port %q has no live node", ErrNotFound, spec.Name)
	}
	if spec.Graph != nil && !s.ownsGraph(spec.Graph) {
		return nil, fmt.Errorf("%w: graph %s", ErrNotFound, spec.Graph.id)
	}
	if spec.Parent != nil {
		if !s.ownsPort(spec.Parent) {
			return nil, fmt.Errorf("%w: parent port %s", ErrNotFound, spec.Parent.id)
		}
		if spec.Parent.node != spec.Node.id {
			return nil, fmt.Errorf("%w: parent port %s belongs to another node", ErrNotAMember, spec.Parent.Path())
		}
	}

	p := &Port{
		id:        uuid.New(),
		store:     s,
		name:      spec.Name,
		direction: spec.Direction,
		typ:       spec.Type,
		value:     spec.Type.Zero(),
		events:    signal.New(),
	}
	s.ports[p.id] = p

	pl := noPlacement()
	if spec.Graph != nil {
		p.graph = spec.Graph.id
	}
	if spec.Parent != nil {
		p.parent = spec.Parent.id
	}
	p.node = spec.Node.id
	if err := s.attachPort(p, pl); err != nil {
		return nil, err
	}

	s.logger.Debug("Port created.", "port", p.id, "path", p.Path(), "direction", p.direction, "type", p.typ)
	s.events.Emit(EventPortCreated, p)
	return p, nil
}

// CreateConnection creates a connection in graph's scope and registers it on
// both ports. Legality is the caller's responsibility; see CheckConnection.
func (s *Store) CreateConnection(graph *Graph, source, target *Port) (*Connection, error) {
	if graph == nil || !s.ownsGraph(graph) {
		return nil, fmt.Errorf("%w: connection scope graph", ErrNotFound)
	}
	if source == nil || !s.ownsPort(source) {
		return nil, fmt.Errorf("%w: source port", ErrNotFound)
	}
	if target == nil || !s.ownsPort(target) {
		return nil, fmt.Errorf("%w: target port", ErrNotFound)
	}

	c := &Connection{
		id:     uuid.New(),
		store:  s,
		graph:  graph.id,
		source: source.id,
		target: target.id,
	}
	s.connections[c.id] = c
	if err := s.attachConnection(c, noPlacement()); err != nil {
		return nil, err
	}

	s.logger.Debug("Connection created.", "connection", c.id, "source", source.Path(), "target", target.Path())
	s.events.Emit(EventConnectionCreated, c)
	return c, nil
}

// --- Deletion ---

// DeleteGraph removes an empty graph that no live node owns.
func (s *Store) DeleteGraph(id uuid.UUID) (Placement, error) {
	g, err := s.Graph(id)
	if err != nil {
		return noPlacement(), err
	}
	if _, owned := s.nodes[g.parentNode]; owned {
		return noPlacement(), fmt.Errorf("%w: graph %s is owned by a live node and is deleted with it", ErrNotEmpty, id)
	}
	if err := s.removeGraph(g); err != nil {
		return noPlacement(), err
	}
	return noPlacement(), nil
}

func (s *Store) removeGraph(g *Graph) error {
	if len(g.nodes) > 0 || len(g.ports) > 0 || len(g.connections) > 0 {
		return fmt.Errorf("%w: graph %s still has members", ErrNotEmpty, g.id)
	}
	delete(s.graphs, g.id)
	s.logger.Debug("Graph deleted.", "graph", g.id)
	s.events.Emit(EventGraphDeleted, g)
	return nil
}

// DeleteNode removes a node that has no ports and an empty child graph. The
// child graph is destroyed with it and kept in the returned Placement.
func (s *Store) DeleteNode(id uuid.UUID) (Placement, error) {
	pl := noPlacement()
	n, err := s.Node(id)
	if err != nil {
		return pl, err
	}
	if len(n.ports) > 0 {
		return pl, fmt.Errorf("%w: node %s still has %d ports", ErrNotEmpty, n.Path(), len(n.ports))
	}
	child := s.graphs[n.childGraph]
	if child != nil && (len(child.nodes) > 0 || len(child.ports) > 0 || len(child.connections) > 0) {
		return pl, fmt.Errorf("%w: node %s still has a populated child graph", ErrNotEmpty, n.Path())
	}

	path := n.Path()
	if parent := s.graphs[n.parentGraph]; parent != nil {
		pl.parentGraph = parent.id
		if pl.Graph, err = parent.detachNode(n.id); err != nil {
			return noPlacement(), err
		}
	}
	if child != nil {
		if err := s.removeGraph(child); err != nil {
			return pl, err
		}
		pl.child = child
	}
	delete(s.nodes, n.id)

	s.logger.Debug("Node deleted.", "node", n.id, "path", path)
	s.events.Emit(EventNodeDeleted, n)
	return pl, nil
}

// DeletePort removes a port that has no connections and no child ports.
func (s *Store) DeletePort(id uuid.UUID) (Placement, error) {
	pl := noPlacement()
	p, err := s.Port(id)
	if err != nil {
		return pl, err
	}
	if len(p.upstream) > 0 || len(p.downstream) > 0 {
		return pl, fmt.Errorf("%w: port %s still has connections", ErrNotEmpty, p.Path())
	}
	if len(p.children) > 0 {
		return pl, fmt.Errorf("%w: port %s still has child ports", ErrNotEmpty, p.Path())
	}

	path := p.Path()
	if parent := s.ports[p.parent]; parent != nil {
		if pl.Parent, err = parent.detachChild(p.id); err != nil {
			return noPlacement(), err
		}
	}
	if n := s.nodes[p.node]; n != nil {
		if pl.Node, err = n.detachPort(p.id); err != nil {
			return noPlacement(), err
		}
	}
	if g := s.graphs[p.graph]; g != nil {
		if pl.Graph, err = g.detachPort(p.id); err != nil {
			return noPlacement(), err
		}
	}
	delete(s.ports, p.id)

	s.logger.Debug("Port deleted.", "port", p.id, "path", path)
	s.events.Emit(EventPortDeleted, p)
	return pl, nil
}

// DeleteConnection removes a connection from its graph and both ports.
func (s *Store) DeleteConnection(id uuid.UUID) (Placement, error) {
	pl := noPlacement()
	c, err := s.Connection(id)
	if err != nil {
		return pl, err
	}

	if g := s.graphs[c.graph]; g != nil {
		if pl.Graph, err = g.detachConnection(c.id); err != nil {
			return noPlacement(), err
		}
	}
	if src := s.ports[c.source]; src != nil {
		if pl.Source, err = src.detachDownstream(c.id); err != nil {
			return noPlacement(), err
		}
	}
	if tgt := s.ports[c.target]; tgt != nil {
		if pl.Target, err = tgt.detachUpstream(c.id); err != nil {
			return noPlacement(), err
		}
	}
	delete(s.connections, c.id)

	s.logger.Debug("Connection deleted.", "connection", c.id)
	s.events.Emit(EventConnectionDeleted, c)
	return pl, nil
}

// --- Restoration ---

// RestoreGraph re-registers a previously deleted graph under its identifier.
func (s *Store) RestoreGraph(g *Graph, _ Placement) error {
	if err := s.checkFree(g.id); err != nil {
		return err
	}
	s.graphs[g.id] = g
	s.logger.Debug("Graph restored.", "graph", g.id)
	s.events.Emit(EventGraphCreated, g)
	return nil
}

// RestoreNode re-registers a previously deleted node, its child graph and its
// membership in its former parent graph.
func (s *Store) RestoreNode(n *Node, pl Placement) error {
	if err := s.checkFree(n.id); err != nil {
		return err
	}
	var parent *Graph
	if pl.parentGraph != uuid.Nil {
		var ok bool
		if parent, ok = s.graphs[pl.parentGraph]; !ok {
			return fmt.Errorf("%w: graph %s", ErrNotFound, pl.parentGraph)
		}
	}

	child := pl.child
	if child == nil {
		child = &Graph{id: n.childGraph, store: s, parentNode: n.id, events: signal.New()}
	}
	if err := s.checkFree(child.id); err != nil {
		return err
	}

	s.nodes[n.id] = n
	s.graphs[child.id] = child
	s.events.Emit(EventGraphCreated, child)
	if parent != nil {
		if err := parent.attachNode(n, pl.Graph); err != nil {
			return err
		}
	}

	s.logger.Debug("Node restored.", "node", n.id, "path", n.Path())
	s.events.Emit(EventNodeCreated, n)
	return nil
}

// RestorePort re-registers a previously deleted port at its former positions.
func (s *Store) RestorePort(p *Port, pl Placement) error {
	if err := s.checkFree(p.id); err != nil {
		return err
	}
	if _, ok := s.nodes[p.node]; !ok {
		return fmt.Errorf("%w: node %s of port %s", ErrNotFound, p.node, p.name)
	}
	if p.graph != uuid.Nil {
		if _, ok := s.graphs[p.graph]; !ok {
			return fmt.Errorf("%w: graph %s of port %s", ErrNotFound, p.graph, p.name)
		}
	}
	if p.parent != uuid.Nil {
		if _, ok := s.ports[p.parent]; !ok {
			return fmt.Errorf("%w: parent port %s of port %s", ErrNotFound, p.parent, p.name)
		}
	}

	s.ports[p.id] = p
	if err := s.attachPort(p, pl); err != nil {
		return err
	}

	s.logger.Debug("Port restored.", "port", p.id, "path", p.Path())
	s.events.Emit(EventPortCreated, p)
	return nil
}

// RestoreConnection re-registers a previously deleted connection at its
// former positions.
func (s *Store) RestoreConnection(c *Connection, pl Placement) error {
	if err := s.checkFree(c.id); err != nil {
		return err
	}
	if _, ok := s.graphs[c.graph]; !ok {
		return fmt.Errorf("%w: graph %s of connection %s", ErrNotFound, c.graph, c.id)
	}
	if _, ok := s.ports[c.source]; !ok {
		return fmt.Errorf("%w: source port %s of connection %s", ErrNotFound, c.source, c.id)
	}
	if _, ok := s.ports[c.target]; !ok {
		return fmt.Errorf("%w: target port %s of connection %s", ErrNotFound, c.target, c.id)
	}

	s.connections[c.id] = c
	if err := s.attachConnection(c, pl); err != nil {
		return err
	}

	s.logger.Debug("Connection restored.", "connection", c.id)
	s.events.Emit(EventConnectionCreated, c)
	return nil
}

func (s *Store) attachPort(p *Port, pl Placement) error {
	if n := s.nodes[p.node]; n != nil {
		if err := n.attachPort(p, pl.Node); err != nil {
			return err
		}
	}
	if g := s.graphs[p.graph]; g != nil {
		if err := g.attachPort(p, pl.Graph); err != nil {
			return err
		}
	}
	if parent := s.ports[p.parent]; parent != nil {
		if err := parent.attachChild(p, pl.Parent); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) attachConnection(c *Connection, pl Placement) error {
	if err := s.graphs[c.graph].attachConnection(c, pl.Graph); err != nil {
		return err
	}
	if err := s.ports[c.source].attachDownstream(c, pl.Source); err != nil {
		return err
	}
	return s.ports[c.target].attachUpstream(c, pl.Target)
}

func (s *Store) checkFree(id uuid.UUID) error {
	if kind := s.kindOf(id); kind != "" {
		return fmt.Errorf("%w: %s %s is already registered", ErrAlreadyMember, kind, id)
	}
	return nil
}

// --- Lookup ---

// Graph returns the live graph with the given identifier.
func (s *Store) Graph(id uuid.UUID) (*Graph, error) {
	return lookup(s, id, "graph", s.graphs)
}

// Node returns the live node with the given identifier.
func (s *Store) Node(id uuid.UUID) (*Node, error) {
	return lookup(s, id, "node", s.nodes)
}

// Port returns the live port with the given identifier.
func (s *Store) Port(id uuid.UUID) (*Port, error) {
	return lookup(s, id, "port", s.ports)
}

// Connection returns the live connection with the given identifier.
func (s *Store) Connection(id uuid.UUID) (*Connection, error) {
	return lookup(s, id, "connection", s.connections)
}

func lookup[T any](s *Store, id uuid.UUID, kind string, m map[uuid.UUID]*T) (*T, error) {
	if v, ok := m[id]; ok {
		return v, nil
	}
	if other := s.kindOf(id); other != "" {
		return nil, fmt.Errorf("%w: %s is a %s, not a %s", ErrTypeMismatch, id, other, kind)
	}
	return nil, fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
}

func (s *Store) kindOf(id uuid.UUID) string {
	switch {
	case s.graphs[id] != nil:
		return "graph"
	case s.nodes[id] != nil:
		return "node"
	case s.ports[id] != nil:
		return "port"
	case s.connections[id] != nil:
		return "connection"
	}
	return ""
}

func (s *Store) ownsGraph(g *Graph) bool { return s.graphs[g.id] == g }
func (s *Store) ownsNode(n *Node) bool   { return s.nodes[n.id] == n }
func (s *Store) ownsPort(p *Port) bool   { return s.ports[p.id] == p }

// mustNode and the helpers below resolve identifiers the Store's own
// bookkeeping guarantees to be live. A miss means the membership invariants
// are broken.
func (s *Store) mustNode(id uuid.UUID) *Node {
	n, ok := s.nodes[id]
	if !ok {
		panic(fmt.Sprintf("rig: node %s referenced but not registered", id))
	}
	return n
}

func (s *Store) mustPort(id uuid.UUID) *Port {
	p, ok := s.ports[id]
	if !ok {
		panic(fmt.Sprintf("rig: port %s referenced but not registered", id))
	}
	return p
}

func (s *Store) mustConnection(id uuid.UUID) *Connection {
	c, ok := s.connections[id]
	if !ok {
		panic(fmt.Sprintf("rig: connection %s referenced but not registered", id))
	}
	return c
}

// Membership is a snapshot of every registered identifier, sorted per kind.
type Membership struct {
	Graphs      []uuid.UUID
	Nodes       []uuid.UUID
	Ports       []uuid.UUID
	Connections []uuid.UUID
}

// Membership returns the identifiers currently registered in the Store.
func (s *Store) Membership() Membership {
	return Membership{
		Graphs:      sortedKeys(s.graphs),
		Nodes:       sortedKeys(s.nodes),
		Ports:       sortedKeys(s.ports),
		Connections: sortedKeys(s.connections),
	}
}

func sortedKeys[T any](m map[uuid.UUID]*T) []uuid.UUID {
	keys := make([]uuid.UUID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	return keys
}
