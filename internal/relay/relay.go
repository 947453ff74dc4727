// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package relay forwards rig mutations to remote observers over socket.io.
//
// A Relay turns every Store lifecycle event and every node rename or port
// value change into an Event and hands it to a Broadcast function. The Server
// broadcasts events to connected socket.io clients and lets them undo and
// redo through a command.History. Listen is the matching client.
package relay

import (
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/specialistvlad/riggraph/internal/ctxlog"
	"github.com/specialistvlad/riggraph/internal/rig"
	"github.com/specialistvlad/riggraph/internal/signal"
)

// Entity kinds carried by Event.Kind.
const (
	KindGraph      = "graph"
	KindNode       = "node"
	KindPort       = "port"
	KindConnection = "connection"
)

// Event is the wire form of one rig mutation.
type Event struct {
	Event string          `json:"event"`
	Kind  string          `json:"kind"`
	ID    string          `json:"id"`
	Path  string          `json:"path,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Broadcast delivers one event to observers.
type Broadcast func(Event)

type entityHandle struct {
	emitter *signal.Emitter
	handle  signal.Handle
}

// Relay observes a Store. It shares the Store's goroutine.
type Relay struct {
	store     *rig.Store
	broadcast Broadcast
	logger    *slog.Logger

	storeHandle signal.Handle
	started     bool
	entities    map[uuid.UUID]entityHandle
}

// New creates a relay for store. A nil logger discards records.
func New(store *rig.Store, broadcast Broadcast, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = ctxlog.Discard()
	}
	return &Relay{
		store:     store,
		broadcast: broadcast,
		logger:    logger,
		entities:  make(map[uuid.UUID]entityHandle),
	}
}

// Start subscribes to the Store and to every node and port already in it.
func (r *Relay) Start() {
	if r.started {
		return
	}
	r.started = true
	m := r.store.Membership()
	for _, id := range m.Nodes {
		if n, err := r.store.Node(id); err == nil {
			r.watchNode(n)
		}
	}
	for _, id := range m.Ports {
		if p, err := r.store.Port(id); err == nil {
			r.watchPort(p)
		}
	}
	r.storeHandle = r.store.Events().ConnectAll(r.onStoreEvent)
	r.logger.Debug("Relay started.", "nodes", len(m.Nodes), "ports", len(m.Ports))
}

// Stop removes every subscription made by the relay.
func (r *Relay) Stop() {
	if !r.started {
		return
	}
	r.started = false
	r.store.Events().Disconnect(r.storeHandle)
	for id, h := range r.entities {
		h.emitter.Disconnect(h.handle)
		delete(r.entities, id)
	}
	r.logger.Debug("Relay stopped.")
}

func (r *Relay) onStoreEvent(event string, payload any) {
	switch v := payload.(type) {
	case *rig.Node:
		switch event {
		case rig.EventNodeCreated:
			r.watchNode(v)
		case rig.EventNodeDeleted:
			r.unwatch(v.ID())
		}
	case *rig.Port:
		switch event {
		case rig.EventPortCreated:
			r.watchPort(v)
		case rig.EventPortDeleted:
			r.unwatch(v.ID())
		}
	}
	ev, ok := r.describe(event, payload)
	if !ok {
		r.logger.Warn("Relay ignored an event with an unknown payload.", "event", event)
		return
	}
	r.send(ev)
}

func (r *Relay) watchNode(n *rig.Node) {
	h := n.Events().Connect(rig.EventNameChanged, func(payload any) {
		change := payload.(rig.NameChange)
		r.send(Event{
			Event: rig.EventNameChanged,
			Kind:  KindNode,
			ID:    change.Node.ID().String(),
			Path:  change.Node.Path(),
		})
	})
	r.entities[n.ID()] = entityHandle{emitter: n.Events(), handle: h}
}

func (r *Relay) watchPort(p *rig.Port) {
	h := p.Events().Connect(rig.EventValueChanged, func(payload any) {
		change := payload.(rig.ValueChange)
		ev := Event{
			Event: rig.EventValueChanged,
			Kind:  KindPort,
			ID:    change.Port.ID().String(),
			Path:  r.portPath(change.Port),
		}
		if raw, err := change.Port.Type().Marshal(change.New); err == nil {
			ev.Value = raw
		} else {
			r.logger.Warn("Relay could not encode a port value.", "port", ev.Path, "error", err)
		}
		r.send(ev)
	})
	r.entities[p.ID()] = entityHandle{emitter: p.Events(), handle: h}
}

func (r *Relay) unwatch(id uuid.UUID) {
	if h, ok := r.entities[id]; ok {
		h.emitter.Disconnect(h.handle)
		delete(r.entities, id)
	}
}

func (r *Relay) send(ev Event) {
	r.logger.Debug("Relaying event.", "event", ev.Event, "kind", ev.Kind, "path", ev.Path)
	r.broadcast(ev)
}

// describe builds the wire form of a Store event. Paths of deleted entities
// are computed from whatever ancestry is still alive.
func (r *Relay) describe(event string, payload any) (Event, bool) {
	switch v := payload.(type) {
	case *rig.Graph:
		ev := Event{Event: event, Kind: KindGraph, ID: v.ID().String()}
		if owner, err := r.store.Node(v.ParentNodeID()); err == nil {
			ev.Path = owner.Path()
		}
		return ev, true
	case *rig.Node:
		return Event{Event: event, Kind: KindNode, ID: v.ID().String(), Path: v.Path()}, true
	case *rig.Port:
		return Event{Event: event, Kind: KindPort, ID: v.ID().String(), Path: r.portPath(v)}, true
	case *rig.Connection:
		ev := Event{Event: event, Kind: KindConnection, ID: v.ID().String()}
		src, srcErr := r.store.Port(v.SourceID())
		tgt, tgtErr := r.store.Port(v.TargetID())
		if srcErr == nil && tgtErr == nil {
			ev.Path = r.portPath(src) + " -> " + r.portPath(tgt)
		}
		return ev, true
	}
	return Event{}, false
}

func (r *Relay) portPath(p *rig.Port) string {
	if _, err := r.store.Node(p.NodeID()); err != nil {
		return p.Name()
	}
	return p.Path()
}
