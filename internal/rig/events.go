// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package rig

import "github.com/zclconf/go-cty/cty"

// Store lifecycle events. The payload is the entity.
const (
	EventGraphCreated      = "graph_created"
	EventGraphDeleted      = "graph_deleted"
	EventNodeCreated       = "node_created"
	EventNodeDeleted       = "node_deleted"
	EventPortCreated       = "port_created"
	EventPortDeleted       = "port_deleted"
	EventConnectionCreated = "connection_created"
	EventConnectionDeleted = "connection_deleted"
)

// Membership events emitted by graphs, nodes and ports. The payload is the
// entity that joined or left.
const (
	EventNodeRegistered         = "node_registered"
	EventNodeUnregistered       = "node_unregistered"
	EventPortRegistered         = "port_registered"
	EventPortUnregistered       = "port_unregistered"
	EventConnectionRegistered   = "connection_registered"
	EventConnectionUnregistered = "connection_unregistered"
	EventChildRegistered        = "child_registered"
	EventChildUnregistered      = "child_unregistered"
	EventUpstreamRegistered     = "upstream_registered"
	EventUpstreamUnregistered   = "upstream_unregistered"
	EventDownstreamRegistered   = "downstream_registered"
	EventDownstreamUnregistered = "downstream_unregistered"
)

// Entity mutation events.
const (
	EventNameChanged  = "name_changed"
	EventValueChanged = "value_changed"
)

// NameChange is the payload of EventNameChanged.
type NameChange struct {
	Node     *Node
	Old, New string
}

// ValueChange is the payload of EventValueChanged.
type ValueChange struct {
	Port     *Port
	Old, New cty.Value
}
