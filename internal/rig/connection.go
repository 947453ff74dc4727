// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package rig

import "github.com/google/uuid"

// Connection is a directed edge from a source port to a target port, created
// in the scope of exactly one graph.
type Connection struct {
	id     uuid.UUID
	store  *Store
	graph  uuid.UUID
	source uuid.UUID
	target uuid.UUID
}

// ID returns the connection's identifier.
func (c *Connection) ID() uuid.UUID { return c.id }

// Store returns the Store that owns the connection.
func (c *Connection) Store() *Store { return c.store }

// GraphID returns the identifier of the scope graph.
func (c *Connection) GraphID() uuid.UUID { return c.graph }

// SourceID returns the identifier of the source port.
func (c *Connection) SourceID() uuid.UUID { return c.source }

// TargetID returns the identifier of the target port.
func (c *Connection) TargetID() uuid.UUID { return c.target }

// The accessors below return nil when the entity they name has been deleted
// from the Store, which only happens to a connection that is itself deleted.

// Graph returns the scope graph.
func (c *Connection) Graph() *Graph { return c.store.graphs[c.graph] }

// Source returns the source port.
func (c *Connection) Source() *Port { return c.store.ports[c.source] }

// Target returns the target port.
func (c *Connection) Target() *Port { return c.store.ports[c.target] }
