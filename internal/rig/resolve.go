// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package rig

import (
	"fmt"

	"github.com/google/uuid"
)

// ResolveGraph accepts a *Graph, a uuid.UUID or a UUID string and returns the
// live graph it designates.
func (s *Store) ResolveGraph(ref any) (*Graph, error) {
	return resolve(ref, "graph", s.Graph, func(g *Graph) uuid.UUID { return g.id })
}

// ResolveNode accepts a *Node, a uuid.UUID or a UUID string.
func (s *Store) ResolveNode(ref any) (*Node, error) {
	return resolve(ref, "node", s.Node, func(n *Node) uuid.UUID { return n.id })
}

// ResolvePort accepts a *Port, a uuid.UUID or a UUID string.
func (s *Store) ResolvePort(ref any) (*Port, error) {
	return resolve(ref, "port", s.Port, func(p *Port) uuid.UUID { return p.id })
}

// ResolveConnection accepts a *Connection, a uuid.UUID or a UUID string.
func (s *Store) ResolveConnection(ref any) (*Connection, error) {
	return resolve(ref, "connection", s.Connection, func(c *Connection) uuid.UUID { return c.id })
}

// resolve is the identity on a live entity and a lookup on an identifier. An
// entity pointer that is no longer (or never was) registered in this Store
// resolves to ErrNotFound.
func resolve[T any](ref any, kind string, get func(uuid.UUID) (*T, error), idOf func(*T) uuid.UUID) (*T, error) {
	switch v := ref.(type) {
	case *T:
		if v == nil {
			return nil, fmt.Errorf("%w: nil %s", ErrTypeMismatch, kind)
		}
		live, err := get(idOf(v))
		if err != nil {
			return nil, err
		}
		if live != v {
			return nil, fmt.Errorf("%w: %s %s belongs to another store", ErrNotFound, kind, idOf(v))
		}
		return v, nil
	case uuid.UUID:
		return get(v)
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a %s identifier", ErrTypeMismatch, v, kind)
		}
		return get(id)
	default:
		return nil, fmt.Errorf("%w: cannot resolve a %s from %T", ErrTypeMismatch, kind, ref)
	}
}
