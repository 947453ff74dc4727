// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package rig implements the entity model of a hierarchical, typed dataflow
// graph: graphs, nodes, ports and connections, all owned by a single Store.
//
// # Ownership
//
// The Store is the only long-lived owner of every entity. Entities never hold
// pointers to each other: every cross-entity reference (a node's parent graph,
// a graph's parent node, a port's owning node, a connection's ports) is a
// uuid.UUID resolved through the Store when it is used. This lets nodes and
// graphs reference each other mutually without reference cycles, and makes
// deletion and undo plain map removals and re-insertions of the same
// identifier.
//
// # Membership
//
// A Graph records which nodes, ports and connections belong to its scope, in
// registration order. A Node records its ports. A Port records its child ports
// and its upstream and downstream connections. The Store keeps these lists in
// step with its maps: Create* registers a new entity everywhere it belongs,
// Delete* detaches it and returns a Placement describing where it sat, and
// Restore* puts the same object back in exactly those positions.
//
// Deletion never cascades downward. Deleting a node that still owns ports or
// a non-empty child graph fails with ErrNotEmpty; callers (the command layer)
// take things apart in a fixed order first.
//
// # Concurrency
//
// Nothing in this package is safe for concurrent use. A program that touches
// one Store from several goroutines must serialize every call behind a single
// lock; command.History provides that boundary.
package rig
