// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package rig

import "fmt"

// CheckConnection decides whether source may be connected to target in the
// scope of graph. The checks run in a fixed order and the first failure wins:
// scope, same node, type compatibility, direction, existing upstream.
//
// When target already has an upstream connection and force is set, that
// connection is returned so the caller can remove it first.
func CheckConnection(graph *Graph, source, target *Port, force bool) (*Connection, error) {
	if graph == nil || source == nil || target == nil {
		return nil, fmt.Errorf("%w: graph, source and target are required", ErrNotFound)
	}

	srcBoundary, srcOK := scopeOf(graph, source)
	if !srcOK {
		return nil, fmt.Errorf("%w: source %s is not visible from graph %s", ErrOutOfScope, source.Path(), graph.id)
	}
	tgtBoundary, tgtOK := scopeOf(graph, target)
	if !tgtOK {
		return nil, fmt.Errorf("%w: target %s is not visible from graph %s", ErrOutOfScope, target.Path(), graph.id)
	}

	if source.node == target.node {
		return nil, fmt.Errorf("%w: %s -> %s", ErrSameNode, source.Path(), target.Path())
	}

	if _, err := target.typ.Coerce(source.value); err != nil {
		return nil, fmt.Errorf("connect %s -> %s: %w", source.Path(), target.Path(), err)
	}

	if srcBoundary || tgtBoundary {
		if source.direction != target.direction {
			return nil, fmt.Errorf("%w: boundary %s (%s) -> %s (%s)",
				ErrDifferentDirection, source.Path(), source.direction, target.Path(), target.direction)
		}
	} else if source.direction == target.direction {
		return nil, fmt.Errorf("%w: %s and %s are both %s",
			ErrSameDirection, source.Path(), target.Path(), source.direction)
	}

	if len(target.upstream) > 0 {
		existing := target.store.mustConnection(target.upstream[0])
		if !force {
			return nil, fmt.Errorf("%w: %s is fed by %s", ErrAlreadyConnected, target.Path(), existing.Source().Path())
		}
		return existing, nil
	}
	return nil, nil
}

// scopeOf reports whether the port's node is visible from graph, and whether
// it is visible as the graph's own boundary rather than as a member.
func scopeOf(graph *Graph, p *Port) (boundary, ok bool) {
	if graph.nodes.contains(p.node) {
		return false, true
	}
	if graph.parentNode == p.node {
		return true, true
	}
	return false, false
}
