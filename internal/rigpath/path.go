// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package rigpath

import (
	"fmt"
	"slices"
	"strings"
)

// ParseNodePath parses an absolute node path such as `/root/child`.
func ParseNodePath(raw string) (NodePath, error) {
	if !strings.HasPrefix(raw, "/") {
		return NodePath{}, fmt.Errorf("node path %q must start with '/'", raw)
	}
	trimmed := strings.TrimPrefix(raw, "/")
	if trimmed == "" {
		return NodePath{}, fmt.Errorf("node path %q has no segments", raw)
	}

	segments := strings.Split(trimmed, "/")
	for _, s := range segments {
		if err := ValidateName(s); err != nil {
			return NodePath{}, fmt.Errorf("node path %q: %w", raw, err)
		}
	}
	return NodePath{Segments: segments}, nil
}

// String serializes the path into its canonical form.
func (p NodePath) String() string {
	return "/" + strings.Join(p.Segments, "/")
}

// Join returns a copy of p extended by one child segment.
func (p NodePath) Join(name string) NodePath {
	return NodePath{Segments: append(slices.Clone(p.Segments), name)}
}

// Equal reports whether two paths have identical segments.
func (p NodePath) Equal(other NodePath) bool {
	return slices.Equal(p.Segments, other.Segments)
}

// Rel returns the slash-delimited path leading from one node to another:
// "" for the same node, "child/grandchild" for descendants and ".." segments
// for everything else.
func Rel(from, to NodePath) string {
	common := 0
	for common < len(from.Segments) && common < len(to.Segments) && from.Segments[common] == to.Segments[common] {
		common++
	}

	parts := make([]string, 0, len(from.Segments)-common+len(to.Segments)-common)
	for range from.Segments[common:] {
		parts = append(parts, "..")
	}
	parts = append(parts, to.Segments[common:]...)
	return strings.Join(parts, "/")
}

// PortPath formats the absolute path of a port chain owned by the node at p.
func PortPath(p NodePath, port ...string) string {
	return p.String() + "." + strings.Join(port, ".")
}

// ParsePortRef parses a port reference relative to an enclosing node:
// `.port`, `.port.sub`, `child.port` or `child.port.sub`.
func ParsePortRef(raw string) (PortRef, error) {
	if raw == "" {
		return PortRef{}, fmt.Errorf("port reference cannot be empty")
	}

	parts := strings.Split(raw, ".")
	if len(parts) < 2 {
		return PortRef{}, fmt.Errorf("port reference %q needs a '.' before the port name", raw)
	}

	ref := PortRef{Node: parts[0], Port: parts[1:]}
	if ref.Node != "" {
		if err := ValidateName(ref.Node); err != nil {
			return PortRef{}, fmt.Errorf("port reference %q: %w", raw, err)
		}
	}
	for _, p := range ref.Port {
		if err := ValidateName(p); err != nil {
			return PortRef{}, fmt.Errorf("port reference %q: %w", raw, err)
		}
	}
	return ref, nil
}

// String serializes the reference into its canonical form.
func (r PortRef) String() string {
	return r.Node + "." + strings.Join(r.Port, ".")
}
