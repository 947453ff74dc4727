// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package rigpath

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidName is returned for node or port names that cannot appear in a path.
var ErrInvalidName = errors.New("invalid name")

// nameRegex matches a single node or port name.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateName checks that name can be used as a node or port name.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if name == "-" || !nameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// NodePath is an absolute node path, one segment per nesting level.
type NodePath struct {
	Segments []string
}

// PortRef addresses a port relative to an enclosing node. An empty Node means
// the enclosing node's own boundary port.
type PortRef struct {
	Node string
	Port []string
}

// IsBoundary reports whether r names one of the enclosing node's own ports.
func (r PortRef) IsBoundary() bool {
	return r.Node == ""
}
