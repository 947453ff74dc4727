// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package rig

import (
	"errors"

	"github.com/specialistvlad/riggraph/internal/porttype"
	"github.com/specialistvlad/riggraph/internal/rigpath"
)

// Identity errors.
var (
	// ErrNotFound is returned when an identifier is not registered in the Store.
	ErrNotFound = errors.New("not found")
	// ErrTypeMismatch is returned for a reference of an unexpected shape or kind,
	// and for values that do not fit a port's declared type.
	ErrTypeMismatch = porttype.ErrTypeMismatch
)

// Topology errors, produced by CheckConnection.
var (
	ErrOutOfScope         = errors.New("port is out of scope")
	ErrSameNode           = errors.New("ports belong to the same node")
	ErrSameDirection      = errors.New("sibling ports have the same direction")
	ErrDifferentDirection = errors.New("boundary ports have different directions")
)

// State errors.
var (
	ErrAlreadyConnected = errors.New("target port is already connected")
	ErrNotAMember       = errors.New("not a member")
	ErrAlreadyMember    = errors.New("already a member")
	ErrNotEmpty         = errors.New("not empty")
	ErrNameTaken        = errors.New("name already taken")
	ErrInvalidName      = rigpath.ErrInvalidName
)
