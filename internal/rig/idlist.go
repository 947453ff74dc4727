// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package rig

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// idList is an ordered membership list.
type idList []uuid.UUID

func (l idList) index(id uuid.UUID) int {
	return slices.Index(l, id)
}

func (l idList) contains(id uuid.UUID) bool {
	return l.index(id) >= 0
}

// insert places id at position at, or appends it when at is negative or past
// the end.
func (l *idList) insert(id uuid.UUID, at int) error {
	if l.contains(id) {
		return fmt.Errorf("%w: %s", ErrAlreadyMember, id)
	}
	if at < 0 || at > len(*l) {
		at = len(*l)
	}
	*l = slices.Insert(*l, at, id)
	return nil
}

// remove deletes id and returns the position it occupied.
func (l *idList) remove(id uuid.UUID) (int, error) {
	i := l.index(id)
	if i < 0 {
		return -1, fmt.Errorf("%w: %s", ErrNotAMember, id)
	}
	*l = slices.Delete(*l, i, i+1)
	return i, nil
}

// clone returns a copy of l, nil when l is empty.
func (l idList) clone() []uuid.UUID {
	if len(l) == 0 {
		return nil
	}
	return slices.Clone([]uuid.UUID(l))
}
