// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package command

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/specialistvlad/riggraph/internal/ctxlog"
)

// History records executed commands for undo and redo. All of its methods
// share one mutex, which makes it the serialization point for a Store used
// from several goroutines.
type History struct {
	mu     sync.Mutex
	undo   []Command
	redo   []Command
	limit  int
	logger *slog.Logger
}

// Option configures a History.
type Option func(*History)

// WithLogger sets the logger used to trace executed commands.
func WithLogger(logger *slog.Logger) Option {
	return func(h *History) {
		h.logger = logger
	}
}

// WithLimit caps the number of commands kept for undo. Zero means no limit.
func WithLimit(n int) Option {
	return func(h *History) {
		h.limit = n
	}
}

// NewHistory creates an empty History.
func NewHistory(opts ...Option) *History {
	h := &History{logger: ctxlog.Discard()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Execute does c and pushes it on the undo stack. The redo stack is cleared.
func (h *History) Execute(c Command) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := c.Do(); err != nil {
		h.logger.Debug("Command rejected.", "command", c.Name(), "error", err)
		return err
	}
	h.undo = append(h.undo, c)
	if h.limit > 0 && len(h.undo) > h.limit {
		h.undo = h.undo[len(h.undo)-h.limit:]
	}
	h.redo = nil
	h.logger.Debug("Command executed.", "command", c.Name(), "undo_depth", len(h.undo))
	return nil
}

// Undo reverses the most recent command and moves it to the redo stack.
func (h *History) Undo() (Command, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.undo) == 0 {
		return nil, fmt.Errorf("%w: undo stack is empty", ErrEmptyHistory)
	}
	c := h.undo[len(h.undo)-1]
	if err := c.Undo(); err != nil {
		h.logger.Warn("Undo failed.", "command", c.Name(), "error", err)
		return c, err
	}
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, c)
	h.logger.Debug("Command undone.", "command", c.Name(), "undo_depth", len(h.undo))
	return c, nil
}

// Redo replays the most recently undone command.
func (h *History) Redo() (Command, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.redo) == 0 {
		return nil, fmt.Errorf("%w: redo stack is empty", ErrEmptyHistory)
	}
	c := h.redo[len(h.redo)-1]
	if err := c.Redo(); err != nil {
		h.logger.Warn("Redo failed.", "command", c.Name(), "error", err)
		return c, err
	}
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, c)
	h.logger.Debug("Command redone.", "command", c.Name(), "undo_depth", len(h.undo))
	return c, nil
}

// CanUndo reports whether Undo has anything to reverse.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo) > 0
}

// CanRedo reports whether Redo has anything to replay.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redo) > 0
}

// Clear drops both stacks. Commands already done stay in effect.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.undo, h.redo = nil, nil
}

// View runs fn while holding the history lock, so reads of the Store do not
// interleave with mutations issued through the History.
func (h *History) View(fn func() error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return fn()
}
