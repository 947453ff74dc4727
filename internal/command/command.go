// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package command

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when a command is asked to do, undo or
	// redo from a state that does not allow it.
	ErrInvalidTransition = errors.New("invalid command transition")
	// ErrNotUndoable is returned by commands that deliberately implement no undo.
	ErrNotUndoable = errors.New("command cannot be undone")
	// ErrEmptyHistory is returned by History when there is nothing to undo or redo.
	ErrEmptyHistory = errors.New("nothing to undo or redo")
)

// Command is a reversible mutation.
type Command interface {
	Do() error
	Undo() error
	Redo() error
	State() State
	Name() string
}

// State is the position of a command in its lifecycle.
type State int

const (
	Pending State = iota
	Done
	Undone
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Done:
		return "done"
	case Undone:
		return "undone"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type op int

const (
	opDo op = iota
	opUndo
	opRedo
)

func (o op) String() string {
	return [...]string{"do", "undo", "redo"}[o]
}

// lifecycle implements the state machine shared by every command.
type lifecycle struct {
	state State
}

// State returns the command's current state.
func (l *lifecycle) State() State { return l.state }

// transition runs fn when the command is in the state op requires and moves it
// to the resulting state only if fn succeeds.
func (l *lifecycle) transition(o op, fn func() error) error {
	var from, to State
	switch o {
	case opDo:
		from, to = Pending, Done
	case opUndo:
		from, to = Done, Undone
	case opRedo:
		from, to = Undone, Done
	}
	if l.state != from {
		return fmt.Errorf("%w: cannot %s a %s command", ErrInvalidTransition, o, l.state)
	}
	if err := fn(); err != nil {
		return err
	}
	l.state = to
	return nil
}

// Sequence is an ordered group of commands. Do runs them in order, Undo
// reverses them, Redo replays them in order.
//
// Commands may also be executed one at a time with Run while the sequence is
// being built, when a later command depends on the result of an earlier one.
// Do then only runs the commands that are still pending.
//
// A sequence whose Do failed, or that was rolled back, is spent: every later
// Do, Run or Rollback fails with ErrInvalidTransition.
type Sequence struct {
	lifecycle
	Label    string
	Commands []Command

	spent bool
}

// NewSequence returns a pending sequence of cmds.
func NewSequence(label string, cmds ...Command) *Sequence {
	return &Sequence{Label: label, Commands: cmds}
}

// Name returns the sequence label.
func (s *Sequence) Name() string {
	if s.Label == "" {
		return "sequence"
	}
	return s.Label
}

// Run executes c immediately and appends it to the sequence.
func (s *Sequence) Run(c Command) error {
	if s.spent {
		return fmt.Errorf("%w: cannot extend a rolled back sequence", ErrInvalidTransition)
	}
	if s.state != Pending {
		return fmt.Errorf("%w: cannot extend a %s sequence", ErrInvalidTransition, s.state)
	}
	if err := c.Do(); err != nil {
		return err
	}
	s.Commands = append(s.Commands, c)
	return nil
}

// Rollback undoes every command already executed on a pending sequence, in
// reverse order, and marks the sequence spent.
func (s *Sequence) Rollback() error {
	if s.spent {
		return fmt.Errorf("%w: sequence already rolled back", ErrInvalidTransition)
	}
	if s.state != Pending {
		return fmt.Errorf("%w: cannot roll back a %s sequence", ErrInvalidTransition, s.state)
	}
	s.spent = true
	var errs []error
	for i := len(s.Commands) - 1; i >= 0; i-- {
		if c := s.Commands[i]; c.State() == Done {
			if err := c.Undo(); err != nil {
				errs = append(errs, fmt.Errorf("roll back %s: %w", c.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}

func (s *Sequence) Do() error {
	if s.spent {
		return fmt.Errorf("%w: cannot do a rolled back sequence", ErrInvalidTransition)
	}
	return s.transition(opDo, func() error {
		for _, c := range s.Commands {
			if c.State() == Done {
				continue
			}
			if err := c.Do(); err != nil {
				if rbErr := s.Rollback(); rbErr != nil {
					return errors.Join(err, rbErr)
				}
				return err
			}
		}
		return nil
	})
}

func (s *Sequence) Undo() error {
	return s.transition(opUndo, func() error {
		for i := len(s.Commands) - 1; i >= 0; i-- {
			if err := s.Commands[i].Undo(); err != nil {
				return fmt.Errorf("undo %s: %w", s.Commands[i].Name(), err)
			}
		}
		return nil
	})
}

func (s *Sequence) Redo() error {
	return s.transition(opRedo, func() error {
		for _, c := range s.Commands {
			if err := c.Redo(); err != nil {
				return fmt.Errorf("redo %s: %w", c.Name(), err)
			}
		}
		return nil
	})
}
