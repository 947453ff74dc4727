// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package command wraps every mutation of a rig.Store in an object that can
// be done, undone and redone.
//
// A command moves through pending -> done -> undone -> done -> ... and any
// other transition fails with ErrInvalidTransition. Do validates everything it
// needs before it touches the Store, so a failed Do leaves no trace. Undo
// reverses exactly what the last Do or Redo did. Redo replays the remembered
// result (the same entities, under the same identifiers) instead of computing
// it again.
//
// Composite commands such as DeleteNode record their sub-commands in a
// Sequence and replay or reverse that Sequence. History keeps the undo and
// redo stacks and is the one lock around a Store shared between goroutines.
package command
