// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package app wires the rig core to the outside world. It owns the logger,
// the discovered libraries and the editing sessions, and implements the
// operations exposed by the command line: listing libraries, inspecting and
// round-tripping node documents, serving a session over the relay and
// watching a served session.
package app
