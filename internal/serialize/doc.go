// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package serialize converts node trees to and from JSON documents.
//
// A definition document carries the full port schema of a node (name,
// direction, type) and its nested graph. An instance document references a
// library definition by library and type and carries only port values. Nested
// nodes are written as instances when they reference a library and as
// definitions otherwise. Connections are [source, target] pairs of port
// references relative to the enclosing node: ".port" for its own ports and
// "child.port" for the ports of a direct child.
//
// Decoding issues the same commands a client would, so a decoded tree is
// indistinguishable from one built by hand.
package serialize
