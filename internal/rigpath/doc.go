// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

/*
Package rigpath provides a structured representation of node and port paths.

Absolute node paths are slash-delimited from the root, e.g. `/root/arm/elbow`.
A port path appends the port name chain with dots, e.g. `/root/arm.matrix.row0`.

Relative port references are resolved against an enclosing node: `.port`
names one of the enclosing node's own (boundary) ports and `child.port` names
a port of one of its direct children.

This package enforces the path schema and centralizes all formatting and
parsing logic.
*/
package rigpath
