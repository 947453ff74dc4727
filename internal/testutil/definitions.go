// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package testutil

import "fmt"

// Definition returns a minimal definition document of type typ in library
// with a single float input named "in" and a single float output named "out".
func Definition(library, typ string) string {
	return fmt.Sprintf(`{
  "kind": "definition",
  "name": %q,
  "type": %q,
  "library": %q,
  "ports": [
    {"name": "in", "direction": "input", "type": "float"},
    {"name": "out", "direction": "output", "type": "float"}
  ],
  "graph": {"nodes": [], "connections": []},
  "metadata": {}
}
`, typ, typ, library)
}

// Instance returns an instance document named name that references typ in
// library and sets its "in" port to value.
func Instance(name, library, typ string, value float64) string {
	return fmt.Sprintf(`{
  "kind": "instance",
  "name": %q,
  "type": %q,
  "library": %q,
  "ports": [{"name": "in", "value": %v}],
  "metadata": {}
}
`, name, typ, library, value)
}
