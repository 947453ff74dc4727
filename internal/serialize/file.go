// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package serialize

import (
	"fmt"
	"os"

	"github.com/specialistvlad/riggraph/internal/command"
	"github.com/specialistvlad/riggraph/internal/rig"
)

// oneShot is the lifecycle of a command that can be done once and never
// undone.
type oneShot struct {
	done bool
}

func (o *oneShot) State() command.State {
	if o.done {
		return command.Done
	}
	return command.Pending
}

func (o *oneShot) begin(name string) error {
	if o.done {
		return fmt.Errorf("%w: %s has already been done", command.ErrInvalidTransition, name)
	}
	return nil
}

func (o *oneShot) Undo() error { return command.ErrNotUndoable }
func (o *oneShot) Redo() error { return command.ErrNotUndoable }

// ImportNode reads a node document from Path and builds it in Graph.
type ImportNode struct {
	oneShot
	Path    string
	Graph   *rig.Graph
	Decoder *Decoder

	node *rig.Node
}

func (c *ImportNode) Name() string { return "import_node" }

// Node returns the imported node once the command has been done.
func (c *ImportNode) Node() *rig.Node { return c.node }

func (c *ImportNode) Do() error {
	if err := c.begin(c.Name()); err != nil {
		return err
	}
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return fmt.Errorf("import %s: %w", c.Path, err)
	}
	dec := c.Decoder
	if dec == nil {
		dec = &Decoder{}
	}
	n, _, err := dec.Decode(data, c.Graph)
	if err != nil {
		return fmt.Errorf("import %s: %w", c.Path, err)
	}
	c.node = n
	c.done = true
	return nil
}

// ExportNode writes the definition of Node to Path.
type ExportNode struct {
	oneShot
	Node    *rig.Node
	Path    string
	Encoder *Encoder
}

func (c *ExportNode) Name() string { return "export_node" }

func (c *ExportNode) Do() error {
	if err := c.begin(c.Name()); err != nil {
		return err
	}
	enc := c.Encoder
	if enc == nil {
		enc = &Encoder{}
	}
	data, err := enc.Encode(c.Node)
	if err != nil {
		return fmt.Errorf("export %s: %w", c.Node.Path(), err)
	}
	if err := os.WriteFile(c.Path, data, 0o644); err != nil {
		return fmt.Errorf("export %s: %w", c.Node.Path(), err)
	}
	c.done = true
	return nil
}
