// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package command

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/specialistvlad/riggraph/internal/rig"
	"github.com/specialistvlad/riggraph/internal/rigpath"
)

// UniqueName returns name if no node other than self uses it in g. Otherwise
// trailing digits are stripped and the first free numeric suffix starting at 1
// is appended: Leg, Leg1, Leg2.
func UniqueName(g *rig.Graph, name string, self *rig.Node) string {
	if g == nil {
		return name
	}
	taken := func(candidate string) bool {
		other, ok := g.NodeNamed(candidate)
		return ok && other != self
	}
	if !taken(name) {
		return name
	}
	base := strings.TrimRightFunc(name, unicode.IsDigit)
	for i := 1; ; i++ {
		if candidate := base + strconv.Itoa(i); !taken(candidate) {
			return candidate
		}
	}
}

// CreateNode creates a node in Graph under a unique variant of NodeName.
type CreateNode struct {
	lifecycle
	Graph    *rig.Graph
	NodeName string
	Type     string
	Library  string

	node      *rig.Node
	placement rig.Placement
}

func (c *CreateNode) Name() string { return "create_node" }

// Node returns the created node once the command has been done.
func (c *CreateNode) Node() *rig.Node { return c.node }

func (c *CreateNode) Do() error {
	return c.transition(opDo, func() error {
		if c.Graph == nil {
			return fmt.Errorf("%w: create node %q needs a graph", rig.ErrNotFound, c.NodeName)
		}
		store := c.Graph.Store()
		if _, err := store.ResolveGraph(c.Graph); err != nil {
			return err
		}
		if err := rigpath.ValidateName(c.NodeName); err != nil {
			return err
		}
		n, err := store.CreateNode(UniqueName(c.Graph, c.NodeName, nil), c.Graph, c.Type, c.Library)
		if err != nil {
			return err
		}
		c.node = n
		return nil
	})
}

func (c *CreateNode) Undo() error {
	return c.transition(opUndo, func() error {
		pl, err := c.node.Store().DeleteNode(c.node.ID())
		if err != nil {
			return err
		}
		c.placement = pl
		return nil
	})
}

func (c *CreateNode) Redo() error {
	return c.transition(opRedo, func() error {
		return c.node.Store().RestoreNode(c.node, c.placement)
	})
}

// RenameNode renames a node, keeping names unique among its siblings.
type RenameNode struct {
	lifecycle
	Node    *rig.Node
	NewName string

	oldName, newName string
}

func (c *RenameNode) Name() string { return "rename_node" }

// Result returns the name actually assigned.
func (c *RenameNode) Result() string { return c.newName }

func (c *RenameNode) Do() error {
	return c.transition(opDo, func() error {
		if c.Node == nil {
			return fmt.Errorf("%w: rename needs a node", rig.ErrNotFound)
		}
		if _, err := c.Node.Store().ResolveNode(c.Node); err != nil {
			return err
		}
		if err := rigpath.ValidateName(c.NewName); err != nil {
			return err
		}
		c.oldName = c.Node.Name()
		c.newName = UniqueName(c.Node.ParentGraph(), c.NewName, c.Node)
		c.Node.SetName(c.newName)
		return nil
	})
}

func (c *RenameNode) Undo() error {
	return c.transition(opUndo, func() error {
		c.Node.SetName(c.oldName)
		return nil
	})
}

func (c *RenameNode) Redo() error {
	return c.transition(opRedo, func() error {
		c.Node.SetName(c.newName)
		return nil
	})
}

// DeleteNode takes a node apart and removes it. The order is fixed: every
// connection of its ports is disconnected, its ports are deleted children
// first, the nodes of its child graph are deleted recursively, then the node
// itself. Undo restores everything in exactly the reverse order.
type DeleteNode struct {
	lifecycle
	Node *rig.Node

	steps *Sequence
}

func (c *DeleteNode) Name() string { return "delete_node" }

func (c *DeleteNode) Do() error {
	return c.transition(opDo, func() error {
		if c.Node == nil {
			return fmt.Errorf("%w: delete needs a node", rig.ErrNotFound)
		}
		if _, err := c.Node.Store().ResolveNode(c.Node); err != nil {
			return err
		}

		ports := postOrder(c.Node.TopPorts())
		steps := NewSequence("delete_node " + c.Node.Path())
		steps.Commands = append(steps.Commands, disconnectAll(ports)...)
		for _, p := range ports {
			steps.Commands = append(steps.Commands, &removePort{Port: p})
		}
		for _, child := range c.Node.Children() {
			steps.Commands = append(steps.Commands, &DeleteNode{Node: child})
		}
		steps.Commands = append(steps.Commands, &removeNode{Node: c.Node})

		if err := steps.Do(); err != nil {
			return err
		}
		c.steps = steps
		return nil
	})
}

func (c *DeleteNode) Undo() error {
	return c.transition(opUndo, c.steps.Undo)
}

func (c *DeleteNode) Redo() error {
	return c.transition(opRedo, c.steps.Redo)
}

// removeNode deletes one node that has already been emptied.
type removeNode struct {
	lifecycle
	Node *rig.Node

	placement rig.Placement
}

func (c *removeNode) Name() string { return "remove_node" }

func (c *removeNode) remove() error {
	pl, err := c.Node.Store().DeleteNode(c.Node.ID())
	if err != nil {
		return err
	}
	c.placement = pl
	return nil
}

func (c *removeNode) Do() error   { return c.transition(opDo, c.remove) }
func (c *removeNode) Redo() error { return c.transition(opRedo, c.remove) }

func (c *removeNode) Undo() error {
	return c.transition(opUndo, func() error {
		return c.Node.Store().RestoreNode(c.Node, c.placement)
	})
}
