// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package command

import (
	"fmt"

	"github.com/specialistvlad/riggraph/internal/porttype"
	"github.com/specialistvlad/riggraph/internal/rig"
	"github.com/specialistvlad/riggraph/internal/rigpath"
	"github.com/zclconf/go-cty/cty"
)

// CreatePort adds a port to Node, or a child port under Parent. The port is
// registered in the node's parent graph.
type CreatePort struct {
	lifecycle
	Node      *rig.Node
	PortName  string
	Direction rig.Direction
	Type      porttype.Type
	Parent    *rig.Port

	port      *rig.Port
	placement rig.Placement
}

func (c *CreatePort) Name() string { return "create_port" }

// Port returns the created port once the command has been done.
func (c *CreatePort) Port() *rig.Port { return c.port }

func (c *CreatePort) Do() error {
	return c.transition(opDo, func() error {
		if c.Node == nil {
			return fmt.Errorf("%w: create port %q needs a node", rig.ErrNotFound, c.PortName)
		}
		store := c.Node.Store()
		if _, err := store.ResolveNode(c.Node); err != nil {
			return err
		}
		if err := rigpath.ValidateName(c.PortName); err != nil {
			return err
		}
		if c.Parent != nil {
			if _, err := store.ResolvePort(c.Parent); err != nil {
				return err
			}
			if _, taken := c.Parent.Child(c.PortName); taken {
				return fmt.Errorf("%w: %s already has a child port %q", rig.ErrNameTaken, c.Parent.Path(), c.PortName)
			}
		} else if _, taken := c.Node.Port(c.PortName); taken {
			return fmt.Errorf("%w: %s already has a port %q", rig.ErrNameTaken, c.Node.Path(), c.PortName)
		}

		p, err := store.CreatePort(rig.PortSpec{
			Name:      c.PortName,
			Direction: c.Direction,
			Type:      c.Type,
			Node:      c.Node,
			Graph:     c.Node.ParentGraph(),
			Parent:    c.Parent,
		})
		if err != nil {
			return err
		}
		c.port = p
		return nil
	})
}

func (c *CreatePort) Undo() error {
	return c.transition(opUndo, func() error {
		pl, err := c.port.Store().DeletePort(c.port.ID())
		if err != nil {
			return err
		}
		c.placement = pl
		return nil
	})
}

func (c *CreatePort) Redo() error {
	return c.transition(opRedo, func() error {
		return c.port.Store().RestorePort(c.port, c.placement)
	})
}

// DeletePort disconnects a port and its descendants, deletes the descendants
// children first, then deletes the port.
type DeletePort struct {
	lifecycle
	Port *rig.Port

	steps *Sequence
}

func (c *DeletePort) Name() string { return "delete_port" }

func (c *DeletePort) Do() error {
	return c.transition(opDo, func() error {
		if c.Port == nil {
			return fmt.Errorf("%w: delete needs a port", rig.ErrNotFound)
		}
		if _, err := c.Port.Store().ResolvePort(c.Port); err != nil {
			return err
		}

		ports := postOrder([]*rig.Port{c.Port})
		steps := NewSequence("delete_port " + c.Port.Path())
		steps.Commands = append(steps.Commands, disconnectAll(ports)...)
		for _, p := range ports {
			steps.Commands = append(steps.Commands, &removePort{Port: p})
		}

		if err := steps.Do(); err != nil {
			return err
		}
		c.steps = steps
		return nil
	})
}

func (c *DeletePort) Undo() error {
	return c.transition(opUndo, c.steps.Undo)
}

func (c *DeletePort) Redo() error {
	return c.transition(opRedo, c.steps.Redo)
}

// removePort deletes one port that has no connections or children left.
type removePort struct {
	lifecycle
	Port *rig.Port

	placement rig.Placement
}

func (c *removePort) Name() string { return "remove_port" }

func (c *removePort) remove() error {
	pl, err := c.Port.Store().DeletePort(c.Port.ID())
	if err != nil {
		return err
	}
	c.placement = pl
	return nil
}

func (c *removePort) Do() error   { return c.transition(opDo, c.remove) }
func (c *removePort) Redo() error { return c.transition(opRedo, c.remove) }

func (c *removePort) Undo() error {
	return c.transition(opUndo, func() error {
		return c.Port.Store().RestorePort(c.Port, c.placement)
	})
}

// SetPortValue assigns a value to a port and remembers the previous one.
type SetPortValue struct {
	lifecycle
	Port  *rig.Port
	Value cty.Value

	prev, next cty.Value
}

func (c *SetPortValue) Name() string { return "set_port_value" }

func (c *SetPortValue) Do() error {
	return c.transition(opDo, func() error {
		if c.Port == nil {
			return fmt.Errorf("%w: set value needs a port", rig.ErrNotFound)
		}
		if _, err := c.Port.Store().ResolvePort(c.Port); err != nil {
			return err
		}
		old := c.Port.Get()
		if err := c.Port.Set(c.Value); err != nil {
			return err
		}
		c.prev, c.next = old, c.Port.Get()
		return nil
	})
}

func (c *SetPortValue) Undo() error {
	return c.transition(opUndo, func() error { return c.Port.Set(c.prev) })
}

func (c *SetPortValue) Redo() error {
	return c.transition(opRedo, func() error { return c.Port.Set(c.next) })
}

// postOrder flattens port trees so every child precedes its parent.
func postOrder(ports []*rig.Port) []*rig.Port {
	var out []*rig.Port
	for _, p := range ports {
		out = append(out, postOrder(p.Children())...)
		out = append(out, p)
	}
	return out
}

// disconnectAll returns one DisconnectPorts per distinct connection touching
// ports, upstream before downstream, in port order.
func disconnectAll(ports []*rig.Port) []Command {
	var cmds []Command
	seen := make(map[*rig.Connection]bool)
	for _, p := range ports {
		for _, conn := range append(p.Upstream(), p.Downstream()...) {
			if seen[conn] {
				continue
			}
			seen[conn] = true
			cmds = append(cmds, &DisconnectPorts{Connection: conn})
		}
	}
	return cmds
}
