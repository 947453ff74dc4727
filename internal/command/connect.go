// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package command

import (
	"fmt"

	"github.com/specialistvlad/riggraph/internal/rig"
	"github.com/zclconf/go-cty/cty"
)

// ConnectPorts links Source to Target in the scope of Graph. The target's
// value is overwritten with the source's current value; nothing is propagated
// afterwards. With Force, an existing upstream connection of Target is removed
// first and restored on undo.
type ConnectPorts struct {
	lifecycle
	Graph  *rig.Graph
	Source *rig.Port
	Target *rig.Port
	Force  bool

	conn               *rig.Connection
	connPlacement      rig.Placement
	displaced          *rig.Connection
	displacedPlacement rig.Placement
	oldValue, newValue cty.Value
}

func (c *ConnectPorts) Name() string { return "connect_ports" }

// Connection returns the created connection once the command has been done.
func (c *ConnectPorts) Connection() *rig.Connection { return c.conn }

// Displaced returns the connection removed by a forced connect, or nil.
func (c *ConnectPorts) Displaced() *rig.Connection { return c.displaced }

func (c *ConnectPorts) Do() error {
	return c.transition(opDo, func() error {
		if c.Graph == nil || c.Source == nil || c.Target == nil {
			return fmt.Errorf("%w: connect needs a graph, a source and a target", rig.ErrNotFound)
		}
		store := c.Graph.Store()
		if _, err := store.ResolveGraph(c.Graph); err != nil {
			return err
		}
		if _, err := store.ResolvePort(c.Source); err != nil {
			return err
		}
		if _, err := store.ResolvePort(c.Target); err != nil {
			return err
		}

		displaced, err := rig.CheckConnection(c.Graph, c.Source, c.Target, c.Force)
		if err != nil {
			return err
		}
		mirrored, err := c.Target.Type().Coerce(c.Source.Get())
		if err != nil {
			return err
		}

		if displaced != nil {
			pl, err := store.DeleteConnection(displaced.ID())
			if err != nil {
				return err
			}
			c.displaced, c.displacedPlacement = displaced, pl
		}
		conn, err := store.CreateConnection(c.Graph, c.Source, c.Target)
		if err != nil {
			return err
		}
		c.conn = conn
		c.oldValue, c.newValue = c.Target.Get(), mirrored
		if err := c.Target.Set(mirrored); err != nil {
			return err
		}

		store.Logger().Debug("Ports connected.", "source", c.Source.Path(), "target", c.Target.Path(), "forced", displaced != nil)
		return nil
	})
}

func (c *ConnectPorts) Undo() error {
	return c.transition(opUndo, func() error {
		store := c.Graph.Store()
		if err := c.Target.Set(c.oldValue); err != nil {
			return err
		}
		pl, err := store.DeleteConnection(c.conn.ID())
		if err != nil {
			return err
		}
		c.connPlacement = pl
		if c.displaced != nil {
			return store.RestoreConnection(c.displaced, c.displacedPlacement)
		}
		return nil
	})
}

func (c *ConnectPorts) Redo() error {
	return c.transition(opRedo, func() error {
		store := c.Graph.Store()
		if c.displaced != nil {
			if _, err := store.DeleteConnection(c.displaced.ID()); err != nil {
				return err
			}
		}
		if err := store.RestoreConnection(c.conn, c.connPlacement); err != nil {
			return err
		}
		return c.Target.Set(c.newValue)
	})
}

// DisconnectPorts removes a connection.
type DisconnectPorts struct {
	lifecycle
	Connection *rig.Connection

	placement rig.Placement
}

func (c *DisconnectPorts) Name() string { return "disconnect_ports" }

func (c *DisconnectPorts) disconnect() error {
	if c.Connection == nil {
		return fmt.Errorf("%w: disconnect needs a connection", rig.ErrNotFound)
	}
	pl, err := c.Connection.Store().DeleteConnection(c.Connection.ID())
	if err != nil {
		return err
	}
	c.placement = pl
	return nil
}

func (c *DisconnectPorts) Do() error   { return c.transition(opDo, c.disconnect) }
func (c *DisconnectPorts) Redo() error { return c.transition(opRedo, c.disconnect) }

func (c *DisconnectPorts) Undo() error {
	return c.transition(opUndo, func() error {
		return c.Connection.Store().RestoreConnection(c.Connection, c.placement)
	})
}
