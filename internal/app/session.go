// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/specialistvlad/riggraph/internal/command"
	"github.com/specialistvlad/riggraph/internal/rig"
	"github.com/specialistvlad/riggraph/internal/serialize"
)

// Session is one editing context: a Store, its root graph and the history of
// commands applied to it.
type Session struct {
	Store   *rig.Store
	Root    *rig.Graph
	History *command.History

	decoder *serialize.Decoder
	encoder *serialize.Encoder
	logger  *slog.Logger
}

// NewSession creates an empty session whose instances resolve against the
// application's libraries.
func (a *App) NewSession() *Session {
	store := rig.NewStore(rig.WithLogger(a.logger))
	return &Session{
		Store:   store,
		Root:    store.CreateGraph(uuid.Nil),
		History: command.NewHistory(command.WithLogger(a.logger)),
		decoder: &serialize.Decoder{Definitions: definitions{app: a}, Logger: a.logger},
		encoder: &serialize.Encoder{},
		logger:  a.logger,
	}
}

// Import reads the node document at path into the root graph.
func (s *Session) Import(path string) (*rig.Node, error) {
	cmd := &serialize.ImportNode{Path: path, Graph: s.Root, Decoder: s.decoder}
	if err := s.History.View(cmd.Do); err != nil {
		return nil, err
	}
	s.logger.Info("Node imported.", "path", path, "node", cmd.Node().Path())
	return cmd.Node(), nil
}

// Export writes the definition of n to path.
func (s *Session) Export(n *rig.Node, path string) error {
	cmd := &serialize.ExportNode{Node: n, Path: path, Encoder: s.encoder}
	if err := s.History.View(cmd.Do); err != nil {
		return err
	}
	s.logger.Info("Node exported.", "path", path, "node", n.Path())
	return nil
}

// Encode returns the document of n.
func (s *Session) Encode(n *rig.Node) ([]byte, error) {
	return s.encoder.Encode(n)
}

// Snapshot encodes every top-level node as a JSON array of documents. The
// caller serializes it with the history.
func (s *Session) Snapshot() (json.RawMessage, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, n := range s.Root.Nodes() {
		doc, err := s.encoder.Encode(n)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", n.Path(), err)
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(bytes.TrimSpace(doc))
	}
	buf.WriteByte(']')
	return json.RawMessage(buf.Bytes()), nil
}
