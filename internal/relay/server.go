// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package relay

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/specialistvlad/riggraph/internal/command"
	"github.com/specialistvlad/riggraph/internal/ctxlog"
	"github.com/specialistvlad/riggraph/internal/rig"
	"github.com/zishang520/socket.io/v2/socket"
)

// socket.io event names.
const (
	// EventRig carries one Event from the server.
	EventRig = "rig:event"
	// EventUndo and EventRedo ask the server to step its history.
	EventUndo = "history:undo"
	EventRedo = "history:redo"
	// EventResult answers EventUndo and EventRedo to the requesting client.
	EventResult = "history:result"
	// EventSnapshot asks for a JSON document of the session; the answer uses
	// the same event name.
	EventSnapshot = "rig:snapshot"
)

// Result is the answer to a history request.
type Result struct {
	Op      string `json:"op"`
	Command string `json:"command,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ServerOptions configures NewServer.
type ServerOptions struct {
	// Path is the socket.io mount path. Empty means "/socket.io/".
	Path   string
	Logger *slog.Logger
	// Snapshot renders the session for EventSnapshot. Optional.
	Snapshot func() (json.RawMessage, error)
}

// Server relays Store mutations to socket.io clients and serves history
// requests.
type Server struct {
	io       *socket.Server
	history  *command.History
	relay    *Relay
	path     string
	logger   *slog.Logger
	snapshot func() (json.RawMessage, error)
}

// NewServer builds a server for store. Store mutations must go through
// history so that client requests are serialized with them.
func NewServer(store *rig.Store, history *command.History, opts ServerOptions) *Server {
	if opts.Logger == nil {
		opts.Logger = ctxlog.Discard()
	}
	if opts.Path == "" {
		opts.Path = "/socket.io/"
	}
	s := &Server{
		io:       socket.NewServer(nil, nil),
		history:  history,
		path:     "/" + strings.Trim(opts.Path, "/") + "/",
		logger:   opts.Logger,
		snapshot: opts.Snapshot,
	}
	s.io.SetPath(s.path)
	s.relay = New(store, s.broadcast, opts.Logger)
	s.io.On("connection", s.onConnection)
	return s
}

// Handler returns an http.Handler serving socket.io on the configured path.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(s.path, s.io.ServeHandler(nil))
	return mux
}

// Path returns the socket.io mount path.
func (s *Server) Path() string { return s.path }

// Start begins relaying Store events. Call it from the goroutine that owns the
// Store, or under history.View.
func (s *Server) Start() {
	s.relay.Start()
	s.logger.Info("Relay server started.", "path", s.path)
}

// Close stops relaying and disconnects every client.
func (s *Server) Close() {
	_ = s.history.View(func() error {
		s.relay.Stop()
		return nil
	})
	s.io.Close(nil)
	s.logger.Info("Relay server closed.")
}

func (s *Server) broadcast(ev Event) {
	s.io.Emit(EventRig, toWire(ev))
}

func (s *Server) onConnection(clients ...any) {
	client, ok := clients[0].(*socket.Socket)
	if !ok {
		return
	}
	logger := s.logger.With("sid", string(client.Id()))
	logger.Info("Relay client connected.")

	client.On(EventUndo, func(...any) {
		cmd, err := s.history.Undo()
		s.reply(client, logger, "undo", cmd, err)
	})
	client.On(EventRedo, func(...any) {
		cmd, err := s.history.Redo()
		s.reply(client, logger, "redo", cmd, err)
	})
	client.On(EventSnapshot, func(...any) {
		if s.snapshot == nil {
			return
		}
		var doc json.RawMessage
		err := s.history.View(func() error {
			var err error
			doc, err = s.snapshot()
			return err
		})
		if err != nil {
			logger.Warn("Snapshot failed.", "error", err)
			client.Emit(EventSnapshot, map[string]any{"error": err.Error()})
			return
		}
		var body any
		if err := json.Unmarshal(doc, &body); err != nil {
			logger.Warn("Snapshot is not valid JSON.", "error", err)
			return
		}
		client.Emit(EventSnapshot, body)
	})
	client.On("disconnect", func(reason ...any) {
		logger.Info("Relay client disconnected.", "reason", reason)
	})
}

func (s *Server) reply(client *socket.Socket, logger *slog.Logger, op string, cmd command.Command, err error) {
	res := Result{Op: op}
	if cmd != nil {
		res.Command = cmd.Name()
	}
	if err != nil {
		res.Error = err.Error()
		if errors.Is(err, command.ErrEmptyHistory) {
			logger.Debug("History request on empty history.", "op", op)
		} else {
			logger.Warn("History request failed.", "op", op, "error", err)
		}
	} else {
		logger.Info("History request served.", "op", op, "command", res.Command)
	}
	client.Emit(EventResult, toWire(res))
}

// toWire converts v to the generic JSON shape socket.io transmits.
func toWire(v any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]any{"error": err.Error()}
	}
	return m
}

// fromWire converts a received socket.io argument back into v.
func fromWire(arg any, v any) error {
	data, err := json.Marshal(arg)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
