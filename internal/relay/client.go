// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/specialistvlad/riggraph/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

const clientBuffer = 256

// Client is a socket.io connection to a relay Server.
type Client struct {
	io     *socket.Socket
	logger *slog.Logger

	events    chan Event
	results   chan Result
	snapshots chan json.RawMessage
}

// Dial connects to the relay at rawURL, e.g. "http://localhost:7777/socket.io/".
// It returns once the connection is established, fails or ctx is done. The
// context must carry a logger.
func Dial(ctx context.Context, rawURL string) (*Client, error) {
	logger := ctxlog.FromContext(ctx).With("url", rawURL)

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("failed to parse URL: %q has no scheme or host", rawURL)
	}
	path := parsedURL.Path
	if path == "" || path == "/" {
		path = "/socket.io/"
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	opts.SetPath(path)
	opts.SetTransports(types.NewSet(transports.WebSocket))
	opts.SetReconnection(false)

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket("/", opts)

	c := &Client{
		io:        io,
		logger:    logger,
		events:    make(chan Event, clientBuffer),
		results:   make(chan Result, clientBuffer),
		snapshots: make(chan json.RawMessage, clientBuffer),
	}

	connected := make(chan error, 1)
	io.On(types.EventName("connect"), func(...any) {
		logger.Info("Connected to relay.", "sid", io.Id())
		select {
		case connected <- nil:
		default:
		}
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("failed to connect to %s", rawURL)
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = fmt.Errorf("failed to connect to %s: %w", rawURL, e)
			}
		}
		select {
		case connected <- err:
		default:
		}
	})
	io.On(types.EventName(EventRig), func(args ...any) {
		var ev Event
		if !c.decode(args, &ev) {
			return
		}
		c.deliver(func() bool {
			select {
			case c.events <- ev:
				return true
			default:
				return false
			}
		})
	})
	io.On(types.EventName(EventResult), func(args ...any) {
		var res Result
		if !c.decode(args, &res) {
			return
		}
		c.deliver(func() bool {
			select {
			case c.results <- res:
				return true
			default:
				return false
			}
		})
	})
	io.On(types.EventName(EventSnapshot), func(args ...any) {
		if len(args) == 0 {
			return
		}
		doc, err := json.Marshal(args[0])
		if err != nil {
			logger.Warn("Dropping undecodable snapshot.", "error", err)
			return
		}
		c.deliver(func() bool {
			select {
			case c.snapshots <- doc:
				return true
			default:
				return false
			}
		})
	})

	io.Connect()

	select {
	case <-ctx.Done():
		io.Disconnect()
		return nil, ctx.Err()
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, err
		}
		return c, nil
	}
}

func (c *Client) decode(args []any, v any) bool {
	if len(args) == 0 {
		return false
	}
	if err := fromWire(args[0], v); err != nil {
		c.logger.Warn("Dropping undecodable relay message.", "error", err)
		return false
	}
	return true
}

func (c *Client) deliver(send func() bool) {
	if !send() {
		c.logger.Warn("Relay client buffer full, message dropped.")
	}
}

// Events returns relayed rig events in arrival order.
func (c *Client) Events() <-chan Event { return c.events }

// Results returns answers to Undo and Redo.
func (c *Client) Results() <-chan Result { return c.results }

// Snapshots returns answers to RequestSnapshot.
func (c *Client) Snapshots() <-chan json.RawMessage { return c.snapshots }

// Undo asks the server to undo its latest command.
func (c *Client) Undo() error { return c.io.Emit(EventUndo) }

// Redo asks the server to redo its latest undone command.
func (c *Client) Redo() error { return c.io.Emit(EventRedo) }

// RequestSnapshot asks the server for a document of its session.
func (c *Client) RequestSnapshot() error { return c.io.Emit(EventSnapshot) }

// Close disconnects from the server.
func (c *Client) Close() {
	c.logger.Debug("Disconnecting relay client.")
	c.io.Disconnect()
}

// Listen connects to rawURL and calls fn for every relayed event until ctx
// is done.
func Listen(ctx context.Context, rawURL string, fn func(Event)) error {
	c, err := Dial(ctx, rawURL)
	if err != nil {
		return err
	}
	defer c.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-c.events:
			fn(ev)
		}
	}
}
