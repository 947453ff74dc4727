// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package signal is the observer primitive every rig entity uses to
// broadcast its mutations.
//
// Delivery is synchronous and happens on the emitting goroutine, in the order
// handlers were connected. Emission is re-entrant: a handler may emit further
// events, connect new handlers or disconnect existing ones. A handler
// connected while an emission is in flight is not called by that emission;
// a handler disconnected while an emission is in flight is skipped if it has
// not been reached yet.
package signal

import "github.com/google/uuid"

// Handler receives the payload of one event.
type Handler func(payload any)

// AnyHandler receives every event together with its name.
type AnyHandler func(event string, payload any)

// Handle identifies one subscription.
type Handle uuid.UUID

// String returns the textual form of the handle.
func (h Handle) String() string { return uuid.UUID(h).String() }

type subscription struct {
	handle Handle
	event  string // empty for catch-all subscriptions
	fn     AnyHandler
	active bool
}

// Emitter is a registry of handlers keyed by event name.
//
// The zero value is ready to use. Emitter is not safe for concurrent use;
// callers serialize access together with the entity that owns it.
type Emitter struct {
	subs []*subscription
}

// New returns an empty Emitter.
func New() *Emitter {
	return &Emitter{}
}

// Connect subscribes fn to one event name.
func (e *Emitter) Connect(event string, fn Handler) Handle {
	return e.add(event, func(_ string, payload any) { fn(payload) })
}

// ConnectAll subscribes fn to every event emitted by e.
func (e *Emitter) ConnectAll(fn AnyHandler) Handle {
	return e.add("", fn)
}

func (e *Emitter) add(event string, fn AnyHandler) Handle {
	s := &subscription{
		handle: Handle(uuid.New()),
		event:  event,
		fn:     fn,
		active: true,
	}
	e.subs = append(e.subs, s)
	return s.handle
}

// Disconnect removes a subscription. It reports whether the handle was found.
func (e *Emitter) Disconnect(h Handle) bool {
	for i, s := range e.subs {
		if s.handle == h {
			s.active = false
			e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Emit delivers payload to every handler subscribed to event, then to every
// catch-all handler, interleaved in connection order.
func (e *Emitter) Emit(event string, payload any) {
	// Snapshot so handlers may connect or disconnect during delivery.
	snapshot := make([]*subscription, len(e.subs))
	copy(snapshot, e.subs)
	for _, s := range snapshot {
		if !s.active {
			continue
		}
		if s.event != "" && s.event != event {
			continue
		}
		s.fn(event, payload)
	}
}

// Len returns the number of live subscriptions.
func (e *Emitter) Len() int {
	return len(e.subs)
}
