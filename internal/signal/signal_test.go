package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmit_DeliversInRegistrationOrder(t *testing.T) {
	e := New()
	var got []string

	e.Connect("changed", func(p any) { got = append(got, "first:"+p.(string)) })
	e.ConnectAll(func(ev string, p any) { got = append(got, "all:"+ev) })
	e.Connect("changed", func(p any) { got = append(got, "second:"+p.(string)) })
	e.Connect("other", func(p any) { got = append(got, "other") })

	e.Emit("changed", "x")

	assert.Equal(t, []string{"first:x", "all:changed", "second:x"}, got)
}

func TestDisconnect(t *testing.T) {
	e := New()
	calls := 0
	h := e.Connect("ev", func(any) { calls++ })

	require.True(t, e.Disconnect(h))
	assert.False(t, e.Disconnect(h), "second disconnect must report a missing handle")

	e.Emit("ev", nil)
	assert.Zero(t, calls)
	assert.Zero(t, e.Len())
}

func TestEmit_ReentrantDelivery(t *testing.T) {
	e := New()
	var order []string

	e.Connect("outer", func(any) {
		order = append(order, "outer-1")
		e.Emit("inner", nil)
	})
	e.Connect("inner", func(any) { order = append(order, "inner") })
	e.Connect("outer", func(any) { order = append(order, "outer-2") })

	e.Emit("outer", nil)

	assert.Equal(t, []string{"outer-1", "inner", "outer-2"}, order)
}

func TestEmit_SubscriptionChangesDuringDelivery(t *testing.T) {
	e := New()
	var order []string
	var late Handle

	e.Connect("ev", func(any) {
		order = append(order, "a")
		e.Connect("ev", func(any) { order = append(order, "added") })
		e.Disconnect(late)
	})
	late = e.Connect("ev", func(any) { order = append(order, "removed") })

	e.Emit("ev", nil)
	assert.Equal(t, []string{"a"}, order, "added handler must wait for the next emission, removed one must be skipped")

	order = nil
	e.Emit("ev", nil)
	assert.Equal(t, []string{"a", "added"}, order)
}
