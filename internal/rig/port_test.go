package rig

import (
	"testing"

	"github.com/google/uuid"
	"github.com/specialistvlad/riggraph/internal/porttype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestDirection_Text(t *testing.T) {
	for _, d := range []Direction{Input, Output} {
		b, err := d.MarshalText()
		require.NoError(t, err)

		var back Direction
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, d, back)
	}

	_, err := ParseDirection("sideways")
	assert.Error(t, err)
	_, err = Direction(0).MarshalText()
	assert.Error(t, err)
}

func TestPort_Set(t *testing.T) {
	s := NewStore()
	root := s.CreateGraph(uuid.Nil)
	n := mustNode(t, s, root, "A")

	testCases := []struct {
		name    string
		typ     porttype.Type
		value   cty.Value
		want    cty.Value
		wantErr bool
	}{
		{"int from number", porttype.Int, cty.NumberIntVal(5), cty.NumberIntVal(5), false},
		{"int from numeric string", porttype.Int, cty.StringVal("7"), cty.NumberIntVal(7), false},
		{"int rejects fraction", porttype.Int, cty.NumberFloatVal(1.5), cty.NilVal, true},
		{"float from int", porttype.Float, cty.NumberIntVal(2), cty.NumberIntVal(2), false},
		{"bool rejects word", porttype.Bool, cty.StringVal("maybe"), cty.NilVal, true},
		{"string from number", porttype.String, cty.NumberIntVal(3), cty.StringVal("3"), false},
		{"vector3 from tuple", porttype.Vector3,
			cty.TupleVal([]cty.Value{cty.NumberIntVal(1), cty.NumberIntVal(2), cty.NumberIntVal(3)}),
			cty.ListVal([]cty.Value{cty.NumberIntVal(1), cty.NumberIntVal(2), cty.NumberIntVal(3)}), false},
		{"vector3 rejects wrong length", porttype.Vector3,
			cty.ListVal([]cty.Value{cty.NumberIntVal(1), cty.NumberIntVal(2)}), cty.NilVal, true},
		{"null", porttype.Float, cty.NullVal(cty.Number), cty.NilVal, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := mustPort(t, s, n, "p"+uuid.NewString()[:8], Input, tc.typ)
			before := p.Get()
			var events int
			p.Events().Connect(EventValueChanged, func(any) { events++ })

			err := p.Set(tc.value)

			if tc.wantErr {
				assert.ErrorIs(t, err, ErrTypeMismatch)
				assert.True(t, porttype.Equal(before, p.Get()), "value must be left untouched")
				assert.Zero(t, events)
				return
			}
			require.NoError(t, err)
			assert.True(t, porttype.Equal(tc.want, p.Get()), "got %#v", p.Get())
			assert.Equal(t, 1, events)
		})
	}
}

func TestPort_SetEmitsOldAndNew(t *testing.T) {
	s := NewStore()
	root := s.CreateGraph(uuid.Nil)
	n := mustNode(t, s, root, "A")
	p := mustPort(t, s, n, "x", Input, porttype.Int)

	var change ValueChange
	p.Events().Connect(EventValueChanged, func(payload any) { change = payload.(ValueChange) })

	require.NoError(t, p.Set(cty.NumberIntVal(4)))

	assert.Same(t, p, change.Port)
	assert.True(t, porttype.Equal(cty.NumberIntVal(0), change.Old))
	assert.True(t, porttype.Equal(cty.NumberIntVal(4), change.New))
}

func TestPort_ConnectionLists(t *testing.T) {
	s := NewStore()
	root := s.CreateGraph(uuid.Nil)
	a := mustNode(t, s, root, "A")
	b := mustNode(t, s, root, "B")
	out := mustPort(t, s, a, "out", Output, porttype.Int)
	in := mustPort(t, s, b, "in", Input, porttype.Int)

	c, err := s.CreateConnection(root, out, in)
	require.NoError(t, err)

	assert.Equal(t, []*Connection{c}, out.Downstream())
	assert.Equal(t, []*Connection{c}, in.Upstream())
	assert.Empty(t, out.Upstream())
	assert.Same(t, out, c.Source())
	assert.Same(t, in, c.Target())
	assert.Same(t, root, c.Graph())

	require.NoError(t, in.UnregisterUpstream(c))
	assert.ErrorIs(t, in.UnregisterUpstream(c), ErrNotAMember)
	require.NoError(t, in.RegisterUpstream(c))
	assert.ErrorIs(t, in.RegisterUpstream(c), ErrAlreadyMember)
}
