package rig

import (
	"testing"

	"github.com/google/uuid"
	"github.com/specialistvlad/riggraph/internal/porttype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

// legalityRig is a two-level rig:
//
//	/Arm        in:int, out:int, flag:bool, name:string
//	/Arm/Leg    in:int, out:int
//	/Arm/Foot   in:int
//	/Other      in:int, out:int
type legalityRig struct {
	store               *Store
	root                *Graph
	arm, leg, foot, oth *Node
	armIn, armOut       *Port
	armFlag, armName    *Port
	legIn, legOut       *Port
	footIn              *Port
	othIn, othOut       *Port
}

func newLegalityRig(t *testing.T) *legalityRig {
	t.Helper()
	r := &legalityRig{store: NewStore()}
	s := r.store
	r.root = s.CreateGraph(uuid.Nil)
	r.arm = mustNode(t, s, r.root, "Arm")
	r.oth = mustNode(t, s, r.root, "Other")
	r.leg = mustNode(t, s, r.arm.ChildGraph(), "Leg")
	r.foot = mustNode(t, s, r.arm.ChildGraph(), "Foot")

	r.armIn = mustPort(t, s, r.arm, "in", Input, porttype.Int)
	r.armOut = mustPort(t, s, r.arm, "out", Output, porttype.Int)
	r.armFlag = mustPort(t, s, r.arm, "flag", Output, porttype.Bool)
	r.armName = mustPort(t, s, r.arm, "name", Output, porttype.String)
	r.legIn = mustPort(t, s, r.leg, "in", Input, porttype.Int)
	r.legOut = mustPort(t, s, r.leg, "out", Output, porttype.Int)
	r.footIn = mustPort(t, s, r.foot, "in", Input, porttype.Int)
	r.othIn = mustPort(t, s, r.oth, "in", Input, porttype.Int)
	r.othOut = mustPort(t, s, r.oth, "out", Output, porttype.Int)
	return r
}

func TestCheckConnection(t *testing.T) {
	r := newLegalityRig(t)
	inner := r.arm.ChildGraph()
	require.NoError(t, r.armName.Set(cty.StringVal("left")))

	testCases := []struct {
		name    string
		graph   *Graph
		source  *Port
		target  *Port
		wantErr error
	}{
		{"siblings output to input", r.root, r.armOut, r.othIn, nil},
		{"siblings input to output", r.root, r.othIn, r.armOut, nil},
		{"siblings same direction", r.root, r.armOut, r.othOut, ErrSameDirection},
		{"siblings same direction inputs", r.root, r.armIn, r.othIn, ErrSameDirection},
		{"boundary input into child input", inner, r.armIn, r.legIn, nil},
		{"child output to boundary output", inner, r.legOut, r.armOut, nil},
		{"boundary differing directions", inner, r.armIn, r.legOut, ErrDifferentDirection},
		{"child to boundary differing directions", inner, r.legOut, r.armIn, ErrDifferentDirection},
		{"children inside scope", inner, r.legOut, r.footIn, nil},
		{"same node", inner, r.legOut, r.legIn, ErrSameNode},
		{"same node boundary", r.root, r.armOut, r.armIn, ErrSameNode},
		{"grandchild out of scope", r.root, r.armOut, r.legIn, ErrOutOfScope},
		{"sibling of parent out of scope", inner, r.othOut, r.legIn, ErrOutOfScope},
		{"type mismatch", r.root, r.armName, r.othIn, ErrTypeMismatch},
		{"bool coerces to int fails", r.root, r.armFlag, r.othIn, ErrTypeMismatch},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			displaced, err := CheckConnection(tc.graph, tc.source, tc.target, false)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Nil(t, displaced)
		})
	}
}

func TestCheckConnection_Order(t *testing.T) {
	r := newLegalityRig(t)

	// Out of scope wins over every later rule.
	_, err := CheckConnection(r.root, r.legIn, r.legIn, false)
	assert.ErrorIs(t, err, ErrOutOfScope)

	// Same node wins over type and direction.
	_, err = CheckConnection(r.root, r.armName, r.armFlag, false)
	assert.ErrorIs(t, err, ErrSameNode)

	// Type wins over direction.
	require.NoError(t, r.armName.Set(cty.StringVal("x")))
	_, err = CheckConnection(r.root, r.armName, r.othOut, false)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestCheckConnection_ExistingUpstream(t *testing.T) {
	r := newLegalityRig(t)
	existing, err := r.store.CreateConnection(r.root, r.othOut, r.armIn)
	require.NoError(t, err)

	_, err = CheckConnection(r.root, r.othOut, r.armIn, false)
	assert.ErrorIs(t, err, ErrAlreadyConnected)

	displaced, err := CheckConnection(r.root, r.othOut, r.armIn, true)
	require.NoError(t, err)
	assert.Same(t, existing, displaced)

	// A fed port can still feed others.
	displaced, err = CheckConnection(r.arm.ChildGraph(), r.armIn, r.legIn, false)
	require.NoError(t, err)
	assert.Nil(t, displaced)
}
