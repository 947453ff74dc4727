package serialize

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/specialistvlad/riggraph/internal/command"
	"github.com/specialistvlad/riggraph/internal/porttype"
	"github.com/specialistvlad/riggraph/internal/rig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

const armDefinition = `{
  "kind": "definition",
  "name": "Arm",
  "type": "limb",
  "library": null,
  "ports": [
    {
      "name": "in",
      "direction": "input",
      "type": "int"
    },
    {
      "name": "out",
      "direction": "output",
      "type": "int"
    }
  ],
  "graph": {
    "nodes": [
      {
        "kind": "definition",
        "name": "Leg",
        "type": "segment",
        "library": null,
        "ports": [
          {
            "name": "in",
            "direction": "input",
            "type": "int"
          }
        ],
        "graph": {
          "nodes": [],
          "connections": []
        },
        "metadata": {}
      }
    ],
    "connections": [
      [
        ".in",
        "Leg.in"
      ]
    ]
  },
  "metadata": {}
}
`

func newRoot() (*rig.Store, *rig.Graph) {
	s := rig.NewStore()
	return s, s.CreateGraph(uuid.Nil)
}

func TestRoundTrip_DefinitionIsByteIdentical(t *testing.T) {
	_, root := newRoot()
	dec := &Decoder{}

	n, seq, err := dec.Decode([]byte(armDefinition), root)
	require.NoError(t, err)
	assert.Equal(t, command.Done, seq.State())

	out, err := (&Encoder{}).Encode(n)
	require.NoError(t, err)
	assert.Equal(t, armDefinition, string(out))
}

func TestDecode_MatchesProgrammaticConstruction(t *testing.T) {
	_, root := newRoot()
	n, _, err := (&Decoder{}).Decode([]byte(armDefinition), root)
	require.NoError(t, err)

	store, root2 := newRoot()
	h := command.NewHistory()
	arm := &command.CreateNode{Graph: root2, NodeName: "Arm", Type: "limb"}
	require.NoError(t, h.Execute(arm))
	armIn := &command.CreatePort{Node: arm.Node(), PortName: "in", Direction: rig.Input, Type: porttype.Int}
	require.NoError(t, h.Execute(armIn))
	require.NoError(t, h.Execute(&command.CreatePort{Node: arm.Node(), PortName: "out", Direction: rig.Output, Type: porttype.Int}))
	leg := &command.CreateNode{Graph: arm.Node().ChildGraph(), NodeName: "Leg", Type: "segment"}
	require.NoError(t, h.Execute(leg))
	legIn := &command.CreatePort{Node: leg.Node(), PortName: "in", Direction: rig.Input, Type: porttype.Int}
	require.NoError(t, h.Execute(legIn))
	require.NoError(t, h.Execute(&command.ConnectPorts{Graph: arm.Node().ChildGraph(), Source: armIn.Port(), Target: legIn.Port()}))

	want, err := (&Encoder{}).Encode(arm.Node())
	require.NoError(t, err)
	got, err := (&Encoder{}).Encode(n)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
	assert.Len(t, store.Membership().Connections, 1)
}

func TestDecode_SequenceUndoRemovesEverything(t *testing.T) {
	store, root := newRoot()
	before := store.Membership()

	_, seq, err := (&Decoder{}).Decode([]byte(armDefinition), root)
	require.NoError(t, err)
	after := store.Membership()
	assert.Len(t, after.Nodes, 2)
	assert.Len(t, after.Ports, 3)

	require.NoError(t, seq.Undo())
	assert.Equal(t, before, store.Membership())

	require.NoError(t, seq.Redo())
	assert.Equal(t, after, store.Membership())
}

func TestDecode_FailureLeavesNoTrace(t *testing.T) {
	testCases := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{"bad kind", `{"kind":"blueprint","name":"A","type":"","library":null,"ports":[],"metadata":{}}`, ErrUnknownKind},
		{"bad port type", `{"kind":"definition","name":"A","type":"","library":null,"ports":[{"name":"p","direction":"input","type":"colour"}],"metadata":{}}`, porttype.ErrUnknownType},
		{"bad connection", `{"kind":"definition","name":"A","type":"","library":null,
			"ports":[{"name":"p","direction":"input","type":"int"}],
			"graph":{"nodes":[],"connections":[[".p",".q"]]},"metadata":{}}`, rig.ErrNotFound},
		{"illegal connection", `{"kind":"definition","name":"A","type":"","library":null,
			"ports":[{"name":"p","direction":"input","type":"int"},{"name":"q","direction":"output","type":"int"}],
			"graph":{"nodes":[],"connections":[[".p",".q"]]},"metadata":{}}`, rig.ErrSameNode},
		{"malformed connection", `{"kind":"definition","name":"A","type":"","library":null,"ports":[],
			"graph":{"nodes":[],"connections":[[".p"]]},"metadata":{}}`, ErrMalformedConnection},
		{"instance without source", `{"kind":"definition","name":"A","type":"","library":null,"ports":[],
			"graph":{"nodes":[{"kind":"instance","name":"J","type":"joint","library":"std","ports":[],"metadata":{}}],"connections":[]},"metadata":{}}`, ErrNoDefinitionSource},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store, root := newRoot()
			before := store.Membership()

			_, _, err := (&Decoder{}).Decode([]byte(tc.doc), root)

			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, before, store.Membership())
		})
	}
}

type staticSource map[string]*Document

func (s staticSource) Definition(library, typ string) (*Document, error) {
	if doc, ok := s[library+"/"+typ]; ok {
		return doc, nil
	}
	return nil, errors.New("no such definition")
}

func jointDefinition(t *testing.T) *Document {
	t.Helper()
	doc, err := Parse([]byte(`{
		"kind": "definition", "name": "joint", "type": "joint", "library": "std",
		"ports": [
			{"name": "angle", "direction": "input", "type": "float"},
			{"name": "axis", "direction": "input", "type": "vector3"},
			{"name": "out", "direction": "output", "type": "float"}
		],
		"graph": {"nodes": [], "connections": []},
		"metadata": {}
	}`))
	require.NoError(t, err)
	return doc
}

func TestDecode_InstanceExpandsDefinition(t *testing.T) {
	_, root := newRoot()
	dec := &Decoder{Definitions: staticSource{"std/joint": jointDefinition(t)}}
	doc := `{
		"kind": "definition", "name": "Arm", "type": "limb", "library": null,
		"ports": [{"name": "out", "direction": "output", "type": "float"}],
		"graph": {
			"nodes": [{"kind": "instance", "name": "Elbow", "type": "joint", "library": "std",
				"ports": [{"name": "angle", "value": 1.5}, {"name": "axis", "value": [0, 1, 0]}], "metadata": {}}],
			"connections": [["Elbow.out", ".out"]]
		},
		"metadata": {}
	}`

	arm, _, err := dec.Decode([]byte(doc), root)
	require.NoError(t, err)

	elbow, ok := arm.Child("Elbow")
	require.True(t, ok)
	assert.Equal(t, "std", elbow.Library())
	assert.Equal(t, "joint", elbow.Type())
	assert.Len(t, elbow.TopPorts(), 3)

	angle, ok := elbow.Port("angle")
	require.True(t, ok)
	assert.True(t, porttype.Equal(cty.NumberFloatVal(1.5), angle.Get()))
	axis, ok := elbow.Port("axis")
	require.True(t, ok)
	assert.True(t, porttype.Equal(porttype.Vector3.MustFromGo([]float64{0, 1, 0}), axis.Get()))

	encoded, err := (&Encoder{}).Definition(arm)
	require.NoError(t, err)
	require.Len(t, encoded.Graph.Nodes, 1)
	inst := encoded.Graph.Nodes[0]
	assert.Equal(t, KindInstance, inst.Kind)
	assert.Nil(t, inst.Graph)
	require.NotNil(t, inst.Library)
	assert.Equal(t, "std", *inst.Library)
	require.Len(t, inst.Ports, 3)
	assert.JSONEq(t, `1.5`, string(inst.Ports[0].Value))
	assert.JSONEq(t, `[0,1,0]`, string(inst.Ports[1].Value))
	assert.JSONEq(t, `0`, string(inst.Ports[2].Value))
	assert.Equal(t, []ConnectionDoc{{Source: "Elbow.out", Target: ".out"}}, encoded.Graph.Connections)
}

func TestRoundTrip_ConnectedInstancesKeepTheirValues(t *testing.T) {
	// --- Arrange ---
	counter, err := Parse([]byte(`{"kind": "definition", "name": "counter", "type": "counter", "library": "std",
		"ports": [{"name": "in", "direction": "input", "type": "int"}],
		"graph": {"nodes": [], "connections": []}, "metadata": {}}`))
	require.NoError(t, err)
	dec := &Decoder{Definitions: staticSource{"std/joint": jointDefinition(t), "std/counter": counter}}

	_, root := newRoot()
	rigNode, _, err := dec.Decode([]byte(`{"kind": "definition", "name": "Rig", "type": "rig", "library": null, "ports": [],
		"graph": {"nodes": [
			{"kind": "instance", "name": "A", "type": "joint", "library": "std", "ports": [], "metadata": {}},
			{"kind": "instance", "name": "B", "type": "joint", "library": "std", "ports": [], "metadata": {}},
			{"kind": "instance", "name": "C", "type": "counter", "library": "std", "ports": [], "metadata": {}}
		], "connections": []}, "metadata": {}}`), root)
	require.NoError(t, err)

	port := func(n *rig.Node, child, name string) *rig.Port {
		c, ok := n.Child(child)
		require.True(t, ok)
		p, ok := c.Port(name)
		require.True(t, ok)
		return p
	}
	h := command.NewHistory()
	g := rigNode.ChildGraph()
	require.NoError(t, h.Execute(&command.ConnectPorts{Graph: g, Source: port(rigNode, "A", "out"), Target: port(rigNode, "B", "angle")}))
	require.NoError(t, h.Execute(&command.ConnectPorts{Graph: g, Source: port(rigNode, "A", "out"), Target: port(rigNode, "C", "in")}))
	require.NoError(t, h.Execute(&command.SetPortValue{Port: port(rigNode, "A", "out"), Value: cty.NumberFloatVal(0.5)}))
	require.NoError(t, h.Execute(&command.SetPortValue{Port: port(rigNode, "A", "angle"), Value: cty.NumberFloatVal(5)}))

	first, err := (&Encoder{}).Encode(rigNode)
	require.NoError(t, err)

	// --- Act ---
	_, other := newRoot()
	decoded, _, err := dec.Decode(first, other)
	require.NoError(t, err)
	second, err := (&Encoder{}).Encode(decoded)
	require.NoError(t, err)

	// --- Assert ---
	assert.Equal(t, string(first), string(second))
	assert.True(t, porttype.Equal(cty.NumberFloatVal(0.5), port(decoded, "A", "out").Get()))
	assert.True(t, porttype.Equal(cty.NumberFloatVal(0), port(decoded, "B", "angle").Get()))
	assert.True(t, porttype.Equal(cty.NumberIntVal(0), port(decoded, "C", "in").Get()))
	assert.True(t, porttype.Equal(cty.NumberFloatVal(5), port(decoded, "A", "angle").Get()))
	assert.Len(t, decoded.ChildGraph().Connections(), 2)
}

func TestDecode_InstanceValueTypeMismatch(t *testing.T) {
	store, root := newRoot()
	before := store.Membership()
	dec := &Decoder{Definitions: staticSource{"std/joint": jointDefinition(t)}}
	doc := `{"kind": "definition", "name": "Arm", "type": "limb", "library": null, "ports": [],
		"graph": {"nodes": [{"kind": "instance", "name": "Elbow", "type": "joint", "library": "std",
			"ports": [{"name": "axis", "value": [0, 1]}], "metadata": {}}], "connections": []},
		"metadata": {}}`

	_, _, err := dec.Decode([]byte(doc), root)
	assert.ErrorIs(t, err, rig.ErrTypeMismatch)
	assert.Equal(t, before, store.Membership())
}

func TestDecode_SelfReferencingInstanceFails(t *testing.T) {
	_, root := newRoot()
	loop, err := Parse([]byte(`{"kind": "definition", "name": "loop", "type": "loop", "library": "std", "ports": [],
		"graph": {"nodes": [{"kind": "instance", "name": "Again", "type": "loop", "library": "std", "ports": [], "metadata": {}}],
		"connections": []}, "metadata": {}}`))
	require.NoError(t, err)
	dec := &Decoder{Definitions: staticSource{"std/loop": loop}}

	_, _, err = dec.Build(&Document{Kind: KindInstance, Name: "L", Type: "loop", Library: loop.Library, Metadata: Metadata{}}, root)
	assert.ErrorContains(t, err, "nest deeper")
}

type tagExtension struct {
	NopExtension
	key, value string
	decoded    map[string]string
}

func (e *tagExtension) EncodeNode(n *rig.Node) (map[string]any, error) {
	return map[string]any{e.key: e.value + ":" + n.Name()}, nil
}

func (e *tagExtension) EncodeConnection(*rig.Connection) (map[string]any, error) {
	return map[string]any{"weight": 1}, nil
}

func (e *tagExtension) DecodeNode(n *rig.Node, meta Metadata) error {
	var v string
	if raw, ok := meta[e.key]; ok {
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		e.decoded[n.Name()] = v
	}
	return nil
}

func TestExtensions_MergeInOrderLaterWins(t *testing.T) {
	_, root := newRoot()
	n, _, err := (&Decoder{}).Decode([]byte(armDefinition), root)
	require.NoError(t, err)

	first := &tagExtension{key: "tag", value: "first", decoded: map[string]string{}}
	second := &tagExtension{key: "tag", value: "second", decoded: map[string]string{}}
	other := &tagExtension{key: "other", value: "x", decoded: map[string]string{}}
	enc := &Encoder{Extensions: []Extension{first, other, second}}

	doc, err := enc.Definition(n)
	require.NoError(t, err)
	assert.JSONEq(t, `"second:Arm"`, string(doc.Metadata["tag"]))
	assert.JSONEq(t, `"x:Arm"`, string(doc.Metadata["other"]))
	require.Len(t, doc.Graph.Connections, 1)
	assert.JSONEq(t, `1`, string(doc.Graph.Connections[0].Metadata["weight"]))

	data, err := Marshal(doc)
	require.NoError(t, err)

	_, root2 := newRoot()
	dec := &Decoder{Extensions: []Extension{first}}
	_, _, err = dec.Decode(data, root2)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Arm": "second:Arm", "Leg": "second:Leg"}, first.decoded)
}

func TestConnectionDoc_JSON(t *testing.T) {
	var c ConnectionDoc
	require.NoError(t, json.Unmarshal([]byte(`[".in", "Leg.in", {"weight": 2}]`), &c))
	assert.Equal(t, ".in", c.Source)
	assert.Equal(t, "Leg.in", c.Target)
	assert.JSONEq(t, `2`, string(c.Metadata["weight"]))

	out, err := json.Marshal(ConnectionDoc{Source: ".a", Target: "B.c"})
	require.NoError(t, err)
	assert.JSONEq(t, `[".a","B.c"]`, string(out))

	for _, bad := range []string{`{}`, `[]`, `[".a"]`, `[1, 2]`, `[".a", ".b", 3]`} {
		assert.ErrorIs(t, json.Unmarshal([]byte(bad), &c), ErrMalformedConnection, bad)
	}
}

func TestImportExport(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "arm.json")
	require.NoError(t, os.WriteFile(src, []byte(armDefinition), 0o644))
	_, root := newRoot()

	imp := &ImportNode{Path: src, Graph: root}
	require.NoError(t, imp.Do())
	assert.Equal(t, "/Arm", imp.Node().Path())
	assert.Equal(t, command.Done, imp.State())
	assert.ErrorIs(t, imp.Undo(), command.ErrNotUndoable)
	assert.ErrorIs(t, imp.Redo(), command.ErrNotUndoable)
	assert.ErrorIs(t, imp.Do(), command.ErrInvalidTransition)

	dst := filepath.Join(dir, "out.json")
	exp := &ExportNode{Node: imp.Node(), Path: dst}
	require.NoError(t, exp.Do())
	assert.ErrorIs(t, exp.Undo(), command.ErrNotUndoable)

	written, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, armDefinition, string(written))
}

func TestImport_MissingFile(t *testing.T) {
	_, root := newRoot()
	imp := &ImportNode{Path: filepath.Join(t.TempDir(), "missing.json"), Graph: root}

	err := imp.Do()
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, command.Pending, imp.State())
}
