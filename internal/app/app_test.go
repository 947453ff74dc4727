package app

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/specialistvlad/riggraph/internal/config"
	"github.com/specialistvlad/riggraph/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const limbDefinition = `{
  "kind": "definition",
  "name": "Arm",
  "type": "limb",
  "library": null,
  "ports": [
    {
      "name": "in",
      "direction": "input",
      "type": "float"
    }
  ],
  "graph": {
    "nodes": [
      {
        "kind": "instance",
        "name": "Elbow",
        "type": "joint",
        "library": "std",
        "ports": [
          {
            "name": "in",
            "value": 0
          },
          {
            "name": "out",
            "value": 0
          }
        ],
        "metadata": {}
      }
    ],
    "connections": [
      [
        ".in",
        "Elbow.in"
      ]
    ]
  },
  "metadata": {}
}
`

func newTestApp(t *testing.T) (*App, *testutil.SafeBuffer, string) {
	t.Helper()
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{
		"libs/std/default/joint.json": testutil.Definition("std", "joint"),
		"rigs/arm.json":               limbDefinition,
	})
	cfg := config.Default()
	cfg.LogLevel = "debug"
	cfg.LogFormat = "text"
	cfg.LibraryPaths = []string{filepath.Join(root, "libs")}
	cfg.Relay.Address = "127.0.0.1:0"

	logs := &testutil.SafeBuffer{}
	a, err := New(context.Background(), logs, &cfg)
	require.NoError(t, err)
	return a, logs, root
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.LogFormat = "xml"
	_, err := New(context.Background(), io.Discard, &cfg)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestListLibraries(t *testing.T) {
	a, _, root := newTestApp(t)
	var out bytes.Buffer

	require.NoError(t, a.ListLibraries(&out))

	assert.Contains(t, out.String(), "LIBRARY")
	assert.Regexp(t, `std\s+default\s+joint\s+`+regexp.QuoteMeta(filepath.Join(root, "libs")), out.String())
}

func TestInspect(t *testing.T) {
	a, logs, root := newTestApp(t)
	var out bytes.Buffer

	require.NoError(t, a.Inspect(filepath.Join(root, "rigs", "arm.json"), &out))

	text := out.String()
	assert.Regexp(t, `/Arm\s+limb\s+-`, text)
	assert.Regexp(t, `\.in\s+input\s+float\s+0`, text)
	assert.Contains(t, text, "/Arm.in -> /Arm/Elbow.in")
	assert.Regexp(t, `/Arm/Elbow\s+joint\s+std`, text)
	assert.Contains(t, logs.String(), "Node imported.")
}

func TestRoundtrip(t *testing.T) {
	a, _, root := newTestApp(t)
	path := filepath.Join(root, "rigs", "arm.json")

	var out bytes.Buffer
	require.NoError(t, a.Roundtrip(path, true, &out))
	assert.Equal(t, limbDefinition, out.String())

	compact := filepath.Join(root, "rigs", "compact.json")
	testutil.WriteFiles(t, root, map[string]string{
		"rigs/compact.json": `{"kind": "definition", "name": "Arm", "type": "limb", "library": null, "ports": [], "metadata": {}}`,
	})
	out.Reset()
	err := a.Roundtrip(compact, true, &out)
	assert.ErrorIs(t, err, ErrRoundtripMismatch)
	assert.NotEmpty(t, out.String())

	assert.Error(t, a.Roundtrip(filepath.Join(root, "missing.json"), false, io.Discard))
}

func TestSession_ExportAndSnapshot(t *testing.T) {
	a, _, root := newTestApp(t)
	sess := a.NewSession()
	n, err := sess.Import(filepath.Join(root, "rigs", "arm.json"))
	require.NoError(t, err)

	exported := filepath.Join(root, "exported.json")
	require.NoError(t, sess.Export(n, exported))

	other := a.NewSession()
	again, err := other.Import(exported)
	require.NoError(t, err)
	assert.Equal(t, "Arm", again.Name())

	snap, err := sess.Snapshot()
	require.NoError(t, err)
	assert.Contains(t, string(snap), `"name": "Arm"`)
	assert.True(t, bytes.HasPrefix(snap, []byte("[{")))
}

func TestServe_HealthAndShutdown(t *testing.T) {
	a, _, _ := newTestApp(t)
	sess := a.NewSession()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- a.Serve(ctx, sess, ServeOptions{WatchLibraries: true, Ready: func(addr string) { ready <- addr }})
	}()

	var addr string
	select {
	case addr = <-ready:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + addr + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK\n", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
