package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/zkgen/internal/snapshot"
	"github.com/matthewbaird/zkgen/zenkit"
	"github.com/matthewbaird/zkgen/zenkit/zenkittest"
)

const titleUUID = "3b7d1f0a-9c2e-4d51-8a6b-5e4f3c2d1b0a"

var tasks = zenkit.ListInfo{
	List: zenkit.List{ID: 10, ShortID: "tsk", UUID: "list-1", Name: "Tasks"},
	Elements: []zenkit.Element{
		{ID: 100, UUID: titleUUID, Name: "Title", Category: zenkit.CategoryText},
	},
}

func run(t *testing.T, env map[string]string, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := Run(context.Background(), args, Streams{
		Out:    &out,
		Err:    &errOut,
		Getenv: func(k string) string { return env[k] },
	})
	return code, out.String(), errOut.String()
}

func writeSnapshot(t *testing.T) string {
	t.Helper()
	snap := &snapshot.Snapshot{
		Version:   snapshot.Version,
		Workspace: zenkit.Workspace{ID: 1, UUID: "ws-1", Name: "Acme CRM", Lists: []zenkit.List{tasks.List}},
		Lists:     []zenkit.ListInfo{tasks},
	}
	path := filepath.Join(t.TempDir(), "acme.json")
	require.NoError(t, snap.Save(path))
	return path
}

func TestGenerateFromSnapshot(t *testing.T) {
	out := t.TempDir()
	code, stdout, stderr := run(t, nil,
		"--snapshot", writeSnapshot(t),
		"--workspace", "Acme CRM",
		"--output", out,
		"--formatter", "none",
		"--module", "example.com/acme",
	)
	require.Equal(t, 0, code, stderr)

	for _, name := range []string{"tasks_gen.go", "zkgen.go", "go.mod.sample"} {
		assert.FileExists(t, filepath.Join(out, name))
		assert.Contains(t, stdout, filepath.Join(out, name))
	}
	src, err := os.ReadFile(filepath.Join(out, "tasks_gen.go"))
	require.NoError(t, err)
	assert.Contains(t, string(src), "package acmecrm")
	assert.Contains(t, string(src), "func (x *Task) Title() (string, bool)")

	manifest, err := os.ReadFile(filepath.Join(out, "go.mod.sample"))
	require.NoError(t, err)
	assert.Contains(t, string(manifest), "module example.com/acme")
}

func TestGenerateFromAPIWithCache(t *testing.T) {
	srv := zenkittest.New(t)
	srv.AddWorkspace(zenkit.Workspace{ID: 1, UUID: "ws-1", Name: "Acme CRM"})
	srv.AddList(1, tasks)
	env := map[string]string{zenkit.TokenEnv: zenkittest.Token}
	cacheFile := filepath.Join(t.TempDir(), "cache.db")

	for range 2 {
		code, _, stderr := run(t, env,
			"--endpoint", srv.URL(),
			"-w", "Acme CRM",
			"-o", t.TempDir(),
			"--formatter", "none",
			"--cache", cacheFile,
		)
		require.Equal(t, 0, code, stderr)
	}
	assert.Equal(t, 1, srv.Hits("GET /lists/{listID}/elements"), "second run reads the cache")
}

func TestMissingSettings(t *testing.T) {
	code, _, stderr := run(t, nil, "--output", t.TempDir())
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "zkgen: workspace: missing required setting")
	assert.Contains(t, stderr, "hint: pass --workspace")

	code, _, stderr = run(t, nil, "-w", "Acme", "-o", t.TempDir())
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "token")
	assert.Contains(t, stderr, zenkit.TokenEnv)
}

func TestWorkspaceNotFoundHint(t *testing.T) {
	code, _, stderr := run(t, nil,
		"--snapshot", writeSnapshot(t),
		"-w", "Acme CMR",
		"-o", t.TempDir(),
		"--formatter", "none",
	)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "workspace not found")
	assert.Contains(t, stderr, "hint: did you mean 'Acme CRM'?")
}

func TestSnapshotCommand(t *testing.T) {
	srv := zenkittest.New(t)
	srv.AddWorkspace(zenkit.Workspace{ID: 1, UUID: "ws-1", Name: "Acme CRM"})
	srv.AddList(1, tasks)
	path := filepath.Join(t.TempDir(), "snap.json")

	code, _, stderr := run(t, nil, "snapshot",
		"--endpoint", srv.URL(),
		"--token", zenkittest.Token,
		"--workspace", "1",
		"--out", path,
	)
	require.Equal(t, 0, code, stderr)

	snap, err := snapshot.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Acme CRM", snap.Workspace.Name)
	require.Len(t, snap.Lists, 1)
	assert.Equal(t, "Title", snap.Lists[0].Elements[0].Name)

	code, stdout, stderr := run(t, nil, "snapshot",
		"--endpoint", srv.URL(),
		"--token", zenkittest.Token,
		"--workspace", "Acme CRM",
	)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, `"name": "Acme CRM"`)
}

func TestVersionCommand(t *testing.T) {
	code, stdout, _ := run(t, nil, "version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "zkgen ")
}

func TestUnexpectedArgs(t *testing.T) {
	code, _, stderr := run(t, nil, "extra")
	assert.Equal(t, 1, code)
	assert.NotEmpty(t, stderr)
}

func TestCheck(t *testing.T) {
	snap := writeSnapshot(t)
	out := t.TempDir()
	args := []string{"--snapshot", snap, "-w", "Acme CRM", "-o", out, "--formatter", "none"}

	code, stdout, _ := run(t, nil, append([]string{"check"}, args...)...)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "missing tasks_gen.go")
	assert.Contains(t, stdout, "missing zkgen.go")

	code, _, stderr := run(t, nil, args...)
	require.Equal(t, 0, code, stderr)
	code, _, stderr = run(t, nil, append([]string{"check"}, args...)...)
	assert.Equal(t, 0, code, stderr)

	require.NoError(t, os.WriteFile(filepath.Join(out, "zkgen.go"), []byte("package acmecrm\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(out, "people_gen.go"), []byte("package acmecrm\n"), 0o644))
	code, stdout, stderr = run(t, nil, append([]string{"check"}, args...)...)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "stale   zkgen.go")
	assert.Contains(t, stdout, "orphan  people_gen.go")
	assert.Contains(t, stderr, "generated code is out of date")
	assert.Contains(t, stderr, "hint: run zkgen")
}
