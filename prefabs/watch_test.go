package prefabs

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReportsDefinitionChanges(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "move.tengo"), []byte("p.speed > 1"), 0o644))

	select {
	case c := <-w.Changes:
		assert.Equal(t, "move.tengo", filepath.Base(c.Path))
		assert.True(t, c.Script)
	case err := <-w.Errors:
		t.Fatalf("watcher error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		path   string
		ok     bool
		script bool
	}{
		{"a/humanoid.yaml", true, false},
		{"a/humanoid.YML", true, false},
		{"a/scripts/land.tengo", true, true},
		{"a/readme.md", false, false},
	}
	for _, c := range cases {
		change, ok := classify(c.path)
		assert.Equal(t, c.ok, ok, c.path)
		assert.Equal(t, c.script, change.Script, c.path)
	}
}

func TestWatcherCoalescesBurst(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)
	defer w.Close()

	path := filepath.Join(dir, "humanoid.yaml")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("name: v%d\n", i)), 0o644))
	}

	select {
	case c := <-w.Changes:
		assert.Equal(t, path, c.Path)
		assert.False(t, c.Script)
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}
	select {
	case c := <-w.Changes:
		t.Fatalf("burst reported twice: %+v", c)
	case <-time.After(3 * Debounce):
	}
}

func TestWatcherCloseClosesChannels(t *testing.T) {
	w, err := NewWatcher(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	select {
	case _, ok := <-w.Changes:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("changes channel not closed")
	}
}
