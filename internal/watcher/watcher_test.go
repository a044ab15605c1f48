package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileWatcher_EmptyPath(t *testing.T) {
	_, err := NewFileWatcher("", 10*time.Millisecond)
	assert.Error(t, err)
}

func TestNewFileWatcher_MissingDirectory(t *testing.T) {
	_, err := NewFileWatcher(filepath.Join(t.TempDir(), "missing", "tuning.yml"), 10*time.Millisecond)
	assert.Error(t, err)
}

func TestFileWatcher_FiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yml")
	require.NoError(t, os.WriteFile(path, []byte("rules: {}\n"), 0o644))

	fw, err := NewFileWatcher(path, 50*time.Millisecond)
	require.NoError(t, err)
	defer func() { _ = fw.Close() }()

	fired := make(chan string, 8)
	fw.AddHandler(func(p string) { fired <- p })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fw.Start(ctx)

	// Give the watch loop a moment to start before touching the file
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  greeting:\n    enabled: false\n"), 0o644))

	select {
	case p := <-fired:
		assert.Equal(t, filepath.Clean(path), p)
	case <-time.After(3 * time.Second):
		t.Fatal("handler did not fire after file write")
	}
}

func TestFileWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yml")
	require.NoError(t, os.WriteFile(path, []byte("a\n"), 0o644))

	fw, err := NewFileWatcher(path, 150*time.Millisecond)
	require.NoError(t, err)
	defer func() { _ = fw.Close() }()

	fired := make(chan string, 16)
	fw.AddHandler(func(p string) { fired <- p })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fw.Start(ctx)

	time.Sleep(50 * time.Millisecond)
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("burst\n"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	// One invocation for the whole burst
	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("handler did not fire after burst")
	}

	select {
	case <-fired:
		t.Fatal("burst produced more than one handler invocation")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestFileWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yml")
	sibling := filepath.Join(dir, "other.yml")
	require.NoError(t, os.WriteFile(path, []byte("a\n"), 0o644))

	fw, err := NewFileWatcher(path, 50*time.Millisecond)
	require.NoError(t, err)
	defer func() { _ = fw.Close() }()

	fired := make(chan string, 8)
	fw.AddHandler(func(p string) { fired <- p })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fw.Start(ctx)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(sibling, []byte("b\n"), 0o644))

	select {
	case <-fired:
		t.Fatal("handler fired for a sibling file")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestFileWatcher_StopsOnContextCancel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yml")
	require.NoError(t, os.WriteFile(path, []byte("a\n"), 0o644))

	fw, err := NewFileWatcher(path, 10*time.Millisecond)
	require.NoError(t, err)
	defer func() { _ = fw.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		fw.Start(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watch loop did not stop on cancellation")
	}
}
