package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// renameIn writes content to a non-settings temp name, then renames it to
// fireline.yaml. The rename is atomic, so the watcher never reads a
// half-written file.
func renameIn(t *testing.T, dir, content string) {
	t.Helper()
	tmp := filepath.Join(dir, "incoming.tmp")
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp: %v", err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, "fireline.yaml")); err != nil {
		t.Fatalf("rename in: %v", err)
	}
}

func TestWatch_DeliversUpdatedTunables(t *testing.T) {
	dir := t.TempDir()
	c, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	w, err := c.Watch()
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer w.Close()

	renameIn(t, dir, "tuning:\n  combat:\n    shot_interval: 0.25\n")

	select {
	case tun := <-w.Updates:
		if tun.ShotInterval != 0.25 {
			t.Fatalf("got shot_interval=%v, want 0.25", tun.ShotInterval)
		}
	case err := <-w.Errors:
		t.Fatalf("watcher error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("no update within 5s of the file change")
	}

	// The live config sees the new value too.
	if got := c.Tunables().ShotInterval; got != 0.25 {
		t.Fatalf("config not re-read in place: shot_interval=%v", got)
	}
}

func TestWatch_MalformedEditReportsError(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, "sim:\n  seed: 7\n")
	c, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	w, err := c.Watch()
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer w.Close()

	renameIn(t, dir, "sim: [unclosed\n")

	select {
	case err := <-w.Errors:
		if err == nil {
			t.Fatal("nil error delivered")
		}
	case tun := <-w.Updates:
		t.Fatalf("malformed file produced an update: %+v", tun)
	case <-time.After(5 * time.Second):
		t.Fatal("no error within 5s of the bad edit")
	}
}

func TestWatch_IgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	c, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	w, err := c.Watch()
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "notes.yaml"), []byte("a: 1\n"), 0o644); err != nil {
		t.Fatalf("write foreign file: %v", err)
	}

	select {
	case tun := <-w.Updates:
		t.Fatalf("foreign file produced an update: %+v", tun)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_CloseIsIdempotent(t *testing.T) {
	c, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	w, err := c.Watch()
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
