package staging

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewWorkspaceLayout(t *testing.T) {
	parent := t.TempDir()
	now := time.UnixMilli(1700000000123)

	ws, err := NewWorkspace(parent, now)
	if err != nil {
		t.Fatalf("NewWorkspace returned error: %v", err)
	}
	if ws.Root != filepath.Join(parent, "export-1700000000123") {
		t.Fatalf("unexpected root %q", ws.Root)
	}
	for _, dir := range []string{ws.ClipsDir(), ws.AudioDir()} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
	if ws.ManifestPath() != filepath.Join(ws.Root, "concat.txt") {
		t.Fatalf("unexpected manifest path %q", ws.ManifestPath())
	}
	rel, err := ws.Rel(ws.ClipPath(1))
	if err != nil || rel != "clips/clip_1.mp4" {
		t.Fatalf("unexpected relative clip path %q (%v)", rel, err)
	}
}

func TestNewWorkspaceAvoidsCollisions(t *testing.T) {
	parent := t.TempDir()
	now := time.UnixMilli(5000)

	first, err := NewWorkspace(parent, now)
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewWorkspace(parent, now)
	if err != nil {
		t.Fatal(err)
	}
	if first.Root == second.Root {
		t.Fatalf("expected distinct roots, both %q", first.Root)
	}
	if filepath.Base(second.Root) != "export-5001" {
		t.Fatalf("unexpected second root %q", second.Root)
	}
}

func TestWorkspaceRemoveIsIdempotent(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir(), time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ws.ClipPath(0), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ws.Remove(); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if _, err := os.Stat(ws.Root); !os.IsNotExist(err) {
		t.Fatal("expected workspace to be gone")
	}
	if err := ws.Remove(); err != nil {
		t.Fatalf("second Remove returned error: %v", err)
	}
	var nilWs *Workspace
	if err := nilWs.Remove(); err != nil {
		t.Fatalf("nil Remove returned error: %v", err)
	}
}
