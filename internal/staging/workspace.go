package staging

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DirPrefix names every scratch directory this package creates.
const DirPrefix = "export-"

const maxNameAttempts = 16

// Workspace is one run's scratch directory.
type Workspace struct {
	Root string
}

// NewWorkspace creates export-<millis> under parent together with its clips/
// and audio/ subdirectories. If the name is taken the timestamp is bumped
// until a free one is found.
func NewWorkspace(parent string, now time.Time) (*Workspace, error) {
	parent = strings.TrimSpace(parent)
	if parent == "" {
		parent = os.TempDir()
	}
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch root: %w", err)
	}

	millis := now.UnixMilli()
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		root := filepath.Join(parent, DirPrefix+strconv.FormatInt(millis+int64(attempt), 10))
		err := os.Mkdir(root, 0o755)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create scratch directory: %w", err)
		}
		ws := &Workspace{Root: root}
		for _, dir := range []string{ws.ClipsDir(), ws.AudioDir()} {
			if err := os.Mkdir(dir, 0o755); err != nil {
				_ = ws.Remove()
				return nil, fmt.Errorf("create scratch subdirectory: %w", err)
			}
		}
		return ws, nil
	}
	return nil, fmt.Errorf("create scratch directory: no free name after %d attempts", maxNameAttempts)
}

func (w *Workspace) ClipsDir() string { return filepath.Join(w.Root, "clips") }

func (w *Workspace) AudioDir() string { return filepath.Join(w.Root, "audio") }

// ManifestPath is the concat demuxer manifest at the workspace root.
func (w *Workspace) ManifestPath() string { return filepath.Join(w.Root, "concat.txt") }

// SourcePath is where the downloaded source for clip index is stored.
func (w *Workspace) SourcePath(index int) string {
	return filepath.Join(w.ClipsDir(), "source_"+strconv.Itoa(index))
}

// ClipPath is where the normalized clip index is written.
func (w *Workspace) ClipPath(index int) string {
	return filepath.Join(w.ClipsDir(), "clip_"+strconv.Itoa(index)+".mp4")
}

// Path joins name onto the workspace root.
func (w *Workspace) Path(name string) string { return filepath.Join(w.Root, name) }

// Rel returns path relative to the workspace root, using forward slashes.
func (w *Workspace) Rel(path string) (string, error) {
	rel, err := filepath.Rel(w.Root, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// Remove deletes the workspace recursively. A missing directory is not an error.
func (w *Workspace) Remove() error {
	if w == nil || w.Root == "" {
		return nil
	}
	if err := os.RemoveAll(w.Root); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
