package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Workspace is a scratch directory owned by a single compilation run.
type Workspace struct {
	runID string
	dir   string
}

// NewWorkspace creates a fresh directory under baseDir. An empty baseDir
// means os.TempDir().
func NewWorkspace(baseDir string) (*Workspace, error) {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}

	runID := uuid.NewString()
	dir := filepath.Join(baseDir, "clipmix-"+runID)
	if err := os.Mkdir(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{runID: runID, dir: dir}, nil
}

func (w *Workspace) RunID() string { return w.runID }

func (w *Workspace) Dir() string { return w.dir }

// Close removes the workspace and everything left in it.
func (w *Workspace) Close() error {
	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("remove workspace %s: %w", w.dir, err)
	}
	return nil
}
