package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/nbharness/internal/logfields"
)

// Manager owns one staging directory.
type Manager struct {
	baseDir string
	prefix  string
	dir     string
}

// NewManager creates a manager that stages under baseDir (the system temp
// directory when empty). prefix becomes part of the directory name.
func NewManager(baseDir, prefix string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if prefix == "" {
		prefix = "run"
	}
	return &Manager{baseDir: baseDir, prefix: prefix}
}

// Create makes a fresh, uniquely named staging directory.
func (m *Manager) Create() error {
	if m.dir != "" {
		return fmt.Errorf("workspace already created at %s", m.dir)
	}
	dir, err := os.MkdirTemp(m.baseDir, "nbharness-"+m.prefix+"-")
	if err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}
	m.dir = dir
	slog.Debug("Created workspace", logfields.Path(dir))
	return nil
}

// Path returns the staging directory, or "" before Create.
func (m *Manager) Path() string {
	return m.dir
}

// File returns the path of name inside the staging directory.
func (m *Manager) File(name string) string {
	return filepath.Join(m.dir, name)
}

// Cleanup removes the staging directory and everything in it. It is safe to
// call more than once.
func (m *Manager) Cleanup() error {
	if m.dir == "" {
		return nil
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("failed to cleanup workspace: %w", err)
	}
	slog.Debug("Cleaned up workspace", logfields.Path(m.dir))
	m.dir = ""
	return nil
}
