// Package install writes, backs up, and removes the generated hook
// scripts occupying the version-control tool's event slots.
//
// Slot lifecycle: ABSENT → INSTALLED → (BACKED_UP on overwrite) →
// REMOVED → RESTORED from the latest backup, or ABSENT. Deletion only
// touches scripts carrying this framework's ownership marker; anything
// else is somebody's hand-written hook and stays untouched. Backups are
// never pruned here.
package install

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/rs/zerolog/log"
)

// Marker identifies scripts written by this framework. Remove refuses to
// delete any file that does not contain it.
const Marker = "hookwise-managed hook"

// ErrNotManaged is returned when removal is refused because the installed
// script lacks the ownership marker.
var ErrNotManaged = errors.New("installed script is not managed by hookwise")

//go:embed script.sh.tmpl
var scriptFS embed.FS

var scriptTmpl = template.Must(template.ParseFS(scriptFS, "script.sh.tmpl"))

// Manager installs generated scripts into one hooks directory.
type Manager struct {
	dir string

	// now stamps backup suffixes; replaceable in tests.
	now func() time.Time
}

// NewManager returns a manager rooted at the given hooks directory.
func NewManager(dir string) *Manager {
	return &Manager{dir: dir, now: time.Now}
}

// Dir returns the hooks directory the manager writes into.
func (m *Manager) Dir() string { return m.dir }

// ScriptPath returns the slot path for an event.
func (m *Manager) ScriptPath(event string) string {
	return filepath.Join(m.dir, event)
}

// Script renders the generated shell stub for an event.
func Script(event string) string {
	var buf bytes.Buffer
	// The template is embedded and vetted; execution cannot fail on a
	// plain string field.
	_ = scriptTmpl.Execute(&buf, struct{ Event string }{Event: event})
	return buf.String()
}

// IsManaged reports whether the file at path carries the ownership
// marker. A missing or unreadable file is not managed.
func IsManaged(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return strings.Contains(string(data), Marker)
}

// Installed reports whether the event slot holds one of our scripts.
func (m *Manager) Installed(event string) bool {
	return IsManaged(m.ScriptPath(event))
}

// Install writes the generated script into the event slot, backing up any
// pre-existing foreign file first.
//
// A pre-existing non-symlink file with nonzero size that lacks our marker
// is copied to a uniquely timestamped backup before being overwritten.
// Re-installing over our own script just rewrites it, so repeated setup
// runs stay idempotent and do not accumulate backups.
func (m *Manager) Install(event string) error {
	if err := os.MkdirAll(m.dir, 0750); err != nil {
		return fmt.Errorf("failed to create hooks directory: %w", err)
	}

	path := m.ScriptPath(event)
	if info, err := os.Lstat(path); err == nil {
		needsBackup := info.Mode().IsRegular() && info.Size() > 0 && !IsManaged(path)
		if needsBackup {
			backup, err := m.backup(path)
			if err != nil {
				return err
			}
			log.Info().
				Str("event", event).
				Str("backup", backup).
				Msg("existing hook script backed up")
		}
	}

	if err := os.WriteFile(path, []byte(Script(event)), 0700); err != nil {
		return fmt.Errorf("failed to write hook script: %w", err)
	}
	if err := os.Chmod(path, 0755); err != nil {
		return fmt.Errorf("failed to mark hook script executable: %w", err)
	}
	log.Debug().Str("event", event).Str("path", path).Msg("hook script installed")
	return nil
}

// backup copies path to <path>.bak.<epoch-ms>. An existing backup is
// never overwritten; the suffix is bumped until a free name is found.
func (m *Manager) backup(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read existing hook script: %w", err)
	}

	ms := m.now().UnixMilli()
	for {
		backup := fmt.Sprintf("%s.bak.%013d", path, ms)
		if _, err := os.Lstat(backup); err == nil {
			ms++
			continue
		}
		if err := os.WriteFile(backup, data, 0600); err != nil {
			return "", fmt.Errorf("failed to write backup: %w", err)
		}
		return backup, nil
	}
}

// Backups returns the backup paths recorded for an event slot, sorted so
// the lexicographically-latest (newest timestamp) comes last.
func (m *Manager) Backups(event string) []string {
	matches, err := filepath.Glob(m.ScriptPath(event) + ".bak.*")
	if err != nil {
		return nil
	}
	sort.Strings(matches)
	return matches
}

// Remove deletes the event slot's script if it is ours and restores the
// latest backup when one exists. It returns false without touching disk
// when the slot is empty or holds a script lacking the ownership marker.
func (m *Manager) Remove(event string) (bool, error) {
	path := m.ScriptPath(event)
	if _, err := os.Lstat(path); err != nil {
		return false, nil
	}
	if !IsManaged(path) {
		log.Warn().
			Str("event", event).
			Str("path", path).
			Msg("refusing to remove unmanaged hook script")
		return false, ErrNotManaged
	}

	if err := os.Remove(path); err != nil {
		return false, fmt.Errorf("failed to remove hook script: %w", err)
	}

	backups := m.Backups(event)
	if len(backups) == 0 {
		log.Debug().Str("event", event).Msg("hook script removed, slot left absent")
		return true, nil
	}

	latest := backups[len(backups)-1]
	if err := m.restore(latest, path); err != nil {
		return true, err
	}
	log.Info().
		Str("event", event).
		Str("backup", latest).
		Msg("hook script removed, latest backup restored")
	return true, nil
}

// restore copies the backup back into the slot and re-marks it executable.
// The backup file itself stays in place.
func (m *Manager) restore(backup, path string) error {
	data, err := os.ReadFile(backup)
	if err != nil {
		return fmt.Errorf("failed to read backup %s: %w", backup, err)
	}
	if err := os.WriteFile(path, data, 0700); err != nil {
		return fmt.Errorf("failed to restore backup %s: %w", backup, err)
	}
	if err := os.Chmod(path, 0755); err != nil {
		return fmt.Errorf("failed to mark restored script executable: %w", err)
	}
	return nil
}
