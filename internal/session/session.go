// Package session persists who the user is signed in as: the demo workspace
// or a Google account. Sessions expire after a fixed validity period.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"time"
)

// Mode selects the task provider.
type Mode string

const (
	ModeDemo   Mode = "demo"
	ModeRemote Mode = "remote"
)

// DefaultValidity is how long a session lasts unless configured otherwise.
const DefaultValidity = 7 * 24 * time.Hour

// ErrNoSession is returned when nobody is signed in.
var ErrNoSession = errors.New("not signed in (run: taskflow login or taskflow demo)")

// Session is the persisted sign-in state.
type Session struct {
	Mode      Mode      `json:"mode"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Demo reports whether the session uses the local demo workspace.
func (s Session) Demo() bool {
	return s.Mode == ModeDemo
}

// Manager reads and writes session.json.
type Manager struct {
	path     string
	validity time.Duration
	now      func() time.Time
}

// NewManager creates a Manager for the file at path.
func NewManager(path string, validity time.Duration) *Manager {
	if validity <= 0 {
		validity = DefaultValidity
	}
	return &Manager{path: path, validity: validity, now: time.Now}
}

// Load returns the current session. A missing, unreadable or expired
// session file is removed and reported as ErrNoSession.
func (m *Manager) Load() (Session, error) {
	data, err := os.ReadFile(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to read session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil || (s.Mode != ModeDemo && s.Mode != ModeRemote) {
		_ = m.Clear()
		return Session{}, ErrNoSession
	}
	if !m.now().Before(s.ExpiresAt) {
		_ = m.Clear()
		return Session{}, ErrNoSession
	}
	return s, nil
}

// Start writes a new session for mode.
func (m *Manager) Start(mode Mode, email string) (Session, error) {
	now := m.now()
	s := Session{
		Mode:      mode,
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(m.validity),
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return Session{}, err
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0700); err != nil {
		return Session{}, err
	}
	if err := os.WriteFile(m.path, data, 0600); err != nil {
		return Session{}, fmt.Errorf("failed to write session: %w", err)
	}
	return s, nil
}

// Clear removes the session file. A missing file is not an error.
func (m *Manager) Clear() error {
	err := os.Remove(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// DaysLeft returns the whole days remaining before s expires, rounded up.
func (m *Manager) DaysLeft(s Session) int {
	left := s.ExpiresAt.Sub(m.now())
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Hours() / 24))
}
