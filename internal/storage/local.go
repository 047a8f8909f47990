// Package storage keeps the client's small amount of state: tokens and UI
// preferences on disk, one-shot flags in memory.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

const stateFileName = "state.yaml"

// State is everything Local persists.
type State struct {
	AccessToken       string `yaml:"access_token,omitempty"`
	AdminAccessToken  string `yaml:"admin_access_token,omitempty"`
	AdminRefreshToken string `yaml:"admin_refresh_token,omitempty"`
	SidebarCollapsed  bool   `yaml:"sidebarCollapsed"`
}

// Local is the persistent key/value store, backed by one YAML file. Every
// setter saves immediately.
type Local struct {
	dir string

	mu    sync.Mutex
	state State
}

// OpenLocal loads dir/state.yaml. A missing file yields an empty store; the
// directory is created on the first save.
func OpenLocal(dir string) (*Local, error) {
	l := &Local{dir: dir}
	data, err := os.ReadFile(l.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("reading state: %w", err)
	}
	if err := yaml.Unmarshal(data, &l.state); err != nil {
		return nil, fmt.Errorf("parsing state: %w", err)
	}
	return l, nil
}

// Path returns the full path to the state file.
func (l *Local) Path() string {
	return filepath.Join(l.dir, stateFileName)
}

// Snapshot returns a copy of the stored state.
func (l *Local) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// AccessToken returns the player token.
func (l *Local) AccessToken() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.AccessToken
}

// AdminAccessToken returns the admin token.
func (l *Local) AdminAccessToken() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.AdminAccessToken
}

// SetAccessToken stores the player token.
func (l *Local) SetAccessToken(token string) error {
	return l.update(func(s *State) { s.AccessToken = token })
}

// SetAdminTokens stores the admin access and refresh tokens.
func (l *Local) SetAdminTokens(access, refresh string) error {
	return l.update(func(s *State) {
		s.AdminAccessToken = access
		s.AdminRefreshToken = refresh
	})
}

// ClearTokens removes all three tokens and keeps preferences.
func (l *Local) ClearTokens() error {
	return l.update(func(s *State) {
		s.AccessToken = ""
		s.AdminAccessToken = ""
		s.AdminRefreshToken = ""
	})
}

// SidebarCollapsed returns the saved sidebar preference.
func (l *Local) SidebarCollapsed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.SidebarCollapsed
}

// SetSidebarCollapsed saves the sidebar preference.
func (l *Local) SetSidebarCollapsed(collapsed bool) error {
	return l.update(func(s *State) { s.SidebarCollapsed = collapsed })
}

func (l *Local) update(fn func(*State)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	next := l.state
	fn(&next)
	if err := l.save(next); err != nil {
		return err
	}
	l.state = next
	return nil
}

// save writes st using an atomic temp-file-then-rename pattern.
func (l *Local) save(st State) error {
	if err := os.MkdirAll(l.dir, 0o700); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	tmp, err := os.CreateTemp(l.dir, ".state-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, l.Path()); err != nil {
		return fmt.Errorf("renaming state file: %w", err)
	}
	committed = true
	return nil
}
