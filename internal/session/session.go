// Package session persists the signed-in user and the session cookies
// between taskdeck invocations.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/twiced-technology-gmbh/taskdeck/internal/clierr"
	"github.com/twiced-technology-gmbh/taskdeck/internal/filelock"
)

const fileMode = 0o600

// User identifies the signed-in account.
type User struct {
	ID       int    `yaml:"id" json:"id"`
	Username string `yaml:"username" json:"username"`
}

// Cookie is the persisted part of an HTTP cookie.
type Cookie struct {
	Name    string     `yaml:"name"`
	Value   string     `yaml:"value"`
	Path    string     `yaml:"path,omitempty"`
	Expires *time.Time `yaml:"expires,omitempty"`
}

// Session is the content of the session file.
type Session struct {
	User    *User    `yaml:"user,omitempty"`
	BaseURL string   `yaml:"base_url,omitempty"`
	Cookies []Cookie `yaml:"cookies,omitempty"`
}

// SignedIn reports whether the session holds a user.
func (s Session) SignedIn() bool {
	return s.User != nil
}

// HTTPCookies converts the stored cookies, dropping expired ones.
func (s Session) HTTPCookies(now time.Time) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(s.Cookies))
	for _, c := range s.Cookies {
		if c.Expires != nil && c.Expires.Before(now) {
			continue
		}
		hc := &http.Cookie{Name: c.Name, Value: c.Value, Path: c.Path}
		if c.Expires != nil {
			hc.Expires = *c.Expires
		}
		out = append(out, hc)
	}
	return out
}

// FromHTTP converts cookies taken from a jar. Jars do not report expiry,
// so persisted cookies live until the server rejects them.
func FromHTTP(cookies []*http.Cookie) []Cookie {
	out := make([]Cookie, 0, len(cookies))
	for _, c := range cookies {
		pc := Cookie{Name: c.Name, Value: c.Value, Path: c.Path}
		if !c.Expires.IsZero() {
			exp := c.Expires
			pc.Expires = &exp
		}
		out = append(out, pc)
	}
	return out
}

// Store reads and writes the session file. It also serves as the
// authenticated-user accessor for the rest of the program.
type Store struct {
	path string

	mu      sync.RWMutex
	current Session
}

// NewStore returns a Store for the session file at path. Nothing is read
// until Load.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the session file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the session file. A missing file is an empty session.
func (s *Store) Load() (Session, error) {
	var sess Session
	err := filelock.With(s.path, func() error {
		data, err := os.ReadFile(s.path)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading session: %w", err)
		}
		if err := yaml.Unmarshal(data, &sess); err != nil {
			return fmt.Errorf("parsing session: %w", err)
		}
		return nil
	})
	if err != nil {
		return Session{}, err
	}
	s.set(sess)
	return sess, nil
}

// Save replaces the session file atomically.
func (s *Store) Save(sess Session) error {
	data, err := yaml.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	err = filelock.With(s.path, func() error {
		tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
		if err != nil {
			return fmt.Errorf("writing session: %w", err)
		}
		defer os.Remove(tmp.Name()) //nolint:errcheck // gone after rename

		if _, err := tmp.Write(data); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("writing session: %w", err)
		}
		if err := tmp.Chmod(fileMode); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("writing session: %w", err)
		}
		if err := tmp.Close(); err != nil {
			return fmt.Errorf("writing session: %w", err)
		}
		return os.Rename(tmp.Name(), s.path)
	})
	if err != nil {
		return err
	}
	s.set(sess)
	return nil
}

// Clear signs out locally by removing the session file.
func (s *Store) Clear() error {
	err := filelock.With(s.path, func() error {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing session: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.set(Session{})
	return nil
}

// Current returns the session as last loaded or saved.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// CurrentUser returns the signed-in user as last loaded or saved.
func (s *Store) CurrentUser() (User, bool) {
	cur := s.Current()
	if cur.User == nil {
		return User{}, false
	}
	return *cur.User, true
}

// RequireUser returns the signed-in user or a NOT_AUTHENTICATED error.
func (s *Store) RequireUser() (User, error) {
	u, ok := s.CurrentUser()
	if !ok {
		return User{}, clierr.New(clierr.NotAuthenticated, "not logged in (run 'taskdeck login')")
	}
	return u, nil
}

func (s *Store) set(sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = sess
}
