// Package auth owns credential persistence for the session flow: a
// short-lived access token kept in memory (cookie-like) and a long-lived
// refresh token kept in a file. The containers only talk to the Tokens
// interface.
package auth

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// fallbackAccessTTL is used when the access token is not a JWT or carries no
// exp claim. Matches the ~20 minute cookie life of the original client.
const fallbackAccessTTL = 20 * time.Minute

type Tokens interface {
	// Access returns the access token if one is stored and not expired.
	Access() (string, bool)
	// Refresh returns the persisted refresh token, if any.
	Refresh() (string, bool)
	// Save stores both tokens. An empty access or refresh token clears the
	// corresponding slot.
	Save(access, refresh string) error
	// Clear drops both tokens.
	Clear() error
}

// accessExpiry extracts the exp claim from a (possibly "Bearer "-prefixed)
// JWT without verifying the signature. The client has no signing key; it only
// needs to know when to stop sending the token.
func accessExpiry(token string, now time.Time) time.Time {
	raw := strings.TrimPrefix(token, "Bearer ")

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err == nil {
		if claims.ExpiresAt != nil {
			return claims.ExpiresAt.Time
		}
	}

	return now.Add(fallbackAccessTTL)
}

// FileStore keeps the access token in memory with its expiry and the refresh
// token in a file with 0600 permissions.
type FileStore struct {
	mu        sync.Mutex
	path      string
	access    string
	expiresAt time.Time
	now       func() time.Time
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

func (s *FileStore) Access() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.access == "" || !s.now().Before(s.expiresAt) {
		return "", false
	}
	return s.access, true
}

func (s *FileStore) Refresh() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", s.path).Msg("auth: failed to read refresh token")
		}
		return "", false
	}

	token := strings.TrimSpace(string(data))
	return token, token != ""
}

func (s *FileStore) Save(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.access = access
	if access != "" {
		s.expiresAt = accessExpiry(access, s.now())
	}

	if refresh == "" {
		return s.removeRefreshLocked()
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return os.WriteFile(s.path, []byte(refresh), 0o600)
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.access = ""
	s.expiresAt = time.Time{}
	return s.removeRefreshLocked()
}

func (s *FileStore) removeRefreshLocked() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Memory is a Tokens implementation for tests and short-lived processes.
type Memory struct {
	mu        sync.Mutex
	access    string
	refresh   string
	expiresAt time.Time
	now       func() time.Time
}

func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

func (m *Memory) Access() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.access == "" || !m.now().Before(m.expiresAt) {
		return "", false
	}
	return m.access, true
}

func (m *Memory) Refresh() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refresh, m.refresh != ""
}

func (m *Memory) Save(access, refresh string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.access = access
	if access != "" {
		m.expiresAt = accessExpiry(access, m.now())
	}
	m.refresh = refresh
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.access = ""
	m.refresh = ""
	m.expiresAt = time.Time{}
	return nil
}
