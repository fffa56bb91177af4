package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	pkgerrors "codepad/pkg/errors"
)

// Cookie keys for the persisted auth record.
const (
	KeyIsLoggedIn = "isLoggedIn"
	KeyJWTToken   = "jwtToken"
	KeyUserID     = "userId"
	KeyLoginType  = "loginType"
)

// DefaultPath scopes auth cookies to the whole application.
const DefaultPath = "/"

// DefaultExpiry is the auth record lifetime: one year from now.
func DefaultExpiry() time.Time {
	return time.Now().AddDate(1, 0, 0)
}

// Options scope a cookie write or removal. Removal with a path different
// from the one the entry was set with is a silent no-op, so callers must
// pass the same path on both sides.
type Options struct {
	Path      string
	ExpiresAt time.Time
}

// CookieStore persists key-value entries with expiry and path scope.
// Writes from concurrent flows are last-write-wins; callers are expected to
// serialize user-initiated auth actions.
type CookieStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, opts Options) error
	Remove(ctx context.Context, key string, opts Options) error
}

type fileEntry struct {
	Value     string    `json:"value"`
	Path      string    `json:"path"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// FileCookieStore keeps cookies in a JSON file, the same way the platform
// CLI keeps its token state.
type FileCookieStore struct {
	mu   sync.Mutex
	path string
}

func NewFileCookieStore(path string) *FileCookieStore {
	return &FileCookieStore{path: path}
}

func (s *FileCookieStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.load()
	if err != nil {
		return "", false, err
	}
	entry, ok := entries[key]
	if !ok {
		return "", false, nil
	}
	if !entry.ExpiresAt.IsZero() && time.Now().After(entry.ExpiresAt) {
		return "", false, nil
	}
	return entry.Value, true, nil
}

func (s *FileCookieStore) Set(ctx context.Context, key, value string, opts Options) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.load()
	if err != nil {
		return err
	}
	entries[key] = fileEntry{
		Value:     value,
		Path:      normalizePath(opts.Path),
		ExpiresAt: opts.ExpiresAt,
	}
	return s.save(entries)
}

func (s *FileCookieStore) Remove(ctx context.Context, key string, opts Options) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.load()
	if err != nil {
		return err
	}
	entry, ok := entries[key]
	if !ok || entry.Path != normalizePath(opts.Path) {
		return nil
	}
	delete(entries, key)
	return s.save(entries)
}

func (s *FileCookieStore) load() (map[string]fileEntry, error) {
	entries := make(map[string]fileEntry)
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return entries, nil
		}
		return nil, pkgerrors.Wrap(fmt.Errorf("read cookie file failed: %w", err), pkgerrors.CookieReadFailed)
	}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, pkgerrors.Wrap(fmt.Errorf("parse cookie file failed: %w", err), pkgerrors.CookieReadFailed)
	}
	return entries, nil
}

func (s *FileCookieStore) save(entries map[string]fileEntry) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return pkgerrors.Wrap(fmt.Errorf("create cookie dir failed: %w", err), pkgerrors.CookieWriteFailed)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return pkgerrors.Wrap(fmt.Errorf("marshal cookies failed: %w", err), pkgerrors.CookieWriteFailed)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return pkgerrors.Wrap(fmt.Errorf("write cookie file failed: %w", err), pkgerrors.CookieWriteFailed)
	}
	return nil
}

func normalizePath(path string) string {
	if path == "" {
		return DefaultPath
	}
	return path
}
