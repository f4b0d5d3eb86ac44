package storage

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Package storage keeps session cookies between CLI invocations.

// Store persists the session cookies of named profiles.
type Store interface {
	Close() error
	// LoadSession returns nil when the profile has no live session.
	LoadSession(profile string) ([]*http.Cookie, error)
	SaveSession(profile string, cookies []*http.Cookie) error
	DeleteSession(profile string) error
	// Sessions lists live sessions ordered by profile name.
	Sessions() ([]SessionInfo, error)
}

// SessionInfo describes a stored session without exposing its cookies.
type SessionInfo struct {
	Profile   string    `json:"profile" yaml:"profile"`
	Cookies   int       `json:"cookies" yaml:"cookies"`
	ExpiresAt time.Time `json:"expires_at" yaml:"expires_at"`
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	SessionTTL      time.Duration
	CleanupInterval time.Duration
}

const (
	defaultSessionTTL      = 7 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                               { return nil }
func (noopStore) LoadSession(string) ([]*http.Cookie, error) { return nil, nil }
func (noopStore) SaveSession(string, []*http.Cookie) error   { return nil }
func (noopStore) DeleteSession(string) error                 { return nil }
func (noopStore) Sessions() ([]SessionInfo, error)           { return nil, nil }
