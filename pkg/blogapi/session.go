package blogapi

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"golang.org/x/net/publicsuffix"
)

// Session holds the server-issued session cookies of one identity. It is owned by
// the caller and passed to every Client operation; a nil *Session is anonymous.
// A Session is safe for concurrent use.
type Session struct {
	mu   sync.Mutex
	base *url.URL
	jar  *cookiejar.Jar
}

// NewSession creates an empty session scoped to baseURL.
func NewSession(baseURL string) (*Session, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &Session{base: u, jar: jar}, nil
}

// RestoreSession creates a session pre-populated with previously exported cookies.
func RestoreSession(baseURL string, cookies []*http.Cookie) (*Session, error) {
	s, err := NewSession(baseURL)
	if err != nil {
		return nil, err
	}
	if len(cookies) > 0 {
		s.jar.SetCookies(s.base, cookies)
	}
	return s, nil
}

// Cookies returns the cookies that would accompany a request to path.
func (s *Session) Cookies(path string) []*http.Cookie {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jar.Cookies(s.resolve(path))
}

// Export returns the cookies held for the base URL, suitable for persistence.
func (s *Session) Export() []*http.Cookie {
	return s.Cookies("/")
}

// Authenticated reports whether the session holds any cookie.
func (s *Session) Authenticated() bool {
	return len(s.Export()) > 0
}

// Clear drops every cookie held by the session.
func (s *Session) Clear() {
	if s == nil {
		return
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return
	}
	s.mu.Lock()
	s.jar = jar
	s.mu.Unlock()
}

func (s *Session) store(path string, cookies []*http.Cookie) {
	if s == nil || len(cookies) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jar.SetCookies(s.resolve(path), cookies)
}

func (s *Session) resolve(path string) *url.URL {
	return s.base.JoinPath(path)
}
