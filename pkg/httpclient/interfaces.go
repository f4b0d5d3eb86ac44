package httpclient

import (
	"context"
	"net/http"
)

// Request describes a single call relative to the client's base URL. An empty Path
// targets the base URL itself.
type Request struct {
	Method  string
	Path    string
	Body    any
	Headers map[string]string
	Cookies []*http.Cookie
}

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	Cookies() []*http.Cookie
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Do(ctx context.Context, req Request) (Response, error)
	BaseURL() string
}
