package publishers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestHTTPPublisher(t *testing.T, url string, headers map[string]string) Publisher {
	t.Helper()
	pub, err := newHTTPPublisher(context.Background(), PublisherConfig{
		ID:   "hook",
		Type: TypeHTTP,
		HTTP: &HTTPPublisherConfig{
			URL:            url,
			Method:         http.MethodPut,
			Headers:        headers,
			TimeoutSeconds: 2,
		},
	}, nil)
	if err != nil {
		t.Fatalf("newHTTPPublisher: %v", err)
	}
	return pub
}

func TestHTTPPublisherDeliversEventWithHeaders(t *testing.T) {
	type seen struct {
		method, auth, eventID, action, contentType string
		evt                                        Event
	}
	got := make(chan seen, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := seen{
			method:      r.Method,
			auth:        r.Header.Get("Authorization"),
			eventID:     r.Header.Get(headerEventID),
			action:      r.Header.Get(headerEventAction),
			contentType: r.Header.Get("Content-Type"),
		}
		_ = json.NewDecoder(r.Body).Decode(&s.evt)
		got <- s
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	pub := newTestHTTPPublisher(t, srv.URL, map[string]string{"Authorization": "Bearer t0k"})
	evt := NewEvent(ActionCommentDelete, "default", "comment", 5, nil)
	if err := pub.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	s := <-got
	if s.method != http.MethodPut || s.auth != "Bearer t0k" || s.contentType != "application/json" {
		t.Fatalf("unexpected request %+v", s)
	}
	if s.eventID != evt.ID || s.action != ActionCommentDelete {
		t.Fatalf("event headers = %q %q", s.eventID, s.action)
	}
	if s.evt.ID != evt.ID || s.evt.ResourceID != 5 {
		t.Fatalf("body = %+v", s.evt)
	}
}

func TestHTTPPublisherErrorOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	pub := newTestHTTPPublisher(t, srv.URL, nil)
	if err := pub.Publish(context.Background(), NewEvent(ActionLogin, "default", "", 0, nil)); err == nil {
		t.Fatalf("expected error on non-2xx response")
	}
}
