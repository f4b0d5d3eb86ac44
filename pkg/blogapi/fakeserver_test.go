package blogapi

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-blog-client/internal/domain"
	"github.com/samvad-hq/samvad-blog-client/pkg/httpclient"
)

const sessionCookie = "sid"

// fakeBlogServer is an in-memory stand-in for the blog API.
type fakeBlogServer struct {
	mu       sync.Mutex
	users    map[string]*fakeUser
	sessions map[string]int64
	blogs    map[int64]*domain.Blog
	comments map[int64]*domain.Comment
	nextID   int64
	clock    time.Time
	hits     atomic.Int64
	srv      *httptest.Server
}

type fakeUser struct {
	domain.User
	password string
}

func newFakeBlogServer(t *testing.T) *fakeBlogServer {
	t.Helper()
	f := &fakeBlogServer{
		users:    map[string]*fakeUser{},
		sessions: map[string]int64{},
		blogs:    map[int64]*domain.Blog{},
		comments: map[int64]*domain.Comment{},
		nextID:   100,
		clock:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	f.addUser("alice", "correct", domain.RoleUser)
	f.addUser("bob", "secret", domain.RoleAdmin)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", f.login)
	mux.HandleFunc("POST /register", f.register)
	mux.HandleFunc("POST /logout", f.logout)
	mux.HandleFunc("GET /user/me", f.me)
	mux.HandleFunc("GET /users", f.listUsers)
	mux.HandleFunc("GET /blogs", f.listBlogs)
	mux.HandleFunc("POST /blogs", f.createBlog)
	mux.HandleFunc("GET /blogs/{id}", f.getBlog)
	mux.HandleFunc("GET /blogs/{id}/comments", f.listComments)
	mux.HandleFunc("POST /blogs/{id}/comments", f.createComment)
	mux.HandleFunc("DELETE /comments/{id}", f.deleteComment)

	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeBlogServer) client(t *testing.T) *Client {
	t.Helper()
	c, err := New(httpclient.NewRestyClient(f.srv.URL, 2*time.Second), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func (f *fakeBlogServer) addUser(username, password string, role domain.Role) *fakeUser {
	f.nextID++
	now := f.tick()
	u := &fakeUser{
		User: domain.User{
			ID:        f.nextID,
			Username:  username,
			Email:     username + "@example.com",
			FirstName: strings.ToUpper(username[:1]) + username[1:],
			Role:      role,
			IsActive:  true,
			CreatedAt: domain.NewTimestamp(now),
			UpdatedAt: domain.NewTimestamp(now),
		},
		password: password,
	}
	f.users[username] = u
	return u
}

func (f *fakeBlogServer) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeBlogServer) commentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.comments)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// currentUser must be called with f.mu held.
func (f *fakeBlogServer) currentUser(r *http.Request) *fakeUser {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil
	}
	id, ok := f.sessions[c.Value]
	if !ok {
		return nil
	}
	for _, u := range f.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil
}

func (f *fakeBlogServer) login(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeMessage(w, http.StatusBadRequest, "malformed body")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[creds.Username]
	if !ok || u.password != creds.Password {
		writeMessage(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	sid := hex.EncodeToString(buf)
	f.sessions[sid] = u.ID
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: sid, Path: "/", HttpOnly: true})
	w.WriteHeader(http.StatusOK)
}

func (f *fakeBlogServer) register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "malformed body")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
		writeMessage(w, http.StatusBadRequest, "all fields are required")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.users[req.Username]; exists {
		writeMessage(w, http.StatusConflict, "username already taken")
		return
	}
	u := f.addUser(req.Username, req.Password, domain.RoleUser)
	u.Email = req.Email
	u.LastName = req.LastName
	w.WriteHeader(http.StatusCreated)
}

func (f *fakeBlogServer) logout(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "no session")
		return
	}
	if _, ok := f.sessions[c.Value]; !ok {
		writeMessage(w, http.StatusUnauthorized, "no session")
		return
	}
	delete(f.sessions, c.Value)
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusOK)
}

func (f *fakeBlogServer) me(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.currentUser(r)
	if u == nil {
		writeMessage(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, u.User)
}

func (f *fakeBlogServer) listUsers(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.currentUser(r)
	if u == nil {
		writeMessage(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if u.Role != domain.RoleAdmin {
		writeMessage(w, http.StatusForbidden, "admin only")
		return
	}
	out := make([]domain.User, 0, len(f.users))
	for _, name := range []string{"alice", "bob"} {
		out = append(out, f.users[name].User)
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *fakeBlogServer) listBlogs(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Blog, 0, len(f.blogs))
	for id := int64(0); id <= f.nextID; id++ {
		if b, ok := f.blogs[id]; ok {
			out = append(out, *b)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *fakeBlogServer) createBlog(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateBlogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "malformed body")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.currentUser(r)
	if u == nil {
		writeMessage(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if req.Title == "" || req.Content == "" {
		writeMessage(w, http.StatusBadRequest, "title and content are required")
		return
	}
	if req.Tags == nil {
		writeMessage(w, http.StatusBadRequest, "tags must be an array")
		return
	}
	f.nextID++
	now := f.tick()
	b := &domain.Blog{
		ID:        f.nextID,
		Title:     req.Title,
		Content:   req.Content,
		AuthorID:  u.ID,
		Author:    domain.AuthorSummary{Username: u.Username},
		Tags:      []domain.Tag{},
		CreatedAt: domain.NewTimestamp(now),
		UpdatedAt: domain.NewTimestamp(now),
	}
	for _, name := range req.Tags {
		f.nextID++
		b.Tags = append(b.Tags, domain.Tag{ID: f.nextID, Name: name, BlogID: b.ID})
	}
	f.blogs[b.ID] = b
	writeJSON(w, http.StatusCreated, b)
}

func (f *fakeBlogServer) getBlog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	f.mu.Lock()
	defer f.mu.Unlock()
	b, found := f.blogs[id]
	if !ok || !found {
		writeMessage(w, http.StatusNotFound, "blog not found")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (f *fakeBlogServer) listComments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, found := f.blogs[id]; !ok || !found {
		writeMessage(w, http.StatusNotFound, "blog not found")
		return
	}
	out := make([]domain.Comment, 0)
	for cid := int64(0); cid <= f.nextID; cid++ {
		if c, ok := f.comments[cid]; ok && c.BlogID == id {
			out = append(out, *c)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *fakeBlogServer) createComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	var req domain.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "malformed body")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.currentUser(r)
	if u == nil {
		writeMessage(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if _, found := f.blogs[id]; !ok || !found {
		writeMessage(w, http.StatusNotFound, "blog not found")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeMessage(w, http.StatusBadRequest, "content is required")
		return
	}
	f.nextID++
	now := f.tick()
	c := &domain.Comment{
		ID:        f.nextID,
		Content:   req.Content,
		AuthorID:  u.ID,
		BlogID:    id,
		CreatedAt: domain.NewTimestamp(now),
		UpdatedAt: domain.NewTimestamp(now),
		Author:    domain.AuthorSummary{Username: u.Username},
	}
	f.comments[c.ID] = c
	writeJSON(w, http.StatusCreated, c)
}

func (f *fakeBlogServer) deleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.currentUser(r)
	if u == nil {
		writeMessage(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	c, found := f.comments[id]
	if !ok || !found {
		writeMessage(w, http.StatusNotFound, "comment not found")
		return
	}
	if c.AuthorID != u.ID {
		writeMessage(w, http.StatusForbidden, "not your comment")
		return
	}
	delete(f.comments, id)
	w.WriteHeader(http.StatusNoContent)
}
