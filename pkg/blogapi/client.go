package blogapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/samvad-hq/samvad-blog-client/internal/domain"
	"github.com/samvad-hq/samvad-blog-client/pkg/httpclient"
)

// Logger defines the logging surface the client relies on.
type Logger interface {
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{})  {}

// Client exposes one method per blog API endpoint. Each method performs exactly one
// request and returns the decoded body or an *Error. Client holds no per-caller
// state; identity travels in the *Session argument.
type Client struct {
	http httpclient.Client
	log  Logger
}

// New wraps an HTTP transport rooted at the blog API base URL.
func New(hc httpclient.Client, log Logger) (*Client, error) {
	if hc == nil {
		return nil, fmt.Errorf("http client must not be nil")
	}
	if log == nil {
		log = noopLogger{}
	}
	return &Client{http: hc, log: log}, nil
}

// NewSession creates an empty session for this client's base URL.
func (c *Client) NewSession() (*Session, error) {
	return NewSession(c.http.BaseURL())
}

// RestoreSession creates a session from previously exported cookies.
func (c *Client) RestoreSession(cookies []*http.Cookie) (*Session, error) {
	return RestoreSession(c.http.BaseURL(), cookies)
}

// Login authenticates credentials. On success the server's session cookies are kept in sess.
func (c *Client) Login(ctx context.Context, sess *Session, creds domain.Credentials) error {
	_, err := c.send(ctx, sess, "login", http.MethodPost, "/login", creds)
	return err
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, sess *Session, req domain.RegistrationRequest) error {
	_, err := c.send(ctx, sess, "register", http.MethodPost, "/register", req)
	return err
}

// Logout ends the server-side session and clears sess. A 401 means the server had
// already dropped the session and is not reported.
func (c *Client) Logout(ctx context.Context, sess *Session) error {
	defer sess.Clear()
	_, err := c.send(ctx, sess, "logout", http.MethodPost, "/logout", struct{}{})
	if IsAuth(err) {
		c.log.DebugObj("logout on expired session", "blogapi_logout", map[string]any{
			"status": StatusCode(err),
		})
		return nil
	}
	return err
}

// CurrentUser returns the user the session is logged in as.
func (c *Client) CurrentUser(ctx context.Context, sess *Session) (*domain.User, error) {
	return getOne[domain.User](ctx, c, sess, "current_user", "/user/me")
}

// ListUsers returns every account. The server restricts it to privileged roles.
func (c *Client) ListUsers(ctx context.Context, sess *Session) ([]domain.User, error) {
	return getList[domain.User](ctx, c, sess, "list_users", "/users")
}

// ListBlogs returns all blogs. No session is required.
func (c *Client) ListBlogs(ctx context.Context, sess *Session) ([]domain.Blog, error) {
	return getList[domain.Blog](ctx, c, sess, "list_blogs", "/blogs")
}

// GetBlog returns one blog by id.
func (c *Client) GetBlog(ctx context.Context, sess *Session, id int64) (*domain.Blog, error) {
	return getOne[domain.Blog](ctx, c, sess, "get_blog", fmt.Sprintf("/blogs/%d", id))
}

// CreateBlog creates a blog owned by the session's user and returns it as stored.
func (c *Client) CreateBlog(ctx context.Context, sess *Session, req domain.CreateBlogRequest) (*domain.Blog, error) {
	if req.Tags == nil {
		req.Tags = []string{}
	}
	return postOne[domain.Blog](ctx, c, sess, "create_blog", "/blogs", req)
}

// ListComments returns the comments on a blog in server order.
func (c *Client) ListComments(ctx context.Context, sess *Session, blogID int64) ([]domain.Comment, error) {
	return getList[domain.Comment](ctx, c, sess, "list_comments", fmt.Sprintf("/blogs/%d/comments", blogID))
}

// CreateComment adds a comment by the session's user to a blog.
func (c *Client) CreateComment(ctx context.Context, sess *Session, blogID int64, req domain.CreateCommentRequest) (*domain.Comment, error) {
	return postOne[domain.Comment](ctx, c, sess, "create_comment", fmt.Sprintf("/blogs/%d/comments", blogID), req)
}

// DeleteComment removes a comment. The server allows only its author to do so.
func (c *Client) DeleteComment(ctx context.Context, sess *Session, commentID int64) error {
	_, err := c.send(ctx, sess, "delete_comment", http.MethodDelete, fmt.Sprintf("/comments/%d", commentID), nil)
	return err
}

func getOne[T any](ctx context.Context, c *Client, sess *Session, op, path string) (*T, error) {
	body, err := c.send(ctx, sess, op, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	out, err := decodeOne[T](body)
	if err != nil {
		return nil, c.deserializationError(op, http.MethodGet, path, body, err)
	}
	return out, nil
}

func getList[T any](ctx context.Context, c *Client, sess *Session, op, path string) ([]T, error) {
	body, err := c.send(ctx, sess, op, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	out, err := decodeList[T](body)
	if err != nil {
		return nil, c.deserializationError(op, http.MethodGet, path, body, err)
	}
	return out, nil
}

func postOne[T any](ctx context.Context, c *Client, sess *Session, op, path string, payload any) (*T, error) {
	body, err := c.send(ctx, sess, op, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}
	out, err := decodeOne[T](body)
	if err != nil {
		return nil, c.deserializationError(op, http.MethodPost, path, body, err)
	}
	return out, nil
}

// send performs one request and returns the 2xx body. Cookies set by the server are
// stored in sess whatever the status.
func (c *Client) send(ctx context.Context, sess *Session, op, method, path string, payload any) ([]byte, error) {
	start := time.Now()
	resp, err := c.http.Do(ctx, httpclient.Request{
		Method:  method,
		Path:    path,
		Body:    payload,
		Cookies: sess.Cookies(path),
	})
	if err != nil {
		kind := classifyTransport(ctx, err)
		c.log.WarnObj("blog api request failed", "blogapi_request", map[string]any{
			"op":    op,
			"path":  path,
			"kind":  kind.String(),
			"error": err.Error(),
		})
		return nil, &Error{Kind: kind, Op: op, Method: method, Path: path, Err: err}
	}

	sess.store(path, resp.Cookies())

	status := resp.StatusCode()
	c.log.DebugObj("blog api request completed", "blogapi_request", map[string]any{
		"op":         op,
		"method":     method,
		"path":       path,
		"status":     status,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})

	body := resp.Body()
	if status < 200 || status > 299 {
		return nil, &Error{
			Kind:       classifyStatus(status),
			Op:         op,
			Method:     method,
			Path:       path,
			StatusCode: status,
			Message:    serverMessage(body),
			Body:       body,
		}
	}
	return body, nil
}

func (c *Client) deserializationError(op, method, path string, body []byte, err error) error {
	c.log.WarnObj("blog api response rejected", "blogapi_decode", map[string]any{
		"op":    op,
		"path":  path,
		"error": err.Error(),
	})
	return &Error{
		Kind:   KindDeserialization,
		Op:     op,
		Method: method,
		Path:   path,
		Body:   body,
		Err:    err,
	}
}
