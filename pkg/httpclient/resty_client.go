package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// RestyClient adapts resty.Client to the httpclient.Client interface.
// It keeps no cookie jar of its own; cookies travel only through Request.Cookies.
type RestyClient struct {
	client  *resty.Client
	baseURL string
}

// NewRestyClient creates a RestyClient rooted at baseURL with the specified timeout.
func NewRestyClient(baseURL string, timeout time.Duration) *RestyClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetCookieJar(nil).
		SetHeader("Accept", "application/json")
	return &RestyClient{client: c, baseURL: baseURL}
}

// BaseURL returns the address every request path is resolved against.
func (r *RestyClient) BaseURL() string { return r.baseURL }

// Do performs req and returns the raw response. Non-2xx statuses are not errors here.
func (r *RestyClient) Do(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.Method) == "" {
		return nil, fmt.Errorf("request method is empty")
	}

	rr := r.client.R().SetContext(ctx)
	if len(req.Headers) > 0 {
		rr.SetHeaders(req.Headers)
	}
	if len(req.Cookies) > 0 {
		rr.SetCookies(req.Cookies)
	}
	if req.Body != nil {
		rr.SetHeader("Content-Type", "application/json")
		rr.SetBody(req.Body)
	}

	resp, err := rr.Execute(req.Method, req.Path)
	if err != nil {
		return nil, err
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte            { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int         { return r.resp.StatusCode() }
func (r *restyResponseAdapter) Cookies() []*http.Cookie { return r.resp.Cookies() }
