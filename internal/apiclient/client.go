package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/singleflight"

	"github.com/muurk/lmsadmin/internal/logging"
	"github.com/muurk/lmsadmin/internal/session"
	"github.com/muurk/lmsadmin/internal/version"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 30 * time.Second

	// LoginPath obtains an access/refresh token pair
	LoginPath = "/users/api/token/"

	// RefreshPath exchanges a refresh token for a new access token
	RefreshPath = "/users/api/token/refresh/"

	// CSRFCookieName is the cookie the backend stores its CSRF token in
	CSRFCookieName = "csrftoken"

	// CSRFHeaderName is the header mutating requests echo the token in
	CSRFHeaderName = "X-CSRFToken"
)

// Requests to these paths never carry a bearer token.
var anonymousPaths = map[string]bool{
	LoginPath:   true,
	RefreshPath: true,
}

// Upload is one file part of a multipart request. Data is held in memory so
// that a retried request can send it again.
type Upload struct {
	Field       string // Form field name (e.g. "file", "images", "thumbnail")
	FileName    string
	ContentType string // Defaults to application/octet-stream
	Data        []byte
}

// Request describes one backend call. A fresh transport request is built from
// it on every attempt.
type Request struct {
	Method string
	Path   string
	Query  url.Values

	// Body is JSON-encoded when there are no Uploads.
	Body any

	// Form holds plain fields. With Uploads they are sent as multipart parts,
	// otherwise as application/x-www-form-urlencoded.
	Form url.Values

	// Uploads switches the request to multipart/form-data.
	Uploads []Upload

	// CSRF attaches the csrftoken cookie value as X-CSRFToken.
	CSRF bool
}

// Response is a completed backend response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration

	token string // access token the request was sent with
}

// Client is the single shared transport for backend calls
type Client struct {
	// BaseURL is the backend root (e.g. "https://lms.example.com")
	BaseURL string

	// Store owns the token pair; read on every request, rewritten on refresh
	Store session.Store

	// OnSessionExpired is called once per failed refresh, after the store
	// has been cleared
	OnSessionExpired func(err error)

	http    *resty.Client
	jar     http.CookieJar
	baseURL *url.URL

	refreshGroup singleflight.Group
}

// NewClient creates a client for baseURL backed by store
func NewClient(baseURL string, store session.Store) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	jar, _ := cookiejar.New(nil)
	parsed, _ := url.Parse(baseURL)

	c := &Client{
		BaseURL: baseURL,
		Store:   store,
		jar:     jar,
		baseURL: parsed,
	}

	c.http = resty.New().
		SetBaseURL(baseURL).
		SetTimeout(DefaultTimeout).
		SetCookieJar(jar).
		SetHeader("User-Agent", version.UserAgent()).
		SetHeader("Accept", "application/json").
		SetLogger(logging.Named("resty").Sugar()).
		SetDisableWarn(true)

	c.http.OnBeforeRequest(c.attachBearer)

	return c
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.http.SetTimeout(timeout)
}

// SetUserAgent overrides the User-Agent header
func (c *Client) SetUserAgent(ua string) {
	if ua != "" {
		c.http.SetHeader("User-Agent", ua)
	}
}

// SetTransport replaces the underlying round tripper (used by tests)
func (c *Client) SetTransport(rt http.RoundTripper) {
	c.http.SetTransport(rt)
}

// attachBearer is the resty request middleware that injects the access token.
func (c *Client) attachBearer(_ *resty.Client, r *resty.Request) error {
	if anonymousPaths[r.URL] || c.Store == nil {
		return nil
	}
	if tok := c.Store.Get().AccessToken; tok != "" {
		r.SetAuthToken(tok)
	}
	return nil
}

// CSRFToken returns the current csrftoken cookie for the backend, or "".
// It is read from the cookie jar at call time, never cached.
func (c *Client) CSRFToken() string {
	if c.baseURL == nil {
		return ""
	}
	for _, cookie := range c.jar.Cookies(c.baseURL) {
		if cookie.Name == CSRFCookieName {
			return cookie.Value
		}
	}
	return ""
}

// SetCSRFToken seeds the csrftoken cookie, e.g. from LMSADMIN_CSRF_TOKEN
func (c *Client) SetCSRFToken(token string) {
	if c.baseURL == nil || token == "" {
		return
	}
	c.jar.SetCookies(c.baseURL, []*http.Cookie{{Name: CSRFCookieName, Value: token, Path: "/"}})
}

// Do sends req. A 401 on any path other than the refresh endpoint triggers at
// most one refresh and one resend. Non-2xx responses are returned as *APIError
// together with the response.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && req.Path != RefreshPath && !anonymousPaths[req.Path] {
		if err := c.refresh(ctx, resp.token); err != nil {
			return nil, err
		}
		resp, err = c.send(ctx, req)
		if err != nil {
			return nil, err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := NewHTTPError(resp.StatusCode, resp.Body)
		apiErr.Method = req.Method
		apiErr.Path = req.Path
		return resp, apiErr
	}

	return resp, nil
}

// Call sends req and decodes a JSON response body into out (when non-nil)
func (c *Client) Call(ctx context.Context, req Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return DecodeInto(resp, out)
}

// send performs a single attempt.
func (c *Client) send(ctx context.Context, req Request) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	r := c.http.R().SetContext(ctx)

	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}

	if req.CSRF {
		if tok := c.CSRFToken(); tok != "" {
			r.SetHeader(CSRFHeaderName, tok)
		}
	}

	switch {
	case len(req.Uploads) > 0:
		if len(req.Form) > 0 {
			r.SetFormDataFromValues(req.Form)
		}
		for _, u := range req.Uploads {
			contentType := u.ContentType
			if contentType == "" {
				contentType = "application/octet-stream"
			}
			r.SetMultipartField(u.Field, u.FileName, contentType, bytes.NewReader(u.Data))
		}
	case req.Body != nil:
		r.SetHeader("Content-Type", "application/json").SetBody(req.Body)
	case len(req.Form) > 0:
		r.SetFormDataFromValues(req.Form)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	authenticated := c.Store != nil && c.Store.Get().Authenticated() && !anonymousPaths[req.Path]
	logging.LogAPIRequest(method, req.Path, authenticated, req.CSRF)

	start := time.Now()
	rr, err := r.Execute(method, req.Path)
	if err != nil {
		return nil, NewNetworkError(fmt.Sprintf("%s %s failed", method, req.Path), err)
	}

	resp := &Response{
		StatusCode: rr.StatusCode(),
		Header:     rr.Header(),
		Body:       rr.Body(),
		Duration:   time.Since(start),
		token:      rr.Request.Token,
	}
	logging.LogAPIResponse(method, req.Path, resp.StatusCode, resp.Duration, len(resp.Body))

	return resp, nil
}

type tokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// refresh renews the access token. staleToken is the token the failed
// request carried; if the store already holds a different one, another
// caller refreshed in the meantime and the request is simply resent.
// Concurrent callers share one refresh call. The shared call is detached
// from ctx, so a caller that gives up gets ctx's error back while the
// refresh completes for everyone else and the session is kept.
func (c *Client) refresh(ctx context.Context, staleToken string) error {
	if c.Store == nil {
		return NewSessionExpiredError(ErrNoRefreshToken)
	}
	if current := c.Store.Get().AccessToken; current != "" && current != staleToken {
		return nil
	}

	shared := context.WithoutCancel(ctx)
	ch := c.refreshGroup.DoChan("refresh", func() (any, error) {
		if current := c.Store.Get().AccessToken; current != "" && current != staleToken {
			return nil, nil
		}

		err := c.doRefresh(shared)
		logging.LogTokenRefresh("401", err)
		if err != nil {
			c.expire(err)
			return nil, NewSessionExpiredError(err)
		}
		return nil, nil
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ClassifyNetworkError(ctx.Err())
	}
}

func (c *Client) doRefresh(ctx context.Context) error {
	sess := c.Store.Get()
	if !sess.CanRefresh() {
		return ErrNoRefreshToken
	}

	resp, err := c.send(ctx, Request{
		Method: http.MethodPost,
		Path:   RefreshPath,
		Body:   map[string]string{"refresh": sess.RefreshToken},
	})
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return NewHTTPError(resp.StatusCode, resp.Body)
	}

	var pair tokenPair
	if err := DecodeInto(resp, &pair); err != nil {
		return err
	}
	if pair.Access == "" {
		return NewParseError("refresh response has no access token", nil)
	}

	// Rotating backends return a new refresh token too.
	if pair.Refresh != "" {
		sess.AccessToken = pair.Access
		sess.RefreshToken = pair.Refresh
		return c.Store.Set(sess)
	}
	return c.Store.SetAccessToken(pair.Access)
}

// expire clears all persisted auth state and notifies the hook.
func (c *Client) expire(cause error) {
	if err := c.Store.Clear(); err != nil {
		logging.Warn("failed to clear session after refresh failure")
	}
	logging.LogSessionEvent("expired", "")

	if c.OnSessionExpired != nil {
		c.OnSessionExpired(cause)
	}
}

// Login exchanges credentials for a token pair and stores it. The cached
// user is left for the caller to fill from the profile endpoint.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var pair tokenPair
	err := c.Call(ctx, Request{
		Method: http.MethodPost,
		Path:   LoginPath,
		Body:   map[string]string{"email": email, "password": password},
	}, &pair)
	if err != nil {
		return err
	}
	if pair.Access == "" {
		return NewParseError("login response has no access token", nil)
	}

	if c.Store == nil {
		return nil
	}
	if err := c.Store.Set(session.Session{AccessToken: pair.Access, RefreshToken: pair.Refresh}); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	logging.LogSessionEvent("login", email)
	return nil
}
