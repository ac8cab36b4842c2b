package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/muurk/lmsadmin/internal/session"
)

// tokenServer serves a protected endpoint that only accepts validToken and a
// refresh endpoint that hands out refreshed.
type tokenServer struct {
	validToken    string
	refreshed     string
	refreshStatus int
	refreshDelay  time.Duration
	refreshCalls  int32
}

func (ts *tokenServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(RefreshPath, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&ts.refreshCalls, 1)
		if r.Header.Get("Authorization") != "" {
			http.Error(w, "refresh must be anonymous", http.StatusBadRequest)
			return
		}
		if ts.refreshDelay > 0 {
			time.Sleep(ts.refreshDelay)
		}
		if ts.refreshStatus != 0 && ts.refreshStatus != http.StatusOK {
			w.WriteHeader(ts.refreshStatus)
			_, _ = w.Write([]byte(`{"detail":"Token is invalid or expired"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access": ts.refreshed})
	})
	mux.HandleFunc("/users/api/profile/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+ts.validToken {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Given token not valid for any token type"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":1,"email":"admin@example.com","role":"super_admin"}`))
	})
	return mux
}

func TestDo_AttachesBearer(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, session.NewMemoryStore(session.Session{AccessToken: "tok-1"}))
	if err := client.Call(context.Background(), Request{Path: "/courses/courses/"}, nil); err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	if gotAuth != "Bearer tok-1" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer tok-1")
	}
}

func TestDo_NoBearerWithoutToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	client := NewClient(srv.URL, session.NewMemoryStore(session.Session{}))
	if _, err := client.Do(context.Background(), Request{Path: "/courses/categories/"}); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q, want empty", gotAuth)
	}
}

func TestDo_RefreshAndRetry(t *testing.T) {
	ts := &tokenServer{validToken: "new", refreshed: "new"}
	srv := httptest.NewServer(ts.handler())
	defer srv.Close()

	store := session.NewMemoryStore(session.Session{AccessToken: "old", RefreshToken: "refresh-1"})
	client := NewClient(srv.URL, store)

	var profile session.UserInfo
	if err := client.Call(context.Background(), Request{Path: "/users/api/profile/"}, &profile); err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	if profile.Email != "admin@example.com" {
		t.Errorf("profile.Email = %q, want admin@example.com", profile.Email)
	}
	if got := atomic.LoadInt32(&ts.refreshCalls); got != 1 {
		t.Errorf("refresh calls = %d, want 1", got)
	}
	if got := store.Get().AccessToken; got != "new" {
		t.Errorf("stored access token = %q, want new", got)
	}
	if got := store.Get().RefreshToken; got != "refresh-1" {
		t.Errorf("stored refresh token = %q, want refresh-1", got)
	}
}

func TestDo_RetriesOnlyOnce(t *testing.T) {
	// The refreshed token is still rejected by the protected endpoint.
	ts := &tokenServer{validToken: "never", refreshed: "new"}
	srv := httptest.NewServer(ts.handler())
	defer srv.Close()

	store := session.NewMemoryStore(session.Session{AccessToken: "old", RefreshToken: "r"})
	client := NewClient(srv.URL, store)

	_, err := client.Do(context.Background(), Request{Path: "/users/api/profile/"})
	if err == nil {
		t.Fatal("Do() should fail when the retried request is rejected")
	}
	if !IsAuthError(err) {
		t.Errorf("error type = %v, want auth error", err)
	}
	if got := atomic.LoadInt32(&ts.refreshCalls); got != 1 {
		t.Errorf("refresh calls = %d, want 1", got)
	}
	if !store.Get().Authenticated() {
		t.Error("session should be kept when the refresh itself succeeded")
	}
}

func TestDo_RefreshFailureExpiresSession(t *testing.T) {
	ts := &tokenServer{validToken: "new", refreshStatus: http.StatusUnauthorized}
	srv := httptest.NewServer(ts.handler())
	defer srv.Close()

	store := session.NewMemoryStore(session.Session{
		AccessToken:  "old",
		RefreshToken: "expired",
		User:         &session.UserInfo{Email: "admin@example.com"},
	})
	client := NewClient(srv.URL, store)

	var hookCalls int32
	client.OnSessionExpired = func(error) { atomic.AddInt32(&hookCalls, 1) }

	_, err := client.Do(context.Background(), Request{Path: "/users/api/profile/"})
	if !IsSessionExpired(err) {
		t.Fatalf("Do() error = %v, want session expired", err)
	}

	if got := atomic.LoadInt32(&hookCalls); got != 1 {
		t.Errorf("OnSessionExpired calls = %d, want 1", got)
	}
	s := store.Get()
	if s.AccessToken != "" || s.RefreshToken != "" || s.User != nil {
		t.Errorf("session = %+v, want cleared", s)
	}
}

func TestDo_NoRefreshTokenExpiresSession(t *testing.T) {
	ts := &tokenServer{validToken: "new", refreshed: "new"}
	srv := httptest.NewServer(ts.handler())
	defer srv.Close()

	store := session.NewMemoryStore(session.Session{AccessToken: "old"})
	client := NewClient(srv.URL, store)

	_, err := client.Do(context.Background(), Request{Path: "/users/api/profile/"})
	if !IsSessionExpired(err) {
		t.Fatalf("Do() error = %v, want session expired", err)
	}
	if got := atomic.LoadInt32(&ts.refreshCalls); got != 0 {
		t.Errorf("refresh calls = %d, want 0 without a refresh token", got)
	}
}

func TestDo_NoRefreshForRefreshEndpoint(t *testing.T) {
	ts := &tokenServer{refreshStatus: http.StatusUnauthorized}
	srv := httptest.NewServer(ts.handler())
	defer srv.Close()

	client := NewClient(srv.URL, session.NewMemoryStore(session.Session{AccessToken: "a", RefreshToken: "r"}))

	_, err := client.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   RefreshPath,
		Body:   map[string]string{"refresh": "r"},
	})
	if !IsAuthError(err) {
		t.Errorf("Do() error = %v, want plain auth error", err)
	}
	if got := atomic.LoadInt32(&ts.refreshCalls); got != 1 {
		t.Errorf("refresh endpoint hits = %d, want 1 (no retry)", got)
	}
}

func TestDo_ConcurrentUnauthorizedSharesOneRefresh(t *testing.T) {
	ts := &tokenServer{validToken: "new", refreshed: "new", refreshDelay: 50 * time.Millisecond}
	srv := httptest.NewServer(ts.handler())
	defer srv.Close()

	store := session.NewMemoryStore(session.Session{AccessToken: "old", RefreshToken: "r"})
	client := NewClient(srv.URL, store)

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Do(context.Background(), Request{Path: "/users/api/profile/"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Do() error = %v", err)
		}
	}
	if got := atomic.LoadInt32(&ts.refreshCalls); got != 1 {
		t.Errorf("refresh calls = %d, want 1", got)
	}
}

func TestDo_CallerGivesUpDuringRefreshKeepsSession(t *testing.T) {
	ts := &tokenServer{validToken: "new", refreshed: "new", refreshDelay: 300 * time.Millisecond}
	srv := httptest.NewServer(ts.handler())
	defer srv.Close()

	store := session.NewMemoryStore(session.Session{AccessToken: "old", RefreshToken: "r"})
	client := NewClient(srv.URL, store)

	var hookCalls int32
	client.OnSessionExpired = func(error) { atomic.AddInt32(&hookCalls, 1) }

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.Do(ctx, Request{Path: "/users/api/profile/"})
	if err == nil || IsSessionExpired(err) {
		t.Fatalf("Do() error = %v, want the caller's timeout", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for store.Get().AccessToken != "new" && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	s := store.Get()
	if s.AccessToken != "new" || s.RefreshToken != "r" {
		t.Errorf("session = %+v, want refreshed access token and kept refresh token", s)
	}
	if got := atomic.LoadInt32(&hookCalls); got != 0 {
		t.Errorf("OnSessionExpired calls = %d, want 0", got)
	}
}

func TestDo_CSRFHeaderFromCookie(t *testing.T) {
	var gotCSRF string
	mux := http.NewServeMux()
	mux.HandleFunc("/users/api/profile/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: CSRFCookieName, Value: "csrf-abc", Path: "/"})
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/users/api/users/bulk_upload/", func(w http.ResponseWriter, r *http.Request) {
		gotCSRF = r.Header.Get(CSRFHeaderName)
		_, _ = w.Write([]byte(`{}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.URL, session.NewMemoryStore(session.Session{AccessToken: "a"}))
	ctx := context.Background()

	if client.CSRFToken() != "" {
		t.Fatal("CSRFToken() should be empty before the cookie is set")
	}
	if _, err := client.Do(ctx, Request{Path: "/users/api/profile/"}); err != nil {
		t.Fatal(err)
	}
	if got := client.CSRFToken(); got != "csrf-abc" {
		t.Fatalf("CSRFToken() = %q, want csrf-abc", got)
	}

	_, err := client.Do(ctx, Request{
		Method:  http.MethodPost,
		Path:    "/users/api/users/bulk_upload/",
		Uploads: []Upload{{Field: "file", FileName: "users.csv", Data: []byte("email\n")}},
		CSRF:    true,
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if gotCSRF != "csrf-abc" {
		t.Errorf("%s = %q, want csrf-abc", CSRFHeaderName, gotCSRF)
	}
}

func TestDo_CSRFOnlyWhenRequested(t *testing.T) {
	var gotCSRF string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCSRF = r.Header.Get(CSRFHeaderName)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, session.NewMemoryStore(session.Session{}))
	client.SetCSRFToken("seeded")

	if _, err := client.Do(context.Background(), Request{Method: http.MethodPost, Path: "/x/", Body: map[string]int{}}); err != nil {
		t.Fatal(err)
	}
	if gotCSRF != "" {
		t.Errorf("%s = %q, want empty when CSRF is not requested", CSRFHeaderName, gotCSRF)
	}
}

func TestDo_JSONBody(t *testing.T) {
	var gotType string
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":42}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, session.NewMemoryStore(session.Session{}))

	var out struct {
		ID int `json:"id"`
	}
	err := client.Call(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/courses/courses/",
		Body:   map[string]any{"title": "Go 101", "price": 10},
	}, &out)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	if gotType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotType)
	}
	if got["title"] != "Go 101" {
		t.Errorf("body title = %v, want Go 101", got["title"])
	}
	if out.ID != 42 {
		t.Errorf("decoded id = %d, want 42", out.ID)
	}
}

func TestDo_MultipartWhenUploads(t *testing.T) {
	var outcomes []string
	var fileContent string
	var fileName string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		outcomes = r.MultipartForm.Value["learning_outcomes"]
		f, hdr, err := r.FormFile("thumbnail")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		fileContent = string(data)
		fileName = hdr.Filename
	}))
	defer srv.Close()

	client := NewClient(srv.URL, session.NewMemoryStore(session.Session{}))
	_, err := client.Do(context.Background(), Request{
		Method:  http.MethodPost,
		Path:    "/courses/courses/",
		Form:    url.Values{"title": {"Go"}, "learning_outcomes": {"one", "two"}},
		Uploads: []Upload{{Field: "thumbnail", FileName: "thumb.png", ContentType: "image/png", Data: []byte("PNG")}},
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	if len(outcomes) != 2 || outcomes[0] != "one" || outcomes[1] != "two" {
		t.Errorf("learning_outcomes = %v, want [one two]", outcomes)
	}
	if fileContent != "PNG" || fileName != "thumb.png" {
		t.Errorf("thumbnail = %q (%s), want PNG (thumb.png)", fileContent, fileName)
	}
}

func TestDo_MultipartResentAfterRefresh(t *testing.T) {
	var attempts int32
	var lastSize int64
	mux := http.NewServeMux()
	mux.HandleFunc(RefreshPath, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access":"new"}`))
	})
	mux.HandleFunc("/users/api/users/bulk_upload/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		if r.Header.Get("Authorization") != "Bearer new" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		lastSize = hdr.Size
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.URL, session.NewMemoryStore(session.Session{AccessToken: "old", RefreshToken: "r"}))
	_, err := client.Do(context.Background(), Request{
		Method:  http.MethodPost,
		Path:    "/users/api/users/bulk_upload/",
		Uploads: []Upload{{Field: "file", FileName: "u.csv", Data: []byte("email\na@b.co\n")}},
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if atomic.LoadInt32(&attempts) != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
	if lastSize != int64(len("email\na@b.co\n")) {
		t.Errorf("resent file size = %d, want full content", lastSize)
	}
}

func TestDo_QueryParams(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"count":0,"results":[]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, session.NewMemoryStore(session.Session{}))
	_, err := client.Do(context.Background(), Request{
		Path:  "/activitylog/api/activities/",
		Query: url.Values{"page": {"2"}, "page_size": {"25"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if gotQuery.Get("page") != "2" || gotQuery.Get("page_size") != "25" {
		t.Errorf("query = %v, want page=2 page_size=25", gotQuery)
	}
}

func TestDo_ValidationErrorFromServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"images":["At least one image is required."],"price":["Ensure this value is greater than 0."]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, session.NewMemoryStore(session.Session{}))
	_, err := client.Do(context.Background(), Request{Method: http.MethodPost, Path: "/listings/api/listings/", Body: map[string]any{}})

	if !IsValidationError(err) {
		t.Fatalf("Do() error = %v, want validation error", err)
	}
	apiErr, _ := asAPIError(err)
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want 400", apiErr.StatusCode)
	}
	if apiErr.Message != "images: At least one image is required." {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if apiErr.FieldErrors["price"] != "Ensure this value is greater than 0." {
		t.Errorf("FieldErrors[price] = %q", apiErr.FieldErrors["price"])
	}
	if apiErr.Path != "/listings/api/listings/" || apiErr.Method != http.MethodPost {
		t.Errorf("request context = %s %s", apiErr.Method, apiErr.Path)
	}
}

func TestDo_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL
	srv.Close()

	client := NewClient(baseURL, session.NewMemoryStore(session.Session{}))
	client.SetTimeout(2 * time.Second)

	_, err := client.Do(context.Background(), Request{Path: "/"})
	if !IsNetworkError(err) {
		t.Errorf("Do() error = %v, want network error", err)
	}
}

func TestDo_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, session.NewMemoryStore(session.Session{}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Do(ctx, Request{Path: "/"})
	apiErr, ok := asAPIError(err)
	if !ok || apiErr.Type != ErrTypeCanceled {
		t.Errorf("Do() error = %v, want canceled", err)
	}
}

func TestLogin_StoresTokens(t *testing.T) {
	var gotAuth string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"access":"a-1","refresh":"r-1"}`))
	}))
	defer srv.Close()

	store := session.NewMemoryStore(session.Session{AccessToken: "stale"})
	client := NewClient(srv.URL, store)

	if err := client.Login(context.Background(), "admin@example.com", "secret123"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if gotAuth != "" {
		t.Errorf("login request carried Authorization %q", gotAuth)
	}
	if gotBody["email"] != "admin@example.com" || gotBody["password"] != "secret123" {
		t.Errorf("login body = %v", gotBody)
	}
	s := store.Get()
	if s.AccessToken != "a-1" || s.RefreshToken != "r-1" {
		t.Errorf("session = %+v, want a-1/r-1", s)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"No active account found with the given credentials"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, session.NewMemoryStore(session.Session{}))
	var hookCalled bool
	client.OnSessionExpired = func(error) { hookCalled = true }

	err := client.Login(context.Background(), "x@example.com", "wrong")
	if !IsAuthError(err) {
		t.Fatalf("Login() error = %v, want auth error", err)
	}
	if GetShortErrorMessage(err) != "No active account found with the given credentials" {
		t.Errorf("short message = %q", GetShortErrorMessage(err))
	}
	if hookCalled {
		t.Error("a failed login must not fire the session-expired hook")
	}
}
