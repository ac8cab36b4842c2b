// Package apiclient is the HTTP client adapter every backend call goes through.
//
// A single Client is configured once with the backend base URL and a
// session.Store. It is built on resty and adds the behaviour the backend
// expects from a logged-in admin:
//
//   - Bearer injection: a request middleware attaches
//     "Authorization: Bearer <access>" from the store on every request
//     except login and refresh.
//   - CSRF: requests that set Request.CSRF carry X-CSRFToken, read from the
//     csrftoken cookie in the client's cookie jar at call time.
//   - Refresh-and-retry: a 401 on any path other than the refresh endpoint
//     triggers one refresh using the stored refresh token, then the request
//     is rebuilt and resent once. Concurrent 401s share a single refresh
//     call. If the refresh fails the store is cleared, OnSessionExpired is
//     called and the caller receives an ErrTypeSessionExpired error.
//   - Encoding: JSON bodies by default, multipart/form-data whenever the
//     request carries Uploads.
//
// # Errors
//
// All failures are *APIError values with a Type (network, timeout, HTTP,
// validation, session expired, ...). For non-2xx responses the message is
// the server's own ("detail", "error", "message", or the first field error)
// with a generic fallback. GetShortErrorMessage and GetTroubleshootingHint
// turn them into CLI output.
//
// # Usage Example
//
//	client := apiclient.NewClient(settings.BaseURL, store)
//	client.OnSessionExpired = func(error) { fmt.Println("Please log in again") }
//
//	var page apiclient.Page[Course]
//	err := client.Call(ctx, apiclient.Request{
//	    Method: http.MethodGet,
//	    Path:   "/courses/courses/",
//	    Query:  url.Values{"page": {"1"}},
//	}, &page)
//
// # Thread Safety
//
// A Client is safe for concurrent use.
package apiclient
