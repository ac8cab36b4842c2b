package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/muurk/lmsadmin/internal/apiclient"
)

// UsersAPI covers /users/api/users/.
type UsersAPI struct {
	*Resource[User]
	c *apiclient.Client
}

func newUsersAPI(c *apiclient.Client) *UsersAPI {
	return &UsersAPI{Resource: newResource[User](c, "/users/api/users/", false), c: c}
}

// Create registers a user through /users/api/register/, which is what the
// admin console uses for new accounts.
func (u *UsersAPI) Create(ctx context.Context, body any) (User, error) {
	return send[User](ctx, u.c, http.MethodPost, "/users/api/register/", body, false)
}

// All pages through the user list and returns every user.
func (u *UsersAPI) All(ctx context.Context) ([]User, error) {
	return collectAll[User](ctx, u.c, u.Base, url.Values{}, 1000)
}

// Impersonate starts an impersonation session for user id.
func (u *UsersAPI) Impersonate(ctx context.Context, id int64) (Record, error) {
	return send[Record](ctx, u.c, http.MethodPost, fmt.Sprintf("/users/api/users/%d/impersonate/", id), map[string]any{}, false)
}

// RoleStats returns user counts per role.
func (u *UsersAPI) RoleStats(ctx context.Context, q url.Values) (Record, error) {
	return get[Record](ctx, u.c, "/users/api/users/role_stats/", q)
}

// Activities lists the user activity log (/users/api/user-activities/).
func (u *UsersAPI) Activities(ctx context.Context, p ListParams) (*apiclient.Page[Activity], error) {
	return getPage[Activity](ctx, u.c, "/users/api/user-activities/", p.Values())
}

// BulkUpload posts a CSV of new users as multipart with the CSRF header.
func (u *UsersAPI) BulkUpload(ctx context.Context, fileName string, csv []byte) (BulkUploadResult, error) {
	return sendMultipart[BulkUploadResult](ctx, u.c, http.MethodPost, "/users/api/users/bulk_upload/", nil,
		[]apiclient.Upload{{Field: "file", FileName: fileName, ContentType: "text/csv", Data: csv}}, true)
}

// collectAll follows the backend's pagination until every item is fetched.
func collectAll[T any](ctx context.Context, c *apiclient.Client, path string, q url.Values, pageSize int) ([]T, error) {
	var all []T
	for page := 1; ; page++ {
		pq := url.Values{}
		for k, v := range q {
			pq[k] = v
		}
		pq.Set("page", fmt.Sprint(page))
		pq.Set("page_size", fmt.Sprint(pageSize))

		p, err := getPage[T](ctx, c, path, pq)
		if err != nil {
			return nil, err
		}
		all = append(all, p.Results...)
		if !p.HasNext() || len(p.Results) == 0 {
			return all, nil
		}
	}
}
