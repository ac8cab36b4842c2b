package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/muurk/lmsadmin/internal/apiclient"
)

// Record is an untyped backend object, used for resource families whose
// shape is owned entirely by the backend (quality records, messages, ...).
type Record map[string]any

// ID returns the record's numeric "id", or 0.
func (r Record) ID() int64 {
	switch v := r["id"].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case string:
		id, _ := strconv.ParseInt(v, 10, 64)
		return id
	}
	return 0
}

// String returns r[key] formatted as a string ("" when absent).
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return fmt.Sprint(v)
}

// ListParams are the common query parameters of list endpoints.
type ListParams struct {
	Page     int               // 1-based; 0 omits the parameter
	PageSize int               // 0 omits the parameter
	Search   string            // free-text search
	Filters  map[string]string // additional exact filters (status, level, ...)
}

// Values encodes p as query parameters. Empty values are dropped.
func (p ListParams) Values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(p.PageSize))
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	for k, val := range p.Filters {
		if val != "" && val != "all" {
			v.Set(k, val)
		}
	}
	return v
}

// Service groups every resource family behind one client.
type Service struct {
	Client *apiclient.Client

	Auth         *AuthAPI
	Users        *UsersAPI
	Roles        *RolesAPI
	Groups       *GroupsAPI
	Activity     *ActivityAPI
	Courses      *CoursesAPI
	Enrollments  *EnrollmentsAPI
	Gamification *GamificationAPI
	Assessments  *AssessmentsAPI
	Quality      *QualityAPI
	Messaging    *MessagingAPI
	Schedules    *SchedulesAPI
	Adverts      *AdvertsAPI
	Payments     *PaymentsAPI
	Forums       *ForumsAPI
	Moderation   *ModerationAPI
	Listings     *ListingsAPI
}

// New wires every resource family to c.
func New(c *apiclient.Client) *Service {
	return &Service{
		Client:       c,
		Auth:         &AuthAPI{c: c},
		Users:        newUsersAPI(c),
		Roles:        newRolesAPI(c),
		Groups:       newGroupsAPI(c),
		Activity:     &ActivityAPI{c: c},
		Courses:      newCoursesAPI(c),
		Enrollments:  &EnrollmentsAPI{c: c},
		Gamification: newGamificationAPI(c),
		Assessments:  newAssessmentsAPI(c),
		Quality:      newQualityAPI(c),
		Messaging:    newMessagingAPI(c),
		Schedules:    newSchedulesAPI(c),
		Adverts:      &AdvertsAPI{c: c},
		Payments:     &PaymentsAPI{c: c},
		Forums:       newForumsAPI(c),
		Moderation:   &ModerationAPI{c: c},
		Listings:     &ListingsAPI{c: c},
	}
}

// Resource is a standard REST collection at Base ("/x/api/things/") with
// "<Base><id>/" detail routes.
type Resource[T any] struct {
	c    *apiclient.Client
	Base string
	// CSRF marks mutating calls as needing the CSRF header.
	CSRF bool
	// UpdateMethod is PATCH unless the backend expects PUT.
	UpdateMethod string
}

func newResource[T any](c *apiclient.Client, base string, csrf bool) *Resource[T] {
	return &Resource[T]{c: c, Base: base, CSRF: csrf, UpdateMethod: http.MethodPatch}
}

func (r *Resource[T]) detail(id int64) string {
	return fmt.Sprintf("%s%d/", r.Base, id)
}

// List fetches one page of the collection.
func (r *Resource[T]) List(ctx context.Context, p ListParams) (*apiclient.Page[T], error) {
	return getPage[T](ctx, r.c, r.Base, p.Values())
}

// Get fetches one item.
func (r *Resource[T]) Get(ctx context.Context, id int64) (T, error) {
	return get[T](ctx, r.c, r.detail(id), nil)
}

// Create posts a new item.
func (r *Resource[T]) Create(ctx context.Context, body any) (T, error) {
	return send[T](ctx, r.c, http.MethodPost, r.Base, body, r.CSRF)
}

// Update modifies an item (PATCH unless UpdateMethod says otherwise).
func (r *Resource[T]) Update(ctx context.Context, id int64, body any) (T, error) {
	return send[T](ctx, r.c, r.UpdateMethod, r.detail(id), body, r.CSRF)
}

// Delete removes an item.
func (r *Resource[T]) Delete(ctx context.Context, id int64) error {
	return del(ctx, r.c, r.detail(id), r.CSRF)
}

// Action posts to a detail action route ("<Base><id>/<action>/").
func (r *Resource[T]) Action(ctx context.Context, id int64, action string, body any) (Record, error) {
	if body == nil {
		body = map[string]any{}
	}
	return send[Record](ctx, r.c, http.MethodPost, fmt.Sprintf("%s%d/%s/", r.Base, id, action), body, r.CSRF)
}

// Stats fetches "<Base>stats/".
func (r *Resource[T]) Stats(ctx context.Context) (Record, error) {
	return get[Record](ctx, r.c, r.Base+"stats/", nil)
}

func get[T any](ctx context.Context, c *apiclient.Client, path string, q url.Values) (T, error) {
	var out T
	err := c.Call(ctx, apiclient.Request{Method: http.MethodGet, Path: path, Query: q}, &out)
	return out, err
}

func getPage[T any](ctx context.Context, c *apiclient.Client, path string, q url.Values) (*apiclient.Page[T], error) {
	resp, err := c.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: path, Query: q})
	if err != nil {
		return nil, err
	}
	return apiclient.DecodePage[T](resp)
}

func send[T any](ctx context.Context, c *apiclient.Client, method, path string, body any, csrf bool) (T, error) {
	var out T
	err := c.Call(ctx, apiclient.Request{Method: method, Path: path, Body: body, CSRF: csrf}, &out)
	return out, err
}

func sendMultipart[T any](ctx context.Context, c *apiclient.Client, method, path string, form url.Values, uploads []apiclient.Upload, csrf bool) (T, error) {
	var out T
	err := c.Call(ctx, apiclient.Request{Method: method, Path: path, Form: form, Uploads: uploads, CSRF: csrf}, &out)
	return out, err
}

func del(ctx context.Context, c *apiclient.Client, path string, csrf bool) error {
	_, err := c.Do(ctx, apiclient.Request{Method: http.MethodDelete, Path: path, CSRF: csrf})
	return err
}
