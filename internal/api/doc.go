// Package api maps the LMS backend's REST endpoints onto typed Go calls.
//
// There is one file per resource family (auth, users, courses, quality,
// messaging, ...). Every method takes a context first, builds the method,
// path, query and body encoding for exactly one endpoint, and returns the
// decoded response or the apiclient error unchanged. Nothing here retries,
// caches or reshapes responses; that is the job of the caller (or, for the
// one 401 refresh, of apiclient).
//
// Payloads whose shape is owned entirely by the backend are returned as
// Record. Families the CLI renders (users, courses, activities, enrollment
// results) have concrete types in models.go.
//
//	svc := api.New(apiclient.NewClient(settings.BaseURL, store))
//	page, err := svc.Courses.List(ctx, api.ListParams{Page: 1, PageSize: 10})
package api
