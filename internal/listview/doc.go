// Package listview holds list and table state for the CLI screens.
//
// Two strategies are provided and named explicitly:
//
//   - Collection: the "eager collection cache with local filter". The whole
//     collection is fetched once; filtering, sorting and pagination happen
//     in memory. Used for small bounded lists (courses, activities).
//   - PagedQuery: the "server-paginated query". Each page is fetched with
//     page/page_size query parameters.
//
// Both stamp every fetch with a sequence number and discard any response
// that is not from the latest fetch, returning ErrStaleResponse to its
// caller. Fetch errors are kept as state (Err) for inline display;
// Refresh is the manual retry.
package listview
