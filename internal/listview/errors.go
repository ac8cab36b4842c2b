package listview

import "errors"

// ErrStaleResponse is returned by a fetch whose response arrived after a
// newer fetch was issued. Its result is discarded.
var ErrStaleResponse = errors.New("stale response discarded")

// ErrInvalidPageSize is returned for page sizes outside PageSizes.
var ErrInvalidPageSize = errors.New("invalid page size")
