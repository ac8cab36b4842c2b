package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/muurk/lmsadmin/internal/apiclient"
)

// ListingsPath is the listing collection endpoint.
const ListingsPath = "/listings/api/listings/"

// ListingsAPI covers marketplace listings.
type ListingsAPI struct {
	c *apiclient.Client
}

// Create posts a listing. Without images the payload is JSON; with images it
// is multipart with one "images" part per file. Both carry the CSRF header.
func (l *ListingsAPI) Create(ctx context.Context, payload map[string]any, form url.Values, images []apiclient.Upload) (Record, error) {
	if len(images) == 0 {
		return send[Record](ctx, l.c, http.MethodPost, ListingsPath, payload, true)
	}
	for i := range images {
		images[i].Field = "images"
	}
	return sendMultipart[Record](ctx, l.c, http.MethodPost, ListingsPath, form, images, true)
}

// List returns one page of listings.
func (l *ListingsAPI) List(ctx context.Context, p ListParams) (*apiclient.Page[Record], error) {
	return getPage[Record](ctx, l.c, ListingsPath, p.Values())
}
