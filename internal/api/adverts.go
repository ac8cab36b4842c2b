package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/muurk/lmsadmin/internal/apiclient"
)

const advertsBase = "/adverts/api/adverts/"

// AdvertsAPI covers /adverts/api/adverts/.
type AdvertsAPI struct {
	c *apiclient.Client
}

// List returns one page of adverts.
func (a *AdvertsAPI) List(ctx context.Context, p ListParams) (*apiclient.Page[Record], error) {
	return getPage[Record](ctx, a.c, advertsBase, p.Values())
}

// Get returns one advert.
func (a *AdvertsAPI) Get(ctx context.Context, id int64) (Record, error) {
	return get[Record](ctx, a.c, fmt.Sprintf("%s%d/", advertsBase, id), nil)
}

// Create posts an advert: JSON when image is nil, multipart otherwise.
func (a *AdvertsAPI) Create(ctx context.Context, form url.Values, image *apiclient.Upload) (Record, error) {
	if image == nil {
		return send[Record](ctx, a.c, http.MethodPost, advertsBase, flatten(form), true)
	}
	if image.Field == "" {
		image.Field = "image"
	}
	return sendMultipart[Record](ctx, a.c, http.MethodPost, advertsBase, form, []apiclient.Upload{*image}, true)
}

// Update replaces an advert.
func (a *AdvertsAPI) Update(ctx context.Context, id int64, body any) (Record, error) {
	return send[Record](ctx, a.c, http.MethodPut, fmt.Sprintf("%s%d/", advertsBase, id), body, true)
}

// Delete removes an advert.
func (a *AdvertsAPI) Delete(ctx context.Context, id int64) error {
	return del(ctx, a.c, fmt.Sprintf("%s%d/", advertsBase, id), true)
}

// SetStatus activates or deactivates an advert.
func (a *AdvertsAPI) SetStatus(ctx context.Context, id int64, status string) (Record, error) {
	return send[Record](ctx, a.c, http.MethodPatch, fmt.Sprintf("%s%d/", advertsBase, id), map[string]string{"status": status}, true)
}

// Stats returns advert counts.
func (a *AdvertsAPI) Stats(ctx context.Context) (Record, error) {
	return get[Record](ctx, a.c, advertsBase+"stats/", nil)
}

// TargetStats returns advert counts per target audience.
func (a *AdvertsAPI) TargetStats(ctx context.Context) (Record, error) {
	return get[Record](ctx, a.c, advertsBase+"target_stats/", nil)
}

// flatten turns single-valued form fields into scalars for a JSON body.
func flatten(form url.Values) map[string]any {
	body := make(map[string]any, len(form))
	for k, v := range form {
		if len(v) == 1 {
			body[k] = v[0]
		} else {
			body[k] = v
		}
	}
	return body
}
