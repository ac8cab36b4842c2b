package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/muurk/lmsadmin/internal/apiclient"
)

// ForumsAPI covers /forums/api/forums/.
type ForumsAPI struct {
	*Resource[Record]
}

func newForumsAPI(c *apiclient.Client) *ForumsAPI {
	return &ForumsAPI{Resource: newResource[Record](c, "/forums/api/forums/", false)}
}

const moderationBase = "/forums/api/moderation/"

// ModerationAPI covers the forum moderation queue.
type ModerationAPI struct {
	c *apiclient.Client
}

// Queue lists items awaiting moderation.
func (m *ModerationAPI) Queue(ctx context.Context, p ListParams) (*apiclient.Page[Record], error) {
	return getPage[Record](ctx, m.c, moderationBase, p.Values())
}

// PendingCount returns how many items await moderation.
func (m *ModerationAPI) PendingCount(ctx context.Context) (int, error) {
	r, err := get[struct {
		Count int `json:"count"`
	}](ctx, m.c, moderationBase+"pending_count/", nil)
	return r.Count, err
}

// Moderate approves or rejects a queue item.
func (m *ModerationAPI) Moderate(ctx context.Context, id int64, action, reason string) (Record, error) {
	return send[Record](ctx, m.c, http.MethodPatch, fmt.Sprintf("%s%d/", moderationBase, id),
		map[string]string{"action": action, "reason": reason}, false)
}
