package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/muurk/lmsadmin/internal/apiclient"
)

// MessagingAPI covers /messaging/api/.
type MessagingAPI struct {
	*Resource[Record]
	c *apiclient.Client
}

func newMessagingAPI(c *apiclient.Client) *MessagingAPI {
	return &MessagingAPI{Resource: newResource[Record](c, "/messaging/api/messages/", false), c: c}
}

// Send creates a message, as multipart when it carries attachments.
func (m *MessagingAPI) Send(ctx context.Context, form url.Values, attachments []apiclient.Upload) (Record, error) {
	if len(attachments) == 0 {
		return m.Create(ctx, flatten(form))
	}
	for i := range attachments {
		if attachments[i].Field == "" {
			attachments[i].Field = "attachments"
		}
	}
	return sendMultipart[Record](ctx, m.c, http.MethodPost, m.Base, form, attachments, false)
}

// MarkRead marks a message as read.
func (m *MessagingAPI) MarkRead(ctx context.Context, id int64) (Record, error) {
	return send[Record](ctx, m.c, http.MethodPatch, fmt.Sprintf("%s%d/mark_as_read/", m.Base, id), map[string]any{}, false)
}

// Forward forwards a message to other recipients.
func (m *MessagingAPI) Forward(ctx context.Context, id int64, recipientIDs []int64, content string) (Record, error) {
	return m.Action(ctx, id, "forward", map[string]any{"recipients": recipientIDs, "content": content})
}

// Reply replies to a message.
func (m *MessagingAPI) Reply(ctx context.Context, id int64, content string) (Record, error) {
	return m.Action(ctx, id, "reply", map[string]any{"content": content})
}

// Types lists the message types.
func (m *MessagingAPI) Types(ctx context.Context) ([]Record, error) {
	return get[[]Record](ctx, m.c, "/messaging/api/message-types/", nil)
}

// UnreadCount returns the number of unread messages.
func (m *MessagingAPI) UnreadCount(ctx context.Context) (int, error) {
	r, err := get[struct {
		Count       *int `json:"count"`
		UnreadCount *int `json:"unread_count"`
	}](ctx, m.c, m.Base+"unread_count/", nil)
	if err != nil {
		return 0, err
	}
	switch {
	case r.UnreadCount != nil:
		return *r.UnreadCount, nil
	case r.Count != nil:
		return *r.Count, nil
	}
	return 0, nil
}

// Attachments lists message attachments.
func (m *MessagingAPI) Attachments(ctx context.Context, p ListParams) (*apiclient.Page[Record], error) {
	return getPage[Record](ctx, m.c, "/messaging/api/attachments/", p.Values())
}
