package api

import (
	"context"
	"net/http"

	"github.com/muurk/lmsadmin/internal/apiclient"
)

// Schedule response statuses accepted by Respond.
const (
	ResponseAccepted  = "accepted"
	ResponseDeclined  = "declined"
	ResponseTentative = "tentative"
)

// SchedulesAPI covers /schedule/api/schedules/.
type SchedulesAPI struct {
	*Resource[Record]
	c *apiclient.Client
}

func newSchedulesAPI(c *apiclient.Client) *SchedulesAPI {
	r := newResource[Record](c, "/schedule/api/schedules/", false)
	r.UpdateMethod = http.MethodPut
	return &SchedulesAPI{Resource: r, c: c}
}

// Respond records the caller's attendance response.
func (s *SchedulesAPI) Respond(ctx context.Context, id int64, status string) (Record, error) {
	return s.Action(ctx, id, "respond", map[string]string{"response_status": status})
}

// Upcoming lists schedules that have not started yet.
func (s *SchedulesAPI) Upcoming(ctx context.Context) ([]Record, error) {
	return get[[]Record](ctx, s.c, s.Base+"upcoming/", nil)
}
