package api

import (
	"context"
	"fmt"

	"github.com/muurk/lmsadmin/internal/apiclient"
)

// ActivityAPI covers /activitylog/api/.
type ActivityAPI struct {
	c *apiclient.Client
}

// List returns one page of the activity log.
func (a *ActivityAPI) List(ctx context.Context, p ListParams) (*apiclient.Page[Activity], error) {
	return getPage[Activity](ctx, a.c, "/activitylog/api/activities/", p.Values())
}

// Get returns one activity.
func (a *ActivityAPI) Get(ctx context.Context, id int64) (Activity, error) {
	return get[Activity](ctx, a.c, fmt.Sprintf("/activitylog/api/activities/%d/", id), nil)
}

// ForUser returns a user's activities.
func (a *ActivityAPI) ForUser(ctx context.Context, userID int64) (*apiclient.Page[Activity], error) {
	return getPage[Activity](ctx, a.c, fmt.Sprintf("/activitylog/api/user-activities/%d/", userID), nil)
}
