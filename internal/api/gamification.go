package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/muurk/lmsadmin/internal/apiclient"
)

// GamificationAPI covers badges, the leaderboard and the points config.
type GamificationAPI struct {
	c      *apiclient.Client
	Badges *Resource[Record]
}

func newGamificationAPI(c *apiclient.Client) *GamificationAPI {
	return &GamificationAPI{c: c, Badges: newResource[Record](c, "/courses/badges/", false)}
}

// Leaderboard returns the ranking, for one course when courseID > 0.
func (g *GamificationAPI) Leaderboard(ctx context.Context, courseID int64) ([]Record, error) {
	var q url.Values
	if courseID > 0 {
		q = url.Values{"course_id": {strconv.FormatInt(courseID, 10)}}
	}
	return get[[]Record](ctx, g.c, "/courses/leaderboard/", q)
}

// PointsConfig returns how many points each activity awards.
func (g *GamificationAPI) PointsConfig(ctx context.Context) (Record, error) {
	return get[Record](ctx, g.c, "/courses/points-config/", nil)
}

// UpdatePointsConfig replaces the points configuration.
func (g *GamificationAPI) UpdatePointsConfig(ctx context.Context, body any) (Record, error) {
	return send[Record](ctx, g.c, http.MethodPut, "/courses/points-config/", body, false)
}
