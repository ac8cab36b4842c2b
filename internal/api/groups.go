package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/muurk/lmsadmin/internal/apiclient"
)

// RolesAPI covers /groups/api/roles/.
type RolesAPI struct {
	*Resource[Record]
	c *apiclient.Client
}

func newRolesAPI(c *apiclient.Client) *RolesAPI {
	return &RolesAPI{Resource: newResource[Record](c, "/groups/api/roles/", false), c: c}
}

// SetDefault makes role id the default for new users.
func (r *RolesAPI) SetDefault(ctx context.Context, id int64) (Record, error) {
	return r.Action(ctx, id, "set_default", nil)
}

// Permissions lists a role's permissions.
func (r *RolesAPI) Permissions(ctx context.Context, id int64) ([]Record, error) {
	return get[[]Record](ctx, r.c, fmt.Sprintf("/groups/api/roles/%d/permissions/", id), nil)
}

// UpdatePermissions replaces a role's permissions.
func (r *RolesAPI) UpdatePermissions(ctx context.Context, id int64, permissions []string) (Record, error) {
	return send[Record](ctx, r.c, http.MethodPut, fmt.Sprintf("/groups/api/roles/%d/permissions/", id),
		map[string]any{"permissions": permissions}, false)
}

// Validate checks a role definition without saving it.
func (r *RolesAPI) Validate(ctx context.Context, body any) (Record, error) {
	return send[Record](ctx, r.c, http.MethodPost, "/groups/api/roles/validate/", body, false)
}

// GroupsAPI covers /groups/api/groups/.
type GroupsAPI struct {
	*Resource[Record]
	c *apiclient.Client
}

func newGroupsAPI(c *apiclient.Client) *GroupsAPI {
	return &GroupsAPI{Resource: newResource[Record](c, "/groups/api/groups/", false), c: c}
}

// Members lists a group's members.
func (g *GroupsAPI) Members(ctx context.Context, id int64) ([]Record, error) {
	return get[[]Record](ctx, g.c, fmt.Sprintf("/groups/api/groups/%d/members/", id), nil)
}

// MembersByName lists the members of the group called name.
func (g *GroupsAPI) MembersByName(ctx context.Context, name string) ([]Record, error) {
	return get[[]Record](ctx, g.c, fmt.Sprintf("/groups/api/groups/by-name/%s/members/", url.PathEscape(name)), nil)
}

// AddMember adds a user to a group.
func (g *GroupsAPI) AddMember(ctx context.Context, id, userID int64) (Record, error) {
	return send[Record](ctx, g.c, http.MethodPost, fmt.Sprintf("/groups/api/groups/%d/members/", id),
		map[string]int64{"user_id": userID}, false)
}

// RemoveMember removes a user from a group.
func (g *GroupsAPI) RemoveMember(ctx context.Context, id, userID int64) error {
	return del(ctx, g.c, fmt.Sprintf("/groups/api/groups/%d/members/%d/", id, userID), false)
}

// UpdateMembers replaces the member list (CSRF protected).
func (g *GroupsAPI) UpdateMembers(ctx context.Context, id int64, memberIDs []int64) (Record, error) {
	if memberIDs == nil {
		memberIDs = []int64{}
	}
	return send[Record](ctx, g.c, http.MethodPost, fmt.Sprintf("/groups/api/groups/%d/update_members/", id),
		map[string]any{"members": memberIDs}, true)
}
