package session

import "time"

// Roles recognised by the backend.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleInstructor = "instructor"
	RoleStudent    = "student"
	RoleIQA        = "iqa"
	RoleEQA        = "eqa"
)

// UserInfo is the cached profile of the signed-in user as returned by
// /users/api/profile/.
type UserInfo struct {
	ID        int64  `yaml:"id" json:"id"`
	Username  string `yaml:"username,omitempty" json:"username,omitempty"`
	Email     string `yaml:"email" json:"email"`
	FirstName string `yaml:"first_name,omitempty" json:"first_name,omitempty"`
	LastName  string `yaml:"last_name,omitempty" json:"last_name,omitempty"`
	Role      string `yaml:"role,omitempty" json:"role,omitempty"`
}

// DisplayName returns "First Last", falling back to the username or email.
func (u *UserInfo) DisplayName() string {
	if u == nil {
		return ""
	}
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name != "" {
		return name
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// Session is the persisted authentication state.
type Session struct {
	AccessToken  string    `yaml:"access_token,omitempty"`
	RefreshToken string    `yaml:"refresh_token,omitempty"`
	User         *UserInfo `yaml:"user,omitempty"`
	UpdatedAt    time.Time `yaml:"updated_at,omitempty"`
}

// Authenticated reports whether an access token is present.
func (s Session) Authenticated() bool {
	return s.AccessToken != ""
}

// CanRefresh reports whether a refresh token is present.
func (s Session) CanRefresh() bool {
	return s.RefreshToken != ""
}

// IsSuperAdmin reports whether the cached user has the super_admin role.
func (s Session) IsSuperAdmin() bool {
	return s.User != nil && s.User.Role == RoleSuperAdmin
}

// Store is the single owner of session state.
type Store interface {
	// Init loads any previously persisted state. Call once at startup.
	Init() error
	// Get returns a copy of the current session.
	Get() Session
	// Set replaces the session.
	Set(Session) error
	// SetAccessToken replaces only the access token (after a refresh).
	SetAccessToken(token string) error
	// Clear removes all credentials and the cached user.
	Clear() error
	// Teardown clears state and releases any resources. Call on logout.
	Teardown() error
}

func clone(s Session) Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
