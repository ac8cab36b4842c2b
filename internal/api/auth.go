package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/muurk/lmsadmin/internal/apiclient"
	"github.com/muurk/lmsadmin/internal/logging"
	"github.com/muurk/lmsadmin/internal/session"
)

// AuthAPI covers token, profile and password endpoints under /users/api/.
type AuthAPI struct {
	c *apiclient.Client
}

// Login obtains a token pair, then caches the caller's profile in the
// session store.
func (a *AuthAPI) Login(ctx context.Context, email, password string) (*User, error) {
	if err := a.c.Login(ctx, email, password); err != nil {
		return nil, err
	}

	profile, err := a.Profile(ctx)
	if err != nil {
		return nil, fmt.Errorf("logged in but failed to load profile: %w", err)
	}

	if a.c.Store != nil {
		s := a.c.Store.Get()
		s.User = ToUserInfo(profile)
		if err := a.c.Store.Set(s); err != nil {
			return nil, fmt.Errorf("failed to store profile: %w", err)
		}
	}
	return &profile, nil
}

// Logout blacklists the refresh token on the backend and tears down the
// local session. Local state is cleared even when the backend call fails.
func (a *AuthAPI) Logout(ctx context.Context) error {
	var callErr error
	if a.c.Store != nil {
		if rt := a.c.Store.Get().RefreshToken; rt != "" {
			_, callErr = a.c.Do(ctx, apiclient.Request{
				Method: http.MethodPost,
				Path:   "/users/api/logout/",
				Body:   map[string]string{"refresh": rt},
			})
		}
		if err := a.c.Store.Teardown(); err != nil {
			return err
		}
	}
	if callErr != nil {
		logging.Warn("backend logout failed; local session cleared anyway")
	}
	return callErr
}

// Refresh exchanges a refresh token for a new access token without touching
// the store. The client refreshes automatically; this is for diagnostics.
func (a *AuthAPI) Refresh(ctx context.Context, refreshToken string) (Record, error) {
	return send[Record](ctx, a.c, http.MethodPost, apiclient.RefreshPath, map[string]string{"refresh": refreshToken}, false)
}

// Profile returns the signed-in user.
func (a *AuthAPI) Profile(ctx context.Context) (User, error) {
	return get[User](ctx, a.c, "/users/api/profile/", nil)
}

// Register creates an account.
func (a *AuthAPI) Register(ctx context.Context, body any) (User, error) {
	return send[User](ctx, a.c, http.MethodPost, "/users/api/register/", body, false)
}

// VerifyToken checks an access token.
func (a *AuthAPI) VerifyToken(ctx context.Context, token string) error {
	_, err := send[Record](ctx, a.c, http.MethodPost, "/users/api/token/verify/", map[string]string{"token": token}, false)
	return err
}

// ChangePassword changes the signed-in user's password.
func (a *AuthAPI) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	_, err := send[Record](ctx, a.c, http.MethodPost, "/users/api/change-password/", map[string]string{
		"old_password": oldPassword,
		"new_password": newPassword,
	}, false)
	return err
}

// ResetPassword sends a reset email.
func (a *AuthAPI) ResetPassword(ctx context.Context, email string) error {
	_, err := send[Record](ctx, a.c, http.MethodPost, "/users/api/reset-password/", map[string]string{"email": email}, false)
	return err
}

// ConfirmResetPassword completes a reset with the emailed token.
func (a *AuthAPI) ConfirmResetPassword(ctx context.Context, body any) error {
	_, err := send[Record](ctx, a.c, http.MethodPost, "/users/api/reset-password/confirm/", body, false)
	return err
}

// ToUserInfo converts a profile to the cached session form.
func ToUserInfo(u User) *session.UserInfo {
	return &session.UserInfo{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
	}
}
