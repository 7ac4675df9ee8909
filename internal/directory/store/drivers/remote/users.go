package remote

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/crewdir/crewdir/internal/directory/domain"
	"github.com/crewdir/crewdir/pkg/dirapi"
)

type usersRepo struct {
	s *Store
}

func userPath(id string) string {
	return "/v1/users/" + url.PathEscape(id)
}

func (r *usersRepo) CreateUser(ctx context.Context, u *domain.User) error {
	var created dirapi.User
	err := r.s.do(ctx, http.MethodPost, "/v1/users",
		dirapi.UserFromDomain(*u), &created, http.StatusCreated)
	if err != nil {
		return err
	}

	// The server assigned the timestamps; mirror them into the caller's
	// struct the way the local driver does.
	*u = created.ToDomain()
	return nil
}

func (r *usersRepo) UpdateUser(ctx context.Context, u *domain.User) error {
	var updated dirapi.User
	err := r.s.do(ctx, http.MethodPut, userPath(u.ID),
		dirapi.UserFromDomain(*u), &updated, http.StatusOK)
	if err != nil {
		return err
	}

	*u = updated.ToDomain()
	return nil
}

func (r *usersRepo) DeleteUser(ctx context.Context, u *domain.User) error {
	return r.s.do(ctx, http.MethodDelete, userPath(u.ID), nil, nil, http.StatusNoContent)
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	var out dirapi.User
	if err := r.s.do(ctx, http.MethodGet, userPath(id), nil, &out, http.StatusOK); err != nil {
		return domain.User{}, err
	}
	return out.ToDomain(), nil
}

func (r *usersRepo) GetUserByNormalizedUsername(ctx context.Context, normalized string) (domain.User, error) {
	var out dirapi.User
	err := r.s.do(ctx, http.MethodGet,
		"/v1/lookup/users/by-name/"+url.PathEscape(normalized), nil, &out, http.StatusOK)
	if err != nil {
		return domain.User{}, err
	}
	return out.ToDomain(), nil
}

func (r *usersRepo) GetUserByNormalizedEmail(ctx context.Context, normalized string) (domain.User, error) {
	var out dirapi.User
	err := r.s.do(ctx, http.MethodGet,
		"/v1/lookup/users/by-email/"+url.PathEscape(normalized), nil, &out, http.StatusOK)
	if err != nil {
		return domain.User{}, err
	}
	return out.ToDomain(), nil
}

// getString fetches a single string field for the user.
func (r *usersRepo) getString(ctx context.Context, u *domain.User, field string) (string, error) {
	var out dirapi.StringValue
	err := r.s.do(ctx, http.MethodGet, userPath(u.ID)+"/"+field, nil, &out, http.StatusOK)
	if err != nil {
		return "", err
	}
	return out.Value, nil
}

// setString updates a single string field, then mirrors the value and the
// server-assigned updated_at into the caller's struct via apply.
func (r *usersRepo) setString(
	ctx context.Context, u *domain.User, field, value string,
	apply func(*domain.User, string),
) error {
	var out dirapi.StringValue
	err := r.s.do(ctx, http.MethodPut, userPath(u.ID)+"/"+field,
		dirapi.StringValue{Value: value}, &out, http.StatusOK)
	if err != nil {
		return err
	}

	apply(u, out.Value)
	u.UpdatedAt = out.UpdatedAt
	return nil
}

func (r *usersRepo) getBool(ctx context.Context, u *domain.User, field string) (bool, error) {
	var out dirapi.BoolValue
	err := r.s.do(ctx, http.MethodGet, userPath(u.ID)+"/"+field, nil, &out, http.StatusOK)
	if err != nil {
		return false, err
	}
	return out.Value, nil
}

func (r *usersRepo) setBool(
	ctx context.Context, u *domain.User, field string, value bool,
	apply func(*domain.User, bool),
) error {
	var out dirapi.BoolValue
	err := r.s.do(ctx, http.MethodPut, userPath(u.ID)+"/"+field,
		dirapi.BoolValue{Value: value}, &out, http.StatusOK)
	if err != nil {
		return err
	}

	apply(u, out.Value)
	u.UpdatedAt = out.UpdatedAt
	return nil
}

func (r *usersRepo) GetUsername(ctx context.Context, u *domain.User) (string, error) {
	return r.getString(ctx, u, "username")
}

func (r *usersRepo) SetUsername(ctx context.Context, u *domain.User, username string) error {
	return r.setString(ctx, u, "username", username,
		func(u *domain.User, v string) { u.Username = v })
}

func (r *usersRepo) GetNormalizedUsername(ctx context.Context, u *domain.User) (string, error) {
	return r.getString(ctx, u, "normalized-username")
}

func (r *usersRepo) SetNormalizedUsername(ctx context.Context, u *domain.User, normalized string) error {
	return r.setString(ctx, u, "normalized-username", normalized,
		func(u *domain.User, v string) { u.NormalizedUsername = v })
}

func (r *usersRepo) GetPasswordHash(ctx context.Context, u *domain.User) (string, error) {
	return r.getString(ctx, u, "password-hash")
}

func (r *usersRepo) SetPasswordHash(ctx context.Context, u *domain.User, hash string) error {
	return r.setString(ctx, u, "password-hash", hash,
		func(u *domain.User, v string) { u.PasswordHash = v })
}

func (r *usersRepo) HasPassword(ctx context.Context, u *domain.User) (bool, error) {
	return r.getBool(ctx, u, "has-password")
}

func (r *usersRepo) GetEmail(ctx context.Context, u *domain.User) (string, error) {
	return r.getString(ctx, u, "email")
}

func (r *usersRepo) SetEmail(ctx context.Context, u *domain.User, email string) error {
	return r.setString(ctx, u, "email", email,
		func(u *domain.User, v string) { u.Email = v })
}

func (r *usersRepo) GetNormalizedEmail(ctx context.Context, u *domain.User) (string, error) {
	return r.getString(ctx, u, "normalized-email")
}

func (r *usersRepo) SetNormalizedEmail(ctx context.Context, u *domain.User, normalized string) error {
	return r.setString(ctx, u, "normalized-email", normalized,
		func(u *domain.User, v string) { u.NormalizedEmail = v })
}

func (r *usersRepo) GetEmailConfirmed(ctx context.Context, u *domain.User) (bool, error) {
	return r.getBool(ctx, u, "email-confirmed")
}

func (r *usersRepo) SetEmailConfirmed(ctx context.Context, u *domain.User, confirmed bool) error {
	return r.setBool(ctx, u, "email-confirmed", confirmed,
		func(u *domain.User, v bool) { u.EmailConfirmed = v })
}

func (r *usersRepo) GetPhoneNumber(ctx context.Context, u *domain.User) (string, error) {
	return r.getString(ctx, u, "phone-number")
}

func (r *usersRepo) SetPhoneNumber(ctx context.Context, u *domain.User, phone string) error {
	return r.setString(ctx, u, "phone-number", phone,
		func(u *domain.User, v string) { u.PhoneNumber = v })
}

func (r *usersRepo) GetPhoneConfirmed(ctx context.Context, u *domain.User) (bool, error) {
	return r.getBool(ctx, u, "phone-confirmed")
}

func (r *usersRepo) SetPhoneConfirmed(ctx context.Context, u *domain.User, confirmed bool) error {
	return r.setBool(ctx, u, "phone-confirmed", confirmed,
		func(u *domain.User, v bool) { u.PhoneConfirmed = v })
}

func (r *usersRepo) GetTwoFactorEnabled(ctx context.Context, u *domain.User) (bool, error) {
	return r.getBool(ctx, u, "two-factor")
}

func (r *usersRepo) SetTwoFactorEnabled(ctx context.Context, u *domain.User, enabled bool) error {
	return r.setBool(ctx, u, "two-factor", enabled,
		func(u *domain.User, v bool) { u.TwoFactorEnabled = v })
}

func (r *usersRepo) GetLockoutEnd(ctx context.Context, u *domain.User) (*time.Time, error) {
	var out dirapi.TimeValue
	err := r.s.do(ctx, http.MethodGet, userPath(u.ID)+"/lockout-end", nil, &out, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return out.Value, nil
}

func (r *usersRepo) SetLockoutEnd(ctx context.Context, u *domain.User, end *time.Time) error {
	var out dirapi.TimeValue
	err := r.s.do(ctx, http.MethodPut, userPath(u.ID)+"/lockout-end",
		dirapi.TimeValue{Value: end}, &out, http.StatusOK)
	if err != nil {
		return err
	}

	u.LockoutEnd = out.Value
	u.UpdatedAt = out.UpdatedAt
	return nil
}

func (r *usersRepo) GetLockoutEnabled(ctx context.Context, u *domain.User) (bool, error) {
	return r.getBool(ctx, u, "lockout-enabled")
}

func (r *usersRepo) SetLockoutEnabled(ctx context.Context, u *domain.User, enabled bool) error {
	return r.setBool(ctx, u, "lockout-enabled", enabled,
		func(u *domain.User, v bool) { u.LockoutEnabled = v })
}

func (r *usersRepo) GetAccessFailedCount(ctx context.Context, u *domain.User) (int, error) {
	var out dirapi.IntValue
	err := r.s.do(ctx, http.MethodGet,
		userPath(u.ID)+"/access-failed-count", nil, &out, http.StatusOK)
	if err != nil {
		return 0, err
	}
	return out.Value, nil
}

func (r *usersRepo) IncrementAccessFailedCount(ctx context.Context, u *domain.User) (int, error) {
	var out dirapi.IntValue
	err := r.s.do(ctx, http.MethodPost,
		userPath(u.ID)+"/access-failed-count/increment", nil, &out, http.StatusOK)
	if err != nil {
		return 0, err
	}

	u.AccessFailedCount = out.Value
	return out.Value, nil
}

func (r *usersRepo) ResetAccessFailedCount(ctx context.Context, u *domain.User) error {
	var out dirapi.IntValue
	err := r.s.do(ctx, http.MethodPost,
		userPath(u.ID)+"/access-failed-count/reset", nil, &out, http.StatusOK)
	if err != nil {
		return err
	}

	u.AccessFailedCount = 0
	u.UpdatedAt = out.UpdatedAt
	return nil
}

func (r *usersRepo) AddToRole(ctx context.Context, u *domain.User, roleName string) error {
	return r.s.do(ctx, http.MethodPut,
		userPath(u.ID)+"/roles/"+url.PathEscape(roleName), nil, nil, http.StatusNoContent)
}

func (r *usersRepo) RemoveFromRole(ctx context.Context, u *domain.User, roleName string) error {
	return r.s.do(ctx, http.MethodDelete,
		userPath(u.ID)+"/roles/"+url.PathEscape(roleName), nil, nil, http.StatusNoContent)
}

func (r *usersRepo) GetRoles(ctx context.Context, u *domain.User) ([]string, error) {
	var out dirapi.RoleNamesResponse
	err := r.s.do(ctx, http.MethodGet, userPath(u.ID)+"/roles", nil, &out, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return out.Roles, nil
}

func (r *usersRepo) IsInRole(ctx context.Context, u *domain.User, roleName string) (bool, error) {
	var out dirapi.BoolValue
	err := r.s.do(ctx, http.MethodGet,
		userPath(u.ID)+"/roles/"+url.PathEscape(roleName), nil, &out, http.StatusOK)
	if err != nil {
		return false, err
	}
	return out.Value, nil
}

func (r *usersRepo) GetUsersInRole(ctx context.Context, roleName string) ([]domain.User, error) {
	var out dirapi.UsersResponse
	err := r.s.do(ctx, http.MethodGet,
		"/v1/roles/"+url.PathEscape(roleName)+"/users", nil, &out, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return usersToDomain(out.Users), nil
}
