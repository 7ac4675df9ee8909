package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/crewdir/crewdir/internal/directory/domain"
	"github.com/crewdir/crewdir/pkg/dirapi"
)

type rolesRepo struct {
	s *Store
}

func rolePath(id string) string {
	return "/v1/roles/" + url.PathEscape(id)
}

func (r *rolesRepo) CreateRole(ctx context.Context, role *domain.Role) error {
	var created dirapi.Role
	err := r.s.do(ctx, http.MethodPost, "/v1/roles",
		dirapi.RoleFromDomain(*role), &created, http.StatusCreated)
	if err != nil {
		return err
	}

	*role = created.ToDomain()
	return nil
}

func (r *rolesRepo) UpdateRole(ctx context.Context, role *domain.Role) error {
	var updated dirapi.Role
	err := r.s.do(ctx, http.MethodPut, rolePath(role.ID),
		dirapi.RoleFromDomain(*role), &updated, http.StatusOK)
	if err != nil {
		return err
	}

	*role = updated.ToDomain()
	return nil
}

func (r *rolesRepo) DeleteRole(ctx context.Context, role *domain.Role) error {
	return r.s.do(ctx, http.MethodDelete, rolePath(role.ID), nil, nil, http.StatusNoContent)
}

func (r *rolesRepo) GetRoleByID(ctx context.Context, id string) (domain.Role, error) {
	var out dirapi.Role
	if err := r.s.do(ctx, http.MethodGet, rolePath(id), nil, &out, http.StatusOK); err != nil {
		return domain.Role{}, err
	}
	return out.ToDomain(), nil
}

func (r *rolesRepo) GetRoleByNormalizedName(ctx context.Context, normalized string) (domain.Role, error) {
	var out dirapi.Role
	err := r.s.do(ctx, http.MethodGet,
		"/v1/lookup/roles/by-name/"+url.PathEscape(normalized), nil, &out, http.StatusOK)
	if err != nil {
		return domain.Role{}, err
	}
	return out.ToDomain(), nil
}

func (r *rolesRepo) ListRoles(ctx context.Context) ([]domain.Role, error) {
	var out dirapi.ListRolesResponse
	if err := r.s.do(ctx, http.MethodGet, "/v1/roles", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}

	if len(out.Roles) == 0 {
		return nil, nil
	}
	roles := make([]domain.Role, len(out.Roles))
	for i, role := range out.Roles {
		roles[i] = role.ToDomain()
	}
	return roles, nil
}
