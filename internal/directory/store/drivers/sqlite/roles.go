package sqlite

import (
	"context"
	"time"

	"github.com/crewdir/crewdir/internal/directory/domain"
)

type rolesRepo struct {
	s *Store
}

func (r *rolesRepo) CreateRole(ctx context.Context, role *domain.Role) error {
	now := time.Now().UTC()
	_, err := r.s.db.ExecContext(ctx, `
		INSERT INTO roles (id, name, normalized_name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		role.ID, role.Name, role.NormalizedName, role.Description, now, now)
	if err != nil {
		return mapConstraint(err)
	}

	role.CreatedAt = now
	role.UpdatedAt = now
	return nil
}

func (r *rolesRepo) UpdateRole(ctx context.Context, role *domain.Role) error {
	now := time.Now().UTC()
	res, err := r.s.db.ExecContext(ctx, `
		UPDATE roles SET name = ?, normalized_name = ?, description = ?, updated_at = ?
		WHERE id = ?`,
		role.Name, role.NormalizedName, role.Description, now, role.ID)
	if err != nil {
		return mapConstraint(err)
	}
	if err := requireRow(res); err != nil {
		return err
	}

	role.UpdatedAt = now
	return nil
}

// DeleteRole removes the role; memberships referencing it cascade.
func (r *rolesRepo) DeleteRole(ctx context.Context, role *domain.Role) error {
	res, err := r.s.db.ExecContext(ctx, `DELETE FROM roles WHERE id = ?`, role.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *rolesRepo) GetRoleByID(ctx context.Context, id string) (domain.Role, error) {
	row := r.s.db.QueryRowContext(ctx, `
		SELECT id, name, normalized_name, description, created_at, updated_at
		FROM roles WHERE id = ?`, id)
	role, err := scanRole(row)
	if err != nil {
		return domain.Role{}, mapNotFound(err)
	}
	return role, nil
}

func (r *rolesRepo) GetRoleByNormalizedName(ctx context.Context, normalized string) (domain.Role, error) {
	row := r.s.db.QueryRowContext(ctx, `
		SELECT id, name, normalized_name, description, created_at, updated_at
		FROM roles WHERE normalized_name = ?`, normalized)
	role, err := scanRole(row)
	if err != nil {
		return domain.Role{}, mapNotFound(err)
	}
	return role, nil
}

func (r *rolesRepo) ListRoles(ctx context.Context) ([]domain.Role, error) {
	rows, err := r.s.db.QueryContext(ctx, `
		SELECT id, name, normalized_name, description, created_at, updated_at
		FROM roles ORDER BY normalized_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}
