package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/crewdir/crewdir/internal/directory/domain"
	"github.com/crewdir/crewdir/internal/directory/store"
)

type usersRepo struct {
	s *Store
}

func (r *usersRepo) CreateUser(ctx context.Context, u *domain.User) error {
	now := time.Now().UTC()
	_, err := r.s.db.ExecContext(ctx, `
		INSERT INTO users (
			id, username, normalized_username, password_hash,
			email, normalized_email, email_confirmed,
			phone_number, phone_confirmed,
			two_factor_enabled, lockout_enabled, lockout_end, access_failed_count,
			first_name, last_name, patronymic, position, birthday, address,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.NormalizedUsername, u.PasswordHash,
		u.Email, u.NormalizedEmail, u.EmailConfirmed,
		u.PhoneNumber, u.PhoneConfirmed,
		u.TwoFactorEnabled, u.LockoutEnabled, mapOptionalTime(u.LockoutEnd), u.AccessFailedCount,
		u.FirstName, u.LastName, u.Patronymic, u.Position, mapOptionalTime(u.Birthday), u.Address,
		now, now,
	)
	if err != nil {
		return mapConstraint(err)
	}

	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

func (r *usersRepo) UpdateUser(ctx context.Context, u *domain.User) error {
	now := time.Now().UTC()
	res, err := r.s.db.ExecContext(ctx, `
		UPDATE users SET
			username = ?, normalized_username = ?, password_hash = ?,
			email = ?, normalized_email = ?, email_confirmed = ?,
			phone_number = ?, phone_confirmed = ?,
			two_factor_enabled = ?, lockout_enabled = ?, lockout_end = ?, access_failed_count = ?,
			first_name = ?, last_name = ?, patronymic = ?, position = ?, birthday = ?, address = ?,
			updated_at = ?
		WHERE id = ?`,
		u.Username, u.NormalizedUsername, u.PasswordHash,
		u.Email, u.NormalizedEmail, u.EmailConfirmed,
		u.PhoneNumber, u.PhoneConfirmed,
		u.TwoFactorEnabled, u.LockoutEnabled, mapOptionalTime(u.LockoutEnd), u.AccessFailedCount,
		u.FirstName, u.LastName, u.Patronymic, u.Position, mapOptionalTime(u.Birthday), u.Address,
		now, u.ID,
	)
	if err != nil {
		return mapConstraint(err)
	}
	if err := requireRow(res); err != nil {
		return err
	}

	u.UpdatedAt = now
	return nil
}

func (r *usersRepo) DeleteUser(ctx context.Context, u *domain.User) error {
	res, err := r.s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, u.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByNormalizedUsername(ctx context.Context, normalized string) (domain.User, error) {
	row := r.s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE normalized_username = ?`, normalized)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

// GetUserByNormalizedEmail returns the first match ordered by id. Email is
// not unique, so with duplicates the winner is simply the lowest ULID.
func (r *usersRepo) GetUserByNormalizedEmail(ctx context.Context, normalized string) (domain.User, error) {
	row := r.s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE normalized_email = ? ORDER BY id LIMIT 1`, normalized)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUsername(ctx context.Context, u *domain.User) (string, error) {
	return r.getString(ctx, u.ID, `SELECT username FROM users WHERE id = ?`)
}

func (r *usersRepo) SetUsername(ctx context.Context, u *domain.User, username string) error {
	now, err := r.set(ctx, u, `UPDATE users SET username = ?, updated_at = ? WHERE id = ?`, username)
	if err != nil {
		return err
	}
	u.Username = username
	u.UpdatedAt = now
	return nil
}

func (r *usersRepo) GetNormalizedUsername(ctx context.Context, u *domain.User) (string, error) {
	return r.getString(ctx, u.ID, `SELECT normalized_username FROM users WHERE id = ?`)
}

func (r *usersRepo) SetNormalizedUsername(ctx context.Context, u *domain.User, normalized string) error {
	now, err := r.set(ctx, u,
		`UPDATE users SET normalized_username = ?, updated_at = ? WHERE id = ?`, normalized)
	if err != nil {
		return err
	}
	u.NormalizedUsername = normalized
	u.UpdatedAt = now
	return nil
}

func (r *usersRepo) GetPasswordHash(ctx context.Context, u *domain.User) (string, error) {
	return r.getString(ctx, u.ID, `SELECT password_hash FROM users WHERE id = ?`)
}

func (r *usersRepo) SetPasswordHash(ctx context.Context, u *domain.User, hash string) error {
	now, err := r.set(ctx, u, `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`, hash)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.UpdatedAt = now
	return nil
}

func (r *usersRepo) HasPassword(ctx context.Context, u *domain.User) (bool, error) {
	hash, err := r.GetPasswordHash(ctx, u)
	if err != nil {
		return false, err
	}
	return hash != "", nil
}

func (r *usersRepo) GetEmail(ctx context.Context, u *domain.User) (string, error) {
	return r.getString(ctx, u.ID, `SELECT email FROM users WHERE id = ?`)
}

func (r *usersRepo) SetEmail(ctx context.Context, u *domain.User, email string) error {
	now, err := r.set(ctx, u, `UPDATE users SET email = ?, updated_at = ? WHERE id = ?`, email)
	if err != nil {
		return err
	}
	u.Email = email
	u.UpdatedAt = now
	return nil
}

func (r *usersRepo) GetNormalizedEmail(ctx context.Context, u *domain.User) (string, error) {
	return r.getString(ctx, u.ID, `SELECT normalized_email FROM users WHERE id = ?`)
}

func (r *usersRepo) SetNormalizedEmail(ctx context.Context, u *domain.User, normalized string) error {
	now, err := r.set(ctx, u,
		`UPDATE users SET normalized_email = ?, updated_at = ? WHERE id = ?`, normalized)
	if err != nil {
		return err
	}
	u.NormalizedEmail = normalized
	u.UpdatedAt = now
	return nil
}

func (r *usersRepo) GetEmailConfirmed(ctx context.Context, u *domain.User) (bool, error) {
	return r.getBool(ctx, u.ID, `SELECT email_confirmed FROM users WHERE id = ?`)
}

func (r *usersRepo) SetEmailConfirmed(ctx context.Context, u *domain.User, confirmed bool) error {
	now, err := r.set(ctx, u,
		`UPDATE users SET email_confirmed = ?, updated_at = ? WHERE id = ?`, confirmed)
	if err != nil {
		return err
	}
	u.EmailConfirmed = confirmed
	u.UpdatedAt = now
	return nil
}

func (r *usersRepo) GetPhoneNumber(ctx context.Context, u *domain.User) (string, error) {
	return r.getString(ctx, u.ID, `SELECT phone_number FROM users WHERE id = ?`)
}

func (r *usersRepo) SetPhoneNumber(ctx context.Context, u *domain.User, phone string) error {
	now, err := r.set(ctx, u, `UPDATE users SET phone_number = ?, updated_at = ? WHERE id = ?`, phone)
	if err != nil {
		return err
	}
	u.PhoneNumber = phone
	u.UpdatedAt = now
	return nil
}

func (r *usersRepo) GetPhoneConfirmed(ctx context.Context, u *domain.User) (bool, error) {
	return r.getBool(ctx, u.ID, `SELECT phone_confirmed FROM users WHERE id = ?`)
}

func (r *usersRepo) SetPhoneConfirmed(ctx context.Context, u *domain.User, confirmed bool) error {
	now, err := r.set(ctx, u,
		`UPDATE users SET phone_confirmed = ?, updated_at = ? WHERE id = ?`, confirmed)
	if err != nil {
		return err
	}
	u.PhoneConfirmed = confirmed
	u.UpdatedAt = now
	return nil
}

func (r *usersRepo) GetTwoFactorEnabled(ctx context.Context, u *domain.User) (bool, error) {
	return r.getBool(ctx, u.ID, `SELECT two_factor_enabled FROM users WHERE id = ?`)
}

func (r *usersRepo) SetTwoFactorEnabled(ctx context.Context, u *domain.User, enabled bool) error {
	now, err := r.set(ctx, u,
		`UPDATE users SET two_factor_enabled = ?, updated_at = ? WHERE id = ?`, enabled)
	if err != nil {
		return err
	}
	u.TwoFactorEnabled = enabled
	u.UpdatedAt = now
	return nil
}

func (r *usersRepo) GetLockoutEnd(ctx context.Context, u *domain.User) (*time.Time, error) {
	var end sql.NullTime
	err := r.s.db.QueryRowContext(ctx,
		`SELECT lockout_end FROM users WHERE id = ?`, u.ID).Scan(&end)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return mapNullTimePtr(end), nil
}

func (r *usersRepo) SetLockoutEnd(ctx context.Context, u *domain.User, end *time.Time) error {
	now, err := r.set(ctx, u,
		`UPDATE users SET lockout_end = ?, updated_at = ? WHERE id = ?`, mapOptionalTime(end))
	if err != nil {
		return err
	}
	u.LockoutEnd = end
	u.UpdatedAt = now
	return nil
}

func (r *usersRepo) GetLockoutEnabled(ctx context.Context, u *domain.User) (bool, error) {
	return r.getBool(ctx, u.ID, `SELECT lockout_enabled FROM users WHERE id = ?`)
}

func (r *usersRepo) SetLockoutEnabled(ctx context.Context, u *domain.User, enabled bool) error {
	now, err := r.set(ctx, u,
		`UPDATE users SET lockout_enabled = ?, updated_at = ? WHERE id = ?`, enabled)
	if err != nil {
		return err
	}
	u.LockoutEnabled = enabled
	u.UpdatedAt = now
	return nil
}

func (r *usersRepo) GetAccessFailedCount(ctx context.Context, u *domain.User) (int, error) {
	var count int
	err := r.s.db.QueryRowContext(ctx,
		`SELECT access_failed_count FROM users WHERE id = ?`, u.ID).Scan(&count)
	if err != nil {
		return 0, mapNotFound(err)
	}
	return count, nil
}

// IncrementAccessFailedCount bumps the counter in one statement so
// concurrent increments never lose updates. The counter is bookkeeping,
// not an edit, so updated_at is left alone.
func (r *usersRepo) IncrementAccessFailedCount(ctx context.Context, u *domain.User) (int, error) {
	var count int
	err := r.s.db.QueryRowContext(ctx, `
		UPDATE users
		SET access_failed_count = access_failed_count + 1
		WHERE id = ?
		RETURNING access_failed_count`,
		u.ID).Scan(&count)
	if err != nil {
		return 0, mapNotFound(err)
	}

	u.AccessFailedCount = count
	return count, nil
}

func (r *usersRepo) ResetAccessFailedCount(ctx context.Context, u *domain.User) error {
	now, err := r.set(ctx, u,
		`UPDATE users SET access_failed_count = ?, updated_at = ? WHERE id = ?`, 0)
	if err != nil {
		return err
	}
	u.AccessFailedCount = 0
	u.UpdatedAt = now
	return nil
}

// AddToRole links the user to an existing role. The role lookup and the
// membership insert run in one transaction so a concurrently deleted role
// cannot leave a dangling membership.
func (r *usersRepo) AddToRole(ctx context.Context, u *domain.User, roleName string) error {
	normalized := domain.Normalize(roleName)

	return r.s.withTx(ctx, func(tx *sql.Tx) error {
		var roleID string
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM roles WHERE normalized_name = ?`, normalized).Scan(&roleID)
		if err != nil {
			if err == sql.ErrNoRows {
				return fmt.Errorf("%w: no such role %q", store.ErrConflict, roleName)
			}
			return err
		}

		// Re-adding an existing membership is a no-op.
		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO user_roles (user_id, role_id) VALUES (?, ?)`, u.ID, roleID)
		return mapConstraint(err)
	})
}

func (r *usersRepo) RemoveFromRole(ctx context.Context, u *domain.User, roleName string) error {
	_, err := r.s.db.ExecContext(ctx, `
		DELETE FROM user_roles
		WHERE user_id = ?
		  AND role_id IN (SELECT id FROM roles WHERE normalized_name = ?)`,
		u.ID, domain.Normalize(roleName))
	return err
}

func (r *usersRepo) GetRoles(ctx context.Context, u *domain.User) ([]string, error) {
	rows, err := r.s.db.QueryContext(ctx, `
		SELECT r.name
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = ?
		ORDER BY r.normalized_name`,
		u.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *usersRepo) IsInRole(ctx context.Context, u *domain.User, roleName string) (bool, error) {
	var in bool
	err := r.s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM user_roles ur
			JOIN roles r ON r.id = ur.role_id
			WHERE ur.user_id = ? AND r.normalized_name = ?
		)`,
		u.ID, domain.Normalize(roleName)).Scan(&in)
	if err != nil {
		return false, err
	}
	return in, nil
}

func (r *usersRepo) GetUsersInRole(ctx context.Context, roleName string) ([]domain.User, error) {
	rows, err := r.s.db.QueryContext(ctx, `
		SELECT `+prefixedUserColumns+`
		FROM users u
		JOIN user_roles ur ON ur.user_id = u.id
		JOIN roles r ON r.id = ur.role_id
		WHERE r.normalized_name = ?
		ORDER BY u.id`,
		domain.Normalize(roleName))
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

// set runs an UPDATE touching a single field plus updated_at. A missing user
// row reports ErrNotFound so setters and getters agree on absence.
func (r *usersRepo) set(ctx context.Context, u *domain.User, query string, value any) (time.Time, error) {
	now := time.Now().UTC()
	res, err := r.s.db.ExecContext(ctx, query, value, now, u.ID)
	if err != nil {
		return time.Time{}, mapConstraint(err)
	}
	if err := requireRow(res); err != nil {
		return time.Time{}, err
	}
	return now, nil
}

func (r *usersRepo) getString(ctx context.Context, id, query string) (string, error) {
	var v string
	if err := r.s.db.QueryRowContext(ctx, query, id).Scan(&v); err != nil {
		return "", mapNotFound(err)
	}
	return v, nil
}

func (r *usersRepo) getBool(ctx context.Context, id, query string) (bool, error) {
	var v bool
	if err := r.s.db.QueryRowContext(ctx, query, id).Scan(&v); err != nil {
		return false, mapNotFound(err)
	}
	return v, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
