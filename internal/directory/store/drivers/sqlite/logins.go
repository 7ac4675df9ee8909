package sqlite

import (
	"context"

	"github.com/crewdir/crewdir/internal/directory/domain"
)

type loginsRepo struct {
	s *Store
}

// AddLogin binds (provider, key) to the user. The pair is the table's
// primary key, so a binding held by any user - including this one - maps to
// ErrAlreadyExists.
func (r *loginsRepo) AddLogin(ctx context.Context, u *domain.User, binding domain.LoginBinding) error {
	_, err := r.s.db.ExecContext(ctx, `
		INSERT INTO user_logins (login_provider, provider_key, display_name, user_id)
		VALUES (?, ?, ?, ?)`,
		binding.Provider, binding.ProviderKey, binding.DisplayName, u.ID)
	return mapConstraint(err)
}

func (r *loginsRepo) RemoveLogin(ctx context.Context, u *domain.User, provider, providerKey string) error {
	_, err := r.s.db.ExecContext(ctx, `
		DELETE FROM user_logins
		WHERE login_provider = ? AND provider_key = ? AND user_id = ?`,
		provider, providerKey, u.ID)
	return err
}

func (r *loginsRepo) GetLogins(ctx context.Context, u *domain.User) ([]domain.LoginBinding, error) {
	rows, err := r.s.db.QueryContext(ctx, `
		SELECT login_provider, provider_key, display_name
		FROM user_logins
		WHERE user_id = ?
		ORDER BY login_provider, provider_key`,
		u.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bindings []domain.LoginBinding
	for rows.Next() {
		var b domain.LoginBinding
		if err := rows.Scan(&b.Provider, &b.ProviderKey, &b.DisplayName); err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}
	return bindings, rows.Err()
}

func (r *loginsRepo) GetUserByLogin(ctx context.Context, provider, providerKey string) (domain.User, error) {
	row := r.s.db.QueryRowContext(ctx, `
		SELECT `+prefixedUserColumns+`
		FROM users u
		JOIN user_logins ul ON ul.user_id = u.id
		WHERE ul.login_provider = ? AND ul.provider_key = ?`,
		provider, providerKey)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}
