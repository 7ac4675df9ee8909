package sqlite

import (
	"context"
	"database/sql"

	"github.com/crewdir/crewdir/internal/directory/domain"
)

type claimsRepo struct {
	s *Store
}

func (r *claimsRepo) GetClaims(ctx context.Context, u *domain.User) ([]domain.Claim, error) {
	rows, err := r.s.db.QueryContext(ctx, `
		SELECT claim_type, claim_value FROM user_claims
		WHERE user_id = ? ORDER BY id`,
		u.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []domain.Claim
	for rows.Next() {
		var c domain.Claim
		if err := rows.Scan(&c.Type, &c.Value); err != nil {
			return nil, err
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

// AddClaims inserts all claims in one transaction: either every claim lands
// or none do. Duplicate (type, value) pairs are allowed.
func (r *claimsRepo) AddClaims(ctx context.Context, u *domain.User, claims []domain.Claim) error {
	if len(claims) == 0 {
		return nil
	}

	return r.s.withTx(ctx, func(tx *sql.Tx) error {
		for _, c := range claims {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO user_claims (user_id, claim_type, claim_value)
				VALUES (?, ?, ?)`,
				u.ID, c.Type, c.Value)
			if err != nil {
				return mapConstraint(err)
			}
		}
		return nil
	})
}

// RemoveClaims deletes by exact (type, value) match. Claims the user does
// not hold are skipped; removing them again is a no-op, not an error.
func (r *claimsRepo) RemoveClaims(ctx context.Context, u *domain.User, claims []domain.Claim) error {
	if len(claims) == 0 {
		return nil
	}

	return r.s.withTx(ctx, func(tx *sql.Tx) error {
		for _, c := range claims {
			_, err := tx.ExecContext(ctx, `
				DELETE FROM user_claims
				WHERE user_id = ? AND claim_type = ? AND claim_value = ?`,
				u.ID, c.Type, c.Value)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceClaim rewrites every row matching oldClaim exactly. When the user
// does not hold oldClaim nothing changes and no error is reported.
func (r *claimsRepo) ReplaceClaim(ctx context.Context, u *domain.User, oldClaim, newClaim domain.Claim) error {
	_, err := r.s.db.ExecContext(ctx, `
		UPDATE user_claims SET claim_type = ?, claim_value = ?
		WHERE user_id = ? AND claim_type = ? AND claim_value = ?`,
		newClaim.Type, newClaim.Value, u.ID, oldClaim.Type, oldClaim.Value)
	return err
}

func (r *claimsRepo) GetUsersForClaim(ctx context.Context, claim domain.Claim) ([]domain.User, error) {
	rows, err := r.s.db.QueryContext(ctx, `
		SELECT DISTINCT `+prefixedUserColumns+`
		FROM users u
		JOIN user_claims uc ON uc.user_id = u.id
		WHERE uc.claim_type = ? AND uc.claim_value = ?
		ORDER BY u.id`,
		claim.Type, claim.Value)
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}
