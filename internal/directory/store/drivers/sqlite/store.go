package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/crewdir/crewdir/internal/directory/domain"
	"github.com/crewdir/crewdir/internal/directory/store"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Store implements the directory store contract directly against SQLite.
// It is the sole writer of record: uniqueness invariants live in the schema
// and multi-step mutations run inside a transaction.
type Store struct {
	db  *sql.DB
	dsn string
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// SQLite has a single writer anyway; one pooled connection keeps the
	// pragma below in force everywhere and makes :memory: databases safe.
	db.SetMaxOpenConns(1)

	// Enforce FKs so user deletion cascades to memberships, claims and logins.
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, dsn: dsn}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Users() store.Users   { return &usersRepo{s: s} }
func (s *Store) Roles() store.Roles   { return &rolesRepo{s: s} }
func (s *Store) Claims() store.Claims { return &claimsRepo{s: s} }
func (s *Store) Logins() store.Logins { return &loginsRepo{s: s} }

// withTx executes fn within a transaction, automatically handling
// commit/rollback. Structural failures roll the whole mutation back so no
// partial write is ever visible.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback() // safe to call even after commit
	}()

	if err := fn(tx); err != nil {
		return err // rollback happens in defer
	}

	return tx.Commit()
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// mapConstraint translates SQLite constraint violations into the contract's
// conflict sentinels.
func mapConstraint(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return store.ErrAlreadyExists
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return store.ErrConflict
		}
	}
	return err
}

func mapOptionalTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func mapNullTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	val := nt.Time
	return &val
}

type rowScanner interface {
	Scan(dest ...any) error
}

const userColumns = `id, username, normalized_username, password_hash,
	email, normalized_email, email_confirmed,
	phone_number, phone_confirmed,
	two_factor_enabled, lockout_enabled, lockout_end, access_failed_count,
	first_name, last_name, patronymic, position, birthday, address,
	created_at, updated_at`

const prefixedUserColumns = `u.id, u.username, u.normalized_username, u.password_hash,
	u.email, u.normalized_email, u.email_confirmed,
	u.phone_number, u.phone_confirmed,
	u.two_factor_enabled, u.lockout_enabled, u.lockout_end, u.access_failed_count,
	u.first_name, u.last_name, u.patronymic, u.position, u.birthday, u.address,
	u.created_at, u.updated_at`

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u        domain.User
		lockout  sql.NullTime
		birthday sql.NullTime
	)

	err := row.Scan(
		&u.ID, &u.Username, &u.NormalizedUsername, &u.PasswordHash,
		&u.Email, &u.NormalizedEmail, &u.EmailConfirmed,
		&u.PhoneNumber, &u.PhoneConfirmed,
		&u.TwoFactorEnabled, &u.LockoutEnabled, &lockout, &u.AccessFailedCount,
		&u.FirstName, &u.LastName, &u.Patronymic, &u.Position, &birthday, &u.Address,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}

	u.LockoutEnd = mapNullTimePtr(lockout)
	u.Birthday = mapNullTimePtr(birthday)
	return u, nil
}

func scanUsers(rows *sql.Rows) ([]domain.User, error) {
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func scanRole(row rowScanner) (domain.Role, error) {
	var r domain.Role
	err := row.Scan(&r.ID, &r.Name, &r.NormalizedName, &r.Description, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return domain.Role{}, err
	}
	return r, nil
}
