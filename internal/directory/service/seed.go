package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/crewdir/crewdir/internal/directory/domain"
	"github.com/crewdir/crewdir/internal/directory/store"
	"github.com/crewdir/crewdir/pkg/cryptox"
	"github.com/crewdir/crewdir/pkg/idx"
	"github.com/crewdir/crewdir/pkg/slogx"
)

const seedAdminUsername = "Admin"

// SeedService ensures the baseline directory content exists: the two
// built-in roles and the Admin account. Seeding is idempotent; anything
// already present is left untouched.
type SeedService struct {
	Store store.Store

	// AdminPassword is used when the Admin account has to be created. Left
	// empty, a random password is generated and logged once.
	AdminPassword string
}

func (s *SeedService) Seed(ctx context.Context) error {
	l := slogx.FromContext(ctx)

	if err := s.ensureRole(ctx, domain.RoleAdministrators, "Full directory access"); err != nil {
		return err
	}
	if err := s.ensureRole(ctx, domain.RoleEmployees, "Regular staff"); err != nil {
		return err
	}

	admin, err := s.ensureAdmin(ctx)
	if err != nil {
		return err
	}
	if admin == nil {
		return nil // already present, membership untouched
	}

	if err := s.Store.Users().AddToRole(ctx, admin, domain.RoleAdministrators); err != nil {
		return fmt.Errorf("seed: add admin to role: %w", err)
	}

	l.Info("seeded admin account", slog.String("user_id", admin.ID))
	return nil
}

func (s *SeedService) ensureRole(ctx context.Context, name, description string) error {
	_, err := s.Store.Roles().GetRoleByNormalizedName(ctx, domain.Normalize(name))
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("seed: look up role %q: %w", name, err)
	}

	role := domain.Role{
		ID:             idx.New().String(),
		Name:           name,
		NormalizedName: domain.Normalize(name),
		Description:    description,
	}
	if err := s.Store.Roles().CreateRole(ctx, &role); err != nil {
		// Lost a race against a concurrent seeder; the role exists now.
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil
		}
		return fmt.Errorf("seed: create role %q: %w", name, err)
	}
	return nil
}

// ensureAdmin returns the freshly created Admin user, or nil when the
// account already existed.
func (s *SeedService) ensureAdmin(ctx context.Context) (*domain.User, error) {
	l := slogx.FromContext(ctx)

	normalized := domain.Normalize(seedAdminUsername)
	_, err := s.Store.Users().GetUserByNormalizedUsername(ctx, normalized)
	if err == nil {
		return nil, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("seed: look up admin: %w", err)
	}

	password := s.AdminPassword
	if password == "" {
		password, err = cryptox.GeneratePassword()
		if err != nil {
			return nil, fmt.Errorf("seed: generate admin password: %w", err)
		}
		l.Warn("generated admin password, change it after first login",
			slog.String("password", password))
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("seed: hash admin password: %w", err)
	}

	admin := domain.User{
		ID:                 idx.New().String(),
		Username:           seedAdminUsername,
		NormalizedUsername: normalized,
		PasswordHash:       hash,
		LockoutEnabled:     true,
	}
	if err := s.Store.Users().CreateUser(ctx, &admin); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, nil
		}
		return nil, fmt.Errorf("seed: create admin: %w", err)
	}
	return &admin, nil
}
