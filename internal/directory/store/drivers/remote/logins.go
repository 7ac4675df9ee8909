package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/crewdir/crewdir/internal/directory/domain"
	"github.com/crewdir/crewdir/pkg/dirapi"
)

type loginsRepo struct {
	s *Store
}

func (r *loginsRepo) AddLogin(ctx context.Context, u *domain.User, binding domain.LoginBinding) error {
	return r.s.do(ctx, http.MethodPost, userPath(u.ID)+"/logins",
		dirapi.LoginFromDomain(binding), nil, http.StatusCreated)
}

func (r *loginsRepo) RemoveLogin(ctx context.Context, u *domain.User, provider, providerKey string) error {
	return r.s.do(ctx, http.MethodDelete,
		userPath(u.ID)+"/logins/"+url.PathEscape(provider)+"/"+url.PathEscape(providerKey),
		nil, nil, http.StatusNoContent)
}

func (r *loginsRepo) GetLogins(ctx context.Context, u *domain.User) ([]domain.LoginBinding, error) {
	var out dirapi.LoginsResponse
	err := r.s.do(ctx, http.MethodGet, userPath(u.ID)+"/logins", nil, &out, http.StatusOK)
	if err != nil {
		return nil, err
	}

	if len(out.Logins) == 0 {
		return nil, nil
	}
	bindings := make([]domain.LoginBinding, len(out.Logins))
	for i, b := range out.Logins {
		bindings[i] = b.ToDomain()
	}
	return bindings, nil
}

func (r *loginsRepo) GetUserByLogin(ctx context.Context, provider, providerKey string) (domain.User, error) {
	var out dirapi.User
	err := r.s.do(ctx, http.MethodGet,
		"/v1/lookup/users/by-login/"+url.PathEscape(provider)+"/"+url.PathEscape(providerKey),
		nil, &out, http.StatusOK)
	if err != nil {
		return domain.User{}, err
	}
	return out.ToDomain(), nil
}
