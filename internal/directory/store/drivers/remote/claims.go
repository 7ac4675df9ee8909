package remote

import (
	"context"
	"net/http"

	"github.com/crewdir/crewdir/internal/directory/domain"
	"github.com/crewdir/crewdir/pkg/dirapi"
)

type claimsRepo struct {
	s *Store
}

func (r *claimsRepo) GetClaims(ctx context.Context, u *domain.User) ([]domain.Claim, error) {
	var out dirapi.ClaimsResponse
	err := r.s.do(ctx, http.MethodGet, userPath(u.ID)+"/claims", nil, &out, http.StatusOK)
	if err != nil {
		return nil, err
	}

	if len(out.Claims) == 0 {
		return nil, nil
	}
	return dirapi.ClaimsToDomain(out.Claims), nil
}

func (r *claimsRepo) AddClaims(ctx context.Context, u *domain.User, claims []domain.Claim) error {
	return r.s.do(ctx, http.MethodPost, userPath(u.ID)+"/claims",
		dirapi.AddClaimsRequest{Claims: dirapi.ClaimsFromDomain(claims)},
		nil, http.StatusNoContent)
}

func (r *claimsRepo) RemoveClaims(ctx context.Context, u *domain.User, claims []domain.Claim) error {
	return r.s.do(ctx, http.MethodPost, userPath(u.ID)+"/claims/remove",
		dirapi.RemoveClaimsRequest{Claims: dirapi.ClaimsFromDomain(claims)},
		nil, http.StatusNoContent)
}

func (r *claimsRepo) ReplaceClaim(ctx context.Context, u *domain.User, oldClaim, newClaim domain.Claim) error {
	return r.s.do(ctx, http.MethodPost, userPath(u.ID)+"/claims/replace",
		dirapi.ReplaceClaimRequest{
			Old: dirapi.ClaimFromDomain(oldClaim),
			New: dirapi.ClaimFromDomain(newClaim),
		},
		nil, http.StatusNoContent)
}

func (r *claimsRepo) GetUsersForClaim(ctx context.Context, claim domain.Claim) ([]domain.User, error) {
	var out dirapi.UsersResponse
	err := r.s.do(ctx, http.MethodPost, "/v1/claims/users",
		dirapi.ClaimFromDomain(claim), &out, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return usersToDomain(out.Users), nil
}
