package token

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

// ErrInvalidOrExpired deliberately collapses "not found", "already used" and
// "expired": callers get one user-facing message for all three.
var ErrInvalidOrExpired = errors.New("token is invalid or has expired")

type (
	Repository interface {
		CreateResetToken(ctx context.Context, rt ResetToken) error
		// GetValidResetToken only matches an unused token expiring after now.
		GetValidResetToken(ctx context.Context, token string) (ResetToken, error)
		// ConsumeResetToken flips used=false -> true; a no-op if already used.
		ConsumeResetToken(ctx context.Context, token string) error

		CreateInvitation(ctx context.Context, inv Invitation) error
		GetValidInvitation(ctx context.Context, token string) (Invitation, error)
		ConsumeInvitation(ctx context.Context, token string) error
	}

	// Service issues, validates and single-use-consumes reset and
	// invitation tokens.
	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) IssueReset(ctx context.Context, email string) (ResetToken, error) {
	val, err := generateToken()
	if err != nil {
		return ResetToken{}, err
	}
	now := nowFunc().UTC()
	rt := ResetToken{
		Token:     val,
		Email:     core.CleanString(email, true /* lower */),
		ExpiresAt: now.Add(core.Conf.PasswordResetTimeout),
		CreatedAt: now,
	}
	if err := svc.repo.CreateResetToken(ctx, rt); err != nil {
		return ResetToken{}, errors.Wrap(err, "creating reset token")
	}
	return rt, nil
}

func (svc *Service) IssueInvitation(ctx context.Context, email, name string, role user.Role, createdBy *string) (Invitation, error) {
	val, err := generateToken()
	if err != nil {
		return Invitation{}, err
	}
	now := nowFunc().UTC()
	inv := Invitation{
		Token:     val,
		Email:     core.CleanString(email, true /* lower */),
		Name:      core.CleanString(name),
		Role:      role,
		CreatedBy: createdBy,
		ExpiresAt: now.Add(core.Conf.InvitationTimeout),
		CreatedAt: now,
	}
	if err := svc.repo.CreateInvitation(ctx, inv); err != nil {
		return Invitation{}, errors.Wrap(err, "creating invitation")
	}
	return inv, nil
}

func (svc *Service) ValidateReset(ctx context.Context, tok string) (ResetToken, error) {
	rt, err := svc.repo.GetValidResetToken(ctx, tok)
	if err != nil {
		return ResetToken{}, ErrInvalidOrExpired
	}
	return rt, nil
}

func (svc *Service) ValidateInvitation(ctx context.Context, tok string) (Invitation, error) {
	inv, err := svc.repo.GetValidInvitation(ctx, tok)
	if err != nil {
		return Invitation{}, ErrInvalidOrExpired
	}
	return inv, nil
}

func (svc *Service) ConsumeReset(ctx context.Context, tok string) error {
	return svc.repo.ConsumeResetToken(ctx, tok)
}

func (svc *Service) ConsumeInvitation(ctx context.Context, tok string) error {
	return svc.repo.ConsumeInvitation(ctx, tok)
}
