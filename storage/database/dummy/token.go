package dummydb

import (
	"context"
	"time"

	"github.com/trezcool/darasa/core/token"
)

var errTokenNotFound = token.ErrInvalidOrExpired

type tokenRepository struct {
	db      *tokenTable
	nowFunc func() time.Time
}

var _ token.Repository = (*tokenRepository)(nil) // interface compliance check

func NewTokenRepository(db *DB) token.Repository {
	return &tokenRepository{db: db.token, nowFunc: time.Now}
}

// NewTokenRepositoryAt pins "now" for expiry checks; tests use it to cross
// the expiry boundary without sleeping.
func NewTokenRepositoryAt(db *DB, nowFunc func() time.Time) token.Repository {
	return &tokenRepository{db: db.token, nowFunc: nowFunc}
}

func (repo *tokenRepository) CreateResetToken(ctx context.Context, rt token.ResetToken) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.resets[rt.Token] = &rt
	return nil
}

func (repo *tokenRepository) GetValidResetToken(ctx context.Context, tok string) (token.ResetToken, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rt, ok := repo.db.resets[tok]; ok && !rt.Used && rt.ExpiresAt.After(repo.nowFunc().UTC()) {
		return *rt, nil
	}
	return token.ResetToken{}, errTokenNotFound
}

func (repo *tokenRepository) ConsumeResetToken(ctx context.Context, tok string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if rt, ok := repo.db.resets[tok]; ok {
		rt.Used = true
	}
	return nil
}

func (repo *tokenRepository) CreateInvitation(ctx context.Context, inv token.Invitation) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.invitations[inv.Token] = &inv
	return nil
}

func (repo *tokenRepository) GetValidInvitation(ctx context.Context, tok string) (token.Invitation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if inv, ok := repo.db.invitations[tok]; ok && !inv.Used && inv.ExpiresAt.After(repo.nowFunc().UTC()) {
		return *inv, nil
	}
	return token.Invitation{}, errTokenNotFound
}

func (repo *tokenRepository) ConsumeInvitation(ctx context.Context, tok string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if inv, ok := repo.db.invitations[tok]; ok {
		inv.Used = true
	}
	return nil
}
