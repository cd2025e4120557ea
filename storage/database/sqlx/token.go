package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/token"
)

type tokenRepository struct {
	db *sqlx.DB
}

var _ token.Repository = (*tokenRepository)(nil) // interface compliance check

func NewTokenRepository(db *sql.DB, driverName string) token.Repository {
	return &tokenRepository{db: sqlx.NewDb(db, driverName)}
}

func (repo *tokenRepository) CreateResetToken(ctx context.Context, rt token.ResetToken) error {
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO password_reset_token (token, email, expires_at, used, created_at)
		 VALUES (:token, :email, :expires_at, :used, :created_at)`,
		rt,
	)
	return errors.Wrap(err, "inserting reset token")
}

func (repo *tokenRepository) GetValidResetToken(ctx context.Context, tok string) (token.ResetToken, error) {
	var rt token.ResetToken
	err := repo.db.GetContext(ctx, &rt,
		`SELECT * FROM password_reset_token WHERE token = $1 AND used = false AND expires_at > now()`,
		tok,
	)
	if err != nil {
		return token.ResetToken{}, errors.Wrap(err, "querying reset token")
	}
	return rt, nil
}

// ConsumeResetToken is a guarded conditional update: the used=false predicate
// makes flipping the flag atomic per row, and a second call a no-op.
func (repo *tokenRepository) ConsumeResetToken(ctx context.Context, tok string) error {
	_, err := repo.db.ExecContext(ctx,
		`UPDATE password_reset_token SET used = true WHERE token = $1 AND used = false`,
		tok,
	)
	return errors.Wrap(err, "consuming reset token")
}

func (repo *tokenRepository) CreateInvitation(ctx context.Context, inv token.Invitation) error {
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO user_invitation (token, email, name, role, created_by, expires_at, used, created_at)
		 VALUES (:token, :email, :name, :role, :created_by, :expires_at, :used, :created_at)`,
		inv,
	)
	return errors.Wrap(err, "inserting invitation")
}

func (repo *tokenRepository) GetValidInvitation(ctx context.Context, tok string) (token.Invitation, error) {
	var inv token.Invitation
	err := repo.db.GetContext(ctx, &inv,
		`SELECT * FROM user_invitation WHERE token = $1 AND used = false AND expires_at > now()`,
		tok,
	)
	if err != nil {
		return token.Invitation{}, errors.Wrap(err, "querying invitation")
	}
	return inv, nil
}

func (repo *tokenRepository) ConsumeInvitation(ctx context.Context, tok string) error {
	_, err := repo.db.ExecContext(ctx,
		`UPDATE user_invitation SET used = true WHERE token = $1 AND used = false`,
		tok,
	)
	return errors.Wrap(err, "consuming invitation")
}
