// Package sqlxrepos implements the repositories on PostgreSQL via sqlx.
package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sql.DB, driverName string) user.Repository {
	return &userRepository{db: sqlx.NewDb(db, driverName)}
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO profile (id, name, email, role, password_hash, created_at, updated_at)
		 VALUES (:id, :name, :email, :role, :password_hash, :created_at, :updated_at)`,
		usr,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting profile")
	}
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	var usr user.User
	err := repo.db.GetContext(ctx, &usr, `SELECT * FROM profile WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return user.User{}, user.ErrNotFound
	} else if err != nil {
		return user.User{}, errors.Wrap(err, "querying profile by id")
	}
	return usr, nil
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var usr user.User
	err := repo.db.GetContext(ctx, &usr, `SELECT * FROM profile WHERE email = $1`, email)
	if err == sql.ErrNoRows {
		return user.User{}, user.ErrNotFound
	} else if err != nil {
		return user.User{}, errors.Wrap(err, "querying profile by email")
	}
	return usr, nil
}

func (repo *userRepository) SetUserPassword(ctx context.Context, email string, hash []byte, updatedAt time.Time) error {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE profile SET password_hash = $1, updated_at = $2 WHERE email = $3`,
		hash, updatedAt, email,
	)
	if err != nil {
		return errors.Wrap(err, "updating profile password")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo *userRepository) CreateSession(ctx context.Context, sess user.Session) error {
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO session (id, user_id, created_at, expires_at)
		 VALUES (:id, :user_id, :created_at, :expires_at)`,
		sess,
	)
	return errors.Wrap(err, "inserting session")
}

func (repo *userRepository) GetSession(ctx context.Context, id string) (user.Session, error) {
	var sess user.Session
	err := repo.db.GetContext(ctx, &sess, `SELECT * FROM session WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return user.Session{}, user.ErrNotFound
	} else if err != nil {
		return user.Session{}, errors.Wrap(err, "querying session by id")
	}
	return sess, nil
}

func (repo *userRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM session WHERE id = $1`, id)
	return errors.Wrap(err, "deleting session")
}
