package dummydb

import (
	"context"
	"time"

	"github.com/trezcool/darasa/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if usr, ok := repo.db.users[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.db.users {
		if usr.Email == email {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) SetUserPassword(ctx context.Context, email string, hash []byte, updatedAt time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, usr := range repo.db.users {
		if usr.Email == email {
			usr.PasswordHash = hash
			usr.UpdatedAt = updatedAt
			return nil
		}
	}
	return user.ErrNotFound
}

func (repo *userRepository) CreateSession(ctx context.Context, sess user.Session) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.sessions[sess.ID] = &sess
	return nil
}

func (repo *userRepository) GetSession(ctx context.Context, id string) (user.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sess, ok := repo.db.sessions[id]; ok {
		return *sess, nil
	}
	return user.Session{}, user.ErrNotFound
}

func (repo *userRepository) DeleteSession(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.sessions, id)
	return nil
}
