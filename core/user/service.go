package user

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound             = errors.New("user not found")
	ErrEmailExists          = errors.New("a user with this email already exists")
	ErrAuthenticationFailed = errors.New("invalid email or password")
)

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		// SetUserPassword updates the credential of the user matching email.
		// Email is the join key throughout the provisioning subsystem.
		SetUserPassword(ctx context.Context, email string, hash []byte, updatedAt time.Time) error
		CreateSession(ctx context.Context, sess Session) error
		GetSession(ctx context.Context, id string) (Session, error)
		DeleteSession(ctx context.Context, id string) error
	}

	// Service is the credential/profile boundary: password verification
	// never leaves it.
	Service interface {
		Create(ctx context.Context, nu NewUser) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		Authenticate(ctx context.Context, email, pwd string) (User, error)
		ResetPassword(ctx context.Context, email, pwd string) error
		OpenSession(ctx context.Context, usr User) (Session, error)
		GetSession(ctx context.Context, id string) (Session, error)
		CloseSession(ctx context.Context, id string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	if _, err := svc.repo.GetUserByEmail(ctx, nu.Email); err == nil {
		return User{}, core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
	} else if errors.Cause(err) != ErrNotFound {
		return User{}, errors.Wrap(err, "checking email uniqueness")
	}

	now := time.Now().UTC()
	usr := User{
		ID:        uuid.New().String(),
		Name:      nu.Name,
		Email:     nu.Email,
		Role:      nu.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

// Authenticate checks the raw credentials against the stored hash.
// An unknown email and a wrong password are indistinguishable to the caller.
func (svc *service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrAuthenticationFailed
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrAuthenticationFailed
	}
	return usr, nil
}

func (svc *service) ResetPassword(ctx context.Context, email, pwd string) error {
	usr := User{}
	if err := usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "setting password")
	}
	email = core.CleanString(email, true /* lower */)
	return svc.repo.SetUserPassword(ctx, email, usr.PasswordHash, time.Now().UTC())
}

func (svc *service) OpenSession(ctx context.Context, usr User) (Session, error) {
	now := time.Now().UTC()
	sess := Session{
		ID:        uuid.New().String(),
		UserID:    usr.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta),
	}
	if err := svc.repo.CreateSession(ctx, sess); err != nil {
		return Session{}, errors.Wrap(err, "creating session")
	}
	return sess, nil
}

// GetSession finds an open session; a closed one returns ErrNotFound.
func (svc *service) GetSession(ctx context.Context, id string) (Session, error) {
	return svc.repo.GetSession(ctx, id)
}

// CloseSession is idempotent: deleting an unknown session is not an error.
func (svc *service) CloseSession(ctx context.Context, id string) error {
	return svc.repo.DeleteSession(ctx, id)
}
