package user

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/Smarcastic/studesq-mvp/core"
)

var (
	// errors
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")
)

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		GetUserByID(ctx context.Context, id string, exec ...core.DBExecutor) (User, error)
		GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (User, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, nu NewUser) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		FindOrCreate(ctx context.Context, nu NewUser) (usr User, created bool, err error)
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create stores a new user. The caller is responsible for validating nu.
func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	nu.Clean()
	now := time.Now().UTC()
	usr, err := svc.repo.CreateUser(ctx, User{
		ID:        nu.ID,
		Email:     nu.Email,
		Name:      nu.Name,
		Role:      nu.Role,
		GoogleID:  nu.GoogleID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return User{}, core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
		}
		return User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

// FindOrCreate returns the user with nu.Email, creating it from nu when missing.
func (svc *Service) FindOrCreate(ctx context.Context, nu NewUser) (User, bool, error) {
	nu.Clean()
	usr, err := svc.repo.GetUserByEmail(ctx, nu.Email)
	if err == nil {
		return usr, false, nil
	}
	if errors.Cause(err) != ErrNotFound {
		return User{}, false, errors.Wrap(err, "finding user by email")
	}

	usr, err = svc.Create(ctx, nu)
	if err != nil {
		// lost a race against a concurrent sign-in
		if vErr, ok := errors.Cause(err).(*core.ValidationError); ok && vErr.Err == ErrEmailExists {
			usr, err = svc.repo.GetUserByEmail(ctx, nu.Email)
			return usr, false, errors.Wrap(err, "finding user by email")
		}
		return User{}, false, err
	}
	return usr, true, nil
}
