package waitlist

import (
	"context"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/Smarcastic/studesq-mvp/core"
)

var (
	// errors
	ErrNotFound    = errors.New("waitlist signup not found")
	ErrEmailExists = errors.New("email already on the waitlist")
)

// Messages
const (
	MsgNotStored     = "Thanks for your interest! (Demo mode - email not stored)"
	MsgAlreadyExists = "You're already on the waitlist!"
	MsgJoined        = "Successfully added to waitlist!"
)

type Signup struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type JoinRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (jr *JoinRequest) Validate(validate *validator.Validate) error {
	jr.Email = core.CleanString(jr.Email, true /* lower */)
	return validate.Struct(jr)
}

type Result struct {
	Email         string `json:"email"`
	Stored        bool   `json:"stored"`
	AlreadyExists bool   `json:"alreadyExists,omitempty"`
}

// Message returns the user facing message matching the result.
func (r Result) Message() string {
	switch {
	case !r.Stored:
		return MsgNotStored
	case r.AlreadyExists:
		return MsgAlreadyExists
	default:
		return MsgJoined
	}
}

type (
	Repository interface {
		GetSignupByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (Signup, error)
		// CreateSignup returns ErrEmailExists when the email is already stored.
		CreateSignup(ctx context.Context, s Signup, exec ...core.DBExecutor) (Signup, error)
	}

	ServiceInterface interface {
		Join(ctx context.Context, email string) (Result, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		logger  core.Logger
		store   bool
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, logger core.Logger, conf *core.Config) *Service {
	return &Service{
		repo:    repo,
		mailSvc: mailSvc,
		logger:  logger,
		store:   conf.Features.WaitlistStore,
	}
}

// Join adds a validated email to the waitlist. It is idempotent on the email.
func (svc *Service) Join(ctx context.Context, email string) (Result, error) {
	if !svc.store {
		svc.logger.Info("waitlist signup (not stored): " + email)
		return Result{Email: email}, nil
	}

	res := Result{Email: email, Stored: true}
	_, err := svc.repo.GetSignupByEmail(ctx, email)
	if err == nil {
		res.AlreadyExists = true
		return res, nil
	}
	if errors.Cause(err) != ErrNotFound {
		return Result{}, errors.Wrap(err, "finding waitlist signup")
	}

	if _, err = svc.repo.CreateSignup(ctx, Signup{Email: email, CreatedAt: time.Now().UTC()}); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			res.AlreadyExists = true
			return res, nil
		}
		return Result{}, errors.Wrap(err, "creating waitlist signup")
	}
	svc.logger.Info("waitlist signup: " + email)

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Address: email}},
		Subject:      "You're on the waitlist",
		TemplateName: "waitlist_joined",
		TemplateData: map[string]string{"Email": email},
	})
	return res, nil
}
