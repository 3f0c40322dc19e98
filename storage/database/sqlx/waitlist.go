package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Smarcastic/studesq-mvp/core"
	"github.com/Smarcastic/studesq-mvp/core/waitlist"
	"github.com/Smarcastic/studesq-mvp/storage/database"
)

type waitlistRepository struct {
	baseRepo
}

var _ waitlist.Repository = (*waitlistRepository)(nil) // interface compliance check

func NewWaitlistRepository(db *sqlx.DB) *waitlistRepository {
	return &waitlistRepository{baseRepo{db: db}}
}

func (repo waitlistRepository) GetSignupByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (waitlist.Signup, error) {
	var s waitlist.Signup
	err := sqlx.GetContext(ctx, repo.getExec(exec), &s,
		`SELECT id, email, created_at FROM waitlist_signups WHERE email = $1`, email)
	if err != nil {
		return waitlist.Signup{}, trapNoRowsErr(err, waitlist.ErrNotFound, "finding waitlist signup")
	}
	s.CreatedAt = s.CreatedAt.UTC()
	return s, nil
}

func (repo waitlistRepository) CreateSignup(ctx context.Context, s waitlist.Signup, exec ...core.DBExecutor) (waitlist.Signup, error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	s.CreatedAt = s.CreatedAt.UTC()
	_, err := sqlx.NamedExecContext(ctx, repo.getExec(exec),
		`INSERT INTO waitlist_signups (id, email, created_at) VALUES (:id, :email, :created_at)`, s)
	if err != nil {
		if database.IsUniqueViolation(err, database.WaitlistSignupsEmailKey) {
			return waitlist.Signup{}, waitlist.ErrEmailExists
		}
		return waitlist.Signup{}, errors.Wrap(err, "inserting waitlist signup")
	}
	return s, nil
}
