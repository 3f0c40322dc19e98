package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/Smarcastic/studesq-mvp/core"
	"github.com/Smarcastic/studesq-mvp/core/waitlist"
)

type waitlistRepository struct {
	db *waitlistTable
}

var _ waitlist.Repository = (*waitlistRepository)(nil) // interface compliance check

func NewWaitlistRepository(db *DB) waitlist.Repository {
	return &waitlistRepository{db: db.waitlist}
}

func (repo *waitlistRepository) GetSignupByEmail(_ context.Context, email string, _ ...core.DBExecutor) (waitlist.Signup, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, s := range repo.db.table {
		if s.Email == email {
			return *s, nil
		}
	}
	return waitlist.Signup{}, waitlist.ErrNotFound
}

func (repo *waitlistRepository) CreateSignup(_ context.Context, s waitlist.Signup, _ ...core.DBExecutor) (waitlist.Signup, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, orig := range repo.db.table {
		if orig.Email == s.Email {
			return waitlist.Signup{}, waitlist.ErrEmailExists
		}
	}
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	repo.db.table[s.ID] = &s
	return s, nil
}
