package testutil

import (
	"context"
	"net/mail"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap/zaptest"

	"github.com/Smarcastic/studesq-mvp/core"
	"github.com/Smarcastic/studesq-mvp/core/opportunity"
	"github.com/Smarcastic/studesq-mvp/core/student"
	"github.com/Smarcastic/studesq-mvp/core/user"
	logsvc "github.com/Smarcastic/studesq-mvp/services/logger"
)

const SecretKey = "test-secret-key"

// NewConfig returns a mock mode TEST config storing uploads in a temporary directory.
func NewConfig(t *testing.T) *core.Config {
	conf := &core.Config{
		TestMode:         true,
		AppName:          "Studesq",
		Env:              "TEST",
		Build:            "test",
		SecretKey:        SecretKey,
		WorkDir:          t.TempDir(),
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: mail.Address{Name: "Studesq", Address: "noreply@studesq.test"},
	}
	conf.Auth.Mode = core.AuthModeMock
	conf.Auth.CookieName = "studesq_session"
	conf.Auth.SessionMaxAge = 24 * time.Hour
	conf.Server.Host = ":0"
	conf.Database.Engine = "inmem"
	conf.Uploads.Dir = t.TempDir()
	conf.Uploads.MaxSize = 1 << 20
	conf.Uploads.AllowedExtensions = []string{".pdf", ".jpg", ".jpeg", ".png"}
	conf.Features.EarlyFounderBadge = true
	return conf
}

func NewLogger(t *testing.T, conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(zaptest.NewLogger(t), conf)
}

// NewValidator returns a validator with every custom validation registered, and its translator.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	student.InitValidators(validate, translator)
	return validate, translator
}

func CreateUser(t *testing.T, repo user.Repository, name, email string, role user.Role, id ...string) user.User {
	now := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if len(id) > 0 {
		usr.ID = id[0]
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateProfile(t *testing.T, repo student.Repository, usr user.User) student.Profile {
	now := time.Now().UTC()
	p, err := repo.CreateProfile(context.Background(), student.Profile{
		UserID:       usr.ID,
		DisplayName:  usr.Name,
		EarlyFounder: true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateProfile() failed: %v", err)
	}
	return p
}

func LinkParent(t *testing.T, repo student.Repository, parent user.User, p student.Profile, verified bool) student.ParentLink {
	l, err := repo.SaveParentLink(context.Background(), student.ParentLink{
		ParentID:  parent.ID,
		StudentID: p.ID,
		Verified:  verified,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("LinkParent() failed: %v", err)
	}
	return l
}

func CreateAchievement(t *testing.T, repo student.Repository, p student.Profile, title string, date time.Time) student.Achievement {
	now := time.Now().UTC()
	a, err := repo.CreateAchievement(context.Background(), student.Achievement{
		StudentID:   p.ID,
		Title:       title,
		Description: title + " description",
		Type:        student.TypeAcademic,
		Date:        date.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateAchievement() failed: %v", err)
	}
	return a
}

func CreateOpportunity(t *testing.T, repo opportunity.Repository, title string, date time.Time) opportunity.Opportunity {
	o, err := repo.CreateOpportunity(context.Background(), opportunity.Opportunity{
		Title:       title,
		Description: title + " description",
		Provider:    "Studesq",
		Date:        date.UTC(),
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateOpportunity() failed: %v", err)
	}
	return o
}
