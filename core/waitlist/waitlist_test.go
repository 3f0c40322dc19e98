package waitlist_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Smarcastic/studesq-mvp/core"
	. "github.com/Smarcastic/studesq-mvp/core/waitlist"
	emailsvc "github.com/Smarcastic/studesq-mvp/services/email"
	inmemdb "github.com/Smarcastic/studesq-mvp/storage/database/inmem"
	"github.com/Smarcastic/studesq-mvp/tests"
)

type failingRepo struct{}

var errDBDown = errors.New("db down")

func (failingRepo) GetSignupByEmail(context.Context, string, ...core.DBExecutor) (Signup, error) {
	return Signup{}, errDBDown
}

func (failingRepo) CreateSignup(context.Context, Signup, ...core.DBExecutor) (Signup, error) {
	return Signup{}, errDBDown
}

func setup(t *testing.T, store bool, repo ...Repository) (*Service, Repository, *emailsvc.ConsoleServiceMock) {
	conf := testutil.NewConfig(t)
	conf.Features.WaitlistStore = store
	logger := testutil.NewLogger(t, conf)
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)

	var r Repository = inmemdb.NewWaitlistRepository(inmemdb.Open())
	if len(repo) > 0 {
		r = repo[0]
	}
	return NewService(r, mailSvc, logger, conf), r, mailSvc
}

func TestService_Join(t *testing.T) {
	ctx := context.Background()

	t.Run("not stored", func(t *testing.T) {
		svc, repo, mailSvc := setup(t, false)
		res, err := svc.Join(ctx, "jane@example.com")
		require.NoError(t, err)
		assert.Equal(t, Result{Email: "jane@example.com"}, res)
		assert.Equal(t, MsgNotStored, res.Message())

		_, err = repo.GetSignupByEmail(ctx, "jane@example.com")
		assert.Equal(t, ErrNotFound, errors.Cause(err))
		assert.Empty(t, mailSvc.Sent())
	})

	t.Run("stored", func(t *testing.T) {
		svc, repo, mailSvc := setup(t, true)
		res, err := svc.Join(ctx, "jane@example.com")
		require.NoError(t, err)
		assert.Equal(t, Result{Email: "jane@example.com", Stored: true}, res)
		assert.Equal(t, MsgJoined, res.Message())

		s, err := repo.GetSignupByEmail(ctx, "jane@example.com")
		require.NoError(t, err)
		assert.NotEmpty(t, s.ID)
		assert.False(t, s.CreatedAt.IsZero())

		res, err = svc.Join(ctx, "jane@example.com")
		require.NoError(t, err)
		assert.Equal(t, Result{Email: "jane@example.com", Stored: true, AlreadyExists: true}, res)
		assert.Equal(t, MsgAlreadyExists, res.Message())

		sent := mailSvc.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "jane@example.com", sent[0].To[0].Address)
		assert.Contains(t, sent[0].HTMLContent, "jane@example.com")
	})

	t.Run("storage fault", func(t *testing.T) {
		svc, _, mailSvc := setup(t, true, failingRepo{})
		_, err := svc.Join(ctx, "jane@example.com")
		assert.Equal(t, errDBDown, errors.Cause(err))
		assert.Empty(t, mailSvc.Sent())
	})
}

func TestJoinRequest_Validate(t *testing.T) {
	validate, _ := testutil.NewValidator()

	jr := JoinRequest{Email: "  Jane@Example.COM "}
	require.NoError(t, jr.Validate(validate))
	assert.Equal(t, "jane@example.com", jr.Email)

	for _, email := range []string{"", "jane", "jane@", "@example.com"} {
		jr = JoinRequest{Email: email}
		assert.Error(t, jr.Validate(validate), email)
	}
}
