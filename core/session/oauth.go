package session

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"github.com/Smarcastic/studesq-mvp/core"
	"github.com/Smarcastic/studesq-mvp/core/user"
)

var errEmailNotVerified = errors.New("identity email is not verified")

type oauthResolver struct {
	cookies  cookieJar
	users    UserStore
	provider Provider
	logger   core.Logger
}

var _ Resolver = (*oauthResolver)(nil)

func (o *oauthResolver) Mode() Mode { return ModeOAuth }

func (o *oauthResolver) Resolve(r *http.Request) *Session {
	email, ok, err := o.provider.Email(r)
	if err != nil {
		o.logger.Error("resolving oauth session", errors.Wrap(err, "reading provider session"))
		return nil
	}
	if !ok {
		return nil
	}

	usr, err := o.users.GetByEmail(r.Context(), email)
	if err != nil {
		// authenticated identity without an application user yet
		if errors.Cause(err) != user.ErrNotFound {
			o.logger.Error("resolving oauth session", errors.Wrap(err, "finding user by email"))
		}
		return nil
	}
	s := FromUser(usr)
	return &s
}

func (o *oauthResolver) Create(http.ResponseWriter, Session) error {
	return core.ErrModeMismatch
}

func (o *oauthResolver) Destroy(w http.ResponseWriter, r *http.Request) error {
	o.cookies.clear(w)
	return errors.Wrap(o.provider.Forget(w, r), "forgetting provider session")
}

func (o *oauthResolver) SignIn(ctx context.Context, id Identity) (user.User, error) {
	if !id.EmailVerified {
		return user.User{}, errors.Wrap(core.ErrForbidden, errEmailNotVerified.Error())
	}
	name := id.Name
	if name == "" {
		name = id.Email
	}
	usr, created, err := o.users.FindOrCreate(ctx, user.NewUser{
		Email:    id.Email,
		Name:     name,
		Role:     user.RoleStudent,
		GoogleID: id.Subject,
	})
	if err != nil {
		return user.User{}, errors.Wrap(err, "finding or creating user")
	}
	if created {
		o.logger.Info("user created on oauth sign-in: " + usr.Email)
	}
	return usr, nil
}
