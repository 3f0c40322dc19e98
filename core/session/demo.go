package session

import (
	"github.com/pkg/errors"

	"github.com/Smarcastic/studesq-mvp/core"
	"github.com/Smarcastic/studesq-mvp/core/user"
)

var ErrDemoAccountNotFound = errors.New("demo account not found; please use one of the provided demo emails")

// DemoAccount is a fixed account available in mock mode.
type DemoAccount struct {
	ID         string
	Email      string
	Name       string
	Role       user.Role
	ChildEmail string // parents only
}

func (a DemoAccount) NewUser() user.NewUser {
	return user.NewUser{ID: a.ID, Email: a.Email, Name: a.Name, Role: a.Role}
}

var DemoAccounts = []DemoAccount{
	{ID: "student_alice", Email: "alice@demo.studesq.com", Name: "Alice Chen", Role: user.RoleStudent},
	{ID: "student_marcus", Email: "marcus@demo.studesq.com", Name: "Marcus Johnson", Role: user.RoleStudent},
	{ID: "student_priya", Email: "priya@demo.studesq.com", Name: "Priya Sharma", Role: user.RoleStudent},
	{
		ID: "parent_alice", Email: "alice-parent@demo.studesq.com", Name: "Helen Chen", Role: user.RoleParent,
		ChildEmail: "alice@demo.studesq.com",
	},
	{
		ID: "parent_marcus", Email: "marcus-parent@demo.studesq.com", Name: "David Johnson", Role: user.RoleParent,
		ChildEmail: "marcus@demo.studesq.com",
	},
	{ID: "admin_user", Email: "admin@demo.studesq.com", Name: "Admin User", Role: user.RoleAdmin},
}

// FindDemoAccount returns the demo account with the given email (case-insensitive).
func FindDemoAccount(email string) (DemoAccount, error) {
	email = core.CleanString(email, true /* lower */)
	for _, a := range DemoAccounts {
		if a.Email == email {
			return a, nil
		}
	}
	return DemoAccount{}, ErrDemoAccountNotFound
}
