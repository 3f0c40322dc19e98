package user

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Smarcastic/studesq-mvp/core"
)

type Role string

// Roles
const (
	RoleStudent Role = "STUDENT"
	RoleParent  Role = "PARENT"
	RoleAdmin   Role = "ADMIN"
)

var AllRoles = []Role{RoleStudent, RoleParent, RoleAdmin}

func (r Role) Valid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// CanWrite reports whether the role may ever write student data.
func (r Role) CanWrite() bool {
	return r == RoleStudent || r == RoleAdmin
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	GoogleID  string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"` // UTC
	UpdatedAt time.Time `json:"-"`         // UTC
}

func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u *User) IsStudent() bool { return u.Role == RoleStudent }
func (u *User) IsParent() bool  { return u.Role == RoleParent }

// Summary is the public subset of a User embedded in other resources.
type Summary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role,omitempty"`
}

func (u User) Summary() Summary {
	return Summary{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	ID       string `json:"-"`
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Role     Role   `json:"role" validate:"required,role"`
	GoogleID string `json:"-"`
}

func (nu *NewUser) Clean() {
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Name = core.CleanString(nu.Name)
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Clean()
	return validate.Struct(nu)
}
