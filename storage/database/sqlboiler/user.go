package boiledrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"

	"github.com/Smarcastic/studesq-mvp/core"
	"github.com/Smarcastic/studesq-mvp/core/user"
	"github.com/Smarcastic/studesq-mvp/storage/database"
)

var userColumns = []string{"id", "email", "name", "role", "google_id", "created_at", "updated_at"}

type userRow struct {
	ID        string      `boil:"id"`
	Email     string      `boil:"email"`
	Name      string      `boil:"name"`
	Role      string      `boil:"role"`
	GoogleID  null.String `boil:"google_id"`
	CreatedAt time.Time   `boil:"created_at"`
	UpdatedAt time.Time   `boil:"updated_at"`
}

type userRepository struct {
	baseRepo
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{baseRepo{exec: exec}}
}

func (r userRow) unboil() user.User {
	return user.User{
		ID:        r.ID,
		Email:     r.Email,
		Name:      r.Name,
		Role:      user.Role(r.Role),
		GoogleID:  r.GoogleID.String,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.New().String()
	}
	_, err := queries.Raw(
		`INSERT INTO "users" ("id", "email", "name", "role", "google_id", "created_at", "updated_at")
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		usr.ID, usr.Email, usr.Name, string(usr.Role),
		null.NewString(usr.GoogleID, usr.GoogleID != ""), usr.CreatedAt.UTC(), usr.UpdatedAt.UTC(),
	).ExecContext(ctx, repo.getExec(exec))
	if err != nil {
		if database.IsUniqueViolation(err, database.UsersEmailKey) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) getUser(ctx context.Context, exec []core.DBExecutor, where qm.QueryMod) (user.User, error) {
	var row userRow
	err := newQuery(qm.Select(userColumns...), qm.From(userTable), where, qm.Limit(1)).
		Bind(ctx, repo.getExec(exec), &row)
	if err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user")
	}
	return row.unboil(), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string, exec ...core.DBExecutor) (user.User, error) {
	return repo.getUser(ctx, exec, qm.Where(`"id" = ?`, id))
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (user.User, error) {
	return repo.getUser(ctx, exec, qm.Where(`"email" = ?`, email))
}
