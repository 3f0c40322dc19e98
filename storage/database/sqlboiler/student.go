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
	"github.com/Smarcastic/studesq-mvp/core/student"
	"github.com/Smarcastic/studesq-mvp/core/user"
	"github.com/Smarcastic/studesq-mvp/storage/database"
)

var (
	profileColumns = []string{
		"id", "user_id", "display_name", "bio", "school", "grade", "dob", "early_founder", "created_at", "updated_at",
	}
	achievementColumns = []string{
		"id", "student_id", "title", "description", "type", "date", "certificate_path", "created_at", "updated_at",
	}
)

type (
	profileRow struct {
		ID           string      `boil:"id"`
		UserID       string      `boil:"user_id"`
		DisplayName  string      `boil:"display_name"`
		Bio          null.String `boil:"bio"`
		School       null.String `boil:"school"`
		Grade        null.String `boil:"grade"`
		DOB          null.Time   `boil:"dob"`
		EarlyFounder bool        `boil:"early_founder"`
		CreatedAt    time.Time   `boil:"created_at"`
		UpdatedAt    time.Time   `boil:"updated_at"`
	}

	parentLinkRow struct {
		ID        string    `boil:"id"`
		ParentID  string    `boil:"parent_id"`
		StudentID string    `boil:"student_id"`
		Verified  bool      `boil:"verified"`
		CreatedAt time.Time `boil:"created_at"`
	}

	achievementRow struct {
		ID              string      `boil:"id"`
		StudentID       string      `boil:"student_id"`
		Title           string      `boil:"title"`
		Description     string      `boil:"description"`
		Type            string      `boil:"type"`
		Date            time.Time   `boil:"date"`
		CertificatePath null.String `boil:"certificate_path"`
		CreatedAt       time.Time   `boil:"created_at"`
		UpdatedAt       time.Time   `boil:"updated_at"`
	}

	summaryRow struct {
		ID    string `boil:"id"`
		Email string `boil:"email"`
		Name  string `boil:"name"`
	}
)

func boilTime(t *time.Time) null.Time {
	if t == nil {
		return null.Time{}
	}
	return null.TimeFrom(t.UTC())
}

func (r profileRow) unboil() student.Profile {
	var dob *time.Time
	if r.DOB.Valid {
		d := r.DOB.Time.UTC()
		dob = &d
	}
	return student.Profile{
		ID:           r.ID,
		UserID:       r.UserID,
		DisplayName:  r.DisplayName,
		Bio:          r.Bio.Ptr(),
		School:       r.School.Ptr(),
		Grade:        r.Grade.Ptr(),
		DOB:          dob,
		EarlyFounder: r.EarlyFounder,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

func (r parentLinkRow) unboil() student.ParentLink {
	return student.ParentLink{
		ID:        r.ID,
		ParentID:  r.ParentID,
		StudentID: r.StudentID,
		Verified:  r.Verified,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

func (r achievementRow) unboil() student.Achievement {
	return student.Achievement{
		ID:              r.ID,
		StudentID:       r.StudentID,
		Title:           r.Title,
		Description:     r.Description,
		Type:            student.AchievementType(r.Type),
		Date:            r.Date.UTC(),
		CertificatePath: r.CertificatePath.Ptr(),
		CreatedAt:       r.CreatedAt.UTC(),
		UpdatedAt:       r.UpdatedAt.UTC(),
	}
}

type studentRepository struct {
	baseRepo
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(exec core.DBExecutor) *studentRepository {
	return &studentRepository{baseRepo{exec: exec}}
}

func (repo studentRepository) CreateProfile(ctx context.Context, p student.Profile, exec ...core.DBExecutor) (student.Profile, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	_, err := queries.Raw(
		`INSERT INTO "student_profiles"
		("id", "user_id", "display_name", "bio", "school", "grade", "dob", "early_founder", "created_at", "updated_at")
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.UserID, p.DisplayName,
		null.StringFromPtr(p.Bio), null.StringFromPtr(p.School), null.StringFromPtr(p.Grade), boilTime(p.DOB),
		p.EarlyFounder, p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	).ExecContext(ctx, repo.getExec(exec))
	if err != nil {
		if database.IsUniqueViolation(err, database.StudentProfilesUserKey) {
			return student.Profile{}, student.ErrProfileExists
		}
		return student.Profile{}, errors.Wrap(err, "inserting profile")
	}
	return p, nil
}

func (repo studentRepository) getProfile(ctx context.Context, exec []core.DBExecutor, where qm.QueryMod) (student.Profile, error) {
	var row profileRow
	err := newQuery(qm.Select(profileColumns...), qm.From(profileTable), where, qm.Limit(1)).
		Bind(ctx, repo.getExec(exec), &row)
	if err != nil {
		return student.Profile{}, trapNoRowsErr(err, student.ErrProfileNotFound, "finding profile")
	}
	return row.unboil(), nil
}

func (repo studentRepository) GetProfileByID(ctx context.Context, id string, exec ...core.DBExecutor) (student.Profile, error) {
	return repo.getProfile(ctx, exec, qm.Where(`"id" = ?`, id))
}

func (repo studentRepository) GetProfileByUserID(ctx context.Context, userID string, exec ...core.DBExecutor) (student.Profile, error) {
	return repo.getProfile(ctx, exec, qm.Where(`"user_id" = ?`, userID))
}

func (repo studentRepository) UpdateProfile(ctx context.Context, p student.Profile, exec ...core.DBExecutor) (student.Profile, error) {
	var row profileRow
	err := queries.Raw(
		`UPDATE "student_profiles"
		SET "display_name" = $2, "bio" = $3, "school" = $4, "grade" = $5, "dob" = $6, "updated_at" = $7
		WHERE "id" = $1
		RETURNING "id", "user_id", "display_name", "bio", "school", "grade", "dob", "early_founder", "created_at", "updated_at"`,
		p.ID, p.DisplayName,
		null.StringFromPtr(p.Bio), null.StringFromPtr(p.School), null.StringFromPtr(p.Grade), boilTime(p.DOB),
		p.UpdatedAt.UTC(),
	).Bind(ctx, repo.getExec(exec), &row)
	if err != nil {
		return student.Profile{}, trapNoRowsErr(err, student.ErrProfileNotFound, "updating profile")
	}
	return row.unboil(), nil
}

func (repo studentRepository) GetParentLink(ctx context.Context, parentID, studentID string, exec ...core.DBExecutor) (student.ParentLink, error) {
	var row parentLinkRow
	err := newQuery(
		qm.Select("id", "parent_id", "student_id", "verified", "created_at"),
		qm.From(parentLinkTable),
		qm.Where(`"parent_id" = ? AND "student_id" = ?`, parentID, studentID),
		qm.Limit(1),
	).Bind(ctx, repo.getExec(exec), &row)
	if err != nil {
		return student.ParentLink{}, trapNoRowsErr(err, student.ErrLinkNotFound, "finding parent link")
	}
	return row.unboil(), nil
}

func (repo studentRepository) SaveParentLink(ctx context.Context, l student.ParentLink, exec ...core.DBExecutor) (student.ParentLink, error) {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	var row parentLinkRow
	err := queries.Raw(
		`INSERT INTO "parent_links" ("id", "parent_id", "student_id", "verified", "created_at")
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT ("parent_id", "student_id") DO UPDATE SET "verified" = EXCLUDED."verified"
		RETURNING "id", "parent_id", "student_id", "verified", "created_at"`,
		l.ID, l.ParentID, l.StudentID, l.Verified, l.CreatedAt.UTC(),
	).Bind(ctx, repo.getExec(exec), &row)
	if err != nil {
		return student.ParentLink{}, errors.Wrap(err, "upserting parent link")
	}
	return row.unboil(), nil
}

func (repo studentRepository) QueryVerifiedParents(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]user.Summary, error) {
	var rows []summaryRow
	err := newQuery(
		qm.Select(`"u"."id"`, `"u"."email"`, `"u"."name"`),
		qm.From(parentLinkTable+` AS "l"`),
		qm.InnerJoin(userTable+` AS "u" ON "u"."id" = "l"."parent_id"`),
		qm.Where(`"l"."student_id" = ? AND "l"."verified" = true`, studentID),
		qm.OrderBy(`"u"."name"`),
	).Bind(ctx, repo.getExec(exec), &rows)
	if err != nil {
		return nil, errors.Wrap(err, "querying verified parents")
	}

	parents := make([]user.Summary, 0, len(rows))
	for _, r := range rows {
		parents = append(parents, user.Summary{ID: r.ID, Email: r.Email, Name: r.Name})
	}
	return parents, nil
}

func (repo studentRepository) QueryAchievements(ctx context.Context, studentID string, limit int, exec ...core.DBExecutor) ([]student.Achievement, error) {
	mods := []qm.QueryMod{
		qm.Select(achievementColumns...),
		qm.From(achievementTable),
		qm.Where(`"student_id" = ?`, studentID),
		qm.OrderBy(`"date" DESC, "created_at" DESC`),
	}
	if limit > 0 {
		mods = append(mods, qm.Limit(limit))
	}

	var rows []achievementRow
	if err := newQuery(mods...).Bind(ctx, repo.getExec(exec), &rows); err != nil {
		return nil, errors.Wrap(err, "querying achievements")
	}

	achievements := make([]student.Achievement, 0, len(rows))
	for _, r := range rows {
		achievements = append(achievements, r.unboil())
	}
	return achievements, nil
}

func (repo studentRepository) CreateAchievement(ctx context.Context, a student.Achievement, exec ...core.DBExecutor) (student.Achievement, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	_, err := queries.Raw(
		`INSERT INTO "achievements"
		("id", "student_id", "title", "description", "type", "date", "certificate_path", "created_at", "updated_at")
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.StudentID, a.Title, a.Description, string(a.Type), a.Date.UTC(),
		null.StringFromPtr(a.CertificatePath), a.CreatedAt.UTC(), a.UpdatedAt.UTC(),
	).ExecContext(ctx, repo.getExec(exec))
	if err != nil {
		return student.Achievement{}, errors.Wrap(err, "inserting achievement")
	}
	return a, nil
}
