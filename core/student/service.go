package student

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/Smarcastic/studesq-mvp/core"
	"github.com/Smarcastic/studesq-mvp/core/user"
)

var (
	// errors
	ErrProfileNotFound = errors.New("student profile not found")
	ErrProfileExists   = errors.New("student profile already exists")
	ErrLinkNotFound    = errors.New("parent link not found")
	ErrNotAStudent     = errors.New("user is not a student")
	ErrNotAParent      = errors.New("user is not a parent")
)

// recentAchievementsLimit caps the achievements returned with an updated profile.
const recentAchievementsLimit = 5

type (
	Repository interface {
		CreateProfile(ctx context.Context, p Profile, exec ...core.DBExecutor) (Profile, error)
		GetProfileByID(ctx context.Context, id string, exec ...core.DBExecutor) (Profile, error)
		GetProfileByUserID(ctx context.Context, userID string, exec ...core.DBExecutor) (Profile, error)
		UpdateProfile(ctx context.Context, p Profile, exec ...core.DBExecutor) (Profile, error)

		// GetParentLink returns ErrLinkNotFound when no link exists, whatever its verified flag.
		GetParentLink(ctx context.Context, parentID, studentID string, exec ...core.DBExecutor) (ParentLink, error)
		// SaveParentLink inserts the link or updates the verified flag of an existing one.
		SaveParentLink(ctx context.Context, l ParentLink, exec ...core.DBExecutor) (ParentLink, error)
		QueryVerifiedParents(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]user.Summary, error)

		// QueryAchievements returns the student's achievements, most recent first. limit <= 0 means no limit.
		QueryAchievements(ctx context.Context, studentID string, limit int, exec ...core.DBExecutor) ([]Achievement, error)
		CreateAchievement(ctx context.Context, a Achievement, exec ...core.DBExecutor) (Achievement, error)
	}

	ServiceInterface interface {
		GetProfile(ctx context.Context, id string) (ProfileDetail, error)
		UpdateProfile(ctx context.Context, id string, up UpdateProfile) (ProfileDetail, error)
		ListAchievements(ctx context.Context, studentID string) ([]Achievement, error)
		CreateAchievement(ctx context.Context, studentID string, na NewAchievement, certificatePath string) (Achievement, error)
		EnsureProfile(ctx context.Context, usr user.User) (p Profile, created bool, err error)
		LinkParent(ctx context.Context, parent, student user.User, verified bool) (ParentLink, error)
	}

	Service struct {
		repo         Repository
		users        user.Repository
		earlyFounder bool
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, users user.Repository, conf *core.Config) *Service {
	return &Service{
		repo:         repo,
		users:        users,
		earlyFounder: conf.Features.EarlyFounderBadge,
	}
}

func (svc *Service) GetProfile(ctx context.Context, id string) (ProfileDetail, error) {
	p, err := svc.repo.GetProfileByID(ctx, id)
	if err != nil {
		return ProfileDetail{}, err
	}
	detail, err := svc.detail(ctx, p, 0)
	if err != nil {
		return ProfileDetail{}, err
	}

	parents, err := svc.repo.QueryVerifiedParents(ctx, p.ID)
	if err != nil {
		return ProfileDetail{}, errors.Wrap(err, "querying verified parents")
	}
	detail.Parents = parents
	return detail, nil
}

func (svc *Service) detail(ctx context.Context, p Profile, achievementsLimit int) (ProfileDetail, error) {
	owner, err := svc.users.GetUserByID(ctx, p.UserID)
	if err != nil {
		return ProfileDetail{}, errors.Wrap(err, "finding profile owner")
	}
	achievements, err := svc.repo.QueryAchievements(ctx, p.ID, achievementsLimit)
	if err != nil {
		return ProfileDetail{}, errors.Wrap(err, "querying achievements")
	}
	if achievements == nil {
		achievements = []Achievement{}
	}
	return ProfileDetail{Profile: p, User: owner.Summary(), Achievements: achievements}, nil
}

// UpdateProfile applies a validated UpdateProfile to the profile with the given id.
func (svc *Service) UpdateProfile(ctx context.Context, id string, up UpdateProfile) (ProfileDetail, error) {
	p, err := svc.repo.GetProfileByID(ctx, id)
	if err != nil {
		return ProfileDetail{}, err
	}

	up.apply(&p)
	p.UpdatedAt = time.Now().UTC()
	if p, err = svc.repo.UpdateProfile(ctx, p); err != nil {
		return ProfileDetail{}, errors.Wrap(err, "updating profile")
	}
	return svc.detail(ctx, p, recentAchievementsLimit)
}

func (svc *Service) ListAchievements(ctx context.Context, studentID string) ([]Achievement, error) {
	achievements, err := svc.repo.QueryAchievements(ctx, studentID, 0)
	if err != nil {
		return nil, errors.Wrap(err, "querying achievements")
	}
	if achievements == nil {
		achievements = []Achievement{}
	}
	return achievements, nil
}

// CreateAchievement stores a validated NewAchievement. certificatePath may be empty.
func (svc *Service) CreateAchievement(ctx context.Context, studentID string, na NewAchievement, certificatePath string) (Achievement, error) {
	if _, err := svc.repo.GetProfileByID(ctx, studentID); err != nil {
		return Achievement{}, err
	}

	date, err := time.Parse(time.RFC3339, na.Date)
	if err != nil {
		return Achievement{}, core.NewValidationError(err, core.FieldError{Field: "date", Error: "date must be a valid RFC 3339 date"})
	}
	now := time.Now().UTC()
	a, err := svc.repo.CreateAchievement(ctx, Achievement{
		StudentID:       studentID,
		Title:           na.Title,
		Description:     na.Description,
		Type:            na.Type,
		Date:            date.UTC(),
		CertificatePath: core.StringPtr(certificatePath),
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	return a, errors.Wrap(err, "creating achievement")
}

// EnsureProfile provisions the profile of a STUDENT user, if it does not exist yet.
func (svc *Service) EnsureProfile(ctx context.Context, usr user.User) (Profile, bool, error) {
	if !usr.IsStudent() {
		return Profile{}, false, ErrNotAStudent
	}

	p, err := svc.repo.GetProfileByUserID(ctx, usr.ID)
	if err == nil {
		return p, false, nil
	}
	if errors.Cause(err) != ErrProfileNotFound {
		return Profile{}, false, errors.Wrap(err, "finding profile by user")
	}

	now := time.Now().UTC()
	p, err = svc.repo.CreateProfile(ctx, Profile{
		UserID:       usr.ID,
		DisplayName:  usr.Name,
		EarlyFounder: svc.earlyFounder,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		// concurrent sign-ins of the same student
		if errors.Cause(err) == ErrProfileExists {
			p, err = svc.repo.GetProfileByUserID(ctx, usr.ID)
			return p, false, errors.Wrap(err, "finding profile by user")
		}
		return Profile{}, false, errors.Wrap(err, "creating profile")
	}
	return p, true, nil
}

// LinkParent links parent to the profile of student, creating or updating the link.
func (svc *Service) LinkParent(ctx context.Context, parent, student user.User, verified bool) (ParentLink, error) {
	if !parent.IsParent() {
		return ParentLink{}, core.NewValidationError(ErrNotAParent, core.FieldError{Field: "parent", Error: ErrNotAParent.Error()})
	}
	if !student.IsStudent() {
		return ParentLink{}, core.NewValidationError(ErrNotAStudent, core.FieldError{Field: "student", Error: ErrNotAStudent.Error()})
	}

	p, err := svc.repo.GetProfileByUserID(ctx, student.ID)
	if err != nil {
		return ParentLink{}, err
	}
	l, err := svc.repo.SaveParentLink(ctx, ParentLink{
		ParentID:  parent.ID,
		StudentID: p.ID,
		Verified:  verified,
		CreatedAt: time.Now().UTC(),
	})
	return l, errors.Wrap(err, "saving parent link")
}
