package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Smarcastic/studesq-mvp/core"
	"github.com/Smarcastic/studesq-mvp/core/student"
	"github.com/Smarcastic/studesq-mvp/core/user"
)

type studentRepository struct {
	profiles     *profileTable
	links        *linkTable
	achievements *achievementTable
	users        *userTable
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{
		profiles:     db.profile,
		links:        db.link,
		achievements: db.achievement,
		users:        db.user,
	}
}

func (repo *studentRepository) CreateProfile(_ context.Context, p student.Profile, _ ...core.DBExecutor) (student.Profile, error) {
	repo.profiles.mutex.Lock()
	defer repo.profiles.mutex.Unlock()

	for _, prof := range repo.profiles.table {
		if prof.UserID == p.UserID {
			return student.Profile{}, student.ErrProfileExists
		}
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	repo.profiles.table[p.ID] = &p
	return p, nil
}

func (repo *studentRepository) GetProfileByID(_ context.Context, id string, _ ...core.DBExecutor) (student.Profile, error) {
	repo.profiles.mutex.RLock()
	defer repo.profiles.mutex.RUnlock()

	if p, ok := repo.profiles.table[id]; ok {
		return *p, nil
	}
	return student.Profile{}, student.ErrProfileNotFound
}

func (repo *studentRepository) GetProfileByUserID(_ context.Context, userID string, _ ...core.DBExecutor) (student.Profile, error) {
	repo.profiles.mutex.RLock()
	defer repo.profiles.mutex.RUnlock()

	for _, p := range repo.profiles.table {
		if p.UserID == userID {
			return *p, nil
		}
	}
	return student.Profile{}, student.ErrProfileNotFound
}

func (repo *studentRepository) UpdateProfile(_ context.Context, p student.Profile, _ ...core.DBExecutor) (student.Profile, error) {
	repo.profiles.mutex.Lock()
	defer repo.profiles.mutex.Unlock()

	orig, ok := repo.profiles.table[p.ID]
	if !ok {
		return student.Profile{}, student.ErrProfileNotFound
	}
	p.UserID = orig.UserID
	p.CreatedAt = orig.CreatedAt
	repo.profiles.table[p.ID] = &p
	return p, nil
}

func (repo *studentRepository) GetParentLink(_ context.Context, parentID, studentID string, _ ...core.DBExecutor) (student.ParentLink, error) {
	repo.links.mutex.RLock()
	defer repo.links.mutex.RUnlock()

	for _, l := range repo.links.table {
		if l.ParentID == parentID && l.StudentID == studentID {
			return *l, nil
		}
	}
	return student.ParentLink{}, student.ErrLinkNotFound
}

func (repo *studentRepository) SaveParentLink(_ context.Context, l student.ParentLink, _ ...core.DBExecutor) (student.ParentLink, error) {
	repo.links.mutex.Lock()
	defer repo.links.mutex.Unlock()

	for _, orig := range repo.links.table {
		if orig.ParentID == l.ParentID && orig.StudentID == l.StudentID {
			orig.Verified = l.Verified
			return *orig, nil
		}
	}
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	repo.links.table[l.ID] = &l
	return l, nil
}

func (repo *studentRepository) QueryVerifiedParents(_ context.Context, studentID string, _ ...core.DBExecutor) ([]user.Summary, error) {
	repo.links.mutex.RLock()
	repo.users.mutex.RLock()
	defer repo.links.mutex.RUnlock()
	defer repo.users.mutex.RUnlock()

	parents := make([]user.Summary, 0)
	for _, l := range repo.links.table {
		if l.StudentID != studentID || !l.Verified {
			continue
		}
		if usr, ok := repo.users.table[l.ParentID]; ok {
			parents = append(parents, user.Summary{ID: usr.ID, Email: usr.Email, Name: usr.Name})
		}
	}
	sort.Slice(parents, func(i, j int) bool { return parents[i].Name < parents[j].Name })
	return parents, nil
}

func (repo *studentRepository) QueryAchievements(_ context.Context, studentID string, limit int, _ ...core.DBExecutor) ([]student.Achievement, error) {
	repo.achievements.mutex.RLock()
	defer repo.achievements.mutex.RUnlock()

	achievements := make([]student.Achievement, 0)
	for _, a := range repo.achievements.table {
		if a.StudentID == studentID {
			achievements = append(achievements, *a)
		}
	}
	sort.Slice(achievements, func(i, j int) bool {
		if achievements[i].Date.Equal(achievements[j].Date) {
			return achievements[i].CreatedAt.After(achievements[j].CreatedAt)
		}
		return achievements[i].Date.After(achievements[j].Date)
	})
	if limit > 0 && len(achievements) > limit {
		achievements = achievements[:limit]
	}
	return achievements, nil
}

func (repo *studentRepository) CreateAchievement(_ context.Context, a student.Achievement, _ ...core.DBExecutor) (student.Achievement, error) {
	repo.achievements.mutex.Lock()
	defer repo.achievements.mutex.Unlock()

	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	repo.achievements.table[a.ID] = &a
	return a, nil
}
