package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Smarcastic/studesq-mvp/core"
	"github.com/Smarcastic/studesq-mvp/core/user"
)

type AchievementType string

// Achievement types
const (
	TypeAcademic        AchievementType = "ACADEMIC"
	TypeExtracurricular AchievementType = "EXTRACURRICULAR"
	TypeCertification   AchievementType = "CERTIFICATION"
	TypeCompetition     AchievementType = "COMPETITION"
	TypeProject         AchievementType = "PROJECT"
	TypeOther           AchievementType = "OTHER"
)

var AchievementTypes = []AchievementType{
	TypeAcademic, TypeExtracurricular, TypeCertification, TypeCompetition, TypeProject, TypeOther,
}

func (t AchievementType) Valid() bool {
	for _, typ := range AchievementTypes {
		if t == typ {
			return true
		}
	}
	return false
}

// Profile is the one-to-one extension of a STUDENT User.
type Profile struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	DisplayName  string     `json:"displayName"`
	Bio          *string    `json:"bio"`
	School       *string    `json:"school"`
	Grade        *string    `json:"grade"`
	DOB          *time.Time `json:"dob"`
	EarlyFounder bool       `json:"earlyFounder"`
	CreatedAt    time.Time  `json:"createdAt"` // UTC
	UpdatedAt    time.Time  `json:"updatedAt"` // UTC
}

// ParentLink grants a PARENT user read access to a Profile once verified.
type ParentLink struct {
	ID        string    `json:"id"`
	ParentID  string    `json:"parentId"`
	StudentID string    `json:"studentId"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
}

type Achievement struct {
	ID              string          `json:"id"`
	StudentID       string          `json:"studentId"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Type            AchievementType `json:"type"`
	Date            time.Time       `json:"date"`
	CertificatePath *string         `json:"certificatePath"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// ProfileDetail is a Profile with its owner, achievements and verified parents.
type ProfileDetail struct {
	Profile
	User         user.Summary   `json:"user"`
	Achievements []Achievement  `json:"achievements"`
	Parents      []user.Summary `json:"parents,omitempty"`
}

// UpdateProfile defines what information may be provided to modify an existing Profile.
// Nil fields are left unchanged; empty strings clear the field.
type UpdateProfile struct {
	DisplayName string  `json:"displayName" validate:"required,min=2,max=100"`
	Bio         *string `json:"bio" validate:"omitempty,max=500"`
	School      *string `json:"school" validate:"omitempty,max=200"`
	Grade       *string `json:"grade" validate:"omitempty,max=50"`
	DOB         *string `json:"dob" validate:"omitempty,rfc3339"`

	clearDOB bool
}

func (up *UpdateProfile) Validate(validate *validator.Validate) error {
	up.DisplayName = core.CleanString(up.DisplayName)
	for _, fld := range []*string{up.Bio, up.School, up.Grade, up.DOB} {
		if fld != nil {
			*fld = core.CleanString(*fld)
		}
	}
	if up.DOB != nil && *up.DOB == "" {
		up.DOB = nil
		up.clearDOB = true
	}
	return validate.Struct(up)
}

func (up UpdateProfile) apply(p *Profile) {
	p.DisplayName = up.DisplayName
	if up.Bio != nil {
		p.Bio = core.StringPtr(*up.Bio)
	}
	if up.School != nil {
		p.School = core.StringPtr(*up.School)
	}
	if up.Grade != nil {
		p.Grade = core.StringPtr(*up.Grade)
	}
	if up.clearDOB {
		p.DOB = nil
	} else if up.DOB != nil {
		dob, _ := time.Parse(time.RFC3339, *up.DOB) // validated
		dob = dob.UTC()
		p.DOB = &dob
	}
}

// NewAchievement contains information needed to create a new Achievement.
type NewAchievement struct {
	Title       string          `json:"title" form:"title" validate:"required,max=200"`
	Description string          `json:"description" form:"description" validate:"required,max=1000"`
	Type        AchievementType `json:"type" form:"type" validate:"required,achievementtype"`
	Date        string          `json:"date" form:"date" validate:"required,rfc3339"`
}

func (na *NewAchievement) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	na.Date = core.CleanString(na.Date)
	return validate.Struct(na)
}
