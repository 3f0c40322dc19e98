// Package access decides whether a session may read or write a student profile's data.
//
// Decisions are recomputed on every call from the current profile and parent link records;
// nothing is cached, so a link losing its verified flag takes effect on the next request.
package access

import (
	"context"

	"github.com/pkg/errors"

	"github.com/Smarcastic/studesq-mvp/core"
	"github.com/Smarcastic/studesq-mvp/core/session"
	"github.com/Smarcastic/studesq-mvp/core/student"
)

type (
	// ProfileFinder looks up the profile owned by a user. Satisfied by student.Repository.
	ProfileFinder interface {
		GetProfileByUserID(ctx context.Context, userID string, exec ...core.DBExecutor) (student.Profile, error)
	}

	// LinkFinder looks up a parent link. Satisfied by student.Repository.
	LinkFinder interface {
		GetParentLink(ctx context.Context, parentID, studentID string, exec ...core.DBExecutor) (student.ParentLink, error)
	}
)

type Evaluator struct {
	profiles ProfileFinder
	links    LinkFinder
}

func NewEvaluator(profiles ProfileFinder, links LinkFinder) *Evaluator {
	return &Evaluator{profiles: profiles, links: links}
}

// CanAccessStudent reports whether s may read the data of the profile studentID.
// A nil session is never permitted. The error is only set on infrastructure faults.
func (e *Evaluator) CanAccessStudent(ctx context.Context, s *session.Session, studentID string) (bool, error) {
	if s == nil {
		return false, nil
	}
	switch {
	case s.IsAdmin():
		return true, nil
	case s.IsStudent():
		return e.ownsProfile(ctx, s.UserID, studentID)
	case s.IsParent():
		return e.hasVerifiedLink(ctx, s.UserID, studentID)
	default:
		return false, nil
	}
}

// CanWriteStudent reports whether s may modify the data of the profile studentID.
// The role is checked before any lookup: only STUDENT and ADMIN sessions may ever write.
func (e *Evaluator) CanWriteStudent(ctx context.Context, s *session.Session, studentID string) (bool, error) {
	if s == nil || !s.Role.CanWrite() {
		return false, nil
	}
	if s.IsAdmin() {
		return true, nil
	}
	return e.ownsProfile(ctx, s.UserID, studentID)
}

// AuthorizeRead returns core.ErrUnauthenticated for a nil session, core.ErrForbidden when access is
// denied and nil when granted.
func (e *Evaluator) AuthorizeRead(ctx context.Context, s *session.Session, studentID string) error {
	return authorize(s, func() (bool, error) { return e.CanAccessStudent(ctx, s, studentID) })
}

// AuthorizeWrite is the write counterpart of AuthorizeRead.
func (e *Evaluator) AuthorizeWrite(ctx context.Context, s *session.Session, studentID string) error {
	return authorize(s, func() (bool, error) { return e.CanWriteStudent(ctx, s, studentID) })
}

func authorize(s *session.Session, check func() (bool, error)) error {
	if s == nil {
		return core.ErrUnauthenticated
	}
	ok, err := check()
	if err != nil {
		return err
	}
	if !ok {
		return core.ErrForbidden
	}
	return nil
}

func (e *Evaluator) ownsProfile(ctx context.Context, userID, studentID string) (bool, error) {
	p, err := e.profiles.GetProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Cause(err) == student.ErrProfileNotFound {
			return false, nil
		}
		return false, errors.Wrap(err, "finding profile by user")
	}
	return p.ID == studentID, nil
}

func (e *Evaluator) hasVerifiedLink(ctx context.Context, parentID, studentID string) (bool, error) {
	l, err := e.links.GetParentLink(ctx, parentID, studentID)
	if err != nil {
		if errors.Cause(err) == student.ErrLinkNotFound {
			return false, nil
		}
		return false, errors.Wrap(err, "finding parent link")
	}
	return l.Verified, nil
}
