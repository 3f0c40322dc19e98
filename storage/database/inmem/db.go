package inmemdb

import (
	"sync"

	"github.com/Smarcastic/studesq-mvp/core/opportunity"
	"github.com/Smarcastic/studesq-mvp/core/student"
	"github.com/Smarcastic/studesq-mvp/core/user"
	"github.com/Smarcastic/studesq-mvp/core/waitlist"
)

type (
	// DB holds every in-memory table. Used by the inmem database engine and by tests.
	DB struct {
		user        *userTable
		profile     *profileTable
		link        *linkTable
		achievement *achievementTable
		opportunity *opportunityTable
		waitlist    *waitlistTable
	}

	userTable struct {
		table map[string]*user.User
		mutex sync.RWMutex
	}

	profileTable struct {
		table map[string]*student.Profile
		mutex sync.RWMutex
	}

	linkTable struct {
		table map[string]*student.ParentLink
		mutex sync.RWMutex
	}

	achievementTable struct {
		table map[string]*student.Achievement
		mutex sync.RWMutex
	}

	opportunityTable struct {
		table map[string]*opportunity.Opportunity
		mutex sync.RWMutex
	}

	waitlistTable struct {
		table map[string]*waitlist.Signup
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		user:        &userTable{table: make(map[string]*user.User)},
		profile:     &profileTable{table: make(map[string]*student.Profile)},
		link:        &linkTable{table: make(map[string]*student.ParentLink)},
		achievement: &achievementTable{table: make(map[string]*student.Achievement)},
		opportunity: &opportunityTable{table: make(map[string]*opportunity.Opportunity)},
		waitlist:    &waitlistTable{table: make(map[string]*waitlist.Signup)},
	}
}
