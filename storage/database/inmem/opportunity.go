package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Smarcastic/studesq-mvp/core"
	"github.com/Smarcastic/studesq-mvp/core/opportunity"
)

type opportunityRepository struct {
	db *opportunityTable
}

var _ opportunity.Repository = (*opportunityRepository)(nil) // interface compliance check

func NewOpportunityRepository(db *DB) opportunity.Repository {
	return &opportunityRepository{db: db.opportunity}
}

func (repo *opportunityRepository) QueryOpportunities(_ context.Context, filter opportunity.Filter, _ ...core.DBExecutor) ([]opportunity.Opportunity, int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	matching := make([]opportunity.Opportunity, 0, len(repo.db.table))
	for _, o := range repo.db.table {
		if filter.Upcoming && o.Date.Before(filter.Now) {
			continue
		}
		matching = append(matching, *o)
	}
	sort.Slice(matching, func(i, j int) bool { return matching[i].Date.Before(matching[j].Date) })

	total := len(matching)
	if filter.Offset >= total {
		return []opportunity.Opportunity{}, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > total {
		end = total
	}
	return matching[filter.Offset:end], total, nil
}

func (repo *opportunityRepository) CreateOpportunity(_ context.Context, o opportunity.Opportunity, _ ...core.DBExecutor) (opportunity.Opportunity, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	repo.db.table[o.ID] = &o
	return o, nil
}
