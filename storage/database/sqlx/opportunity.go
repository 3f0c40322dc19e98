package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Smarcastic/studesq-mvp/core"
	"github.com/Smarcastic/studesq-mvp/core/opportunity"
)

const (
	countOpportunitiesQuery = `SELECT COUNT(*) FROM opportunities WHERE ($1 = false OR date >= $2)`

	selectOpportunitiesQuery = `
SELECT id, title, description, provider, external_url, date, created_at
FROM opportunities
WHERE ($1 = false OR date >= $2)
ORDER BY date ASC
LIMIT $3 OFFSET $4`

	insertOpportunityQuery = `
INSERT INTO opportunities (id, title, description, provider, external_url, date, created_at)
VALUES (:id, :title, :description, :provider, :external_url, :date, :created_at)`
)

type opportunityRepository struct {
	baseRepo
}

var _ opportunity.Repository = (*opportunityRepository)(nil) // interface compliance check

func NewOpportunityRepository(db *sqlx.DB) *opportunityRepository {
	return &opportunityRepository{baseRepo{db: db}}
}

func (repo opportunityRepository) QueryOpportunities(ctx context.Context, filter opportunity.Filter, exec ...core.DBExecutor) ([]opportunity.Opportunity, int, error) {
	exe := repo.getExec(exec)
	now := filter.Now.UTC()

	var total int
	if err := sqlx.GetContext(ctx, exe, &total, countOpportunitiesQuery, filter.Upcoming, now); err != nil {
		return nil, 0, errors.Wrap(err, "counting opportunities")
	}

	opps := make([]opportunity.Opportunity, 0, filter.Limit)
	err := sqlx.SelectContext(ctx, exe, &opps, selectOpportunitiesQuery, filter.Upcoming, now, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, errors.Wrap(err, "selecting opportunities")
	}
	for i := range opps {
		opps[i].Date = opps[i].Date.UTC()
		opps[i].CreatedAt = opps[i].CreatedAt.UTC()
	}
	return opps, total, nil
}

func (repo opportunityRepository) CreateOpportunity(ctx context.Context, o opportunity.Opportunity, exec ...core.DBExecutor) (opportunity.Opportunity, error) {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	o.Date = o.Date.UTC()
	o.CreatedAt = o.CreatedAt.UTC()
	if _, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), insertOpportunityQuery, o); err != nil {
		return opportunity.Opportunity{}, errors.Wrap(err, "inserting opportunity")
	}
	return o, nil
}
