package opportunity

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/Smarcastic/studesq-mvp/core"
)

// Pagination defaults
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

type Opportunity struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Provider    string    `json:"provider" db:"provider"`
	ExternalURL *string   `json:"externalUrl" db:"external_url"`
	Date        time.Time `json:"date" db:"date"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Filter selects a page of opportunities. Upcoming keeps opportunities dated now or later.
type Filter struct {
	Limit    int  `query:"limit"`
	Offset   int  `query:"offset"`
	Upcoming bool `query:"upcoming"`

	Now time.Time `query:"-"`
}

func (f *Filter) Clean() {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	} else if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.Now.IsZero() {
		f.Now = time.Now().UTC()
	}
}

type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

type Page struct {
	Opportunities []Opportunity `json:"opportunities"`
	Pagination    Pagination    `json:"pagination"`
}

type (
	Repository interface {
		// QueryOpportunities returns a page ordered by date ascending and the total matching count.
		QueryOpportunities(ctx context.Context, filter Filter, exec ...core.DBExecutor) ([]Opportunity, int, error)
		CreateOpportunity(ctx context.Context, o Opportunity, exec ...core.DBExecutor) (Opportunity, error)
	}

	ServiceInterface interface {
		List(ctx context.Context, filter Filter) (Page, error)
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) List(ctx context.Context, filter Filter) (Page, error) {
	filter.Clean()
	opps, total, err := svc.repo.QueryOpportunities(ctx, filter)
	if err != nil {
		return Page{}, errors.Wrap(err, "querying opportunities")
	}
	if opps == nil {
		opps = []Opportunity{}
	}
	return Page{
		Opportunities: opps,
		Pagination: Pagination{
			Total:   total,
			Limit:   filter.Limit,
			Offset:  filter.Offset,
			HasMore: filter.Offset+filter.Limit < total,
		},
	}, nil
}
