package query

import (
	"context"
	"time"

	domfacet "github.com/kailas-cloud/schooldex/internal/domain/facet"
	"github.com/kailas-cloud/schooldex/internal/domain/geo"
	"github.com/kailas-cloud/schooldex/internal/domain/school"
	"github.com/kailas-cloud/schooldex/internal/domain/search/filter"
	"github.com/kailas-cloud/schooldex/internal/domain/search/request"
	"github.com/kailas-cloud/schooldex/internal/domain/suggestion"
	"github.com/kailas-cloud/schooldex/internal/usecase/suggest"
)

// Store is the read contract over the entity store.
type Store interface {
	FetchEntities(ctx context.Context, f filter.Filter) ([]school.School, error)
	FetchField(ctx context.Context, field school.Field, f filter.Filter) ([]string, error)
	ListEntities(ctx context.Context, f filter.Filter, s request.Sort, offset, limit int) ([]school.School, error)
	CountEntities(ctx context.Context, f filter.Filter) (int, error)
	FetchPopularSearches(ctx context.Context, since time.Time, limit int) ([]domfacet.PopularSearch, error)
}

// SearchRecorder stores free-text list searches for the popular searches facet.
type SearchRecorder interface {
	RecordSearch(ctx context.Context, query string, resultCount int) error
}

// Cache is the result cache contract.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags []string) error
	InvalidateByTag(ctx context.Context, tag string) (int, error)
	Clear(ctx context.Context) error
}

// Aggregator computes facets over a school population.
type Aggregator interface {
	Compute(schools []school.School, names []string, origin *geo.Point) domfacet.Set
}

// Matcher ranks suggestions over a candidate population.
type Matcher interface {
	Match(query string, scope suggestion.Scope, limit int, pop suggest.Population) suggestion.Result
}
