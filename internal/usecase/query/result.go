package query

import (
	"time"

	domfacet "github.com/kailas-cloud/schooldex/internal/domain/facet"
	"github.com/kailas-cloud/schooldex/internal/domain/school"
	"github.com/kailas-cloud/schooldex/internal/domain/suggestion"
)

// FacetsResult is the payload of a facets request.
type FacetsResult struct {
	Filters domfacet.Set `json:"filters"`
}

// SuggestResult is the payload of a suggest request.
type SuggestResult struct {
	Suggestions []suggestion.Item     `json:"suggestions"`
	Categories  suggestion.Categories `json:"categories"`
	Query       string                `json:"query"`
	// Count is the number of matched items across categories before the overall limit.
	Count int `json:"count"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page            int  `json:"page"`
	PageSize        int  `json:"pageSize"`
	TotalCount      int  `json:"totalCount"`
	TotalPages      int  `json:"totalPages"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

func newPagination(page, pageSize, total int) Pagination {
	pages := 0
	if pageSize > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	return Pagination{
		Page:            page,
		PageSize:        pageSize,
		TotalCount:      total,
		TotalPages:      pages,
		HasNextPage:     page < pages,
		HasPreviousPage: page > 1,
	}
}

// ListResult is the payload of a list request.
type ListResult struct {
	Schools    []school.School `json:"schools"`
	Pagination Pagination      `json:"pagination"`
}

// Response carries exactly one payload, selected by the request kind.
// Embedded payload fields are flattened into the JSON object.
type Response struct {
	*FacetsResult
	*SuggestResult
	*ListResult
	Timestamp time.Time `json:"timestamp"`
	Cached    bool      `json:"cached"`
}
