// Package request holds the validated query accepted by the search façade.
package request

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/schooldex/internal/domain"
	"github.com/kailas-cloud/schooldex/internal/domain/geo"
	"github.com/kailas-cloud/schooldex/internal/domain/search/filter"
	"github.com/kailas-cloud/schooldex/internal/domain/suggestion"
)

// Request parameter limits.
const (
	// MaxQueryLength is the maximum allowed suggestion query length.
	MaxQueryLength   = 200
	DefaultLimit     = 10
	MaxLimit         = 50
	DefaultPageSize  = 20
	MaxPageSize      = 100
	MaxFacetNames    = 32
	maxFacetNameSize = 64
)

// Kind selects the façade path.
type Kind string

// Kind constants.
const (
	Facets  Kind = "facets"
	Suggest Kind = "suggest"
	List    Kind = "list"
)

// IsValid checks if the kind is one of the supported values.
func (k Kind) IsValid() bool {
	return k == Facets || k == Suggest || k == List
}

// SortField orders the entity listing.
type SortField string

// Sort fields.
const (
	SortName        SortField = "name"
	SortType        SortField = "type"
	SortStudents    SortField = "students"
	SortEstablished SortField = "established"
	SortRating      SortField = "rating"
)

// IsValid checks if the sort field is supported.
func (f SortField) IsValid() bool {
	switch f {
	case SortName, SortType, SortStudents, SortEstablished, SortRating:
		return true
	}
	return false
}

// Order is the sort direction.
type Order string

// Sort orders.
const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Sort is the listing order.
type Sort struct {
	Field SortField `json:"field"`
	Order Order     `json:"order"`
}

// Request is a structured façade query. Build it from decoded input and call Normalize.
type Request struct {
	Kind     Kind             `json:"kind"`
	Filter   filter.Filter    `json:"filter"`
	Include  []string         `json:"include,omitempty"`
	Origin   *geo.Point       `json:"origin,omitempty"`
	Query    string           `json:"query,omitempty"`
	Scope    suggestion.Scope `json:"scope,omitempty"`
	Limit    int              `json:"limit,omitempty"`
	Page     int              `json:"page,omitempty"`
	PageSize int              `json:"pageSize,omitempty"`
	Sort     Sort             `json:"sort,omitzero"`
}

// Normalize validates the request and returns its canonical form:
// lower-cased enums, sorted sets, defaults filled and fields unused by the kind cleared.
// Two logically identical requests normalize to equal values.
func (r Request) Normalize() (Request, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(string(r.Kind))))
	if !kind.IsValid() {
		return Request{}, domain.NewValidationError("kind", fmt.Sprintf("unknown request kind %q", r.Kind))
	}

	f := r.Filter.Normalize()
	if err := f.Validate(); err != nil {
		return Request{}, domain.NewValidationError("filter", err.Error())
	}
	out := Request{Kind: kind, Filter: f}

	switch kind {
	case Facets:
		include, err := normalizeInclude(r.Include)
		if err != nil {
			return Request{}, err
		}
		out.Include = include
		if r.Origin != nil {
			if !r.Origin.Valid() {
				return Request{}, domain.NewValidationError("origin", "latitude must be within [-90, 90] and longitude within [-180, 180]")
			}
			o := *r.Origin
			out.Origin = &o
		}
	case Suggest:
		q := strings.TrimSpace(r.Query)
		if utf8.RuneCountInString(q) > MaxQueryLength {
			return Request{}, domain.NewValidationError("query", fmt.Sprintf("query too long (max %d chars)", MaxQueryLength))
		}
		scope := suggestion.Scope(strings.ToLower(strings.TrimSpace(string(r.Scope))))
		if scope == "" {
			scope = suggestion.ScopeAll
		}
		if !scope.IsValid() {
			return Request{}, domain.NewValidationError("scope", fmt.Sprintf("unknown suggestion scope %q", r.Scope))
		}
		limit := r.Limit
		if limit < 0 {
			return Request{}, domain.NewValidationError("limit", "limit must be non-negative")
		}
		if limit == 0 {
			limit = DefaultLimit
		}
		out.Query = q
		out.Scope = scope
		out.Limit = min(limit, MaxLimit)
	case List:
		if r.Page < 0 || r.PageSize < 0 {
			return Request{}, domain.NewValidationError("page", "page and pageSize must be non-negative")
		}
		out.Page = max(r.Page, 1)
		out.PageSize = r.PageSize
		if out.PageSize == 0 {
			out.PageSize = DefaultPageSize
		}
		out.PageSize = min(out.PageSize, MaxPageSize)
		s, err := normalizeSort(r.Sort)
		if err != nil {
			return Request{}, err
		}
		out.Sort = s
	}
	return out, nil
}

// Offset returns the row offset of the requested page.
func (r Request) Offset() int {
	if r.Page <= 1 {
		return 0
	}
	return (r.Page - 1) * r.PageSize
}

func normalizeInclude(names []string) ([]string, error) {
	if len(names) > MaxFacetNames {
		return nil, domain.NewValidationError("include", fmt.Sprintf("too many facet names (max %d)", MaxFacetNames))
	}
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if len(n) > maxFacetNameSize {
			return nil, domain.NewValidationError("include", "facet name too long")
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	if len(out) == 0 {
		out = append(out, "all")
	}
	slices.Sort(out)
	return out, nil
}

func normalizeSort(s Sort) (Sort, error) {
	field := SortField(strings.ToLower(strings.TrimSpace(string(s.Field))))
	if field == "" {
		field = SortName
	}
	if !field.IsValid() {
		return Sort{}, domain.NewValidationError("sortBy", fmt.Sprintf("unsupported sort field %q", s.Field))
	}
	order := Order(strings.ToLower(strings.TrimSpace(string(s.Order))))
	switch order {
	case "":
		order = Asc
	case Asc, Desc:
	default:
		return Sort{}, domain.NewValidationError("sortOrder", fmt.Sprintf("unsupported sort order %q", s.Order))
	}
	return Sort{Field: field, Order: order}, nil
}
