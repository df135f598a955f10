package chi

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/kailas-cloud/schooldex/internal/domain"
	"github.com/kailas-cloud/schooldex/internal/domain/geo"
	"github.com/kailas-cloud/schooldex/internal/domain/school"
	"github.com/kailas-cloud/schooldex/internal/domain/search/filter"
	"github.com/kailas-cloud/schooldex/internal/domain/search/request"
	"github.com/kailas-cloud/schooldex/internal/domain/suggestion"
)

// sortAliases maps listing sort names accepted on the query string to sort fields.
var sortAliases = map[string]request.SortField{
	"studentCount":    request.SortStudents,
	"establishedYear": request.SortEstablished,
	"avgRating":       request.SortRating,
}

func facetsRequestFromQuery(q url.Values) (request.Request, error) {
	f, err := filterFromQuery(q, "q", "type")
	if err != nil {
		return request.Request{}, err
	}
	req := request.Request{Kind: request.Facets, Filter: f, Include: listParam(q, "include")}
	req.Origin, err = originFromQuery(q)
	if err != nil {
		return request.Request{}, err
	}
	return req, nil
}

func suggestRequestFromQuery(q url.Values) (request.Request, error) {
	// q is the suggestion text and type the scope here.
	f, err := filterFromQuery(q, "", "")
	if err != nil {
		return request.Request{}, err
	}
	limit, err := intParam(q, "limit")
	if err != nil {
		return request.Request{}, err
	}
	return request.Request{
		Kind:   request.Suggest,
		Filter: f,
		Query:  q.Get("q"),
		Scope:  suggestion.Scope(q.Get("type")),
		Limit:  derefInt(limit),
	}, nil
}

func listRequestFromQuery(q url.Values) (request.Request, error) {
	f, err := filterFromQuery(q, "q", "type")
	if err != nil {
		return request.Request{}, err
	}
	page, err := intParam(q, "page")
	if err != nil {
		return request.Request{}, err
	}
	pageSize, err := intParam(q, "pageSize")
	if err != nil {
		return request.Request{}, err
	}
	if pageSize == nil {
		if pageSize, err = intParam(q, "limit"); err != nil {
			return request.Request{}, err
		}
	}
	field := request.SortField(q.Get("sortBy"))
	if alias, ok := sortAliases[q.Get("sortBy")]; ok {
		field = alias
	}
	return request.Request{
		Kind:     request.List,
		Filter:   f,
		Page:     derefInt(page),
		PageSize: derefInt(pageSize),
		Sort:     request.Sort{Field: field, Order: request.Order(q.Get("sortOrder"))},
	}, nil
}

// filterFromQuery reads the shared filter parameters. textParam and typeParam
// name the parameters holding the name filter and the categories; empty disables them.
func filterFromQuery(q url.Values, textParam, typeParam string) (filter.Filter, error) {
	f := filter.Filter{
		Regions:         listParam(q, "region", "voivodeship"),
		Cities:          listParam(q, "city"),
		Districts:       listParam(q, "district"),
		Languages:       listParam(q, "languages"),
		Specializations: listParam(q, "specializations"),
		Facilities:      listParam(q, "facilities"),
	}
	var types []string
	if typeParam != "" {
		types = listParam(q, typeParam)
	}
	for _, t := range types {
		if t == "all" {
			continue
		}
		f.Categories = append(f.Categories, school.Category(t))
	}
	if textParam != "" {
		f.Text = q.Get(textParam)
	}

	var err error
	if f.Students.Min, err = intParam(q, "minStudents"); err != nil {
		return filter.Filter{}, err
	}
	if f.Students.Max, err = intParam(q, "maxStudents"); err != nil {
		return filter.Filter{}, err
	}
	if f.Founded.Min, err = intParam(q, "establishedAfter"); err != nil {
		return filter.Filter{}, err
	}
	if f.Founded.Max, err = intParam(q, "establishedBefore"); err != nil {
		return filter.Filter{}, err
	}
	if f.MinRating, err = floatParam(q, "minRating"); err != nil {
		return filter.Filter{}, err
	}
	return f, nil
}

// originFromQuery reads lat/lng. Both or neither must be present.
func originFromQuery(q url.Values) (*geo.Point, error) {
	lat, err := floatParam(q, "lat")
	if err != nil {
		return nil, err
	}
	lng, err := floatParam(q, "lng")
	if err != nil {
		return nil, err
	}
	switch {
	case lat == nil && lng == nil:
		return nil, nil
	case lat == nil || lng == nil:
		return nil, domain.NewValidationError("lat", "lat and lng must be given together")
	}
	return &geo.Point{Latitude: *lat, Longitude: *lng}, nil
}

// listParam collects comma-separated values from every given parameter name,
// including repeated parameters.
func listParam(q url.Values, names ...string) []string {
	var out []string
	for _, name := range names {
		for _, raw := range q[name] {
			for _, v := range strings.Split(raw, ",") {
				if v = strings.TrimSpace(v); v != "" {
					out = append(out, v)
				}
			}
		}
	}
	return out
}

func intParam(q url.Values, name string) (*int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, domain.NewValidationError(name, "must be an integer")
	}
	return &v, nil
}

func floatParam(q url.Values, name string) (*float64, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, domain.NewValidationError(name, "must be a number")
	}
	return &v, nil
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
