// Package facet holds counted facet values and the static numeric range tables.
package facet

import (
	"encoding/json"
	"fmt"
)

// Facet names.
const (
	Types           = "types"
	Regions         = "regions"
	Cities          = "cities"
	Districts       = "districts"
	Languages       = "languages"
	Specializations = "specializations"
	Facilities      = "facilities"
	StudentRanges   = "studentRanges"
	YearRanges      = "yearRanges"
	RatingRanges    = "ratingRanges"
	DistanceRanges  = "distanceRanges"
	PopularSearches = "popularSearches"

	// All expands to every facet.
	All = "all"
	// Locations expands to regions, cities and districts.
	Locations = "locations"
)

// Names returns every facet computed from the entity population, in response order.
func Names() []string {
	return []string{
		Types, Regions, Cities, Districts,
		Languages, Specializations, Facilities,
		StudentRanges, YearRanges, RatingRanges, DistanceRanges,
	}
}

// Expand resolves aliases and drops unknown names. PopularSearches is kept.
func Expand(names []string) []string {
	known := make(map[string]bool, len(Names())+1)
	for _, n := range Names() {
		known[n] = true
	}
	known[PopularSearches] = true

	seen := make(map[string]bool, len(names))
	var out []string
	add := func(n string) {
		if known[n] && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	for _, n := range names {
		switch n {
		case All:
			for _, m := range Names() {
				add(m)
			}
			add(PopularSearches)
		case Locations:
			add(Regions)
			add(Cities)
			add(Districts)
		default:
			add(n)
		}
	}
	return out
}

// Bucket is one counted value. Region is set for city and district buckets.
type Bucket struct {
	Value  string `json:"value"`
	Label  string `json:"label"`
	Region string `json:"region,omitempty"`
	Count  int    `json:"count"`
}

// RangeDef is one entry of a static range table. Bounds are inclusive.
type RangeDef struct {
	Value string  `json:"value"`
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Contains reports whether v falls within the range.
func (d RangeDef) Contains(v float64) bool {
	return v >= d.Min && v <= d.Max
}

// RangeBucket is a range with its count.
type RangeBucket struct {
	RangeDef
	Count int `json:"count"`
}

// RangeFacet carries the observed bounds and the counted range table.
type RangeFacet struct {
	Min    float64       `json:"min"`
	Max    float64       `json:"max"`
	Ranges []RangeBucket `json:"ranges"`
}

// Facet is either a bucket list or a range facet.
type Facet struct {
	Buckets []Bucket
	Range   *RangeFacet
}

// MarshalJSON renders bucket facets as arrays and range facets as objects.
func (f Facet) MarshalJSON() ([]byte, error) {
	if f.Range != nil {
		return json.Marshal(f.Range)
	}
	if f.Buckets == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(f.Buckets)
}

// UnmarshalJSON accepts either rendering produced by MarshalJSON.
func (f *Facet) UnmarshalJSON(b []byte) error {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		case '[':
			f.Range = nil
			return json.Unmarshal(b, &f.Buckets)
		case 'n':
			*f = Facet{}
			return nil
		case '{':
			f.Buckets = nil
			f.Range = &RangeFacet{}
			return json.Unmarshal(b, f.Range)
		}
		break
	}
	return fmt.Errorf("facet: unexpected JSON %q", b)
}

// Set maps facet names to computed facets.
type Set map[string]Facet

// Range tables. Values and bounds are part of the public contract.
var (
	StudentTable = []RangeDef{
		{Value: "0-100", Label: "0-100 students", Min: 0, Max: 100},
		{Value: "101-300", Label: "101-300 students", Min: 101, Max: 300},
		{Value: "301-500", Label: "301-500 students", Min: 301, Max: 500},
		{Value: "501-1000", Label: "501-1000 students", Min: 501, Max: 1000},
		{Value: "1001+", Label: "1001+ students", Min: 1001, Max: 99999},
	}
	YearTable = []RangeDef{
		{Value: "before-1950", Label: "Before 1950", Min: 0, Max: 1949},
		{Value: "1950-1980", Label: "1950-1980", Min: 1950, Max: 1980},
		{Value: "1981-2000", Label: "1981-2000", Min: 1981, Max: 2000},
		{Value: "2001-2010", Label: "2001-2010", Min: 2001, Max: 2010},
		{Value: "2011+", Label: "2011 and later", Min: 2011, Max: 9999},
	}
	RatingTable = []RangeDef{
		{Value: "4.5+", Label: "4.5+ stars", Min: 4.5, Max: 5},
		{Value: "4+", Label: "4+ stars", Min: 4, Max: 5},
		{Value: "3.5+", Label: "3.5+ stars", Min: 3.5, Max: 5},
		{Value: "3+", Label: "3+ stars", Min: 3, Max: 5},
		{Value: "2+", Label: "2+ stars", Min: 2, Max: 5},
	}
	DistanceTable = []RangeDef{
		{Value: "5", Label: "Within 5 km", Min: 0, Max: 5},
		{Value: "10", Label: "Within 10 km", Min: 0, Max: 10},
		{Value: "20", Label: "Within 20 km", Min: 0, Max: 20},
		{Value: "50", Label: "Within 50 km", Min: 0, Max: 50},
		{Value: "100", Label: "Within 100 km", Min: 0, Max: 100},
	}
)

// PopularSearch is a search term with its recent frequency.
type PopularSearch struct {
	Term  string `json:"query"`
	Count int    `json:"count"`
}
