// Package suggestion holds autocomplete items returned for partial text queries.
package suggestion

// Kind is the type of object an item points at.
type Kind string

// Item kinds.
const (
	School         Kind = "school"
	Location       Kind = "location"
	Specialization Kind = "specialization"
	Facility       Kind = "facility"
)

// Scope restricts which kinds a suggestion query returns.
type Scope string

// Scope constants.
const (
	ScopeAll             Scope = "all"
	ScopeSchools         Scope = "schools"
	ScopeLocations       Scope = "locations"
	ScopeSpecializations Scope = "specializations"
	ScopeFacilities      Scope = "facilities"
)

// IsValid checks if the scope is one of the supported values.
func (s Scope) IsValid() bool {
	switch s {
	case ScopeAll, ScopeSchools, ScopeLocations, ScopeSpecializations, ScopeFacilities:
		return true
	}
	return false
}

// Includes reports whether items of kind k are requested by the scope.
func (s Scope) Includes(k Kind) bool {
	switch s {
	case ScopeAll:
		return true
	case ScopeSchools:
		return k == School
	case ScopeLocations:
		return k == Location
	case ScopeSpecializations:
		return k == Specialization
	case ScopeFacilities:
		return k == Facility
	}
	return false
}

// Tier is the match class of an item. Lower tiers rank first.
type Tier int

// Match tiers.
const (
	// Prefix: the title starts with the query.
	Prefix Tier = iota
	// Substring: the query occurs elsewhere in the title.
	Substring
)

func (t Tier) String() string {
	if t == Prefix {
		return "prefix"
	}
	return "substring"
}

// MarshalText encodes the tier by name.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a tier name. Unknown names decode to Substring.
func (t *Tier) UnmarshalText(b []byte) error {
	switch string(b) {
	case "prefix":
		*t = Prefix
	default:
		*t = Substring
	}
	return nil
}

// Item is a single suggestion.
type Item struct {
	Kind      Kind   `json:"type"`
	ID        string `json:"id"`
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle,omitempty"`
	Target    string `json:"value"`
	FilterKey string `json:"filterKey,omitempty"`
	URL       string `json:"url"`
	Tier      Tier   `json:"match"`
	// Count is the number of schools carrying the value; zero for school items.
	Count int `json:"count,omitempty"`
}

// Categories groups the returned items by kind.
type Categories struct {
	Schools         []Item `json:"schools"`
	Locations       []Item `json:"locations"`
	Specializations []Item `json:"specializations"`
	Facilities      []Item `json:"facilities"`
}

// Result is the matcher output.
type Result struct {
	Suggestions []Item     `json:"suggestions"`
	Categories  Categories `json:"categories"`
}

// Empty returns a result with non-nil empty slices.
func Empty() Result {
	return Result{
		Suggestions: []Item{},
		Categories: Categories{
			Schools:         []Item{},
			Locations:       []Item{},
			Specializations: []Item{},
			Facilities:      []Item{},
		},
	}
}
