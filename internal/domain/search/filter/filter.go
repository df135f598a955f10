// Package filter holds the structured school filter shared by every query kind.
package filter

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/schooldex/internal/domain/school"
)

// Filter limits.
const (
	// MaxValuesPerSet is the maximum number of values in one multi-valued condition.
	MaxValuesPerSet = 32
	// MaxTextLength is the maximum length of the free-text name condition.
	MaxTextLength = 200
	// MaxValueLength is the maximum length of a single set value.
	MaxValueLength = 100
)

// Range is an inclusive integer range; nil bounds are open.
type Range struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
}

// IsEmpty reports whether neither bound is set.
func (r Range) IsEmpty() bool { return r.Min == nil && r.Max == nil }

// Contains reports whether v lies inside the range.
func (r Range) Contains(v int) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

func (r Range) validate(name string) error {
	if r.Min != nil && *r.Min < 0 {
		return fmt.Errorf("%s.min must be non-negative", name)
	}
	if r.Max != nil && *r.Max < 0 {
		return fmt.Errorf("%s.max must be non-negative", name)
	}
	if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
		return fmt.Errorf("%s.min must not exceed %s.max", name, name)
	}
	return nil
}

// Filter restricts the school population. Conditions are ANDed across fields
// and ORed within a multi-valued field.
type Filter struct {
	Status          school.Status     `json:"status,omitempty"`
	Categories      []school.Category `json:"categories,omitempty"`
	Regions         []string          `json:"regions,omitempty"`
	Cities          []string          `json:"cities,omitempty"`
	Districts       []string          `json:"districts,omitempty"`
	Languages       []string          `json:"languages,omitempty"`
	Specializations []string          `json:"specializations,omitempty"`
	Facilities      []string          `json:"facilities,omitempty"`
	Text            string            `json:"text,omitempty"`
	Students        Range             `json:"students,omitzero"`
	Founded         Range             `json:"founded,omitzero"`
	MinRating       *float64          `json:"minRating,omitempty"`
}

// Active returns a filter restricted to active schools.
func Active() Filter {
	return Filter{Status: school.Active}
}

// Normalize trims and deduplicates set values, sorts them, and defaults the status to active.
// Two filters that select the same population normalize to equal values.
func (f Filter) Normalize() Filter {
	out := f
	if out.Status == "" {
		out.Status = school.Active
	}
	out.Categories = normalizeCategories(f.Categories)
	out.Regions = normalizeSet(f.Regions)
	out.Cities = normalizeSet(f.Cities)
	out.Districts = normalizeSet(f.Districts)
	out.Languages = normalizeSet(f.Languages)
	out.Specializations = normalizeSet(f.Specializations)
	out.Facilities = normalizeSet(f.Facilities)
	out.Text = strings.TrimSpace(f.Text)
	// A zero minimum means any rating, which must keep unrated schools.
	if f.MinRating != nil && *f.MinRating == 0 {
		out.MinRating = nil
	}
	return out
}

// Validate checks value counts, lengths and ranges.
func (f Filter) Validate() error {
	if f.Status != "" && !f.Status.IsValid() {
		return fmt.Errorf("invalid status %q", f.Status)
	}
	if len(f.Categories) > MaxValuesPerSet {
		return fmt.Errorf("too many categories (max %d)", MaxValuesPerSet)
	}
	for _, c := range f.Categories {
		if !c.IsValid() {
			return fmt.Errorf("invalid category %q", c)
		}
	}
	sets := []struct {
		name   string
		values []string
	}{
		{"regions", f.Regions},
		{"cities", f.Cities},
		{"districts", f.Districts},
		{"languages", f.Languages},
		{"specializations", f.Specializations},
		{"facilities", f.Facilities},
	}
	for _, s := range sets {
		if len(s.values) > MaxValuesPerSet {
			return fmt.Errorf("too many %s (max %d)", s.name, MaxValuesPerSet)
		}
		for _, v := range s.values {
			if utf8.RuneCountInString(v) > MaxValueLength {
				return fmt.Errorf("%s value too long (max %d chars)", s.name, MaxValueLength)
			}
		}
	}
	if utf8.RuneCountInString(f.Text) > MaxTextLength {
		return fmt.Errorf("text too long (max %d chars)", MaxTextLength)
	}
	if err := f.Students.validate("students"); err != nil {
		return err
	}
	if err := f.Founded.validate("founded"); err != nil {
		return err
	}
	if f.MinRating != nil && (*f.MinRating < 0 || *f.MinRating > 5) {
		return fmt.Errorf("minRating must be between 0 and 5")
	}
	return nil
}

// Labels returns the condition values for a list-valued field.
func (f Filter) Labels(field school.ListField) []string {
	switch field {
	case school.Languages:
		return f.Languages
	case school.Specializations:
		return f.Specializations
	case school.Facilities:
		return f.Facilities
	default:
		return nil
	}
}

func normalizeSet(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}

func normalizeCategories(cs []school.Category) []school.Category {
	if len(cs) == 0 {
		return nil
	}
	raw := make([]string, len(cs))
	for i, c := range cs {
		raw[i] = strings.ToLower(string(c))
	}
	set := normalizeSet(raw)
	if set == nil {
		return nil
	}
	out := make([]school.Category, len(set))
	for i, v := range set {
		out[i] = school.Category(v)
	}
	return out
}
