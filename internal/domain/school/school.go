// Package school holds the school entity read from the directory store.
package school

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/schooldex/internal/domain/geo"
)

// MinFoundedYear is the earliest accepted founding year.
const MinFoundedYear = 1000

// Category is the school type.
type Category string

// Category constants.
const (
	Preschool           Category = "preschool"
	Kindergarten        Category = "kindergarten"
	Primary             Category = "primary"
	MiddleSchool        Category = "middle_school"
	HighSchool          Category = "high_school"
	Secondary           Category = "secondary"
	Technical           Category = "technical"
	Vocational          Category = "vocational"
	Vocational2         Category = "vocational_2"
	PostSecondary       Category = "post_secondary"
	Combined            Category = "combined"
	Special             Category = "special"
	University          Category = "university"
	TechnicalUniversity Category = "technical_university"
	Academy             Category = "academy"
	College             Category = "college"
	Other               Category = "other"
)

var categories = []Category{
	Preschool, Kindergarten, Primary, MiddleSchool, HighSchool, Secondary, Technical,
	Vocational, Vocational2, PostSecondary, Combined, Special,
	University, TechnicalUniversity, Academy, College, Other,
}

// Categories returns all known categories in declaration order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// IsValid checks if the category is one of the supported values.
func (c Category) IsValid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory normalizes s and returns the matching category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("unknown school category %q", s)
	}
	return c, nil
}

// Status is the publication state of a school record.
type Status string

// Status constants.
const (
	Active   Status = "active"
	Inactive Status = "inactive"
)

// IsValid checks if the status is one of the supported values.
func (s Status) IsValid() bool {
	return s == Active || s == Inactive
}

// Address is a postal address. Every part is optional.
type Address struct {
	Street     string `json:"street,omitempty" yaml:"street"`
	City       string `json:"city,omitempty" yaml:"city"`
	PostalCode string `json:"postalCode,omitempty" yaml:"postal_code"`
	Region     string `json:"region,omitempty" yaml:"region"`
	District   string `json:"district,omitempty" yaml:"district"`
}

// Contact holds public contact channels.
type Contact struct {
	Phone   string `json:"phone,omitempty" yaml:"phone"`
	Email   string `json:"email,omitempty" yaml:"email"`
	Website string `json:"website,omitempty" yaml:"website"`
}

// School is a read-only school record.
type School struct {
	ID              string     `json:"id" yaml:"id"`
	Name            string     `json:"name" yaml:"name"`
	ShortName       string     `json:"shortName,omitempty" yaml:"short_name"`
	Category        Category   `json:"type" yaml:"type"`
	Address         Address    `json:"address" yaml:"address"`
	Contact         Contact    `json:"contact" yaml:"contact"`
	Location        *geo.Point `json:"location,omitempty" yaml:"location"`
	StudentCount    *int       `json:"studentCount,omitempty" yaml:"student_count"`
	TeacherCount    *int       `json:"teacherCount,omitempty" yaml:"teacher_count"`
	FoundedYear     *int       `json:"establishedYear,omitempty" yaml:"established_year"`
	Languages       []string   `json:"languages,omitempty" yaml:"languages"`
	Specializations []string   `json:"specializations,omitempty" yaml:"specializations"`
	Facilities      []string   `json:"facilities,omitempty" yaml:"facilities"`
	Status          Status     `json:"status" yaml:"status"`
	AvgRating       *float64   `json:"avgRating,omitempty" yaml:"-"`
	RatingCount     int        `json:"ratingCount" yaml:"-"`
}

// Validate checks the record invariants against the given clock.
func (s *School) Validate(now time.Time) error {
	if s.Name == "" {
		return fmt.Errorf("school name is required")
	}
	if !s.Category.IsValid() {
		return fmt.Errorf("invalid category %q", s.Category)
	}
	if !s.Status.IsValid() {
		return fmt.Errorf("invalid status %q", s.Status)
	}
	if s.StudentCount != nil && *s.StudentCount < 0 {
		return fmt.Errorf("student count must be non-negative, got %d", *s.StudentCount)
	}
	if s.TeacherCount != nil && *s.TeacherCount < 0 {
		return fmt.Errorf("teacher count must be non-negative, got %d", *s.TeacherCount)
	}
	if s.FoundedYear != nil {
		y := *s.FoundedYear
		if y < MinFoundedYear || y > now.Year() {
			return fmt.Errorf("founding year must be between %d and %d, got %d", MinFoundedYear, now.Year(), y)
		}
	}
	if s.Location != nil && !s.Location.Valid() {
		return fmt.Errorf("invalid location %v,%v", s.Location.Latitude, s.Location.Longitude)
	}
	return nil
}

// Labels returns the list attribute for field, or nil when the field is not a list.
func (s *School) Labels(field ListField) []string {
	switch field {
	case Languages:
		return s.Languages
	case Specializations:
		return s.Specializations
	case Facilities:
		return s.Facilities
	default:
		return nil
	}
}

// ListField names a list-valued attribute.
type ListField string

// List attributes.
const (
	Languages       ListField = "languages"
	Specializations ListField = "specializations"
	Facilities      ListField = "facilities"
)

// ListFields returns every list-valued attribute.
func ListFields() []ListField {
	return []ListField{Languages, Specializations, Facilities}
}
