package school

import (
	"testing"
	"time"

	"github.com/kailas-cloud/schooldex/internal/domain/geo"
)

func intPtr(v int) *int { return &v }

func validSchool() School {
	return School{
		ID:       "s1",
		Name:     "Szkoła Podstawowa nr 1",
		Category: Primary,
		Status:   Active,
	}
}

func TestValidate(t *testing.T) {
	now := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		mutate  func(s *School)
		wantErr bool
	}{
		{"valid", func(_ *School) {}, false},
		{"missing name", func(s *School) { s.Name = "" }, true},
		{"bad category", func(s *School) { s.Category = "nursery" }, true},
		{"high school", func(s *School) { s.Category = HighSchool }, false},
		{"kindergarten", func(s *School) { s.Category = "kindergarten" }, false},
		{"middle school", func(s *School) { s.Category = "middle_school" }, false},
		{"bad status", func(s *School) { s.Status = "archived" }, true},
		{"negative students", func(s *School) { s.StudentCount = intPtr(-1) }, true},
		{"zero students", func(s *School) { s.StudentCount = intPtr(0) }, false},
		{"negative teachers", func(s *School) { s.TeacherCount = intPtr(-3) }, true},
		{"year too early", func(s *School) { s.FoundedYear = intPtr(999) }, true},
		{"year lower bound", func(s *School) { s.FoundedYear = intPtr(1000) }, false},
		{"year current", func(s *School) { s.FoundedYear = intPtr(2026) }, false},
		{"year in future", func(s *School) { s.FoundedYear = intPtr(2027) }, true},
		{"bad location", func(s *School) { s.Location = &geo.Point{Latitude: 91} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSchool()
			tt.mutate(&s)
			err := s.Validate(now)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("  Primary ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != Primary {
		t.Errorf("got %q, want %q", c, Primary)
	}
	if c, err := ParseCategory("High_School"); err != nil || c != HighSchool {
		t.Errorf("ParseCategory(High_School) = %q, %v", c, err)
	}
	if _, err := ParseCategory("high_school_x"); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestLabels(t *testing.T) {
	s := validSchool()
	s.Languages = []string{"English"}
	s.Facilities = []string{"Gym", "Pool"}
	if got := s.Labels(Languages); len(got) != 1 {
		t.Errorf("languages: got %v", got)
	}
	if got := s.Labels(Facilities); len(got) != 2 {
		t.Errorf("facilities: got %v", got)
	}
	if got := s.Labels("unknown"); got != nil {
		t.Errorf("unknown list field: got %v", got)
	}
}

func TestValues(t *testing.T) {
	s := validSchool()
	s.Address.City = "Poznań"
	s.StudentCount = intPtr(420)
	s.Languages = []string{"English", "English", "German"}

	tests := []struct {
		field Field
		want  []string
	}{
		{FieldCategory, []string{"primary"}},
		{FieldCity, []string{"Poznań"}},
		{FieldRegion, nil},
		{FieldStudentCount, []string{"420"}},
		{FieldFoundedYear, nil},
		{FieldLanguages, []string{"English", "English", "German"}},
		{FieldFacilities, nil},
		{Field("bogus"), nil},
	}
	for _, tt := range tests {
		t.Run(string(tt.field), func(t *testing.T) {
			got := s.Values(tt.field)
			if len(got) != len(tt.want) {
				t.Fatalf("Values(%s) = %v, want %v", tt.field, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Values(%s) = %v, want %v", tt.field, got, tt.want)
				}
			}
		})
	}
}

func TestField_Classes(t *testing.T) {
	if !FieldLanguages.IsList() || FieldCity.IsList() {
		t.Error("IsList misclassified")
	}
	if !FieldFoundedYear.IsNumeric() || FieldCategory.IsNumeric() {
		t.Error("IsNumeric misclassified")
	}
	if Field("name").IsValid() {
		t.Error("name is not a readable field")
	}
}
