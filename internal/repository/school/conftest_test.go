package school

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kailas-cloud/schooldex/internal/db/sqldb"
	"github.com/kailas-cloud/schooldex/internal/domain/geo"
	domschool "github.com/kailas-cloud/schooldex/internal/domain/school"
)

func intPtr(v int) *int { return &v }

func floatPtr(f float64) *float64 { return &f }

// newTestRepo opens a migrated sqlite store in a temp dir.
func newTestRepo(t *testing.T) (*Repo, *sqldb.DB) {
	t.Helper()
	ctx := context.Background()
	d, err := sqldb.Open(ctx, sqldb.Config{
		Dialect: sqldb.SQLite,
		DSN:     "file:" + filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	if err := d.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(d, nil), d
}

// fixtureSchools is a small population covering every filter dimension.
func fixtureSchools() []domschool.School {
	return []domschool.School{
		{
			ID: "sp1", Name: "Szkoła Podstawowa nr 1 w Poznaniu", ShortName: "SP1",
			Category: domschool.Primary, Status: domschool.Active,
			Address:      domschool.Address{City: "Poznań", Region: "wielkopolskie", District: "Jeżyce"},
			Location:     &geo.Point{Latitude: 52.4064, Longitude: 16.9252},
			StudentCount: intPtr(250), FoundedYear: intPtr(1925),
			Languages:  []string{"English", "German"},
			Facilities: []string{"Gym", "Library"},
		},
		{
			ID: "lo3", Name: "III Liceum Ogólnokształcące", ShortName: "III LO",
			Category: domschool.HighSchool, Status: domschool.Active,
			Address:         domschool.Address{City: "Poznań", Region: "wielkopolskie", District: "Stare Miasto"},
			StudentCount:    intPtr(800), FoundedYear: intPtr(1985),
			Languages:       []string{"English", "French"},
			Specializations: []string{"Mathematics", "Physics"},
		},
		{
			ID: "sp2", Name: "Szkoła Podstawowa nr 2", ShortName: "SP2",
			Category: domschool.Primary, Status: domschool.Active,
			Address:      domschool.Address{City: "Warszawa", Region: "mazowieckie"},
			StudentCount: intPtr(90),
			Languages:    []string{"English"},
			Facilities:   []string{"Pool"},
		},
		{
			ID: "tech", Name: "Technikum Elektroniczne", Category: domschool.Technical, Status: domschool.Active,
			Address: domschool.Address{Region: "mazowieckie"},
		},
		{
			ID: "old", Name: "Zamknięta Szkoła", Category: domschool.Primary, Status: domschool.Inactive,
			Address: domschool.Address{City: "Poznań", Region: "wielkopolskie"},
		},
	}
}

// seedRepo writes the fixture schools plus ratings: sp1 avg 4.5, lo3 avg 3.
func seedRepo(t *testing.T, r *Repo) {
	t.Helper()
	ctx := context.Background()
	if err := r.Upsert(ctx, fixtureSchools()); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	ratings := []Rating{
		{ID: "r1", SchoolID: "sp1", Value: 5},
		{ID: "r2", SchoolID: "sp1", Value: 4},
		{ID: "r3", SchoolID: "lo3", Value: 3},
	}
	if err := r.AddRatings(ctx, ratings); err != nil {
		t.Fatalf("add ratings: %v", err)
	}
}
