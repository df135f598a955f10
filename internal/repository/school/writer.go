package school

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/schooldex/internal/db"
	"github.com/kailas-cloud/schooldex/internal/domain"
	domschool "github.com/kailas-cloud/schooldex/internal/domain/school"
)

// Rating is a single user rating of a school.
type Rating struct {
	ID       string
	SchoolID string
	Value    int
	At       time.Time
}

// Search is a recorded search term.
type Search struct {
	ID          string
	Query       string
	ResultCount int
	At          time.Time
}

const upsertSchool = `INSERT INTO schools (
	id, name, short_name, type, street, city, postal_code, region, district,
	phone, email, website, latitude, longitude,
	student_count, teacher_count, established_year, status
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	name = excluded.name, short_name = excluded.short_name, type = excluded.type,
	street = excluded.street, city = excluded.city, postal_code = excluded.postal_code,
	region = excluded.region, district = excluded.district,
	phone = excluded.phone, email = excluded.email, website = excluded.website,
	latitude = excluded.latitude, longitude = excluded.longitude,
	student_count = excluded.student_count, teacher_count = excluded.teacher_count,
	established_year = excluded.established_year, status = excluded.status`

// Upsert writes schools and replaces their labels in one transaction.
// Used by the seed command; the query path never writes.
func (r *Repo) Upsert(ctx context.Context, schools []domschool.School) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for i := range schools {
			s := &schools[i]
			var lat, lng any
			if s.Location != nil {
				lat, lng = s.Location.Latitude, s.Location.Longitude
			}
			_, err := tx.ExecContext(ctx, r.store.Rebind(upsertSchool),
				s.ID, s.Name, s.ShortName, string(s.Category),
				s.Address.Street, s.Address.City, s.Address.PostalCode, s.Address.Region, s.Address.District,
				s.Contact.Phone, s.Contact.Email, s.Contact.Website, lat, lng,
				intArg(s.StudentCount), intArg(s.TeacherCount), intArg(s.FoundedYear), string(s.Status),
			)
			if err != nil {
				return fmt.Errorf("upsert school %s: %w", s.ID, err)
			}

			if _, err := tx.ExecContext(ctx, r.store.Rebind("DELETE FROM school_labels WHERE school_id = ?"), s.ID); err != nil {
				return fmt.Errorf("clear labels %s: %w", s.ID, err)
			}
			for _, lf := range domschool.ListFields() {
				for pos, value := range s.Labels(lf) {
					_, err := tx.ExecContext(ctx,
						r.store.Rebind("INSERT INTO school_labels (school_id, kind, position, value) VALUES (?, ?, ?, ?)"),
						s.ID, string(lf), pos, value,
					)
					if err != nil {
						return fmt.Errorf("insert label %s/%s: %w", s.ID, lf, err)
					}
				}
			}
		}
		return nil
	})
}

// AddRatings stores ratings.
func (r *Repo) AddRatings(ctx context.Context, ratings []Rating) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, rt := range ratings {
			_, err := tx.ExecContext(ctx,
				r.store.Rebind("INSERT INTO school_ratings (id, school_id, rating, created_at) VALUES (?, ?, ?, ?)"),
				rt.ID, rt.SchoolID, rt.Value, rt.At.UTC(),
			)
			if err != nil {
				return fmt.Errorf("insert rating %s: %w", rt.ID, err)
			}
		}
		return nil
	})
}

// RecordSearches stores search analytics rows.
func (r *Repo) RecordSearches(ctx context.Context, searches []Search) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, s := range searches {
			_, err := tx.ExecContext(ctx,
				r.store.Rebind("INSERT INTO search_analytics (id, query, result_count, searched_at) VALUES (?, ?, ?, ?)"),
				s.ID, s.Query, s.ResultCount, s.At.UTC(),
			)
			if err != nil {
				return fmt.Errorf("insert search %s: %w", s.ID, err)
			}
		}
		return nil
	})
}

// RecordSearch stores one search term with a fresh id.
func (r *Repo) RecordSearch(ctx context.Context, query string, resultCount int) error {
	err := r.RecordSearches(ctx, []Search{{
		ID:          uuid.NewString(),
		Query:       query,
		ResultCount: resultCount,
		At:          time.Now(),
	}})
	if err != nil {
		return domain.StoreError("record search", err)
	}
	return nil
}

func (r *Repo) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.store.BeginTx(ctx, nil)
	if err != nil {
		return &db.Error{Op: db.OpExec, Err: err}
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return &db.Error{Op: db.OpExec, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &db.Error{Op: db.OpExec, Err: err}
	}
	return nil
}

func intArg(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
