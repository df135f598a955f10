package school

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/schooldex/internal/db"
	"github.com/kailas-cloud/schooldex/internal/domain"
	"github.com/kailas-cloud/schooldex/internal/domain/facet"
	"github.com/kailas-cloud/schooldex/internal/domain/geo"
	domschool "github.com/kailas-cloud/schooldex/internal/domain/school"
	"github.com/kailas-cloud/schooldex/internal/domain/search/filter"
	"github.com/kailas-cloud/schooldex/internal/domain/search/request"
)

// store is the consumer interface for the relational store (ISP).
type store interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	PingContext(ctx context.Context) error
	Rebind(query string) string
}

// Repo is the read-only entity store adapter over the schools tables.
// Every failure is reported as domain.ErrStoreUnavailable; there are no retries.
type Repo struct {
	store    store
	duration *prometheus.HistogramVec
}

// New creates a school repository.
// duration is a histogram vec with labels "op" and "status", passed explicitly (may be nil).
func New(s store, duration *prometheus.HistogramVec) *Repo {
	return &Repo{store: s, duration: duration}
}

// FetchEntities returns every school matching the filter, labels included.
func (r *Repo) FetchEntities(ctx context.Context, f filter.Filter) (_ []domschool.School, err error) {
	defer r.observe("fetch_entities", time.Now(), &err)

	w := buildWhere(f)
	query := "SELECT " + schoolColumns + fromClause + w.String() + " ORDER BY s.name, s.id"
	schools, err := r.querySchools(ctx, query, w.args)
	if err != nil {
		return nil, domain.StoreError("fetch entities", err)
	}
	if len(schools) == 0 {
		return schools, nil
	}

	labelQuery := "SELECT l.school_id, l.kind, l.value FROM school_labels l JOIN schools s ON s.id = l.school_id" +
		" LEFT JOIN (SELECT school_id, AVG(rating) AS avg_rating FROM school_ratings GROUP BY school_id) r ON r.school_id = s.id" +
		w.String() + " ORDER BY l.school_id, l.kind, l.position"
	if err := r.attachLabels(ctx, schools, labelQuery, w.args); err != nil {
		return nil, domain.StoreError("fetch labels", err)
	}
	return schools, nil
}

// FetchField returns the raw values of one field over the filtered population.
// List fields yield one value per stored element; empty and NULL scalars are skipped.
func (r *Repo) FetchField(ctx context.Context, field domschool.Field, f filter.Filter) (_ []string, err error) {
	defer r.observe("fetch_field", time.Now(), &err)

	w := buildWhere(f)
	var query string
	args := w.args
	switch {
	case field.IsList():
		query = "SELECT l.value" + fromClause + " JOIN school_labels l ON l.school_id = s.id" + w.String()
		if len(w.conds) == 0 {
			query += " WHERE l.kind = ?"
		} else {
			query += " AND l.kind = ?"
		}
		args = append(append([]any{}, w.args...), string(field))
		query += " ORDER BY s.id, l.position"
	case field.IsNumeric():
		col := scalarColumns[field]
		query = "SELECT " + col + fromClause + w.String()
		query += andOrWhere(w, col+" IS NOT NULL")
	default:
		col, ok := scalarColumns[field]
		if !ok {
			return nil, domain.NewValidationError("field", fmt.Sprintf("unknown field %q", field))
		}
		query = "SELECT " + col + fromClause + w.String()
		query += andOrWhere(w, col+" <> ''")
	}

	rows, err := r.store.QueryContext(ctx, r.store.Rebind(query), args...)
	if err != nil {
		return nil, domain.StoreError("fetch field", &db.Error{Op: db.OpQuery, Err: err})
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		if field.IsNumeric() {
			var n int64
			if err := rows.Scan(&n); err != nil {
				return nil, domain.StoreError("fetch field", &db.Error{Op: db.OpQuery, Err: err})
			}
			values = append(values, strconv.FormatInt(n, 10))
			continue
		}
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, domain.StoreError("fetch field", &db.Error{Op: db.OpQuery, Err: err})
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StoreError("fetch field", &db.Error{Op: db.OpQuery, Err: err})
	}
	return values, nil
}

// ListEntities returns one page of matching schools in the requested order.
func (r *Repo) ListEntities(ctx context.Context, f filter.Filter, s request.Sort, offset, limit int) (_ []domschool.School, err error) {
	defer r.observe("list_entities", time.Now(), &err)

	order, err := orderBy(s)
	if err != nil {
		return nil, domain.NewValidationError("sort", err.Error())
	}
	w := buildWhere(f)
	query := "SELECT " + schoolColumns + fromClause + w.String() + order + " LIMIT ? OFFSET ?"
	args := append(append([]any{}, w.args...), limit, offset)

	schools, err := r.querySchools(ctx, query, args)
	if err != nil {
		return nil, domain.StoreError("list entities", err)
	}
	if len(schools) == 0 {
		return schools, nil
	}

	ids := make([]string, len(schools))
	for i := range schools {
		ids[i] = schools[i].ID
	}
	labelQuery := "SELECT school_id, kind, value FROM school_labels WHERE school_id IN (" +
		placeholders(len(ids)) + ") ORDER BY school_id, kind, position"
	if err := r.attachLabels(ctx, schools, labelQuery, toArgs(ids)); err != nil {
		return nil, domain.StoreError("list labels", err)
	}
	return schools, nil
}

// CountEntities returns the number of schools matching the filter.
func (r *Repo) CountEntities(ctx context.Context, f filter.Filter) (_ int, err error) {
	defer r.observe("count_entities", time.Now(), &err)

	w := buildWhere(f)
	query := "SELECT COUNT(*)" + fromClause + w.String()
	var n int
	if err := r.store.QueryRowContext(ctx, r.store.Rebind(query), w.args...).Scan(&n); err != nil {
		return 0, domain.StoreError("count entities", &db.Error{Op: db.OpQuery, Err: err})
	}
	return n, nil
}

// FetchPopularSearches returns the most frequent search terms recorded since the given instant.
func (r *Repo) FetchPopularSearches(ctx context.Context, since time.Time, limit int) (_ []facet.PopularSearch, err error) {
	defer r.observe("popular_searches", time.Now(), &err)

	query := `SELECT LOWER(TRIM(query)) AS term, COUNT(*) AS cnt
		FROM search_analytics
		WHERE searched_at >= ? AND TRIM(query) <> ''
		GROUP BY LOWER(TRIM(query))
		ORDER BY cnt DESC, term ASC
		LIMIT ?`
	rows, err := r.store.QueryContext(ctx, r.store.Rebind(query), since.UTC(), limit)
	if err != nil {
		return nil, domain.StoreError("popular searches", &db.Error{Op: db.OpQuery, Err: err})
	}
	defer rows.Close()

	out := []facet.PopularSearch{}
	for rows.Next() {
		var p facet.PopularSearch
		if err := rows.Scan(&p.Term, &p.Count); err != nil {
			return nil, domain.StoreError("popular searches", &db.Error{Op: db.OpQuery, Err: err})
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StoreError("popular searches", &db.Error{Op: db.OpQuery, Err: err})
	}
	return out, nil
}

// Ping checks connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.store.PingContext(ctx); err != nil {
		return domain.StoreError("ping", err)
	}
	return nil
}

func (r *Repo) querySchools(ctx context.Context, query string, args []any) ([]domschool.School, error) {
	rows, err := r.store.QueryContext(ctx, r.store.Rebind(query), args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	defer rows.Close()

	schools := []domschool.School{}
	for rows.Next() {
		s, err := scanSchool(rows)
		if err != nil {
			return nil, &db.Error{Op: db.OpQuery, Err: err}
		}
		schools = append(schools, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	return schools, nil
}

func (r *Repo) attachLabels(ctx context.Context, schools []domschool.School, query string, args []any) error {
	index := make(map[string]int, len(schools))
	for i := range schools {
		index[schools[i].ID] = i
	}

	rows, err := r.store.QueryContext(ctx, r.store.Rebind(query), args...)
	if err != nil {
		return &db.Error{Op: db.OpQuery, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var id, kind, value string
		if err := rows.Scan(&id, &kind, &value); err != nil {
			return &db.Error{Op: db.OpQuery, Err: err}
		}
		i, ok := index[id]
		if !ok {
			continue
		}
		s := &schools[i]
		switch domschool.ListField(kind) {
		case domschool.Languages:
			s.Languages = append(s.Languages, value)
		case domschool.Specializations:
			s.Specializations = append(s.Specializations, value)
		case domschool.Facilities:
			s.Facilities = append(s.Facilities, value)
		}
	}
	if err := rows.Err(); err != nil {
		return &db.Error{Op: db.OpQuery, Err: err}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSchool(row scanner) (domschool.School, error) {
	var (
		s                      domschool.School
		category, status       string
		lat, lng, avg          sql.NullFloat64
		students, teachers, yr sql.NullInt64
	)
	err := row.Scan(
		&s.ID, &s.Name, &s.ShortName, &category,
		&s.Address.Street, &s.Address.City, &s.Address.PostalCode, &s.Address.Region, &s.Address.District,
		&s.Contact.Phone, &s.Contact.Email, &s.Contact.Website, &lat, &lng,
		&students, &teachers, &yr, &status,
		&avg, &s.RatingCount,
	)
	if err != nil {
		return domschool.School{}, fmt.Errorf("scan school: %w", err)
	}
	s.Category = domschool.Category(category)
	s.Status = domschool.Status(status)
	if lat.Valid && lng.Valid {
		s.Location = &geo.Point{Latitude: lat.Float64, Longitude: lng.Float64}
	}
	s.StudentCount = nullInt(students)
	s.TeacherCount = nullInt(teachers)
	s.FoundedYear = nullInt(yr)
	if avg.Valid {
		v := avg.Float64
		s.AvgRating = &v
	}
	return s, nil
}

func nullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func andOrWhere(w *where, cond string) string {
	if len(w.conds) == 0 {
		return " WHERE " + cond
	}
	return " AND " + cond
}

func (r *Repo) observe(op string, start time.Time, errp *error) {
	if r.duration == nil {
		return
	}
	status := "ok"
	if *errp != nil {
		status = "error"
	}
	r.duration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
}
