package school

import (
	"fmt"
	"strings"

	domschool "github.com/kailas-cloud/schooldex/internal/domain/school"
	"github.com/kailas-cloud/schooldex/internal/domain/search/filter"
	"github.com/kailas-cloud/schooldex/internal/domain/search/request"
)

// fromClause joins the per-school rating aggregate so every query can filter and sort on it.
const fromClause = ` FROM schools s
LEFT JOIN (
	SELECT school_id, AVG(rating) AS avg_rating, COUNT(*) AS rating_count
	FROM school_ratings GROUP BY school_id
) r ON r.school_id = s.id`

const schoolColumns = `s.id, s.name, s.short_name, s.type,
	s.street, s.city, s.postal_code, s.region, s.district,
	s.phone, s.email, s.website, s.latitude, s.longitude,
	s.student_count, s.teacher_count, s.established_year, s.status,
	r.avg_rating, COALESCE(r.rating_count, 0)`

// scalarColumns maps readable scalar fields to columns.
var scalarColumns = map[domschool.Field]string{
	domschool.FieldCategory:     "s.type",
	domschool.FieldRegion:       "s.region",
	domschool.FieldCity:         "s.city",
	domschool.FieldDistrict:     "s.district",
	domschool.FieldStudentCount: "s.student_count",
	domschool.FieldTeacherCount: "s.teacher_count",
	domschool.FieldFoundedYear:  "s.established_year",
}

var sortColumns = map[request.SortField]string{
	request.SortName:        "s.name",
	request.SortType:        "s.type",
	request.SortStudents:    "s.student_count",
	request.SortEstablished: "s.established_year",
	request.SortRating:      "r.avg_rating",
}

// where accumulates predicates and their bind arguments in order.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *where) in(column string, values []string) {
	if len(values) == 0 {
		return
	}
	w.add(column+" IN ("+placeholders(len(values))+")", toArgs(values)...)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// buildWhere translates a filter into SQL: AND across fields, IN (OR) within a field.
func buildWhere(f filter.Filter) *where {
	w := &where{}
	if f.Status != "" {
		w.add("s.status = ?", string(f.Status))
	}
	if len(f.Categories) > 0 {
		cats := make([]string, len(f.Categories))
		for i, c := range f.Categories {
			cats[i] = string(c)
		}
		w.in("s.type", cats)
	}
	w.in("s.region", f.Regions)
	w.in("s.city", f.Cities)
	w.in("s.district", f.Districts)
	for _, lf := range domschool.ListFields() {
		values := f.Labels(lf)
		if len(values) == 0 {
			continue
		}
		args := append([]any{string(lf)}, toArgs(values)...)
		w.add(`EXISTS (SELECT 1 FROM school_labels l
			WHERE l.school_id = s.id AND l.kind = ? AND l.value IN (`+placeholders(len(values))+`))`, args...)
	}
	if f.Text != "" {
		pattern := "%" + escapeLike(strings.ToLower(f.Text)) + "%"
		w.add(`(LOWER(s.name) LIKE ? ESCAPE '\' OR LOWER(s.short_name) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	rangeConds(w, "s.student_count", f.Students)
	rangeConds(w, "s.established_year", f.Founded)
	if f.MinRating != nil {
		w.add("r.avg_rating >= ?", *f.MinRating)
	}
	return w
}

func rangeConds(w *where, column string, r filter.Range) {
	if r.Min != nil {
		w.add(column+" >= ?", *r.Min)
	}
	if r.Max != nil {
		w.add(column+" <= ?", *r.Max)
	}
}

// orderBy keeps NULLs last in both dialects and breaks ties by id.
func orderBy(s request.Sort) (string, error) {
	col, ok := sortColumns[s.Field]
	if !ok {
		return "", fmt.Errorf("unsupported sort field %q", s.Field)
	}
	dir := "ASC"
	if s.Order == request.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY (%s IS NULL), %s %s, s.id ASC", col, col, dir), nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

func toArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
