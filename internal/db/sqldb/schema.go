package sqldb

// schema returns the bootstrap DDL, one statement per element.
// Column types are chosen to be valid in both sqlite and postgres.
func schema(d Dialect) []string {
	floatType := "REAL"
	if d == Postgres {
		floatType = "DOUBLE PRECISION"
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS schools (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			short_name TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL,
			street TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			postal_code TEXT NOT NULL DEFAULT '',
			region TEXT NOT NULL DEFAULT '',
			district TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			website TEXT NOT NULL DEFAULT '',
			latitude ` + floatType + `,
			longitude ` + floatType + `,
			student_count INTEGER CHECK (student_count >= 0),
			teacher_count INTEGER CHECK (teacher_count >= 0),
			established_year INTEGER,
			status TEXT NOT NULL DEFAULT 'active',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_schools_status ON schools(status)`,
		`CREATE INDEX IF NOT EXISTS idx_schools_region_city ON schools(region, city)`,
		`CREATE TABLE IF NOT EXISTS school_labels (
			school_id TEXT NOT NULL REFERENCES schools(id) ON DELETE CASCADE,
			kind TEXT NOT NULL,
			position INTEGER NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (school_id, kind, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_school_labels_kind_value ON school_labels(kind, value)`,
		`CREATE TABLE IF NOT EXISTS school_ratings (
			id TEXT PRIMARY KEY,
			school_id TEXT NOT NULL REFERENCES schools(id) ON DELETE CASCADE,
			rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_school_ratings_school ON school_ratings(school_id)`,
		`CREATE TABLE IF NOT EXISTS search_analytics (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			result_count INTEGER NOT NULL DEFAULT 0,
			searched_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_search_analytics_searched_at ON search_analytics(searched_at)`,
	}
}
