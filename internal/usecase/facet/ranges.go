package facet

import (
	domfacet "github.com/kailas-cloud/schooldex/internal/domain/facet"
	"github.com/kailas-cloud/schooldex/internal/domain/geo"
	"github.com/kailas-cloud/schooldex/internal/domain/school"
)

// Fallback bounds reported when no school carries the attribute.
const (
	defaultMinStudents = 0
	defaultMaxStudents = 1000
	defaultMinYear     = 1900
	minRating          = 1
	maxRating          = 5
	maxDistanceKm      = 100
)

// rangeFacet counts values into every range of the table. Overlapping tables
// count a value into each range that contains it.
func rangeFacet(table []domfacet.RangeDef, values []float64, lo, hi float64) domfacet.Facet {
	rf := &domfacet.RangeFacet{Min: lo, Max: hi, Ranges: make([]domfacet.RangeBucket, len(table))}
	for i, def := range table {
		rf.Ranges[i] = domfacet.RangeBucket{RangeDef: def}
	}
	for _, v := range values {
		for i := range rf.Ranges {
			if rf.Ranges[i].Contains(v) {
				rf.Ranges[i].Count++
			}
		}
	}
	return domfacet.Facet{Range: rf}
}

func observedBounds(values []float64, lo, hi float64) (float64, float64) {
	if len(values) == 0 {
		return lo, hi
	}
	minV, maxV := values[0], values[0]
	for _, v := range values[1:] {
		minV = min(minV, v)
		maxV = max(maxV, v)
	}
	return minV, maxV
}

func intValues(schools []school.School, get func(*school.School) *int) []float64 {
	var out []float64
	for i := range schools {
		if v := get(&schools[i]); v != nil {
			out = append(out, float64(*v))
		}
	}
	return out
}

func studentRanges(schools []school.School) domfacet.Facet {
	values := intValues(schools, func(s *school.School) *int { return s.StudentCount })
	lo, hi := observedBounds(values, defaultMinStudents, defaultMaxStudents)
	return rangeFacet(domfacet.StudentTable, values, lo, hi)
}

func yearRanges(schools []school.School, currentYear int) domfacet.Facet {
	values := intValues(schools, func(s *school.School) *int { return s.FoundedYear })
	lo, hi := observedBounds(values, defaultMinYear, float64(currentYear))
	return rangeFacet(domfacet.YearTable, values, lo, hi)
}

// ratingRanges reports the fixed 1-5 scale as bounds.
func ratingRanges(schools []school.School) domfacet.Facet {
	var values []float64
	for i := range schools {
		if r := schools[i].AvgRating; r != nil {
			values = append(values, *r)
		}
	}
	return rangeFacet(domfacet.RatingTable, values, minRating, maxRating)
}

func distanceRanges(schools []school.School, origin *geo.Point) domfacet.Facet {
	var values []float64
	if origin != nil {
		for i := range schools {
			if loc := schools[i].Location; loc != nil {
				values = append(values, origin.DistanceKm(*loc))
			}
		}
	}
	return rangeFacet(domfacet.DistanceTable, values, 0, maxDistanceKm)
}
