// Package facet computes counted facets over a filtered school population.
package facet

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	domfacet "github.com/kailas-cloud/schooldex/internal/domain/facet"
	"github.com/kailas-cloud/schooldex/internal/domain/geo"
	"github.com/kailas-cloud/schooldex/internal/domain/school"
)

// Config holds truncation limits and the language priority list.
type Config struct {
	// Limits maps facet name to the maximum bucket count; missing or 0 means unlimited.
	Limits map[string]int
	// PriorityLanguages are matched case-insensitively as substrings and always listed first.
	PriorityLanguages []string
}

// Aggregator is a pure reducer over a school slice. It holds no per-call state.
type Aggregator struct {
	limits   map[string]int
	priority []string
	tag      language.Tag
	now      func() time.Time
}

// New creates an aggregator.
func New(cfg Config) *Aggregator {
	priority := make([]string, 0, len(cfg.PriorityLanguages))
	for _, p := range cfg.PriorityLanguages {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			priority = append(priority, p)
		}
	}
	limits := make(map[string]int, len(cfg.Limits))
	for k, v := range cfg.Limits {
		limits[k] = v
	}
	return &Aggregator{limits: limits, priority: priority, tag: language.Polish, now: time.Now}
}

// WithClock replaces time.Now used for the default year range bound.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// Compute returns the requested facets. Aliases are expanded, unknown names and
// popularSearches are omitted. origin enables distance counts; without it they are zero.
func (a *Aggregator) Compute(schools []school.School, names []string, origin *geo.Point) domfacet.Set {
	out := make(domfacet.Set)
	// collate.Collator keeps scratch buffers, so one per call.
	cmp := newComparer(a.tag)

	for _, name := range domfacet.Expand(names) {
		switch name {
		case domfacet.Types:
			out[name] = a.buckets(name, countScalar(schools, school.FieldCategory), cmp, nil)
		case domfacet.Regions:
			out[name] = a.buckets(name, countScalar(schools, school.FieldRegion), cmp, nil)
		case domfacet.Cities:
			out[name] = a.buckets(name, countPlaced(schools, school.FieldCity), cmp, nil)
		case domfacet.Districts:
			out[name] = a.buckets(name, countPlaced(schools, school.FieldDistrict), cmp, nil)
		case domfacet.Languages:
			out[name] = a.buckets(name, countList(schools, school.Languages), cmp, a.isPriority)
		case domfacet.Specializations:
			out[name] = a.buckets(name, countList(schools, school.Specializations), cmp, nil)
		case domfacet.Facilities:
			out[name] = a.buckets(name, countList(schools, school.Facilities), cmp, nil)
		case domfacet.StudentRanges:
			out[name] = studentRanges(schools)
		case domfacet.YearRanges:
			out[name] = yearRanges(schools, a.now().Year())
		case domfacet.RatingRanges:
			out[name] = ratingRanges(schools)
		case domfacet.DistanceRanges:
			out[name] = distanceRanges(schools, origin)
		}
	}
	return out
}

// bucketKey identifies a bucket. region is set only for places, so that
// same-named towns in different regions stay apart.
type bucketKey struct {
	value  string
	region string
}

// counts keeps first-seen order so output does not depend on map iteration.
type counts struct {
	order []bucketKey
	n     map[bucketKey]int
}

func newCounts() *counts { return &counts{n: make(map[bucketKey]int)} }

func (c *counts) inc(k bucketKey) {
	if _, ok := c.n[k]; !ok {
		c.order = append(c.order, k)
	}
	c.n[k]++
}

// countScalar increments once per school with a non-empty value.
func countScalar(schools []school.School, f school.Field) *counts {
	c := newCounts()
	for i := range schools {
		for _, v := range schools[i].Values(f) {
			c.inc(bucketKey{value: v})
		}
	}
	return c
}

// countPlaced counts a place field per (value, region) pair.
func countPlaced(schools []school.School, f school.Field) *counts {
	c := newCounts()
	for i := range schools {
		region := schools[i].Address.Region
		for _, v := range schools[i].Values(f) {
			c.inc(bucketKey{value: v, region: region})
		}
	}
	return c
}

// countList increments once per list element; repeated elements land in the same bucket.
func countList(schools []school.School, f school.ListField) *counts {
	c := newCounts()
	for i := range schools {
		for _, v := range schools[i].Labels(f) {
			if v = strings.TrimSpace(v); v != "" {
				c.inc(bucketKey{value: v})
			}
		}
	}
	return c
}

// buckets sorts by count desc then value asc, optionally floating priority values
// to the front, and truncates to the facet limit.
func (a *Aggregator) buckets(name string, c *counts, cmp *comparer, priority func(string) bool) domfacet.Facet {
	out := make([]domfacet.Bucket, 0, len(c.order))
	for _, k := range c.order {
		label := k.value
		if k.region != "" {
			label = k.value + ", " + k.region
		}
		out = append(out, domfacet.Bucket{Value: k.value, Label: label, Region: k.region, Count: c.n[k]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if priority != nil {
			pi, pj := priority(out[i].Value), priority(out[j].Value)
			if pi != pj {
				return pi
			}
		}
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Value != out[j].Value {
			return cmp.less(out[i].Value, out[j].Value)
		}
		return cmp.less(out[i].Region, out[j].Region)
	})
	if limit := a.limits[name]; limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return domfacet.Facet{Buckets: out}
}

func (a *Aggregator) isPriority(v string) bool {
	lv := strings.ToLower(v)
	for _, p := range a.priority {
		if strings.Contains(lv, p) {
			return true
		}
	}
	return false
}

// comparer orders strings by locale collation with a byte-order tie-break.
type comparer struct {
	c *collate.Collator
}

func newComparer(tag language.Tag) *comparer {
	return &comparer{c: collate.New(tag)}
}

func (c *comparer) less(a, b string) bool {
	if r := c.c.CompareString(a, b); r != 0 {
		return r < 0
	}
	return a < b
}
