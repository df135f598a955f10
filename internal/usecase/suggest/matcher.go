// Package suggest ranks autocomplete items for a partial text query.
package suggest

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/kailas-cloud/schooldex/internal/domain/school"
	"github.com/kailas-cloud/schooldex/internal/domain/suggestion"
)

// Caps bounds the number of items per kind.
type Caps struct {
	Schools         int
	Locations       int
	Specializations int
	Facilities      int
}

// DefaultCaps are the per-kind limits used when none are configured.
var DefaultCaps = Caps{Schools: 5, Locations: 3, Specializations: 3, Facilities: 3}

func (c Caps) of(k suggestion.Kind) int {
	switch k {
	case suggestion.School:
		return c.Schools
	case suggestion.Location:
		return c.Locations
	case suggestion.Specialization:
		return c.Specializations
	case suggestion.Facility:
		return c.Facilities
	}
	return 0
}

// Population is the candidate pool for one query. Schools are matched on name
// and short name; Values holds raw field values as read from the store.
type Population struct {
	Schools []school.School
	Values  map[school.Field][]string
}

// Fields lists the raw value fields a scope needs.
func Fields(scope suggestion.Scope) []school.Field {
	var out []school.Field
	if scope.Includes(suggestion.Location) {
		out = append(out, school.FieldCity, school.FieldRegion, school.FieldDistrict)
	}
	if scope.Includes(suggestion.Specialization) {
		out = append(out, school.FieldSpecializations)
	}
	if scope.Includes(suggestion.Facility) {
		out = append(out, school.FieldFacilities)
	}
	return out
}

// Matcher is pure: every call builds its own caser and collator.
type Matcher struct {
	caps Caps
	tag  language.Tag
}

// New creates a matcher. Zero caps fall back to DefaultCaps.
func New(caps Caps) *Matcher {
	if caps.Schools <= 0 {
		caps.Schools = DefaultCaps.Schools
	}
	if caps.Locations <= 0 {
		caps.Locations = DefaultCaps.Locations
	}
	if caps.Specializations <= 0 {
		caps.Specializations = DefaultCaps.Specializations
	}
	if caps.Facilities <= 0 {
		caps.Facilities = DefaultCaps.Facilities
	}
	return &Matcher{caps: caps, tag: language.Polish}
}

// Match returns items whose title contains query, grouped per kind and merged
// into one list truncated to limit. The query is expected to be trimmed.
func (m *Matcher) Match(query string, scope suggestion.Scope, limit int, pop Population) suggestion.Result {
	res := suggestion.Empty()
	if query == "" || limit <= 0 {
		return res
	}
	mc := m.newCall(query)

	if scope.Includes(suggestion.School) {
		res.Categories.Schools = mc.rank(mc.schools(pop.Schools), m.caps.of(suggestion.School))
	}
	if scope.Includes(suggestion.Location) {
		var items []suggestion.Item
		items = append(items, mc.values(pop.Values[school.FieldCity], locationKind(school.FieldCity))...)
		items = append(items, mc.values(pop.Values[school.FieldRegion], locationKind(school.FieldRegion))...)
		items = append(items, mc.values(pop.Values[school.FieldDistrict], locationKind(school.FieldDistrict))...)
		res.Categories.Locations = mc.rank(items, m.caps.of(suggestion.Location))
	}
	if scope.Includes(suggestion.Specialization) {
		items := mc.values(pop.Values[school.FieldSpecializations], labelKind(suggestion.Specialization, school.FieldSpecializations))
		res.Categories.Specializations = mc.rank(items, m.caps.of(suggestion.Specialization))
	}
	if scope.Includes(suggestion.Facility) {
		items := mc.values(pop.Values[school.FieldFacilities], labelKind(suggestion.Facility, school.FieldFacilities))
		res.Categories.Facilities = mc.rank(items, m.caps.of(suggestion.Facility))
	}

	merged := make([]suggestion.Item, 0, len(res.Categories.Schools)+len(res.Categories.Locations)+
		len(res.Categories.Specializations)+len(res.Categories.Facilities))
	merged = append(merged, res.Categories.Schools...)
	merged = append(merged, res.Categories.Locations...)
	merged = append(merged, res.Categories.Specializations...)
	merged = append(merged, res.Categories.Facilities...)
	res.Suggestions = mc.rank(merged, limit)
	return res
}

// call carries the per-query folding and collation state.
type call struct {
	folder cases.Caser
	col    *collate.Collator
	query  string
}

func (m *Matcher) newCall(query string) *call {
	folder := cases.Fold()
	return &call{
		folder: folder,
		col:    collate.New(m.tag),
		query:  folder.String(query),
	}
}

func (c *call) fold(s string) string { return c.folder.String(s) }

// tier classifies title against the query; ok is false when it does not match.
func (c *call) tier(title string) (suggestion.Tier, bool) {
	t := c.fold(title)
	idx := strings.Index(t, c.query)
	if idx < 0 {
		return 0, false
	}
	if idx == 0 {
		return suggestion.Prefix, true
	}
	return suggestion.Substring, true
}

func (c *call) schools(schools []school.School) []suggestion.Item {
	seen := make(map[string]bool, len(schools))
	items := make([]suggestion.Item, 0, len(schools))
	for i := range schools {
		s := &schools[i]
		if seen[s.ID] {
			continue
		}
		// The tier follows the displayed title; a short-name hit only admits the school.
		tier, ok := c.tier(s.Name)
		if !ok && s.ShortName != "" {
			if _, ok = c.tier(s.ShortName); ok {
				tier = suggestion.Substring
			}
		}
		if !ok {
			continue
		}
		seen[s.ID] = true
		items = append(items, suggestion.Item{
			Kind:     suggestion.School,
			ID:       s.ID,
			Title:    s.Name,
			Subtitle: schoolSubtitle(s),
			Target:   s.ID,
			URL:      "/schools/" + url.PathEscape(s.ID),
			Tier:     tier,
		})
	}
	return items
}

func schoolSubtitle(s *school.School) string {
	var place []string
	if s.Address.City != "" {
		place = append(place, s.Address.City)
	}
	if s.Address.Region != "" {
		place = append(place, s.Address.Region)
	}
	parts := []string{string(s.Category)}
	if len(place) > 0 {
		parts = append(parts, strings.Join(place, ", "))
	}
	return strings.Join(parts, " • ")
}

// valueKind describes how a raw field value becomes an item.
type valueKind struct {
	kind      suggestion.Kind
	idPrefix  string
	filterKey string
	subtitle  string
}

func locationKind(f school.Field) valueKind {
	switch f {
	case school.FieldRegion:
		return valueKind{kind: suggestion.Location, idPrefix: "region", filterKey: "region", subtitle: "Region"}
	case school.FieldDistrict:
		return valueKind{kind: suggestion.Location, idPrefix: "district", filterKey: "district", subtitle: "District"}
	default:
		return valueKind{kind: suggestion.Location, idPrefix: "city", filterKey: "city", subtitle: "City"}
	}
}

func labelKind(k suggestion.Kind, f school.Field) valueKind {
	subtitle := "Facility"
	if k == suggestion.Specialization {
		subtitle = "Specialization"
	}
	return valueKind{kind: k, idPrefix: string(k), filterKey: string(f), subtitle: subtitle}
}

// values deduplicates raw values by folded form, keeping the first spelling,
// and turns matching ones into items carrying their occurrence count.
func (c *call) values(raw []string, vk valueKind) []suggestion.Item {
	index := make(map[string]int)
	var items []suggestion.Item
	for _, v := range raw {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := c.fold(v)
		if i, ok := index[key]; ok {
			if i >= 0 {
				items[i].Count++
			}
			continue
		}
		tier, ok := c.tier(v)
		if !ok {
			index[key] = -1
			continue
		}
		index[key] = len(items)
		items = append(items, suggestion.Item{
			Kind:      vk.kind,
			ID:        vk.idPrefix + "-" + v,
			Title:     v,
			Target:    v,
			FilterKey: vk.filterKey,
			URL:       "/search?" + url.Values{vk.filterKey: {v}}.Encode(),
			Tier:      tier,
			Count:     1,
		})
	}
	for i := range items {
		items[i].Subtitle = vk.subtitle + " • " + strconv.Itoa(items[i].Count) + " " + plural(items[i].Count)
	}
	return items
}

func plural(n int) string {
	if n == 1 {
		return "school"
	}
	return "schools"
}

// rank orders items by tier, collated title, then id, and keeps at most limit.
func (c *call) rank(items []suggestion.Item, limit int) []suggestion.Item {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Tier != b.Tier {
			return a.Tier < b.Tier
		}
		if r := c.col.CompareString(a.Title, b.Title); r != 0 {
			return r < 0
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.ID < b.ID
	})
	if limit >= 0 && len(items) > limit {
		items = items[:limit]
	}
	if items == nil {
		return []suggestion.Item{}
	}
	return items
}
