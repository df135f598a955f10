package query

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/schooldex/internal/domain/search/request"
)

// Cache tags.
const (
	TagSchools     = "schools"
	TagFacets      = "facets"
	TagSuggestions = "suggestions"
	TagSearch      = "search"
	regionTagPfx   = "region:"
)

var keyPrefixes = map[request.Kind]string{
	request.Facets:  "facets:",
	request.Suggest: "suggest:",
	request.List:    "list:",
}

// CacheKey derives the cache key of a normalized request. Logically identical
// requests share a key because Normalize sorts sets and lower-cases enums.
func CacheKey(r request.Request) (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode cache key: %w", err)
	}
	h := sha256.Sum256(b)
	return keyPrefixes[r.Kind] + hex.EncodeToString(h[:]), nil
}

// RegionTag is the tag attached to every entry computed for a region filter.
func RegionTag(region string) string {
	return regionTagPfx + region
}

// Tags returns the tags of a cache entry for r.
func Tags(r request.Request) []string {
	tags := make([]string, 0, 2+len(r.Filter.Regions))
	tags = append(tags, TagSchools, kindTag(r.Kind))
	for _, region := range r.Filter.Regions {
		tags = append(tags, RegionTag(region))
	}
	return tags
}

func kindTag(k request.Kind) string {
	switch k {
	case request.Facets:
		return TagFacets
	case request.Suggest:
		return TagSuggestions
	default:
		return TagSearch
	}
}
