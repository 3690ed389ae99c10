package domain

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// FilterField names a chunk attribute a Filter can test.
type FilterField string

// FilterFieldRegion is the only attribute requests may filter on.
const FilterFieldRegion FilterField = "region"

// Filter is a tagged predicate over chunk metadata.
// A chunk passes when its Field value is one of Accepted, or when the
// value is absent and MatchAbsent is set. A nil Filter accepts everything.
type Filter struct {
	// Field is the chunk attribute under test.
	Field FilterField

	// Accepted lists the values that pass.
	Accepted []string

	// MatchAbsent accepts chunks that carry no value for Field.
	MatchAbsent bool
}

// RegionFilter returns the region predicate: tagged with region, or untagged.
func RegionFilter(region string) *Filter {
	return &Filter{
		Field:       FilterFieldRegion,
		Accepted:    []string{region},
		MatchAbsent: true,
	}
}

// Matches reports whether the chunk satisfies the predicate.
func (f *Filter) Matches(c Chunk) bool {
	if f == nil {
		return true
	}
	v, ok := c.Attribute(f.Field)
	if !ok {
		return f.MatchAbsent
	}
	return slices.Contains(f.Accepted, v)
}

// String returns a compact description for logs.
func (f *Filter) String() string {
	if f == nil {
		return "none"
	}
	accepted := strings.Join(f.Accepted, ",")
	if f.MatchAbsent {
		accepted += ",<absent>"
	}
	return fmt.Sprintf("%s in [%s]", f.Field, accepted)
}

// FilterFromMap translates request filters into a Filter.
// Only the region key is supported; an empty region means no filter.
// When allowedRegions is non-empty the region must be one of them.
func FilterFromMap(filters map[string]string, allowedRegions []string) (*Filter, error) {
	var unsupported []string
	for key := range filters {
		if FilterField(key) != FilterFieldRegion {
			unsupported = append(unsupported, key)
		}
	}
	if len(unsupported) > 0 {
		sort.Strings(unsupported)
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFilter, strings.Join(unsupported, ", "))
	}

	region := strings.TrimSpace(filters[string(FilterFieldRegion)])
	if region == "" {
		return nil, nil
	}
	if len(allowedRegions) > 0 && !slices.Contains(allowedRegions, region) {
		return nil, fmt.Errorf("%w: region %q is not one of %s",
			ErrInvalidInput, region, strings.Join(allowedRegions, ", "))
	}
	return RegionFilter(region), nil
}
