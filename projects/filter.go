// Copyright (C) 2026 Digital Epidemiology Lab, EPFL.
// See LICENSE for copying information.

package projects

import (
	"encoding/json"
	"sort"
)

// Set is an unordered collection of unique strings.
type Set map[string]struct{}

// NewSet creates a set of the given values.
func NewSet(values ...string) Set {
	set := make(Set, len(values))
	set.Add(values...)
	return set
}

// Add inserts the values into the set.
func (set Set) Add(values ...string) {
	for _, value := range values {
		set[value] = struct{}{}
	}
}

// Has returns whether the value is in the set.
func (set Set) Has(value string) bool {
	_, ok := set[value]
	return ok
}

// Ordered returns the values of the set sorted lexically.
func (set Set) Ordered() []string {
	values := make([]string, 0, len(set))
	for value := range set {
		values = append(values, value)
	}
	sort.Strings(values)
	return values
}

// Clone returns an independent copy of the set.
func (set Set) Clone() Set {
	clone := make(Set, len(set))
	for value := range set {
		clone[value] = struct{}{}
	}
	return clone
}

// MarshalJSON serializes the set as a sorted array.
func (set Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(set.Ordered())
}

// FilterConfig is the union of the tracking criteria of every project.
// One shared ingestion stream is opened with these filters and its
// matches are routed to projects afterwards.
type FilterConfig struct {
	Keywords Set `json:"keywords"`
	Langs    Set `json:"lang"`
}

// poolFilter unions the keywords and languages of the projects.
func poolFilter(projects []Project) FilterConfig {
	filter := FilterConfig{Keywords: Set{}, Langs: Set{}}
	for _, project := range projects {
		filter.Keywords.Add(project.Keywords...)
		filter.Langs.Add(project.Langs...)
	}
	return filter
}
