package jsondb

import (
	"encoding/json"
	"slices"
)

// TagSet is a set of tags. The zero value is an empty set ready to use.
// Iteration helpers return tags sorted; set order carries no meaning.
type TagSet struct {
	m map[string]struct{}
}

// NewTagSet returns a set holding tags, duplicates collapsed.
func NewTagSet(tags ...string) TagSet {
	s := TagSet{m: make(map[string]struct{}, len(tags))}
	for _, t := range tags {
		s.m[t] = struct{}{}
	}

	return s
}

// Add inserts tag. Adding an existing tag is a no-op.
func (s *TagSet) Add(tag string) {
	if s.m == nil {
		s.m = make(map[string]struct{})
	}

	s.m[tag] = struct{}{}
}

// Remove deletes tag. Removing an absent tag is a no-op.
func (s *TagSet) Remove(tag string) {
	delete(s.m, tag)
}

// Clear empties the set.
func (s *TagSet) Clear() {
	clear(s.m)
}

// Has reports whether tag is in the set.
func (s TagSet) Has(tag string) bool {
	_, ok := s.m[tag]

	return ok
}

// HasAll reports whether every tag is in the set. No tags is always true.
func (s TagSet) HasAll(tags ...string) bool {
	for _, t := range tags {
		if !s.Has(t) {
			return false
		}
	}

	return true
}

// Len returns the number of tags.
func (s TagSet) Len() int { return len(s.m) }

// Sorted returns the tags in ascending order.
func (s TagSet) Sorted() []string {
	out := make([]string, 0, len(s.m))
	for t := range s.m {
		out = append(out, t)
	}

	slices.Sort(out)

	return out
}

// Intersect returns the tags present in both s and o.
func (s TagSet) Intersect(o TagSet) TagSet {
	out := NewTagSet()

	for t := range s.m {
		if o.Has(t) {
			out.m[t] = struct{}{}
		}
	}

	return out
}

// Clone returns an independent copy.
func (s TagSet) Clone() TagSet {
	return NewTagSet(s.Sorted()...)
}

// Equal reports whether both sets hold the same tags.
func (s TagSet) Equal(o TagSet) bool {
	return s.Len() == o.Len() && s.HasAll(o.Sorted()...)
}

// MarshalJSON encodes the set as a sorted JSON array.
func (s TagSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}
