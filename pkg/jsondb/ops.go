package jsondb

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Tags returns a sorted copy of the vocabulary. Change the vocabulary with
// [DB.AddTag] and [DB.RemoveTag].
func (db *DB) Tags() []string { return db.tags.Sorted() }

// AddTag adds tag to the vocabulary. Duplicates are ignored.
func (db *DB) AddTag(tag string) { db.tags.Add(tag) }

// AddTags adds every tag to the vocabulary.
func (db *DB) AddTags(tags ...string) {
	for _, t := range tags {
		db.tags.Add(t)
	}
}

// RemoveTag removes tag from the vocabulary. Records keep the tag, and
// removing an unknown tag is not an error.
func (db *DB) RemoveTag(tag string) { db.tags.Remove(tag) }

// RemoveTags removes every tag from the vocabulary.
func (db *DB) RemoveTags(tags ...string) {
	for _, t := range tags {
		db.tags.Remove(t)
	}
}

// ClearTags empties the vocabulary.
func (db *DB) ClearTags() { db.tags.Clear() }

// Insert appends a record and returns its index. Tags are de-duplicated.
//
// With enforcement on, every tag must be in the vocabulary, otherwise the
// error wraps [ErrInvalidTag] and names the first offending tag. Invalid
// attribute values fail with [ErrTypeMismatch]. Nothing is changed on error.
func (db *DB) Insert(data string, tags []string, attrs Attrs) (int, error) {
	if db.enforceTags {
		for _, t := range tags {
			if !db.tags.Has(t) {
				return 0, fmt.Errorf("%w: %q", ErrInvalidTag, t)
			}
		}
	}

	err := attrs.validate()
	if err != nil {
		return 0, err
	}

	db.records = append(db.records, Record{
		Data:  data,
		Tags:  NewTagSet(tags...),
		Attrs: attrs.Clone(),
	})

	return len(db.records) - 1, nil
}

// Remove deletes the record at index; later records shift down by one.
func (db *DB) Remove(index int) error {
	if err := db.checkIndex(index); err != nil {
		return err
	}

	db.records = slices.Delete(db.records, index, index+1)

	return nil
}

// Optional marks a value as supplied or not.
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns a supplied Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// Get returns the value and whether it was supplied.
func (o Optional[T]) Get() (T, bool) { return o.value, o.set }

// Patch lists the fields [DB.Edit] replaces. Unset fields are kept.
type Patch struct {
	Data  Optional[string]
	Tags  Optional[[]string]
	Attrs Optional[Attrs]
}

// Edit replaces the supplied fields of the record at index.
//
// A supplied but empty value (empty data, no tags, no attrs) also keeps the
// previous value, so Edit can never clear a field.
//
// With enforcement on, the resulting tags (new or kept) are intersected with
// the vocabulary: unknown tags are dropped silently, unlike [DB.Insert] which
// rejects them.
func (db *DB) Edit(index int, patch Patch) error {
	if err := db.checkIndex(index); err != nil {
		return err
	}

	next := db.records[index].Clone()

	if data, ok := patch.Data.Get(); ok && data != "" {
		next.Data = data
	}

	if tags, ok := patch.Tags.Get(); ok && len(tags) > 0 {
		next.Tags = NewTagSet(tags...)
	}

	if attrs, ok := patch.Attrs.Get(); ok && attrs.Len() > 0 {
		err := attrs.validate()
		if err != nil {
			return err
		}

		next.Attrs = attrs.Clone()
	}

	if db.enforceTags {
		next.Tags = next.Tags.Intersect(db.tags)
	}

	db.records[index] = next

	return nil
}

// Get returns a copy of the record at index.
func (db *DB) Get(index int) (Record, error) {
	if err := db.checkIndex(index); err != nil {
		return Record{}, err
	}

	return db.records[index].Clone(), nil
}

// FindOptions controls [DB.FindByData] matching.
type FindOptions struct {
	// Contains matches when the query is a substring of the data.
	Contains bool

	// CaseInsensitive lower-cases both sides before comparing.
	CaseInsensitive bool
}

// FindByData returns the index of the first record whose data matches.
// Fails with [ErrNotFound] when nothing matches.
func (db *DB) FindByData(data string, opts FindOptions) (int, error) {
	needle := data
	if opts.CaseInsensitive {
		needle = strings.ToLower(needle)
	}

	for i, r := range db.records {
		hay := r.Data
		if opts.CaseInsensitive {
			hay = strings.ToLower(hay)
		}

		if opts.Contains && strings.Contains(hay, needle) {
			return i, nil
		}

		if !opts.Contains && hay == needle {
			return i, nil
		}
	}

	return 0, fmt.Errorf("%q is %w", data, ErrNotFound)
}

// Query returns, in ascending order, the indices of records carrying all
// given tags. No tags matches every record.
func (db *DB) Query(tags ...string) []int {
	ids := []int{}

	for i, r := range db.records {
		if r.Tags.HasAll(tags...) {
			ids = append(ids, i)
		}
	}

	return ids
}

func (db *DB) checkIndex(index int) error {
	if index < 0 || index >= len(db.records) {
		return fmt.Errorf("%w: %d", ErrIndexNotFound, index)
	}

	return nil
}

// ParseIndex parses a textual record id. Non-integers fail with
// [ErrTypeMismatch]; range is checked by the operation using the id.
func ParseIndex(s string) (int, error) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: id %q is not an integer", ErrTypeMismatch, s)
	}

	return i, nil
}
