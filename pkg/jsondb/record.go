package jsondb

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Record is one stored entry.
type Record struct {
	Data  string
	Tags  TagSet
	Attrs Attrs
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	return Record{Data: r.Data, Tags: r.Tags.Clone(), Attrs: r.Attrs.Clone()}
}

// MarshalJSON encodes r as the on-disk triple [data, [tags...], {attrs...}].
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{r.Data, r.Tags, r.Attrs})
}

// fileDocument is the on-disk shape. Field order is the key order on disk.
type fileDocument struct {
	Tags           TagSet   `json:"tags"`
	EnforceTags    bool     `json:"enforce_tags"`
	BackupsEnabled bool     `json:"backups_enabled"`
	Data           []Record `json:"data"`
	Version        string   `json:"version"`
}

func encodeDocument(doc fileDocument) ([]byte, error) {
	if doc.Data == nil {
		doc.Data = []Record{}
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}

	return b, nil
}

// decodeDocument walks raw with gjson rather than encoding/json so attribute
// order survives and integer literals stay distinct from floats.
func decodeDocument(raw []byte) (fileDocument, error) {
	if !gjson.ValidBytes(raw) {
		return fileDocument{}, fmt.Errorf("%w: not valid JSON", ErrInvalidDocument)
	}

	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return fileDocument{}, fmt.Errorf("%w: top level is not an object", ErrInvalidDocument)
	}

	var doc fileDocument

	version := root.Get("version")
	if version.Type != gjson.String {
		return fileDocument{}, fmt.Errorf("%w: missing version", ErrInvalidDocument)
	}

	doc.Version = version.String()

	var err error

	doc.EnforceTags, err = decodeBool(root, "enforce_tags")
	if err != nil {
		return fileDocument{}, err
	}

	doc.BackupsEnabled, err = decodeBool(root, "backups_enabled")
	if err != nil {
		return fileDocument{}, err
	}

	tags := root.Get("tags")
	if !tags.IsArray() {
		return fileDocument{}, fmt.Errorf("%w: tags is not a list", ErrInvalidDocument)
	}

	doc.Tags, err = decodeTags(tags)
	if err != nil {
		return fileDocument{}, fmt.Errorf("vocabulary: %w", err)
	}

	data := root.Get("data")
	if !data.IsArray() {
		return fileDocument{}, fmt.Errorf("%w: data is not a list", ErrInvalidDocument)
	}

	entries := data.Array()
	doc.Data = make([]Record, 0, len(entries))

	for i, entry := range entries {
		rec, recErr := decodeRecord(entry)
		if recErr != nil {
			return fileDocument{}, fmt.Errorf("record %d: %w", i, recErr)
		}

		doc.Data = append(doc.Data, rec)
	}

	return doc, nil
}

func decodeBool(root gjson.Result, key string) (bool, error) {
	v := root.Get(key)

	switch v.Type {
	case gjson.True:
		return true, nil
	case gjson.False:
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s is not a boolean", ErrInvalidDocument, key)
	}
}

func decodeTags(list gjson.Result) (TagSet, error) {
	set := NewTagSet()

	for _, t := range list.Array() {
		if t.Type != gjson.String {
			return TagSet{}, fmt.Errorf("%w: tag %s is not a string", ErrTypeMismatch, t.Raw)
		}

		set.Add(t.String())
	}

	return set, nil
}

func decodeRecord(entry gjson.Result) (Record, error) {
	parts := entry.Array()
	if !entry.IsArray() || len(parts) != 3 {
		return Record{}, fmt.Errorf("%w: expected [data, tags, attrs]", ErrInvalidDocument)
	}

	if parts[0].Type != gjson.String {
		return Record{}, fmt.Errorf("%w: data %s is not a string", ErrTypeMismatch, parts[0].Raw)
	}

	if !parts[1].IsArray() {
		return Record{}, fmt.Errorf("%w: tags is not a list", ErrInvalidDocument)
	}

	tags, err := decodeTags(parts[1])
	if err != nil {
		return Record{}, err
	}

	if !parts[2].IsObject() {
		return Record{}, fmt.Errorf("%w: attrs is not an object", ErrInvalidDocument)
	}

	var attrs Attrs

	parts[2].ForEach(func(key, value gjson.Result) bool {
		var v Value

		v, err = decodeValue(value)
		if err != nil {
			err = fmt.Errorf("attribute %q: %w", key.String(), err)

			return false
		}

		attrs.Set(key.String(), v)

		return true
	})

	if err != nil {
		return Record{}, err
	}

	return Record{Data: parts[0].String(), Tags: tags, Attrs: attrs}, nil
}

func decodeValue(v gjson.Result) (Value, error) {
	switch v.Type {
	case gjson.String:
		return StringValue(v.String()), nil
	case gjson.True:
		return BoolValue(true), nil
	case gjson.False:
		return BoolValue(false), nil
	case gjson.Number:
		if strings.ContainsAny(v.Raw, ".eE") {
			f := FloatValue(v.Float())

			return f, f.validate()
		}

		i, err := strconv.ParseInt(v.Raw, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: integer %s out of range", ErrTypeMismatch, v.Raw)
		}

		return IntValue(i), nil
	default:
		return Value{}, fmt.Errorf("%w: %s is not a string, int, float or bool", ErrTypeMismatch, v.Raw)
	}
}
