package jsondb_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/jsondb/pkg/jsondb"
)

func lang(v string) jsondb.Attrs {
	return jsondb.NewAttrs(jsondb.Attr{Key: "lang", Value: jsondb.StringValue(v)})
}

func TestInsertThenGet(t *testing.T) {
	t.Parallel()

	db := newDB(t)

	id, err := db.Insert("Hello", []string{"greeting", "greeting"}, lang("en"))
	require.NoError(t, err)
	assert.Equal(t, 0, id)

	id, err = db.Insert("Bye", nil, jsondb.Attrs{})
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	got, err := db.Get(0)
	require.NoError(t, err)

	want := jsondb.Record{Data: "Hello", Tags: jsondb.NewTagSet("greeting"), Attrs: lang("en")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestGetReturnsACopy(t *testing.T) {
	t.Parallel()

	db := newDB(t)
	_, err := db.Insert("a", []string{"x"}, lang("en"))
	require.NoError(t, err)

	rec, err := db.Get(0)
	require.NoError(t, err)
	rec.Tags.Add("y")
	rec.Attrs.Set("lang", jsondb.StringValue("de"))

	again, err := db.Get(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, again.Tags.Sorted())

	v, _ := again.Attrs.Get("lang")
	assert.Equal(t, "en", v.String())
}

func TestInsertEnforcement(t *testing.T) {
	t.Parallel()

	db := newDB(t)
	db.AddTag("known")
	db.SetEnforceTags(true)

	_, err := db.Insert("x", []string{"known", "unknown"}, jsondb.Attrs{})
	require.ErrorIs(t, err, jsondb.ErrInvalidTag)
	assert.Contains(t, err.Error(), `"unknown"`)
	assert.Equal(t, 0, db.Len(), "nothing inserted on error")

	_, err = db.Insert("x", []string{"known"}, jsondb.Attrs{})
	require.NoError(t, err)

	db.SetEnforceTags(false)

	_, err = db.Insert("y", []string{"unknown"}, jsondb.Attrs{})
	require.NoError(t, err)
}

func TestInsertRejectsInvalidAttrs(t *testing.T) {
	t.Parallel()

	db := newDB(t)

	_, err := db.Insert("x", nil, jsondb.NewAttrs(jsondb.Attr{Key: "k"}))
	require.ErrorIs(t, err, jsondb.ErrTypeMismatch)
	assert.Equal(t, 0, db.Len())
}

func TestRemoveShiftsLaterRecords(t *testing.T) {
	t.Parallel()

	db := newDB(t)
	for _, d := range []string{"a", "b", "c"} {
		_, err := db.Insert(d, nil, jsondb.Attrs{})
		require.NoError(t, err)
	}

	require.NoError(t, db.Remove(1))
	require.Equal(t, 2, db.Len())

	rec, err := db.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "c", rec.Data)

	require.ErrorIs(t, db.Remove(2), jsondb.ErrIndexNotFound)
	require.ErrorIs(t, db.Remove(-1), jsondb.ErrIndexNotFound)
}

func TestVocabularyRemovalKeepsRecordTags(t *testing.T) {
	t.Parallel()

	db := newDB(t)
	db.AddTags("a", "b")
	_, err := db.Insert("x", []string{"a"}, jsondb.Attrs{})
	require.NoError(t, err)

	db.RemoveTag("a")
	db.RemoveTag("never-added")
	assert.Equal(t, []string{"b"}, db.Tags())

	rec, err := db.Get(0)
	require.NoError(t, err)
	assert.True(t, rec.Tags.Has("a"))

	db.ClearTags()
	assert.Empty(t, db.Tags())
}

func TestEdit(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name    string
		enforce bool
		patch   jsondb.Patch
		want    jsondb.Record
	}{
		{
			name:  "replaces supplied fields",
			patch: jsondb.Patch{Data: jsondb.Some("new"), Tags: jsondb.Some([]string{"b"})},
			want:  jsondb.Record{Data: "new", Tags: jsondb.NewTagSet("b"), Attrs: lang("en")},
		},
		{
			name:  "replaces attrs wholesale",
			patch: jsondb.Patch{Attrs: jsondb.Some(jsondb.NewAttrs(jsondb.Attr{Key: "n", Value: jsondb.IntValue(1)}))},
			want: jsondb.Record{
				Data:  "old",
				Tags:  jsondb.NewTagSet("a", "stray"),
				Attrs: jsondb.NewAttrs(jsondb.Attr{Key: "n", Value: jsondb.IntValue(1)}),
			},
		},
		{
			// Supplying an empty value is indistinguishable from not supplying it.
			name:  "empty values keep the old ones",
			patch: jsondb.Patch{Data: jsondb.Some(""), Tags: jsondb.Some([]string{}), Attrs: jsondb.Some(jsondb.Attrs{})},
			want:  jsondb.Record{Data: "old", Tags: jsondb.NewTagSet("a", "stray"), Attrs: lang("en")},
		},
		{
			name:    "enforcement drops unknown new tags",
			enforce: true,
			patch:   jsondb.Patch{Tags: jsondb.Some([]string{"a", "b", "nope"})},
			want:    jsondb.Record{Data: "old", Tags: jsondb.NewTagSet("a", "b"), Attrs: lang("en")},
		},
		{
			name:    "enforcement filters kept tags too",
			enforce: true,
			patch:   jsondb.Patch{Data: jsondb.Some("new")},
			want:    jsondb.Record{Data: "new", Tags: jsondb.NewTagSet("a"), Attrs: lang("en")},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db := newDB(t)
			db.AddTags("a", "b")
			_, err := db.Insert("old", []string{"a", "stray"}, lang("en"))
			require.NoError(t, err)

			db.SetEnforceTags(tt.enforce)
			require.NoError(t, db.Edit(0, tt.patch))

			got, err := db.Get(0)
			require.NoError(t, err)

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("record mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEditErrors(t *testing.T) {
	t.Parallel()

	db := newDB(t)
	_, err := db.Insert("old", nil, lang("en"))
	require.NoError(t, err)

	require.ErrorIs(t, db.Edit(1, jsondb.Patch{Data: jsondb.Some("x")}), jsondb.ErrIndexNotFound)

	err = db.Edit(0, jsondb.Patch{
		Data:  jsondb.Some("changed"),
		Attrs: jsondb.Some(jsondb.NewAttrs(jsondb.Attr{Key: "bad"})),
	})
	require.ErrorIs(t, err, jsondb.ErrTypeMismatch)

	rec, err := db.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "old", rec.Data, "failed edit changes nothing")
}

func TestFindByData(t *testing.T) {
	t.Parallel()

	db := newDB(t)
	for _, d := range []string{"Buy milk", "buy bread", "Buy milk"} {
		_, err := db.Insert(d, nil, jsondb.Attrs{})
		require.NoError(t, err)
	}

	for _, tt := range []struct {
		name  string
		query string
		opts  jsondb.FindOptions
		want  int
	}{
		{"exact returns first match", "Buy milk", jsondb.FindOptions{}, 0},
		{"exact is case sensitive", "buy bread", jsondb.FindOptions{}, 1},
		{"contains", "bread", jsondb.FindOptions{Contains: true}, 1},
		{"case insensitive exact", "BUY BREAD", jsondb.FindOptions{CaseInsensitive: true}, 1},
		{"case insensitive contains", "MILK", jsondb.FindOptions{Contains: true, CaseInsensitive: true}, 0},
	} {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := db.FindByData(tt.query, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		_, err := db.FindByData("buy", jsondb.FindOptions{})
		require.ErrorIs(t, err, jsondb.ErrNotFound)
		assert.Equal(t, `"buy" is not in the database`, err.Error())
	})
}

func TestQuery(t *testing.T) {
	t.Parallel()

	db := newDB(t)
	for _, tags := range [][]string{{"a"}, {"a", "b"}, {}, {"b", "c", "a"}} {
		_, err := db.Insert("x", tags, jsondb.Attrs{})
		require.NoError(t, err)
	}

	assert.Equal(t, []int{0, 1, 3}, db.Query("a"))
	assert.Equal(t, []int{1, 3}, db.Query("b", "a"))
	assert.Equal(t, []int{0, 1, 2, 3}, db.Query(), "no tags match everything")
	assert.Equal(t, []int{}, db.Query("z"))
	assert.Equal(t, []int{}, newDB(t).Query())
}

func TestParseIndex(t *testing.T) {
	t.Parallel()

	i, err := jsondb.ParseIndex("12")
	require.NoError(t, err)
	assert.Equal(t, 12, i)

	i, err = jsondb.ParseIndex("-1")
	require.NoError(t, err)
	assert.Equal(t, -1, i)

	for _, s := range []string{"", "abc", "1.5", "0x10"} {
		_, err := jsondb.ParseIndex(s)
		require.ErrorIs(t, err, jsondb.ErrTypeMismatch, "input %q", s)
	}
}
