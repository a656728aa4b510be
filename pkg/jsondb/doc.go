// Package jsondb is a small personal-data store.
//
// A database is a single JSON document (<name>.jsondb) holding an ordered
// list of records. Each record is a data string, a set of tags and an ordered
// map of scalar attributes. The record's position is its id; ids shift down
// when an earlier record is removed.
//
// The document also carries a tag vocabulary. When tag enforcement is on,
// [DB.Insert] rejects tags outside the vocabulary and [DB.Edit] silently drops
// them.
//
// Typical use is a scoped session that always writes the document back:
//
//	err := jsondb.Open(path, cfg, func(db *jsondb.DB) error {
//	    _, err := db.Insert("buy milk", []string{"todo"}, jsondb.Attrs{})
//	    return err
//	})
//
// Sessions are not coordinated across processes: two concurrent sessions on
// the same file race and the last save wins.
package jsondb
