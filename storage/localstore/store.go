package localstore

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/cockroachdb/pebble"
	pkgerrors "github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound  = errors.New("record not found")
	ErrKeyExists = errors.New("record already exists")
	ErrDuplicate = errors.New("duplicate value for unique index")
)

const keySep = ":"

type (
	// IndexEntry is a secondary equality index entry derived from a record.
	// Values must not contain the key separator; collection wrappers normalize
	// them before indexing.
	IndexEntry struct {
		Name   string
		Value  string
		Unique bool
	}

	// IndexFunc derives a record's index entries from its stored JSON form.
	IndexFunc func(raw []byte) ([]IndexEntry, error)

	// Store is an embedded collection store on top of pebble.
	//
	// Key schema:
	//   <collection>:<id>                   -> record JSON
	//   <collection>:<index>:<value>        -> id (unique index)
	//   <collection>:<index>:<value>:<id>   -> id (non-unique index)
	//
	// Record ids are ULIDs and contain no separator, so a key with a second
	// separator past the collection prefix is always an index entry.
	Store struct {
		db       *pebble.DB
		mu       sync.Mutex // serializes multi-key writes
		indexers map[string]IndexFunc
	}
)

// Open opens (or creates) the store at path and registers the portal's
// collections. It fails when the path cannot be opened; callers treat an
// unopenable store as "local storage unavailable" and run without it.
func Open(path string) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "opening local store")
	}
	s := &Store{db: db, indexers: make(map[string]IndexFunc)}
	s.registerCollections()
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) registerIndexer(collection string, fn IndexFunc) {
	s.indexers[collection] = fn
}

func (s *Store) entriesFor(collection string, raw []byte) ([]IndexEntry, error) {
	fn, ok := s.indexers[collection]
	if !ok {
		return nil, nil
	}
	return fn(raw)
}

func recordKey(collection, id string) []byte {
	return []byte(collection + keySep + id)
}

func indexKey(collection, id string, e IndexEntry) []byte {
	k := collection + keySep + e.Name + keySep + e.Value
	if !e.Unique {
		k += keySep + id
	}
	return []byte(k)
}

// Add inserts a new record. It fails with ErrKeyExists when the id is taken
// and ErrDuplicate when a unique index entry already points elsewhere.
func (s *Store) Add(collection, id string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	entries, err := s.entriesFor(collection, raw)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, closer, err := s.db.Get(recordKey(collection, id)); err == nil {
		closer.Close()
		return ErrKeyExists
	} else if err != pebble.ErrNotFound {
		return err
	}
	for _, e := range entries {
		if !e.Unique {
			continue
		}
		if _, closer, err := s.db.Get(indexKey(collection, id, e)); err == nil {
			closer.Close()
			return ErrDuplicate
		} else if err != pebble.ErrNotFound {
			return err
		}
	}
	return s.write(collection, id, raw, nil, entries)
}

// Put upserts a record, last write wins. Stale index entries of the previous
// version are removed; unique entries owned by another record fail with
// ErrDuplicate.
func (s *Store) Put(collection, id string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	entries, err := s.entriesFor(collection, raw)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var oldEntries []IndexEntry
	if oldRaw, closer, err := s.db.Get(recordKey(collection, id)); err == nil {
		old := make([]byte, len(oldRaw))
		copy(old, oldRaw)
		closer.Close()
		if oldEntries, err = s.entriesFor(collection, old); err != nil {
			return err
		}
	} else if err != pebble.ErrNotFound {
		return err
	}

	for _, e := range entries {
		if !e.Unique {
			continue
		}
		if owner, closer, err := s.db.Get(indexKey(collection, id, e)); err == nil {
			taken := string(owner) != id
			closer.Close()
			if taken {
				return ErrDuplicate
			}
		} else if err != pebble.ErrNotFound {
			return err
		}
	}
	return s.write(collection, id, raw, oldEntries, entries)
}

func (s *Store) write(collection, id string, raw []byte, oldEntries, entries []IndexEntry) error {
	batch := s.db.NewBatch()
	for _, e := range oldEntries {
		if err := batch.Delete(indexKey(collection, id, e), nil); err != nil {
			batch.Close()
			return err
		}
	}
	if err := batch.Set(recordKey(collection, id), raw, nil); err != nil {
		batch.Close()
		return err
	}
	for _, e := range entries {
		if err := batch.Set(indexKey(collection, id, e), []byte(id), nil); err != nil {
			batch.Close()
			return err
		}
	}
	return batch.Commit(pebble.Sync)
}

// Delete removes a record and its index entries. Deleting an absent record is
// a no-op.
func (s *Store) Delete(collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, closer, err := s.db.Get(recordKey(collection, id))
	if err == pebble.ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	old := make([]byte, len(raw))
	copy(old, raw)
	closer.Close()

	entries, err := s.entriesFor(collection, old)
	if err != nil {
		return err
	}

	batch := s.db.NewBatch()
	if err := batch.Delete(recordKey(collection, id), nil); err != nil {
		batch.Close()
		return err
	}
	for _, e := range entries {
		if err := batch.Delete(indexKey(collection, id, e), nil); err != nil {
			batch.Close()
			return err
		}
	}
	return batch.Commit(pebble.Sync)
}

// Get decodes the record into out, ErrNotFound when absent.
func (s *Store) Get(collection, id string, out interface{}) error {
	raw, closer, err := s.db.Get(recordKey(collection, id))
	if err == pebble.ErrNotFound {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	defer closer.Close()
	return json.Unmarshal(raw, out)
}

// GetAll returns every record in the collection in id order. ULID ids make
// that creation order.
func (s *Store) GetAll(collection string) ([]json.RawMessage, error) {
	prefix := collection + keySep
	iter := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: append([]byte(prefix), 0xFF),
	})
	defer iter.Close()

	var records []json.RawMessage
	for iter.First(); iter.Valid(); iter.Next() {
		if strings.Contains(strings.TrimPrefix(string(iter.Key()), prefix), keySep) {
			continue // index entry
		}
		raw := make([]byte, len(iter.Value()))
		copy(raw, iter.Value())
		records = append(records, raw)
	}
	return records, iter.Error()
}

// GetByIndex decodes the first record matching the index value into out,
// ErrNotFound when nothing matches.
func (s *Store) GetByIndex(collection, index, value string, out interface{}) error {
	ids, err := s.idsByIndex(collection, index, value, true)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return ErrNotFound
	}
	return s.Get(collection, ids[0], out)
}

// GetAllByIndex returns all records matching the index value, in id order.
func (s *Store) GetAllByIndex(collection, index, value string) ([]json.RawMessage, error) {
	ids, err := s.idsByIndex(collection, index, value, false)
	if err != nil {
		return nil, err
	}
	records := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		var raw json.RawMessage
		if err := s.Get(collection, id, &raw); err != nil {
			if err == ErrNotFound {
				continue
			}
			return nil, err
		}
		records = append(records, raw)
	}
	return records, nil
}

func (s *Store) idsByIndex(collection, index, value string, firstOnly bool) ([]string, error) {
	// unique entry: exact key holds the id
	exact := []byte(collection + keySep + index + keySep + value)
	if id, closer, err := s.db.Get(exact); err == nil {
		ids := []string{string(id)}
		closer.Close()
		return ids, nil
	} else if err != pebble.ErrNotFound {
		return nil, err
	}

	// non-unique entries: one key per record
	prefix := append(exact, keySep...)
	iter := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: append(append([]byte{}, prefix...), 0xFF),
	})
	defer iter.Close()

	var ids []string
	for iter.First(); iter.Valid(); iter.Next() {
		ids = append(ids, string(iter.Value()))
		if firstOnly {
			break
		}
	}
	return ids, iter.Error()
}
