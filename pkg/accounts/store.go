package accounts

import (
	"github.com/puzpuzpuz/xsync/v4"
)

// Store holds the canonical key → record map plus the username → key alias
// table. It is the only shared mutable state in the cache subsystem; all
// mutation funnels through commit (inside Map.Compute) and Invalidate.
type Store struct {
	records *xsync.Map[string, *AccountRecord]
	aliases *xsync.Map[string, string]
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		records: xsync.NewMap[string, *AccountRecord](),
		aliases: xsync.NewMap[string, string](),
	}
}

// Get returns a deep copy of the cached record for key, if any.
func (s *Store) Get(key string) (*AccountRecord, bool) {
	rec, ok := s.records.Load(key)
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// Alias resolves a username to its canonical key.
func (s *Store) Alias(username string) (string, bool) {
	return s.aliases.Load(username)
}

// Len returns the number of cached records.
func (s *Store) Len() int {
	return s.records.Size()
}

// Keys returns all cached canonical keys.
func (s *Store) Keys() []string {
	keys := make([]string, 0, s.records.Size())
	s.records.Range(func(key string, _ *AccountRecord) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Invalidate removes the records and their username aliases, forcing the
// next fetch cycle to treat the keys as fully uncached (forceful refresh).
func (s *Store) Invalidate(keys ...string) {
	for _, key := range keys {
		rec, ok := s.records.LoadAndDelete(key)
		if !ok {
			continue
		}
		if rec.Username != "" {
			// Only drop the alias if it still points at this key; a newer
			// commit may have claimed the username for another account.
			s.aliases.Compute(rec.Username, func(old string, loaded bool) (string, xsync.ComputeOp) {
				if loaded && old == key {
					return "", xsync.DeleteOp
				}
				return old, xsync.CancelOp
			})
		}
	}
}

// commit merges incoming into whatever record is current for key at commit
// time and writes the result back, unless the merge produced no observable
// change. The merge runs inside Compute, so an overlapping fetch cycle can
// never blindly overwrite a newer commit with a stale read: each commit
// re-merges against the value current at the moment it lands.
//
// Returns the committed record and whether a write (and therefore a change
// signal) actually happened.
func (s *Store) commit(key string, incoming *AccountRecord) (*AccountRecord, bool) {
	committed := false
	actual, _ := s.records.Compute(key, func(old *AccountRecord, loaded bool) (*AccountRecord, xsync.ComputeOp) {
		var cached *AccountRecord
		if loaded {
			cached = old
		}
		merged := Merge(cached, incoming)
		if !shouldCommit(cached, merged) {
			return old, xsync.CancelOp
		}
		committed = true
		return merged, xsync.UpdateOp
	})
	if committed && actual.Username != "" {
		s.aliases.Store(actual.Username, key)
	}
	return actual, committed
}
