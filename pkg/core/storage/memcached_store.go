package storage

import (
	"slices"
)

// MemCachedStore is a wrapper around persistent store that caches all changes
// being made for them to be later flushed in one batch.
type MemCachedStore struct {
	MemoryStore

	// Persistent Store.
	ps Store
}

type (
	// KeyValue represents key-value pair.
	KeyValue struct {
		Key   []byte
		Value []byte
	}

	// KeyValueExists represents key-value pair with indicator whether the item
	// exists in the persistent storage.
	KeyValueExists struct {
		KeyValue

		Exists bool
	}

	// MemBatch represents a changeset to be persisted.
	MemBatch struct {
		Put     []KeyValueExists
		Deleted []KeyValueExists
	}
)

// NewMemCachedStore creates a new MemCachedStore object.
func NewMemCachedStore(lower Store) *MemCachedStore {
	return &MemCachedStore{
		MemoryStore: *NewMemoryStore(),
		ps:          lower,
	}
}

// Get implements the Store interface.
func (s *MemCachedStore) Get(key []byte) ([]byte, error) {
	s.mut.RLock()
	defer s.mut.RUnlock()
	if val, ok := s.mem[string(key)]; ok {
		if val == nil {
			return nil, ErrKeyNotFound
		}
		return val, nil
	}
	return s.ps.Get(key)
}

// Put puts new KV pair into the store.
func (s *MemCachedStore) Put(key, value []byte) {
	s.mut.Lock()
	put(s.mem, string(key), value)
	s.mut.Unlock()
}

// Delete drops KV pair from the store. Never returns an error.
func (s *MemCachedStore) Delete(key []byte) {
	s.mut.Lock()
	put(s.mem, string(key), nil)
	s.mut.Unlock()
}

// GetBatch returns currently accumulated changeset.
func (s *MemCachedStore) GetBatch() *MemBatch {
	s.mut.RLock()
	defer s.mut.RUnlock()

	var b MemBatch

	for k, v := range s.mem {
		key := []byte(k)
		_, err := s.ps.Get(key)
		if v == nil {
			b.Deleted = append(b.Deleted, KeyValueExists{KeyValue: KeyValue{Key: key}, Exists: err == nil})
		} else {
			b.Put = append(b.Put, KeyValueExists{KeyValue: KeyValue{Key: key, Value: v}, Exists: err == nil})
		}
	}
	return &b
}

// Seek implements the Store interface. Changes cached in this layer take
// precedence over the lower Store contents, deleted items are skipped.
func (s *MemCachedStore) Seek(rng SeekRange, f func(k, v []byte) bool) {
	s.mut.RLock()
	defer s.mut.RUnlock()

	res := s.MemoryStore.collect(rng, true)
	s.ps.Seek(rng, func(k, v []byte) bool {
		if _, ok := s.mem[string(k)]; !ok {
			res = append(res, KeyValue{
				Key:   slices.Clone(k),
				Value: slices.Clone(v),
			})
		}
		return true
	})
	cmpFunc := getCmpFunc(rng.Backwards)
	slices.SortFunc(res, func(a, b KeyValue) int {
		return cmpFunc(a.Key, b.Key)
	})
	for _, kv := range res {
		if kv.Value == nil {
			continue
		}
		if !f(kv.Key, kv.Value) {
			break
		}
	}
}

// Persist flushes all the MemoryStore contents into the (supposedly) persistent
// store ps as a single changeset. It returns the number of flushed keys.
func (s *MemCachedStore) Persist() (int, error) {
	s.mut.Lock()
	defer s.mut.Unlock()

	keys := len(s.mem)
	if keys == 0 {
		return 0, nil
	}
	err := s.ps.PutChangeSet(s.mem)
	if err != nil {
		return 0, err
	}
	s.mem = make(map[string][]byte)
	return keys, nil
}

// Close implements Store interface, clears up memory and closes the lower layer
// Store.
func (s *MemCachedStore) Close() error {
	// It's always successful.
	_ = s.MemoryStore.Close()
	return s.ps.Close()
}
