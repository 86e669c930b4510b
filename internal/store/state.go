// Package store holds the server-side caches of the remote collections.
//
// Every container tracks the outcome of its last operation as a Status
// (Idle, Loading, Ok, Err) and keys its records by identifier, so that
// mutations received twice (once from the local call, once from the
// broadcast of the same change) leave it in the same state.
package store

import (
	"sync"
)

// Status is the state of the last operation issued against a container.
type Status int

const (
	Idle Status = iota
	Loading
	Ok
	Err
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ok:
		return "ok"
	case Err:
		return "error"
	default:
		return "idle"
	}
}

// Snapshot is a copy of a container taken under its lock.
type Snapshot[T any] struct {
	Status Status
	Data   []T
	Err    error
}

// Loading reports whether an operation is in flight.
func (s Snapshot[T]) Loading() bool { return s.Status == Loading }

// Collection is an insertion-ordered set of records keyed by K plus the state of the
// last operation. It is safe for concurrent use.
type Collection[K comparable, T any] struct {
	mu     sync.RWMutex
	status Status
	err    error
	keys   []K
	items  map[K]T
	keyOf  func(T) K
}

// NewCollection creates an empty, idle collection keyed by keyOf.
func NewCollection[K comparable, T any](keyOf func(T) K) *Collection[K, T] {
	return &Collection[K, T]{
		items: make(map[K]T),
		keyOf: keyOf,
	}
}

// Begin marks an operation as pending and clears the previous error.
func (c *Collection[K, T]) Begin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = Loading
	c.err = nil
}

// Resolve marks the pending operation as fulfilled.
func (c *Collection[K, T]) Resolve() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = Ok
	c.err = nil
}

// Reject records err as the outcome of the pending operation. Records are kept.
func (c *Collection[K, T]) Reject(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = Err
	c.err = err
}

// Replace swaps the whole content for items and resolves the pending operation.
// Later duplicates of a key win but keep the position of the first occurrence.
func (c *Collection[K, T]) Replace(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = c.keys[:0]
	c.items = make(map[K]T, len(items))
	for _, item := range items {
		c.putLocked(item)
	}
	c.status = Ok
	c.err = nil
}

// Put inserts item or replaces the record with the same key in place.
// It does not change the operation status.
func (c *Collection[K, T]) Put(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.putLocked(item)
}

func (c *Collection[K, T]) putLocked(item T) {
	key := c.keyOf(item)
	if _, exists := c.items[key]; !exists {
		c.keys = append(c.keys, key)
	}
	c.items[key] = item
}

// Drop removes the record with key, if present. It does not change the operation status.
func (c *Collection[K, T]) Drop(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.items[key]; !exists {
		return
	}
	delete(c.items, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			break
		}
	}
}

// Clear removes every record. It does not change the operation status.
func (c *Collection[K, T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = nil
	c.items = make(map[K]T)
}

// Get returns the record with key.
func (c *Collection[K, T]) Get(key K) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[key]
	return item, ok
}

// Len returns the number of records.
func (c *Collection[K, T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.keys)
}

// Snapshot copies the records in insertion order together with the operation state.
func (c *Collection[K, T]) Snapshot() Snapshot[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data := make([]T, 0, len(c.keys))
	for _, k := range c.keys {
		data = append(data, c.items[k])
	}
	return Snapshot[T]{Status: c.status, Data: data, Err: c.err}
}
