package kvfake

import (
	"context"
	"sync"

	"github.com/okanassist/okanassist-auth/credentials"
)

var _ credentials.KV = (*Store)(nil)

// Op names a backend operation for fault injection.
type Op string

const (
	OpMultiGet    Op = "MultiGet"
	OpMultiSet    Op = "MultiSet"
	OpMultiRemove Op = "MultiRemove"
)

// Store is an in-memory KV backend. Failures can be scripted per operation.
type Store struct {
	values   map[string]string
	failures map[Op][]error
	calls    map[Op]int
	lock     sync.RWMutex
}

func New() *Store {
	return &Store{
		values:   make(map[string]string),
		failures: make(map[Op][]error),
		calls:    make(map[Op]int),
	}
}

// FailNext makes the next call of op return err without touching the data.
func (s *Store) FailNext(op Op, err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.failures[op] = append(s.failures[op], err)
}

// Calls returns how many times op was invoked.
func (s *Store) Calls(op Op) int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.calls[op]
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.values)
}

// Get returns a raw value, for assertions.
func (s *Store) Get(key string) (string, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *Store) MultiGet(ctx context.Context, keys ...string) (map[string]string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.begin(ctx, OpMultiGet); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := s.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (s *Store) MultiSet(ctx context.Context, pairs map[string]string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.begin(ctx, OpMultiSet); err != nil {
		return err
	}

	for k, v := range pairs {
		s.values[k] = v
	}
	return nil
}

func (s *Store) MultiRemove(ctx context.Context, keys ...string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.begin(ctx, OpMultiRemove); err != nil {
		return err
	}

	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}

// begin must be called with the lock held.
func (s *Store) begin(ctx context.Context, op Op) error {
	s.calls[op]++
	if err := ctx.Err(); err != nil {
		return err
	}
	if queued := s.failures[op]; len(queued) > 0 {
		s.failures[op] = queued[1:]
		return queued[0]
	}
	return nil
}
