package tracker

import (
	"sort"
	"sync"
)

// ResultStore holds the last result collection fetched from the backend,
// most recently generated first. It also remembers which results were already
// paired with a pending job so a result is never matched twice.
type ResultStore struct {
	lock    sync.RWMutex
	results []Result
	claimed map[string]struct{}
	loaded  bool
}

func NewResultStore() *ResultStore {
	return &ResultStore{claimed: make(map[string]struct{})}
}

// Replace swaps the whole collection with a fresh snapshot.
func (s *ResultStore) Replace(results []Result) {
	sorted := make([]Result, len(results))
	copy(sorted, results)
	SortResults(sorted)

	present := make(map[string]struct{}, len(sorted))
	for _, r := range sorted {
		present[r.ID] = struct{}{}
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	s.results = sorted
	s.loaded = true
	for id := range s.claimed {
		if _, ok := present[id]; !ok {
			delete(s.claimed, id)
		}
	}
}

// SortResults orders results most recently generated first, in place.
func SortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].GeneratedAt.After(results[j].GeneratedAt)
	})
}

func (s *ResultStore) List() []Result {
	s.lock.RLock()
	defer s.lock.RUnlock()

	results := make([]Result, len(s.results))
	copy(results, s.results)
	return results
}

func (s *ResultStore) Get(id string) (Result, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	for _, r := range s.results {
		if r.ID == id {
			return r, true
		}
	}
	return Result{}, false
}

func (s *ResultStore) Remove(id string) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	for i, r := range s.results {
		if r.ID == id {
			s.results = append(s.results[:i:i], s.results[i+1:]...)
			delete(s.claimed, id)
			return true
		}
	}
	return false
}

func (s *ResultStore) Claim(id string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.claimed[id] = struct{}{}
}

func (s *ResultStore) Claimed(id string) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	_, ok := s.claimed[id]
	return ok
}

// Loaded reports whether a snapshot was ever fetched.
func (s *ResultStore) Loaded() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.loaded
}

func (s *ResultStore) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.results)
}
