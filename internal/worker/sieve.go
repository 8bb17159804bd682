package worker

import (
	"sync"

	"github.com/esengulov/mysqlq/internal/domain"
)

type sieveKey struct {
	kind domain.Kind
	id   int64
}

func keyOf(r domain.Runnable) sieveKey {
	return sieveKey{kind: r.RunnableKind(), id: r.RunnableID()}
}

// sieve is the set of (kind, id) pairs currently traversing the pipeline.
// The dedup gate consults it before forwarding; the publishers snapshot it to
// build SQL exclusion lists. Publisher reads may be stale: a stale inclusion
// costs one wasted round trip, and a missed exclusion is caught by the gate.
type sieve struct {
	mu      sync.Mutex
	members map[sieveKey]struct{}
}

func newSieve() *sieve {
	return &sieve{members: make(map[sieveKey]struct{})}
}

// Add inserts k and reports whether it was absent.
func (s *sieve) Add(k sieveKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[k]; ok {
		return false
	}
	s.members[k] = struct{}{}
	return true
}

func (s *sieve) Remove(k sieveKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members, k)
}

// Snapshot returns the ids of the given kind at this instant.
func (s *sieve) Snapshot(kind domain.Kind) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for k := range s.members {
		if k.kind == kind {
			ids = append(ids, k.id)
		}
	}
	return ids
}
