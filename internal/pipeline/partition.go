package pipeline

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Partition splits lines into at most n contiguous groups of
// ceil(len(lines)/n) lines. The last group may be shorter; no group is empty.
func Partition[T any](lines []T, n int) [][]T {
	if len(lines) == 0 {
		return nil
	}
	if n < 1 {
		n = 1
	}
	size := (len(lines) + n - 1) / n

	parts := make([][]T, 0, n)
	for i := 0; i < len(lines); i += size {
		end := min(i+size, len(lines))
		parts = append(parts, lines[i:end])
	}
	return parts
}

// Dedup returns sentences with repeats removed, keeping the first occurrence
// of each in its original position.
func Dedup(sentences []string) []string {
	seen := make(map[string]struct{}, len(sentences))
	out := make([]string, 0, len(sentences))
	for _, s := range sentences {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Seen remembers the 64-bit digests of sentences written so far. A digest
// collision drops a sentence that was never written, which is accepted.
type Seen struct {
	mu     sync.Mutex
	hashes map[uint64]struct{}
}

// NewSeen creates an empty set.
func NewSeen() *Seen {
	return &Seen{hashes: make(map[uint64]struct{})}
}

// Add records s and reports whether it was new.
func (s *Seen) Add(sentence string) bool {
	h := xxhash.Sum64String(sentence)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hashes[h]; ok {
		return false
	}
	s.hashes[h] = struct{}{}
	return true
}

// Len returns the number of remembered sentences.
func (s *Seen) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hashes)
}
