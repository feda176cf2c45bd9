package pointer

import (
	"github.com/retroenv/retrogolib/set"
)

// Set collects the candidates of all scan passes.
type Set struct {
	candidates []Candidate
	locations  set.Set[uint16]
}

// NewSet returns a new empty candidate set.
func NewSet() *Set {
	return &Set{
		locations: set.New[uint16](),
	}
}

// Add adds a candidate to the set.
func (s *Set) Add(candidate Candidate) {
	s.candidates = append(s.candidates, candidate)
	s.locations.Add(candidate.Location)
}

// Has returns whether a candidate starts at the given location.
func (s *Set) Has(location uint16) bool {
	return s.locations.Contains(location)
}

// Len returns the number of collected candidates.
func (s *Set) Len() int {
	return len(s.candidates)
}

// Candidates returns a copy of all collected candidates in insertion order.
func (s *Set) Candidates() []Candidate {
	candidates := make([]Candidate, len(s.candidates))
	copy(candidates, s.candidates)
	return candidates
}

// Resolve resolves all collected candidates.
func (s *Set) Resolve() ([]Candidate, []Conflict) {
	return Resolve(s.candidates)
}
