package pointer

import (
	"sort"
)

// Conflict describes two candidates at the same location that disagree
// about the encoded address. The higher ranked candidate is accepted.
type Conflict struct {
	Accepted Candidate
	Rejected Candidate
}

// Outranks returns whether candidate a is preferred over candidate b.
// The order is total: origin priority, confidence, lower location, word before
// byte parts and finally the lower target.
func Outranks(a, b Candidate) bool {
	if a.Origin != b.Origin {
		return a.Origin > b.Origin
	}
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	if a.Location != b.Location {
		return a.Location < b.Location
	}
	if a.Part != b.Part {
		return a.Part < b.Part
	}
	return a.Target < b.Target
}

// Resolve selects the candidates that will be patched. Candidates are processed
// in rank order and every accepted candidate claims its bytes, a lower ranked
// candidate that touches a claimed byte is dropped. A dropped candidate that
// starts at the same location as the accepted one but encodes a different
// address is reported as conflict. The result is ordered by location and does
// not depend on the order of the input.
func Resolve(candidates []Candidate) ([]Candidate, []Conflict) {
	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return Outranks(ranked[i], ranked[j])
	})

	claimed := map[int]int{} // byte address to index of accepted candidate
	var accepted []Candidate
	var conflicts []Conflict

	for _, candidate := range ranked {
		owner, ok := claimedBy(claimed, candidate)
		if !ok {
			for address := int(candidate.Location); address < candidate.End(); address++ {
				claimed[address] = len(accepted)
			}
			accepted = append(accepted, candidate)
			continue
		}

		winner := accepted[owner]
		if winner.Location == candidate.Location && !winner.Equivalent(candidate) {
			conflicts = append(conflicts, Conflict{
				Accepted: winner,
				Rejected: candidate,
			})
		}
	}

	sort.Slice(accepted, func(i, j int) bool {
		if accepted[i].Location != accepted[j].Location {
			return accepted[i].Location < accepted[j].Location
		}
		return accepted[i].Part < accepted[j].Part
	})
	sort.SliceStable(conflicts, func(i, j int) bool {
		return conflicts[i].Accepted.Location < conflicts[j].Accepted.Location
	})
	return accepted, conflicts
}

// claimedBy returns the index of the accepted candidate that owns the first
// claimed byte of the candidate.
func claimedBy(claimed map[int]int, candidate Candidate) (int, bool) {
	for address := int(candidate.Location); address < candidate.End(); address++ {
		if owner, ok := claimed[address]; ok {
			return owner, true
		}
	}
	return 0, false
}
