// Package relocation computes the compacted memory layout of a program.
package relocation

import (
	"fmt"
	"sort"

	"github.com/retroenv/retroreloc/internal/program"
)

// Mapping is an affine translation of the address range of one section.
type Mapping struct {
	SectionID string
	Kind      program.Kind
	Old       uint16 // original address of the section
	New       uint16 // relocated address of the section
	Size      int
}

// Contains returns whether the original address is part of the mapping.
func (m Mapping) Contains(address uint16) bool {
	return int(address) >= int(m.Old) && int(address) < int(m.Old)+m.Size
}

// ContainsNew returns whether the relocated address is part of the mapping.
func (m Mapping) ContainsNew(address uint16) bool {
	return int(address) >= int(m.New) && int(address) < int(m.New)+m.Size
}

// Translate translates an original address of the mapping to its relocated address.
func (m Mapping) Translate(address uint16) uint16 {
	return m.New + (address - m.Old)
}

// NewEnd returns the first address after the relocated range.
func (m Mapping) NewEnd() int {
	return int(m.New) + m.Size
}

func (m Mapping) String() string {
	return fmt.Sprintf("%s $%04X-$%04X -> $%04X-$%04X", m.SectionID,
		m.Old, int(m.Old)+m.Size-1, m.New, m.NewEnd()-1)
}

// AddressMap translates original addresses to their relocated addresses.
// Addresses outside of all mappings are unmapped and stay unchanged.
type AddressMap struct {
	mappings []Mapping // ordered by original address
}

// NewAddressMap returns an address map for the given mappings. The mappings
// may not overlap.
func NewAddressMap(mappings []Mapping) (*AddressMap, error) {
	sorted := make([]Mapping, len(mappings))
	copy(sorted, mappings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Old < sorted[j].Old
	})

	for i := 1; i < len(sorted); i++ {
		previous := sorted[i-1]
		if int(sorted[i].Old) < int(previous.Old)+previous.Size {
			return nil, fmt.Errorf("mapping of section '%s' overlaps section '%s'",
				sorted[i].SectionID, previous.SectionID)
		}
	}
	return &AddressMap{mappings: sorted}, nil
}

// Lookup returns the mapping that contains the original address.
func (m *AddressMap) Lookup(address uint16) (Mapping, bool) {
	i := sort.Search(len(m.mappings), func(i int) bool {
		return m.mappings[i].Old > address
	}) - 1
	if i < 0 || !m.mappings[i].Contains(address) {
		return Mapping{}, false
	}
	return m.mappings[i], true
}

// Translate returns the relocated address of an original address. If the
// address is not part of any section false is returned.
func (m *AddressMap) Translate(address uint16) (uint16, bool) {
	mapping, ok := m.Lookup(address)
	if !ok {
		return address, false
	}
	return mapping.Translate(address), true
}

// Mappings returns a copy of all mappings ordered by original address.
func (m *AddressMap) Mappings() []Mapping {
	mappings := make([]Mapping, len(m.mappings))
	copy(mappings, m.mappings)
	return mappings
}

// Identity returns whether no address is changed by the map.
func (m *AddressMap) Identity() bool {
	for _, mapping := range m.mappings {
		if mapping.Old != mapping.New {
			return false
		}
	}
	return true
}
