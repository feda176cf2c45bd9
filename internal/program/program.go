// Package program represents a relocatable player program.
package program

import (
	"fmt"
	"sort"
)

// MemorySize is the size of the 16 bit address space.
const MemorySize = 0x10000

// Kind defines the type of a program section.
type Kind uint8

// section kinds.
const (
	UnknownKind Kind = iota
	Code
	Data
	EntryStub // fixed address jump stub, contents are patchable
)

func (k Kind) String() string {
	switch k {
	case Code:
		return "code"
	case Data:
		return "data"
	case EntryStub:
		return "entry-stub"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Section defines a contiguous byte range of a program.
type Section struct {
	ID      string
	Kind    Kind
	Address uint16 // load address of the first byte
	Data    []byte
}

// Size returns the size of the section in bytes.
func (s Section) Size() int {
	return len(s.Data)
}

// End returns the first address after the section. It is returned as int
// as a section can end at the end of the address space.
func (s Section) End() int {
	return int(s.Address) + len(s.Data)
}

// Contains returns whether the address is part of the section.
func (s Section) Contains(address uint16) bool {
	return int(address) >= int(s.Address) && int(address) < s.End()
}

// Relocatable returns whether the section can be moved to a new address.
func (s Section) Relocatable() bool {
	return s.Kind != EntryStub
}

// IsCode returns whether the section contains executable instructions.
func (s Section) IsCode() bool {
	return s.Kind == Code || s.Kind == EntryStub
}

// Clone returns a copy of the section that does not share the data buffer.
func (s Section) Clone() Section {
	data := make([]byte, len(s.Data))
	copy(data, s.Data)
	s.Data = data
	return s
}

// Metadata contains the free form information that is written into output headers.
type Metadata struct {
	Title    string
	Author   string
	Released string
}

// TableDescriptor describes a pointer table whose structure is known from the
// player specific table extractor.
// For word tables every entry is a little endian address at Address+i*Stride.
// For split tables HiAddress is set, the low bytes are stored at Address+i*Stride
// and the high bytes at HiAddress+i*Stride.
type TableDescriptor struct {
	Name      string
	Address   uint16
	HiAddress uint16
	Stride    int
	Count     int
}

// Split returns whether the table stores low and high bytes in separate arrays.
func (t TableDescriptor) Split() bool {
	return t.HiAddress != 0
}

// Entry returns the locations of the low and high byte of entry i.
func (t TableDescriptor) Entry(i int) (int, int) {
	lo := int(t.Address) + i*t.Stride
	if t.Split() {
		return lo, int(t.HiAddress) + i*t.Stride
	}
	return lo, lo + 1
}

// Program defines a player program that is split into sections.
type Program struct {
	Sections []Section
	Tables   []TableDescriptor
	Metadata Metadata

	Init uint16 // address of the init routine
	Play uint16 // address of the play routine, 0 if the player installs its own interrupt

	Songs     uint16
	StartSong uint16
}

// SortedSections returns the sections ordered by their address. Sections with
// the same address are ordered by their ID to keep the result independent of
// the input order.
func (p *Program) SortedSections() []Section {
	sections := make([]Section, len(p.Sections))
	copy(sections, p.Sections)
	sort.SliceStable(sections, func(i, j int) bool {
		if sections[i].Address != sections[j].Address {
			return sections[i].Address < sections[j].Address
		}
		return sections[i].ID < sections[j].ID
	})
	return sections
}

// SectionAt returns the section that contains the given address.
func (p *Program) SectionAt(address uint16) (Section, bool) {
	for _, section := range p.Sections {
		if section.Contains(address) {
			return section, true
		}
	}
	return Section{}, false
}

// ByteAt returns the byte at the given address from the section containing it.
func (p *Program) ByteAt(address uint16) (byte, bool) {
	section, ok := p.SectionAt(address)
	if !ok {
		return 0, false
	}
	return section.Data[int(address)-int(section.Address)], true
}

// Span returns the lowest start and the highest end address of all sections.
func (p *Program) Span() (uint16, int) {
	if len(p.Sections) == 0 {
		return 0, 0
	}
	start := p.Sections[0].Address
	end := p.Sections[0].End()
	for _, section := range p.Sections[1:] {
		if section.Address < start {
			start = section.Address
		}
		if section.End() > end {
			end = section.End()
		}
	}
	return start, end
}
