package relocation

import (
	"fmt"
	"sort"

	"github.com/retroenv/retroreloc/internal/options"
	"github.com/retroenv/retroreloc/internal/program"
	"github.com/retroenv/retrogolib/log"
)

// OutOfSpaceError is returned when the compacted sections do not fit at the
// destination address.
type OutOfSpaceError struct {
	Destination uint16
	Total       int // size of all relocatable sections
	End         int // first address after the placed sections
	Limit       int
	Reserved    *options.Range // reserved range that is overlapped, if any
}

func (e *OutOfSpaceError) Error() string {
	if e.Reserved != nil {
		return fmt.Sprintf("relocated sections of $%04X bytes at $%04X overlap reserved range %s",
			e.Total, e.Destination, e.Reserved)
	}
	return fmt.Sprintf("relocated sections of $%04X bytes at $%04X end at $%05X which exceeds the limit $%05X",
		e.Total, e.Destination, e.End, e.Limit)
}

// Layout is the relocated program layout.
type Layout struct {
	Destination uint16
	Sections    []program.Section // relocated copies ordered by new address
	Map         *AddressMap
	Total       int // size of all relocatable sections
}

// SectionAt returns the relocated section that contains the new address and
// the index of the address inside the section data.
func (l *Layout) SectionAt(address uint16) (*program.Section, int, bool) {
	i := sort.Search(len(l.Sections), func(i int) bool {
		return l.Sections[i].Address > address
	}) - 1
	if i < 0 || !l.Sections[i].Contains(address) {
		return nil, 0, false
	}
	section := &l.Sections[i]
	return section, int(address) - int(section.Address), true
}

// Span returns the lowest start and the highest end address of all relocated sections.
func (l *Layout) Span() (uint16, int) {
	prog := program.Program{Sections: l.Sections}
	return prog.Span()
}

// Plan assigns every section a new address. Sections are ordered by their
// original address and placed without gaps starting at the destination
// address. Entry stub sections keep their address, a relocated section that
// would overlap a stub is placed after it. The input sections are not modified.
func Plan(logger *log.Logger, sections []program.Section, opts options.Layout) (*Layout, error) {
	prog := program.Program{Sections: sections}
	sorted := prog.SortedSections()

	limit := opts.MemoryLimit
	if limit <= 0 || limit > program.MemorySize {
		limit = program.MemorySize
	}

	var stubs []program.Section
	var total int
	for _, section := range sorted {
		if section.Relocatable() {
			total += section.Size()
		} else {
			stubs = append(stubs, section)
		}
	}

	mappings := make([]Mapping, 0, len(sorted))
	relocated := make([]program.Section, 0, len(sorted))
	cursor := int(opts.Destination)

	for _, section := range sorted {
		newAddress := int(section.Address)
		if section.Relocatable() {
			cursor = skipStubs(cursor, section.Size(), stubs)
			newAddress = cursor
			cursor += section.Size()

			if err := checkSpace(opts, newAddress, cursor, total, limit); err != nil {
				return nil, err
			}
		}

		mapping := Mapping{
			SectionID: section.ID,
			Kind:      section.Kind,
			Old:       section.Address,
			New:       uint16(newAddress),
			Size:      section.Size(),
		}
		mappings = append(mappings, mapping)

		moved := section.Clone()
		moved.Address = mapping.New
		relocated = append(relocated, moved)

		logger.Debug("Section placed",
			log.String("section", section.ID),
			log.Stringer("kind", section.Kind),
			log.Hex("old", section.Address),
			log.Hex("new", mapping.New),
			log.Int("size", section.Size()))
	}

	addressMap, err := NewAddressMap(mappings)
	if err != nil {
		return nil, fmt.Errorf("creating address map: %w", err)
	}

	sort.SliceStable(relocated, func(i, j int) bool {
		return relocated[i].Address < relocated[j].Address
	})
	if err := verifyNoOverlap(relocated); err != nil {
		return nil, err
	}

	return &Layout{
		Destination: opts.Destination,
		Sections:    relocated,
		Map:         addressMap,
		Total:       total,
	}, nil
}

// skipStubs returns the first address at or after cursor where a range of
// the given size does not overlap any stub.
func skipStubs(cursor, size int, stubs []program.Section) int {
	for moved := true; moved; {
		moved = false
		for _, stub := range stubs {
			if cursor < stub.End() && int(stub.Address) < cursor+size {
				cursor = stub.End()
				moved = true
			}
		}
	}
	return cursor
}

func checkSpace(opts options.Layout, start, end, total, limit int) error {
	if end > limit {
		return &OutOfSpaceError{
			Destination: opts.Destination,
			Total:       total,
			End:         end,
			Limit:       limit,
		}
	}
	for _, reserved := range opts.Reserved {
		if reserved.Overlaps(start, end) {
			return &OutOfSpaceError{
				Destination: opts.Destination,
				Total:       total,
				End:         end,
				Limit:       limit,
				Reserved:    &reserved,
			}
		}
	}
	return nil
}

func verifyNoOverlap(sections []program.Section) error {
	for i := 1; i < len(sections); i++ {
		previous, current := sections[i-1], sections[i]
		if int(current.Address) < previous.End() {
			return fmt.Errorf("relocated section '%s' overlaps section '%s'", current.ID, previous.ID)
		}
	}
	return nil
}
