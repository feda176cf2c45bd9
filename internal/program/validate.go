package program

import (
	"fmt"
)

// identifiers used in structural errors that do not refer to a section.
const (
	InitEntryID = "init"
	PlayEntryID = "play"
)

// StructuralError is returned when a required section or entry address is
// missing or malformed. It is detected before any relocation work starts.
type StructuralError struct {
	SectionID string
	Reason    string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("invalid section '%s': %s", e.SectionID, e.Reason)
}

func structuralError(sectionID, format string, args ...any) error {
	return &StructuralError{
		SectionID: sectionID,
		Reason:    fmt.Sprintf(format, args...),
	}
}

// Validate checks the program structure: all sections need an ID, a known kind,
// data that fits into the address space and no section may overlap another one.
// The init and play entries have to point into executable sections and all
// known tables have to be located inside sections.
func (p *Program) Validate() error {
	if len(p.Sections) == 0 {
		return structuralError("", "program contains no sections")
	}

	ids := make(map[string]struct{}, len(p.Sections))
	for i, section := range p.Sections {
		if section.ID == "" {
			return structuralError(fmt.Sprintf("#%d", i), "missing section identifier")
		}
		if _, ok := ids[section.ID]; ok {
			return structuralError(section.ID, "duplicate section identifier")
		}
		ids[section.ID] = struct{}{}

		if section.Kind != Code && section.Kind != Data && section.Kind != EntryStub {
			return structuralError(section.ID, "unsupported section kind %s", section.Kind)
		}
		if len(section.Data) == 0 {
			return structuralError(section.ID, "section is empty")
		}
		if section.End() > MemorySize {
			return structuralError(section.ID, "section $%04X-$%05X exceeds the address space",
				section.Address, section.End())
		}
	}

	sorted := p.SortedSections()
	for i := 1; i < len(sorted); i++ {
		previous, current := sorted[i-1], sorted[i]
		if int(current.Address) < previous.End() {
			return structuralError(current.ID, "section overlaps section '%s'", previous.ID)
		}
	}

	if err := p.validateEntry(InitEntryID, p.Init); err != nil {
		return err
	}
	if p.Play != 0 {
		if err := p.validateEntry(PlayEntryID, p.Play); err != nil {
			return err
		}
	}

	for _, table := range p.Tables {
		if err := p.validateTable(table); err != nil {
			return err
		}
	}
	return nil
}

func (p *Program) validateEntry(id string, address uint16) error {
	section, ok := p.SectionAt(address)
	if !ok {
		return structuralError(id, "entry address $%04X is outside all sections", address)
	}
	if !section.IsCode() {
		return structuralError(id, "entry address $%04X points into %s section '%s'",
			address, section.Kind, section.ID)
	}
	return nil
}

func (p *Program) validateTable(table TableDescriptor) error {
	name := table.Name
	if name == "" {
		name = fmt.Sprintf("table $%04X", table.Address)
	}

	if table.Count <= 0 {
		return structuralError(name, "table has no entries")
	}
	if table.Stride <= 0 || (!table.Split() && table.Stride < 2) {
		return structuralError(name, "invalid table stride %d", table.Stride)
	}

	for i := range table.Count {
		lo, hi := table.Entry(i)
		if hi >= MemorySize || lo >= MemorySize {
			return structuralError(name, "entry %d exceeds the address space", i)
		}

		loSection, ok := p.SectionAt(uint16(lo))
		if !ok {
			return structuralError(name, "entry %d at $%04X is outside all sections", i, lo)
		}
		hiSection, ok := p.SectionAt(uint16(hi))
		if !ok {
			return structuralError(name, "entry %d at $%04X is outside all sections", i, hi)
		}
		if !table.Split() && loSection.ID != hiSection.ID {
			return structuralError(name, "entry %d at $%04X crosses a section boundary", i, lo)
		}
	}
	return nil
}
