package program

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func testProgram() Program {
	return Program{
		Sections: []Section{
			{ID: "data", Kind: Data, Address: 0x1100, Data: make([]byte, 0x20)},
			{ID: "code", Kind: Code, Address: 0x1000, Data: make([]byte, 0x100)},
		},
		Init: 0x1000,
		Play: 0x1003,
	}
}

func TestSection(t *testing.T) {
	section := Section{ID: "code", Kind: Code, Address: 0xFFF0, Data: make([]byte, 0x10)}

	assert.Equal(t, 0x10, section.Size())
	assert.Equal(t, 0x10000, section.End())
	assert.True(t, section.Contains(0xFFF0))
	assert.True(t, section.Contains(0xFFFF))
	assert.False(t, section.Contains(0xFFEF))
	assert.True(t, section.Relocatable())
	assert.True(t, section.IsCode())

	stub := Section{Kind: EntryStub}
	assert.False(t, stub.Relocatable())
	assert.True(t, stub.IsCode())
}

func TestSectionClone(t *testing.T) {
	section := Section{ID: "data", Kind: Data, Address: 0x1000, Data: []byte{1, 2, 3}}
	clone := section.Clone()
	clone.Data[0] = 0xFF

	assert.Equal(t, byte(1), section.Data[0])
	assert.Equal(t, section.ID, clone.ID)
}

func TestTableDescriptorEntry(t *testing.T) {
	words := TableDescriptor{Address: 0x1901, Stride: 2, Count: 4}
	lo, hi := words.Entry(2)
	assert.Equal(t, 0x1905, lo)
	assert.Equal(t, 0x1906, hi)

	split := TableDescriptor{Address: 0x1900, HiAddress: 0x1910, Stride: 1, Count: 4}
	lo, hi = split.Entry(3)
	assert.Equal(t, 0x1903, lo)
	assert.Equal(t, 0x1913, hi)
}

func TestSortedSections(t *testing.T) {
	prog := testProgram()
	sorted := prog.SortedSections()

	assert.Equal(t, "code", sorted[0].ID)
	assert.Equal(t, "data", sorted[1].ID)
	assert.Equal(t, "data", prog.Sections[0].ID)
}

func TestProgramByteAt(t *testing.T) {
	prog := testProgram()
	prog.Sections[0].Data[1] = 0x42

	b, ok := prog.ByteAt(0x1101)
	assert.True(t, ok)
	assert.Equal(t, byte(0x42), b)

	_, ok = prog.ByteAt(0x2000)
	assert.False(t, ok)

	start, end := prog.Span()
	assert.Equal(t, uint16(0x1000), start)
	assert.Equal(t, 0x1120, end)
}

//nolint:funlen // test functions can be long
func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(p *Program)
		sectionID string
		valid     bool
	}{
		{
			name:   "valid program",
			modify: func(p *Program) {},
			valid:  true,
		},
		{
			name:      "no sections",
			modify:    func(p *Program) { p.Sections = nil },
			sectionID: "",
		},
		{
			name:      "missing identifier",
			modify:    func(p *Program) { p.Sections[0].ID = "" },
			sectionID: "#0",
		},
		{
			name:      "duplicate identifier",
			modify:    func(p *Program) { p.Sections[1].ID = "data" },
			sectionID: "data",
		},
		{
			name:      "empty section",
			modify:    func(p *Program) { p.Sections[0].Data = nil },
			sectionID: "data",
		},
		{
			name:      "unknown kind",
			modify:    func(p *Program) { p.Sections[0].Kind = UnknownKind },
			sectionID: "data",
		},
		{
			name: "section exceeds address space",
			modify: func(p *Program) {
				p.Sections[0].Address = 0xFFF0
			},
			sectionID: "data",
		},
		{
			name:      "overlapping sections",
			modify:    func(p *Program) { p.Sections[0].Address = 0x10F0 },
			sectionID: "data",
		},
		{
			name:      "init outside sections",
			modify:    func(p *Program) { p.Init = 0x3000 },
			sectionID: InitEntryID,
		},
		{
			name:      "play points into data",
			modify:    func(p *Program) { p.Play = 0x1100 },
			sectionID: PlayEntryID,
		},
		{
			name:   "interrupt driven player without play address",
			modify: func(p *Program) { p.Play = 0 },
			valid:  true,
		},
		{
			name: "table outside sections",
			modify: func(p *Program) {
				p.Tables = []TableDescriptor{{Name: "tracks", Address: 0x1118, Stride: 2, Count: 8}}
			},
			sectionID: "tracks",
		},
		{
			name: "table with invalid stride",
			modify: func(p *Program) {
				p.Tables = []TableDescriptor{{Name: "tracks", Address: 0x1100, Stride: 1, Count: 2}}
			},
			sectionID: "tracks",
		},
		{
			name: "split table",
			modify: func(p *Program) {
				p.Tables = []TableDescriptor{{Name: "tracks", Address: 0x1100, HiAddress: 0x1110, Stride: 1, Count: 3}}
			},
			valid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := testProgram()
			tt.modify(&prog)

			err := prog.Validate()
			if tt.valid {
				assert.NoError(t, err)
				return
			}

			var structuralErr *StructuralError
			assert.True(t, errors.As(err, &structuralErr))
			assert.Equal(t, tt.sectionID, structuralErr.SectionID)
		})
	}
}
