// Package options contains the relocation options.
package options

import (
	"fmt"
)

// default option values.
const (
	DefaultMemoryLimit   = 0x10000
	DefaultFrames        = 250
	DefaultMaxSteps      = 1_000_000
	DefaultLoopThreshold = 100_000
	DefaultStubAddress   = 0xFFF0
	DefaultWindowAddress = 0xD400
	DefaultWindowSize    = 0x20
)

// Range defines an inclusive address range.
type Range struct {
	Start uint16 `yaml:"start"`
	End   uint16 `yaml:"end"`
}

// Contains returns whether the address is part of the range.
func (r Range) Contains(address uint16) bool {
	return address >= r.Start && address <= r.End
}

// Overlaps returns whether the half open interval [start, end) shares an address with the range.
func (r Range) Overlaps(start, end int) bool {
	return start <= int(r.End) && int(r.Start) < end
}

func (r Range) String() string {
	return fmt.Sprintf("$%04X-$%04X", r.Start, r.End)
}

// PageBand defines the inclusive range of high bytes that the data scan
// accepts for a pointer. A zero band is derived from the sections of the program.
type PageBand struct {
	Low  uint8 `yaml:"low"`
	High uint8 `yaml:"high"`
}

// IsZero returns whether the band is unset.
func (b PageBand) IsZero() bool {
	return b.Low == 0 && b.High == 0
}

// Contains returns whether the page is part of the band.
func (b PageBand) Contains(page uint8) bool {
	return page >= b.Low && page <= b.High
}

// Window defines the address range of the peripheral registers whose writes
// are captured by the emulator.
type Window struct {
	Address uint16 `yaml:"address"`
	Size    int    `yaml:"size"`
}

// Contains returns whether the address is part of the window.
func (w Window) Contains(address uint16) bool {
	return int(address) >= int(w.Address) && int(address) < int(w.Address)+w.Size
}

// Scan defines options to control the pointer scanner.
type Scan struct {
	PageBand         PageBand // high byte band of data scan pointers, derived from the sections if zero
	ImmediatePairs   bool     // detect addresses that are composed by immediate loads of low and high byte
	ScanCodeGaps     bool     // data scan the bytes of code sections that were not reached by tracing
	StopAtUnofficial bool     // stop tracing at unofficial opcodes
	Entries          []uint16 // additional code entry points
}

// Layout defines options to control the relocation planner.
type Layout struct {
	Destination uint16
	MemoryLimit int     // first address that can not be used, 0x10000 for the whole address space
	Reserved    []Range // address ranges that relocated sections may not overlap
}

// Validation defines options to control the emulated validation run.
type Validation struct {
	Enabled       bool
	Frames        int    // number of play routine calls
	MaxSteps      int    // step budget of every routine call
	LoopThreshold int    // executions of one address that are considered an infinite loop
	StubAddress   uint16 // address of the call trampoline
	Window        Window
	Song          uint16 // song number passed to init, 1 based, 0 uses the start song

	// CompareOriginal also emulates the unrelocated program and compares
	// the register writes of both runs.
	CompareOriginal bool
}

// Relocation defines options to control a conversion.
type Relocation struct {
	Scan       Scan
	Layout     Layout
	Validation Validation
}

// NewRelocation returns a new options instance with default options.
func NewRelocation(destination uint16) Relocation {
	return Relocation{
		Scan: Scan{
			ImmediatePairs: true,
		},
		Layout: Layout{
			Destination: destination,
			MemoryLimit: DefaultMemoryLimit,
			Reserved: []Range{
				{Start: 0xD000, End: 0xDFFF}, // I/O area
			},
		},
		Validation: NewValidation(),
	}
}

// NewValidation returns validation options with default values.
func NewValidation() Validation {
	return Validation{
		Frames:        DefaultFrames,
		MaxSteps:      DefaultMaxSteps,
		LoopThreshold: DefaultLoopThreshold,
		StubAddress:   DefaultStubAddress,
		Window: Window{
			Address: DefaultWindowAddress,
			Size:    DefaultWindowSize,
		},
	}
}
