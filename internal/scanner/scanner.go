// Package scanner discovers the memory address pointers that are embedded in
// the code and data sections of a program.
package scanner

import (
	"fmt"
	"sort"

	"github.com/retroenv/retroreloc/internal/arch/m6502"
	"github.com/retroenv/retroreloc/internal/consts"
	"github.com/retroenv/retroreloc/internal/options"
	"github.com/retroenv/retroreloc/internal/pointer"
	"github.com/retroenv/retroreloc/internal/program"
	"github.com/retroenv/retroreloc/internal/vars"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrogolib/set"
)

// Scanner finds pointer candidates in a program.
type Scanner struct {
	logger  *log.Logger
	options options.Scan
}

// Result contains the outcome of a scan.
type Result struct {
	Candidates []pointer.Candidate // accepted candidates ordered by location
	Conflicts  []pointer.Conflict
	Found      int // number of candidates before resolution

	PageBand    options.PageBand                // band used by the data scan
	Coverage    map[string][]program.OffsetType // classification of every section byte by section ID
	CallTargets []uint16                        // destinations of all traced subroutine calls

	ZeroPage           []vars.Variable
	HardwareReferences []consts.Constant
}

// Traced returns the number of bytes of the section that are part of traced instructions.
func (r *Result) Traced(sectionID string) int {
	var count int
	for _, offset := range r.Coverage[sectionID] {
		if offset.IsTraced() {
			count++
		}
	}
	return count
}

// New returns a new scanner.
func New(logger *log.Logger, options options.Scan) *Scanner {
	return &Scanner{
		logger:  logger,
		options: options,
	}
}

// scan contains the state of a single scan run.
type scan struct {
	logger  *log.Logger
	options options.Scan
	prog    *program.Program

	sections []program.Section // sorted by address
	coverage map[string][]program.OffsetType
	band     options.PageBand

	candidates *pointer.Set
	constants  *consts.Consts
	vars       *vars.Vars

	offsetsToParse      []uint16
	offsetsToParseAdded set.Set[uint16]
	offsetsParsed       set.Set[uint16]
	branchDestinations  set.Set[uint16]
	callTargets         []uint16
	callTargetsAdded    set.Set[uint16]
}

// Scan runs all scan passes on the program and resolves the found candidates.
// The program is expected to be validated.
func (s *Scanner) Scan(prog *program.Program) (*Result, error) {
	constants, err := consts.New(m6502.C64Registers{})
	if err != nil {
		return nil, fmt.Errorf("creating constants: %w", err)
	}

	sc := &scan{
		logger:              s.logger,
		options:             s.options,
		prog:                prog,
		sections:            prog.SortedSections(),
		coverage:            make(map[string][]program.OffsetType, len(prog.Sections)),
		candidates:          pointer.NewSet(),
		constants:           constants,
		vars:                vars.New(),
		offsetsToParseAdded: set.New[uint16](),
		offsetsParsed:       set.New[uint16](),
		branchDestinations:  set.New[uint16](),
		callTargetsAdded:    set.New[uint16](),
	}
	for _, section := range sc.sections {
		sc.coverage[section.ID] = make([]program.OffsetType, section.Size())
	}

	sc.band = s.options.PageBand
	if sc.band.IsZero() {
		sc.band = derivePageBand(sc.sections)
	}
	sc.logger.Debug("Data scan page band",
		log.Hex("low", sc.band.Low),
		log.Hex("high", sc.band.High))

	sc.followExecutionFlow()
	sc.scanData()
	sc.scanKnownTables()

	return sc.result(), nil
}

func (sc *scan) result() *Result {
	accepted, conflicts := sc.candidates.Resolve()
	for _, conflict := range conflicts {
		sc.logger.Warn("Ambiguous pointer candidate",
			log.Hex("location", conflict.Accepted.Location),
			log.Stringer("accepted", conflict.Accepted),
			log.Stringer("rejected", conflict.Rejected))
	}

	for _, candidate := range accepted {
		for address := int(candidate.Location); address < candidate.End(); address++ {
			section, index, ok := sc.sectionAt(uint16(address))
			if ok {
				sc.coverage[section.ID][index].SetType(program.PointerOffset)
			}
		}
	}

	callTargets := make([]uint16, len(sc.callTargets))
	copy(callTargets, sc.callTargets)
	sort.Slice(callTargets, func(i, j int) bool {
		return callTargets[i] < callTargets[j]
	})

	return &Result{
		Candidates:         accepted,
		Conflicts:          conflicts,
		Found:              sc.candidates.Len(),
		PageBand:           sc.band,
		Coverage:           sc.coverage,
		CallTargets:        callTargets,
		ZeroPage:           sc.vars.Variables(),
		HardwareReferences: sc.constants.Used(),
	}
}

// sectionAt returns the section that contains the address and the index of
// the address inside the section data.
func (sc *scan) sectionAt(address uint16) (program.Section, int, bool) {
	i := sort.Search(len(sc.sections), func(i int) bool {
		return sc.sections[i].Address > address
	}) - 1
	if i < 0 || !sc.sections[i].Contains(address) {
		return program.Section{}, 0, false
	}
	section := sc.sections[i]
	return section, int(address) - int(section.Address), true
}

// readWord reads a little endian word whose bytes both belong to the same section.
func (sc *scan) readWord(address uint16) (uint16, bool) {
	section, index, ok := sc.sectionAt(address)
	if !ok || index+1 >= section.Size() {
		return 0, false
	}
	return uint16(section.Data[index+1])<<8 | uint16(section.Data[index]), true
}

// derivePageBand returns the band of pages that are occupied by the sections.
func derivePageBand(sections []program.Section) options.PageBand {
	if len(sections) == 0 {
		return options.PageBand{}
	}

	low := uint8(sections[0].Address >> 8)
	high := low
	for _, section := range sections {
		first := uint8(section.Address >> 8)
		last := uint8((section.End() - 1) >> 8)
		if first < low {
			low = first
		}
		if last > high {
			high = last
		}
	}
	return options.PageBand{Low: low, High: high}
}
