package scanner

import (
	"github.com/retroenv/retroreloc/internal/pointer"
	"github.com/retroenv/retroreloc/internal/program"
	"github.com/retroenv/retrogolib/log"
)

const (
	runBonus        = 0.05 // confidence bonus for every neighbouring hit in a stride 2 run
	maxRunNeighbors = 7
)

// dataHit is a word in a data section that looks like a pointer.
type dataHit struct {
	location uint16
	target   uint16
}

// scanData reads a word at every byte offset of all data sections. Pointer
// tables do not have to start at an even address, so no offset is skipped.
func (sc *scan) scanData() {
	for _, section := range sc.sections {
		switch {
		case section.Kind == program.Data:
			sc.scanSection(section, false)
		case section.Kind == program.Code && sc.options.ScanCodeGaps:
			sc.scanSection(section, true)
		}
	}
}

// scanSection scans a single section. If onlyGaps is set, bytes that belong
// to traced instructions are skipped.
func (sc *scan) scanSection(section program.Section, onlyGaps bool) {
	coverage := sc.coverage[section.ID]
	hits := map[int]dataHit{}

	for index := 0; index+1 < section.Size(); index++ {
		if onlyGaps && (coverage[index].IsTraced() || coverage[index+1].IsTraced()) {
			continue
		}

		target := uint16(section.Data[index+1])<<8 | uint16(section.Data[index])
		if !sc.band.Contains(uint8(target >> 8)) {
			continue
		}
		if _, _, ok := sc.sectionAt(target); !ok {
			continue
		}

		hits[index] = dataHit{
			location: section.Address + uint16(index),
			target:   target,
		}
	}

	for index := 0; index+1 < section.Size(); index++ {
		hit, ok := hits[index]
		if !ok {
			continue
		}

		neighbors := runLength(hits, index, -2) + runLength(hits, index, 2)
		if neighbors > maxRunNeighbors {
			neighbors = maxRunNeighbors
		}

		sc.candidates.Add(pointer.Candidate{
			Location:   hit.location,
			Part:       pointer.Word,
			Target:     hit.target,
			Origin:     pointer.DataScan,
			Confidence: pointer.DataScanConfidence + float64(neighbors)*runBonus,
			Source:     hit.location,
		})
	}

	sc.logger.Debug("Scanned section for pointers",
		log.String("section", section.ID),
		log.Int("hits", len(hits)))
}

// runLength returns the number of consecutive hits found when stepping from
// the index in the given direction.
func runLength(hits map[int]dataHit, index, step int) int {
	var count int
	for i := index + step; ; i += step {
		if _, ok := hits[i]; !ok {
			return count
		}
		count++
	}
}
