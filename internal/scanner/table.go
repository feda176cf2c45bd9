package scanner

import (
	"github.com/retroenv/retroreloc/internal/pointer"
	"github.com/retroenv/retroreloc/internal/program"
	"github.com/retroenv/retrogolib/log"
)

// scanKnownTables adds a candidate for every entry of the tables whose
// structure is known. Entries are added unconditionally, an entry that does
// not reference a section is left unchanged by the patch engine.
func (sc *scan) scanKnownTables() {
	for _, table := range sc.prog.Tables {
		for i := range table.Count {
			lo, hi := table.Entry(i)
			if table.Split() {
				sc.addSplitTableEntry(table, uint16(lo), uint16(hi))
				continue
			}

			target, ok := sc.readWord(uint16(lo))
			if !ok {
				continue
			}
			sc.candidates.Add(pointer.Candidate{
				Location:   uint16(lo),
				Part:       pointer.Word,
				Target:     target,
				Origin:     pointer.KnownTable,
				Confidence: pointer.KnownTableConfidence,
				Source:     table.Address,
			})
		}

		sc.logger.Debug("Known table scanned",
			log.String("table", table.Name),
			log.Hex("address", table.Address),
			log.Int("entries", table.Count))
	}
}

func (sc *scan) addSplitTableEntry(table program.TableDescriptor, lo, hi uint16) {
	low, ok := sc.prog.ByteAt(lo)
	if !ok {
		return
	}
	high, ok := sc.prog.ByteAt(hi)
	if !ok {
		return
	}
	target := uint16(high)<<8 | uint16(low)

	sc.candidates.Add(pointer.Candidate{
		Location:   lo,
		Part:       pointer.Low,
		Target:     target,
		Origin:     pointer.KnownTable,
		Confidence: pointer.KnownTableConfidence,
		Source:     table.Address,
	})
	sc.candidates.Add(pointer.Candidate{
		Location:   hi,
		Part:       pointer.High,
		Target:     target,
		Origin:     pointer.KnownTable,
		Confidence: pointer.KnownTableConfidence,
		Source:     table.HiAddress,
	})
}
