package verification

import (
	"fmt"

	"github.com/retroenv/retroreloc/internal/cpu"
	"github.com/retroenv/retrogolib/log"
)

const maxLoggedMismatches = 10

// CompareTraces compares the register writes of two validation runs. The
// cycle of a write is ignored as relocation can change page crossings.
func CompareTraces(logger *log.Logger, expected, got []cpu.RegisterWrite) error {
	var diffs int
	for i := range min(len(expected), len(got)) {
		e, g := expected[i], got[i]
		if e.Frame == g.Frame && e.Offset == g.Offset && e.Value == g.Value {
			continue
		}

		diffs++
		if diffs < maxLoggedMismatches {
			logger.Warn("Register write mismatch",
				log.Int("index", i),
				log.Stringer("expected", e),
				log.Stringer("got", g))
		}
	}

	if len(expected) != len(got) {
		return fmt.Errorf("mismatched trace lengths, %d != %d, %d write mismatches", len(expected), len(got), diffs)
	}
	if diffs == 0 {
		return nil
	}
	return fmt.Errorf("%d write mismatches", diffs)
}

// CompareImages compares the bytes of two images.
func CompareImages(logger *log.Logger, expected, got []byte) error {
	if len(expected) != len(got) {
		return fmt.Errorf("mismatched lengths, %d != %d", len(expected), len(got))
	}

	var diffs uint64
	for i := range expected {
		if expected[i] == got[i] {
			continue
		}

		diffs++
		if diffs < maxLoggedMismatches {
			logger.Warn("Offset mismatch",
				log.Hex("offset", i),
				log.Hex("expected", expected[i]),
				log.Hex("got", got[i]))
		}
	}
	if diffs == 0 {
		return nil
	}
	return fmt.Errorf("%d offset mismatches", diffs)
}
