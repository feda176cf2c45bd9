// Package patch rewrites the pointers of a relocated program.
package patch

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/retroenv/retroreloc/internal/pointer"
	"github.com/retroenv/retroreloc/internal/relocation"
	"github.com/retroenv/retrogolib/log"
)

var (
	// ErrUnmappedLocation is returned for a candidate that is not located inside a relocated section.
	ErrUnmappedLocation = errors.New("candidate location is not part of a relocated section")
	// ErrDataMismatch is returned for a candidate whose bytes do not encode its target.
	ErrDataMismatch = errors.New("candidate does not match the section data")
)

// Report summarizes the patching of all candidates.
type Report struct {
	Applied    int                 // candidates whose bytes were rewritten
	Unchanged  int                 // candidates whose encoded value did not change
	Unmapped   int                 // candidates whose target is outside all sections
	Overflowed []pointer.Candidate // relative candidates whose new displacement does not fit
}

// Engine patches pointer candidates.
type Engine struct {
	logger *log.Logger
}

// New returns a new patch engine.
func New(logger *log.Logger) *Engine {
	return &Engine{
		logger: logger,
	}
}

// Apply rewrites the bytes of all candidates in the relocated sections of the
// layout. Candidates with a target that is not part of any section, like
// hardware registers, are left untouched.
func (e *Engine) Apply(layout *relocation.Layout, candidates []pointer.Candidate) (Report, error) {
	var report Report

	for _, candidate := range candidates {
		location, ok := layout.Map.Translate(candidate.Location)
		if !ok {
			return report, fmt.Errorf("%w: %s", ErrUnmappedLocation, candidate)
		}
		section, index, ok := layout.SectionAt(location)
		if !ok || index+candidate.Width() > section.Size() {
			return report, fmt.Errorf("%w: %s", ErrUnmappedLocation, candidate)
		}
		data := section.Data[index : index+candidate.Width()]

		if encoded := encode(candidate.Part, candidate.Location, candidate.Target); !bytes.Equal(encoded, data) {
			return report, fmt.Errorf("%w: %s", ErrDataMismatch, candidate)
		}

		target, ok := layout.Map.Translate(candidate.Target)
		if !ok {
			report.Unmapped++
			continue
		}

		if candidate.Part == pointer.Relative && !fitsDisplacement(location, target) {
			e.logger.Warn("Relocated branch destination out of range",
				log.Hex("location", location),
				log.Hex("target", target))
			report.Overflowed = append(report.Overflowed, candidate)
			continue
		}

		encoded := encode(candidate.Part, location, target)
		if bytes.Equal(encoded, data) {
			report.Unchanged++
			continue
		}
		copy(data, encoded)
		report.Applied++

		e.logger.Debug("Pointer patched",
			log.Hex("location", location),
			log.Stringer("part", candidate.Part),
			log.Hex("old_target", candidate.Target),
			log.Hex("new_target", target))
	}

	return report, nil
}

// encode returns the bytes that a candidate at the location stores for the target.
func encode(part pointer.Part, location, target uint16) []byte {
	switch part {
	case pointer.Low:
		return []byte{byte(target)}
	case pointer.High:
		return []byte{byte(target >> 8)}
	case pointer.Relative:
		return []byte{byte(int(target) - (int(location) + 1))}
	default:
		return []byte{byte(target), byte(target >> 8)}
	}
}

// fitsDisplacement returns whether a branch with the operand at the location
// can reach the target.
func fitsDisplacement(location, target uint16) bool {
	displacement := int(target) - (int(location) + 1)
	return displacement >= -128 && displacement <= 127
}
