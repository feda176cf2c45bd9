// Package pointer defines the pointer candidates found by the scanner and the
// deterministic resolution of candidates that compete for the same bytes.
package pointer

import (
	"fmt"
)

// Origin defines which scan pass found a candidate.
type Origin uint8

// candidate origins, ordered by priority.
const (
	UnknownOrigin Origin = iota
	DataScan
	CodeOperand
	KnownTable
)

func (o Origin) String() string {
	switch o {
	case DataScan:
		return "data-scan"
	case CodeOperand:
		return "code-operand"
	case KnownTable:
		return "known-table"
	default:
		return fmt.Sprintf("origin(%d)", uint8(o))
	}
}

// Part defines which part of the target address is stored at the location.
type Part uint8

// candidate parts.
const (
	Word     Part = iota // little endian 16 bit address
	Low                  // low byte of the address
	High                 // high byte of the address
	Relative             // signed branch displacement
)

func (p Part) String() string {
	switch p {
	case Word:
		return "word"
	case Low:
		return "low"
	case High:
		return "high"
	case Relative:
		return "relative"
	default:
		return fmt.Sprintf("part(%d)", uint8(p))
	}
}

// Width returns the number of bytes the part occupies.
func (p Part) Width() int {
	if p == Word {
		return 2
	}
	return 1
}

// confidence values of the scan passes.
const (
	KnownTableConfidence    = 1.0
	CodeOperandConfidence   = 0.9
	ImmediatePairConfidence = 0.6
	DataScanConfidence      = 0.3
)

// Candidate is a byte location that is suspected to encode a memory address.
type Candidate struct {
	Location   uint16 // address of the first byte
	Part       Part
	Target     uint16 // full address that is referenced
	Origin     Origin
	Confidence float64
	Source     uint16 // address of the instruction or table entry that produced the candidate
}

// Width returns the number of bytes of the candidate.
func (c Candidate) Width() int {
	return c.Part.Width()
}

// End returns the first address after the candidate.
func (c Candidate) End() int {
	return int(c.Location) + c.Width()
}

// Overlaps returns whether both candidates share at least one byte.
func (c Candidate) Overlaps(other Candidate) bool {
	return int(c.Location) < other.End() && int(other.Location) < c.End()
}

// Equivalent returns whether both candidates would patch the same bytes the same way.
func (c Candidate) Equivalent(other Candidate) bool {
	return c.Location == other.Location && c.Part == other.Part && c.Target == other.Target
}

func (c Candidate) String() string {
	return fmt.Sprintf("$%04X %s -> $%04X (%s %.2f)", c.Location, c.Part, c.Target, c.Origin, c.Confidence)
}
