package program

// OffsetType defines how a single address of a program was classified while scanning.
type OffsetType uint8

// offset classifications.
const (
	UnknownOffset OffsetType = 0
	CodeOffset    OffsetType = 1 << iota // first byte of a traced instruction
	OperandOffset                        // operand byte of a traced instruction
	PointerOffset                        // byte belongs to an accepted pointer candidate
	CallDestination                      // destination of a jsr call, indicating a subroutine
)

// IsType returns whether the offset is of given type.
func (o OffsetType) IsType(typ OffsetType) bool {
	return o&typ != 0
}

// SetType sets the type of the offset.
func (o *OffsetType) SetType(typ OffsetType) {
	*o |= typ
}

// ClearType unsets the type of the offset.
func (o *OffsetType) ClearType(typ OffsetType) {
	*o &^= typ
}

// IsTraced returns whether the offset is part of a traced instruction.
func (o OffsetType) IsTraced() bool {
	return o.IsType(CodeOffset | OperandOffset)
}
