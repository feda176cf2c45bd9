package m6502

import (
	"fmt"

	"github.com/retroenv/retrogolib/arch/cpu/m6502"
)

// Instruction represents a decoded 6502 CPU instruction.
type Instruction struct {
	Address    uint16
	Opcode     byte
	Name       string
	Addressing m6502.AddressingMode
	Operand    []byte // operand bytes following the opcode
	Value      uint16 // operand value, resolved destination for relative branches
	Size       int

	Opaque     bool // no instruction could be decoded, treated as a single data byte
	Truncated  bool // operand would extend past the available data
	Unofficial bool

	op m6502.Opcode
}

// IsCall returns true if the instruction is a subroutine call.
func (i Instruction) IsCall() bool {
	return !i.Opaque && i.Name == m6502.Jsr.Name
}

// IsJump returns true if the instruction is an unconditional jump.
func (i Instruction) IsJump() bool {
	return !i.Opaque && i.Name == m6502.Jmp.Name
}

// IsBranch returns true if the instruction is a conditional relative branch.
func (i Instruction) IsBranch() bool {
	return !i.Opaque && i.Addressing == m6502.RelativeAddressing
}

// StopsFlow returns true if execution does not continue with the following instruction.
func (i Instruction) StopsFlow() bool {
	if i.Opaque {
		return true
	}
	_, ok := m6502.NotExecutingFollowingOpcodeInstructions[i.Name]
	return ok
}

// HasAbsoluteOperand returns true if the operand is a full 16 bit address.
func (i Instruction) HasAbsoluteOperand() bool {
	if i.Opaque {
		return false
	}
	switch i.Addressing {
	case m6502.AbsoluteAddressing, m6502.AbsoluteXAddressing, m6502.AbsoluteYAddressing,
		m6502.IndirectAddressing:
		return true
	default:
		return false
	}
}

// IsZeroPage returns true if the operand references a zero page address.
func (i Instruction) IsZeroPage() bool {
	if i.Opaque {
		return false
	}
	switch i.Addressing {
	case m6502.ZeroPageAddressing, m6502.ZeroPageXAddressing, m6502.ZeroPageYAddressing,
		m6502.IndirectXAddressing, m6502.IndirectYAddressing:
		return true
	default:
		return false
	}
}

// IsIndirect returns true if the operand is the address of a pointer.
func (i Instruction) IsIndirect() bool {
	switch i.Addressing {
	case m6502.IndirectAddressing, m6502.IndirectXAddressing, m6502.IndirectYAddressing:
		return !i.Opaque
	default:
		return false
	}
}

// IsImmediate returns true if the operand is an immediate value.
func (i Instruction) IsImmediate() bool {
	return !i.Opaque && i.Addressing == m6502.ImmediateAddressing
}

// IsIndexed returns if the instruction is using indexed addressing.
func (i Instruction) IsIndexed() bool {
	switch i.Addressing {
	case m6502.ZeroPageXAddressing, m6502.ZeroPageYAddressing,
		m6502.AbsoluteXAddressing, m6502.AbsoluteYAddressing,
		m6502.IndirectXAddressing, m6502.IndirectYAddressing:
		return !i.Opaque
	default:
		return false
	}
}

// ReadsMemory returns true if the instruction reads from its operand address.
func (i Instruction) ReadsMemory() bool {
	if i.Opaque {
		return false
	}
	return i.op.ReadsMemory(m6502.MemoryReadInstructions) || i.ReadWritesMemory()
}

// WritesMemory returns true if the instruction writes to its operand address.
func (i Instruction) WritesMemory() bool {
	if i.Opaque {
		return false
	}
	return i.op.WritesMemory(m6502.MemoryWriteInstructions) || i.ReadWritesMemory()
}

// ReadWritesMemory returns true if the instruction modifies memory at its operand address.
func (i Instruction) ReadWritesMemory() bool {
	if i.Opaque {
		return false
	}
	return i.op.ReadWritesMemory(m6502.MemoryReadWriteInstructions)
}

// Timing returns the base cycle count of the instruction.
func (i Instruction) Timing() byte {
	return i.op.Timing
}

// PageCrossCycle returns whether an indexed operand that crosses a page
// boundary takes an additional cycle.
func (i Instruction) PageCrossCycle() bool {
	return i.op.PageCrossCycle
}

// Next returns the address of the following instruction.
func (i Instruction) Next() uint16 {
	return i.Address + uint16(i.Size)
}

// Bytes returns the encoded instruction.
func (i Instruction) Bytes() []byte {
	if i.Opaque {
		return []byte{i.Opcode}
	}
	return append([]byte{i.Opcode}, i.Operand...)
}

// String returns the instruction in assembler notation.
func (i Instruction) String() string {
	if i.Opaque {
		return fmt.Sprintf(".byte $%02X", i.Opcode)
	}

	switch i.Addressing {
	case m6502.ImpliedAddressing:
		return i.Name
	case m6502.AccumulatorAddressing:
		return i.Name + " a"
	case m6502.ImmediateAddressing:
		return fmt.Sprintf("%s #$%02X", i.Name, i.Value)
	case m6502.ZeroPageAddressing:
		return fmt.Sprintf("%s $%02X", i.Name, i.Value)
	case m6502.ZeroPageXAddressing:
		return fmt.Sprintf("%s $%02X,x", i.Name, i.Value)
	case m6502.ZeroPageYAddressing:
		return fmt.Sprintf("%s $%02X,y", i.Name, i.Value)
	case m6502.IndirectXAddressing:
		return fmt.Sprintf("%s ($%02X,x)", i.Name, i.Value)
	case m6502.IndirectYAddressing:
		return fmt.Sprintf("%s ($%02X),y", i.Name, i.Value)
	case m6502.AbsoluteXAddressing:
		return fmt.Sprintf("%s $%04X,x", i.Name, i.Value)
	case m6502.AbsoluteYAddressing:
		return fmt.Sprintf("%s $%04X,y", i.Name, i.Value)
	case m6502.IndirectAddressing:
		return fmt.Sprintf("%s ($%04X)", i.Name, i.Value)
	default: // absolute and relative
		return fmt.Sprintf("%s $%04X", i.Name, i.Value)
	}
}
