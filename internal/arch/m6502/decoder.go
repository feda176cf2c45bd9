// Package m6502 provides the 6502 instruction decoder used by the scanner and the emulator.
package m6502

import (
	"github.com/retroenv/retrogolib/arch/cpu/m6502"
)

// operandReader returns the operand value of an instruction. For relative
// addressing the value is the resolved branch destination.
type operandReader struct {
	size int
	read func(operand []byte, address uint16) uint16
}

var operandReaders = map[m6502.AddressingMode]operandReader{
	m6502.ImpliedAddressing:     {0, readNone},
	m6502.AccumulatorAddressing: {0, readNone},
	m6502.ImmediateAddressing:   {1, readByte},
	m6502.ZeroPageAddressing:    {1, readByte},
	m6502.ZeroPageXAddressing:   {1, readByte},
	m6502.ZeroPageYAddressing:   {1, readByte},
	m6502.IndirectXAddressing:   {1, readByte},
	m6502.IndirectYAddressing:   {1, readByte},
	m6502.RelativeAddressing:    {1, readRelative},
	m6502.AbsoluteAddressing:    {2, readWord},
	m6502.AbsoluteXAddressing:   {2, readWord},
	m6502.AbsoluteYAddressing:   {2, readWord},
	m6502.IndirectAddressing:    {2, readWord},
}

func readNone([]byte, uint16) uint16 {
	return 0
}

func readByte(operand []byte, _ uint16) uint16 {
	return uint16(operand[0])
}

func readWord(operand []byte, _ uint16) uint16 {
	return uint16(operand[1])<<8 | uint16(operand[0])
}

// readRelative resolves the signed branch offset relative to the address
// following the 2 byte branch instruction, wrapping around the address space.
func readRelative(operand []byte, address uint16) uint16 {
	return address + 2 + uint16(int8(operand[0]))
}

// Decode decodes the instruction starting at data[offset] that is located at
// the given address. Decoding never fails: opcodes without a known
// instruction and instructions that are cut off by the end of data are
// returned as opaque single bytes.
func Decode(data []byte, offset int, address uint16) Instruction {
	if offset < 0 || offset >= len(data) {
		return Instruction{Address: address, Size: 1, Opaque: true}
	}

	b := data[offset]
	ins := Instruction{
		Address: address,
		Opcode:  b,
		Size:    1,
	}

	op := m6502.Opcodes[b]
	if op.Instruction == nil {
		ins.Opaque = true
		return ins
	}
	reader, ok := operandReaders[op.Addressing]
	if !ok {
		ins.Opaque = true
		return ins
	}
	if offset+1+reader.size > len(data) {
		ins.Opaque = true
		ins.Truncated = true
		return ins
	}

	ins.op = op
	ins.Name = op.Instruction.Name
	ins.Addressing = op.Addressing
	ins.Unofficial = op.Instruction.Unofficial
	ins.Size = 1 + reader.size
	ins.Operand = data[offset+1 : offset+1+reader.size : offset+1+reader.size]
	ins.Value = reader.read(ins.Operand, address)
	return ins
}

// DecodeBytes decodes an instruction from a buffer that starts with its opcode.
func DecodeBytes(data []byte, address uint16) Instruction {
	return Decode(data, 0, address)
}

// Disassemble decodes all instructions of data linearly, starting at the
// given address. Opaque bytes are returned as single byte instructions.
func Disassemble(data []byte, address uint16) []Instruction {
	var result []Instruction
	for offset := 0; offset < len(data); {
		ins := Decode(data, offset, address+uint16(offset))
		result = append(result, ins)
		offset += ins.Size
	}
	return result
}
