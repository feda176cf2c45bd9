package m6502

import (
	"testing"

	"github.com/retroenv/retrogolib/arch/cpu/m6502"
	"github.com/retroenv/retrogolib/assert"
)

//nolint:funlen // test functions can be long
func TestDecode(t *testing.T) {
	tests := []struct {
		name       string
		data       []byte
		address    uint16
		addressing m6502.AddressingMode
		size       int
		value      uint16
		text       string
	}{
		{"implied", []byte{0x60}, 0x1000, m6502.ImpliedAddressing, 1, 0, "rts"},
		{"accumulator", []byte{0x0A}, 0x1000, m6502.AccumulatorAddressing, 1, 0, "asl a"},
		{"immediate", []byte{0xA9, 0x0F}, 0x1000, m6502.ImmediateAddressing, 2, 0x0F, "lda #$0F"},
		{"zero page", []byte{0x85, 0xFB}, 0x1000, m6502.ZeroPageAddressing, 2, 0xFB, "sta $FB"},
		{"zero page x", []byte{0xB5, 0x10}, 0x1000, m6502.ZeroPageXAddressing, 2, 0x10, "lda $10,x"},
		{"zero page y", []byte{0xB6, 0x10}, 0x1000, m6502.ZeroPageYAddressing, 2, 0x10, "ldx $10,y"},
		{"absolute", []byte{0x8D, 0x18, 0xD4}, 0x1000, m6502.AbsoluteAddressing, 3, 0xD418, "sta $D418"},
		{"absolute x", []byte{0xBD, 0x00, 0x19}, 0x1000, m6502.AbsoluteXAddressing, 3, 0x1900, "lda $1900,x"},
		{"absolute y", []byte{0xB9, 0x01, 0x19}, 0x1000, m6502.AbsoluteYAddressing, 3, 0x1901, "lda $1901,y"},
		{"indexed indirect", []byte{0xA1, 0x20}, 0x1000, m6502.IndirectXAddressing, 2, 0x20, "lda ($20,x)"},
		{"indirect indexed", []byte{0xB1, 0xFB}, 0x1000, m6502.IndirectYAddressing, 2, 0xFB, "lda ($FB),y"},
		{"indirect", []byte{0x6C, 0x34, 0x12}, 0x1000, m6502.IndirectAddressing, 3, 0x1234, "jmp ($1234)"},
		{"relative forward", []byte{0xD0, 0x02}, 0x1000, m6502.RelativeAddressing, 2, 0x1004, "bne $1004"},
		{"relative backward", []byte{0xD0, 0xFE}, 0x1000, m6502.RelativeAddressing, 2, 0x1000, "bne $1000"},
		{"relative wraps at end", []byte{0xF0, 0x10}, 0xFFF8, m6502.RelativeAddressing, 2, 0x000A, "beq $000A"},
		{"relative wraps at start", []byte{0xF0, 0x80}, 0x0010, m6502.RelativeAddressing, 2, 0xFF92, "beq $FF92"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ins := Decode(tt.data, 0, tt.address)

			assert.False(t, ins.Opaque)
			assert.Equal(t, tt.addressing, ins.Addressing)
			assert.Equal(t, tt.size, ins.Size)
			assert.Equal(t, tt.value, ins.Value)
			assert.Equal(t, tt.text, ins.String())
			assert.Equal(t, tt.data, ins.Bytes())
		})
	}
}

func TestDecodeOpaque(t *testing.T) {
	t.Run("operand past end of data", func(t *testing.T) {
		ins := Decode([]byte{0xEA, 0x8D, 0x18}, 1, 0x1001)
		assert.True(t, ins.Opaque)
		assert.True(t, ins.Truncated)
		assert.Equal(t, 1, ins.Size)
		assert.Equal(t, ".byte $8D", ins.String())
		assert.True(t, ins.StopsFlow())
	})

	t.Run("offset outside data", func(t *testing.T) {
		ins := Decode([]byte{0xEA}, 5, 0x1000)
		assert.True(t, ins.Opaque)
		assert.Equal(t, 1, ins.Size)
	})

	t.Run("every byte decodes without panic", func(t *testing.T) {
		for b := range 0x100 {
			ins := Decode([]byte{byte(b), 0x00, 0x10}, 0, 0x2000)
			assert.True(t, ins.Size >= 1 && ins.Size <= 3)
			if ins.Opaque {
				assert.Equal(t, 1, ins.Size)
				assert.Equal(t, "", ins.Name)
			}
		}
	})
}

func TestInstructionClassification(t *testing.T) {
	jsr := Decode([]byte{0x20, 0x00, 0x20}, 0, 0x1000)
	assert.True(t, jsr.IsCall())
	assert.False(t, jsr.IsJump())
	assert.False(t, jsr.StopsFlow())
	assert.True(t, jsr.HasAbsoluteOperand())
	assert.Equal(t, uint16(0x1003), jsr.Next())

	jmp := Decode([]byte{0x4C, 0x00, 0x20}, 0, 0x1000)
	assert.True(t, jmp.IsJump())
	assert.True(t, jmp.StopsFlow())

	rts := Decode([]byte{0x60}, 0, 0x1000)
	assert.True(t, rts.StopsFlow())
	assert.False(t, rts.HasAbsoluteOperand())

	sta := Decode([]byte{0x91, 0xFB}, 0, 0x1000)
	assert.True(t, sta.IsZeroPage())
	assert.True(t, sta.IsIndexed())
	assert.True(t, sta.WritesMemory())
	assert.False(t, sta.ReadsMemory())

	lda := Decode([]byte{0xAD, 0x1B, 0xD4}, 0, 0x1000)
	assert.True(t, lda.ReadsMemory())
	assert.False(t, lda.WritesMemory())

	inc := Decode([]byte{0xEE, 0x00, 0x19}, 0, 0x1000)
	assert.True(t, inc.ReadWritesMemory())
	assert.True(t, inc.ReadsMemory())
	assert.True(t, inc.WritesMemory())

	bne := Decode([]byte{0xD0, 0x00}, 0, 0x1000)
	assert.True(t, bne.IsBranch())
	assert.False(t, bne.HasAbsoluteOperand())
}

func TestDisassemble(t *testing.T) {
	data := []byte{
		0xA9, 0x0F, // lda #$0F
		0x8D, 0x18, 0xD4, // sta $D418
		0x60, // rts
		0x8D, // cut off instruction
	}

	instructions := Disassemble(data, 0x1000)
	assert.Len(t, instructions, 4)
	assert.Equal(t, "lda #$0F", instructions[0].String())
	assert.Equal(t, uint16(0x1002), instructions[1].Address)
	assert.Equal(t, "rts", instructions[2].String())
	assert.True(t, instructions[3].Opaque)
}

func TestIsComplementaryBranchPair(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected bool
	}{
		{"BNE followed by BEQ", []byte{0xD0, 0x02, 0xF0, 0x00}, true},
		{"BCC followed by BCS", []byte{0x90, 0x02, 0xB0, 0x00}, true},
		{"BVS followed by BVC", []byte{0x70, 0x02, 0x50, 0x00}, true},
		{"BNE followed by BNE", []byte{0xD0, 0x02, 0xD0, 0x00}, false},
		{"BNE followed by BCC", []byte{0xD0, 0x02, 0x90, 0x00}, false},
		{"LDA followed by BEQ", []byte{0xA9, 0x02, 0xF0, 0x00}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := Decode(tt.data, 0, 0x1000)
			second := Decode(tt.data, 2, 0x1002)
			assert.Equal(t, tt.expected, IsComplementaryBranchPair(first, second))
		})
	}

	t.Run("not adjacent", func(t *testing.T) {
		first := Decode([]byte{0xD0, 0x02}, 0, 0x1000)
		second := Decode([]byte{0xF0, 0x02}, 0, 0x1010)
		assert.False(t, IsComplementaryBranchPair(first, second))
	})
}

func TestC64RegistersConstants(t *testing.T) {
	constants, err := C64Registers{}.Constants()
	assert.NoError(t, err)

	sigvol, ok := constants[0xD418]
	assert.True(t, ok)
	assert.Equal(t, "SIGVOL", sigvol.Write)
	assert.Equal(t, "", sigvol.Read)

	raster := constants[0xD012]
	assert.Equal(t, "RASTER", raster.Read)
	assert.Equal(t, "RASTER", raster.Write)
	assert.Equal(t, len(SIDAddressToName)+len(VICAddressToName)+len(CIAAddressToName)+len(SystemAddressToName),
		len(constants))
}
