package cpu

import (
	"github.com/retroenv/retroreloc/internal/arch/m6502"
	m6502cpu "github.com/retroenv/retrogolib/arch/cpu/m6502"
)

type handler func(c *CPU, ins m6502.Instruction)

// handlers maps instruction names to their implementation.
var handlers = map[string]handler{
	m6502cpu.Adc.Name: func(c *CPU, ins m6502.Instruction) { c.adc(c.load(ins)) },
	m6502cpu.And.Name: func(c *CPU, ins m6502.Instruction) { c.A &= c.load(ins); c.setNZ(c.A) },
	m6502cpu.Asl.Name: (*CPU).asl,
	m6502cpu.Bcc.Name: func(c *CPU, ins m6502.Instruction) { c.branch(ins, !c.flag(FlagC)) },
	m6502cpu.Bcs.Name: func(c *CPU, ins m6502.Instruction) { c.branch(ins, c.flag(FlagC)) },
	m6502cpu.Beq.Name: func(c *CPU, ins m6502.Instruction) { c.branch(ins, c.flag(FlagZ)) },
	m6502cpu.Bit.Name: (*CPU).bit,
	m6502cpu.Bmi.Name: func(c *CPU, ins m6502.Instruction) { c.branch(ins, c.flag(FlagN)) },
	m6502cpu.Bne.Name: func(c *CPU, ins m6502.Instruction) { c.branch(ins, !c.flag(FlagZ)) },
	m6502cpu.Bpl.Name: func(c *CPU, ins m6502.Instruction) { c.branch(ins, !c.flag(FlagN)) },
	m6502cpu.Brk.Name: (*CPU).brk,
	m6502cpu.Bvc.Name: func(c *CPU, ins m6502.Instruction) { c.branch(ins, !c.flag(FlagV)) },
	m6502cpu.Bvs.Name: func(c *CPU, ins m6502.Instruction) { c.branch(ins, c.flag(FlagV)) },
	m6502cpu.Clc.Name: func(c *CPU, _ m6502.Instruction) { c.setFlag(FlagC, false) },
	m6502cpu.Cld.Name: func(c *CPU, _ m6502.Instruction) { c.setFlag(FlagD, false) },
	m6502cpu.Cli.Name: func(c *CPU, _ m6502.Instruction) { c.setFlag(FlagI, false) },
	m6502cpu.Clv.Name: func(c *CPU, _ m6502.Instruction) { c.setFlag(FlagV, false) },
	m6502cpu.Cmp.Name: func(c *CPU, ins m6502.Instruction) { c.compare(c.A, c.load(ins)) },
	m6502cpu.Cpx.Name: func(c *CPU, ins m6502.Instruction) { c.compare(c.X, c.load(ins)) },
	m6502cpu.Cpy.Name: func(c *CPU, ins m6502.Instruction) { c.compare(c.Y, c.load(ins)) },
	m6502cpu.Dec.Name: func(c *CPU, ins m6502.Instruction) { c.modify(ins, func(v byte) byte { return v - 1 }) },
	m6502cpu.Dex.Name: func(c *CPU, _ m6502.Instruction) { c.X--; c.setNZ(c.X) },
	m6502cpu.Dey.Name: func(c *CPU, _ m6502.Instruction) { c.Y--; c.setNZ(c.Y) },
	m6502cpu.Eor.Name: func(c *CPU, ins m6502.Instruction) { c.A ^= c.load(ins); c.setNZ(c.A) },
	m6502cpu.Inc.Name: func(c *CPU, ins m6502.Instruction) { c.modify(ins, func(v byte) byte { return v + 1 }) },
	m6502cpu.Inx.Name: func(c *CPU, _ m6502.Instruction) { c.X++; c.setNZ(c.X) },
	m6502cpu.Iny.Name: func(c *CPU, _ m6502.Instruction) { c.Y++; c.setNZ(c.Y) },
	m6502cpu.Jmp.Name: (*CPU).jmp,
	m6502cpu.Jsr.Name: (*CPU).jsr,
	m6502cpu.Lda.Name: func(c *CPU, ins m6502.Instruction) { c.A = c.load(ins); c.setNZ(c.A) },
	m6502cpu.Ldx.Name: func(c *CPU, ins m6502.Instruction) { c.X = c.load(ins); c.setNZ(c.X) },
	m6502cpu.Ldy.Name: func(c *CPU, ins m6502.Instruction) { c.Y = c.load(ins); c.setNZ(c.Y) },
	m6502cpu.Lsr.Name: (*CPU).lsr,
	m6502cpu.Nop.Name: func(*CPU, m6502.Instruction) {},
	m6502cpu.Ora.Name: func(c *CPU, ins m6502.Instruction) { c.A |= c.load(ins); c.setNZ(c.A) },
	m6502cpu.Pha.Name: func(c *CPU, _ m6502.Instruction) { c.push(c.A) },
	m6502cpu.Php.Name: func(c *CPU, _ m6502.Instruction) { c.push(c.P | FlagB | FlagU) },
	m6502cpu.Pla.Name: func(c *CPU, _ m6502.Instruction) { c.A = c.pop(); c.setNZ(c.A) },
	m6502cpu.Plp.Name: func(c *CPU, _ m6502.Instruction) { c.P = c.pop()&^FlagB | FlagU },
	m6502cpu.Rol.Name: (*CPU).rol,
	m6502cpu.Ror.Name: (*CPU).ror,
	m6502cpu.Rti.Name: (*CPU).rti,
	m6502cpu.Rts.Name: func(c *CPU, _ m6502.Instruction) { c.PC = c.popWord() + 1 },
	m6502cpu.Sbc.Name: func(c *CPU, ins m6502.Instruction) { c.sbc(c.load(ins)) },
	m6502cpu.Sec.Name: func(c *CPU, _ m6502.Instruction) { c.setFlag(FlagC, true) },
	m6502cpu.Sed.Name: func(c *CPU, _ m6502.Instruction) { c.setFlag(FlagD, true) },
	m6502cpu.Sei.Name: func(c *CPU, _ m6502.Instruction) { c.setFlag(FlagI, true) },
	m6502cpu.Sta.Name: func(c *CPU, ins m6502.Instruction) { c.store(ins, c.A) },
	m6502cpu.Stx.Name: func(c *CPU, ins m6502.Instruction) { c.store(ins, c.X) },
	m6502cpu.Sty.Name: func(c *CPU, ins m6502.Instruction) { c.store(ins, c.Y) },
	m6502cpu.Tax.Name: func(c *CPU, _ m6502.Instruction) { c.X = c.A; c.setNZ(c.X) },
	m6502cpu.Tay.Name: func(c *CPU, _ m6502.Instruction) { c.Y = c.A; c.setNZ(c.Y) },
	m6502cpu.Tsx.Name: func(c *CPU, _ m6502.Instruction) { c.X = c.SP; c.setNZ(c.X) },
	m6502cpu.Txa.Name: func(c *CPU, _ m6502.Instruction) { c.A = c.X; c.setNZ(c.A) },
	m6502cpu.Txs.Name: func(c *CPU, _ m6502.Instruction) { c.SP = c.X },
	m6502cpu.Tya.Name: func(c *CPU, _ m6502.Instruction) { c.A = c.Y; c.setNZ(c.A) },
}

// effectiveAddress returns the memory address that the operand references
// and whether indexing crossed a page boundary.
func (c *CPU) effectiveAddress(ins m6502.Instruction) (uint16, bool) {
	switch ins.Addressing {
	case m6502cpu.ZeroPageAddressing:
		return ins.Value, false
	case m6502cpu.ZeroPageXAddressing:
		return uint16(byte(ins.Value) + c.X), false
	case m6502cpu.ZeroPageYAddressing:
		return uint16(byte(ins.Value) + c.Y), false
	case m6502cpu.AbsoluteXAddressing:
		address := ins.Value + uint16(c.X)
		return address, address&0xFF00 != ins.Value&0xFF00
	case m6502cpu.AbsoluteYAddressing:
		address := ins.Value + uint16(c.Y)
		return address, address&0xFF00 != ins.Value&0xFF00
	case m6502cpu.IndirectXAddressing:
		return c.readWordZeroPage(byte(ins.Value) + c.X), false
	case m6502cpu.IndirectYAddressing:
		base := c.readWordZeroPage(byte(ins.Value))
		address := base + uint16(c.Y)
		return address, address&0xFF00 != base&0xFF00
	case m6502cpu.IndirectAddressing:
		// the high byte is read without carry into the high byte of the pointer
		lo := c.memory[ins.Value]
		hi := c.memory[ins.Value&0xFF00|uint16(byte(ins.Value+1))]
		return uint16(hi)<<8 | uint16(lo), false
	default:
		return ins.Value, false
	}
}

// load returns the operand value of a reading instruction.
func (c *CPU) load(ins m6502.Instruction) byte {
	switch ins.Addressing {
	case m6502cpu.ImmediateAddressing:
		return byte(ins.Value)
	case m6502cpu.AccumulatorAddressing:
		return c.A
	}

	address, pageCrossed := c.effectiveAddress(ins)
	if pageCrossed && ins.PageCrossCycle() {
		c.Cycles++
	}
	return c.Read(address)
}

func (c *CPU) store(ins m6502.Instruction, value byte) {
	address, _ := c.effectiveAddress(ins)
	c.Write(address, value)
}

// modify runs a read-modify-write operation on the accumulator or memory
// and sets the N and Z flags from the result.
func (c *CPU) modify(ins m6502.Instruction, operation func(byte) byte) {
	if ins.Addressing == m6502cpu.AccumulatorAddressing {
		c.A = operation(c.A)
		c.setNZ(c.A)
		return
	}

	address, _ := c.effectiveAddress(ins)
	value := operation(c.Read(address))
	c.Write(address, value)
	c.setNZ(value)
}

func (c *CPU) asl(ins m6502.Instruction) {
	c.modify(ins, func(v byte) byte {
		c.setFlag(FlagC, v&0x80 != 0)
		return v << 1
	})
}

func (c *CPU) lsr(ins m6502.Instruction) {
	c.modify(ins, func(v byte) byte {
		c.setFlag(FlagC, v&0x01 != 0)
		return v >> 1
	})
}

func (c *CPU) rol(ins m6502.Instruction) {
	c.modify(ins, func(v byte) byte {
		var carry byte
		if c.flag(FlagC) {
			carry = 0x01
		}
		c.setFlag(FlagC, v&0x80 != 0)
		return v<<1 | carry
	})
}

func (c *CPU) ror(ins m6502.Instruction) {
	c.modify(ins, func(v byte) byte {
		var carry byte
		if c.flag(FlagC) {
			carry = 0x80
		}
		c.setFlag(FlagC, v&0x01 != 0)
		return v>>1 | carry
	})
}

func (c *CPU) bit(ins m6502.Instruction) {
	value := c.load(ins)
	c.setFlag(FlagZ, c.A&value == 0)
	c.setFlag(FlagN, value&0x80 != 0)
	c.setFlag(FlagV, value&0x40 != 0)
}

func (c *CPU) compare(register, value byte) {
	c.setFlag(FlagC, register >= value)
	c.setNZ(register - value)
}

// adc adds with carry. In decimal mode the NMOS behavior is emulated: the
// N and V flags are taken from the intermediate result before the high
// nibble adjustment and the Z flag from the binary sum.
func (c *CPU) adc(value byte) {
	var carry int
	if c.flag(FlagC) {
		carry = 1
	}
	binary := int(c.A) + int(value) + carry

	if !c.flag(FlagD) {
		result := byte(binary)
		c.setFlag(FlagC, binary > 0xFF)
		c.setFlag(FlagV, (c.A^result)&(value^result)&0x80 != 0)
		c.A = result
		c.setNZ(c.A)
		return
	}

	lo := int(c.A&0x0F) + int(value&0x0F) + carry
	if lo >= 0x0A {
		lo = ((lo + 0x06) & 0x0F) + 0x10
	}
	sum := int(c.A&0xF0) + int(value&0xF0) + lo
	c.setFlag(FlagZ, byte(binary) == 0)
	c.setFlag(FlagN, sum&0x80 != 0)
	c.setFlag(FlagV, (c.A^byte(sum))&(value^byte(sum))&0x80 != 0)
	if sum >= 0xA0 {
		sum += 0x60
	}
	c.setFlag(FlagC, sum >= 0x100)
	c.A = byte(sum)
}

// sbc subtracts with borrow. In decimal mode all flags are taken from the
// binary subtraction like on the NMOS 6502.
func (c *CPU) sbc(value byte) {
	var borrow int
	if !c.flag(FlagC) {
		borrow = 1
	}
	binary := int(c.A) - int(value) - borrow
	result := byte(binary)

	c.setFlag(FlagC, binary >= 0)
	c.setFlag(FlagV, (c.A^value)&(c.A^result)&0x80 != 0)
	c.setNZ(result)

	if !c.flag(FlagD) {
		c.A = result
		return
	}

	lo := int(c.A&0x0F) - int(value&0x0F) - borrow
	if lo < 0 {
		lo = ((lo - 0x06) & 0x0F) - 0x10
	}
	diff := int(c.A&0xF0) - int(value&0xF0) + lo
	if diff < 0 {
		diff -= 0x60
	}
	c.A = byte(diff)
}

func (c *CPU) branch(ins m6502.Instruction, condition bool) {
	if !condition {
		return
	}
	c.Cycles++
	if ins.Value&0xFF00 != c.PC&0xFF00 {
		c.Cycles++
	}
	c.PC = ins.Value
}

func (c *CPU) jmp(ins m6502.Instruction) {
	address, _ := c.effectiveAddress(ins)
	c.PC = address
}

func (c *CPU) jsr(ins m6502.Instruction) {
	c.pushWord(c.PC - 1)
	c.PC = ins.Value
}

func (c *CPU) rti(m6502.Instruction) {
	c.P = c.pop()&^FlagB | FlagU
	c.PC = c.popWord()
}

func (c *CPU) brk(m6502.Instruction) {
	c.pushWord(c.PC + 1)
	c.push(c.P | FlagB | FlagU)
	c.setFlag(FlagI, true)
	c.PC = c.readWord(irqVector)
}
