package m6502

import (
	"github.com/retroenv/retrogolib/arch/cpu/m6502"
)

// Register identifies a CPU register.
type Register uint8

// CPU registers that are loaded and stored by instructions.
const (
	NoRegister Register = iota
	RegisterA
	RegisterX
	RegisterY
)

var loadInstructions = map[string]Register{
	m6502.Lda.Name: RegisterA,
	m6502.Ldx.Name: RegisterX,
	m6502.Ldy.Name: RegisterY,
}

var storeInstructions = map[string]Register{
	m6502.Sta.Name: RegisterA,
	m6502.Stx.Name: RegisterX,
	m6502.Sty.Name: RegisterY,
}

// registerPreservingInstructions do not change the A, X and Y registers.
var registerPreservingInstructions = map[string]struct{}{
	m6502.Bit.Name: {},
	m6502.Clc.Name: {},
	m6502.Cld.Name: {},
	m6502.Cli.Name: {},
	m6502.Clv.Name: {},
	m6502.Cmp.Name: {},
	m6502.Cpx.Name: {},
	m6502.Cpy.Name: {},
	m6502.Nop.Name: {},
	m6502.Pha.Name: {},
	m6502.Php.Name: {},
	m6502.Sec.Name: {},
	m6502.Sed.Name: {},
	m6502.Sei.Name: {},
}

// LoadsRegister returns the register that is loaded by the instruction.
func (i Instruction) LoadsRegister() (Register, bool) {
	if i.Opaque || i.Unofficial {
		return NoRegister, false
	}
	reg, ok := loadInstructions[i.Name]
	return reg, ok
}

// StoresRegister returns the register that is stored by the instruction.
func (i Instruction) StoresRegister() (Register, bool) {
	if i.Opaque || i.Unofficial {
		return NoRegister, false
	}
	reg, ok := storeInstructions[i.Name]
	return reg, ok
}

// PreservesRegisters returns whether the instruction leaves the A, X and Y registers unchanged.
func (i Instruction) PreservesRegisters() bool {
	if i.Opaque {
		return false
	}
	if _, ok := storeInstructions[i.Name]; ok && !i.Unofficial {
		return true
	}
	if i.IsBranch() {
		return true
	}
	_, ok := registerPreservingInstructions[i.Name]
	return ok
}
