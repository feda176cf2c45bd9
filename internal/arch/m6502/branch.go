package m6502

import (
	"github.com/retroenv/retrogolib/arch/cpu/m6502"
)

// complementaryBranches defines pairs of branch instructions that test opposite conditions of the same flag.
var complementaryBranches = map[string]string{
	m6502.Beq.Name: m6502.Bne.Name, // Zero flag: equal vs not equal
	m6502.Bne.Name: m6502.Beq.Name,
	m6502.Bcc.Name: m6502.Bcs.Name, // Carry flag: clear vs set
	m6502.Bcs.Name: m6502.Bcc.Name,
	m6502.Bpl.Name: m6502.Bmi.Name, // Negative flag: plus vs minus
	m6502.Bmi.Name: m6502.Bpl.Name,
	m6502.Bvc.Name: m6502.Bvs.Name, // Overflow flag: clear vs set
	m6502.Bvs.Name: m6502.Bvc.Name,
}

// IsComplementaryBranchPair returns whether second directly follows first and
// tests the opposite condition of the same flag. Such a pair always branches,
// so the bytes following the pair are not reached through fall through.
func IsComplementaryBranchPair(first, second Instruction) bool {
	if !first.IsBranch() || !second.IsBranch() {
		return false
	}
	if first.Next() != second.Address {
		return false
	}
	complementary, ok := complementaryBranches[first.Name]
	return ok && second.Name == complementary
}
