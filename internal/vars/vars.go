// Package vars tracks the zero page variables used by the traced code of a program.
package vars

import (
	"sort"

	"github.com/retroenv/retroreloc/internal/arch/m6502"
)

// Variable describes the usage of a single zero page address.
type Variable struct {
	Address  uint16
	Reads    bool
	Writes   bool
	Indexed  bool     // access with X/Y registers indicates a table
	Indirect bool     // used as base of an indirect address
	UsageAt  []uint16 // addresses of all instructions using the variable
}

// Vars manages the zero page variables of a program.
type Vars struct {
	variables map[uint16]*Variable
}

// New creates a new variables manager.
func New() *Vars {
	return &Vars{
		variables: make(map[uint16]*Variable),
	}
}

// AddReference adds a variable reference if the instruction is accessing
// a zero page address.
func (v *Vars) AddReference(ins m6502.Instruction) {
	if !ins.IsZeroPage() {
		return
	}

	address := ins.Value
	varInfo := v.variables[address]
	if varInfo == nil {
		varInfo = &Variable{
			Address: address,
		}
		v.variables[address] = varInfo
	}
	varInfo.UsageAt = append(varInfo.UsageAt, ins.Address)

	if ins.ReadsMemory() {
		varInfo.Reads = true
	}
	if ins.WritesMemory() {
		varInfo.Writes = true
	}
	if ins.IsIndexed() {
		varInfo.Indexed = true
	}
	if ins.IsIndirect() {
		varInfo.Indirect = true
		// the pointer high byte is read from the following address
		v.addPointerHigh(address+1, ins.Address)
	}
}

func (v *Vars) addPointerHigh(address, usageAddress uint16) {
	address &= 0xFF
	varInfo := v.variables[address]
	if varInfo == nil {
		varInfo = &Variable{
			Address: address,
		}
		v.variables[address] = varInfo
	}
	varInfo.Reads = true
	varInfo.UsageAt = append(varInfo.UsageAt, usageAddress)
}

// Get returns the variable at the given zero page address.
func (v *Vars) Get(address uint16) (Variable, bool) {
	varInfo, ok := v.variables[address]
	if !ok {
		return Variable{}, false
	}
	return *varInfo, true
}

// IsIndirect returns whether the zero page address is used as base of an indirect address.
func (v *Vars) IsIndirect(address uint16) bool {
	varInfo, ok := v.variables[address]
	return ok && varInfo.Indirect
}

// Variables returns all variables ordered by address.
func (v *Vars) Variables() []Variable {
	variables := make([]Variable, 0, len(v.variables))
	for _, varInfo := range v.variables {
		variables = append(variables, *varInfo)
	}
	sort.Slice(variables, func(i, j int) bool {
		return variables[i].Address < variables[j].Address
	})
	return variables
}

// Addresses returns the used zero page addresses ordered by address.
func (v *Vars) Addresses() []uint16 {
	variables := v.Variables()
	addresses := make([]uint16, len(variables))
	for i, varInfo := range variables {
		addresses[i] = varInfo.Address
	}
	return addresses
}
