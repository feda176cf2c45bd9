package scanner

import (
	"github.com/retroenv/retroreloc/internal/arch/m6502"
	"github.com/retroenv/retroreloc/internal/pointer"
	"github.com/retroenv/retrogolib/log"
)

// immediateLoad is an immediate value that was loaded into a register.
type immediateLoad struct {
	value    byte
	location uint16 // address of the immediate operand byte
}

// immediatePair is an address that is composed in the zero page by storing an
// immediate low byte and an immediate high byte to consecutive addresses.
type immediatePair struct {
	low         immediateLoad
	high        immediateLoad
	destination uint16 // address the low byte is stored to
}

func (p immediatePair) target() uint16 {
	return uint16(p.high.value)<<8 | uint16(p.low.value)
}

// immediateTracker follows immediate register loads and their stores along a
// linear code path, for example:
//
//	lda #<table
//	sta $fb
//	lda #>table
//	sta $fc
type immediateTracker struct {
	registers map[m6502.Register]immediateLoad
	stores    map[uint16]immediateLoad
}

func newImmediateTracker() *immediateTracker {
	return &immediateTracker{
		registers: map[m6502.Register]immediateLoad{},
		stores:    map[uint16]immediateLoad{},
	}
}

// process updates the tracked state with the instruction and returns the
// address pairs that got completed by it.
func (t *immediateTracker) process(ins m6502.Instruction) []immediatePair {
	if reg, ok := ins.LoadsRegister(); ok {
		if ins.IsImmediate() {
			t.registers[reg] = immediateLoad{
				value:    byte(ins.Value),
				location: ins.Address + 1,
			}
		} else {
			delete(t.registers, reg)
		}
		return nil
	}

	// only plain zero page stores compose pointers
	if reg, ok := ins.StoresRegister(); ok && ins.IsZeroPage() && !ins.IsIndexed() && !ins.IsIndirect() {
		return t.processStore(reg, ins.Value)
	}

	if ins.IsCall() {
		clear(t.registers)
		clear(t.stores)
		return nil
	}
	if ins.WritesMemory() && !ins.IsIndexed() {
		delete(t.stores, ins.Value)
	}
	if !ins.PreservesRegisters() {
		clear(t.registers)
	}
	return nil
}

func (t *immediateTracker) processStore(reg m6502.Register, address uint16) []immediatePair {
	load, ok := t.registers[reg]
	if !ok {
		delete(t.stores, address)
		return nil
	}
	t.stores[address] = load

	if low, ok := t.stores[address-1]; ok && address > 0 {
		delete(t.stores, address-1)
		delete(t.stores, address)
		return []immediatePair{{low: low, high: load, destination: address - 1}}
	}
	if high, ok := t.stores[address+1]; ok && address < 0xFFFF {
		delete(t.stores, address)
		delete(t.stores, address+1)
		return []immediatePair{{low: load, high: high, destination: address}}
	}
	return nil
}

// addImmediatePairs adds low and high byte candidates for all pairs whose
// composed address points into a section.
func (sc *scan) addImmediatePairs(pairs []immediatePair) {
	for _, pair := range pairs {
		target := pair.target()
		if !sc.band.Contains(uint8(target >> 8)) {
			continue
		}
		if _, _, ok := sc.sectionAt(target); !ok {
			continue
		}

		sc.logger.Debug("Address composed from immediate values",
			log.Hex("low_location", pair.low.location),
			log.Hex("high_location", pair.high.location),
			log.Hex("destination", pair.destination),
			log.Hex("target", target))

		sc.candidates.Add(pointer.Candidate{
			Location:   pair.low.location,
			Part:       pointer.Low,
			Target:     target,
			Origin:     pointer.CodeOperand,
			Confidence: pointer.ImmediatePairConfidence,
			Source:     pair.low.location - 1,
		})
		sc.candidates.Add(pointer.Candidate{
			Location:   pair.high.location,
			Part:       pointer.High,
			Target:     target,
			Origin:     pointer.CodeOperand,
			Confidence: pointer.ImmediatePairConfidence,
			Source:     pair.high.location - 1,
		})
	}
}
