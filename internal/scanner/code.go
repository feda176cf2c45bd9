package scanner

import (
	"github.com/retroenv/retroreloc/internal/arch/m6502"
	"github.com/retroenv/retroreloc/internal/pointer"
	"github.com/retroenv/retroreloc/internal/program"
	"github.com/retroenv/retrogolib/log"
)

// followExecutionFlow traces all code that is reachable from the entry points
// and records the absolute operands that reference a section.
func (sc *scan) followExecutionFlow() {
	sc.addAddressToParse(sc.prog.Init, sc.prog.Init)
	if sc.prog.Play != 0 {
		sc.addAddressToParse(sc.prog.Play, sc.prog.Play)
	}
	for _, section := range sc.sections {
		if section.Kind == program.EntryStub {
			sc.addAddressToParse(section.Address, section.Address)
		}
	}
	for _, address := range sc.options.Entries {
		sc.addAddressToParse(address, address)
	}

	for len(sc.offsetsToParse) > 0 {
		address := sc.offsetsToParse[0]
		sc.offsetsToParse = sc.offsetsToParse[1:]
		sc.followPath(address)
	}
}

// followPath decodes instructions sequentially starting at the given address
// until the execution flow does not continue with the following instruction.
func (sc *scan) followPath(address uint16) {
	var previous m6502.Instruction
	pairs := newImmediateTracker()

	for {
		if sc.offsetsParsed.Contains(address) {
			return
		}
		section, index, ok := sc.sectionAt(address)
		if !ok || !section.IsCode() {
			return
		}
		sc.offsetsParsed.Add(address)

		ins := m6502.Decode(section.Data, index, address)
		if ins.Opaque {
			sc.logger.Debug("Opaque byte ends code path",
				log.Hex("address", address),
				log.Hex("value", ins.Opcode))
			return
		}
		if ins.Unofficial && sc.options.StopAtUnofficial && !sc.branchDestinations.Contains(address) {
			sc.logger.Debug("Unofficial instruction ends code path",
				log.Hex("address", address),
				log.String("instruction", ins.String()))
			return
		}

		sc.markCode(section, index, ins)
		sc.vars.AddReference(ins)
		sc.processOperand(section, ins)
		if sc.options.ImmediatePairs {
			sc.addImmediatePairs(pairs.process(ins))
		}

		if ins.StopsFlow() || m6502.IsComplementaryBranchPair(previous, ins) {
			return
		}
		previous = ins
		address = ins.Next()
		if address < ins.Address {
			return // wrapped around the address space
		}
	}
}

// markCode marks the bytes of the instruction as traced code.
func (sc *scan) markCode(section program.Section, index int, ins m6502.Instruction) {
	coverage := sc.coverage[section.ID]
	coverage[index].SetType(program.CodeOffset)
	for i := 1; i < ins.Size && index+i < len(coverage); i++ {
		coverage[index+i].SetType(program.OperandOffset)
	}
}

// processOperand handles the operand of an instruction: branch and call
// destinations are queued for tracing and operands that reference a section
// become pointer candidates.
func (sc *scan) processOperand(section program.Section, ins m6502.Instruction) {
	switch {
	case ins.IsBranch():
		sc.processBranch(section, ins)

	case ins.HasAbsoluteOperand():
		sc.processAbsolute(ins)

	case ins.IsZeroPage() && !ins.IsIndirect():
		sc.constants.MarkUsed(ins.Value)
	}
}

// processBranch queues the branch destination. A branch into a different
// section results in a relative candidate as the distance between both
// sections can change.
func (sc *scan) processBranch(section program.Section, ins m6502.Instruction) {
	destination := ins.Value
	sc.branchDestinations.Add(destination)
	sc.addAddressToParse(destination, ins.Address)

	target, _, ok := sc.sectionAt(destination)
	if !ok || target.ID == section.ID {
		return
	}

	sc.logger.Debug("Branch crosses section boundary",
		log.Hex("address", ins.Address),
		log.Hex("destination", destination),
		log.String("section", target.ID))

	sc.candidates.Add(pointer.Candidate{
		Location:   ins.Address + 1,
		Part:       pointer.Relative,
		Target:     destination,
		Origin:     pointer.CodeOperand,
		Confidence: pointer.CodeOperandConfidence,
		Source:     ins.Address,
	})
}

func (sc *scan) processAbsolute(ins m6502.Instruction) {
	target := ins.Value

	if name, ok := sc.constants.Name(target, ins.ReadsMemory(), ins.WritesMemory()); ok {
		sc.logger.Debug("Hardware register reference",
			log.Hex("address", ins.Address),
			log.String("register", name))
	}

	if _, _, ok := sc.sectionAt(target); !ok {
		return
	}

	sc.candidates.Add(pointer.Candidate{
		Location:   ins.Address + 1,
		Part:       pointer.Word,
		Target:     target,
		Origin:     pointer.CodeOperand,
		Confidence: pointer.CodeOperandConfidence,
		Source:     ins.Address,
	})

	followTarget := ins.IsCall() || (ins.IsJump() && !ins.IsIndirect())
	if !followTarget {
		return
	}
	if ins.IsJump() && target == ins.Address {
		return // endless loop
	}

	sc.addAddressToParse(target, ins.Address)
	if ins.IsCall() && !sc.callTargetsAdded.Contains(target) {
		sc.callTargetsAdded.Add(target)
		sc.callTargets = append(sc.callTargets, target)
		if section, index, ok := sc.sectionAt(target); ok {
			sc.coverage[section.ID][index].SetType(program.CallDestination)
		}
	}
}

// addAddressToParse adds an address to the list to be processed if the
// address has not been processed yet and is located in a code section.
func (sc *scan) addAddressToParse(address, from uint16) {
	if sc.offsetsToParseAdded.Contains(address) {
		return
	}
	section, _, ok := sc.sectionAt(address)
	if !ok {
		return
	}
	if !section.IsCode() {
		sc.logger.Debug("Execution flow leads into data section",
			log.Hex("address", address),
			log.Hex("from", from),
			log.String("section", section.ID))
		return
	}

	sc.offsetsToParseAdded.Add(address)
	sc.offsetsToParse = append(sc.offsetsToParse, address)
}
