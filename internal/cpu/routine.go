package cpu

import (
	"errors"
	"fmt"
	"slices"
)

// Termination defines why a routine run ended.
type Termination uint8

// routine terminations.
const (
	Return      Termination = iota // routine returned to the trampoline
	StepBudget                     // step budget exhausted
	InvalidJump                    // execution reached an address that can not contain code
	Loop                           // execution is stuck in a loop
)

func (t Termination) String() string {
	switch t {
	case Return:
		return "return"
	case StepBudget:
		return "step-budget"
	case InvalidJump:
		return "invalid-jump"
	case Loop:
		return "loop"
	default:
		return fmt.Sprintf("termination(%d)", uint8(t))
	}
}

// Result is the outcome of a routine run.
type Result struct {
	Writes       []RegisterWrite // register writes of this run
	TerminatedBy Termination
	Steps        int
	Cycles       uint64
	PC           uint16 // program counter at termination
	Err          error  // instruction error that caused an invalid jump
}

const (
	opcodeJsr = 0x20
	opcodeJmp = 0x4C
	opcodeBrk = 0x00

	trampolineSize = 6
)

// RunRoutine calls the routine at the start address with the accumulator
// set to a. The routine is called by a JSR from a trampoline at the stub
// address, which is followed by a jump onto itself that the routine returns
// to. The run ends when the routine returns, after maxSteps instructions or
// when the execution is considered invalid.
func (c *CPU) RunRoutine(start uint16, a byte, maxSteps int) Result {
	stub := c.config.StubAddress
	returnAddress := stub + 3
	c.writeTrampoline(stub, start)

	c.PC = stub
	c.A = a
	c.X = 0
	c.Y = 0
	c.SP = 0xFF
	c.P = FlagU | FlagI

	firstWrite := len(c.writes)
	startCycles := c.Cycles
	visits := make(map[uint16]int)

	result := Result{TerminatedBy: StepBudget}
	for result.Steps < maxSteps {
		if c.PC == returnAddress {
			result.TerminatedBy = Return
			break
		}
		if termination, ok := c.checkAddress(visits); !ok {
			result.TerminatedBy = termination
			break
		}

		if _, err := c.Step(); err != nil {
			result.TerminatedBy = InvalidJump
			result.Err = err
			break
		}
		result.Steps++
	}

	result.PC = c.PC
	result.Cycles = c.Cycles - startCycles
	result.Writes = slices.Clone(c.writes[firstWrite:])
	return result
}

// checkAddress checks whether the instruction at the program counter can be
// executed.
func (c *CPU) checkAddress(visits map[uint16]int) (Termination, bool) {
	pc := c.PC
	if pc < 2 || c.config.Window.Contains(pc) {
		return InvalidJump, false
	}

	opcode := c.memory[pc]
	if opcode == opcodeBrk {
		return InvalidJump, false
	}
	if opcode == opcodeJmp && c.readWord(pc+1) == pc {
		return Loop, false
	}

	if c.config.LoopThreshold > 0 {
		visits[pc]++
		if visits[pc] > c.config.LoopThreshold {
			return Loop, false
		}
	}
	return Return, true
}

func (c *CPU) writeTrampoline(stub, start uint16) {
	returnAddress := stub + 3
	trampoline := [trampolineSize]byte{
		opcodeJsr, byte(start), byte(start >> 8),
		opcodeJmp, byte(returnAddress), byte(returnAddress >> 8),
	}
	for i, b := range trampoline {
		c.memory[stub+uint16(i)] = b
	}
}

// ErrInvalidStub is returned for a trampoline address that does not fit into the address space.
var ErrInvalidStub = errors.New("trampoline does not fit at stub address")

// ValidateConfig checks that the trampoline fits into memory and does not
// overlap the peripheral window.
func ValidateConfig(config Config) error {
	if int(config.StubAddress)+trampolineSize > memorySize {
		return fmt.Errorf("%w $%04X", ErrInvalidStub, config.StubAddress)
	}
	for i := range uint16(trampolineSize) {
		if config.Window.Contains(config.StubAddress + i) {
			return fmt.Errorf("%w $%04X: overlaps peripheral window", ErrInvalidStub, config.StubAddress)
		}
	}
	return nil
}

// ValidateImage checks that an image of the given size loaded at the address
// leaves the call trampoline intact.
func ValidateImage(config Config, address uint16, size int) error {
	start, end := int(config.StubAddress), int(config.StubAddress)+trampolineSize
	if int(address) < end && start < int(address)+size {
		return fmt.Errorf("%w $%04X: overlaps image $%04X-$%04X", ErrInvalidStub,
			config.StubAddress, address, int(address)+size-1)
	}
	return nil
}
