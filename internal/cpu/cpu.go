// Package cpu provides a 6502 emulator that executes player routines and
// records the writes to the peripheral register window.
package cpu

import (
	"errors"
	"fmt"

	"github.com/retroenv/retroreloc/internal/arch/m6502"
	"github.com/retroenv/retroreloc/internal/options"
)

// status flags.
const (
	FlagC byte = 1 << 0 // carry
	FlagZ byte = 1 << 1 // zero
	FlagI byte = 1 << 2 // interrupt disable
	FlagD byte = 1 << 3 // decimal mode
	FlagB byte = 1 << 4 // break
	FlagU byte = 1 << 5 // unused, always set
	FlagV byte = 1 << 6 // overflow
	FlagN byte = 1 << 7 // negative
)

const (
	memorySize = 0x10000
	stackBase  = 0x0100
	irqVector  = 0xFFFE
)

// ErrOpaqueInstruction is returned when the CPU fetches a byte that does not decode to an instruction.
var ErrOpaqueInstruction = errors.New("opaque instruction")

// Config defines the emulator settings.
type Config struct {
	Window        options.Window // captured peripheral registers
	StubAddress   uint16         // address of the call trampoline
	LoopThreshold int            // executions of one address that end a routine as loop, 0 disables the check
}

// NewConfig returns an emulator configuration based on the validation options.
func NewConfig(opts options.Validation) Config {
	return Config{
		Window:        opts.Window,
		StubAddress:   opts.StubAddress,
		LoopThreshold: opts.LoopThreshold,
	}
}

// RegisterWrite is a write access to the peripheral register window.
type RegisterWrite struct {
	Frame  int    // frame number, 0 for the init routine
	Offset uint8  // register offset inside the window
	Value  byte   // written value
	Cycle  uint64 // cycle counter at the end of the writing instruction
}

func (w RegisterWrite) String() string {
	return fmt.Sprintf("frame %d cycle %d: $%02X = $%02X", w.Frame, w.Cycle, w.Offset, w.Value)
}

// CPU is the state of an emulated 6502 with its full 64KB memory.
type CPU struct {
	PC     uint16
	A      byte
	X      byte
	Y      byte
	SP     byte
	P      byte
	Cycles uint64

	config Config
	memory [memorySize]byte
	frame  int
	writes []RegisterWrite
}

// New returns a CPU in its reset state with cleared memory.
func New(config Config) *CPU {
	return &CPU{
		SP:     0xFF,
		P:      FlagU | FlagI,
		config: config,
	}
}

// Load copies data into memory starting at the given address.
func (c *CPU) Load(address uint16, data []byte) error {
	if int(address)+len(data) > memorySize {
		return fmt.Errorf("data of $%04X bytes at $%04X exceeds the address space", len(data), address)
	}
	copy(c.memory[address:], data)
	return nil
}

// Read returns the memory value at the address. Reads of the peripheral
// window return the value that was last written to the register.
func (c *CPU) Read(address uint16) byte {
	return c.memory[address]
}

// Write sets the memory value at the address and records writes to the
// peripheral window.
func (c *CPU) Write(address uint16, value byte) {
	c.memory[address] = value
	if c.config.Window.Contains(address) {
		c.writes = append(c.writes, RegisterWrite{
			Frame:  c.frame,
			Offset: uint8(address - c.config.Window.Address),
			Value:  value,
			Cycle:  c.Cycles,
		})
	}
}

// SetFrame sets the frame number that subsequent register writes are tagged with.
func (c *CPU) SetFrame(frame int) {
	c.frame = frame
}

// Writes returns all recorded register writes.
func (c *CPU) Writes() []RegisterWrite {
	return c.writes
}

// Step fetches, decodes and executes a single instruction.
func (c *CPU) Step() (m6502.Instruction, error) {
	ins := m6502.Decode(c.memory[:], int(c.PC), c.PC)
	if ins.Opaque {
		return ins, fmt.Errorf("%w $%02X at $%04X", ErrOpaqueInstruction, ins.Opcode, c.PC)
	}

	c.PC = ins.Next()
	c.Cycles += uint64(ins.Timing())

	// unofficial opcodes execute as nop of their decoded size
	if ins.Unofficial {
		return ins, nil
	}
	if handler, ok := handlers[ins.Name]; ok {
		handler(c, ins)
	}
	return ins, nil
}

func (c *CPU) flag(flag byte) bool {
	return c.P&flag != 0
}

func (c *CPU) setFlag(flag byte, value bool) {
	if value {
		c.P |= flag
	} else {
		c.P &^= flag
	}
}

func (c *CPU) setNZ(value byte) {
	c.setFlag(FlagZ, value == 0)
	c.setFlag(FlagN, value&0x80 != 0)
}

func (c *CPU) push(value byte) {
	c.memory[stackBase+uint16(c.SP)] = value
	c.SP--
}

func (c *CPU) pop() byte {
	c.SP++
	return c.memory[stackBase+uint16(c.SP)]
}

func (c *CPU) pushWord(value uint16) {
	c.push(byte(value >> 8))
	c.push(byte(value))
}

func (c *CPU) popWord() uint16 {
	lo := c.pop()
	hi := c.pop()
	return uint16(hi)<<8 | uint16(lo)
}

// readWordZeroPage reads a pointer from the zero page, the high byte wraps
// around inside the zero page.
func (c *CPU) readWordZeroPage(address byte) uint16 {
	lo := c.memory[address]
	hi := c.memory[byte(address+1)]
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) readWord(address uint16) uint16 {
	return uint16(c.memory[address+1])<<8 | uint16(c.memory[address])
}
