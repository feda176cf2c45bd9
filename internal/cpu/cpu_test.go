package cpu

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/retroenv/retroreloc/internal/options"
	"github.com/retroenv/retrogolib/assert"
)

const codeAddress = 0x1000

func newTestCPU(t *testing.T, code []byte) *CPU {
	t.Helper()
	c := New(NewConfig(options.NewValidation()))
	assert.NoError(t, c.Load(codeAddress, code))
	return c
}

func TestRunRoutineRegisterWrite(t *testing.T) {
	c := newTestCPU(t, []byte{
		0xA9, 0x0F, // lda #$0F
		0x8D, 0x18, 0xD4, // sta $D418
		0x60, // rts
	})
	c.SetFrame(3)

	result := c.RunRoutine(codeAddress, 0, 100)
	assert.Equal(t, Return, result.TerminatedBy)
	assert.Equal(t, 4, result.Steps)
	assert.Equal(t, uint64(18), result.Cycles)

	expected := []RegisterWrite{
		{Frame: 3, Offset: 0x18, Value: 0x0F, Cycle: 6 + 2 + 4},
	}
	assert.Equal(t, "", cmp.Diff(expected, result.Writes))
	assert.Equal(t, "", cmp.Diff(expected, c.Writes()))
}

func TestRunRoutineWindowRead(t *testing.T) {
	c := newTestCPU(t, []byte{
		0x8D, 0x01, 0xD4, // sta $D401
		0xA9, 0x00, // lda #$00
		0xAD, 0x01, 0xD4, // lda $D401
		0x60, // rts
	})

	result := c.RunRoutine(codeAddress, 0x5A, 100)
	assert.Equal(t, Return, result.TerminatedBy)
	assert.Equal(t, byte(0x5A), c.A)
	assert.Len(t, result.Writes, 1)
}

func TestRunRoutinePageCrossCycles(t *testing.T) {
	c := newTestCPU(t, []byte{
		0xA2, 0xFF, // ldx #$FF
		0xBD, 0x01, 0x10, // lda $1001,x
		0x9D, 0x01, 0x20, // sta $2001,x
		0x60, // rts
	})

	result := c.RunRoutine(codeAddress, 0, 100)
	assert.Equal(t, Return, result.TerminatedBy)
	assert.Equal(t, 5, result.Steps)
	assert.Equal(t, uint64(6+2+5+5+6), result.Cycles)
}

//nolint:funlen // test functions can be long
func TestInstructions(t *testing.T) {
	tests := []struct {
		name  string
		code  []byte
		setup func(c *CPU)
		check func(t *testing.T, c *CPU)
	}{
		{
			name: "binary adc overflow",
			code: []byte{0x18, 0xA9, 0x7F, 0x69, 0x01, 0x60}, // clc, lda #$7F, adc #$01
			check: func(t *testing.T, c *CPU) {
				t.Helper()
				assert.Equal(t, byte(0x80), c.A)
				assert.True(t, c.flag(FlagV))
				assert.True(t, c.flag(FlagN))
				assert.False(t, c.flag(FlagC))
			},
		},
		{
			name: "decimal adc",
			code: []byte{0xF8, 0x18, 0xA9, 0x09, 0x69, 0x01, 0x60}, // sed, clc, lda #$09, adc #$01
			check: func(t *testing.T, c *CPU) {
				t.Helper()
				assert.Equal(t, byte(0x10), c.A)
				assert.False(t, c.flag(FlagC))
			},
		},
		{
			name: "decimal adc carry",
			code: []byte{0xF8, 0x18, 0xA9, 0x99, 0x69, 0x01, 0x60}, // sed, clc, lda #$99, adc #$01
			check: func(t *testing.T, c *CPU) {
				t.Helper()
				assert.Equal(t, byte(0x00), c.A)
				assert.True(t, c.flag(FlagC))
			},
		},
		{
			name: "decimal sbc",
			code: []byte{0xF8, 0x38, 0xA9, 0x10, 0xE9, 0x01, 0x60}, // sed, sec, lda #$10, sbc #$01
			check: func(t *testing.T, c *CPU) {
				t.Helper()
				assert.Equal(t, byte(0x09), c.A)
				assert.True(t, c.flag(FlagC))
			},
		},
		{
			name: "decimal sbc borrow",
			code: []byte{0xF8, 0x38, 0xA9, 0x00, 0xE9, 0x01, 0x60}, // sed, sec, lda #$00, sbc #$01
			check: func(t *testing.T, c *CPU) {
				t.Helper()
				assert.Equal(t, byte(0x99), c.A)
				assert.False(t, c.flag(FlagC))
			},
		},
		{
			name: "unofficial opcode as nop",
			code: []byte{0x38, 0xA9, 0x10, 0xEB, 0x01, 0x60}, // sec, lda #$10, unofficial sbc #$01
			check: func(t *testing.T, c *CPU) {
				t.Helper()
				assert.Equal(t, byte(0x10), c.A)
			},
		},
		{
			name: "jmp indirect page wrap",
			code: []byte{0x6C, 0xFF, 0x02}, // jmp ($02FF)
			setup: func(c *CPU) {
				c.memory[0x02FF] = 0x00
				c.memory[0x0200] = 0x11
				c.memory[0x0300] = 0x12
				c.memory[0x1100] = 0xA9 // lda #$42
				c.memory[0x1101] = 0x42
				c.memory[0x1102] = 0x60 // rts
			},
			check: func(t *testing.T, c *CPU) {
				t.Helper()
				assert.Equal(t, byte(0x42), c.A)
			},
		},
		{
			name:  "zero page index wrap",
			code:  []byte{0xA2, 0x01, 0xB5, 0xFF, 0x60}, // ldx #$01, lda $FF,x
			setup: func(c *CPU) { c.memory[0x00] = 0x33 },
			check: func(t *testing.T, c *CPU) {
				t.Helper()
				assert.Equal(t, byte(0x33), c.A)
			},
		},
		{
			name: "indirect indexed",
			code: []byte{0xA0, 0x02, 0xB1, 0xFB, 0x60}, // ldy #$02, lda ($FB),y
			setup: func(c *CPU) {
				c.memory[0xFB] = 0x00
				c.memory[0xFC] = 0x03
				c.memory[0x0302] = 0x55
			},
			check: func(t *testing.T, c *CPU) {
				t.Helper()
				assert.Equal(t, byte(0x55), c.A)
			},
		},
		{
			name: "indexed indirect",
			code: []byte{0xA2, 0x04, 0xA1, 0xF0, 0x60}, // ldx #$04, lda ($F0,x)
			setup: func(c *CPU) {
				c.memory[0xF4] = 0x10
				c.memory[0xF5] = 0x03
				c.memory[0x0310] = 0x66
			},
			check: func(t *testing.T, c *CPU) {
				t.Helper()
				assert.Equal(t, byte(0x66), c.A)
			},
		},
		{
			name: "stack",
			code: []byte{0xA9, 0x12, 0x48, 0xA9, 0x00, 0x68, 0x60}, // lda #$12, pha, lda #$00, pla
			check: func(t *testing.T, c *CPU) {
				t.Helper()
				assert.Equal(t, byte(0x12), c.A)
				assert.Equal(t, byte(0xFF), c.SP)
			},
		},
		{
			name: "rotate through carry",
			code: []byte{0x38, 0xA9, 0x80, 0x2A, 0x60}, // sec, lda #$80, rol a
			check: func(t *testing.T, c *CPU) {
				t.Helper()
				assert.Equal(t, byte(0x01), c.A)
				assert.True(t, c.flag(FlagC))
			},
		},
		{
			name: "memory increment",
			code: []byte{0xEE, 0x00, 0x03, 0xAD, 0x00, 0x03, 0x60}, // inc $0300, lda $0300
			setup: func(c *CPU) {
				c.memory[0x0300] = 0xFF
			},
			check: func(t *testing.T, c *CPU) {
				t.Helper()
				assert.Equal(t, byte(0x00), c.A)
				assert.True(t, c.flag(FlagZ))
			},
		},
		{
			name: "compare",
			code: []byte{0xA9, 0x10, 0xC9, 0x20, 0x60}, // lda #$10, cmp #$20
			check: func(t *testing.T, c *CPU) {
				t.Helper()
				assert.False(t, c.flag(FlagC))
				assert.False(t, c.flag(FlagZ))
				assert.True(t, c.flag(FlagN))
			},
		},
		{
			name: "bit",
			code: []byte{0xA9, 0x01, 0x2C, 0x00, 0x03, 0x60}, // lda #$01, bit $0300
			setup: func(c *CPU) {
				c.memory[0x0300] = 0xC0
			},
			check: func(t *testing.T, c *CPU) {
				t.Helper()
				assert.True(t, c.flag(FlagZ))
				assert.True(t, c.flag(FlagN))
				assert.True(t, c.flag(FlagV))
			},
		},
		{
			name: "subroutine and loop",
			code: []byte{
				0x20, 0x10, 0x10, // jsr $1010
				0x8A, 0x60, // txa, rts
				0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
				0xA2, 0x00, // $1010 ldx #$00
				0xE8,       // $1012 inx
				0xE0, 0x05, // cpx #$05
				0xD0, 0xFB, // bne $1012
				0x60, // rts
			},
			check: func(t *testing.T, c *CPU) {
				t.Helper()
				assert.Equal(t, byte(0x05), c.A)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCPU(t, tt.code)
			if tt.setup != nil {
				tt.setup(c)
			}
			result := c.RunRoutine(codeAddress, 0, 1000)
			assert.Equal(t, Return, result.TerminatedBy)
			tt.check(t, c)
		})
	}
}

func TestRunRoutineTermination(t *testing.T) {
	tests := []struct {
		name          string
		code          []byte
		loopThreshold int
		termination   Termination
		steps         int
	}{
		{name: "jump to itself", code: []byte{0x4C, 0x00, 0x10}, termination: Loop, steps: 1},
		{name: "loop threshold", code: []byte{0xCA, 0xD0, 0xFD, 0x4C, 0x00, 0x10}, loopThreshold: 10,
			termination: Loop},
		{name: "step budget", code: []byte{0xCA, 0xD0, 0xFD, 0x4C, 0x00, 0x10}, termination: StepBudget,
			steps: 100},
		{name: "jump into peripheral window", code: []byte{0x4C, 0x00, 0xD4}, termination: InvalidJump, steps: 2},
		{name: "jump to reserved address", code: []byte{0x4C, 0x01, 0x00}, termination: InvalidJump, steps: 2},
		{name: "break", code: []byte{0xEA, 0x00}, termination: InvalidJump, steps: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewConfig(options.NewValidation())
			config.LoopThreshold = tt.loopThreshold
			c := New(config)
			assert.NoError(t, c.Load(codeAddress, tt.code))

			result := c.RunRoutine(codeAddress, 0, 100)
			assert.Equal(t, tt.termination, result.TerminatedBy)
			if tt.steps > 0 {
				assert.Equal(t, tt.steps, result.Steps)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	c := New(NewConfig(options.NewValidation()))
	assert.NoError(t, c.Load(0xFFFE, []byte{1, 2}))
	assert.Equal(t, byte(2), c.Read(0xFFFF))
	assert.Error(t, c.Load(0xFFFF, []byte{1, 2}))
}

func TestValidateConfig(t *testing.T) {
	config := NewConfig(options.NewValidation())
	assert.NoError(t, ValidateConfig(config))

	config.StubAddress = 0xFFFC
	assert.True(t, errors.Is(ValidateConfig(config), ErrInvalidStub))

	config.StubAddress = 0xD3FD
	assert.True(t, errors.Is(ValidateConfig(config), ErrInvalidStub))
}

func TestValidateImage(t *testing.T) {
	config := NewConfig(options.NewValidation())

	tests := []struct {
		name    string
		address uint16
		size    int
		valid   bool
	}{
		{name: "below trampoline", address: 0x1000, size: 0x100, valid: true},
		{name: "ends before trampoline", address: 0xFF00, size: 0xF0, valid: true},
		{name: "reaches trampoline", address: 0xFF00, size: 0xF1},
		{name: "covers trampoline", address: 0xE000, size: 0x2000},
		{name: "after trampoline", address: 0xFFF6, size: 0x0A, valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImage(config, tt.address, tt.size)
			assert.Equal(t, tt.valid, err == nil)
			assert.Equal(t, !tt.valid, errors.Is(err, ErrInvalidStub))
		})
	}
}
