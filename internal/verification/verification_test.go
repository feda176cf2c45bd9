package verification

import (
	"testing"

	"github.com/retroenv/retroreloc/internal/cpu"
	"github.com/retroenv/retroreloc/internal/options"
	"github.com/retroenv/retroreloc/internal/output"
	"github.com/retroenv/retroreloc/internal/program"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

func testImage(t *testing.T, init, play []byte) *output.Image {
	t.Helper()
	prog := &program.Program{
		Sections: []program.Section{
			{ID: "init", Kind: program.Code, Address: 0x1000, Data: init},
		},
		Init:      0x1000,
		Songs:     4,
		StartSong: 2,
	}
	if play != nil {
		prog.Sections = append(prog.Sections, program.Section{
			ID: "play", Kind: program.Code, Address: 0x1100, Data: play,
		})
		prog.Play = 0x1100
	}

	image, err := output.Assemble(prog, output.Contract{Format: output.Raw})
	assert.NoError(t, err)
	return image
}

func testOptions(frames int) options.Validation {
	opts := options.NewValidation()
	opts.Enabled = true
	opts.Frames = frames
	opts.MaxSteps = 1000
	opts.LoopThreshold = 100
	return opts
}

var (
	initVolume = []byte{0xA9, 0x0F, 0x8D, 0x18, 0xD4, 0x60} // lda #$0F, sta $D418, rts
	initSong   = []byte{0x8D, 0x05, 0xD4, 0x60}             // sta $D405, rts
	playFreq   = []byte{0xEE, 0x00, 0xD4, 0x60}             // inc $D400, rts
)

//nolint:funlen // test functions can be long
func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		init        []byte
		play        []byte
		song        uint16
		verdict     Verdict
		silent      bool
		frames      int
		failedFrame int
		writes      int
		noLoopCheck bool
	}{
		{name: "ok", init: initVolume, play: playFreq, verdict: Ok, frames: 3, writes: 1 + 3},
		{name: "silent play", init: initVolume, play: []byte{0x60}, verdict: Ok, silent: true, frames: 3, writes: 1},
		{name: "no play routine", init: initVolume, verdict: Ok, writes: 1},
		{name: "start song", init: initSong, play: playFreq, verdict: Ok, frames: 3, writes: 4},
		{name: "selected song", init: initSong, play: playFreq, song: 4, verdict: Ok, frames: 3, writes: 4},
		{
			name:        "crash in play",
			init:        initVolume,
			play:        []byte{0x4C, 0x00, 0xD4}, // jmp $D400
			verdict:     CrashSignature,
			failedFrame: 1,
			writes:      1,
		},
		{
			name:        "endless init",
			init:        []byte{0x4C, 0x00, 0x10}, // jmp $1000
			play:        playFreq,
			verdict:     PossibleInfiniteLoop,
			failedFrame: 0,
		},
		{
			name:        "step budget in play",
			init:        initVolume,
			play:        []byte{0xCA, 0xD0, 0xFD, 0x4C, 0x00, 0x11}, // dex, bne, jmp $1100
			verdict:     PossibleInfiniteLoop,
			failedFrame: 1,
			writes:      1,
			noLoopCheck: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions(3)
			opts.Song = tt.song
			if tt.noLoopCheck {
				opts.LoopThreshold = 0
			}

			report, err := Validate(log.NewTestLogger(t), testImage(t, tt.init, tt.play), opts)
			assert.NoError(t, err)
			assert.Equal(t, tt.verdict, report.Verdict)
			assert.Equal(t, tt.silent, report.Silent)
			assert.Equal(t, tt.frames, report.Frames)
			assert.Equal(t, tt.writes, len(report.Writes))
			if tt.verdict != Ok {
				assert.NotNil(t, report.Failure)
				assert.Equal(t, tt.failedFrame, report.FailedFrame)
			}
		})
	}
}

func TestValidateSongNumber(t *testing.T) {
	opts := testOptions(1)

	report, err := Validate(log.NewTestLogger(t), testImage(t, initSong, playFreq), opts)
	assert.NoError(t, err)
	assert.Equal(t, uint16(2), report.Song)
	assert.Equal(t, byte(1), report.Writes[0].Value)

	opts.Song = 4
	report, err = Validate(log.NewTestLogger(t), testImage(t, initSong, playFreq), opts)
	assert.NoError(t, err)
	assert.Equal(t, byte(3), report.Writes[0].Value)
	assert.Equal(t, 0, report.Writes[0].Frame)
	assert.Equal(t, 1, report.Writes[1].Frame)
}

func TestValidateInvalidStub(t *testing.T) {
	opts := testOptions(1)
	opts.StubAddress = 0xD410
	_, err := Validate(log.NewTestLogger(t), testImage(t, initVolume, playFreq), opts)
	assert.Error(t, err)
}

func TestValidateImageCoversStub(t *testing.T) {
	opts := testOptions(1)
	opts.StubAddress = 0x1002
	_, err := Validate(log.NewTestLogger(t), testImage(t, initVolume, playFreq), opts)
	assert.ErrorContains(t, err, "overlaps image")
}

func TestCompareTraces(t *testing.T) {
	logger := log.NewTestLogger(t)
	trace := []cpu.RegisterWrite{
		{Frame: 0, Offset: 0x18, Value: 0x0F, Cycle: 12},
		{Frame: 1, Offset: 0x00, Value: 0x01, Cycle: 30},
	}

	shifted := []cpu.RegisterWrite{
		{Frame: 0, Offset: 0x18, Value: 0x0F, Cycle: 13},
		{Frame: 1, Offset: 0x00, Value: 0x01, Cycle: 31},
	}
	assert.NoError(t, CompareTraces(logger, trace, shifted))

	changed := []cpu.RegisterWrite{
		{Frame: 0, Offset: 0x18, Value: 0x0F},
		{Frame: 1, Offset: 0x00, Value: 0x02},
	}
	assert.ErrorContains(t, CompareTraces(logger, trace, changed), "1 write mismatches")
	assert.ErrorContains(t, CompareTraces(logger, trace, trace[:1]), "mismatched trace lengths")
}

func TestCompareImages(t *testing.T) {
	logger := log.NewTestLogger(t)
	assert.NoError(t, CompareImages(logger, []byte{1, 2, 3}, []byte{1, 2, 3}))
	assert.ErrorContains(t, CompareImages(logger, []byte{1, 2, 3}, []byte{1, 0, 0}), "2 offset mismatches")
	assert.ErrorContains(t, CompareImages(logger, []byte{1, 2, 3}, []byte{1, 2}), "mismatched lengths")
}
