// Package verification validates a relocated image by emulating its init and
// play routines and compares the results of conversions.
package verification

import (
	"fmt"

	"github.com/retroenv/retroreloc/internal/cpu"
	"github.com/retroenv/retroreloc/internal/options"
	"github.com/retroenv/retroreloc/internal/output"
	"github.com/retroenv/retrogolib/log"
)

// Verdict is the outcome of a validation run.
type Verdict uint8

// validation verdicts.
const (
	Ok                   Verdict = iota
	CrashSignature               // execution reached an invalid address
	PossibleInfiniteLoop         // a routine did not return within its budget
)

func (v Verdict) String() string {
	switch v {
	case Ok:
		return "ok"
	case CrashSignature:
		return "crash-signature"
	case PossibleInfiniteLoop:
		return "possible-infinite-loop"
	default:
		return fmt.Sprintf("verdict(%d)", uint8(v))
	}
}

// Report contains the details of a validation run.
type Report struct {
	Verdict Verdict
	Silent  bool // the play routine did not write any register

	Song        uint16
	Init        cpu.Result
	Frames      int                 // number of play routine calls that returned
	FailedFrame int                 // frame of the failing routine, 0 for init
	Failure     *cpu.Result         // result of the failing routine
	Writes      []cpu.RegisterWrite // all register writes, init writes are tagged with frame 0
}

// Validate loads the image into an emulator, calls the init routine once
// with the song number in the accumulator and the play routine once per
// frame. A failed validation is reported by the verdict, an error is only
// returned if the emulation can not be set up.
func Validate(logger *log.Logger, image *output.Image, opts options.Validation) (*Report, error) {
	config := cpu.NewConfig(opts)
	if err := cpu.ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("validating emulator configuration: %w", err)
	}

	if err := cpu.ValidateImage(config, image.Load, len(image.Data)); err != nil {
		return nil, fmt.Errorf("validating image placement: %w", err)
	}

	c := cpu.New(config)
	if err := c.Load(image.Load, image.Data); err != nil {
		return nil, fmt.Errorf("loading image: %w", err)
	}

	song := opts.Song
	if song == 0 {
		song = image.StartSong
	}
	if song == 0 {
		song = 1
	}
	report := &Report{
		Song: song,
	}

	c.SetFrame(0)
	report.Init = c.RunRoutine(image.Init, byte(song-1), opts.MaxSteps)
	if report.Init.TerminatedBy != cpu.Return {
		report.fail(logger, 0, report.Init)
		report.Writes = c.Writes()
		return report, nil
	}

	var playWrites int
	if image.Play != 0 {
		for frame := 1; frame <= opts.Frames; frame++ {
			c.SetFrame(frame)
			result := c.RunRoutine(image.Play, 0, opts.MaxSteps)
			playWrites += len(result.Writes)
			if result.TerminatedBy != cpu.Return {
				report.fail(logger, frame, result)
				break
			}
			report.Frames++
		}

		if playWrites == 0 && report.Verdict == Ok {
			report.Silent = true
			logger.Warn("Play routine did not write any register",
				log.Hex("play", image.Play),
				log.Int("frames", report.Frames))
		}
	}

	report.Writes = c.Writes()
	logger.Info("Validation finished",
		log.Stringer("verdict", report.Verdict),
		log.Int("frames", report.Frames),
		log.Int("writes", len(report.Writes)))
	return report, nil
}

func (r *Report) fail(logger *log.Logger, frame int, result cpu.Result) {
	r.Verdict = verdictOf(result.TerminatedBy)
	r.FailedFrame = frame
	r.Failure = &result

	if result.Err != nil {
		logger.Warn("Validation failed",
			log.Stringer("verdict", r.Verdict),
			log.Int("frame", frame),
			log.Hex("pc", result.PC),
			log.Err(result.Err))
		return
	}
	logger.Warn("Validation failed",
		log.Stringer("verdict", r.Verdict),
		log.Stringer("termination", result.TerminatedBy),
		log.Int("frame", frame),
		log.Hex("pc", result.PC))
}

func verdictOf(termination cpu.Termination) Verdict {
	switch termination {
	case cpu.Return:
		return Ok
	case cpu.InvalidJump:
		return CrashSignature
	default:
		return PossibleInfiniteLoop
	}
}
