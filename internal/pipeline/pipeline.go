// Package pipeline orchestrates the relocation workflow stages.
package pipeline

import (
	"context"
	"fmt"

	"github.com/retroenv/retroreloc/internal/options"
	"github.com/retroenv/retroreloc/internal/output"
	"github.com/retroenv/retroreloc/internal/patch"
	"github.com/retroenv/retroreloc/internal/program"
	"github.com/retroenv/retroreloc/internal/relocation"
	"github.com/retroenv/retroreloc/internal/scanner"
	"github.com/retroenv/retroreloc/internal/verification"
	"github.com/retroenv/retrogolib/log"
)

// Pipeline orchestrates the complete relocation workflow.
type Pipeline struct {
	logger  *log.Logger
	patcher *patch.Engine
}

// Result contains the outcome of all pipeline stages.
type Result struct {
	Image  *output.Image
	Layout *relocation.Layout
	Scan   *scanner.Result
	Patch  patch.Report

	Validation *verification.Report // nil if validation is disabled
	Original   *verification.Report // validation of the unrelocated program, if requested
	TraceError error                // difference between the original and relocated register writes
}

// New creates a new relocation pipeline.
func New(logger *log.Logger) *Pipeline {
	return &Pipeline{
		logger:  logger,
		patcher: patch.New(logger),
	}
}

// Execute relocates the program to the destination of the layout options
// and assembles the image using the output contract. The input program is
// not modified. A failed validation does not return an error, its verdict is
// part of the result.
func (p *Pipeline) Execute(ctx context.Context, prog *program.Program, opts options.Relocation,
	contract output.Contract) (*Result, error) {

	if err := prog.Validate(); err != nil {
		return nil, fmt.Errorf("validating program: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scanResult, err := scanner.New(p.logger, opts.Scan).Scan(prog)
	if err != nil {
		return nil, fmt.Errorf("scanning pointers: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	layout, err := relocation.Plan(p.logger, prog.Sections, opts.Layout)
	if err != nil {
		return nil, fmt.Errorf("planning layout: %w", err)
	}

	patchReport, err := p.patcher.Apply(layout, scanResult.Candidates)
	if err != nil {
		return nil, fmt.Errorf("patching pointers: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	relocated, err := relocateProgram(prog, layout)
	if err != nil {
		return nil, err
	}
	image, err := output.Assemble(relocated, contract)
	if err != nil {
		return nil, fmt.Errorf("assembling image: %w", err)
	}

	result := &Result{
		Image:  image,
		Layout: layout,
		Scan:   scanResult,
		Patch:  patchReport,
	}
	p.printInfo(result)

	if opts.Validation.Enabled {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := p.validate(prog, opts.Validation, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// relocateProgram returns the program that uses the relocated sections and
// entry addresses.
func relocateProgram(prog *program.Program, layout *relocation.Layout) (*program.Program, error) {
	initAddress, ok := layout.Map.Translate(prog.Init)
	if !ok {
		return nil, fmt.Errorf("init address $%04X is not part of a section", prog.Init)
	}

	var play uint16
	if prog.Play != 0 {
		play, ok = layout.Map.Translate(prog.Play)
		if !ok {
			return nil, fmt.Errorf("play address $%04X is not part of a section", prog.Play)
		}
	}

	return &program.Program{
		Sections:  layout.Sections,
		Metadata:  prog.Metadata,
		Init:      initAddress,
		Play:      play,
		Songs:     prog.Songs,
		StartSong: prog.StartSong,
	}, nil
}

// validate emulates the relocated image and optionally the original program
// and compares the register writes of both.
func (p *Pipeline) validate(prog *program.Program, opts options.Validation, result *Result) error {
	report, err := verification.Validate(p.logger, result.Image, opts)
	if err != nil {
		return fmt.Errorf("validating image: %w", err)
	}
	result.Validation = report

	if !opts.CompareOriginal {
		return nil
	}

	original, err := output.Assemble(prog, output.Contract{Format: output.Raw})
	if err != nil {
		return fmt.Errorf("assembling original image: %w", err)
	}
	result.Original, err = verification.Validate(p.logger, original, opts)
	if err != nil {
		return fmt.Errorf("validating original image: %w", err)
	}

	result.TraceError = verification.CompareTraces(p.logger, result.Original.Writes, report.Writes)
	if result.TraceError != nil {
		p.logger.Warn("Relocated program behaves differently", log.Err(result.TraceError))
	} else {
		p.logger.Info("Relocated program matches original register writes")
	}
	return nil
}

// printInfo prints a summary of the conversion.
func (p *Pipeline) printInfo(result *Result) {
	p.logger.Info("Program relocated",
		log.Hex("load", result.Image.Load),
		log.Hex("init", result.Image.Init),
		log.Hex("play", result.Image.Play),
		log.Int("size", len(result.Image.Data)),
		log.Int("candidates", len(result.Scan.Candidates)),
		log.Int("conflicts", len(result.Scan.Conflicts)),
		log.Int("patched", result.Patch.Applied),
		log.Int("unmapped", result.Patch.Unmapped),
		log.Hex("crc32", result.Image.Checksum))

	if len(result.Patch.Overflowed) > 0 {
		p.logger.Warn("Relocated branches out of range",
			log.Int("count", len(result.Patch.Overflowed)))
	}
}
