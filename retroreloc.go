// Package retroreloc relocates 6502 music player programs to a new address.
// Pointers are discovered by tracing the code and scanning the data of the
// program, rewritten for the compacted layout and the result is assembled
// into a loadable image that can be validated by emulating its routines.
package retroreloc

import (
	"context"
	"io"

	"github.com/retroenv/retroreloc/internal/config"
	"github.com/retroenv/retroreloc/internal/options"
	"github.com/retroenv/retroreloc/internal/output"
	"github.com/retroenv/retroreloc/internal/pipeline"
	"github.com/retroenv/retroreloc/internal/program"
	"github.com/retroenv/retrogolib/log"
)

// Types of the relocation input.
type (
	Program         = program.Program
	Section         = program.Section
	TableDescriptor = program.TableDescriptor
	Metadata        = program.Metadata
	StructuralError = program.StructuralError
)

// section kinds.
const (
	Code      = program.Code
	Data      = program.Data
	EntryStub = program.EntryStub
)

// Types of the relocation settings and results.
type (
	Options      = options.Relocation
	Contract     = output.Contract
	HeaderLayout = output.HeaderLayout
	Image        = output.Image
	Result       = pipeline.Result
	Profile      = config.Profile
)

// output formats.
const (
	Raw    = output.Raw
	PRG    = output.PRG
	Header = output.Header
)

// NewOptions returns the default options for a relocation to the destination address.
func NewOptions(destination uint16) Options {
	return options.NewRelocation(destination)
}

// PSIDLayout returns the header layout of a PSID version 2 file.
func PSIDLayout() HeaderLayout {
	return output.PSIDLayout()
}

// LoadProfile reads a YAML player profile.
func LoadProfile(reader io.Reader) (*Profile, error) {
	return config.LoadProfile(reader)
}

// NewLogger returns a logger for the relocation.
func NewLogger(debug, quiet bool) *log.Logger {
	return config.CreateLogger(debug, quiet)
}

// Relocate relocates the program to the destination set in the options and
// assembles it into the container described by the contract.
func Relocate(ctx context.Context, logger *log.Logger, prog *Program, opts Options,
	contract Contract) (*Result, error) {

	return pipeline.New(logger).Execute(ctx, prog, opts, contract)
}
