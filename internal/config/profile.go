package config

import (
	"errors"
	"fmt"
	"io"

	"github.com/retroenv/retroreloc/internal/options"
	"github.com/retroenv/retroreloc/internal/program"
	"gopkg.in/yaml.v3"
)

// Profile contains player specific relocation settings.
type Profile struct {
	Name           string          `yaml:"name"`
	PageBand       *PageBand       `yaml:"page_band"`
	Window         *options.Window `yaml:"window"`
	Reserved       []options.Range `yaml:"reserved"`
	StubAddress    uint16          `yaml:"stub_address"`
	ImmediatePairs *bool           `yaml:"immediate_pairs"`
	ScanCodeGaps   bool            `yaml:"scan_code_gaps"`
	Entries        []uint16        `yaml:"entries"`
	Tables         []Table         `yaml:"tables"`
}

// PageBand is the profile representation of the data scan page band.
type PageBand struct {
	Low  uint8 `yaml:"low"`
	High uint8 `yaml:"high"`
}

// Table describes a known pointer table of the player.
type Table struct {
	Name      string `yaml:"name"`
	Address   uint16 `yaml:"address"`
	HiAddress uint16 `yaml:"hi_address"`
	Stride    int    `yaml:"stride"`
	Count     int    `yaml:"count"`
}

// LoadProfile reads a YAML player profile. Unknown fields are rejected.
func LoadProfile(reader io.Reader) (*Profile, error) {
	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)

	var profile Profile
	if err := decoder.Decode(&profile); err != nil {
		if errors.Is(err, io.EOF) {
			return &profile, nil
		}
		return nil, fmt.Errorf("decoding profile: %w", err)
	}

	if err := profile.validate(); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (p *Profile) validate() error {
	if p.PageBand != nil && p.PageBand.Low > p.PageBand.High {
		return fmt.Errorf("profile '%s': page band low $%02X is above high $%02X",
			p.Name, p.PageBand.Low, p.PageBand.High)
	}
	for _, reserved := range p.Reserved {
		if reserved.Start > reserved.End {
			return fmt.Errorf("profile '%s': invalid reserved range %s", p.Name, reserved)
		}
	}
	for _, table := range p.Tables {
		if table.Count <= 0 {
			return fmt.Errorf("profile '%s': table '%s' has no entries", p.Name, table.Name)
		}
	}
	return nil
}

// Apply sets the profile settings in the options and adds the known tables
// to the program.
func (p *Profile) Apply(opts *options.Relocation, prog *program.Program) {
	if p.PageBand != nil {
		opts.Scan.PageBand = options.PageBand{Low: p.PageBand.Low, High: p.PageBand.High}
	}
	if p.ImmediatePairs != nil {
		opts.Scan.ImmediatePairs = *p.ImmediatePairs
	}
	if p.ScanCodeGaps {
		opts.Scan.ScanCodeGaps = true
	}
	opts.Scan.Entries = append(opts.Scan.Entries, p.Entries...)

	if len(p.Reserved) > 0 {
		opts.Layout.Reserved = append([]options.Range(nil), p.Reserved...)
	}
	if p.Window != nil {
		opts.Validation.Window = *p.Window
	}
	if p.StubAddress != 0 {
		opts.Validation.StubAddress = p.StubAddress
	}

	for _, table := range p.Tables {
		stride := table.Stride
		if stride == 0 {
			stride = 1
			if table.HiAddress == 0 {
				stride = 2
			}
		}
		prog.Tables = append(prog.Tables, program.TableDescriptor{
			Name:      table.Name,
			Address:   table.Address,
			HiAddress: table.HiAddress,
			Stride:    stride,
			Count:     table.Count,
		})
	}
}
