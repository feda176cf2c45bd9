package m6502

import (
	"fmt"

	"github.com/retroenv/retroreloc/internal/consts"
	"github.com/retroenv/retrogolib/arch/cpu/m6502"
)

const (
	// SIDBaseAddress is the address of the first sound chip register.
	SIDBaseAddress = 0xD400
	// SIDRegisterCount is the number of sound chip registers.
	SIDRegisterCount = 0x20
)

const rw = m6502.ReadAccess | m6502.WriteAccess

// SIDAddressToName maps the sound chip registers to their names.
var SIDAddressToName = map[uint16]m6502.AccessModeConstant{
	0xD400: {Constant: "FRELO1", Mode: m6502.WriteAccess},
	0xD401: {Constant: "FREHI1", Mode: m6502.WriteAccess},
	0xD402: {Constant: "PWLO1", Mode: m6502.WriteAccess},
	0xD403: {Constant: "PWHI1", Mode: m6502.WriteAccess},
	0xD404: {Constant: "VCREG1", Mode: m6502.WriteAccess},
	0xD405: {Constant: "ATDCY1", Mode: m6502.WriteAccess},
	0xD406: {Constant: "SUREL1", Mode: m6502.WriteAccess},
	0xD407: {Constant: "FRELO2", Mode: m6502.WriteAccess},
	0xD408: {Constant: "FREHI2", Mode: m6502.WriteAccess},
	0xD409: {Constant: "PWLO2", Mode: m6502.WriteAccess},
	0xD40A: {Constant: "PWHI2", Mode: m6502.WriteAccess},
	0xD40B: {Constant: "VCREG2", Mode: m6502.WriteAccess},
	0xD40C: {Constant: "ATDCY2", Mode: m6502.WriteAccess},
	0xD40D: {Constant: "SUREL2", Mode: m6502.WriteAccess},
	0xD40E: {Constant: "FRELO3", Mode: m6502.WriteAccess},
	0xD40F: {Constant: "FREHI3", Mode: m6502.WriteAccess},
	0xD410: {Constant: "PWLO3", Mode: m6502.WriteAccess},
	0xD411: {Constant: "PWHI3", Mode: m6502.WriteAccess},
	0xD412: {Constant: "VCREG3", Mode: m6502.WriteAccess},
	0xD413: {Constant: "ATDCY3", Mode: m6502.WriteAccess},
	0xD414: {Constant: "SUREL3", Mode: m6502.WriteAccess},
	0xD415: {Constant: "CUTLO", Mode: m6502.WriteAccess},
	0xD416: {Constant: "CUTHI", Mode: m6502.WriteAccess},
	0xD417: {Constant: "RESON", Mode: m6502.WriteAccess},
	0xD418: {Constant: "SIGVOL", Mode: m6502.WriteAccess},
	0xD419: {Constant: "POTX", Mode: m6502.ReadAccess},
	0xD41A: {Constant: "POTY", Mode: m6502.ReadAccess},
	0xD41B: {Constant: "RANDOM", Mode: m6502.ReadAccess},
	0xD41C: {Constant: "ENV3", Mode: m6502.ReadAccess},
}

// VICAddressToName maps the video chip registers that players use for timing.
var VICAddressToName = map[uint16]m6502.AccessModeConstant{
	0xD011: {Constant: "SCROLY", Mode: rw},
	0xD012: {Constant: "RASTER", Mode: rw},
	0xD019: {Constant: "VICIRQ", Mode: rw},
	0xD01A: {Constant: "IRQMSK", Mode: rw},
	0xD020: {Constant: "EXTCOL", Mode: rw},
	0xD021: {Constant: "BGCOL0", Mode: rw},
}

// CIAAddressToName maps the timer registers of both interface adapters.
var CIAAddressToName = map[uint16]m6502.AccessModeConstant{
	0xDC04: {Constant: "TIMALO", Mode: rw},
	0xDC05: {Constant: "TIMAHI", Mode: rw},
	0xDC0D: {Constant: "CIAICR", Mode: rw},
	0xDC0E: {Constant: "CIACRA", Mode: rw},
	0xDD04: {Constant: "TI2ALO", Mode: rw},
	0xDD05: {Constant: "TI2AHI", Mode: rw},
	0xDD0D: {Constant: "CI2ICR", Mode: rw},
	0xDD0E: {Constant: "CI2CRA", Mode: rw},
}

// SystemAddressToName maps the processor port and the interrupt vectors.
var SystemAddressToName = map[uint16]m6502.AccessModeConstant{
	0x0001: {Constant: "R6510", Mode: rw},
	0x0314: {Constant: "CINV", Mode: rw},
	0x0315: {Constant: "CINV_HI", Mode: rw},
	0xFFFE: {Constant: "IRQ_VECTOR", Mode: rw},
	0xFFFF: {Constant: "IRQ_VECTOR_HI", Mode: rw},
}

// C64Registers provides the names of the hardware registers of the
// computer that hosts the player programs.
type C64Registers struct{}

// Constants builds the map of all known hardware constants that maps an address to a constant name.
func (C64Registers) Constants() (map[uint16]consts.Constant, error) {
	m := map[uint16]consts.Constant{}
	if err := mergeConstantsMaps(m, SIDAddressToName); err != nil {
		return nil, fmt.Errorf("processing sid constants: %w", err)
	}
	if err := mergeConstantsMaps(m, VICAddressToName); err != nil {
		return nil, fmt.Errorf("processing vic constants: %w", err)
	}
	if err := mergeConstantsMaps(m, CIAAddressToName); err != nil {
		return nil, fmt.Errorf("processing cia constants: %w", err)
	}
	if err := mergeConstantsMaps(m, SystemAddressToName); err != nil {
		return nil, fmt.Errorf("processing system constants: %w", err)
	}
	return m, nil
}

func mergeConstantsMaps(destination map[uint16]consts.Constant, source map[uint16]m6502.AccessModeConstant) error {
	for address, constantInfo := range source {
		translation := destination[address]
		translation.Address = address

		if constantInfo.Mode&m6502.ReadAccess != 0 {
			if translation.Read != "" {
				return fmt.Errorf("constant with address 0x%04X and read mode is defined twice", address)
			}
			translation.Read = constantInfo.Constant
		}

		if constantInfo.Mode&m6502.WriteAccess != 0 {
			if translation.Write != "" {
				return fmt.Errorf("constant with address 0x%04X and write mode is defined twice", address)
			}
			translation.Write = constantInfo.Constant
		}

		destination[address] = translation
	}
	return nil
}
