// Package consts manages the hardware register constants referenced by a player program.
package consts

import (
	"fmt"
	"sort"

	"github.com/retroenv/retrogolib/set"
)

// Constant represents a hardware register with separate names for read and write access.
type Constant struct {
	Address uint16
	Read    string
	Write   string
}

// Consts manages constants referenced by the scanned program.
type Consts struct {
	constants map[uint16]Constant
	used      set.Set[uint16]
}

type architecture interface {
	Constants() (map[uint16]Constant, error)
}

// New creates a new constants manager.
func New(ar architecture) (*Consts, error) {
	constants, err := ar.Constants()
	if err != nil {
		return nil, fmt.Errorf("getting constants: %w", err)
	}

	return &Consts{
		constants: constants,
		used:      set.New[uint16](),
	}, nil
}

// Get returns the constant for the given address.
func (c *Consts) Get(address uint16) (Constant, bool) {
	constant, ok := c.constants[address]
	return constant, ok
}

// Name returns the name of the register at the given address for the access
// type and marks the constant as used. An address of a known register that
// has no name for the access type is still reported as a register.
func (c *Consts) Name(address uint16, reads, writes bool) (string, bool) {
	constantInfo, ok := c.constants[address]
	if !ok {
		return "", false
	}

	c.used.Add(address)
	switch {
	case reads && constantInfo.Read != "":
		return constantInfo.Read, true
	case writes && constantInfo.Write != "":
		return constantInfo.Write, true
	default:
		return fmt.Sprintf("$%04X", address), true
	}
}

// MarkUsed marks the constant at the address as referenced.
func (c *Consts) MarkUsed(address uint16) {
	if _, ok := c.constants[address]; ok {
		c.used.Add(address)
	}
}

// IsUsed returns whether the constant at the address was referenced.
func (c *Consts) IsUsed(address uint16) bool {
	return c.used.Contains(address)
}

// Used returns all referenced constants ordered by address.
func (c *Consts) Used() []Constant {
	var constants []Constant
	for address, constantInfo := range c.constants {
		if c.used.Contains(address) {
			constants = append(constants, constantInfo)
		}
	}
	sort.Slice(constants, func(i, j int) bool {
		return constants[i].Address < constants[j].Address
	})
	return constants
}
