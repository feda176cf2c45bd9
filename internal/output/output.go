// Package output assembles relocated sections into a loadable image.
package output

import (
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/retroenv/retroreloc/internal/program"
	"golang.org/x/crypto/blake2b"
)

// ErrNoSections is returned when a program without sections is assembled.
var ErrNoSections = errors.New("program has no sections")

// Format defines the container of the image.
type Format uint8

// output formats.
const (
	Raw    Format = iota // image data only
	PRG                  // 2 byte little endian load address followed by the data
	Header               // header described by a HeaderLayout followed by the data
)

func (f Format) String() string {
	switch f {
	case Raw:
		return "raw"
	case PRG:
		return "prg"
	case Header:
		return "header"
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

// Contract defines the container format of the assembled image.
type Contract struct {
	Format Format
	Layout HeaderLayout // used for the Header format
	Fill   byte         // value of the bytes between sections
}

// Image is an assembled program image.
type Image struct {
	Load      uint16
	Init      uint16
	Play      uint16
	Songs     uint16
	StartSong uint16

	Header []byte // all bytes in front of the data
	Data   []byte // memory contents starting at the load address

	Checksum uint32   // CRC32 of the complete file
	Digest   [32]byte // blake2b-256 of the complete file
}

// Bytes returns the complete file contents.
func (i *Image) Bytes() []byte {
	buf := make([]byte, 0, len(i.Header)+len(i.Data))
	buf = append(buf, i.Header...)
	return append(buf, i.Data...)
}

// End returns the first address after the image data.
func (i *Image) End() int {
	return int(i.Load) + len(i.Data)
}

// Assemble concatenates the sections of the relocated program in address
// order and wraps them into the container of the contract. Holes between
// sections are filled with the fill byte.
func Assemble(prog *program.Program, contract Contract) (*Image, error) {
	if len(prog.Sections) == 0 {
		return nil, ErrNoSections
	}

	start, end := prog.Span()
	data := make([]byte, end-int(start))
	for i := range data {
		data[i] = contract.Fill
	}
	for _, section := range prog.SortedSections() {
		copy(data[int(section.Address)-int(start):], section.Data)
	}

	image := &Image{
		Load:      start,
		Init:      prog.Init,
		Play:      prog.Play,
		Songs:     prog.Songs,
		StartSong: prog.StartSong,
		Data:      data,
	}
	if image.Songs == 0 {
		image.Songs = 1
	}
	if image.StartSong == 0 || image.StartSong > image.Songs {
		image.StartSong = 1
	}

	switch contract.Format {
	case Raw:

	case PRG:
		image.Header = []byte{byte(start), byte(start >> 8)}

	case Header:
		if err := contract.Layout.validate(); err != nil {
			return nil, err
		}
		image.Header = contract.Layout.encode(headerValues{
			load:       image.Load,
			init:       image.Init,
			play:       image.Play,
			songs:      image.Songs,
			startSong:  image.StartSong,
			title:      prog.Metadata.Title,
			author:     prog.Metadata.Author,
			released:   prog.Metadata.Released,
			dataOffset: contract.Layout.Size,
		})

	default:
		return nil, fmt.Errorf("unsupported output format '%s'", contract.Format)
	}

	file := image.Bytes()
	image.Checksum = crc32.ChecksumIEEE(file)
	image.Digest = blake2b.Sum256(file)
	return image, nil
}
