package output

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrInvalidLayout is returned for a header layout whose fields do not fit the header.
var ErrInvalidLayout = errors.New("invalid header layout")

// FieldValue defines which value is written into a header field.
type FieldValue uint8

// header field values.
const (
	ConstantValue   FieldValue = iota // Field.Value
	LoadValue                         // load address, 0 if the load address is embedded
	InitValue                         // init routine address
	PlayValue                         // play routine address
	SongsValue                        // number of songs
	StartSongValue                    // start song, 1 based
	DataOffsetValue                   // offset of the data in the file
)

// Field defines a numeric header field.
type Field struct {
	Offset int
	Width  int // 1, 2 or 4 bytes
	Value  FieldValue
	Const  uint32 // value of a constant field
}

// StringValue defines which metadata string is written into a header field.
type StringValue uint8

// header string values.
const (
	TitleString StringValue = iota
	AuthorString
	ReleasedString
)

// StringField defines a fixed width, zero padded string field.
type StringField struct {
	Offset int
	Width  int
	Value  StringValue
}

// HeaderLayout describes a binary file header in front of the image data.
type HeaderLayout struct {
	Name      string
	Size      int
	Magic     []byte // written at offset 0
	ByteOrder binary.ByteOrder
	Fields    []Field
	Strings   []StringField
	Pad       byte // value of all bytes not covered by a field

	// EmbedLoadAddress writes the load address little endian in front of the
	// data instead of into the load field.
	EmbedLoadAddress bool
}

// PSIDLayout returns the layout of a PSID version 2 header.
func PSIDLayout() HeaderLayout {
	return HeaderLayout{
		Name:      "PSID",
		Size:      0x7C,
		Magic:     []byte("PSID"),
		ByteOrder: binary.BigEndian,
		Fields: []Field{
			{Offset: 0x04, Width: 2, Value: ConstantValue, Const: 2}, // version
			{Offset: 0x06, Width: 2, Value: DataOffsetValue},
			{Offset: 0x08, Width: 2, Value: LoadValue},
			{Offset: 0x0A, Width: 2, Value: InitValue},
			{Offset: 0x0C, Width: 2, Value: PlayValue},
			{Offset: 0x0E, Width: 2, Value: SongsValue},
			{Offset: 0x10, Width: 2, Value: StartSongValue},
			{Offset: 0x12, Width: 4, Value: ConstantValue}, // speed
			{Offset: 0x76, Width: 2, Value: ConstantValue}, // flags
		},
		Strings: []StringField{
			{Offset: 0x16, Width: 32, Value: TitleString},
			{Offset: 0x36, Width: 32, Value: AuthorString},
			{Offset: 0x56, Width: 32, Value: ReleasedString},
		},
		EmbedLoadAddress: true,
	}
}

func (l HeaderLayout) validate() error {
	if l.Size <= 0 || len(l.Magic) > l.Size {
		return fmt.Errorf("%w: size %d does not fit the magic", ErrInvalidLayout, l.Size)
	}
	if l.ByteOrder == nil {
		return fmt.Errorf("%w: missing byte order", ErrInvalidLayout)
	}
	for _, field := range l.Fields {
		switch field.Width {
		case 1, 2, 4:
		default:
			return fmt.Errorf("%w: field at offset $%02X has width %d", ErrInvalidLayout, field.Offset, field.Width)
		}
		if field.Offset < len(l.Magic) || field.Offset+field.Width > l.Size {
			return fmt.Errorf("%w: field at offset $%02X is outside of the header", ErrInvalidLayout, field.Offset)
		}
	}
	for _, field := range l.Strings {
		if field.Width <= 0 || field.Offset < len(l.Magic) || field.Offset+field.Width > l.Size {
			return fmt.Errorf("%w: string at offset $%02X is outside of the header", ErrInvalidLayout, field.Offset)
		}
	}
	return nil
}

// headerValues contains the values that header fields reference.
type headerValues struct {
	load, init, play uint16
	songs, startSong uint16
	title, author    string
	released         string
	dataOffset       int
}

func (l HeaderLayout) encode(values headerValues) []byte {
	buf := make([]byte, l.Size)
	for i := range buf {
		buf[i] = l.Pad
	}
	copy(buf, l.Magic)

	for _, field := range l.Fields {
		value := field.Const
		switch field.Value {
		case LoadValue:
			value = uint32(values.load)
			if l.EmbedLoadAddress {
				value = 0
			}
		case InitValue:
			value = uint32(values.init)
		case PlayValue:
			value = uint32(values.play)
		case SongsValue:
			value = uint32(values.songs)
		case StartSongValue:
			value = uint32(values.startSong)
		case DataOffsetValue:
			value = uint32(values.dataOffset)
		case ConstantValue:
		}

		b := buf[field.Offset : field.Offset+field.Width]
		switch field.Width {
		case 1:
			b[0] = byte(value)
		case 2:
			l.ByteOrder.PutUint16(b, uint16(value))
		case 4:
			l.ByteOrder.PutUint32(b, value)
		}
	}

	for _, field := range l.Strings {
		var s string
		switch field.Value {
		case TitleString:
			s = values.title
		case AuthorString:
			s = values.author
		case ReleasedString:
			s = values.released
		}
		b := buf[field.Offset : field.Offset+field.Width]
		for i := range b {
			b[i] = 0
		}
		copy(b, s)
	}

	if l.EmbedLoadAddress {
		buf = binary.LittleEndian.AppendUint16(buf, values.load)
	}
	return buf
}
