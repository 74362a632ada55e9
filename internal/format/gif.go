package format

import (
	"fmt"
)

var gifFileHeader = FileHeader{
	Name:        "gif",
	Ext:         "gif",
	Description: "Graphics Interchange Format",
	MIME:        []string{"gif"},
	Signatures: [][]byte{
		[]byte("GIF87a"),
		[]byte("GIF89a"),
	},
	Parse:    ScanGIF,
	Fallback: DecodeGIF,
}

// Section indicators.
const (
	sExtension       = 0x21
	sImageDescriptor = 0x2C
	sTrailer         = 0x3B
)

// Extensions.
const (
	eText           = 0x01 // Plain Text
	eGraphicControl = 0xF9 // Graphic Control
	eComment        = 0xFE // Comment
	eApplication    = 0xFF // Application
)

// Masks
const (
	// Fields.
	fColorTable         = 1 << 7
	fInterlace          = 1 << 6
	fColorTableBitsMask = 7
)

type gifDecoder struct {
	r *Reader

	width, height       int
	imageFields         byte
	hasGlobalColorTable bool // true if the global color table is present
	dataParsed          bool // true if the image descriptor has been parsed

	tmp [1024]byte // must be at least 768 so we can read color table
}

// ScanGIF walks the block structure up to the trailer without decoding the
// LZW data. The offset is only known once the trailer is reached.
func ScanGIF(r *Reader) (uint64, error) {
	d := gifDecoder{r: r}

	if err := d.readHeaderAndScreenDescriptor(); err != nil {
		return 0, err
	}

	for {
		c, err := readU8(d.r)
		if err != nil {
			return 0, fmt.Errorf("gif: reading frames: %w", err)
		}
		switch c {
		case sExtension:
			if err = d.readExtension(); err != nil {
				return 0, err
			}
		case sImageDescriptor:
			if err = d.readImageDescriptor(); err != nil {
				return 0, err
			}
		case sTrailer:
			if !d.dataParsed {
				return 0, violation("gif", 0, "missing image data")
			}
			return uint64(r.Offset()), nil
		default:
			return 0, violation("gif", 0, "unknown block type: 0x%.2x", c)
		}
	}
}

func (d *gifDecoder) readExtension() error {
	extension, err := readU8(d.r)
	if err != nil {
		return fmt.Errorf("gif: reading extension: %w", err)
	}
	size := 0
	switch extension {
	case eText:
		size = 13
	case eGraphicControl:
		return d.readGraphicControl()
	case eComment:
		// nothing to do but read the data.
	case eApplication:
		b, err := readU8(d.r)
		if err != nil {
			return fmt.Errorf("gif: reading extension: %w", err)
		}
		// The spec requires size be 11, but Adobe sometimes uses 10.
		size = int(b)
	default:
		return violation("gif", 0, "unknown extension 0x%.2x", extension)
	}
	if size > 0 {
		if err := d.r.ReadFull(d.tmp[:size]); err != nil {
			return fmt.Errorf("gif: reading extension: %w", err)
		}
	}

	for {
		n, err := d.readBlock()
		if err != nil {
			return fmt.Errorf("gif: reading extension: %w", err)
		}
		if n == 0 {
			return nil
		}
	}
}

func (d *gifDecoder) readGraphicControl() error {
	if err := d.r.ReadFull(d.tmp[:6]); err != nil {
		return fmt.Errorf("gif: can't read graphic control: %w", err)
	}
	if d.tmp[0] != 4 {
		return violation("gif", 0, "invalid graphic control extension block size: %d", d.tmp[0])
	}
	if d.tmp[5] != 0 {
		return violation("gif", 0, "invalid graphic control extension block terminator: %d", d.tmp[5])
	}
	return nil
}

func (d *gifDecoder) parseImageDescriptorBounds() error {
	if err := d.r.ReadFull(d.tmp[:9]); err != nil {
		return fmt.Errorf("gif: can't read image descriptor: %w", err)
	}
	left := int(d.tmp[0]) + int(d.tmp[1])<<8
	top := int(d.tmp[2]) + int(d.tmp[3])<<8
	width := int(d.tmp[4]) + int(d.tmp[5])<<8
	height := int(d.tmp[6]) + int(d.tmp[7])<<8
	d.imageFields = d.tmp[8]

	// Each frame must fit within the logical screen. left and top are never
	// negative, so only the far corner is compared.
	if left+width > d.width || top+height > d.height {
		return violation("gif", 0, "frame bounds larger than image bounds")
	}
	return nil
}

func (d *gifDecoder) readImageDescriptor() error {
	if err := d.parseImageDescriptorBounds(); err != nil {
		return err
	}

	useLocalColorTable := d.imageFields&fColorTable != 0
	if useLocalColorTable {
		if err := d.skipColorTable(d.imageFields); err != nil {
			return err
		}
	} else if !d.hasGlobalColorTable {
		return violation("gif", 0, "no color table")
	}

	litWidth, err := readU8(d.r)
	if err != nil {
		return fmt.Errorf("gif: reading image data: %w", err)
	}
	if litWidth < 2 || litWidth > 8 {
		return violation("gif", 0, "pixel size in decode out of range: %d", litWidth)
	}

	// skip LZW encoded sub-blocks
	for {
		size, err := readU8(d.r)
		if err != nil {
			return fmt.Errorf("gif: reading image data: %w", err)
		}
		if size == 0 {
			break
		}
		if err := d.r.Skip(int64(size)); err != nil {
			return err
		}
	}

	d.dataParsed = true
	return nil
}

func (d *gifDecoder) readBlock() (int, error) {
	n, err := readU8(d.r)
	if n == 0 || err != nil {
		return 0, err
	}
	if err := d.r.ReadFull(d.tmp[:n]); err != nil {
		return 0, err
	}
	return int(n), nil
}

func (d *gifDecoder) readHeaderAndScreenDescriptor() error {
	if err := d.r.ReadFull(d.tmp[:13]); err != nil {
		return fmt.Errorf("gif: reading header: %w", err)
	}
	version := string(d.tmp[:6])
	if version != "GIF87a" && version != "GIF89a" {
		return violation("gif", 0, "can't recognize format %q", version)
	}

	d.width = int(d.tmp[6]) + int(d.tmp[7])<<8
	d.height = int(d.tmp[8]) + int(d.tmp[9])<<8

	if fields := d.tmp[10]; fields&fColorTable != 0 {
		d.hasGlobalColorTable = true
		if err := d.skipColorTable(fields); err != nil {
			return err
		}
	}
	// d.tmp[12] is the Pixel Aspect Ratio, which is ignored.
	return nil
}

func (d *gifDecoder) skipColorTable(fields byte) error {
	n := 1 << (1 + uint(fields&fColorTableBitsMask))
	if err := d.r.ReadFull(d.tmp[:3*n]); err != nil {
		return fmt.Errorf("gif: reading color table: %w", err)
	}
	return nil
}
