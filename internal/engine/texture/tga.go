package texture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// TGA errors.
var (
	ErrTGATruncated   = errors.New("TGA data truncated")
	ErrTGAUnsupported = errors.New("unsupported TGA variant")
)

// TGA image type constants.
const (
	TGATypeTrueColor    = 2  // Uncompressed true-color
	TGATypeGray         = 3  // Uncompressed grayscale
	TGATypeTrueColorRLE = 10 // RLE compressed true-color
	TGATypeGrayRLE      = 11 // RLE compressed grayscale
)

const tgaHeaderSize = 18

type tgaHeader struct {
	idLength     int
	colorMapType uint8
	imageType    uint8
	width        int
	height       int
	bpp          int
	descriptor   uint8
}

func parseTGAHeader(data []byte) (tgaHeader, error) {
	if len(data) < tgaHeaderSize {
		return tgaHeader{}, fmt.Errorf("header: %w", ErrTGATruncated)
	}
	h := tgaHeader{
		idLength:     int(data[0]),
		colorMapType: data[1],
		imageType:    data[2],
		width:        int(data[12]) | int(data[13])<<8,
		height:       int(data[14]) | int(data[15])<<8,
		bpp:          int(data[16]),
		descriptor:   data[17],
	}

	if h.colorMapType != 0 {
		return h, fmt.Errorf("color-mapped: %w", ErrTGAUnsupported)
	}
	switch h.imageType {
	case TGATypeTrueColor, TGATypeTrueColorRLE:
		if h.bpp != 24 && h.bpp != 32 {
			return h, fmt.Errorf("true-color bit depth %d: %w", h.bpp, ErrTGAUnsupported)
		}
	case TGATypeGray, TGATypeGrayRLE:
		if h.bpp != 8 {
			return h, fmt.Errorf("grayscale bit depth %d: %w", h.bpp, ErrTGAUnsupported)
		}
	default:
		return h, fmt.Errorf("image type %d: %w", h.imageType, ErrTGAUnsupported)
	}
	return h, nil
}

func (h tgaHeader) rle() bool {
	return h.imageType == TGATypeTrueColorRLE || h.imageType == TGATypeGrayRLE
}

// DecodeTGA decodes an uncompressed or RLE TGA image (24/32-bit true-color
// or 8-bit grayscale). Both row orders and right-to-left pixels are handled.
func DecodeTGA(data []byte) (*image.RGBA, error) {
	h, err := parseTGAHeader(data)
	if err != nil {
		return nil, err
	}

	offset := tgaHeaderSize + h.idLength
	if offset > len(data) {
		return nil, fmt.Errorf("image ID: %w", ErrTGATruncated)
	}

	d := &tgaDecoder{
		img:         image.NewRGBA(image.Rect(0, 0, h.width, h.height)),
		src:         data[offset:],
		width:       h.width,
		height:      h.height,
		pixelSize:   h.bpp / 8,
		topToBottom: h.descriptor&0x20 != 0,
		rightToLeft: h.descriptor&0x10 != 0,
	}

	if h.rle() {
		err = d.decodeRLE()
	} else {
		err = d.decodeRaw()
	}
	if err != nil {
		return nil, err
	}
	return d.img, nil
}

type tgaDecoder struct {
	img         *image.RGBA
	src         []byte
	pos         int
	width       int
	height      int
	pixelSize   int
	topToBottom bool
	rightToLeft bool
}

// readPixel reads one BGR(A) or gray pixel from the stream.
func (d *tgaDecoder) readPixel() (color.RGBA, bool) {
	if d.pos+d.pixelSize > len(d.src) {
		return color.RGBA{}, false
	}
	p := d.src[d.pos : d.pos+d.pixelSize]
	d.pos += d.pixelSize

	switch d.pixelSize {
	case 1:
		return color.RGBA{R: p[0], G: p[0], B: p[0], A: 255}, true
	case 3:
		return color.RGBA{R: p[2], G: p[1], B: p[0], A: 255}, true
	default:
		return color.RGBA{R: p[2], G: p[1], B: p[0], A: p[3]}, true
	}
}

// put stores the n-th pixel in file order at its image position.
func (d *tgaDecoder) put(n int, c color.RGBA) {
	x, y := n%d.width, n/d.width
	if d.rightToLeft {
		x = d.width - 1 - x
	}
	if !d.topToBottom {
		y = d.height - 1 - y
	}
	d.img.SetRGBA(x, y, c)
}

func (d *tgaDecoder) decodeRaw() error {
	total := d.width * d.height
	if len(d.src) < total*d.pixelSize {
		return fmt.Errorf("pixel data: %w", ErrTGATruncated)
	}
	for n := 0; n < total; n++ {
		c, _ := d.readPixel()
		d.put(n, c)
	}
	return nil
}

// decodeRLE decodes run-length packets. A stream that ends early leaves the
// remaining pixels transparent.
func (d *tgaDecoder) decodeRLE() error {
	total := d.width * d.height
	n := 0
	for n < total && d.pos < len(d.src) {
		packet := d.src[d.pos]
		d.pos++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			c, ok := d.readPixel()
			if !ok {
				break
			}
			for i := 0; i < count && n < total; i++ {
				d.put(n, c)
				n++
			}
			continue
		}

		for i := 0; i < count && n < total; i++ {
			c, ok := d.readPixel()
			if !ok {
				break
			}
			d.put(n, c)
			n++
		}
	}
	return nil
}
