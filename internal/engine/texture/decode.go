// Package texture decodes texture images referenced by materials.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"
)

// ErrUnknownFormat is returned when the image type cannot be determined.
var ErrUnknownFormat = errors.New("unknown image format")

// Decode decodes image data. The format is sniffed from the content;
// TGA, which has no magic number, is recognized by the name's extension.
func Decode(data []byte, name string) (*image.RGBA, error) {
	kind, _ := filetype.Match(data)

	var (
		img image.Image
		err error
	)
	switch kind.Extension {
	case "png", "jpg", "gif":
		img, _, err = image.Decode(bytes.NewReader(data))
	case "bmp":
		img, err = bmp.Decode(bytes.NewReader(data))
	case "webp":
		img, err = webp.Decode(bytes.NewReader(data))
	default:
		if strings.EqualFold(filepath.Ext(name), ".tga") {
			return DecodeTGA(data)
		}
		return nil, fmt.Errorf("%s: %w", name, ErrUnknownFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s as %s: %w", name, kind.Extension, err)
	}
	return ImageToRGBA(img), nil
}

// Load reads and decodes an image file.
func Load(path string) (*image.RGBA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data, path)
}

// ImageToRGBA converts any image.Image to *image.RGBA with origin (0,0).
func ImageToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// FlipVertical mirrors an image top to bottom in place.
func FlipVertical(img *image.RGBA) {
	h := img.Rect.Dy()
	row := make([]byte, img.Stride)
	for y := 0; y < h/2; y++ {
		top := img.Pix[y*img.Stride : (y+1)*img.Stride]
		bot := img.Pix[(h-1-y)*img.Stride : (h-y)*img.Stride]
		copy(row, top)
		copy(top, bot)
		copy(bot, row)
	}
}
