package texture

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

// tgaHeaderBytes builds an 18-byte TGA header.
func tgaHeaderBytes(imageType uint8, w, h int, bpp uint8, descriptor uint8) []byte {
	hdr := make([]byte, tgaHeaderSize)
	hdr[2] = imageType
	hdr[12] = byte(w)
	hdr[13] = byte(w >> 8)
	hdr[14] = byte(h)
	hdr[15] = byte(h >> 8)
	hdr[16] = bpp
	hdr[17] = descriptor
	return hdr
}

var (
	red   = color.RGBA{255, 0, 0, 255}
	green = color.RGBA{0, 255, 0, 255}
	blue  = color.RGBA{0, 0, 255, 255}
	white = color.RGBA{255, 255, 255, 255}
)

func TestDecodeTGA_BottomUp(t *testing.T) {
	// File order (bottom row first): red green / blue white, stored as BGR
	data := tgaHeaderBytes(TGATypeTrueColor, 2, 2, 24, 0)
	data = append(data,
		0, 0, 255, 0, 255, 0,
		255, 0, 0, 255, 255, 255,
	)

	img, err := DecodeTGA(data)
	require.NoError(t, err)
	assert.Equal(t, red, img.RGBAAt(0, 1))
	assert.Equal(t, green, img.RGBAAt(1, 1))
	assert.Equal(t, blue, img.RGBAAt(0, 0))
	assert.Equal(t, white, img.RGBAAt(1, 0))
}

func TestDecodeTGA_TopDownAlpha(t *testing.T) {
	data := tgaHeaderBytes(TGATypeTrueColor, 1, 2, 32, 0x20)
	data = append(data, 0, 0, 255, 128, 255, 0, 0, 255)

	img, err := DecodeTGA(data)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{255, 0, 0, 128}, img.RGBAAt(0, 0))
	assert.Equal(t, blue, img.RGBAAt(0, 1))
}

func TestDecodeTGA_RLE(t *testing.T) {
	// One run of 3 red pixels, then one raw green pixel, top-down
	data := tgaHeaderBytes(TGATypeTrueColorRLE, 2, 2, 24, 0x20)
	data = append(data,
		0x82, 0, 0, 255,
		0x00, 0, 255, 0,
	)

	img, err := DecodeTGA(data)
	require.NoError(t, err)
	assert.Equal(t, red, img.RGBAAt(0, 0))
	assert.Equal(t, red, img.RGBAAt(1, 0))
	assert.Equal(t, red, img.RGBAAt(0, 1))
	assert.Equal(t, green, img.RGBAAt(1, 1))
}

func TestDecodeTGA_Gray(t *testing.T) {
	data := tgaHeaderBytes(TGATypeGray, 2, 1, 8, 0x20|0x10)
	data = append(data, 10, 200)

	img, err := DecodeTGA(data)
	require.NoError(t, err)
	// Right-to-left: first stored pixel lands at x=1
	assert.Equal(t, color.RGBA{10, 10, 10, 255}, img.RGBAAt(1, 0))
	assert.Equal(t, color.RGBA{200, 200, 200, 255}, img.RGBAAt(0, 0))
}

func TestDecodeTGA_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"short header", []byte{0, 0, 2}, ErrTGATruncated},
		{"color mapped", func() []byte { h := tgaHeaderBytes(1, 1, 1, 8, 0); h[1] = 1; return h }(), ErrTGAUnsupported},
		{"16-bit", tgaHeaderBytes(TGATypeTrueColor, 1, 1, 16, 0), ErrTGAUnsupported},
		{"truncated pixels", append(tgaHeaderBytes(TGATypeTrueColor, 2, 2, 24, 0), 1, 2, 3), ErrTGATruncated},
		{"truncated id", func() []byte { h := tgaHeaderBytes(TGATypeTrueColor, 1, 1, 24, 0); h[0] = 40; return h }(), ErrTGATruncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTGA(tt.data)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(0, 0, red)
	img.SetRGBA(1, 0, green)
	img.SetRGBA(0, 1, blue)
	img.SetRGBA(1, 1, white)
	return img
}

func TestDecode_SniffsFormat(t *testing.T) {
	var pngBuf, bmpBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, testImage()))
	require.NoError(t, bmp.Encode(&bmpBuf, testImage()))

	tests := []struct {
		name string
		data []byte
		file string
	}{
		{"png", pngBuf.Bytes(), "wood.png"},
		{"png with wrong extension", pngBuf.Bytes(), "wood.jpg"},
		{"bmp", bmpBuf.Bytes(), "wood.bmp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Decode(tt.data, tt.file)
			require.NoError(t, err)
			assert.Equal(t, 2, img.Rect.Dx())
			assert.Equal(t, red, img.RGBAAt(0, 0))
			assert.Equal(t, white, img.RGBAAt(1, 1))
		})
	}
}

func TestDecode_TGAByExtension(t *testing.T) {
	data := tgaHeaderBytes(TGATypeTrueColor, 1, 1, 24, 0)
	data = append(data, 0, 0, 255)

	img, err := Decode(data, `maps\WOOD.TGA`)
	require.NoError(t, err)
	assert.Equal(t, red, img.RGBAAt(0, 0))
}

func TestDecode_Unknown(t *testing.T) {
	_, err := Decode([]byte("not an image at all"), "notes.txt")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tex.png")
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage()))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	img, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, green, img.RGBAAt(1, 0))

	_, err = Load(filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestImageToRGBA_RebasesOrigin(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 7, 7))
	src.SetRGBA(5, 5, red)

	out := ImageToRGBA(src)
	assert.Equal(t, image.Rect(0, 0, 2, 2), out.Rect)
	assert.Equal(t, red, out.RGBAAt(0, 0))

	same := testImage()
	assert.Same(t, same, ImageToRGBA(same))
}

func TestFlipVertical(t *testing.T) {
	img := testImage()
	FlipVertical(img)
	assert.Equal(t, blue, img.RGBAAt(0, 0))
	assert.Equal(t, white, img.RGBAAt(1, 0))
	assert.Equal(t, red, img.RGBAAt(0, 1))
}
