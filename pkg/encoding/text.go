// Package encoding provides text encoding utilities for mesh and material files.
package encoding

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// utf8BOM is stripped from the start of text files exported by Windows tools.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ToUTF8 returns data as a UTF-8 string.
// Valid UTF-8 is returned unchanged; anything else is assumed to be
// Windows-1252, the code page most DCC exporters fall back to.
func ToUTF8(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	result, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		// Return as-is if decoding fails
		return string(data)
	}
	return string(result)
}

// TrimBOM removes a leading UTF-8 byte order mark.
func TrimBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}

// NormalizePath converts backslash separators to forward slashes.
// Material files written on Windows reference textures as "maps\wood.png".
func NormalizePath(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}
