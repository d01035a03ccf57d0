package model

import (
	"errors"
	"fmt"
)

// ErrEmptyRequest is the reason carried by a ConfigurationError for a load
// request with no input files.
var ErrEmptyRequest = errors.New("no input files")

// ParseError reports a mesh or material file that could not be decoded.
type ParseError struct {
	Path string
	Line int // 0 when unknown
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IOError reports a missing or unreadable input file.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// DegenerateGeometryError reports synthesized normals whose accumulated
// magnitude was zero. Those normals are left as zero vectors.
type DegenerateGeometryError struct {
	Count int
}

func (e *DegenerateGeometryError) Error() string {
	return fmt.Sprintf("%d vertex normals have zero length", e.Count)
}

// ConfigurationError rejects a load request before any work starts.
type ConfigurationError struct {
	Reason error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid load request: %v", e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Reason }
