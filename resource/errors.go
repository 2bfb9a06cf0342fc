// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import (
	"errors"
	"fmt"
)

// package errors
var (
	ErrNoImporter    = errors.New("no importer found for file")
	ErrEmptySource   = errors.New("source data is empty")
	ErrDecode        = errors.New("decoding failed")
	ErrNotReady      = errors.New("resource is not ready")
	ErrWrongKind     = errors.New("importer does not produce this resource kind")
	ErrReleased      = errors.New("handle used after release")
	ErrClosed        = errors.New("store is closed")
	ErrImporterPanic = errors.New("importer panicked")
)

// DecodeError is returned when an importer fails to prepare or
// load a file. It matches both ErrDecode and the importer's own error.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %s", e.Path, e.Err)
}

// Unwrap implements the multi error unwrapping interface
func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecode, e.Err}
}

func decodeError(path string, err error) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}
	return &DecodeError{Path: path, Err: err}
}
