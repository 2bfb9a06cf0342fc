// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package source

import (
	"time"

	"github.com/gobuffalo/packd"
)

// Boxer is the part of a packd box a source needs,
// packr boxes satisfy it.
type Boxer interface {
	packd.Finder
	packd.Haser
}

// Box reads resources bundled in a box. Boxed files have no usable
// modification time, so they are never hot reloaded.
type Box struct {
	box Boxer
}

// NewBox wraps a box.
func NewBox(box Boxer) *Box {
	return &Box{box: box}
}

// ReadFile implements resource.Source
func (b *Box) ReadFile(name string) ([]byte, error) {
	cleaned, err := clean(name)
	if err != nil {
		return nil, err
	}
	if !b.box.Has(cleaned) {
		return nil, notExist("open", name)
	}
	return b.box.Find(cleaned)
}

// ModTime implements resource.Source
func (b *Box) ModTime(name string) (time.Time, error) {
	cleaned, err := clean(name)
	if err != nil {
		return time.Time{}, err
	}
	if !b.box.Has(cleaned) {
		return time.Time{}, notExist("stat", name)
	}
	return time.Time{}, nil
}
