// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package source

import (
	"errors"
	"io/fs"
	"time"

	"github.com/devblok/korures/resource"
)

// Layered searches its sources in order, the first one holding
// a file wins. Typically a mod directory over the game archives.
type Layered []resource.Source

// ReadFile implements resource.Source
func (l Layered) ReadFile(name string) ([]byte, error) {
	for _, s := range l {
		data, err := s.ReadFile(name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return data, err
	}
	return nil, notExist("open", name)
}

// ModTime implements resource.Source
func (l Layered) ModTime(name string) (time.Time, error) {
	for _, s := range l {
		mod, err := s.ModTime(name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return mod, err
	}
	return time.Time{}, notExist("stat", name)
}
