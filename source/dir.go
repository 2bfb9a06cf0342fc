// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package source

import (
	"os"
	"path/filepath"
	"time"
)

// Dir reads resources from a directory on disk.
type Dir struct {
	root string
}

// NewDir creates a source rooted at dir.
func NewDir(dir string) *Dir {
	return &Dir{root: dir}
}

// Root returns the directory the source reads from.
func (d *Dir) Root() string {
	return d.root
}

func (d *Dir) resolve(name string) (string, error) {
	cleaned, err := clean(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(d.root, filepath.FromSlash(cleaned)), nil
}

// ReadFile implements resource.Source
func (d *Dir) ReadFile(name string) ([]byte, error) {
	p, err := d.resolve(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

// ModTime implements resource.Source
func (d *Dir) ModTime(name string) (time.Time, error) {
	p, err := d.resolve(name)
	if err != nil {
		return time.Time{}, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}
