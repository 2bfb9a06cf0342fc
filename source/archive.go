// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package source

import (
	"fmt"
	"os"
	"time"

	"github.com/devblok/korures/utility/kar"
	"golang.org/x/exp/mmap"
)

// Archive reads resources from a memory mapped kar archive.
// Every file in it shares the archive's modification time.
type Archive struct {
	path    string
	mapped  *mmap.ReaderAt
	archive *kar.Archive
	modTime time.Time
}

// OpenArchive maps the archive at path and reads its index.
func OpenArchive(path string) (*Archive, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	mapped, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", path, err)
	}
	ar, err := kar.Open(mapped)
	if err != nil {
		mapped.Close()
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	return &Archive{
		path:    path,
		mapped:  mapped,
		archive: ar,
		modTime: info.ModTime(),
	}, nil
}

// Names lists the files in the archive.
func (a *Archive) Names() []string {
	return a.archive.Names()
}

// ReadFile implements resource.Source
func (a *Archive) ReadFile(name string) ([]byte, error) {
	cleaned, err := clean(name)
	if err != nil {
		return nil, err
	}
	if _, ok := a.archive.Stat(cleaned); !ok {
		return nil, notExist("open", name)
	}
	return a.archive.ReadAll(cleaned)
}

// ModTime implements resource.Source
func (a *Archive) ModTime(name string) (time.Time, error) {
	cleaned, err := clean(name)
	if err != nil {
		return time.Time{}, err
	}
	if _, ok := a.archive.Stat(cleaned); !ok {
		return time.Time{}, notExist("stat", name)
	}
	return a.modTime, nil
}

// Close unmaps the archive.
func (a *Archive) Close() error {
	return a.mapped.Close()
}
