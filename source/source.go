// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package source provides the places resource bytes are read from:
// plain directories, kar archives, packr boxes and layered search paths.
package source

import (
	"io/fs"
	"path"
	"strings"
)

// clean normalizes resource paths to forward slashes without a leading slash.
// Paths escaping the root are rejected.
func clean(name string) (string, error) {
	cleaned := path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	return cleaned, nil
}

func notExist(op, name string) error {
	return &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
}
