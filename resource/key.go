// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import (
	"strconv"
	"strings"
)

// Sigils reserved as the first character of synthetic paths.
const (
	GeneratedSigil = '$'
	TextSigil      = '@'
)

// Key identifies a resource by the parameters it was requested with.
// Two requests with equal keys share one cache entry.
type Key[O comparable] struct {
	Path    string
	Options O
}

// IsSynthetic reports if the key has no backing file.
func (k Key[O]) IsSynthetic() bool {
	return IsSynthetic(k.Path)
}

// IsGenerated reports if the key wraps a value built at runtime.
func (k Key[O]) IsGenerated() bool {
	return IsGenerated(k.Path)
}

// IsText reports if the key names an inline text source.
func (k Key[O]) IsText() bool {
	return IsText(k.Path)
}

// IsSynthetic reports if path was produced by the store
// rather than naming a file.
func IsSynthetic(path string) bool {
	return IsGenerated(path) || IsText(path)
}

// IsGenerated reports if path names an in-memory generated value.
func IsGenerated(path string) bool {
	return len(path) > 0 && path[0] == GeneratedSigil
}

// IsText reports if path names an inline text source.
func IsText(path string) bool {
	return len(path) > 0 && path[0] == TextSigil
}

// Label turns a path into something readable for progress listings.
func Label(path string) string {
	switch {
	case IsGenerated(path):
		return "Generated(" + syntheticID(path) + ")"
	case IsText(path):
		return "Text(" + syntheticID(path) + ")"
	default:
		return path
	}
}

func syntheticID(path string) string {
	id := path[1:]
	if idx := strings.IndexFunc(id, func(r rune) bool { return r < '0' || r > '9' }); idx >= 0 {
		id = id[:idx]
	}
	return id
}

func generatedPath(id uint64) string {
	return string(GeneratedSigil) + strconv.FormatUint(id, 10)
}

func textPath(id uint64, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return string(TextSigil) + strconv.FormatUint(id, 10) + ext
}
