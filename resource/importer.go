// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
)

// Importer decodes a source file. Importers are created with a
// Factory, bound to one path by Prepare and then asked by the kind
// specific Load step for the backend objects they hold.
//
// An importer should implement ExtensionLister or FileMatcher,
// otherwise it can never be resolved for a path.
type Importer interface {
	// Prepare reads and validates the contents of path.
	// Called once per importer instance.
	Prepare(ctx context.Context, path string, data []byte) error
}

// ExtensionLister lists the file extensions an importer handles,
// with or without the leading dot.
type ExtensionLister interface {
	SupportedFileExtensions() []string
}

// FileMatcher decides by itself whether a path can be handled.
// Takes precedence over ExtensionLister.
type FileMatcher interface {
	CanProcessFile(path string) bool
}

// MultiResource is implemented by importers that can extract several
// named resources from one prepared file. Such importers are kept
// around and shared between loads of the same path.
type MultiResource interface {
	ContainsMultipleResources() bool
}

// Factory creates a fresh importer.
type Factory func() Importer

// CanProcess reports if imp claims path.
func CanProcess(imp Importer, path string) bool {
	if m, ok := imp.(FileMatcher); ok {
		return m.CanProcessFile(path)
	}
	if l, ok := imp.(ExtensionLister); ok {
		ext := strings.TrimPrefix(filepath.Ext(path), ".")
		if ext == "" {
			return false
		}
		for _, supported := range l.SupportedFileExtensions() {
			if strings.EqualFold(strings.TrimPrefix(supported, "."), ext) {
				return true
			}
		}
	}
	return false
}

func containsMultipleResources(imp Importer) bool {
	if m, ok := imp.(MultiResource); ok {
		return m.ContainsMultipleResources()
	}
	return false
}

// Registry is an ordered list of importers for one resource kind.
// It can be used concurrently.
type Registry struct {
	mutex     sync.RWMutex
	factories []Factory
}

// Register appends an importer. Earlier registrations win
// when several importers claim the same path.
func (r *Registry) Register(f Factory) {
	r.mutex.Lock()
	r.factories = append(r.factories, f)
	r.mutex.Unlock()
}

// Resolve finds the first registered importer that can process path.
func (r *Registry) Resolve(path string) (Factory, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	for _, f := range r.factories {
		if CanProcess(f(), path) {
			return f, nil
		}
	}
	return nil, ErrNoImporter
}

// Len returns the number of registered importers.
func (r *Registry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.factories)
}
