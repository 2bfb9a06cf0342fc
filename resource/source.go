// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import "time"

// Source provides file contents and modification times for
// non synthetic paths.
type Source interface {
	ReadFile(path string) ([]byte, error)

	// ModTime returns a zero time when the source
	// cannot tell, which disables hot reloading for path.
	ModTime(path string) (time.Time, error)
}

// Releasable is implemented by backends holding memory that has to
// be freed explicitly, it is called once the cache drops the backend.
type Releasable interface {
	Release()
}
