// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/devblok/korures/utility/kar"
	"golang.org/x/exp/mmap"
)

func TestOpenMemoryMapped(t *testing.T) {
	data := buildArchive(t, map[string]string{"test": testString1, "test2": testString2})
	path := filepath.Join(t.TempDir(), "opentest.kar")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	mapped, err := mmap.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer mapped.Close()

	ar, err := kar.Open(mapped)
	if err != nil {
		t.Fatal(err)
	}

	result, err := ar.ReadAll("test")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(result, []byte(testString1)) {
		t.Error("test string does not match up")
	}

	entry, ok := ar.Stat("test2")
	if !ok {
		t.Fatal("test2 is not indexed")
	}
	if entry.Size != int64(len(testString2)) {
		t.Errorf("size %d, expected %d", entry.Size, len(testString2))
	}
}
