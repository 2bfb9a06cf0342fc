// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCompressListExtract(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"textures/brick.png": "not really a png",
		"maps/town.tmj":      "{}",
		"readme.txt":         strings.Repeat("kar ", 100),
	}
	for name, content := range files {
		path := filepath.Join(root, "assets", filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	archive := filepath.Join(root, "assets.kar")
	if err := compressFiles(filepath.Join(root, "assets"), archive); err != nil {
		t.Fatal(err)
	}
	if err := compressFiles(filepath.Join(root, "assets"), archive); err == nil {
		t.Fatal("existing archive was overwritten")
	}

	var listing bytes.Buffer
	if err := listFiles(archive, &listing); err != nil {
		t.Fatal(err)
	}
	for name := range files {
		if !strings.Contains(listing.String(), name) {
			t.Errorf("listing misses %s:\n%s", name, listing.String())
		}
	}

	out := filepath.Join(root, "out")
	if err := extractFiles(archive, out); err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		data, err := os.ReadFile(filepath.Join(out, filepath.FromSlash(name)))
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != content {
			t.Errorf("%s does not match after extraction", name)
		}
	}
}
