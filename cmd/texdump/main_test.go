// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/webp"
)

func TestPreviewName(t *testing.T) {
	got := previewName("out", "textures/walls/brick.png", 2)
	if want := filepath.Join("out", "textures_walls_brick_2.webp"); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestWriteWebP(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.SetRGBA(1, 1, color.RGBA{R: 255, A: 255})

	dst := filepath.Join(t.TempDir(), "nested", "preview.webp")
	if err := writeWebP(dst, img); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(dst)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	decoded, err := webp.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Bounds() != img.Bounds() {
		t.Fatalf("bounds changed: %v", decoded.Bounds())
	}
}
