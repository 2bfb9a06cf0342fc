// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"github.com/devblok/korures/resource"
)

// TextureOptions are the texture specific parts of the cache key
type TextureOptions struct {
	// MipMapping generates the full mip chain down to 1x1
	MipMapping bool
}

// TextureKind is the texture resource kind
var TextureKind = resource.Kind[TextureOptions, *TextureBackend]{
	Name:        "texture",
	DefaultHint: resource.Until(5),
	Load:        loadTexture,
}

// TextureImporter is implemented by importers producing images.
type TextureImporter interface {
	resource.Importer
	Image() image.Image
}

// TextureBackend holds RGBA pixels, level 0 is the full size image.
type TextureBackend struct {
	Levels []*image.RGBA

	released atomic.Bool
}

// NewTextureBackend converts img to tightly packed RGBA
// and optionally builds its mip chain.
func NewTextureBackend(img image.Image, mipMapping bool) *TextureBackend {
	base := toRGBA(img)
	backend := &TextureBackend{Levels: []*image.RGBA{base}}
	if mipMapping {
		backend.Levels = append(backend.Levels, mipChain(base)...)
	}
	return backend
}

// Release implements resource.Releasable
func (t *TextureBackend) Release() {
	t.released.Store(true)
}

// Released tells if the cache has let go of the texture.
func (t *TextureBackend) Released() bool {
	return t.released.Load()
}

// toRGBA transforms a given image into right arrangement of pixels
// by drawing the decoded image onto a controlled RGBA canvas
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Stride == 4*rgba.Rect.Dx() {
		return rgba
	}
	b := img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(canvas, canvas.Bounds(), img, b.Min, draw.Src)
	return canvas
}

func mipChain(base *image.RGBA) []*image.RGBA {
	var levels []*image.RGBA
	prev := base
	w, h := base.Rect.Dx(), base.Rect.Dy()
	for w > 1 || h > 1 {
		w, h = max(1, w/2), max(1, h/2)
		level := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(level, level.Bounds(), prev, prev.Bounds(), draw.Src, nil)
		levels = append(levels, level)
		prev = level
	}
	return levels
}

type imageDecoder struct {
	format string
	decode func(io.Reader) (image.Image, error)
}

// Decoders are picked by extension. tga has no magic number and
// registers itself as matching anything, so image.Decode can't be used.
var imageDecoders = map[string]imageDecoder{
	".png":  {"png", png.Decode},
	".jpg":  {"jpeg", jpeg.Decode},
	".jpeg": {"jpeg", jpeg.Decode},
	".gif":  {"gif", gif.Decode},
	".bmp":  {"bmp", bmp.Decode},
	".tif":  {"tiff", tiff.Decode},
	".tiff": {"tiff", tiff.Decode},
	".webp": {"webp", webp.Decode},
	".tga":  {"tga", tga.Decode},
}

// ImageImporter decodes png, jpeg, gif, bmp, tiff, webp and tga files.
type ImageImporter struct {
	img    image.Image
	format string
}

// NewImageImporter is the resource.Factory of ImageImporter
func NewImageImporter() resource.Importer {
	return &ImageImporter{}
}

// SupportedFileExtensions implements resource.ExtensionLister
func (*ImageImporter) SupportedFileExtensions() []string {
	return []string{"png", "jpg", "jpeg", "gif", "bmp", "tif", "tiff", "webp", "tga"}
}

// Prepare implements resource.Importer
func (i *ImageImporter) Prepare(_ context.Context, path string, data []byte) error {
	decoder, ok := imageDecoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return fmt.Errorf("decode image: unknown extension %q", filepath.Ext(path))
	}
	img, err := decoder.decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	if b := img.Bounds(); b.Empty() {
		return fmt.Errorf("decode image: empty bounds %v", b)
	}
	i.img, i.format = img, decoder.format
	return nil
}

// Image returns the decoded image.
func (i *ImageImporter) Image() image.Image {
	return i.img
}

// Format returns the name of the decoded format.
func (i *ImageImporter) Format() string {
	return i.format
}

func loadTexture(_ context.Context, imp resource.Importer, key resource.Key[TextureOptions]) (*TextureBackend, error) {
	ti, ok := imp.(TextureImporter)
	if !ok {
		return nil, fmt.Errorf("%T: %w", imp, resource.ErrWrongKind)
	}
	return NewTextureBackend(ti.Image(), key.Options.MipMapping), nil
}

// Texture is a handle to a texture resource
type Texture struct {
	*resource.Handle[TextureOptions, *TextureBackend]
}

// Texture acquires the texture at path.
func (l *Library) Texture(path string, options TextureOptions) Texture {
	return Texture{l.Textures.Acquire(path, options)}
}

// GeneratedTexture wraps an image built at runtime.
func (l *Library) GeneratedTexture(img image.Image, options TextureOptions) Texture {
	return Texture{l.Textures.AcquireGenerated(NewTextureBackend(img, options.MipMapping))}
}

// Retain returns another handle to the same texture.
func (t Texture) Retain() Texture {
	return Texture{t.Handle.Retain()}
}

// Width of the full size image.
func (t Texture) Width() int {
	return t.Backend().Levels[0].Rect.Dx()
}

// Height of the full size image.
func (t Texture) Height() int {
	return t.Backend().Levels[0].Rect.Dy()
}

// MipLevels returns the number of levels including the full size one.
func (t Texture) MipLevels() int {
	return len(t.Backend().Levels)
}

// Level returns the pixels of a mip level.
func (t Texture) Level(level int) *image.RGBA {
	return t.Backend().Levels[level]
}

// Pixels returns the tightly packed RGBA bytes of the full size image.
func (t Texture) Pixels() []uint8 {
	return t.Backend().Levels[0].Pix
}

// At returns the color of a full size pixel.
func (t Texture) At(x, y int) color.RGBA {
	return t.Backend().Levels[0].RGBAAt(x, y)
}
