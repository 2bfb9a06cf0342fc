// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/devblok/korures/resource"
)

// TileSetOptions is empty, a tile set file holds a single set.
type TileSetOptions struct{}

// TileMapOptions is empty, a tile map file holds a single map.
type TileMapOptions struct{}

// TileSetKind is the tile set resource kind
var TileSetKind = resource.Kind[TileSetOptions, *TileSetBackend]{
	Name:        "tileSet",
	DefaultHint: resource.Until(5),
	Load:        loadTileSet,
}

// TileMapKind is the tile map resource kind
var TileMapKind = resource.Kind[TileMapOptions, *TileMapBackend]{
	Name:        "tileMap",
	DefaultHint: resource.Until(5),
	Load:        loadTileMap,
}

// Tile id flags, the high bits of a global tile id
const (
	FlippedHorizontally uint32 = 1 << 31
	FlippedVertically   uint32 = 1 << 30
	FlippedDiagonally   uint32 = 1 << 29
	RotatedHexagonal120 uint32 = 1 << 28

	tileFlags = FlippedHorizontally | FlippedVertically | FlippedDiagonally | RotatedHexagonal120
)

// ErrTiled is returned for Tiled files the importer cannot use
var ErrTiled = errors.New("unsupported tiled file")

// TileSetBackend is a Tiled tile set (.tsj)
type TileSetBackend struct {
	Name        string `json:"name"`
	Image       string `json:"image"`
	ImageWidth  int    `json:"imagewidth"`
	ImageHeight int    `json:"imageheight"`
	TileWidth   int    `json:"tilewidth"`
	TileHeight  int    `json:"tileheight"`
	TileCount   int    `json:"tilecount"`
	Columns     int    `json:"columns"`
	Margin      int    `json:"margin"`
	Spacing     int    `json:"spacing"`
}

// TileRect returns the area of a local tile id in the tile set image.
func (ts *TileSetBackend) TileRect(id int) (image.Rectangle, bool) {
	if id < 0 || id >= ts.TileCount || ts.Columns <= 0 {
		return image.Rectangle{}, false
	}
	x := ts.Margin + (id%ts.Columns)*(ts.TileWidth+ts.Spacing)
	y := ts.Margin + (id/ts.Columns)*(ts.TileHeight+ts.Spacing)
	return image.Rect(x, y, x+ts.TileWidth, y+ts.TileHeight), true
}

// TileSetRef links a map to a tile set
type TileSetRef struct {
	FirstGID uint32 `json:"firstgid"`
	Source   string `json:"source"`
}

// TileLayer is a decoded tile layer, Data holds Width*Height global ids
type TileLayer struct {
	Name    string
	Width   int
	Height  int
	Visible bool
	Data    []uint32
}

// Tile returns the global id at x, y with the flip flags cleared.
func (l *TileLayer) Tile(x, y int) (uint32, bool) {
	if x < 0 || y < 0 || x >= l.Width || y >= l.Height {
		return 0, false
	}
	return l.Data[y*l.Width+x] &^ tileFlags, true
}

// Flags returns the flip flags of the tile at x, y.
func (l *TileLayer) Flags(x, y int) uint32 {
	if x < 0 || y < 0 || x >= l.Width || y >= l.Height {
		return 0
	}
	return l.Data[y*l.Width+x] & tileFlags
}

// TileMapBackend is a Tiled map (.tmj)
type TileMapBackend struct {
	Orientation string
	Width       int
	Height      int
	TileWidth   int
	TileHeight  int
	Layers      []TileLayer
	TileSets    []TileSetRef
}

// Layer finds a tile layer by name.
func (m *TileMapBackend) Layer(name string) (*TileLayer, bool) {
	for idx := range m.Layers {
		if m.Layers[idx].Name == name {
			return &m.Layers[idx], true
		}
	}
	return nil, false
}

// TileSetFor returns the tile set a global id belongs to and the local id in it.
func (m *TileMapBackend) TileSetFor(gid uint32) (TileSetRef, uint32, bool) {
	gid &^= tileFlags
	if gid == 0 {
		return TileSetRef{}, 0, false
	}
	var (
		found TileSetRef
		ok    bool
	)
	for _, ref := range m.TileSets {
		if ref.FirstGID <= gid && (!ok || ref.FirstGID > found.FirstGID) {
			found, ok = ref, true
		}
	}
	if !ok {
		return TileSetRef{}, 0, false
	}
	return found, gid - found.FirstGID, true
}

type tileMapDoc struct {
	Type        string       `json:"type"`
	Orientation string       `json:"orientation"`
	Infinite    bool         `json:"infinite"`
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	TileWidth   int          `json:"tilewidth"`
	TileHeight  int          `json:"tileheight"`
	Layers      []layerDoc   `json:"layers"`
	TileSets    []TileSetRef `json:"tilesets"`
}

type layerDoc struct {
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Width       int             `json:"width"`
	Height      int             `json:"height"`
	Visible     bool            `json:"visible"`
	Encoding    string          `json:"encoding"`
	Compression string          `json:"compression"`
	Data        json.RawMessage `json:"data"`
}

func (l layerDoc) decode() (TileLayer, error) {
	layer := TileLayer{
		Name:    l.Name,
		Width:   l.Width,
		Height:  l.Height,
		Visible: l.Visible,
	}
	if l.Width < 0 || l.Height < 0 {
		return layer, fmt.Errorf("%w: layer %q is %dx%d", ErrTiled, l.Name, l.Width, l.Height)
	}
	switch l.Encoding {
	case "", "csv":
		if err := json.Unmarshal(l.Data, &layer.Data); err != nil {
			return layer, err
		}
	case "base64":
		var encoded string
		if err := json.Unmarshal(l.Data, &encoded); err != nil {
			return layer, err
		}
		raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
		if err != nil {
			return layer, err
		}
		if raw, err = decompress(l.Compression, raw, int64(l.Width)*int64(l.Height)*4); err != nil {
			return layer, err
		}
		if len(raw)%4 != 0 {
			return layer, fmt.Errorf("%w: data is not a multiple of 4 bytes", ErrTiled)
		}
		layer.Data = make([]uint32, len(raw)/4)
		for idx := range layer.Data {
			layer.Data[idx] = binary.LittleEndian.Uint32(raw[idx*4:])
		}
	default:
		return layer, fmt.Errorf("%w: encoding %q", ErrTiled, l.Encoding)
	}
	if len(layer.Data) != layer.Width*layer.Height {
		return layer, fmt.Errorf("%w: layer %q has %d tiles, expected %dx%d", ErrTiled, l.Name, len(layer.Data), l.Width, l.Height)
	}
	return layer, nil
}

// decompress inflates layer data, refusing to produce more than limit bytes.
func decompress(compression string, raw []byte, limit int64) ([]byte, error) {
	var (
		r   io.ReadCloser
		err error
	)
	switch compression {
	case "":
		return raw, nil
	case "zlib":
		r, err = zlib.NewReader(bytes.NewReader(raw))
	case "gzip":
		r, err = gzip.NewReader(bytes.NewReader(raw))
	default:
		return nil, fmt.Errorf("%w: compression %q", ErrTiled, compression)
	}
	if err != nil {
		return nil, err
	}
	defer r.Close()
	out, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(out)) > limit {
		return nil, fmt.Errorf("%w: layer data inflates past %d bytes", ErrTiled, limit)
	}
	return out, nil
}

// TileSetImporter is implemented by importers holding a tile set.
type TileSetImporter interface {
	resource.Importer
	TileSet() (*TileSetBackend, error)
}

// TileMapImporter is implemented by importers holding a tile map.
type TileMapImporter interface {
	resource.Importer
	TileMap() (*TileMapBackend, error)
}

// TiledImporter reads Tiled JSON tile sets (.tsj) and maps (.tmj).
// Only orthogonal, finite maps are supported.
type TiledImporter struct {
	set *TileSetBackend
	tm  *TileMapBackend
}

// NewTiledImporter is the resource.Factory of TiledImporter
func NewTiledImporter() resource.Importer {
	return &TiledImporter{}
}

// SupportedFileExtensions implements resource.ExtensionLister
func (*TiledImporter) SupportedFileExtensions() []string {
	return []string{"tsj", "tmj"}
}

// Prepare implements resource.Importer
func (t *TiledImporter) Prepare(_ context.Context, path string, data []byte) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsj":
		var set TileSetBackend
		if err := json.Unmarshal(data, &set); err != nil {
			return fmt.Errorf("decode tile set: %w", err)
		}
		if set.TileWidth <= 0 || set.TileHeight <= 0 {
			return fmt.Errorf("%w: tile set without tile size", ErrTiled)
		}
		if set.Margin < 0 || set.Spacing < 0 || set.TileCount < 0 || set.Columns < 0 {
			return fmt.Errorf("%w: negative tile set layout", ErrTiled)
		}
		if set.Columns == 0 && set.TileCount > 0 && set.ImageWidth > 0 {
			set.Columns = (set.ImageWidth - 2*set.Margin + set.Spacing) / (set.TileWidth + set.Spacing)
		}
		t.set = &set
	case ".tmj":
		var doc tileMapDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("decode tile map: %w", err)
		}
		if doc.Infinite {
			return fmt.Errorf("%w: infinite maps", ErrTiled)
		}
		if doc.Orientation != "" && doc.Orientation != "orthogonal" {
			return fmt.Errorf("%w: %s orientation", ErrTiled, doc.Orientation)
		}
		tm := &TileMapBackend{
			Orientation: "orthogonal",
			Width:       doc.Width,
			Height:      doc.Height,
			TileWidth:   doc.TileWidth,
			TileHeight:  doc.TileHeight,
			TileSets:    doc.TileSets,
		}
		for _, l := range doc.Layers {
			if l.Type != "tilelayer" {
				continue
			}
			layer, err := l.decode()
			if err != nil {
				return fmt.Errorf("decode tile map: %w", err)
			}
			tm.Layers = append(tm.Layers, layer)
		}
		t.tm = tm
	default:
		return fmt.Errorf("%w: %s", ErrTiled, path)
	}
	return nil
}

// TileSet implements TileSetImporter
func (t *TiledImporter) TileSet() (*TileSetBackend, error) {
	if t.set == nil {
		return nil, fmt.Errorf("not a tile set: %w", resource.ErrWrongKind)
	}
	return t.set, nil
}

// TileMap implements TileMapImporter
func (t *TiledImporter) TileMap() (*TileMapBackend, error) {
	if t.tm == nil {
		return nil, fmt.Errorf("not a tile map: %w", resource.ErrWrongKind)
	}
	return t.tm, nil
}

func loadTileSet(_ context.Context, imp resource.Importer, _ resource.Key[TileSetOptions]) (*TileSetBackend, error) {
	ti, ok := imp.(TileSetImporter)
	if !ok {
		return nil, fmt.Errorf("%T: %w", imp, resource.ErrWrongKind)
	}
	return ti.TileSet()
}

func loadTileMap(_ context.Context, imp resource.Importer, _ resource.Key[TileMapOptions]) (*TileMapBackend, error) {
	ti, ok := imp.(TileMapImporter)
	if !ok {
		return nil, fmt.Errorf("%T: %w", imp, resource.ErrWrongKind)
	}
	return ti.TileMap()
}

// TileSet is a handle to a tile set resource
type TileSet struct {
	*resource.Handle[TileSetOptions, *TileSetBackend]
}

// TileSet acquires the tile set at path.
func (l *Library) TileSet(path string) TileSet {
	return TileSet{l.TileSets.Acquire(path, TileSetOptions{})}
}

// TileSetFromText decodes an inline .tsj document.
func (l *Library) TileSetFromText(text []byte) TileSet {
	return TileSet{l.TileSets.AcquireText(text, "tsj", TileSetOptions{})}
}

// Retain returns another handle to the same tile set.
func (t TileSet) Retain() TileSet {
	return TileSet{t.Handle.Retain()}
}

// TileRect returns the image area of a local tile id.
func (t TileSet) TileRect(id int) (image.Rectangle, bool) {
	return t.Backend().TileRect(id)
}

// TileMap is a handle to a tile map resource
type TileMap struct {
	*resource.Handle[TileMapOptions, *TileMapBackend]
}

// TileMap acquires the tile map at path.
func (l *Library) TileMap(path string) TileMap {
	return TileMap{l.TileMaps.Acquire(path, TileMapOptions{})}
}

// TileMapFromText decodes an inline .tmj document.
func (l *Library) TileMapFromText(text []byte) TileMap {
	return TileMap{l.TileMaps.AcquireText(text, "tmj", TileMapOptions{})}
}

// Retain returns another handle to the same tile map.
func (t TileMap) Retain() TileMap {
	return TileMap{t.Handle.Retain()}
}

// Size returns the map size in tiles.
func (t TileMap) Size() (int, int) {
	b := t.Backend()
	return b.Width, b.Height
}

// Layer finds a tile layer by name.
func (t TileMap) Layer(name string) (*TileLayer, bool) {
	return t.Backend().Layer(name)
}
