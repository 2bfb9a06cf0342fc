// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset_test

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"time"

	qt "github.com/frankban/quicktest"
	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/devblok/korures/asset"
	"github.com/devblok/korures/resource"
	"github.com/devblok/korures/source"
)

var baseTime = time.Date(2019, time.September, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	c       *qt.C
	dir     string
	store   *resource.Store
	library *asset.Library
	hook    *logtest.Hook
	metrics *resource.Counters
}

// newFixture serves files from a temp dir layered over testdata.
func newFixture(c *qt.C, cfg resource.Config) *fixture {
	dir := c.TB.TempDir()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(log.DebugLevel)
	metrics := &resource.Counters{}

	store := resource.NewStore(cfg,
		source.Layered{source.NewDir(dir), source.NewDir("testdata")},
		resource.WithLogger(logger),
		resource.WithMetrics(metrics),
		resource.WithClock(func() time.Time { return baseTime }),
	)
	c.Cleanup(store.Close)

	return &fixture{
		c:       c,
		dir:     dir,
		store:   store,
		library: asset.NewLibrary(store),
		hook:    hook,
		metrics: metrics,
	}
}

func (f *fixture) write(name string, data []byte, modified time.Time) {
	path := filepath.Join(f.dir, filepath.FromSlash(name))
	f.c.Assert(os.MkdirAll(filepath.Dir(path), 0o755), qt.IsNil)
	f.c.Assert(os.WriteFile(path, data, 0o644), qt.IsNil)
	f.c.Assert(os.Chtimes(path, modified, modified), qt.IsNil)
}

func (f *fixture) touch(name string, modified time.Time) {
	f.c.Assert(os.Chtimes(filepath.Join(f.dir, filepath.FromSlash(name)), modified, modified), qt.IsNil)
}

// logged reports if a message was logged at level.
func (f *fixture) logged(level log.Level, message string) bool {
	for _, e := range f.hook.AllEntries() {
		if e.Level == level && e.Message == message {
			return true
		}
	}
	return false
}

func solidImage(w, h int, fill color.RGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, fill)
		}
	}
	return img
}

func checkerPNG(c *qt.C, w, h int, fill color.RGBA) []byte {
	var buf bytes.Buffer
	c.Assert(png.Encode(&buf, solidImage(w, h, fill)), qt.IsNil)
	return buf.Bytes()
}

// pcmWAV builds a 16 bit PCM wav of frames silent samples.
func pcmWAV(channels, rate, frames int, extra ...[]byte) []byte {
	return wavFile(asset.FormatPCM, channels, rate, 16, make([]byte, frames*channels*2), extra...)
}

// wavFile builds a wav with extra chunks placed between fmt and data.
func wavFile(format, channels, rate, bits int, samples []byte, extra ...[]byte) []byte {
	var body bytes.Buffer
	body.WriteString("WAVE")

	block := channels * bits / 8
	body.WriteString("fmt ")
	binary.Write(&body, binary.LittleEndian, uint32(16))
	binary.Write(&body, binary.LittleEndian, uint16(format))
	binary.Write(&body, binary.LittleEndian, uint16(channels))
	binary.Write(&body, binary.LittleEndian, uint32(rate))
	binary.Write(&body, binary.LittleEndian, uint32(rate*block))
	binary.Write(&body, binary.LittleEndian, uint16(block))
	binary.Write(&body, binary.LittleEndian, uint16(bits))

	for _, chunk := range extra {
		body.Write(chunk)
	}

	body.WriteString("data")
	binary.Write(&body, binary.LittleEndian, uint32(len(samples)))
	body.Write(samples)

	var out bytes.Buffer
	out.WriteString("RIFF")
	binary.Write(&out, binary.LittleEndian, uint32(body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}
