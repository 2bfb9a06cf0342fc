// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset_test

import (
	"image/color"
	"sync"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/korures/asset"
	"github.com/devblok/korures/resource"
)

func TestLibraryDeduplicates(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, resource.Config{Workers: 2})
	f.write("a.png", checkerPNG(c, 2, 2, color.RGBA{A: 255}), baseTime)

	var (
		wg      sync.WaitGroup
		handles = make([]asset.Texture, 32)
	)
	for i := range handles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i] = f.library.Texture("a.png", asset.TextureOptions{})
		}(i)
	}
	wg.Wait()
	f.store.Wait()

	c.Assert(f.library.Len(), qt.Equals, 1)
	c.Assert(f.metrics.Loads.Load(), qt.Equals, int64(1))
	refs, ok := f.library.Textures.Refs(handles[0].Key())
	c.Assert(ok, qt.IsTrue)
	c.Assert(refs, qt.Equals, uint(32))

	for _, h := range handles {
		c.Assert(h.Backend(), qt.Equals, handles[0].Backend())
		h.Release()
	}
	refs, _ = f.library.Textures.Refs(handles[0].Key())
	c.Assert(refs, qt.Equals, uint(0))
}

func TestLibraryOncePerStore(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, resource.Config{})
	c.Assert(func() { asset.NewLibrary(f.store) }, qt.PanicMatches, `resource: kind "texture" registered twice`)
}

func TestLibraryClose(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, resource.Config{})
	f.write("a.png", checkerPNG(c, 2, 2, color.RGBA{A: 255}), baseTime)

	tex := f.library.Texture("a.png", asset.TextureOptions{})
	f.store.Wait()
	backend := tex.Backend()

	f.store.Close()
	c.Assert(backend.Released(), qt.IsTrue)
	c.Assert(f.library.Len(), qt.Equals, 0)

	late := f.library.Texture("a.png", asset.TextureOptions{})
	c.Assert(late.State().Err, qt.ErrorIs, resource.ErrClosed)
	tex.Release()
	late.Release()
}
