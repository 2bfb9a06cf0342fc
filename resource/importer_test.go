// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import (
	"context"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
)

type matcherImporter struct{}

func (matcherImporter) Prepare(context.Context, string, []byte) error { return nil }

func (matcherImporter) SupportedFileExtensions() []string { return []string{"x"} }

// CanProcessFile takes precedence over the extension list.
func (matcherImporter) CanProcessFile(path string) bool {
	return strings.HasPrefix(path, "magic/")
}

func TestCanProcess(t *testing.T) {
	c := qt.New(t)
	text := &textImporter{exts: []string{".txt", "TEXT"}}

	c.Assert(CanProcess(text, "a/b.txt"), qt.IsTrue)
	c.Assert(CanProcess(text, "a/b.TXT"), qt.IsTrue)
	c.Assert(CanProcess(text, "a/b.text"), qt.IsTrue)
	c.Assert(CanProcess(text, "a/b.png"), qt.IsFalse)
	c.Assert(CanProcess(text, "a/txt"), qt.IsFalse)
	c.Assert(CanProcess(matcherImporter{}, "magic/file.bin"), qt.IsTrue)
	c.Assert(CanProcess(matcherImporter{}, "plain/file.x"), qt.IsFalse)
}

func TestRegistryResolvesInRegistrationOrder(t *testing.T) {
	c := qt.New(t)
	var r Registry
	first := func() Importer { return &otherImporter{textImporter{exts: []string{"x"}}} }
	second := func() Importer { return &textImporter{exts: []string{"x"}} }
	r.Register(first)
	r.Register(second)
	c.Assert(r.Len(), qt.Equals, 2)

	for i := 0; i < 10; i++ {
		f, err := r.Resolve("file.x")
		c.Assert(err, qt.IsNil)
		_, ok := f().(*otherImporter)
		c.Assert(ok, qt.IsTrue)
	}

	_, err := r.Resolve("file.y")
	c.Assert(err, qt.ErrorIs, ErrNoImporter)
}

func TestPipelineUsesFirstRegisteredImporter(t *testing.T) {
	c := qt.New(t)
	f := newFixture(t, Config{}, Forever)
	f.cache.Register(func() Importer { return &otherImporter{textImporter{exts: []string{"txt"}}} })
	f.registerText(false, nil)
	f.source.put("a.txt", "alpha", baseTime)

	h := f.cache.Acquire("a.txt", textOptions{})
	f.store.Wait()
	c.Assert(h.Backend().Value, qt.Equals, "other:alpha")
	h.Release()
}

func TestLabel(t *testing.T) {
	c := qt.New(t)
	c.Assert(Label("$42"), qt.Equals, "Generated(42)")
	c.Assert(Label("@7.tmj"), qt.Equals, "Text(7)")
	c.Assert(Label("textures/brick.png"), qt.Equals, "textures/brick.png")
	c.Assert(generatedPath(42), qt.Equals, "$42")
	c.Assert(textPath(7, "tmj"), qt.Equals, "@7.tmj")
	c.Assert(textPath(7, ".tmj"), qt.Equals, "@7.tmj")
	c.Assert(Key[textOptions]{Path: "$1"}.IsSynthetic(), qt.IsTrue)
	c.Assert(Key[textOptions]{Path: "a.txt"}.IsSynthetic(), qt.IsFalse)
}

func TestCacheHintString(t *testing.T) {
	c := qt.New(t)
	c.Assert(Forever.String(), qt.Equals, "forever")
	c.Assert(WhileReferenced.String(), qt.Equals, "whileReferenced")
	c.Assert(Until(5).String(), qt.Equals, "until(5m)")
	minutes, ok := Until(5).Minutes()
	c.Assert(ok, qt.IsTrue)
	c.Assert(minutes, qt.Equals, uint(5))
	_, ok = Forever.Minutes()
	c.Assert(ok, qt.IsFalse)
	c.Assert(CacheHint{}, qt.Equals, Forever)
}
