// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/korures/core"
	"github.com/devblok/korures/utility/kar"
)

// unsetAfter removes variables a .env file may set for the rest of the process.
func unsetAfter(c *qt.C, names ...string) {
	for _, name := range names {
		os.Unsetenv(name)
	}
	c.Cleanup(func() {
		for _, name := range names {
			os.Unsetenv(name)
		}
	})
}

func TestDefaultConfiguration(t *testing.T) {
	c := qt.New(t)
	unsetAfter(c, core.EnvAssetDirs, core.EnvArchives, core.EnvHotReload, core.EnvWorkers, core.EnvFps)

	cfg, err := core.LoadConfiguration()
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Time.FramesPerSecond, qt.Equals, 60)
	c.Assert(cfg.Resources.AssetDirs, qt.DeepEquals, []string{"assets"})
	c.Assert(cfg.Resources.EvictionInterval, qt.Equals, 60.0)
	c.Assert(cfg.Resources.ReloadInterval, qt.Equals, 5.0)
	c.Assert(cfg.Resources.ImporterIdle, qt.Equals, 60.0)
}

func TestProductionDisablesHotReload(t *testing.T) {
	c := qt.New(t)
	unsetAfter(c, core.EnvHotReload)
	c.Setenv("GO_ENV", "production")

	cfg, err := core.LoadConfiguration()
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Resources.HotReload, qt.IsFalse)

	c.Setenv("GO_ENV", "development")
	cfg, err = core.LoadConfiguration()
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Resources.HotReload, qt.IsTrue)
}

func TestLoadConfigurationFromEnvFile(t *testing.T) {
	c := qt.New(t)
	unsetAfter(c, core.EnvAssetDirs, core.EnvArchives, core.EnvHotReload, core.EnvWorkers, core.EnvFps)

	sep := string(filepath.ListSeparator)
	env := filepath.Join(t.TempDir(), "koru.env")
	c.Assert(os.WriteFile(env, []byte(strings.Join([]string{
		core.EnvAssetDirs + "=mods" + sep + " assets " + sep,
		core.EnvArchives + "=base.kar",
		core.EnvHotReload + "=false",
		core.EnvWorkers + "=3",
		core.EnvFps + "=30",
	}, "\n")), 0o644), qt.IsNil)

	cfg, err := core.LoadConfiguration(env, filepath.Join(t.TempDir(), "missing.env"))
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Resources.AssetDirs, qt.DeepEquals, []string{"mods", "assets"})
	c.Assert(cfg.Resources.Archives, qt.DeepEquals, []string{"base.kar"})
	c.Assert(cfg.Resources.HotReload, qt.IsFalse)
	c.Assert(cfg.Resources.Workers, qt.Equals, 3)
	c.Assert(cfg.Time.FramesPerSecond, qt.Equals, 30)

	store := cfg.Resources.StoreConfig()
	c.Assert(store.Workers, qt.Equals, 3)
	c.Assert(store.HotReload, qt.IsFalse)
}

func TestLoadConfigurationErrors(t *testing.T) {
	c := qt.New(t)
	unsetAfter(c, core.EnvHotReload, core.EnvWorkers)

	c.Setenv(core.EnvWorkers, "many")
	_, err := core.LoadConfiguration()
	c.Assert(err, qt.ErrorMatches, `KORU_WORKERS: .*invalid syntax`)

	c.Setenv(core.EnvWorkers, "-1")
	_, err = core.LoadConfiguration()
	c.Assert(err, qt.ErrorMatches, `KORU_WORKERS: negative value -1`)

	c.Setenv(core.EnvWorkers, "")
	c.Setenv(core.EnvHotReload, "sometimes")
	_, err = core.LoadConfiguration()
	c.Assert(err, qt.ErrorMatches, `KORU_HOT_RELOAD: .*invalid syntax`)
}

func TestOpenSource(t *testing.T) {
	c := qt.New(t)
	dir := t.TempDir()
	c.Assert(os.WriteFile(filepath.Join(dir, "a.txt"), []byte("loose"), 0o644), qt.IsNil)

	builder, err := kar.NewBuilder(kar.Header{Author: "devblok"})
	c.Assert(err, qt.IsNil)
	c.Assert(builder.Add("a.txt", strings.NewReader("packed")), qt.IsNil)
	c.Assert(builder.Add("b.txt", strings.NewReader("packed b")), qt.IsNil)
	var buf bytes.Buffer
	_, err = builder.WriteTo(&buf)
	c.Assert(err, qt.IsNil)
	c.Assert(builder.Close(), qt.IsNil)
	archive := filepath.Join(dir, "base.kar")
	c.Assert(os.WriteFile(archive, buf.Bytes(), 0o644), qt.IsNil)

	rc := core.ResourceConfiguration{AssetDirs: []string{dir}, Archives: []string{archive}}
	src, archives, err := rc.OpenSource()
	c.Assert(err, qt.IsNil)
	defer archives.Close()

	data, err := src.ReadFile("a.txt")
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, "loose")
	data, err = src.ReadFile("b.txt")
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, "packed b")

	_, _, err = core.ResourceConfiguration{Archives: []string{filepath.Join(dir, "a.txt")}}.OpenSource()
	c.Assert(err, qt.ErrorIs, kar.ErrFileFormat)
}
