// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"

	"github.com/devblok/korures/resource"
	"github.com/devblok/korures/source"
)

// Environment variables read by LoadConfiguration
const (
	EnvAssetDirs = "KORU_ASSET_DIRS"
	EnvArchives  = "KORU_ARCHIVES"
	EnvHotReload = "KORU_HOT_RELOAD"
	EnvWorkers   = "KORU_WORKERS"
	EnvFps       = "KORU_FPS"
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	Time      TimeConfiguration
	Resources ResourceConfiguration
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int
}

// ResourceConfiguration is used to configure the resource store
type ResourceConfiguration struct {
	// AssetDirs are searched first to last, before the archives
	AssetDirs []string
	Archives  []string

	HotReload bool

	// Workers caps concurrent imports, 0 is one per CPU
	Workers int

	EvictionInterval float64
	ReloadInterval   float64
	ImporterIdle     float64
}

// DefaultConfiguration serves ./assets at 60 frames per second.
// Hot reload is on unless GO_ENV is production.
func DefaultConfiguration() Configuration {
	store := resource.DefaultConfig()
	return Configuration{
		Time: TimeConfiguration{
			FramesPerSecond: 60,
		},
		Resources: ResourceConfiguration{
			AssetDirs:        []string{"assets"},
			HotReload:        envy.Get("GO_ENV", "development") != "production",
			EvictionInterval: store.EvictionInterval,
			ReloadInterval:   store.ReloadInterval,
			ImporterIdle:     store.ImporterIdle,
		},
	}
}

// LoadConfiguration loads the given .env files, the ones that exist,
// and overrides the defaults with the environment.
func LoadConfiguration(files ...string) (Configuration, error) {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Configuration{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	envy.Reload()

	cfg := DefaultConfiguration()
	if dirs := envy.Get(EnvAssetDirs, ""); dirs != "" {
		cfg.Resources.AssetDirs = splitList(dirs)
	}
	if archives := envy.Get(EnvArchives, ""); archives != "" {
		cfg.Resources.Archives = splitList(archives)
	}
	if hot := envy.Get(EnvHotReload, ""); hot != "" {
		enabled, err := strconv.ParseBool(hot)
		if err != nil {
			return Configuration{}, fmt.Errorf("%s: %w", EnvHotReload, err)
		}
		cfg.Resources.HotReload = enabled
	}
	if err := intVar(EnvWorkers, &cfg.Resources.Workers); err != nil {
		return Configuration{}, err
	}
	if err := intVar(EnvFps, &cfg.Time.FramesPerSecond); err != nil {
		return Configuration{}, err
	}
	return cfg, nil
}

func intVar(name string, dst *int) error {
	raw := envy.Get(name, "")
	if raw == "" {
		return nil
	}
	num, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if num < 0 {
		return fmt.Errorf("%s: negative value %d", name, num)
	}
	*dst = num
	return nil
}

func splitList(raw string) []string {
	var list []string
	for _, item := range strings.Split(raw, string(filepath.ListSeparator)) {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

// StoreConfig converts to the resource store's configuration.
func (r ResourceConfiguration) StoreConfig() resource.Config {
	return resource.Config{
		HotReload:        r.HotReload,
		Workers:          r.Workers,
		EvictionInterval: r.EvictionInterval,
		ReloadInterval:   r.ReloadInterval,
		ImporterIdle:     r.ImporterIdle,
	}
}

// Archives is the set of archives opened for a source.
type Archives []*source.Archive

// Close unmaps every archive.
func (a Archives) Close() error {
	var errs []error
	for _, ar := range a {
		if err := ar.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenSource layers the asset directories over the archives.
// The returned archives have to be closed once the store is.
func (r ResourceConfiguration) OpenSource() (source.Layered, Archives, error) {
	var (
		layered  source.Layered
		archives Archives
	)
	for _, dir := range r.AssetDirs {
		layered = append(layered, source.NewDir(dir))
	}
	for _, path := range r.Archives {
		ar, err := source.OpenArchive(path)
		if err != nil {
			archives.Close()
			return nil, nil, err
		}
		archives = append(archives, ar)
		layered = append(layered, ar)
	}
	return layered, archives, nil
}
