// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command texdump loads textures through the resource cache and writes
// every mip level as a WebP preview.
package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/korures/asset"
	"github.com/devblok/korures/core"
	"github.com/devblok/korures/resource"
)

var (
	envFile = flag.String("env", ".env", "Environment file to load the configuration from")
	outDir  = flag.String("o", "texdump", "Directory the previews are written to")
	mips    = flag.Bool("mips", true, "Generate and dump the mip chain")
)

func main() {
	flag.Parse()

	configuration, err := core.LoadConfiguration(*envFile)
	if err != nil {
		log.Fatal(err)
	}
	src, archives, err := configuration.Resources.OpenSource()
	if err != nil {
		log.Fatal(err)
	}
	defer archives.Close()

	cfg := configuration.Resources.StoreConfig()
	cfg.HotReload = false
	store := resource.NewStore(cfg, src)
	defer store.Close()
	library := asset.NewLibrary(store)

	textures := make([]asset.Texture, 0, flag.NArg())
	for _, path := range flag.Args() {
		textures = append(textures, library.Texture(path, asset.TextureOptions{MipMapping: *mips}))
	}
	store.Wait()

	var failed int
	for idx, tex := range textures {
		path := flag.Arg(idx)
		if !tex.IsReady() {
			log.WithField("path", path).Error(tex.State().Err)
			failed++
			continue
		}
		for level := 0; level < tex.MipLevels(); level++ {
			dst := previewName(*outDir, path, level)
			if err := writeWebP(dst, tex.Level(level)); err != nil {
				log.WithField("path", path).Error(err)
				failed++
				break
			}
			fmt.Printf("OK  %s level %d -> %s\n", path, level, dst)
		}
		tex.Release()
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func previewName(dir, path string, level int) string {
	base := strings.TrimSuffix(filepath.ToSlash(path), filepath.Ext(path))
	base = strings.ReplaceAll(base, "/", "_")
	return filepath.Join(dir, fmt.Sprintf("%s_%d.webp", base, level))
}

func writeWebP(dst string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if err := nativewebp.Encode(f, img, nil); err != nil {
		f.Close()
		return fmt.Errorf("webp encode: %w", err)
	}
	return f.Close()
}
