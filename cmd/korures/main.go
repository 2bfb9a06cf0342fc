// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command korures runs the resource store on its own: it acquires the
// given assets, drives the sweeps from the frame ticker and reports
// what is loading until interrupted.
package main

import (
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/korures/asset"
	"github.com/devblok/korures/core"
	"github.com/devblok/korures/resource"
)

var (
	envFile  = flag.String("env", ".env", "Environment file to load the configuration from")
	verbose  = flag.Bool("v", false, "Log cache diagnostics")
	duration = flag.Duration("for", 0, "Stop after the given time, 0 runs until interrupted")
)

type releaser interface {
	Release()
	State() resource.State
}

func acquire(library *asset.Library, path string) releaser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dae":
		return library.Geometry(path, asset.GeometryOptions{})
	case ".rig", ".yaml", ".yml":
		return library.Skeleton(path, asset.SkeletonOptions{})
	case ".tsj":
		return library.TileSet(path)
	case ".tmj":
		return library.TileMap(path)
	case ".wav", ".wave":
		return library.AudioBuffer(path)
	default:
		return library.Texture(path, asset.TextureOptions{MipMapping: true})
	}
}

func main() {
	flag.Parse()
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	configuration, err := core.LoadConfiguration(*envFile)
	if err != nil {
		log.Fatal(err)
	}

	src, archives, err := configuration.Resources.OpenSource()
	if err != nil {
		log.Fatal(err)
	}
	defer archives.Close()

	metrics := &resource.Counters{}
	store := resource.NewStore(configuration.Resources.StoreConfig(), src, resource.WithMetrics(metrics))
	defer store.Close()
	library := asset.NewLibrary(store)

	log.WithFields(log.Fields{
		"dirs":      configuration.Resources.AssetDirs,
		"archives":  configuration.Resources.Archives,
		"hotReload": store.HotReload(),
	}).Info("Resource store starting")

	var handles []releaser
	for _, path := range flag.Args() {
		handles = append(handles, acquire(library, path))
	}

	tm := core.NewTime(configuration.Time)
	defer tm.Stop()
	report := time.NewTicker(time.Second)
	defer report.Stop()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	var deadline <-chan time.Time
	if *duration > 0 {
		deadline = time.After(*duration)
	}

EventLoop:
	for {
		select {
		case <-interrupt:
			break EventLoop
		case <-deadline:
			break EventLoop
		case now := <-tm.FpsTicker().C:
			store.Update(tm.Delta(now))
		case <-report.C:
			if loading := store.CurrentlyLoading(); len(loading) > 0 {
				log.WithField("paths", loading).Info("Loading")
			}
		}
	}

	for idx, h := range handles {
		log.WithFields(log.Fields{
			"path":  flag.Arg(idx),
			"state": h.State(),
		}).Info("Resource")
		h.Release()
	}
	log.WithFields(log.Fields{
		"hits":      metrics.Hits.Load(),
		"misses":    metrics.Misses.Load(),
		"loads":     metrics.Loads.Load(),
		"reloads":   metrics.Reloads.Load(),
		"failures":  metrics.Failures.Load(),
		"evictions": metrics.Evictions.Load(),
	}).Info("Resource store shutting down")
}
