// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package asset binds the engine's asset kinds to the generic resource
// cache: textures, geometry, collision meshes, skeletons, animations,
// tile sets, tile maps and audio buffers.
//
// Every kind has a handle type embedding *resource.Handle. Accessors
// reading the backend assert the resource is ready and panic otherwise,
// check IsReady first.
package asset

import (
	"github.com/devblok/korures/model"
	"github.com/devblok/korures/resource"
)

// Library holds one cache per asset kind, all sharing a Store.
// Only one Library can be created per Store.
type Library struct {
	store *resource.Store

	Textures        *resource.Cache[TextureOptions, *TextureBackend]
	Meshes          *resource.Cache[GeometryOptions, *model.Mesh]
	CollisionMeshes *resource.Cache[CollisionOptions, *model.CollisionMesh]
	Skeletons       *resource.Cache[SkeletonOptions, *model.Skeleton]
	Animations      *resource.Cache[AnimationOptions, *model.Animation]
	TileSets        *resource.Cache[TileSetOptions, *TileSetBackend]
	TileMaps        *resource.Cache[TileMapOptions, *TileMapBackend]
	AudioBuffers    *resource.Cache[AudioOptions, *AudioBackend]
}

// NewLibrary creates the caches on store and registers the
// default importers. More can be registered on the caches after.
func NewLibrary(store *resource.Store) *Library {
	l := &Library{
		store:           store,
		Textures:        resource.NewCache(store, TextureKind),
		Meshes:          resource.NewCache(store, GeometryKind),
		CollisionMeshes: resource.NewCache(store, CollisionMeshKind),
		Skeletons:       resource.NewCache(store, SkeletonKind),
		Animations:      resource.NewCache(store, AnimationKind),
		TileSets:        resource.NewCache(store, TileSetKind),
		TileMaps:        resource.NewCache(store, TileMapKind),
		AudioBuffers:    resource.NewCache(store, AudioKind),
	}

	l.Textures.Register(NewImageImporter)
	l.Meshes.Register(NewColladaImporter)
	l.CollisionMeshes.Register(NewColladaImporter)
	l.Skeletons.Register(NewRigImporter)
	l.Animations.Register(NewRigImporter)
	l.TileSets.Register(NewTiledImporter)
	l.TileMaps.Register(NewTiledImporter)
	l.AudioBuffers.Register(NewWAVImporter)
	return l
}

// Store returns the store the library was created on.
func (l *Library) Store() *resource.Store {
	return l.store
}

// Len returns the number of entries across all kinds.
func (l *Library) Len() int {
	return l.Textures.Len() + l.Meshes.Len() + l.CollisionMeshes.Len() +
		l.Skeletons.Len() + l.Animations.Len() + l.TileSets.Len() +
		l.TileMaps.Len() + l.AudioBuffers.Len()
}
