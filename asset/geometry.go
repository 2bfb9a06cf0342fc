// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset

import (
	"context"
	"errors"
	"fmt"

	"github.com/devblok/korures/model"
	"github.com/devblok/korures/resource"
	"github.com/devblok/korures/util/collada"
)

// GeometryOptions select a geometry inside a file, the
// first one when Name is empty.
type GeometryOptions struct {
	Name string
}

// CollisionOptions select the geometry a collision mesh is built from.
type CollisionOptions struct {
	Name string
}

// GeometryKind is the mesh resource kind
var GeometryKind = resource.Kind[GeometryOptions, *model.Mesh]{
	Name:        "geometry",
	DefaultHint: resource.Until(5),
	Load:        loadGeometry,
}

// CollisionMeshKind is the collision mesh resource kind
var CollisionMeshKind = resource.Kind[CollisionOptions, *model.CollisionMesh]{
	Name:        "collisionMesh",
	DefaultHint: resource.Until(5),
	Load:        loadCollisionMesh,
}

// GeometryImporter is implemented by importers holding named meshes.
type GeometryImporter interface {
	resource.Importer
	Mesh(name string) (*model.Mesh, error)
}

// CollisionImporter is implemented by importers holding collision data.
type CollisionImporter interface {
	resource.Importer
	CollisionMesh(name string) (*model.CollisionMesh, error)
}

// ColladaImporter reads .dae files. One document usually holds several
// geometries, so the importer is shared between their loads.
type ColladaImporter struct {
	doc *collada.Collada
}

// NewColladaImporter is the resource.Factory of ColladaImporter
func NewColladaImporter() resource.Importer {
	return &ColladaImporter{}
}

// SupportedFileExtensions implements resource.ExtensionLister
func (*ColladaImporter) SupportedFileExtensions() []string {
	return []string{"dae"}
}

// ContainsMultipleResources implements resource.MultiResource
func (*ColladaImporter) ContainsMultipleResources() bool {
	return true
}

// Prepare implements resource.Importer
func (c *ColladaImporter) Prepare(_ context.Context, _ string, data []byte) error {
	doc, err := collada.Decode(data)
	if err != nil {
		return fmt.Errorf("decode collada: %w", err)
	}
	if len(doc.Geometries) == 0 {
		return errors.New("decode collada: no geometry in document")
	}
	c.doc = doc
	return nil
}

// Names lists the geometries in the document.
func (c *ColladaImporter) Names() []string {
	return c.doc.Names()
}

// Mesh implements GeometryImporter
func (c *ColladaImporter) Mesh(name string) (*model.Mesh, error) {
	return model.MeshFromCollada(c.doc, name)
}

// CollisionMesh implements CollisionImporter
func (c *ColladaImporter) CollisionMesh(name string) (*model.CollisionMesh, error) {
	mesh, err := c.Mesh(name)
	if err != nil {
		return nil, err
	}
	return model.CollisionMeshFromMesh(mesh), nil
}

func loadGeometry(_ context.Context, imp resource.Importer, key resource.Key[GeometryOptions]) (*model.Mesh, error) {
	gi, ok := imp.(GeometryImporter)
	if !ok {
		return nil, fmt.Errorf("%T: %w", imp, resource.ErrWrongKind)
	}
	return gi.Mesh(key.Options.Name)
}

func loadCollisionMesh(_ context.Context, imp resource.Importer, key resource.Key[CollisionOptions]) (*model.CollisionMesh, error) {
	ci, ok := imp.(CollisionImporter)
	if !ok {
		return nil, fmt.Errorf("%T: %w", imp, resource.ErrWrongKind)
	}
	return ci.CollisionMesh(key.Options.Name)
}

// Geometry is a handle to a mesh resource
type Geometry struct {
	*resource.Handle[GeometryOptions, *model.Mesh]
}

// Geometry acquires a named geometry from the file at path.
func (l *Library) Geometry(path string, options GeometryOptions) Geometry {
	return Geometry{l.Meshes.Acquire(path, options)}
}

// GeneratedGeometry wraps a mesh built at runtime.
func (l *Library) GeneratedGeometry(mesh *model.Mesh) Geometry {
	return Geometry{l.Meshes.AcquireGenerated(mesh)}
}

// Retain returns another handle to the same geometry.
func (g Geometry) Retain() Geometry {
	return Geometry{g.Handle.Retain()}
}

// Vertices returns the triangle list.
func (g Geometry) Vertices() []model.Vertex {
	return g.Backend().Vertices
}

// Triangles returns the number of triangles.
func (g Geometry) Triangles() int {
	return g.Backend().Triangles()
}

// Bounds returns the box around the mesh.
func (g Geometry) Bounds() model.AABB {
	return g.Backend().Bounds()
}

// CollisionMesh is a handle to a collision mesh resource
type CollisionMesh struct {
	*resource.Handle[CollisionOptions, *model.CollisionMesh]
}

// CollisionMesh acquires the collision mesh of a named geometry.
func (l *Library) CollisionMesh(path string, options CollisionOptions) CollisionMesh {
	return CollisionMesh{l.CollisionMeshes.Acquire(path, options)}
}

// GeneratedCollisionMesh wraps collision data built at runtime.
func (l *Library) GeneratedCollisionMesh(mesh *model.CollisionMesh) CollisionMesh {
	return CollisionMesh{l.CollisionMeshes.AcquireGenerated(mesh)}
}

// Retain returns another handle to the same collision mesh.
func (c CollisionMesh) Retain() CollisionMesh {
	return CollisionMesh{c.Handle.Retain()}
}

// Triangles returns the collision primitives.
func (c CollisionMesh) Triangles() []model.Triangle {
	return c.Backend().Triangles
}

// Bounds returns the box around the collision mesh.
func (c CollisionMesh) Bounds() model.AABB {
	return c.Backend().Bounds
}
