// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package model

import (
	"errors"
	"fmt"

	"github.com/devblok/korures/util/collada"
	glm "github.com/go-gl/mathgl/mgl32"
)

// errors returned when converting Collada geometry
var (
	ErrNoGeometry = errors.New("geometry not found")
	ErrNoSource   = errors.New("source type not found")
	ErrIndex      = errors.New("index out of range")
)

// MeshFromCollada converts the named geometry of a decoded
// document, an empty name picks the first one.
func MeshFromCollada(doc *collada.Collada, name string) (*Mesh, error) {
	g, ok := doc.Geometry(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoGeometry, name)
	}
	return MeshFromGeometry(g)
}

// MeshFromGeometry converts Collada geometry to the engine's
// internal mesh, one vertex per triangle corner.
func MeshFromGeometry(g *collada.Geometry) (*Mesh, error) {
	mesh := &g.Mesh
	tris := &mesh.Triangles

	vertexInput, ok := tris.Input("VERTEX")
	if !ok {
		return nil, fmt.Errorf("%s: %w: VERTEX", g.ID, ErrNoSource)
	}
	positionInput, ok := mesh.Vertices.Input("POSITION")
	if !ok {
		return nil, fmt.Errorf("%s: %w: POSITION", g.ID, ErrNoSource)
	}
	positions, ok := mesh.FindSource(positionInput.Source)
	if !ok {
		return nil, fmt.Errorf("%s: %w: %s", g.ID, ErrNoSource, positionInput.Source)
	}

	var normals *collada.Source
	normalInput, hasNormals := tris.Input("NORMAL")
	if hasNormals {
		if normals, ok = mesh.FindSource(normalInput.Source); !ok {
			return nil, fmt.Errorf("%s: %w: %s", g.ID, ErrNoSource, normalInput.Source)
		}
	}

	stride := tris.Stride()
	if stride == 0 {
		return &Mesh{Name: name(g)}, nil
	}
	corners := len(tris.Index) / stride
	corners -= corners % 3

	vertices := make([]Vertex, 0, corners)
	for idx := 0; idx < corners; idx++ {
		indices := tris.Index[stride*idx : stride*idx+stride]

		var vert Vertex
		pos, err := vec3(positions, indices[vertexInput.Offset])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", g.ID, err)
		}
		vert.Pos = pos
		if hasNormals {
			if vert.Normal, err = vec3(normals, indices[normalInput.Offset]); err != nil {
				return nil, fmt.Errorf("%s: %w", g.ID, err)
			}
		}
		vertices = append(vertices, vert)
	}

	return &Mesh{
		Name:     name(g),
		Vertices: vertices,
	}, nil
}

func name(g *collada.Geometry) string {
	if g.Name != "" {
		return g.Name
	}
	return g.ID
}

func vec3(s *collada.Source, element int) (glm.Vec3, error) {
	base := element * s.Stride()
	if element < 0 || base+3 > len(s.Floats.Data) {
		return glm.Vec3{}, fmt.Errorf("%w: %s[%d]", ErrIndex, s.ID, element)
	}
	data := s.Floats.Data
	return glm.Vec3{data[base], data[base+1], data[base+2]}, nil
}
