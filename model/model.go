// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package model holds the engine side representation of imported
// geometry, collision and rig data.
package model

import (
	"math"

	glm "github.com/go-gl/mathgl/mgl32"
)

// Vertex is a model vertex
type Vertex struct {
	Pos    glm.Vec3
	Normal glm.Vec3
}

// Mesh is a triangle list ready for upload
type Mesh struct {
	Name     string
	Vertices []Vertex
}

// Triangles returns the number of triangles in the mesh.
func (m *Mesh) Triangles() int {
	return len(m.Vertices) / 3
}

// Bounds calculates the axis aligned box around the mesh.
func (m *Mesh) Bounds() AABB {
	box := EmptyAABB()
	for _, v := range m.Vertices {
		box = box.Extend(v.Pos)
	}
	return box
}

// AABB is an axis aligned bounding box
type AABB struct {
	Min glm.Vec3
	Max glm.Vec3
}

// EmptyAABB returns a box that any point extends.
func EmptyAABB() AABB {
	inf := float32(math.Inf(1))
	return AABB{
		Min: glm.Vec3{inf, inf, inf},
		Max: glm.Vec3{-inf, -inf, -inf},
	}
}

// Extend grows the box to contain p.
func (b AABB) Extend(p glm.Vec3) AABB {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
	return b
}

// Contains tells if p lies inside the box, edges included.
func (b AABB) Contains(p glm.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Size returns the extent of the box on each axis.
func (b AABB) Size() glm.Vec3 {
	return b.Max.Sub(b.Min)
}

// Triangle is a single collision primitive
type Triangle [3]glm.Vec3

// Normal returns the unit face normal, zero for degenerate triangles.
func (t Triangle) Normal() glm.Vec3 {
	n := t[1].Sub(t[0]).Cross(t[2].Sub(t[0]))
	if n.Len() == 0 {
		return glm.Vec3{}
	}
	return n.Normalize()
}

// CollisionMesh is the physics side view of a mesh
type CollisionMesh struct {
	Name      string
	Triangles []Triangle
	Bounds    AABB
}

// CollisionMeshFromMesh drops everything physics does not need.
func CollisionMeshFromMesh(m *Mesh) *CollisionMesh {
	cm := &CollisionMesh{
		Name:      m.Name,
		Triangles: make([]Triangle, 0, m.Triangles()),
		Bounds:    m.Bounds(),
	}
	for idx := 0; idx+2 < len(m.Vertices); idx += 3 {
		cm.Triangles = append(cm.Triangles, Triangle{
			m.Vertices[idx].Pos,
			m.Vertices[idx+1].Pos,
			m.Vertices[idx+2].Pos,
		})
	}
	return cm
}
