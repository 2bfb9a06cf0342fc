// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package model

import (
	"math"
	"sort"

	glm "github.com/go-gl/mathgl/mgl32"
)

// Transform is a decomposed local transformation
type Transform struct {
	Translation glm.Vec3
	Rotation    glm.Quat
	Scale       glm.Vec3
}

// IdentityTransform does nothing when applied.
func IdentityTransform() Transform {
	return Transform{
		Rotation: glm.QuatIdent(),
		Scale:    glm.Vec3{1, 1, 1},
	}
}

// Mat4 composes the transform as translation * rotation * scale.
func (t Transform) Mat4() glm.Mat4 {
	return glm.Translate3D(t.Translation[0], t.Translation[1], t.Translation[2]).
		Mul4(t.Rotation.Mat4()).
		Mul4(glm.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2]))
}

// Joint is a single bone, Parent is -1 for roots and always
// precedes the joint in Skeleton.Joints.
type Joint struct {
	Name   string
	Parent int
	Bind   Transform
}

// Skeleton is a joint hierarchy
type Skeleton struct {
	Name   string
	Joints []Joint
}

// Joint returns the index of the named joint.
func (s *Skeleton) Joint(name string) (int, bool) {
	for idx, j := range s.Joints {
		if j.Name == name {
			return idx, true
		}
	}
	return -1, false
}

// Pose returns the model space matrices of all joints, locals
// overriding the bind pose by joint name.
func (s *Skeleton) Pose(locals map[string]Transform) []glm.Mat4 {
	world := make([]glm.Mat4, len(s.Joints))
	for idx, j := range s.Joints {
		local := j.Bind
		if t, ok := locals[j.Name]; ok {
			local = t
		}
		m := local.Mat4()
		if j.Parent >= 0 && j.Parent < idx {
			m = world[j.Parent].Mul4(m)
		}
		world[idx] = m
	}
	return world
}

// Keyframe is a joint transform at a point in time, in seconds
type Keyframe struct {
	Time float32
	Transform
}

// Channel animates one joint. Keys are sorted by time.
type Channel struct {
	Joint string
	Keys  []Keyframe
}

// Sample interpolates the channel at time t, clamping outside the keys.
func (c *Channel) Sample(t float32) Transform {
	switch len(c.Keys) {
	case 0:
		return IdentityTransform()
	case 1:
		return c.Keys[0].Transform
	}
	next := sort.Search(len(c.Keys), func(i int) bool { return c.Keys[i].Time > t })
	if next == 0 {
		return c.Keys[0].Transform
	}
	if next == len(c.Keys) {
		return c.Keys[len(c.Keys)-1].Transform
	}
	a, b := c.Keys[next-1], c.Keys[next]
	span := b.Time - a.Time
	if span <= 0 {
		return b.Transform
	}
	amount := (t - a.Time) / span
	return Transform{
		Translation: lerp(a.Translation, b.Translation, amount),
		Rotation:    glm.QuatSlerp(a.Rotation, b.Rotation, amount),
		Scale:       lerp(a.Scale, b.Scale, amount),
	}
}

// Animation is a set of joint channels
type Animation struct {
	Name     string
	Duration float32
	Looping  bool
	Channels []Channel
}

// Sample evaluates every channel at time t, wrapping it
// around the duration for looping animations.
func (a *Animation) Sample(t float32) map[string]Transform {
	if a.Looping && a.Duration > 0 {
		t = float32(math.Mod(float64(t), float64(a.Duration)))
		if t < 0 {
			t += a.Duration
		}
	}
	pose := make(map[string]Transform, len(a.Channels))
	for idx := range a.Channels {
		pose[a.Channels[idx].Joint] = a.Channels[idx].Sample(t)
	}
	return pose
}

func lerp(a, b glm.Vec3, amount float32) glm.Vec3 {
	return a.Add(b.Sub(a).Mul(amount))
}
