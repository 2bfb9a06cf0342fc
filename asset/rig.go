// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset

import (
	"context"
	"errors"
	"fmt"
	"sort"

	glm "github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/devblok/korures/model"
	"github.com/devblok/korures/resource"
)

// SkeletonOptions select a skeleton inside a rig file, the first when Name is empty.
type SkeletonOptions struct {
	Name string
}

// AnimationOptions select an animation inside a rig file, the first when Name is empty.
type AnimationOptions struct {
	Name string
}

// SkeletonKind is the skeleton resource kind
var SkeletonKind = resource.Kind[SkeletonOptions, *model.Skeleton]{
	Name:        "skeleton",
	DefaultHint: resource.Until(5),
	Load:        loadSkeleton,
}

// AnimationKind is the animation resource kind
var AnimationKind = resource.Kind[AnimationOptions, *model.Animation]{
	Name:        "animation",
	DefaultHint: resource.Until(5),
	Load:        loadAnimation,
}

// errors of rig decoding
var (
	ErrNoSkeleton  = errors.New("skeleton not found")
	ErrNoAnimation = errors.New("animation not found")
)

// SkeletonImporter is implemented by importers holding skeletons.
type SkeletonImporter interface {
	resource.Importer
	Skeleton(name string) (*model.Skeleton, error)
}

// AnimationImporter is implemented by importers holding animations.
type AnimationImporter interface {
	resource.Importer
	Animation(name string) (*model.Animation, error)
}

// rig file layout
type rigDoc struct {
	Skeletons  []skeletonDoc  `yaml:"skeletons"`
	Animations []animationDoc `yaml:"animations"`
}

type skeletonDoc struct {
	Name   string     `yaml:"name"`
	Joints []jointDoc `yaml:"joints"`
}

type jointDoc struct {
	Name         string `yaml:"name"`
	Parent       string `yaml:"parent"`
	transformDoc `yaml:",inline"`
}

type animationDoc struct {
	Name     string       `yaml:"name"`
	Duration float32      `yaml:"duration"`
	Loop     bool         `yaml:"loop"`
	Channels []channelDoc `yaml:"channels"`
}

type channelDoc struct {
	Joint string   `yaml:"joint"`
	Keys  []keyDoc `yaml:"keys"`
}

type keyDoc struct {
	Time         float32 `yaml:"time"`
	transformDoc `yaml:",inline"`
}

// rotation is a quaternion as x, y, z, w
type transformDoc struct {
	Translation []float32 `yaml:"translation"`
	Rotation    []float32 `yaml:"rotation"`
	Scale       []float32 `yaml:"scale"`
}

func (t transformDoc) transform() (model.Transform, error) {
	tr := model.IdentityTransform()
	if t.Translation != nil {
		if len(t.Translation) != 3 {
			return tr, fmt.Errorf("translation needs 3 components, got %d", len(t.Translation))
		}
		tr.Translation = glm.Vec3{t.Translation[0], t.Translation[1], t.Translation[2]}
	}
	if t.Rotation != nil {
		if len(t.Rotation) != 4 {
			return tr, fmt.Errorf("rotation needs 4 components, got %d", len(t.Rotation))
		}
		q := glm.Quat{W: t.Rotation[3], V: glm.Vec3{t.Rotation[0], t.Rotation[1], t.Rotation[2]}}
		if q.Len() == 0 {
			return tr, errors.New("rotation is a zero quaternion")
		}
		tr.Rotation = q.Normalize()
	}
	if t.Scale != nil {
		if len(t.Scale) != 3 {
			return tr, fmt.Errorf("scale needs 3 components, got %d", len(t.Scale))
		}
		tr.Scale = glm.Vec3{t.Scale[0], t.Scale[1], t.Scale[2]}
	}
	return tr, nil
}

// RigImporter reads YAML rig files (.rig, .yaml) holding skeletons and
// animations. Everything is converted in Prepare, lookups are read only.
type RigImporter struct {
	skeletons  []*model.Skeleton
	animations []*model.Animation
}

// NewRigImporter is the resource.Factory of RigImporter
func NewRigImporter() resource.Importer {
	return &RigImporter{}
}

// SupportedFileExtensions implements resource.ExtensionLister
func (*RigImporter) SupportedFileExtensions() []string {
	return []string{"rig", "yaml", "yml"}
}

// ContainsMultipleResources implements resource.MultiResource
func (*RigImporter) ContainsMultipleResources() bool {
	return true
}

// Prepare implements resource.Importer
func (r *RigImporter) Prepare(_ context.Context, _ string, data []byte) error {
	var doc rigDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode rig: %w", err)
	}
	if len(doc.Skeletons) == 0 && len(doc.Animations) == 0 {
		return errors.New("decode rig: no skeletons or animations")
	}

	for _, s := range doc.Skeletons {
		skeleton, err := convertSkeleton(s)
		if err != nil {
			return fmt.Errorf("skeleton %q: %w", s.Name, err)
		}
		r.skeletons = append(r.skeletons, skeleton)
	}
	for _, a := range doc.Animations {
		animation, err := convertAnimation(a)
		if err != nil {
			return fmt.Errorf("animation %q: %w", a.Name, err)
		}
		r.animations = append(r.animations, animation)
	}
	return nil
}

func convertSkeleton(doc skeletonDoc) (*model.Skeleton, error) {
	skeleton := &model.Skeleton{Name: doc.Name}
	for _, j := range doc.Joints {
		if _, dup := skeleton.Joint(j.Name); dup {
			return nil, fmt.Errorf("joint %q declared twice", j.Name)
		}
		parent := -1
		if j.Parent != "" {
			idx, ok := skeleton.Joint(j.Parent)
			if !ok {
				return nil, fmt.Errorf("joint %q: parent %q must be declared before it", j.Name, j.Parent)
			}
			parent = idx
		}
		bind, err := j.transform()
		if err != nil {
			return nil, fmt.Errorf("joint %q: %w", j.Name, err)
		}
		skeleton.Joints = append(skeleton.Joints, model.Joint{
			Name:   j.Name,
			Parent: parent,
			Bind:   bind,
		})
	}
	return skeleton, nil
}

func convertAnimation(doc animationDoc) (*model.Animation, error) {
	animation := &model.Animation{
		Name:     doc.Name,
		Duration: doc.Duration,
		Looping:  doc.Loop,
	}
	for _, c := range doc.Channels {
		channel := model.Channel{Joint: c.Joint}
		for _, k := range c.Keys {
			tr, err := k.transform()
			if err != nil {
				return nil, fmt.Errorf("channel %q: %w", c.Joint, err)
			}
			channel.Keys = append(channel.Keys, model.Keyframe{Time: k.Time, Transform: tr})
			if k.Time > animation.Duration && doc.Duration == 0 {
				animation.Duration = k.Time
			}
		}
		sort.SliceStable(channel.Keys, func(i, j int) bool {
			return channel.Keys[i].Time < channel.Keys[j].Time
		})
		animation.Channels = append(animation.Channels, channel)
	}
	return animation, nil
}

// Skeleton implements SkeletonImporter
func (r *RigImporter) Skeleton(name string) (*model.Skeleton, error) {
	for _, s := range r.skeletons {
		if name == "" || s.Name == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoSkeleton, name)
}

// Animation implements AnimationImporter
func (r *RigImporter) Animation(name string) (*model.Animation, error) {
	for _, a := range r.animations {
		if name == "" || a.Name == name {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoAnimation, name)
}

func loadSkeleton(_ context.Context, imp resource.Importer, key resource.Key[SkeletonOptions]) (*model.Skeleton, error) {
	si, ok := imp.(SkeletonImporter)
	if !ok {
		return nil, fmt.Errorf("%T: %w", imp, resource.ErrWrongKind)
	}
	return si.Skeleton(key.Options.Name)
}

func loadAnimation(_ context.Context, imp resource.Importer, key resource.Key[AnimationOptions]) (*model.Animation, error) {
	ai, ok := imp.(AnimationImporter)
	if !ok {
		return nil, fmt.Errorf("%T: %w", imp, resource.ErrWrongKind)
	}
	return ai.Animation(key.Options.Name)
}

// Skeleton is a handle to a skeleton resource
type Skeleton struct {
	*resource.Handle[SkeletonOptions, *model.Skeleton]
}

// Skeleton acquires a named skeleton from the rig at path.
func (l *Library) Skeleton(path string, options SkeletonOptions) Skeleton {
	return Skeleton{l.Skeletons.Acquire(path, options)}
}

// SkeletonFromText decodes a skeleton from an inline YAML rig.
func (l *Library) SkeletonFromText(text []byte, options SkeletonOptions) Skeleton {
	return Skeleton{l.Skeletons.AcquireText(text, "rig", options)}
}

// Retain returns another handle to the same skeleton.
func (s Skeleton) Retain() Skeleton {
	return Skeleton{s.Handle.Retain()}
}

// Joints returns the joint hierarchy, parents first.
func (s Skeleton) Joints() []model.Joint {
	return s.Backend().Joints
}

// Pose returns model space joint matrices for sampled local transforms.
func (s Skeleton) Pose(locals map[string]model.Transform) []glm.Mat4 {
	return s.Backend().Pose(locals)
}

// Animation is a handle to an animation resource
type Animation struct {
	*resource.Handle[AnimationOptions, *model.Animation]
}

// Animation acquires a named animation from the rig at path.
func (l *Library) Animation(path string, options AnimationOptions) Animation {
	return Animation{l.Animations.Acquire(path, options)}
}

// Retain returns another handle to the same animation.
func (a Animation) Retain() Animation {
	return Animation{a.Handle.Retain()}
}

// Duration in seconds.
func (a Animation) Duration() float32 {
	return a.Backend().Duration
}

// Sample evaluates the animation at time t in seconds.
func (a Animation) Sample(t float32) map[string]model.Transform {
	return a.Backend().Sample(t)
}
