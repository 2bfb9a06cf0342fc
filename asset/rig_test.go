// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset_test

import (
	"testing"

	qt "github.com/frankban/quicktest"
	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/korures/asset"
	"github.com/devblok/korures/resource"
)

func TestSkeletonAndAnimation(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, resource.Config{})

	skeleton := f.library.Skeleton("hero.rig", asset.SkeletonOptions{Name: "biped"})
	bob := f.library.Animation("hero.rig", asset.AnimationOptions{Name: "bob"})
	wave := f.library.Animation("hero.rig", asset.AnimationOptions{Name: "wave"})
	defer skeleton.Release()
	defer bob.Release()
	defer wave.Release()
	f.store.Wait()

	joints := skeleton.Joints()
	c.Assert(joints, qt.HasLen, 3)
	c.Assert(joints[2].Parent, qt.Equals, 1)

	// unsorted keys are sorted and the duration follows the last key
	c.Assert(bob.Duration(), qt.Equals, float32(1))
	c.Assert(wave.Duration(), qt.Equals, float32(2))

	pose := skeleton.Pose(bob.Sample(0.5))
	foot := pose[2].Col(3).Vec3()
	c.Assert(foot.ApproxEqualThreshold(glm.Vec3{0, 0.25, 0}, 1e-5), qt.IsTrue, qt.Commentf("foot at %v", foot))
}

func TestRigMissingAnimation(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, resource.Config{})

	anim := f.library.Animation("hero.rig", asset.AnimationOptions{Name: "run"})
	defer anim.Release()
	f.store.Wait()
	c.Assert(anim.State().Err, qt.ErrorIs, asset.ErrNoAnimation)
}

func TestSkeletonFromText(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, resource.Config{})

	good := f.library.SkeletonFromText([]byte(`
skeletons:
  - name: tail
    joints:
      - name: base
      - name: tip
        parent: base
        scale: [2, 2, 2]
`), asset.SkeletonOptions{})
	bad := f.library.SkeletonFromText([]byte(`
skeletons:
  - name: broken
    joints:
      - name: tip
        parent: base
`), asset.SkeletonOptions{})
	defer bad.Release()
	f.store.Wait()

	c.Assert(good.Key().IsText(), qt.IsTrue)
	c.Assert(good.Joints()[1].Bind.Scale, qt.Equals, glm.Vec3{2, 2, 2})
	c.Assert(bad.State().Err, qt.ErrorIs, resource.ErrDecode)
	c.Assert(bad.State().Err, qt.ErrorMatches, `.*parent "base" must be declared before it.*`)

	good.Release()
	c.Assert(f.library.Skeletons.Len(), qt.Equals, 1)
}
