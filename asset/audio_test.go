// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset_test

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/go-audio/audio"

	"github.com/devblok/korures/asset"
	"github.com/devblok/korures/resource"
)

func TestAudioBuffer(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, resource.Config{})
	// odd sized chunk before data checks word alignment
	f.write("sfx/step.wav", pcmWAV(2, 8000, 4000, []byte("xtra\x03\x00\x00\x00abc\x00")), baseTime)

	step := f.library.AudioBuffer("sfx/step.wav")
	f.store.Wait()

	c.Assert(step.State().Err, qt.IsNil)
	c.Assert(step.Duration(), qt.Equals, 500*time.Millisecond)
	c.Assert(step.Samples(), qt.HasLen, 4000*2)
	c.Assert(step.Backend().Channels(), qt.Equals, 2)
	c.Assert(step.Backend().SampleRate(), qt.Equals, 8000)
	c.Assert(step.CacheHint(), qt.Equals, resource.WhileReferenced)

	backend := step.Backend()
	step.Release()
	c.Assert(backend.Released(), qt.IsTrue)
	c.Assert(f.library.AudioBuffers.Len(), qt.Equals, 0)
}

func TestAudioHintOverride(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, resource.Config{})
	f.write("music/theme.wav", pcmWAV(1, 1000, 10), baseTime)

	theme := f.library.AudioBuffer("music/theme.wav")
	theme.SetCacheHint(resource.Forever)
	f.store.Wait()
	theme.Release()

	for i := 0; i < 10; i++ {
		f.store.Update(60)
	}
	c.Assert(f.library.AudioBuffers.Len(), qt.Equals, 1)
}

func TestAudioMalformed(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, resource.Config{})
	valid := pcmWAV(1, 1000, 10)
	truncated := valid[:len(valid)-4]
	f.write("sfx/short.wav", truncated, baseTime)
	f.write("sfx/noise.wav", []byte("RIFF\x00\x00\x00\x00AVI "), baseTime)

	short := f.library.AudioBuffer("sfx/short.wav")
	noise := f.library.AudioBuffer("sfx/noise.wav")
	defer short.Release()
	defer noise.Release()
	f.store.Wait()

	c.Assert(short.State().Err, qt.ErrorIs, asset.ErrWAV)
	c.Assert(noise.State().Err, qt.ErrorIs, asset.ErrWAV)
}

func TestGeneratedAudioBuffer(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, resource.Config{})

	beep := f.library.GeneratedAudioBuffer(&asset.AudioBackend{
		Format: asset.FormatPCM,
		PCM: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: 100},
			Data:           make([]int, 50),
			SourceBitDepth: 8,
		},
	})
	defer beep.Release()
	c.Assert(beep.Duration(), qt.Equals, 500*time.Millisecond)
}

func TestAudioSampleFormats(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, resource.Config{})

	var pcm bytes.Buffer
	for _, v := range []int16{0, 16384, -16384, 32767} {
		binary.Write(&pcm, binary.LittleEndian, v)
	}
	f.write("sfx/pcm.wav", wavFile(asset.FormatPCM, 1, 4, 16, pcm.Bytes()), baseTime)

	var float bytes.Buffer
	for _, v := range []float32{0, 0.5, -0.25, 1} {
		binary.Write(&float, binary.LittleEndian, math.Float32bits(v))
	}
	f.write("sfx/float.wav", wavFile(asset.FormatFloat, 2, 2, 32, float.Bytes()), baseTime)
	f.write("sfx/mulaw.wav", wavFile(7, 1, 8000, 8, make([]byte, 8)), baseTime)

	ints := f.library.AudioBuffer("sfx/pcm.wav")
	floats := f.library.AudioBuffer("sfx/float.wav")
	mulaw := f.library.AudioBuffer("sfx/mulaw.wav")
	defer ints.Release()
	defer floats.Release()
	defer mulaw.Release()
	f.store.Wait()

	c.Assert(ints.Samples(), qt.DeepEquals, []int{0, 16384, -16384, 32767})
	c.Assert(ints.Backend().Float32()[1], qt.Equals, float32(0.5))
	c.Assert(ints.Duration(), qt.Equals, time.Second)

	c.Assert(floats.State().Err, qt.IsNil)
	c.Assert(floats.Backend().Float32(), qt.DeepEquals, []float32{0, 0.5, -0.25, 1})
	c.Assert(floats.Backend().Frames(), qt.Equals, 2)
	c.Assert(floats.Duration(), qt.Equals, time.Second)

	c.Assert(mulaw.State().Err, qt.ErrorIs, asset.ErrWAV)
}
