// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/riff"
	"github.com/go-audio/wav"

	"github.com/devblok/korures/resource"
)

// AudioOptions is empty, a wav file holds a single buffer.
type AudioOptions struct{}

// AudioKind is the audio buffer resource kind. Buffers are large
// and cheap to decode, so they only live while referenced.
var AudioKind = resource.Kind[AudioOptions, *AudioBackend]{
	Name:        "audioBuffer",
	DefaultHint: resource.WhileReferenced,
	Load:        loadAudio,
}

// ErrWAV is returned for malformed or unsupported wav files
var ErrWAV = errors.New("malformed or unsupported wav")

// Sample formats of wav files
const (
	FormatPCM   = 1
	FormatFloat = 3
)

// AudioBackend is an interleaved sample buffer. Float samples
// keep their IEEE bits in the integer buffer.
type AudioBackend struct {
	Format int
	PCM    *audio.IntBuffer

	released atomic.Bool
}

// Channels returns the number of interleaved channels.
func (a *AudioBackend) Channels() int {
	if a.PCM == nil || a.PCM.Format == nil {
		return 0
	}
	return a.PCM.Format.NumChannels
}

// SampleRate returns the frames per second.
func (a *AudioBackend) SampleRate() int {
	if a.PCM == nil || a.PCM.Format == nil {
		return 0
	}
	return a.PCM.Format.SampleRate
}

// Frames returns the number of samples per channel.
func (a *AudioBackend) Frames() int {
	return a.PCM.NumFrames()
}

// Duration returns the playback length of the buffer.
func (a *AudioBackend) Duration() time.Duration {
	rate := a.SampleRate()
	if rate == 0 {
		return 0
	}
	return time.Duration(a.Frames()) * time.Second / time.Duration(rate)
}

// Float32 returns the samples scaled to [-1, 1].
func (a *AudioBackend) Float32() []float32 {
	if a.Format != FormatFloat {
		return a.PCM.AsFloat32Buffer().Data
	}
	out := make([]float32, len(a.PCM.Data))
	for i, v := range a.PCM.Data {
		out[i] = math.Float32frombits(uint32(int32(v)))
	}
	return out
}

// Release implements resource.Releasable
func (a *AudioBackend) Release() {
	a.released.Store(true)
}

// Released tells if the cache has let go of the buffer.
func (a *AudioBackend) Released() bool {
	return a.released.Load()
}

// AudioImporter is implemented by importers producing sample buffers.
type AudioImporter interface {
	resource.Importer
	Buffer() *AudioBackend
}

// WAVImporter reads RIFF wave files with integer or float samples.
type WAVImporter struct {
	buffer *AudioBackend
}

// NewWAVImporter is the resource.Factory of WAVImporter
func NewWAVImporter() resource.Importer {
	return &WAVImporter{}
}

// SupportedFileExtensions implements resource.ExtensionLister
func (*WAVImporter) SupportedFileExtensions() []string {
	return []string{"wav", "wave"}
}

// Prepare implements resource.Importer
func (w *WAVImporter) Prepare(_ context.Context, _ string, data []byte) error {
	buffer, err := decodeWAV(data)
	if err != nil {
		return err
	}
	w.buffer = buffer
	return nil
}

// Buffer implements AudioImporter
func (w *WAVImporter) Buffer() *AudioBackend {
	return w.buffer
}

func decodeWAV(data []byte) (*AudioBackend, error) {
	container := riff.New(bytes.NewReader(data))
	if err := container.ParseHeaders(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWAV, err)
	}
	if container.Format != riff.WavFormatID {
		return nil, fmt.Errorf("%w: %q container", ErrWAV, container.Format[:])
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWAV, err)
	}
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWAV, err)
	}

	switch format := int(dec.WavAudioFormat); {
	case format != FormatPCM && format != FormatFloat:
		return nil, fmt.Errorf("%w: sample format %d", ErrWAV, format)
	case format == FormatFloat && dec.BitDepth != 32:
		return nil, fmt.Errorf("%w: %d bit float samples", ErrWAV, dec.BitDepth)
	case dec.NumChans == 0 || dec.SampleRate == 0:
		return nil, fmt.Errorf("%w: %d channels at %dHz", ErrWAV, dec.NumChans, dec.SampleRate)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWAV, err)
	}
	// the decoder stops quietly at the end of a truncated file,
	// only the pad byte of an odd sized chunk may be missing
	if read := len(pcm.Data) * int(dec.BitDepth/8); read < dec.PCMSize-1 {
		return nil, fmt.Errorf("%w: data chunk has %d of %d bytes", ErrWAV, read, dec.PCMSize)
	}
	return &AudioBackend{Format: int(dec.WavAudioFormat), PCM: pcm}, nil
}

func loadAudio(_ context.Context, imp resource.Importer, _ resource.Key[AudioOptions]) (*AudioBackend, error) {
	ai, ok := imp.(AudioImporter)
	if !ok {
		return nil, fmt.Errorf("%T: %w", imp, resource.ErrWrongKind)
	}
	return ai.Buffer(), nil
}

// AudioBuffer is a handle to an audio buffer resource
type AudioBuffer struct {
	*resource.Handle[AudioOptions, *AudioBackend]
}

// AudioBuffer acquires the wav file at path.
func (l *Library) AudioBuffer(path string) AudioBuffer {
	return AudioBuffer{l.AudioBuffers.Acquire(path, AudioOptions{})}
}

// GeneratedAudioBuffer wraps samples synthesized at runtime.
func (l *Library) GeneratedAudioBuffer(buffer *AudioBackend) AudioBuffer {
	return AudioBuffer{l.AudioBuffers.AcquireGenerated(buffer)}
}

// Retain returns another handle to the same buffer.
func (a AudioBuffer) Retain() AudioBuffer {
	return AudioBuffer{a.Handle.Retain()}
}

// Duration returns the playback length.
func (a AudioBuffer) Duration() time.Duration {
	return a.Backend().Duration()
}

// Samples returns the interleaved samples.
func (a AudioBuffer) Samples() []int {
	return a.Backend().PCM.Data
}
