// ABOUTME: Frame assembly for the demo player
// ABOUTME: Pairs a still image with cadence-sized audio blocks from a source
package media

import (
	"fmt"

	"github.com/openplayout/playout-go/pkg/format"
	"github.com/openplayout/playout-go/pkg/frame"
)

// AudioSource produces interleaved 32-bit samples on demand.
type AudioSource interface {
	// NextBlock fills and returns sampleFrames frames of interleaved audio.
	NextBlock(sampleFrames int) ([]int32, error)
	Close() error
}

// FrameSource assembles complete frames for a given output format: a
// generated image plus the cadence-correct amount of audio per frame.
type FrameSource struct {
	format format.Format
	image  []byte
	audio  AudioSource
	n      int
}

// NewFrameSource creates a source producing color-bar frames with audio
// from src. src may be nil for video-only output.
func NewFrameSource(fd format.Format, src AudioSource) *FrameSource {
	return &FrameSource{
		format: fd,
		image:  Bars(fd),
		audio:  src,
	}
}

// NextFrame assembles the next frame in sequence.
func (s *FrameSource) NextFrame() (*frame.Frame, error) {
	f := &frame.Frame{Image: s.image}

	if s.audio != nil {
		block, err := s.audio.NextBlock(s.format.CadenceAt(s.n))
		if err != nil {
			return nil, fmt.Errorf("audio source: %w", err)
		}
		f.Audio = block
	}

	s.n++
	return f, nil
}

// Close releases the underlying audio source.
func (s *FrameSource) Close() error {
	if s.audio != nil {
		return s.audio.Close()
	}
	return nil
}
