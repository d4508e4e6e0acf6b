// ABOUTME: Test tone generator for the demo player
// ABOUTME: Generates a 440Hz sine wave as interleaved 32-bit samples
package media

import "math"

// ToneSource generates a 440Hz test tone.
type ToneSource struct {
	sampleIndex uint64
	frequency   float64
	sampleRate  int
	channels    int
}

// NewToneSource creates a new test tone generator.
func NewToneSource(sampleRate, channels int) *ToneSource {
	return &ToneSource{
		frequency:  440.0, // A4 note
		sampleRate: sampleRate,
		channels:   channels,
	}
}

// NextBlock generates sampleFrames frames of tone.
func (s *ToneSource) NextBlock(sampleFrames int) ([]int32, error) {
	block := make([]int32, sampleFrames*s.channels)

	for i := 0; i < sampleFrames; i++ {
		t := float64(s.sampleIndex+uint64(i)) / float64(s.sampleRate)
		sample := math.Sin(2 * math.Pi * s.frequency * t)

		// 32-bit full scale at 50% volume.
		v := int32(sample * float64(math.MaxInt32) * 0.5)
		for ch := 0; ch < s.channels; ch++ {
			block[i*s.channels+ch] = v
		}
	}

	s.sampleIndex += uint64(sampleFrames)
	return block, nil
}

func (s *ToneSource) Close() error { return nil }
