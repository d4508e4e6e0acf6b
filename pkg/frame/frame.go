// ABOUTME: Immutable audio/video frame snapshot passed through the playout chain
// ABOUTME: Owned by the producer, borrowed by the consumer while scheduled
package frame

// Frame is one rendered frame: BGRA image bytes plus interleaved audio
// samples. Contents must not be mutated after construction; the output
// device holds references asynchronously until the frame has displayed.
type Frame struct {
	Image []byte
	Audio []int32
}

// Empty is the shared placeholder frame used for priming and underruns.
var Empty = &Frame{}

// SampleFrames returns the number of audio sample frames for the given
// channel count.
func (f *Frame) SampleFrames(channels int) int {
	if channels <= 0 {
		return 0
	}
	return len(f.Audio) / channels
}

// IsEmpty reports whether the frame carries no data.
func (f *Frame) IsEmpty() bool {
	return len(f.Image) == 0 && len(f.Audio) == 0
}
