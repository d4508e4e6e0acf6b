// ABOUTME: Frame adapter presenting a source frame as device-consumable bytes
// ABOUTME: Handles key-only alpha extraction and the blank-frame size fallback
package playout

import (
	"fmt"
	"sync"

	"github.com/openplayout/playout-go/pkg/decklink"
	"github.com/openplayout/playout-go/pkg/format"
	"github.com/openplayout/playout-go/pkg/frame"
)

// outputFrame adapts one source frame to the decklink.VideoFrame contract.
// A new adapter is created per scheduled frame; the device releases it when
// the completion callback fires and the GC reclaims it after last use.
type outputFrame struct {
	frame   *frame.Frame
	format  format.Format
	keyOnly bool

	once sync.Once
	data []byte
	err  error
}

var _ decklink.VideoFrame = (*outputFrame)(nil)

func newOutputFrame(f *frame.Frame, fd format.Format, keyOnly bool) *outputFrame {
	return &outputFrame{frame: f, format: fd, keyOnly: keyOnly}
}

func (o *outputFrame) Width() int    { return o.format.Width }
func (o *outputFrame) Height() int   { return o.format.Height }
func (o *outputFrame) RowBytes() int { return o.format.RowBytes() }

// Bytes returns the bytes the device will transmit. A source frame of the
// wrong size becomes a zero-filled blank; key-only mode returns a cached
// alpha-shuffled copy; otherwise the source bytes are handed over without
// copying. Called from driver threads; failures become error returns, never
// panics.
func (o *outputFrame) Bytes() (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, fmt.Errorf("frame bytes: %v", r)
		}
	}()

	if len(o.frame.Image) != o.format.Size() {
		o.once.Do(func() {
			o.data = make([]byte, o.format.Size())
		})
		return o.data, o.err
	}

	if o.keyOnly {
		o.once.Do(func() {
			o.data = make([]byte, len(o.frame.Image))
			shuffleKey(o.data, o.frame.Image)
		})
		return o.data, o.err
	}

	return o.frame.Image, nil
}

// audioSampleFrames reports the sample-frame count of the adapted frame,
// used for the displayed-late audio clock correction.
func (o *outputFrame) audioSampleFrames() int {
	return o.frame.SampleFrames(format.Channels)
}

// shuffleKey replaces all four lanes of every BGRA pixel with its alpha
// byte, producing a key-only (a,a,a,a) frame.
func shuffleKey(dst, src []byte) {
	for i := 0; i+3 < len(src); i += 4 {
		a := src[i+3]
		dst[i] = a
		dst[i+1] = a
		dst[i+2] = a
		dst[i+3] = a
	}
}
