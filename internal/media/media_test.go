// ABOUTME: Tests for demo media sources
// ABOUTME: Cadence-sized frame assembly, tone generation and bar rendering
package media

import (
	"testing"

	"github.com/openplayout/playout-go/pkg/format"
)

func mustFormat(t *testing.T, name string) format.Format {
	t.Helper()
	f, err := format.Lookup(name)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestToneBlockSizing(t *testing.T) {
	tone := NewToneSource(format.SampleRate, format.Channels)

	block, err := tone.NextBlock(1602)
	if err != nil {
		t.Fatal(err)
	}
	if len(block) != 1602*2 {
		t.Fatalf("block length %d, want %d", len(block), 1602*2)
	}

	// Interleaved stereo: both channels carry the same tone.
	if block[2] != block[3] {
		t.Error("channels should carry identical samples")
	}
}

func TestToneIsContinuous(t *testing.T) {
	a := NewToneSource(format.SampleRate, format.Channels)
	b := NewToneSource(format.SampleRate, format.Channels)

	long, _ := a.NextBlock(3200)
	first, _ := b.NextBlock(1600)
	second, _ := b.NextBlock(1600)

	for i := range first {
		if long[i] != first[i] {
			t.Fatal("first block diverges from continuous generation")
		}
	}
	for i := range second {
		if long[len(first)+i] != second[i] {
			t.Fatal("second block should continue where the first ended")
		}
	}
}

func TestFrameSourceFollowsCadence(t *testing.T) {
	fd := mustFormat(t, "NTSC")
	src := NewFrameSource(fd, NewToneSource(format.SampleRate, format.Channels))
	defer src.Close()

	for i := 0; i < 7; i++ {
		f, err := src.NextFrame()
		if err != nil {
			t.Fatal(err)
		}

		if len(f.Image) != fd.Size() {
			t.Fatalf("frame %d image size %d, want %d", i, len(f.Image), fd.Size())
		}
		want := fd.CadenceAt(i)
		if got := f.SampleFrames(format.Channels); got != want {
			t.Errorf("frame %d carries %d sample frames, want %d", i, got, want)
		}
	}
}

func TestFrameSourceVideoOnly(t *testing.T) {
	fd := mustFormat(t, "PAL")
	src := NewFrameSource(fd, nil)

	f, err := src.NextFrame()
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Audio) != 0 {
		t.Error("video-only source should emit no audio")
	}
}

func TestBarsGeometry(t *testing.T) {
	fd := mustFormat(t, "PAL")
	img := Bars(fd)

	if len(img) != fd.Size() {
		t.Fatalf("bars image size %d, want %d", len(img), fd.Size())
	}

	// Leftmost pixel is white-ish, rightmost is black-ish, all opaque.
	if img[0] != 235 || img[3] != 255 {
		t.Error("unexpected first pixel")
	}
	last := (fd.Width - 1) * format.BytesPerPixel
	if img[last] != 16 || img[last+3] != 255 {
		t.Error("unexpected last pixel")
	}
}
