// ABOUTME: Video output format descriptors and audio cadence tables
// ABOUTME: Defines frame geometry, timing and per-frame audio sample counts
package format

import "fmt"

const (
	// SampleRate is the embedded-audio sample rate for all SDI modes.
	SampleRate = 48000

	// Channels is the embedded-audio channel count.
	Channels = 2

	// BytesPerPixel for 8-bit BGRA output.
	BytesPerPixel = 4
)

// Format describes one video output mode.
type Format struct {
	Name   string
	Width  int
	Height int

	// Frame rate expressed as Duration/TimeScale ticks, matching the
	// schedule-video-frame driver contract (e.g. 1000/25000 for 25 fps).
	Duration  int64
	TimeScale int64

	// Cadence is the repeating per-frame audio sample-frame pattern. It
	// compensates non-integer sample-rate/frame-rate ratios: NTSC-family
	// rates spread 48000 samples unevenly across frames.
	Cadence []int
}

// Size returns the byte size of one video frame.
func (f Format) Size() int {
	return f.Width * f.Height * BytesPerPixel
}

// RowBytes returns the byte stride of one video line.
func (f Format) RowBytes() int {
	return f.Width * BytesPerPixel
}

// FPS returns the frame rate as a float.
func (f Format) FPS() float64 {
	return float64(f.TimeScale) / float64(f.Duration)
}

// CadenceAt returns the audio sample-frame count for frame n.
func (f Format) CadenceAt(n int) int {
	return f.Cadence[n%len(f.Cadence)]
}

// FrameInterval returns one frame duration in nanoseconds.
func (f Format) FrameInterval() int64 {
	return f.Duration * 1e9 / f.TimeScale
}

var (
	cadence25   = []int{1920}
	cadence2997 = []int{1602, 1601, 1602, 1601, 1602}
	cadence30   = []int{1600}
	cadence50   = []int{960}
	cadence5994 = []int{801, 800, 801, 801, 801}
	cadence60   = []int{800}
)

// Standard output modes. Interlaced modes keep their field-pair frame rate;
// scheduling operates on full frames.
var formats = []Format{
	{Name: "PAL", Width: 720, Height: 576, Duration: 1000, TimeScale: 25000, Cadence: cadence25},
	{Name: "NTSC", Width: 720, Height: 486, Duration: 1001, TimeScale: 30000, Cadence: cadence2997},
	{Name: "720p25", Width: 1280, Height: 720, Duration: 1000, TimeScale: 25000, Cadence: cadence25},
	{Name: "720p50", Width: 1280, Height: 720, Duration: 1000, TimeScale: 50000, Cadence: cadence50},
	{Name: "720p2997", Width: 1280, Height: 720, Duration: 1001, TimeScale: 30000, Cadence: cadence2997},
	{Name: "720p5994", Width: 1280, Height: 720, Duration: 1001, TimeScale: 60000, Cadence: cadence5994},
	{Name: "720p30", Width: 1280, Height: 720, Duration: 1000, TimeScale: 30000, Cadence: cadence30},
	{Name: "720p60", Width: 1280, Height: 720, Duration: 1000, TimeScale: 60000, Cadence: cadence60},
	{Name: "1080i50", Width: 1920, Height: 1080, Duration: 1000, TimeScale: 25000, Cadence: cadence25},
	{Name: "1080i5994", Width: 1920, Height: 1080, Duration: 1001, TimeScale: 30000, Cadence: cadence2997},
	{Name: "1080p25", Width: 1920, Height: 1080, Duration: 1000, TimeScale: 25000, Cadence: cadence25},
	{Name: "1080p2997", Width: 1920, Height: 1080, Duration: 1001, TimeScale: 30000, Cadence: cadence2997},
	{Name: "1080p30", Width: 1920, Height: 1080, Duration: 1000, TimeScale: 30000, Cadence: cadence30},
	{Name: "1080p50", Width: 1920, Height: 1080, Duration: 1000, TimeScale: 50000, Cadence: cadence50},
	{Name: "1080p5994", Width: 1920, Height: 1080, Duration: 1001, TimeScale: 60000, Cadence: cadence5994},
	{Name: "1080p60", Width: 1920, Height: 1080, Duration: 1000, TimeScale: 60000, Cadence: cadence60},
}

// Lookup returns the format registered under name.
func Lookup(name string) (Format, error) {
	for _, f := range formats {
		if f.Name == name {
			return f, nil
		}
	}
	return Format{}, fmt.Errorf("unknown video format: %s", name)
}

// Names lists all registered format names.
func Names() []string {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = f.Name
	}
	return names
}
