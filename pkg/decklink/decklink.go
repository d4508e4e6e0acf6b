// ABOUTME: Driver collaborator API for DeckLink-class output hardware
// ABOUTME: Defines the device/output interfaces and callback contracts the engine schedules against
package decklink

// CompletionResult classifies how the device completed a scheduled frame.
type CompletionResult int

const (
	// Completed means the frame displayed at its scheduled time.
	Completed CompletionResult = iota
	// DisplayedLate means the frame displayed after its scheduled time;
	// the device has internally caught up by one frame.
	DisplayedLate
	// Dropped means the frame was never displayed.
	Dropped
	// Flushed means the frame was discarded during a flush.
	Flushed
)

func (r CompletionResult) String() string {
	switch r {
	case Completed:
		return "completed"
	case DisplayedLate:
		return "displayed-late"
	case Dropped:
		return "dropped"
	case Flushed:
		return "flushed"
	default:
		return "unknown"
	}
}

// VideoFrame is the driver's view of one schedulable video frame. Bytes is
// called from driver threads; an error return is reported to the device as a
// frame failure code and must never panic.
type VideoFrame interface {
	Width() int
	Height() int
	RowBytes() int
	Bytes() ([]byte, error)
}

// VideoCallback receives scheduled-frame completion notifications. An error
// return crosses the callback boundary as a failure code; the driver never
// sees a panic.
type VideoCallback interface {
	FrameCompleted(frame VideoFrame, result CompletionResult) error
	PlaybackStopped()
}

// AudioCallback is invoked whenever the device wants more audio. The device
// pulls at its own fixed cadence (50 times per second on real hardware),
// independent of the video frame rate. preroll is true until EndAudioPreroll.
type AudioCallback interface {
	RenderAudioSamples(preroll bool) error
}

// DisplayMode describes the negotiated output raster and frame timing.
type DisplayMode struct {
	Width     int
	Height    int
	Duration  int64
	TimeScale int64
}

// Output is the scheduling surface of an output device.
type Output interface {
	EnableVideoOutput(mode DisplayMode) error
	DisableVideoOutput() error
	SetVideoCallback(cb VideoCallback) error

	EnableAudioOutput(sampleRate, channels int) error
	DisableAudioOutput() error
	SetAudioCallback(cb AudioCallback) error

	BeginAudioPreroll() error
	EndAudioPreroll() error

	StartScheduledPlayback(startTime, timeScale int64) error
	StopScheduledPlayback() error

	// ScheduleVideoFrame queues frame for display at displayTime. The device
	// holds a reference to the frame until its completion callback fires.
	ScheduleVideoFrame(frame VideoFrame, displayTime, duration, timeScale int64) error

	// ScheduleAudioSamples queues interleaved samples at streamTime. The
	// device reads the slice asynchronously; the caller must keep it alive
	// until the corresponding video frame has displayed.
	ScheduleAudioSamples(samples []int32, sampleFrames int, streamTime int64, sampleRate int) error

	BufferedVideoFrames() int
	BufferedAudioSampleFrames() int
}

// Device is one physical or simulated output card.
type Device interface {
	ModelName() string
	Output() Output

	SupportsInternalKeying() bool
	SupportsExternalKeying() bool

	// EnableKeyer enables the hardware keyer; external selects external
	// keying, otherwise internal.
	EnableKeyer(external bool) error
	SetKeyerLevel(level int) error

	SetLowLatency(enabled bool) error
}
