// ABOUTME: Scripted fake output device for engine tests
// ABOUTME: Records scheduling calls and lets tests drive the callbacks by hand
package playout

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/openplayout/playout-go/pkg/decklink"
	"github.com/openplayout/playout-go/pkg/format"
)

type scheduledVideo struct {
	frame       decklink.VideoFrame
	displayTime int64
	duration    int64
	timeScale   int64
}

type scheduledAudio struct {
	samples      []int32
	sampleFrames int
	streamTime   int64
}

type fakeOutput struct {
	mu sync.Mutex

	videoCB decklink.VideoCallback
	audioCB decklink.AudioCallback

	videoEnabled bool
	audioEnabled bool
	prerolling   bool
	prerollEnded bool
	started      bool
	stopped      bool

	inflight []decklink.VideoFrame
	video    []scheduledVideo
	audio    []scheduledAudio

	failEnableVideo    bool
	failEnableAudio    bool
	panicScheduleVideo bool
}

func (o *fakeOutput) EnableVideoOutput(mode decklink.DisplayMode) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failEnableVideo {
		return errors.New("video output unavailable")
	}
	o.videoEnabled = true
	return nil
}

func (o *fakeOutput) DisableVideoOutput() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.videoEnabled = false
	return nil
}

func (o *fakeOutput) SetVideoCallback(cb decklink.VideoCallback) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.videoCB = cb
	return nil
}

func (o *fakeOutput) EnableAudioOutput(sampleRate, channels int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failEnableAudio {
		return errors.New("audio output unavailable")
	}
	o.audioEnabled = true
	return nil
}

func (o *fakeOutput) DisableAudioOutput() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.audioEnabled = false
	return nil
}

func (o *fakeOutput) SetAudioCallback(cb decklink.AudioCallback) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.audioCB = cb
	return nil
}

func (o *fakeOutput) BeginAudioPreroll() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.prerolling = true
	return nil
}

func (o *fakeOutput) EndAudioPreroll() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.prerolling = false
	o.prerollEnded = true
	return nil
}

func (o *fakeOutput) StartScheduledPlayback(startTime, timeScale int64) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = true
	return nil
}

func (o *fakeOutput) StopScheduledPlayback() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = false
	o.stopped = true
	return nil
}

func (o *fakeOutput) ScheduleVideoFrame(f decklink.VideoFrame, displayTime, duration, timeScale int64) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.panicScheduleVideo {
		o.panicScheduleVideo = false
		panic("simulated driver fault")
	}
	o.inflight = append(o.inflight, f)
	o.video = append(o.video, scheduledVideo{f, displayTime, duration, timeScale})
	return nil
}

func (o *fakeOutput) ScheduleAudioSamples(samples []int32, sampleFrames int, streamTime int64, sampleRate int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.audio = append(o.audio, scheduledAudio{samples, sampleFrames, streamTime})
	return nil
}

func (o *fakeOutput) BufferedVideoFrames() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.inflight)
}

func (o *fakeOutput) BufferedAudioSampleFrames() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	total := 0
	for _, a := range o.audio {
		total += a.sampleFrames
	}
	return total
}

// completeNext pops the oldest in-flight frame and fires the completion
// callback with the given result, as the device would.
func (o *fakeOutput) completeNext(result decklink.CompletionResult) error {
	o.mu.Lock()
	if len(o.inflight) == 0 {
		o.mu.Unlock()
		return errors.New("no frame in flight")
	}
	f := o.inflight[0]
	o.inflight = o.inflight[1:]
	cb := o.videoCB
	o.mu.Unlock()

	return cb.FrameCompleted(f, result)
}

func (o *fakeOutput) renderAudio(preroll bool) error {
	o.mu.Lock()
	cb := o.audioCB
	o.mu.Unlock()
	return cb.RenderAudioSamples(preroll)
}

func (o *fakeOutput) scheduledVideoCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.video)
}

func (o *fakeOutput) scheduledAudioCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.audio)
}

type fakeDevice struct {
	out        *fakeOutput
	model      string
	lowLatency bool
	keyerOn    bool
	keyerExt   bool
	keyerLevel int
	noInternal bool
	noExternal bool
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{out: &fakeOutput{}, model: "Fake DeckLink 8K Pro"}
}

func (d *fakeDevice) ModelName() string            { return d.model }
func (d *fakeDevice) Output() decklink.Output      { return d.out }
func (d *fakeDevice) SupportsInternalKeying() bool { return !d.noInternal }
func (d *fakeDevice) SupportsExternalKeying() bool { return !d.noExternal }

func (d *fakeDevice) EnableKeyer(external bool) error {
	d.keyerOn = true
	d.keyerExt = external
	return nil
}

func (d *fakeDevice) SetKeyerLevel(level int) error {
	d.keyerLevel = level
	return nil
}

func (d *fakeDevice) SetLowLatency(enabled bool) error {
	d.lowLatency = enabled
	return nil
}

var nextFakeIndex atomic.Int64

// registerFakeDevice registers a fresh fake at a unique index and returns it.
func registerFakeDevice(t *testing.T) (int, *fakeDevice) {
	t.Helper()

	index := int(nextFakeIndex.Add(1)) + 1000
	dev := newFakeDevice()
	decklink.Register(index, dev)
	t.Cleanup(func() { decklink.Unregister(index) })

	return index, dev
}

// frameBytes extracts the transmitted bytes of a scheduled frame.
func frameBytes(t *testing.T, f decklink.VideoFrame) []byte {
	t.Helper()

	b, err := f.Bytes()
	if err != nil {
		t.Fatalf("frame bytes: %v", err)
	}
	return b
}

var testFormat = mustFormat("PAL")

func mustFormat(name string) format.Format {
	f, err := format.Lookup(name)
	if err != nil {
		panic(err)
	}
	return f
}
