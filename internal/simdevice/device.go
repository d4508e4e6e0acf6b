// ABOUTME: Software stand-in for a DeckLink output card
// ABOUTME: Drives completion and audio-render callbacks from ticker goroutines
package simdevice

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/openplayout/playout-go/pkg/decklink"
)

// Config configures a simulated device.
type Config struct {
	// Model is the reported model name.
	Model string

	// Speaker mixes scheduled audio to the system output for monitoring.
	Speaker bool
}

// Device simulates one output card. It honors the driver contract the
// engine relies on: video completion callbacks at the negotiated frame rate,
// audio render callbacks at a fixed 50 Hz regardless of video mode, and
// asynchronous retention of scheduled buffers.
type Device struct {
	mu         sync.Mutex
	model      string
	out        *Output
	lowLatency bool
	keyerOn    bool
	keyerExt   bool
	keyerLevel int
}

// New creates a simulated device.
func New(cfg Config) *Device {
	model := cfg.Model
	if model == "" {
		model = "DeckLink SDI (simulated)"
	}
	return &Device{
		model: model,
		out:   &Output{wantSpeaker: cfg.Speaker},
	}
}

func (d *Device) ModelName() string       { return d.model }
func (d *Device) Output() decklink.Output { return d.out }

func (d *Device) SupportsInternalKeying() bool { return true }
func (d *Device) SupportsExternalKeying() bool { return true }

func (d *Device) EnableKeyer(external bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keyerOn = true
	d.keyerExt = external
	return nil
}

func (d *Device) SetKeyerLevel(level int) error {
	if level < 0 || level > 255 {
		return errors.New("keyer level out of range")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keyerLevel = level
	return nil
}

func (d *Device) SetLowLatency(enabled bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lowLatency = enabled
	return nil
}

// Close tears down the device's goroutines and the speaker monitor.
func (d *Device) Close() {
	d.out.shutdown()
}

// audioPullInterval matches real hardware: the device asks for audio 50
// times per second regardless of video mode.
const audioPullInterval = 20 * time.Millisecond

// Output implements the scheduling surface of the simulated card.
type Output struct {
	mu sync.Mutex

	wantSpeaker bool
	speaker     *Speaker

	mode         decklink.DisplayMode
	videoCB      decklink.VideoCallback
	audioCB      decklink.AudioCallback
	videoEnabled bool
	audioEnabled bool
	sampleRate   int
	channels     int

	prerolling bool
	started    bool
	starved    bool

	inflight      []decklink.VideoFrame
	audioBuffered int

	audioLoopOn bool
	videoLoopOn bool
	stop        chan struct{}
	wg          sync.WaitGroup
}

func (o *Output) EnableVideoOutput(mode decklink.DisplayMode) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if mode.Width <= 0 || mode.Height <= 0 || mode.Duration <= 0 || mode.TimeScale <= 0 {
		return errors.New("invalid display mode")
	}
	o.mode = mode
	o.videoEnabled = true
	if o.stop == nil {
		o.stop = make(chan struct{})
	}
	return nil
}

func (o *Output) DisableVideoOutput() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.videoEnabled = false
	o.inflight = nil
	return nil
}

func (o *Output) SetVideoCallback(cb decklink.VideoCallback) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.videoCB = cb
	return nil
}

func (o *Output) EnableAudioOutput(sampleRate, channels int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.audioEnabled = true
	o.sampleRate = sampleRate
	o.channels = channels
	if o.stop == nil {
		o.stop = make(chan struct{})
	}

	if o.wantSpeaker && o.speaker == nil {
		sp, err := NewSpeaker(sampleRate, channels)
		if err != nil {
			log.Printf("simdevice: speaker monitor unavailable: %v", err)
		} else {
			o.speaker = sp
		}
	}
	return nil
}

func (o *Output) DisableAudioOutput() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.audioEnabled = false
	if o.speaker != nil {
		o.speaker.Close()
		o.speaker = nil
	}
	return nil
}

func (o *Output) SetAudioCallback(cb decklink.AudioCallback) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.audioCB = cb
	return nil
}

func (o *Output) BeginAudioPreroll() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.audioEnabled {
		return errors.New("audio output not enabled")
	}
	o.prerolling = true
	o.startAudioLoopLocked()
	return nil
}

func (o *Output) EndAudioPreroll() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.prerolling = false
	return nil
}

func (o *Output) StartScheduledPlayback(startTime, timeScale int64) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.videoEnabled {
		return errors.New("video output not enabled")
	}
	o.started = true
	o.startVideoLoopLocked()
	if o.audioEnabled {
		o.startAudioLoopLocked()
	}
	return nil
}

func (o *Output) StopScheduledPlayback() error {
	o.mu.Lock()
	o.started = false
	o.prerolling = false
	cb := o.videoCB
	o.mu.Unlock()

	if cb != nil {
		cb.PlaybackStopped()
	}
	return nil
}

func (o *Output) ScheduleVideoFrame(f decklink.VideoFrame, displayTime, duration, timeScale int64) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.videoEnabled {
		return errors.New("video output not enabled")
	}
	o.inflight = append(o.inflight, f)
	return nil
}

func (o *Output) ScheduleAudioSamples(samples []int32, sampleFrames int, streamTime int64, sampleRate int) error {
	o.mu.Lock()
	if !o.audioEnabled {
		o.mu.Unlock()
		return errors.New("audio output not enabled")
	}
	o.audioBuffered += sampleFrames
	sp := o.speaker
	o.mu.Unlock()

	if sp != nil {
		sp.Write(samples)
	}
	return nil
}

func (o *Output) BufferedVideoFrames() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.inflight)
}

func (o *Output) BufferedAudioSampleFrames() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.audioBuffered
}

func (o *Output) startAudioLoopLocked() {
	if o.audioLoopOn {
		return
	}
	o.audioLoopOn = true
	o.wg.Add(1)
	go o.audioLoop(o.stop)
}

func (o *Output) startVideoLoopLocked() {
	if o.videoLoopOn {
		return
	}
	o.videoLoopOn = true
	o.wg.Add(1)
	go o.videoLoop(o.stop)
}

// audioLoop fires the audio render callback at the fixed pull cadence.
func (o *Output) audioLoop(stop <-chan struct{}) {
	defer o.wg.Done()

	ticker := time.NewTicker(audioPullInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			o.mu.Lock()
			cb := o.audioCB
			preroll := o.prerolling
			started := o.started
			if started && !preroll {
				// Playback consumes roughly one pull interval of audio.
				consumed := o.sampleRate / 50
				if o.audioBuffered < consumed {
					consumed = o.audioBuffered
				}
				o.audioBuffered -= consumed
			}
			o.mu.Unlock()

			if cb == nil {
				continue
			}
			if preroll {
				if err := cb.RenderAudioSamples(true); err != nil {
					log.Printf("simdevice: audio preroll callback failed: %v", err)
				}
			} else if started {
				if err := cb.RenderAudioSamples(false); err != nil {
					log.Printf("simdevice: audio render callback failed: %v", err)
				}
			}
		}
	}
}

// videoLoop completes one in-flight frame per frame interval. A tick with
// nothing buffered marks the stream starved; the next completed frame is
// reported displayed-late, as real hardware does after catching up.
func (o *Output) videoLoop(stop <-chan struct{}) {
	defer o.wg.Done()

	o.mu.Lock()
	interval := time.Duration(o.mode.Duration) * time.Second / time.Duration(o.mode.TimeScale)
	o.mu.Unlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			o.mu.Lock()
			if !o.started || len(o.inflight) == 0 {
				if o.started {
					o.starved = true
				}
				o.mu.Unlock()
				continue
			}
			f := o.inflight[0]
			o.inflight = o.inflight[1:]
			result := decklink.Completed
			if o.starved {
				result = decklink.DisplayedLate
				o.starved = false
			}
			cb := o.videoCB
			o.mu.Unlock()

			if cb != nil {
				if err := cb.FrameCompleted(f, result); err != nil {
					log.Printf("simdevice: completion callback failed: %v", err)
				}
			}
		}
	}
}

func (o *Output) shutdown() {
	o.mu.Lock()
	stop := o.stop
	o.stop = nil
	o.audioLoopOn = false
	o.videoLoopOn = false
	sp := o.speaker
	o.speaker = nil
	o.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	o.wg.Wait()

	if sp != nil {
		sp.Close()
	}
}
