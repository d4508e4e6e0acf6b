// ABOUTME: Real-time scheduling engine feeding a DeckLink-class output device
// ABOUTME: Preroll handshake, completion-driven re-arm loop and audio drain scheduling
package playout

import (
	"errors"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/openplayout/playout-go/pkg/decklink"
	"github.com/openplayout/playout-go/pkg/format"
	"github.com/openplayout/playout-go/pkg/frame"
)

// ErrNotRunning is returned by Send after the engine has stopped.
var ErrNotRunning = errors.New("consumer is not running")

// Stats is a point-in-time snapshot of engine counters.
type Stats struct {
	ScheduledVideoFrames      int64 `json:"scheduled-video-frames"`
	ScheduledAudioBlocks      int64 `json:"scheduled-audio-blocks"`
	LateFrames                int64 `json:"late-frames"`
	DroppedFrames             int64 `json:"dropped-frames"`
	FlushedFrames             int64 `json:"flushed-frames"`
	BufferedVideoFrames       int64 `json:"buffered-video-frames"`
	BufferedAudioSampleFrames int64 `json:"buffered-audio-sample-frames"`
}

// engine drives one (format, channel) playback session. It implements the
// driver's video and audio callback contracts and is invoked concurrently
// from the device's callback goroutines and the owning Send goroutine.
type engine struct {
	id      uuid.UUID
	channel int
	config  Config
	format  format.Format

	device decklink.Device
	output decklink.Output
	model  string

	running atomic.Bool
	latch   errorLatch

	// videoScheduled and audioScheduled are the driver stream clocks. The
	// displayed-late resync advances the audio clock from the video callback
	// goroutine while the audio callback advances it too, so both clocks are
	// atomic.
	videoScheduled atomic.Int64
	audioScheduled atomic.Int64
	prerollCount   int

	videoSlot *slotBuffer
	audioSlot *slotBuffer
	history   *audioHistory
	pending   pendingSend

	scheduledVideo atomic.Int64
	scheduledAudio atomic.Int64
	lateFrames     atomic.Int64
	droppedFrames  atomic.Int64
	flushedFrames  atomic.Int64
	bufferedVideo  atomic.Int64
	bufferedAudio  atomic.Int64
}

// newEngine opens the configured device, enables outputs, registers the
// callbacks and primes the pipeline with bufferDepth placeholder frames.
// Any enable or registration failure aborts construction.
func newEngine(cfg Config, fd format.Format, channel int) (*engine, error) {
	dev, err := decklink.Open(cfg.DeviceIndex)
	if err != nil {
		return nil, err
	}

	audioCapacity := 1
	if fd.FPS() > 50.0 {
		audioCapacity = 2
	}

	e := &engine{
		id:        uuid.New(),
		channel:   channel,
		config:    cfg,
		format:    fd,
		device:    dev,
		output:    dev.Output(),
		model:     dev.ModelName(),
		videoSlot: newSlotBuffer(1),
		audioSlot: newSlotBuffer(audioCapacity),
		history:   newAudioHistory(cfg.BufferDepth() + 1),
	}
	e.running.Store(true)

	if err := e.enableVideo(); err != nil {
		return nil, err
	}
	if cfg.EmbeddedAudio {
		if err := e.enableAudio(); err != nil {
			return nil, err
		}
	}

	e.setLatency()
	e.setKeyer()

	if cfg.EmbeddedAudio {
		if err := e.output.BeginAudioPreroll(); err != nil {
			return nil, fmt.Errorf("%s could not begin audio preroll: %w", e, err)
		}
	}

	for n := 0; n < cfg.BufferDepth(); n++ {
		e.scheduleNextVideo(frame.Empty)
	}

	if !cfg.EmbeddedAudio {
		if err := e.startPlayback(); err != nil {
			return nil, err
		}
	}

	log.Printf("%s Initialized session %s.", e, e.id)
	return e, nil
}

func (e *engine) enableVideo() error {
	mode := decklink.DisplayMode{
		Width:     e.format.Width,
		Height:    e.format.Height,
		Duration:  e.format.Duration,
		TimeScale: e.format.TimeScale,
	}

	if err := e.output.EnableVideoOutput(mode); err != nil {
		return fmt.Errorf("%s could not enable video output: %w", e, err)
	}
	if err := e.output.SetVideoCallback(e); err != nil {
		return fmt.Errorf("%s failed to set playback completion callback: %w", e, err)
	}
	return nil
}

func (e *engine) enableAudio() error {
	if err := e.output.EnableAudioOutput(format.SampleRate, format.Channels); err != nil {
		return fmt.Errorf("%s could not enable audio output: %w", e, err)
	}
	if err := e.output.SetAudioCallback(e); err != nil {
		return fmt.Errorf("%s could not set audio callback: %w", e, err)
	}
	log.Printf("%s Enabled embedded-audio.", e)
	return nil
}

func (e *engine) setLatency() {
	switch e.config.Latency {
	case LatencyLow:
		if err := e.device.SetLowLatency(true); err != nil {
			log.Printf("%s Failed to enable low-latency mode: %v", e, err)
			return
		}
		log.Printf("%s Enabled low-latency mode.", e)
	case LatencyNormal:
		if err := e.device.SetLowLatency(false); err != nil {
			log.Printf("%s Failed to disable low-latency mode: %v", e, err)
			return
		}
		log.Printf("%s Disabled low-latency mode.", e)
	}
}

// setKeyer configures the hardware keyer. Keyer failures are logged, never
// fatal; playout continues fill-only.
func (e *engine) setKeyer() {
	switch e.config.Keyer {
	case KeyerInternal:
		if !e.device.SupportsInternalKeying() {
			log.Printf("%s Failed to enable internal keyer.", e)
		} else if err := e.device.EnableKeyer(false); err != nil {
			log.Printf("%s Failed to enable internal keyer: %v", e, err)
		} else if err := e.device.SetKeyerLevel(255); err != nil {
			log.Printf("%s Failed to set key-level to max: %v", e, err)
		} else {
			log.Printf("%s Enabled internal keyer.", e)
		}
	case KeyerExternal:
		if !e.device.SupportsExternalKeying() {
			log.Printf("%s Failed to enable external keyer.", e)
		} else if err := e.device.EnableKeyer(true); err != nil {
			log.Printf("%s Failed to enable external keyer: %v", e, err)
		} else if err := e.device.SetKeyerLevel(255); err != nil {
			log.Printf("%s Failed to set key-level to max: %v", e, err)
		} else {
			log.Printf("%s Enabled external keyer.", e)
		}
	}
}

func (e *engine) startPlayback() error {
	if err := e.output.StartScheduledPlayback(0, e.format.TimeScale); err != nil {
		return fmt.Errorf("%s failed to schedule playback: %w", e, err)
	}
	return nil
}

// FrameCompleted implements decklink.VideoCallback. It runs on the device's
// video callback goroutine: classify the completion, re-arm one frame from
// the video slot (or a blank on underrun) and free the slot for the
// coordinator. Failures are latched and returned as a failure code; nothing
// unwinds past this boundary.
func (e *engine) FrameCompleted(completed decklink.VideoFrame, result decklink.CompletionResult) error {
	if !e.running.Load() {
		return ErrNotRunning
	}

	err := e.guard(func() {
		switch result {
		case decklink.DisplayedLate:
			// The device caught up internally by one frame; advance both
			// clocks to stay aligned with it.
			e.lateFrames.Add(1)
			e.videoScheduled.Add(e.format.Duration)
			if of, ok := completed.(*outputFrame); ok {
				e.audioScheduled.Add(int64(of.audioSampleFrames()))
			}
		case decklink.Dropped:
			e.droppedFrames.Add(1)
		case decklink.Flushed:
			e.flushedFrames.Add(1)
		}

		f, ok := e.videoSlot.tryPop()
		if !ok {
			f = frame.Empty
		}
		e.pending.tryComplete()
		e.scheduleNextVideo(f)

		e.bufferedVideo.Store(int64(e.output.BufferedVideoFrames()))
	})
	if err != nil {
		e.latch.store(err)
		return err
	}
	return nil
}

// PlaybackStopped implements decklink.VideoCallback.
func (e *engine) PlaybackStopped() {
	e.running.Store(false)
	log.Printf("%s Scheduled playback has stopped.", e)
}

// RenderAudioSamples implements decklink.AudioCallback. During preroll it
// feeds cadence-sized silence until bufferDepth callbacks have fired, then
// starts scheduled playback. In steady state it drains every buffered audio
// frame, since the pull cadence is independent of the video rate.
func (e *engine) RenderAudioSamples(preroll bool) error {
	if !e.running.Load() {
		return ErrNotRunning
	}

	err := e.guard(func() {
		if preroll {
			e.prerollCount++
			if e.prerollCount >= e.config.BufferDepth() {
				if err := e.output.EndAudioPreroll(); err != nil {
					log.Printf("%s Failed to end audio preroll: %v", e, err)
				}
				if err := e.startPlayback(); err != nil {
					log.Printf("%s %v", e, err)
				}
			} else {
				silence := make([]int32, e.format.CadenceAt(e.prerollCount)*format.Channels)
				e.scheduleNextAudio(silence)
			}
		} else {
			for {
				f, ok := e.audioSlot.tryPop()
				if !ok {
					break
				}
				e.pending.tryComplete()
				e.scheduleNextAudio(f.Audio)
			}
		}

		e.bufferedAudio.Store(int64(e.output.BufferedAudioSampleFrames()))
	})
	if err != nil {
		e.latch.store(err)
		return err
	}
	return nil
}

// guard runs fn, converting a panic into an error so it never crosses the
// driver callback boundary.
func (e *engine) guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s callback failure: %v", e, r)
		}
	}()
	fn()
	return nil
}

func (e *engine) scheduleNextVideo(f *frame.Frame) {
	adapted := newOutputFrame(f, e.format, e.config.KeyOnly)
	if err := e.output.ScheduleVideoFrame(adapted, e.videoScheduled.Load(), e.format.Duration, e.format.TimeScale); err != nil {
		log.Printf("%s Failed to schedule video: %v", e, err)
	}
	e.videoScheduled.Add(e.format.Duration)
	e.scheduledVideo.Add(1)
}

func (e *engine) scheduleNextAudio(samples []int32) {
	// The device reads the block asynchronously until the matching video
	// frame displays; the history ring keeps it alive that long.
	block := e.history.retain(samples)
	sampleFrames := len(block) / format.Channels

	if err := e.output.ScheduleAudioSamples(block, sampleFrames, e.audioScheduled.Load(), format.SampleRate); err != nil {
		log.Printf("%s Failed to schedule audio: %v", e, err)
	}
	e.audioScheduled.Add(int64(sampleFrames))
	e.scheduledAudio.Add(1)
}

// Send accepts one frame from the producer. The returned future resolves
// once the frame has been accepted into the video slot and, when audio is
// embedded, the audio slot. The fast path never blocks; the slow path
// registers a pending send retried from the callback goroutines. One owning
// goroutine calls Send and awaits each future before the next call.
func (e *engine) Send(f *frame.Frame) (*SendFuture, error) {
	if err := e.latch.take(); err != nil {
		return nil, err
	}
	if !e.running.Load() {
		return nil, fmt.Errorf("%s: %w", e, ErrNotRunning)
	}

	audioReady := !e.config.EmbeddedAudio
	videoReady := false

	attempt := func() bool {
		if !audioReady {
			audioReady = e.audioSlot.tryPush(f)
		}
		if !videoReady {
			videoReady = e.videoSlot.tryPush(f)
		}
		return audioReady && videoReady
	}

	if attempt() {
		return resolvedFuture(), nil
	}

	fut := newSendFuture()
	e.pending.set(attempt, fut)
	return fut, nil
}

// stop tears the session down: mark not-running, unblock both feed paths
// with sentinel frames, then stop playback and disable the outputs. The
// device teardown runs even when the device already reported its own stop;
// only the sentinel pushes are one-shot.
func (e *engine) stop() {
	if e.running.Swap(false) {
		e.videoSlot.tryPush(frame.Empty)
		e.audioSlot.tryPush(frame.Empty)
	}

	if err := e.output.StopScheduledPlayback(); err != nil {
		log.Printf("%s Failed to stop scheduled playback: %v", e, err)
	}
	if e.config.EmbeddedAudio {
		if err := e.output.DisableAudioOutput(); err != nil {
			log.Printf("%s Failed to disable audio output: %v", e, err)
		}
	}
	if err := e.output.DisableVideoOutput(); err != nil {
		log.Printf("%s Failed to disable video output: %v", e, err)
	}
}

func (e *engine) stats() Stats {
	return Stats{
		ScheduledVideoFrames:      e.scheduledVideo.Load(),
		ScheduledAudioBlocks:      e.scheduledAudio.Load(),
		LateFrames:                e.lateFrames.Load(),
		DroppedFrames:             e.droppedFrames.Load(),
		FlushedFrames:             e.flushedFrames.Load(),
		BufferedVideoFrames:       e.bufferedVideo.Load(),
		BufferedAudioSampleFrames: e.bufferedAudio.Load(),
	}
}

// String returns the textual identity used in logs:
// "model [channel-device|format]".
func (e *engine) String() string {
	return fmt.Sprintf("%s [%d-%d|%s]", e.model, e.channel, e.config.DeviceIndex, e.format.Name)
}
