// ABOUTME: Entry point for the playout engine demo player
// ABOUTME: Parses CLI flags and feeds generated frames to a scheduled output
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/openplayout/playout-go/internal/discovery"
	"github.com/openplayout/playout-go/internal/media"
	"github.com/openplayout/playout-go/internal/monitor"
	"github.com/openplayout/playout-go/internal/simdevice"
	"github.com/openplayout/playout-go/internal/ui"
	"github.com/openplayout/playout-go/internal/version"
	"github.com/openplayout/playout-go/pkg/decklink"
	"github.com/openplayout/playout-go/pkg/format"
	"github.com/openplayout/playout-go/pkg/playout"
)

var (
	deviceIndex   = flag.Int("device", 1, "Output device index (1-based)")
	formatName    = flag.String("format", "PAL", "Video format name")
	channel       = flag.Int("channel", 1, "Channel index for logging and status")
	embeddedAudio = flag.Bool("embedded-audio", true, "Schedule embedded audio")
	keyOnly       = flag.Bool("key-only", false, "Output the alpha channel only")
	keyerMode     = flag.String("keyer", "default", "Keyer mode: default, internal, external")
	latencyMode   = flag.String("latency", "default", "Latency mode: default, low, normal")
	bufferDepth   = flag.Int("buffer-depth", 3, "Base scheduled preroll depth")
	mp3Path       = flag.String("mp3", "", "MP3 file to play instead of the test tone")
	monitorAddr   = flag.String("monitor", ":9250", "Monitor WebSocket listen address (empty disables)")
	noMDNS        = flag.Bool("no-mdns", false, "Disable mDNS advertisement of the monitor")
	speaker       = flag.Bool("speaker", false, "Mirror scheduled audio to the system output")
	logFile       = flag.String("log-file", "playout.log", "Log file path")
	noTUI         = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	streamLogs    = flag.Bool("stream-logs", false, "Alias for -no-tui")
)

func main() {
	flag.Parse()

	// Determine if we should use TUI or streaming logs
	useTUI := !(*noTUI || *streamLogs)

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		multiWriter := io.MultiWriter(os.Stdout, f)
		log.SetOutput(multiWriter)
	}

	if !useTUI {
		log.Printf("Starting %s %s", version.Product, version.Version)
	}

	fd, err := format.Lookup(*formatName)
	if err != nil {
		log.Fatalf("Unknown format %q (known: %v)", *formatName, format.Names())
	}

	cfg := playout.Config{
		DeviceIndex:     *deviceIndex,
		EmbeddedAudio:   *embeddedAudio,
		Keyer:           parseKeyer(*keyerMode),
		Latency:         parseLatency(*latencyMode),
		KeyOnly:         *keyOnly,
		BaseBufferDepth: *bufferDepth,
	}

	// Register the simulated card at the requested index. A real SDK
	// binding would register hardware devices here instead.
	dev := simdevice.New(simdevice.Config{Speaker: *speaker})
	decklink.Register(*deviceIndex, dev)
	defer dev.Close()

	consumer := playout.NewConsumer(cfg)
	if err := consumer.Initialize(fd, *channel); err != nil {
		log.Fatalf("Failed to initialize output: %v", err)
	}
	defer consumer.Close()

	log.Printf("Output ready: %s (buffer depth %d)", consumer, consumer.BufferDepth())

	// Frame source: color bars with a tone, or an MP3 file.
	var audio media.AudioSource
	if *embeddedAudio {
		if *mp3Path != "" {
			src, err := media.OpenMP3(*mp3Path)
			if err != nil {
				log.Fatalf("Failed to open MP3: %v", err)
			}
			audio = src
		} else {
			audio = media.NewToneSource(format.SampleRate, format.Channels)
		}
	}
	source := media.NewFrameSource(fd, audio)
	defer source.Close()

	// TUI setup
	var tuiProg *tea.Program
	if useTUI {
		tuiProg, err = ui.Run()
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}
	}

	updateTUI := func(msg ui.StatusMsg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}

	// Monitor endpoint and its mDNS advertisement.
	var mon *monitor.Server
	var mdnsMgr *discovery.Manager
	if *monitorAddr != "" {
		mon, err = monitor.NewServer(monitor.Config{
			Addr:   *monitorAddr,
			Source: consumer,
		})
		if err != nil {
			log.Fatalf("Failed to create monitor: %v", err)
		}
		if err := mon.Start(); err != nil {
			log.Fatalf("Failed to start monitor: %v", err)
		}
		defer mon.Stop()

		if !*noMDNS {
			mdnsMgr = discovery.NewManager(discovery.Config{
				ServiceName: fmt.Sprintf("%s-%d", version.Product, *deviceIndex),
				Port:        monitorPort(mon.Addr()),
			})
			if err := mdnsMgr.Advertise(); err != nil {
				log.Printf("Failed to start mDNS advertisement: %v", err)
			} else {
				defer mdnsMgr.Stop()
			}
		}
	}

	// Feed loop: send frames, awaiting each future so the engine's
	// backpressure paces production at the output rate.
	feedCtx, cancelFeed := context.WithCancel(context.Background())
	defer cancelFeed()

	feedDone := make(chan error, 1)
	go func() {
		feedDone <- feedLoop(feedCtx, consumer, source)
	}()

	if tuiProg != nil {
		go statsUpdateLoop(feedCtx, consumer, updateTUI)
	}

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if tuiProg != nil {
		tuiDone := make(chan struct{})
		go func() {
			if _, err := tuiProg.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
			close(tuiDone)
		}()

		select {
		case <-tuiDone:
			log.Printf("TUI closed")
		case <-sigChan:
			log.Printf("Shutdown signal received")
			tuiProg.Quit()
		case err := <-feedDone:
			logFeedResult(err)
			tuiProg.Quit()
		}
	} else {
		select {
		case <-sigChan:
			log.Printf("Shutdown signal received")
		case err := <-feedDone:
			logFeedResult(err)
		}
	}

	cancelFeed()
	consumer.Close()
	log.Printf("Playout stopped")
}

// feedLoop produces frames until the context is cancelled or the engine
// reports a failure.
func feedLoop(ctx context.Context, consumer *playout.Consumer, source *media.FrameSource) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		f, err := source.NextFrame()
		if err != nil {
			return fmt.Errorf("frame source: %w", err)
		}

		future, err := consumer.Send(f)
		if err != nil {
			if errors.Is(err, playout.ErrNotRunning) {
				return nil
			}
			return fmt.Errorf("send: %w", err)
		}

		if err := future.Wait(ctx); err != nil {
			return nil
		}
	}
}

func logFeedResult(err error) {
	if err != nil {
		log.Printf("Feed stopped: %v", err)
	} else {
		log.Printf("Feed stopped")
	}
}

// statsUpdateLoop periodically updates the TUI with scheduling statistics
func statsUpdateLoop(ctx context.Context, consumer *playout.Consumer, updateTUI func(ui.StatusMsg)) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	// Use a slower ticker for expensive runtime stats to avoid GC pauses
	runtimeStatsTicker := time.NewTicker(2 * time.Second)
	defer runtimeStatsTicker.Stop()

	var lastGoroutines int
	var lastMemAlloc, lastMemSys uint64

	running := true
	updateTUI(ui.StatusMsg{
		Consumer:    consumer.String(),
		Running:     &running,
		BufferDepth: consumer.BufferDepth(),
	})

	for {
		select {
		case <-ctx.Done():
			return

		case <-runtimeStatsTicker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			lastGoroutines = runtime.NumGoroutine()
			lastMemAlloc = m.Alloc
			lastMemSys = m.Sys

		case <-ticker.C:
			status := consumer.Status()
			stats := consumer.Stats()
			updateTUI(ui.StatusMsg{
				Consumer:   consumer.String(),
				Status:     &status,
				Stats:      &stats,
				Goroutines: lastGoroutines,
				MemAlloc:   lastMemAlloc,
				MemSys:     lastMemSys,
			})
		}
	}
}

func parseKeyer(s string) playout.Keyer {
	switch s {
	case "internal":
		return playout.KeyerInternal
	case "external":
		return playout.KeyerExternal
	default:
		return playout.KeyerDefault
	}
}

func parseLatency(s string) playout.Latency {
	switch s {
	case "low":
		return playout.LatencyLow
	case "normal":
		return playout.LatencyNormal
	default:
		return playout.LatencyDefault
	}
}

// monitorPort extracts the bound port for mDNS advertisement.
func monitorPort(addr string) int {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0
	}
	return port
}
