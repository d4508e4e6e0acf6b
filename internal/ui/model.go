// ABOUTME: Bubbletea model for the playout TUI
// ABOUTME: Defines application state and update logic
package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/openplayout/playout-go/pkg/playout"
)

// Model represents the TUI state
type Model struct {
	// Identity
	consumer string
	running  bool

	// Output
	device        int
	model         string
	format        string
	channel       int
	keyer         string
	keyOnly       bool
	lowLatency    bool
	embeddedAudio bool

	// Counters
	scheduledVideo int64
	scheduledAudio int64
	lateFrames     int64
	droppedFrames  int64
	flushedFrames  int64
	bufferedVideo  int64
	bufferedAudio  int64
	bufferDepth    int

	// Runtime stats
	goroutines int
	memAlloc   uint64
	memSys     uint64

	// Debug
	showDebug bool

	// Dimensions
	width  int
	height int
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderOutputInfo()
	s += m.renderBuffers()
	s += m.renderStats()

	if m.showDebug {
		s += m.renderDebug()
	}

	s += m.renderHelp()

	return s
}

// renderHeader renders playback state
func (m Model) renderHeader() string {
	state := "Stopped"
	if m.running {
		state = "Playing"
	}

	return fmt.Sprintf(`┌─ Playout Engine ─────────────────────────────────────┐
│ Output: %-45s │
│ State:  %-45s │
├──────────────────────────────────────────────────────┤
`, truncate(m.consumer, 45), state)
}

// renderOutputInfo renders device and format details
func (m Model) renderOutputInfo() string {
	if m.model == "" {
		return "│ No output                                            │\n"
	}

	s := fmt.Sprintf("│ Device:  %d (%s)%-27s │\n", m.device, truncate(m.model, 24), "")
	s += fmt.Sprintf("│ Format:  %-10s  Channel: %d%-17s │\n", m.format, m.channel, "")

	flags := ""
	if m.embeddedAudio {
		flags += " audio"
	}
	if m.keyOnly {
		flags += " key-only"
	}
	if m.lowLatency {
		flags += " low-latency"
	}
	if flags == "" {
		flags = " (none)"
	}

	s += fmt.Sprintf("│ Keyer:   %-10s  Flags:%-20s │\n", m.keyer, truncate(flags, 20))
	return s
}

// renderBuffers renders device buffer fill
func (m Model) renderBuffers() string {
	depth := m.bufferDepth
	if depth == 0 {
		depth = 1
	}
	fillBar := renderBar(int(m.bufferedVideo), depth, 10)

	return fmt.Sprintf("│                                                      │\n"+
		"│ Video buffer: [%s] %d/%d frames%-12s │\n"+
		"│ Audio buffer: %d sample frames%-22s │\n",
		fillBar, m.bufferedVideo, m.bufferDepth, "",
		m.bufferedAudio, "")
}

// renderStats renders scheduling counters
func (m Model) renderStats() string {
	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ Video: %d  Audio: %d  Late: %d  Dropped: %d%-4s │
│                                                      │
`, m.scheduledVideo, m.scheduledAudio, m.lateFrames, m.droppedFrames, "")
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ d:Debug  q:Quit                                      │
└──────────────────────────────────────────────────────┘
`
}

// renderDebug renders debug information
func (m Model) renderDebug() string {
	return fmt.Sprintf(`│ DEBUG:                                               │
│   Goroutines: %d                                     │
│   Mem: %d KB alloc / %d KB sys                       │
│   Flushed frames: %d                                 │
`, m.goroutines, m.memAlloc/1024, m.memSys/1024, m.flushedFrames)
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Consumer != "" {
		m.consumer = msg.Consumer
	}
	if msg.Running != nil {
		m.running = *msg.Running
	}
	if msg.Status != nil {
		m.device = msg.Status.Device
		m.model = msg.Status.Model
		m.format = msg.Status.Format
		m.channel = msg.Status.Channel
		m.keyer = msg.Status.Keyer
		m.keyOnly = msg.Status.KeyOnly
		m.lowLatency = msg.Status.LowLatency
		m.embeddedAudio = msg.Status.EmbeddedAudio
	}
	if msg.Stats != nil {
		m.scheduledVideo = msg.Stats.ScheduledVideoFrames
		m.scheduledAudio = msg.Stats.ScheduledAudioBlocks
		m.lateFrames = msg.Stats.LateFrames
		m.droppedFrames = msg.Stats.DroppedFrames
		m.flushedFrames = msg.Stats.FlushedFrames
		m.bufferedVideo = msg.Stats.BufferedVideoFrames
		m.bufferedAudio = msg.Stats.BufferedAudioSampleFrames
	}
	if msg.BufferDepth != 0 {
		m.bufferDepth = msg.BufferDepth
	}
	if msg.Goroutines != 0 {
		m.goroutines = msg.Goroutines
		m.memAlloc = msg.MemAlloc
		m.memSys = msg.MemSys
	}
}

// StatusMsg updates TUI state
type StatusMsg struct {
	Consumer    string
	Running     *bool
	Status      *playout.Status
	Stats       *playout.Stats
	BufferDepth int
	Goroutines  int
	MemAlloc    uint64
	MemSys      uint64
}

// Utility functions
func renderBar(value, max, width int) string {
	if value > max {
		value = max
	}
	if value < 0 {
		value = 0
	}
	filled := (value * width) / max
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
