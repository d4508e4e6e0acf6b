// ABOUTME: Consumer configuration record
// ABOUTME: Device selection, keyer/latency modes and derived buffer depth
package playout

// Keyer selects the hardware keying mode.
type Keyer int

const (
	KeyerDefault Keyer = iota
	KeyerInternal
	KeyerExternal
)

func (k Keyer) String() string {
	switch k {
	case KeyerInternal:
		return "internal"
	case KeyerExternal:
		return "external"
	default:
		return "default"
	}
}

// Latency selects the device latency mode.
type Latency int

const (
	LatencyDefault Latency = iota
	LatencyLow
	LatencyNormal
)

func (l Latency) String() string {
	switch l {
	case LatencyLow:
		return "low"
	case LatencyNormal:
		return "normal"
	default:
		return "default"
	}
}

// Config holds the consumer configuration. It is immutable once the
// consumer has been constructed.
type Config struct {
	// DeviceIndex is the 1-based output device index.
	DeviceIndex int

	// EmbeddedAudio schedules frame audio into the SDI stream.
	EmbeddedAudio bool

	Keyer   Keyer
	Latency Latency

	// KeyOnly outputs the alpha channel only, for external keying hardware.
	KeyOnly bool

	// BaseBufferDepth is the minimum scheduled preroll depth. Hardware
	// requires at least 3 video frames prerolled for stable playback.
	BaseBufferDepth int
}

// DefaultConfig returns the stock configuration: device 1, embedded audio,
// default keyer and latency, buffer depth 3.
func DefaultConfig() Config {
	return Config{
		DeviceIndex:     1,
		EmbeddedAudio:   true,
		BaseBufferDepth: 3,
	}
}

// BufferDepth returns the derived preroll depth: one extra frame unless in
// low-latency mode, one more when audio is embedded.
func (c Config) BufferDepth() int {
	depth := c.BaseBufferDepth
	if c.Latency != LatencyLow {
		depth++
	}
	if c.EmbeddedAudio {
		depth++
	}
	return depth
}

func (c Config) withDefaults() Config {
	if c.DeviceIndex == 0 {
		c.DeviceIndex = 1
	}
	if c.BaseBufferDepth == 0 {
		c.BaseBufferDepth = 3
	}
	return c
}
