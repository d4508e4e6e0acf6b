// ABOUTME: Public consumer facade over the scheduling engine
// ABOUTME: Rebuilds the engine per (format, channel) and exposes status snapshots
package playout

import (
	"errors"
	"fmt"
	"sync"

	"github.com/openplayout/playout-go/pkg/format"
	"github.com/openplayout/playout-go/pkg/frame"
)

// ErrNotInitialized is returned by Send before Initialize has succeeded.
var ErrNotInitialized = errors.New("consumer is not initialized")

// Status is a structured snapshot of the consumer configuration.
type Status struct {
	Type          string `json:"type"`
	Instance      string `json:"instance,omitempty"`
	Device        int    `json:"device"`
	Model         string `json:"model,omitempty"`
	Format        string `json:"format,omitempty"`
	Channel       int    `json:"channel"`
	Keyer         string `json:"keyer"`
	KeyOnly       bool   `json:"key-only"`
	LowLatency    bool   `json:"low-latency"`
	EmbeddedAudio bool   `json:"embedded-audio"`
}

// Consumer is the playout system's handle on one output device. Initialize
// (re)builds the engine for a given output format; on a format change the
// surrounding system calls Initialize again and the previous engine is torn
// down.
type Consumer struct {
	config Config

	mu      sync.Mutex
	engine  *engine
	channel int
}

// NewConsumer creates a consumer for the given configuration. Zero values
// for DeviceIndex and BaseBufferDepth take their defaults (1 and 3).
func NewConsumer(cfg Config) *Consumer {
	return &Consumer{config: cfg.withDefaults()}
}

// Initialize builds the engine for the given output format and channel,
// destroying any previous engine. A construction failure leaves the
// consumer uninitialized.
func (c *Consumer) Initialize(fd format.Format, channel int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.engine != nil {
		c.engine.stop()
		c.engine = nil
	}

	eng, err := newEngine(c.config, fd, channel)
	if err != nil {
		return err
	}

	c.engine = eng
	c.channel = channel
	return nil
}

// Send forwards one frame to the engine. See engine.Send for the future's
// resolution contract.
func (c *Consumer) Send(f *frame.Frame) (*SendFuture, error) {
	eng := c.current()
	if eng == nil {
		return nil, ErrNotInitialized
	}
	return eng.Send(f)
}

// Status returns the structured status snapshot.
func (c *Consumer) Status() Status {
	s := Status{
		Type:          "decklink",
		Device:        c.config.DeviceIndex,
		Keyer:         c.config.Keyer.String(),
		KeyOnly:       c.config.KeyOnly,
		LowLatency:    c.config.Latency == LatencyLow,
		EmbeddedAudio: c.config.EmbeddedAudio,
	}
	if eng := c.current(); eng != nil {
		s.Instance = eng.id.String()
		s.Model = eng.model
		s.Format = eng.format.Name
		s.Channel = eng.channel
	}
	return s
}

// Stats returns the engine counters, zero before initialization.
func (c *Consumer) Stats() Stats {
	if eng := c.current(); eng != nil {
		return eng.stats()
	}
	return Stats{}
}

// BufferDepth returns the fixed preroll depth derived from the config.
func (c *Consumer) BufferDepth() int {
	return c.config.BufferDepth()
}

// Index returns the consumer's ordering index within the playout system.
func (c *Consumer) Index() int {
	return 300 + c.config.DeviceIndex
}

// Close stops the engine, if any. Any Send after Close fails fast.
func (c *Consumer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.engine != nil {
		c.engine.stop()
	}
}

// String returns the textual identity for logging.
func (c *Consumer) String() string {
	if eng := c.current(); eng != nil {
		return eng.String()
	}
	return fmt.Sprintf("[decklink_consumer %d]", c.config.DeviceIndex)
}

func (c *Consumer) current() *engine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine
}
