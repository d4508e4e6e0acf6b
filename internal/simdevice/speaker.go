// ABOUTME: Speaker monitor mixing scheduled audio to the system output
// ABOUTME: Downconverts 32-bit scheduled samples to 16-bit PCM for oto
package simdevice

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"

	"github.com/ebitengine/oto/v3"
)

// Speaker plays scheduled audio through the default system output so the
// simulated card can be heard while testing.
type Speaker struct {
	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
}

// NewSpeaker opens the system audio output at the given format.
func NewSpeaker(sampleRate, channels int) (*Speaker, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	pr, pw := io.Pipe()
	player := ctx.NewPlayer(pr)
	player.Play()

	log.Printf("Speaker monitor initialized: %dHz, %d channels", sampleRate, channels)

	return &Speaker{
		otoCtx:     ctx,
		player:     player,
		pipeReader: pr,
		pipeWriter: pw,
	}, nil
}

// Write queues one scheduled sample block. Samples are full-scale 32-bit;
// the monitor keeps the top 16 bits.
func (s *Speaker) Write(samples []int32) {
	buf := make([]byte, len(samples)*2)
	for i, v := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(int16(v>>16)))
	}

	if _, err := s.pipeWriter.Write(buf); err != nil {
		log.Printf("Speaker monitor write failed: %v", err)
	}
}

// Close stops the monitor.
func (s *Speaker) Close() {
	_ = s.pipeWriter.Close()
	s.otoCtx.Suspend()
}
