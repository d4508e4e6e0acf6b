// ABOUTME: MP3 file audio source for the demo player
// ABOUTME: Decodes to interleaved 32-bit samples in cadence-sized blocks, looping at EOF
package media

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"os"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// MP3Source streams a local MP3 file as scheduling-ready sample blocks. The
// decoder emits 16-bit stereo PCM; blocks are widened to 32-bit full scale.
type MP3Source struct {
	file    *os.File
	decoder *mp3.Decoder
}

// OpenMP3 opens path for looped playback.
func OpenMP3(path string) (*MP3Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mp3: %w", err)
	}

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	log.Printf("MP3 source: %s at %dHz", path, dec.SampleRate())

	return &MP3Source{file: f, decoder: dec}, nil
}

// SampleRate returns the decoded sample rate.
func (s *MP3Source) SampleRate() int {
	return int(s.decoder.SampleRate())
}

// NextBlock decodes sampleFrames stereo frames, looping back to the start
// of the file at EOF.
func (s *MP3Source) NextBlock(sampleFrames int) ([]int32, error) {
	buf := make([]byte, sampleFrames*2*2) // 16-bit stereo

	filled := 0
	for filled < len(buf) {
		n, err := s.decoder.Read(buf[filled:])
		filled += n
		if err == io.EOF {
			if _, err := s.decoder.Seek(0, io.SeekStart); err != nil {
				return nil, fmt.Errorf("mp3 loop seek: %w", err)
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("mp3 decode: %w", err)
		}
	}

	block := make([]int32, sampleFrames*2)
	for i := range block {
		v := int16(binary.LittleEndian.Uint16(buf[i*2:]))
		block[i] = int32(v) << 16
	}
	return block, nil
}

// Close closes the underlying file.
func (s *MP3Source) Close() error {
	return s.file.Close()
}
