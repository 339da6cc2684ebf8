package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/justyntemme/timedrift/pkg/audiofile"
)

// pcmStream serves renderer output to oto as interleaved float32LE. The
// processor runs inside oto's pull callback, so the terminal error is
// published atomically for the goroutine that waits on the player.
type pcmStream struct {
	r       *renderer
	buf     []float32
	pending []float32
	err     atomic.Pointer[error]
}

func newPCMStream(r *renderer) *pcmStream {
	return &pcmStream{
		r:   r,
		buf: make([]float32, r.block*r.channels),
	}
}

// Err returns the error that ended the stream, or nil while it is running.
func (s *pcmStream) Err() error {
	if err := s.err.Load(); err != nil {
		return *err
	}
	return nil
}

func (s *pcmStream) Read(p []byte) (int, error) {
	if err := s.Err(); err != nil {
		return 0, err
	}

	frameBytes := 4 * s.r.channels
	n := 0
	for n+frameBytes <= len(p) {
		if len(s.pending) == 0 {
			block, frames, err := s.r.Next()
			if err != nil {
				s.err.Store(&err)
				break
			}
			audiofile.Interleave(block, s.buf, frames)
			s.pending = s.buf[:frames*s.r.channels]
		}
		for len(s.pending) > 0 && n+4 <= len(p) {
			binary.LittleEndian.PutUint32(p[n:], math.Float32bits(s.pending[0]))
			s.pending = s.pending[1:]
			n += 4
		}
	}

	if err := s.Err(); n == 0 && err != nil {
		return 0, err
	}
	return n, nil
}

// play renders r to the default output device until the input ends or ctx
// is cancelled. tick is called periodically from the calling goroutine.
func play(ctx context.Context, r *renderer, tick func()) error {
	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   int(r.ctx.SampleRate),
		ChannelCount: r.channels,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return fmt.Errorf("opening audio device: %w", err)
	}
	<-ready

	stream := newPCMStream(r)
	player := otoCtx.NewPlayer(stream)
	player.Play()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			player.Close()
			return ctx.Err()
		case <-ticker.C:
			tick()
		}
	}
	if err := player.Close(); err != nil {
		return fmt.Errorf("closing player: %w", err)
	}

	if err := stream.Err(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
