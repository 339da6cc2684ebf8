package process

import (
	"math"
	"testing"
)

func TestTransportBPM(t *testing.T) {
	tests := []struct {
		name  string
		tempo float64
		want  float64
	}{
		{"Reported", 93, 93},
		{"Missing", 0, DefaultTempo},
		{"Negative", -10, DefaultTempo},
		{"NaN", math.NaN(), DefaultTempo},
		{"Inf", math.Inf(1), DefaultTempo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (Transport{Tempo: tt.tempo}).BPM(); got != tt.want {
				t.Errorf("BPM() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestContextAdvance(t *testing.T) {
	ctx := NewContext(48000)
	ctx.Transport = Transport{Tempo: 120, Playing: true}

	ctx.Advance(48000)
	if math.Abs(ctx.Transport.PositionBeats-2) > 1e-12 {
		t.Errorf("One second at 120 BPM should be 2 beats, got %f", ctx.Transport.PositionBeats)
	}

	ctx.Transport.Playing = false
	ctx.Advance(48000)
	if math.Abs(ctx.Transport.PositionBeats-2) > 1e-12 {
		t.Error("Stopped transport should not advance")
	}
}

func TestContextBuffers(t *testing.T) {
	ctx := NewContext(44100)
	ctx.Input = [][]float32{{1, 2, 3}, {4, 5, 6}}
	ctx.Output = [][]float32{make([]float32, 3)}

	if ctx.NumSamples() != 3 || ctx.NumInputChannels() != 2 || ctx.NumOutputChannels() != 1 {
		t.Fatal("Unexpected buffer dimensions")
	}

	ctx.PassThrough()
	if ctx.Output[0][2] != 3 {
		t.Errorf("PassThrough failed: %v", ctx.Output[0])
	}

	ctx.Clear()
	for _, v := range ctx.Output[0] {
		if v != 0 {
			t.Fatal("Clear failed")
		}
	}
}
