package debug

import (
	"strings"
	"testing"
	"time"
)

func TestBlockProfiler(t *testing.T) {
	p := NewBlockProfiler(48000)

	// 480 frames at 48kHz is 10ms of audio.
	p.Record(480, 1*time.Millisecond)
	p.Record(480, 3*time.Millisecond)

	s := p.Stats()
	if s.Blocks != 2 || s.Frames != 960 {
		t.Fatalf("unexpected counters: %+v", s)
	}
	if s.Min != time.Millisecond || s.Max != 3*time.Millisecond {
		t.Errorf("min/max = %v/%v", s.Min, s.Max)
	}
	if s.Average != 2*time.Millisecond {
		t.Errorf("average = %v, want 2ms", s.Average)
	}
	if s.AudioTime != 20*time.Millisecond {
		t.Errorf("audio time = %v, want 20ms", s.AudioTime)
	}
	if s.Load < 0.199 || s.Load > 0.201 {
		t.Errorf("load = %f, want 0.2", s.Load)
	}
	if s.WorstLoad < 0.299 || s.WorstLoad > 0.301 {
		t.Errorf("worst load = %f, want 0.3", s.WorstLoad)
	}
}

func TestBlockProfilerStart(t *testing.T) {
	p := NewBlockProfiler(1000)
	clock := time.Unix(0, 0)
	p.now = func() time.Time { return clock }

	stop := p.Start(100)
	clock = clock.Add(50 * time.Millisecond)
	stop()

	s := p.Stats()
	if s.Total != 50*time.Millisecond {
		t.Errorf("total = %v, want 50ms", s.Total)
	}
	if s.Load < 0.499 || s.Load > 0.501 {
		t.Errorf("load = %f, want 0.5", s.Load)
	}
}

func TestBlockProfilerReport(t *testing.T) {
	p := NewBlockProfiler(44100)
	if got := p.Report(); got != "No blocks processed" {
		t.Errorf("empty report = %q", got)
	}

	p.Record(441, time.Millisecond)
	if !strings.Contains(p.Report(), "blocks=1") {
		t.Errorf("report missing block count: %s", p.Report())
	}

	p.Reset()
	if s := p.Stats(); s.Blocks != 0 || s.Total != 0 {
		t.Errorf("reset left counters: %+v", s)
	}
}
