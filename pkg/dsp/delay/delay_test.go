package delay

import (
	"errors"
	"math"
	"testing"
)

func TestLinePrepare(t *testing.T) {
	t.Run("Invalid", func(t *testing.T) {
		d := New()
		if err := d.Prepare(0, 100); !errors.Is(err, ErrInvalidChannels) {
			t.Errorf("Expected ErrInvalidChannels, got %v", err)
		}
		if err := d.Prepare(2, -1); !errors.Is(err, ErrInvalidMaxDelay) {
			t.Errorf("Expected ErrInvalidMaxDelay, got %v", err)
		}
		if d.Prepared() {
			t.Error("Failed prepare should leave the line unprepared")
		}
	})

	t.Run("FailureKeepsPreviousState", func(t *testing.T) {
		d := New()
		if err := d.Prepare(2, 64); err != nil {
			t.Fatal(err)
		}
		if err := d.Prepare(-3, 10); err == nil {
			t.Fatal("Expected error")
		}
		if d.Channels() != 2 || d.MaxDelay() != 64 {
			t.Errorf("State changed after failed prepare: %d channels, max %d", d.Channels(), d.MaxDelay())
		}
	})
}

func TestLineImpulseRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100, 511} {
		d := New()
		if err := d.Prepare(1, 512); err != nil {
			t.Fatal(err)
		}
		d.SetDelay(float64(n))

		out := make([]float32, 600)
		for i := range out {
			in := float32(0)
			if i == 0 {
				in = 1
			}
			out[i] = d.Process(0, in)
		}

		for i, v := range out {
			want := float32(0)
			if i == n {
				want = 1
			}
			if v != want {
				t.Fatalf("delay %d: sample %d = %f, want %f", n, i, v, want)
			}
		}
	}
}

func TestLineFractionalDelay(t *testing.T) {
	d := New()
	if err := d.Prepare(1, 32); err != nil {
		t.Fatal(err)
	}
	d.SetDelay(3.25)

	var out []float32
	for i := 0; i < 10; i++ {
		in := float32(0)
		if i == 0 {
			in = 1
		}
		out = append(out, d.Process(0, in))
	}

	// The impulse is split across the two neighbouring samples.
	if math.Abs(float64(out[3]-0.75)) > 1e-6 || math.Abs(float64(out[4]-0.25)) > 1e-6 {
		t.Errorf("Unexpected interpolation: out[3]=%f out[4]=%f", out[3], out[4])
	}
	var energy float32
	for _, v := range out {
		energy += v
	}
	if math.Abs(float64(energy-1)) > 1e-6 {
		t.Errorf("Interpolation should preserve DC gain, sum=%f", energy)
	}
}

func TestLineClamp(t *testing.T) {
	d := New()
	if err := d.Prepare(2, 10); err != nil {
		t.Fatal(err)
	}

	d.SetDelay(1e9)
	if d.Delay() != 10 {
		t.Errorf("Expected clamp to 10, got %f", d.Delay())
	}
	d.SetDelay(-5)
	if d.Delay() != 0 {
		t.Errorf("Expected clamp to 0, got %f", d.Delay())
	}
	d.SetDelay(math.NaN())
	if d.Delay() != 0 {
		t.Errorf("NaN should clamp to 0, got %f", d.Delay())
	}

	// Reading at the clamped maximum must stay in bounds for a long run.
	d.SetDelay(10)
	for i := 0; i < 1000; i++ {
		d.Process(0, float32(i))
		d.Process(1, float32(-i))
	}
}

func TestLineChannelsShareDelay(t *testing.T) {
	d := New()
	if err := d.Prepare(2, 64); err != nil {
		t.Fatal(err)
	}
	d.SetDelay(5.5)

	for i := 0; i < 200; i++ {
		x := float32(math.Sin(float64(i) * 0.1))
		left := d.Process(0, x)
		right := d.Process(1, -x)
		if left != -right {
			t.Fatalf("sample %d: channels diverged (%f vs %f)", i, left, right)
		}
	}
}

func TestLineReset(t *testing.T) {
	d := New()
	if err := d.Prepare(1, 16); err != nil {
		t.Fatal(err)
	}
	d.SetDelay(4)
	for i := 0; i < 8; i++ {
		d.Process(0, 1)
	}
	d.Reset()
	for i := 0; i < 4; i++ {
		if v := d.Process(0, 0); v != 0 {
			t.Fatalf("Expected silence after reset, got %f", v)
		}
	}
}

func TestLineNoAllocations(t *testing.T) {
	d := New()
	if err := d.Prepare(2, 4800); err != nil {
		t.Fatal(err)
	}

	delay := 0.0
	allocs := testing.AllocsPerRun(100, func() {
		for i := 0; i < 512; i++ {
			delay += 0.37
			if delay > 4800 {
				delay = 0
			}
			d.SetDelay(delay)
			d.PushSample(0, 0.5)
			d.PushSample(1, -0.5)
			d.PopSample(0)
			d.PopSample(1)
		}
	})
	if allocs != 0 {
		t.Errorf("Expected zero allocations, got %f", allocs)
	}
}

func BenchmarkLineModulated(b *testing.B) {
	d := New()
	if err := d.Prepare(2, 48000); err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		d.SetDelay(1000 + 500*math.Sin(float64(i)*0.001))
		d.Process(0, 0.1)
		d.Process(1, 0.1)
	}
}
