package humanizer

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/justyntemme/timedrift/pkg/dsp/noise"
)

func newTestEngine(t testing.TB) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func makeBuffers(channels, frames int) [][]float32 {
	buf := make([][]float32, channels)
	for ch := range buf {
		buf[ch] = make([]float32, frames)
	}
	return buf
}

func TestEnginePrepare(t *testing.T) {
	e := newTestEngine(t)
	if e.Prepared() {
		t.Fatal("new engine should not be prepared")
	}

	if err := e.Prepare(48000, 512, 2); err != nil {
		t.Fatal(err)
	}
	if e.RequiredLatencySamples() != 9600 {
		t.Errorf("latency = %d, want 9600", e.RequiredLatencySamples())
	}
	if e.MaxDelaySamples() != 9600+9600+1024 {
		t.Errorf("max delay = %d", e.MaxDelaySamples())
	}
	if e.Channels() != 2 || e.BlockSize() != 512 || e.SampleRate() != 48000 {
		t.Errorf("unexpected prepared format %v/%d/%d", e.SampleRate(), e.BlockSize(), e.Channels())
	}
}

func TestEnginePrepareErrors(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate float64
		blockSize  int
		channels   int
		want       error
	}{
		{"ZeroRate", 0, 512, 2, ErrInvalidSampleRate},
		{"NegativeRate", -44100, 512, 2, ErrInvalidSampleRate},
		{"NaNRate", math.NaN(), 512, 2, ErrInvalidSampleRate},
		{"InfRate", math.Inf(1), 512, 2, ErrInvalidSampleRate},
		{"ZeroBlock", 48000, 0, 2, ErrInvalidBlockSize},
		{"NegativeBlock", 48000, -1, 2, ErrInvalidBlockSize},
		{"ZeroChannels", 48000, 512, 0, ErrInvalidChannelCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t)
			if err := e.Prepare(44100, 256, 1); err != nil {
				t.Fatal(err)
			}

			err := e.Prepare(tt.sampleRate, tt.blockSize, tt.channels)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, err)
			}

			// The last valid state is kept.
			if e.SampleRate() != 44100 || e.BlockSize() != 256 || e.Channels() != 1 {
				t.Errorf("state changed: %v/%d/%d", e.SampleRate(), e.BlockSize(), e.Channels())
			}
			if e.RequiredLatencySamples() != 8820 {
				t.Errorf("latency changed to %d", e.RequiredLatencySamples())
			}
		})
	}
}

func TestEnginePassThroughBeforePrepare(t *testing.T) {
	e := newTestEngine(t)

	in := [][]float32{{1, 2, 3}, {4, 5, 6}}
	out := makeBuffers(3, 3)
	out[2][0] = 9

	e.Process(in, out, 0, 120)

	for ch := 0; ch < 2; ch++ {
		for i := range in[ch] {
			if out[ch][i] != in[ch][i] {
				t.Fatalf("channel %d sample %d = %f, want %f", ch, i, out[ch][i], in[ch][i])
			}
		}
	}
	if out[2][0] != 0 {
		t.Error("extra output channel should be cleared")
	}
}

// Scenario: seed 42, speed 4 beats per segment, range 100 ms, center 0 at 48 kHz.
func TestEngineEndToEndScenario(t *testing.T) {
	e := newTestEngine(t)
	e.SetSeed(42)
	e.SetRange(100)
	e.SetCenter(0)
	e.SetSpeed(4)
	if err := e.Prepare(48000, 1, 2); err != nil {
		t.Fatal(err)
	}

	gen := noise.NewGenerator(42)
	golden := map[float64]float64{
		0: -0.9335997868174687,
		2: -0.6265467717056579,
		4: -0.2992124807320564,
	}

	in := makeBuffers(2, 1)
	out := makeBuffers(2, 1)
	for _, beat := range []float64{0, 2, 4} {
		if got := gen.Evaluate(beat, 4); math.Abs(got-golden[beat]) > 1e-12 {
			t.Errorf("noise at beat %v = %.17g, want %.17g", beat, got, golden[beat])
		}

		e.Process(in, out, beat, 120)

		want := 200 + 100*0.5*(0+golden[beat])
		if got := e.DisplayValue(); math.Abs(got-want) > 1e-9 {
			t.Errorf("delay at beat %v = %v ms, want %v", beat, got, want)
		}
	}
}

func TestEngineImpulseAtLatency(t *testing.T) {
	// With no range the delay is exactly the reported latency.
	e := newTestEngine(t)
	e.SetRange(0)
	if err := e.Prepare(1000, 64, 2); err != nil {
		t.Fatal(err)
	}
	latency := e.RequiredLatencySamples()
	if latency != 200 {
		t.Fatalf("latency = %d, want 200", latency)
	}

	const frames = 64
	in := makeBuffers(2, frames)
	out := makeBuffers(2, frames)
	var left, right []float32
	beat := 0.0
	for block := 0; block < 5; block++ {
		for ch := range in {
			clear(in[ch])
		}
		if block == 0 {
			in[0][0] = 1
			in[1][0] = -1
		}
		e.Process(in, out, beat, 120)
		left = append(left, out[0]...)
		right = append(right, out[1]...)
		beat += frames * 120.0 / 60 / 1000
	}

	for i := range left {
		want := float32(0)
		if i == latency {
			want = 1
		}
		if math.Abs(float64(left[i]-want)) > 1e-6 || math.Abs(float64(right[i]+want)) > 1e-6 {
			t.Fatalf("sample %d = (%f, %f), want (%f, %f)", i, left[i], right[i], want, -want)
		}
	}
}

func TestEngineDelayStaysInBounds(t *testing.T) {
	e := newTestEngine(t)
	cfg := e.Config()
	e.SetSeed(7)
	e.SetRange(cfg.Range.Max)
	e.SetCenter(cfg.Center.Min)
	e.SetSpeed(cfg.Speed.Min)
	if err := e.Prepare(8000, 128, 1); err != nil {
		t.Fatal(err)
	}

	in := makeBuffers(1, 128)
	out := makeBuffers(1, 128)
	beat := 0.0
	for block := 0; block < 400; block++ {
		if block == 200 {
			e.SetCenter(cfg.Center.Max)
		}
		e.Process(in, out, beat, 180)
		beat += 128 * 180.0 / 60 / 8000

		d := e.DisplayValue()
		if d < -1e-9 || d > e.Bounds().MaxDelayMs+1e-9 {
			t.Fatalf("block %d: delay %v ms outside [0, %v]", block, d, e.Bounds().MaxDelayMs)
		}
	}
}

func TestEngineSeedDeterminism(t *testing.T) {
	render := func(seed uint32) []float32 {
		e := newTestEngine(t)
		e.SetSeed(seed)
		e.SetRange(150)
		e.SetSpeed(1)
		if err := e.Prepare(4000, 100, 1); err != nil {
			t.Fatal(err)
		}

		in := makeBuffers(1, 100)
		out := makeBuffers(1, 100)
		var result []float32
		beat := 0.0
		for block := 0; block < 40; block++ {
			for i := range in[0] {
				in[0][i] = float32(math.Sin(float64(block*100+i) * 0.05))
			}
			e.Process(in, out, beat, 140)
			result = append(result, out[0]...)
			beat += 100 * 140.0 / 60 / 4000
		}
		return result
	}

	a, b := render(99), render(99)
	for i := range a {
		if math.Float32bits(a[i]) != math.Float32bits(b[i]) {
			t.Fatalf("sample %d differs: %v vs %v", i, a[i], b[i])
		}
	}

	c := render(100)
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds rendered identical output")
	}
}

func TestEngineBPMFallback(t *testing.T) {
	render := func(bpm float64) float64 {
		e := newTestEngine(t)
		e.SetSeed(3)
		e.SetRange(100)
		e.SetSpeed(1)
		if err := e.Prepare(1000, 500, 1); err != nil {
			t.Fatal(err)
		}
		e.Process(makeBuffers(1, 500), makeBuffers(1, 500), 0, bpm)
		return e.DisplayValue()
	}

	want := render(120)
	for _, bpm := range []float64{0, -10, math.NaN(), math.Inf(1)} {
		if got := render(bpm); got != want {
			t.Errorf("bpm %v: display %v, want the 120 BPM value %v", bpm, got, want)
		}
	}
	if render(90) == want {
		t.Error("a valid tempo should not fall back")
	}
}

func TestEngineExtraOutputChannelsCleared(t *testing.T) {
	e := newTestEngine(t)
	if err := e.Prepare(48000, 16, 1); err != nil {
		t.Fatal(err)
	}
	in := makeBuffers(1, 16)
	out := makeBuffers(2, 16)
	out[1][3] = 5
	e.Process(in, out, 0, 120)
	if out[1][3] != 0 {
		t.Error("output channel beyond the prepared layout was not cleared")
	}
}

func TestEngineReset(t *testing.T) {
	e := newTestEngine(t)
	e.SetRange(0)
	if err := e.Prepare(1000, 300, 1); err != nil {
		t.Fatal(err)
	}

	in := [][]float32{make([]float32, 300)}
	for i := range in[0] {
		in[0][i] = 1
	}
	out := makeBuffers(1, 300)
	e.Process(in, out, 0, 120)

	e.Reset()
	e.Process(makeBuffers(1, 300), out, 0, 120)
	for i, v := range out[0] {
		if v != 0 {
			t.Fatalf("sample %d = %f after reset, want silence", i, v)
		}
	}
}

func TestEngineSmoothedControlChange(t *testing.T) {
	// A range step must not jump the delay within one sample.
	e := newTestEngine(t)
	e.SetSeed(11)
	e.SetRange(0)
	e.SetCenter(1)
	if err := e.Prepare(48000, 1, 1); err != nil {
		t.Fatal(err)
	}

	in := makeBuffers(1, 1)
	out := makeBuffers(1, 1)
	e.Process(in, out, 0, 120)
	prev := e.DisplayValue()

	e.SetRange(200)
	maxStep := 0.0
	for i := 1; i < 4800; i++ {
		e.Process(in, out, float64(i)/24000, 120)
		d := e.DisplayValue()
		maxStep = math.Max(maxStep, math.Abs(d-prev))
		prev = d
	}

	// 200 ms spread over a 50 ms ramp at 48 kHz is well under 0.2 ms per sample.
	if maxStep > 0.2 {
		t.Errorf("largest per-sample delay step %v ms", maxStep)
	}
}

func TestEngineDisplayRange(t *testing.T) {
	e := newTestEngine(t)
	e.SetRange(80)
	e.SetCenter(0.5)
	lo, hi := e.DisplayRange()
	if lo != -20 || hi != 60 {
		t.Errorf("DisplayRange = (%v, %v), want (-20, 60)", lo, hi)
	}
	if e.Range() != 80 || e.Center() != 0.5 {
		t.Error("targets not reported")
	}
}

func TestEngineNoAllocations(t *testing.T) {
	e := newTestEngine(t)
	if err := e.Prepare(48000, 512, 2); err != nil {
		t.Fatal(err)
	}
	in := makeBuffers(2, 512)
	out := makeBuffers(2, 512)

	beat := 0.0
	allocs := testing.AllocsPerRun(50, func() {
		e.Process(in, out, beat, 128)
		beat += 0.01
	})
	if allocs != 0 {
		t.Errorf("Process allocated %v times per block", allocs)
	}
}

func TestEngineConcurrentControl(t *testing.T) {
	e := newTestEngine(t)
	if err := e.Prepare(48000, 256, 2); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}
			e.SetRange(float64(i % 200))
			e.SetCenter(math.Sin(float64(i)))
			e.SetSpeed(float64(1 + i%16))
			e.SetSeed(uint32(i))
			_ = e.DisplayValue()
		}
	}()

	in := makeBuffers(2, 256)
	out := makeBuffers(2, 256)
	for block := 0; block < 200; block++ {
		e.Process(in, out, float64(block), 120)
		if d := e.DisplayValue(); math.IsNaN(d) {
			t.Fatal("display value is NaN")
		}
	}
	close(done)
	wg.Wait()
}

func BenchmarkEngineProcess(b *testing.B) {
	e := newTestEngine(b)
	if err := e.Prepare(48000, 512, 2); err != nil {
		b.Fatal(err)
	}
	in := makeBuffers(2, 512)
	out := makeBuffers(2, 512)

	b.ReportAllocs()
	beat := 0.0
	for i := 0; i < b.N; i++ {
		e.Process(in, out, beat, 120)
		beat += 512 * 2.0 / 48000
	}
}
