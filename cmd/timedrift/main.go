// Command timedrift humanizes the timing of an audio file.
//
// It decodes WAV, AIFF, MP3 or Ogg Vorbis input, runs it through the
// humanizer with a simulated tempo and transport and either writes a
// latency-compensated WAV or plays the result live.
//
//	timedrift -bpm 96 -range 40 -o out.wav in.wav
//	timedrift -state-in take1.state -play in.aiff
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/justyntemme/timedrift/pkg/audiofile"
	"github.com/justyntemme/timedrift/pkg/framework/debug"
	"github.com/justyntemme/timedrift/pkg/humanizer"
)

type options struct {
	input    string
	output   string
	bits     int
	bpm      float64
	start    float64
	block    int
	seed     int64
	rangeMs  float64
	center   float64
	speed    float64
	stateIn  string
	stateOut string
	play     bool
	logLevel string
	verbose  bool
	version  bool
	explicit map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	cfg := humanizer.DefaultConfig()
	opts := &options{}

	fs := flag.NewFlagSet("timedrift", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: timedrift [flags] input\n\n")
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.output, "o", "", "output WAV path (required unless -play)")
	fs.IntVar(&opts.bits, "bits", 24, "output bit depth: 16|24|32")
	fs.Float64Var(&opts.bpm, "bpm", 120, "tempo in beats per minute")
	fs.Float64Var(&opts.start, "start", 0, "beat position of the first input frame")
	fs.IntVar(&opts.block, "block", 512, "processing block size in frames")
	fs.Int64Var(&opts.seed, "seed", -1, "noise seed (negative keeps the random or restored seed)")
	fs.Float64Var(&opts.rangeMs, "range", cfg.Range.Default, fmt.Sprintf("maximum shift in ms [%g, %g]", cfg.Range.Min, cfg.Range.Max))
	fs.Float64Var(&opts.center, "center", cfg.Center.Default, fmt.Sprintf("early/late bias [%g, %g]", cfg.Center.Min, cfg.Center.Max))
	fs.Float64Var(&opts.speed, "speed", cfg.Speed.Default, fmt.Sprintf("beats per noise segment [%g, %g]", cfg.Speed.Min, cfg.Speed.Max))
	fs.StringVar(&opts.stateIn, "state-in", "", "restore seed and controls from a state file")
	fs.StringVar(&opts.stateOut, "state-out", "", "save seed and controls to a state file")
	fs.BoolVar(&opts.play, "play", false, "play through the default audio device instead of writing a file")
	fs.StringVar(&opts.logLevel, "log-level", "info", "log level: debug|info|warn|error|off")
	fs.BoolVar(&opts.verbose, "v", false, "shorthand for -log-level debug")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	opts.explicit = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		opts.explicit[f.Name] = true
	})

	if opts.version {
		return opts, nil
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, errors.New("expected exactly one input file")
	}
	opts.input = fs.Arg(0)

	if opts.output == "" && !opts.play {
		return nil, errors.New("-o is required unless -play is set")
	}
	if opts.block <= 0 {
		return nil, fmt.Errorf("invalid -block %d", opts.block)
	}
	if opts.seed > int64(^uint32(0)) {
		return nil, fmt.Errorf("-seed %d does not fit in 32 bits", opts.seed)
	}
	return opts, nil
}

func newLogger(opts *options, stderr io.Writer) (*debug.Logger, error) {
	level, err := debug.ParseLevel(opts.logLevel)
	if err != nil {
		return nil, err
	}
	if opts.verbose {
		level = debug.LogLevelDebug
	}
	logger := debug.New(stderr, "timedrift", debug.FlagLevel|debug.FlagPrefix)
	logger.SetLevel(level)
	return logger, nil
}

// configure applies the state file, then any explicitly set flags.
func configure(proc *humanizer.Processor, opts *options) error {
	if opts.stateIn != "" {
		f, err := os.Open(opts.stateIn)
		if err != nil {
			return err
		}
		err = proc.LoadState(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", opts.stateIn, err)
		}
	}

	if opts.seed >= 0 {
		proc.Engine().SetSeed(uint32(opts.seed))
	}

	params := proc.GetParameters()
	controls := []struct {
		flag  string
		id    uint32
		value float64
	}{
		{"range", humanizer.ParamRange, opts.rangeMs},
		{"center", humanizer.ParamCenter, opts.center},
		{"speed", humanizer.ParamSpeed, opts.speed},
	}
	for _, c := range controls {
		// Without a state file every control takes the flag value, default or not.
		if opts.explicit[c.flag] || opts.stateIn == "" {
			params.Get(c.id).SetPlainValue(c.value)
		}
	}

	if opts.stateOut != "" {
		f, err := os.Create(opts.stateOut)
		if err != nil {
			return err
		}
		if err := proc.SaveState(f); err != nil {
			f.Close()
			return fmt.Errorf("%s: %w", opts.stateOut, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if opts.version {
		fmt.Fprintln(stderr, humanizer.PluginInfo)
		return nil
	}

	logger, err := newLogger(opts, stderr)
	if err != nil {
		return err
	}

	proc, err := humanizer.NewProcessor(humanizer.DefaultConfig(), logger)
	if err != nil {
		return err
	}
	if err := configure(proc, opts); err != nil {
		return err
	}

	src, format, err := audiofile.DefaultRegistry().Open(opts.input)
	if err != nil {
		return err
	}
	defer src.Close()

	logger.Info("%s: %s, %d Hz, %d channels", opts.input, format, src.SampleRate(), src.Channels())
	if src.Channels() > 2 {
		logger.Warn("only the first two of %d channels are processed", src.Channels())
	}

	r, err := newRenderer(proc, src, opts.block, opts.bpm, opts.start)
	if err != nil {
		return err
	}

	e := proc.Engine()
	logger.Debug("seed %d, range %.2f ms, center %.3f, speed %.2f beats, %.2f BPM",
		e.Seed(), e.Range(), e.Center(), e.Speed(), opts.bpm)

	status := newProgress(stderr)
	tick := func() {
		lo, hi := e.DisplayRange()
		status.Update("%7.2fs  delay %7.2f ms  shift [%+.1f, %+.1f] ms", r.Seconds(), e.DisplayValue(), lo, hi)
	}

	if opts.play {
		err = play(ctx, r, tick)
	} else {
		err = renderToFile(ctx, r, opts.output, opts.bits, tick)
	}
	status.Done()
	if err != nil {
		return err
	}

	logger.Info("rendered %d frames (%.2fs)", r.Rendered(), r.Seconds())
	logger.Debug("%s", r.profiler.Report())

	result := r.analyzer.Result()
	logger.Info("output %s", result)
	if result.NonFinite > 0 {
		logger.Error("%d non-finite output samples", result.NonFinite)
	}
	if result.ClippedSamples > 0 {
		logger.Warn("%d samples at or above full scale", result.ClippedSamples)
	}
	return nil
}

func renderToFile(ctx context.Context, r *renderer, path string, bits int, tick func()) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := audiofile.NewWAVWriter(f, int(r.ctx.SampleRate), r.channels, bits)
	if err != nil {
		return err
	}

	for blocks := 0; ; blocks++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		block, frames, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if err := w.WriteFrames(block, frames); err != nil {
			return err
		}
		if blocks%64 == 0 {
			tick()
		}
	}

	if err := w.Close(); err != nil {
		return err
	}
	return f.Close()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stderr)
	stop()

	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "timedrift:", err)
		os.Exit(1)
	}
}
