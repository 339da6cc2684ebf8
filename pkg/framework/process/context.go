// Package process provides the per-block audio processing context.
package process

// DefaultTempo is used when the host does not report a tempo.
const DefaultTempo = 120.0

// Transport is the host's musical position for the start of a block.
type Transport struct {
	Tempo         float64 // beats per minute, 0 if unknown
	PositionBeats float64 // quarter notes since the song start
	Playing       bool
}

// BPM returns the tempo, falling back to DefaultTempo when the host did
// not report a usable one.
func (t Transport) BPM() float64 {
	if t.Tempo > 0 && t.Tempo < 1e6 {
		return t.Tempo
	}
	return DefaultTempo
}

// Context carries one block of audio plus the transport state. It does not
// allocate; the host owns the buffers.
type Context struct {
	Input      [][]float32
	Output     [][]float32
	SampleRate float64
	Transport  Transport
}

// NewContext creates a process context for the given sample rate
func NewContext(sampleRate float64) *Context {
	return &Context{SampleRate: sampleRate}
}

// NumSamples returns the number of samples to process
func (c *Context) NumSamples() int {
	if len(c.Input) > 0 && len(c.Input[0]) > 0 {
		return len(c.Input[0])
	}
	if len(c.Output) > 0 && len(c.Output[0]) > 0 {
		return len(c.Output[0])
	}
	return 0
}

// NumInputChannels returns the number of input channels
func (c *Context) NumInputChannels() int {
	return len(c.Input)
}

// NumOutputChannels returns the number of output channels
func (c *Context) NumOutputChannels() int {
	return len(c.Output)
}

// PassThrough copies input to output (for bypass)
func (c *Context) PassThrough() {
	numChannels := c.NumInputChannels()
	if c.NumOutputChannels() < numChannels {
		numChannels = c.NumOutputChannels()
	}

	for ch := 0; ch < numChannels; ch++ {
		copy(c.Output[ch], c.Input[ch])
	}
}

// Clear zeros the output buffers
func (c *Context) Clear() {
	for ch := range c.Output {
		for i := range c.Output[ch] {
			c.Output[ch][i] = 0
		}
	}
}

// Advance moves the transport forward by n samples, for hosts that drive
// the context themselves (offline rendering, live monitoring).
func (c *Context) Advance(n int) {
	if !c.Transport.Playing || c.SampleRate <= 0 {
		return
	}
	c.Transport.PositionBeats += float64(n) * c.Transport.BPM() / 60 / c.SampleRate
}
