package audiofile

// Deinterleave splits frames interleaved frames from src into dst, one
// slice per channel. Channels of src beyond len(dst) are dropped; channels
// of dst beyond the source count receive a copy of the last source channel,
// so mono input feeds both sides of a stereo processor.
func Deinterleave(src []float32, srcChannels int, dst [][]float32, frames int) {
	if srcChannels <= 0 {
		return
	}
	for ch := range dst {
		from := min(ch, srcChannels-1)
		out := dst[ch]
		for i := 0; i < frames && i < len(out); i++ {
			out[i] = src[i*srcChannels+from]
		}
	}
}

// Interleave writes frames samples of each channel of src into dst.
func Interleave(src [][]float32, dst []float32, frames int) {
	channels := len(src)
	for ch, in := range src {
		for i := 0; i < frames; i++ {
			dst[i*channels+ch] = in[i]
		}
	}
}
