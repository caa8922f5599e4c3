package audiobuf

import (
	"fmt"

	"github.com/cwbudde/algo-ns/bands"
)

// NumBandsForRate returns the band count used at a sample rate: one band up
// to 16 kHz, two for 24 and 32 kHz, three for 48 kHz. Unsupported rates
// return 0.
func NumBandsForRate(sampleRateHz int) int {
	switch sampleRateHz {
	case 8000, 16000:
		return 1
	case 24000, 32000:
		return 2
	case 48000:
		return 3
	default:
		return 0
	}
}

// Frame holds one 10 ms multichannel block of samples, optionally decomposed
// into frequency bands. Samples are floats in the 16-bit integer range
// [-32768, 32767].
//
// A Frame owns its splitting-filter state, so a single Frame instance should
// carry a stream: reusing it frame after frame keeps the band filters
// continuous across block boundaries.
type Frame struct {
	sampleRateHz int
	numChannels  int
	numFrames    int // full-band samples per channel
	numBands     int

	data     *ChannelBuffer // full band
	split    *ChannelBuffer // band-split, nil for single-band rates
	splitter *bands.SplittingFilter
	isSplit  bool
}

// NewFrame creates a frame for the given sample rate and channel count.
// The sample rate must be one of 8000, 16000, 24000, 32000, 48000.
func NewFrame(sampleRateHz, numChannels int) (*Frame, error) {
	numBands := NumBandsForRate(sampleRateHz)
	if numBands == 0 {
		return nil, fmt.Errorf("audiobuf: unsupported sample rate %d Hz", sampleRateHz)
	}
	if numChannels <= 0 {
		return nil, fmt.Errorf("audiobuf: channel count must be > 0: %d", numChannels)
	}

	numFrames := sampleRateHz / 100
	f := &Frame{
		sampleRateHz: sampleRateHz,
		numChannels:  numChannels,
		numFrames:    numFrames,
		numBands:     numBands,
	}

	var err error
	f.data, err = NewChannelBuffer(numChannels, 1, numFrames)
	if err != nil {
		return nil, err
	}
	if numBands > 1 {
		f.split, err = NewChannelBuffer(numChannels, numBands, numFrames/numBands)
		if err != nil {
			return nil, err
		}
		f.splitter, err = bands.NewSplittingFilter(numChannels, numBands, numFrames)
		if err != nil {
			return nil, err
		}
	}
	return f, nil
}

// SampleRate returns the frame's sample rate in Hz.
func (f *Frame) SampleRate() int { return f.sampleRateHz }

// NumChannels returns the channel count.
func (f *Frame) NumChannels() int { return f.numChannels }

// NumFrames returns the full-band samples per channel.
func (f *Frame) NumFrames() int { return f.numFrames }

// NumBands returns the band count for this frame's sample rate.
func (f *Frame) NumBands() int { return f.numBands }

// NumFramesPerBand returns the samples per band per channel.
func (f *Frame) NumFramesPerBand() int { return f.numFrames / f.numBands }

// IsSplit reports whether the band-split data is current.
func (f *Frame) IsSplit() bool { return f.isSplit }

// Channels returns the full-band per-channel view.
func (f *Frame) Channels() [][]float64 { return f.data.Channels() }

// SplitBands returns the band view of one channel. For single-band rates
// this is the full-band data; otherwise it is only valid after
// SplitIntoBands.
func (f *Frame) SplitBands(ch int) [][]float64 {
	if f.split != nil {
		return f.split.Bands(ch)
	}
	return f.data.Bands(ch)
}

// BandChannels returns the per-channel view of one band.
func (f *Frame) BandChannels(band int) [][]float64 {
	if f.split != nil {
		return f.split.BandChannels(band)
	}
	return f.data.BandChannels(band)
}

// CopyFromInterleaved deinterleaves src into the full-band buffer and marks
// any band-split data stale. src must hold NumChannels*NumFrames samples.
func (f *Frame) CopyFromInterleaved(src []float64) error {
	if len(src) != f.numChannels*f.numFrames {
		return fmt.Errorf("audiobuf: interleaved length %d, want %d", len(src), f.numChannels*f.numFrames)
	}
	channels := f.data.Channels()
	for ch := 0; ch < f.numChannels; ch++ {
		dst := channels[ch]
		for i := 0; i < f.numFrames; i++ {
			dst[i] = src[i*f.numChannels+ch]
		}
	}
	f.isSplit = false
	return nil
}

// CopyToInterleaved interleaves the full-band buffer into dst. Band-split
// data is merged first if it is current.
func (f *Frame) CopyToInterleaved(dst []float64) error {
	if len(dst) != f.numChannels*f.numFrames {
		return fmt.Errorf("audiobuf: interleaved length %d, want %d", len(dst), f.numChannels*f.numFrames)
	}
	if f.isSplit {
		if err := f.MergeBands(); err != nil {
			return err
		}
	}
	channels := f.data.Channels()
	for ch := 0; ch < f.numChannels; ch++ {
		src := channels[ch]
		for i := 0; i < f.numFrames; i++ {
			dst[i*f.numChannels+ch] = src[i]
		}
	}
	return nil
}

// SplitIntoBands decomposes the full-band data into frequency bands.
// It is a no-op for single-band rates and when the split data is already
// current, so the filter state advances exactly once per frame.
func (f *Frame) SplitIntoBands() error {
	if f.split == nil || f.isSplit {
		return nil
	}
	for ch := 0; ch < f.numChannels; ch++ {
		if err := f.splitter.Analysis(ch, f.data.Channels()[ch], f.split.Bands(ch)); err != nil {
			return err
		}
	}
	f.isSplit = true
	return nil
}

// MergeBands recombines the frequency bands into the full-band buffer.
// It is a no-op for single-band rates and when no split data is current.
func (f *Frame) MergeBands() error {
	if f.split == nil || !f.isSplit {
		return nil
	}
	for ch := 0; ch < f.numChannels; ch++ {
		if err := f.splitter.Synthesis(ch, f.split.Bands(ch), f.data.Channels()[ch]); err != nil {
			return err
		}
	}
	f.isSplit = false
	return nil
}
