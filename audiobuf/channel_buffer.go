package audiobuf

import "fmt"

// ChannelBuffer stores numChannels x numBands x numFramesPerBand samples in
// one backing array, laid out channel-major with the bands of a channel
// contiguous. All views alias the same storage; no view ever copies.
//
// With a single band, Channels()[ch] and Bands(ch)[0] are the same slice.
type ChannelBuffer struct {
	data []float64

	maxChannels      int
	numChannels      int
	numBands         int
	numFramesPerBand int

	channelViews     [][]float64   // [ch] -> numBands*numFramesPerBand samples
	bandViews        [][][]float64 // [ch][band] -> numFramesPerBand samples
	bandChannelViews [][][]float64 // [band][ch] -> numFramesPerBand samples
}

// NewChannelBuffer allocates a zeroed buffer and precomputes all views.
func NewChannelBuffer(numChannels, numBands, numFramesPerBand int) (*ChannelBuffer, error) {
	if numChannels <= 0 {
		return nil, fmt.Errorf("audiobuf: channel count must be > 0: %d", numChannels)
	}
	if numBands <= 0 {
		return nil, fmt.Errorf("audiobuf: band count must be > 0: %d", numBands)
	}
	if numFramesPerBand <= 0 {
		return nil, fmt.Errorf("audiobuf: frames per band must be > 0: %d", numFramesPerBand)
	}

	b := &ChannelBuffer{
		data:             make([]float64, numChannels*numBands*numFramesPerBand),
		maxChannels:      numChannels,
		numChannels:      numChannels,
		numBands:         numBands,
		numFramesPerBand: numFramesPerBand,
	}

	perChannel := numBands * numFramesPerBand
	b.channelViews = make([][]float64, numChannels)
	b.bandViews = make([][][]float64, numChannels)
	for ch := 0; ch < numChannels; ch++ {
		base := ch * perChannel
		b.channelViews[ch] = b.data[base : base+perChannel]
		b.bandViews[ch] = make([][]float64, numBands)
		for band := 0; band < numBands; band++ {
			start := base + band*numFramesPerBand
			b.bandViews[ch][band] = b.data[start : start+numFramesPerBand]
		}
	}
	b.bandChannelViews = make([][][]float64, numBands)
	for band := 0; band < numBands; band++ {
		b.bandChannelViews[band] = make([][]float64, numChannels)
		for ch := 0; ch < numChannels; ch++ {
			b.bandChannelViews[band][ch] = b.bandViews[ch][band]
		}
	}
	return b, nil
}

// NumChannels returns the active channel count.
func (b *ChannelBuffer) NumChannels() int { return b.numChannels }

// NumBands returns the band count.
func (b *ChannelBuffer) NumBands() int { return b.numBands }

// NumFramesPerBand returns the samples per band per channel.
func (b *ChannelBuffer) NumFramesPerBand() int { return b.numFramesPerBand }

// SetNumChannels narrows the active channel views without reallocating.
// n must not exceed the construction-time channel count.
func (b *ChannelBuffer) SetNumChannels(n int) error {
	if n <= 0 || n > b.maxChannels {
		return fmt.Errorf("audiobuf: active channel count %d out of range [1, %d]", n, b.maxChannels)
	}
	b.numChannels = n
	return nil
}

// Channels returns the per-channel full-band view: Channels()[ch][sample].
func (b *ChannelBuffer) Channels() [][]float64 {
	return b.channelViews[:b.numChannels]
}

// Bands returns the per-band view of one channel: Bands(ch)[band][sample].
func (b *ChannelBuffer) Bands(ch int) [][]float64 {
	return b.bandViews[ch]
}

// BandChannels returns the per-channel view of one band:
// BandChannels(band)[ch][sample].
func (b *ChannelBuffer) BandChannels(band int) [][]float64 {
	return b.bandChannelViews[band][:b.numChannels]
}

// Zero clears the backing storage.
func (b *ChannelBuffer) Zero() {
	for i := range b.data {
		b.data[i] = 0
	}
}
