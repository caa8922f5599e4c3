package bands

import (
	"fmt"
	"math"
)

// The three-band bank is a critically sampled cosine-modulated filter bank
// with three uniform bands and a sine prototype window of length 6. The
// window satisfies the time-domain alias cancellation conditions
// (symmetry and w[n]^2 + w[n+3]^2 = 1), so analysis followed by synthesis
// reconstructs the input exactly, delayed by 3 samples.
const (
	threeBandCount  = 3
	threeBandWindow = 2 * threeBandCount
)

var (
	threeBandPrototype [threeBandWindow]float64
	// threeBandDCT[k][n] holds the modulation matrix
	// cos(pi/3 * (n + 0.5 + 1.5) * (k + 0.5)).
	threeBandDCT [threeBandCount][threeBandWindow]float64
)

func init() {
	for n := 0; n < threeBandWindow; n++ {
		threeBandPrototype[n] = math.Sin(math.Pi / float64(threeBandWindow) * (float64(n) + 0.5))
	}
	for k := 0; k < threeBandCount; k++ {
		for n := 0; n < threeBandWindow; n++ {
			arg := math.Pi / float64(threeBandCount) *
				(float64(n) + 0.5 + float64(threeBandCount)/2) * (float64(k) + 0.5)
			threeBandDCT[k][n] = math.Cos(arg)
		}
	}
}

// ThreeBandFilterBank splits a full-band signal into three uniform bands of a
// third of the input length each, and merges them back. One bank serves one
// channel; analysis and synthesis carry independent overlap state.
type ThreeBandFilterBank struct {
	inHist  [threeBandCount]float64 // last samples of the previous analysis frame
	olaTail [threeBandCount]float64 // synthesis overlap carried into the next block

	ext []float64 // analysis scratch: history + current frame
}

// NewThreeBandFilterBank creates a three-band filter bank for full-band
// frames of fullLen samples. fullLen must be a positive multiple of 3.
func NewThreeBandFilterBank(fullLen int) (*ThreeBandFilterBank, error) {
	if fullLen <= 0 || fullLen%threeBandCount != 0 {
		return nil, fmt.Errorf("%w: full-band frame length %d must be a positive multiple of 3",
			ErrInvalidFrameLength, fullLen)
	}
	return &ThreeBandFilterBank{
		ext: make([]float64, threeBandCount+fullLen),
	}, nil
}

// Analysis splits in into three bands of len(in)/3 samples each.
func (f *ThreeBandFilterBank) Analysis(in []float64, b0, b1, b2 []float64) error {
	bandLen := len(in) / threeBandCount
	if err := f.checkLengths(len(in), len(b0), len(b1), len(b2)); err != nil {
		return err
	}

	ext := f.ext[:threeBandCount+len(in)]
	copy(ext, f.inHist[:])
	copy(ext[threeBandCount:], in)
	copy(f.inHist[:], in[len(in)-threeBandCount:])

	outs := [threeBandCount][]float64{b0, b1, b2}
	for i := 0; i < bandLen; i++ {
		seg := ext[threeBandCount*i : threeBandCount*i+threeBandWindow]
		for k := 0; k < threeBandCount; k++ {
			acc := 0.0
			for n := 0; n < threeBandWindow; n++ {
				acc += seg[n] * threeBandPrototype[n] * threeBandDCT[k][n]
			}
			outs[k][i] = acc
		}
	}
	return nil
}

// Synthesis merges three bands back into a full-band signal of
// 3*len(b0) samples.
func (f *ThreeBandFilterBank) Synthesis(b0, b1, b2 []float64, out []float64) error {
	bandLen := len(out) / threeBandCount
	if err := f.checkLengths(len(out), len(b0), len(b1), len(b2)); err != nil {
		return err
	}

	ins := [threeBandCount][]float64{b0, b1, b2}
	scale := 2.0 / float64(threeBandCount)
	var block [threeBandWindow]float64
	for i := 0; i < bandLen; i++ {
		for n := 0; n < threeBandWindow; n++ {
			acc := 0.0
			for k := 0; k < threeBandCount; k++ {
				acc += ins[k][i] * threeBandDCT[k][n]
			}
			block[n] = scale * acc * threeBandPrototype[n]
		}
		for n := 0; n < threeBandCount; n++ {
			out[threeBandCount*i+n] = block[n] + f.olaTail[n]
			f.olaTail[n] = block[threeBandCount+n]
		}
	}
	return nil
}

// Reset zeroes the overlap state.
func (f *ThreeBandFilterBank) Reset() {
	for i := range f.inHist {
		f.inHist[i] = 0
		f.olaTail[i] = 0
	}
}

func (f *ThreeBandFilterBank) checkLengths(full, b0, b1, b2 int) error {
	if full != len(f.ext)-threeBandCount {
		return fmt.Errorf("%w: full-band frame length %d, configured %d",
			ErrInvalidFrameLength, full, len(f.ext)-threeBandCount)
	}
	bandLen := full / threeBandCount
	if b0 != bandLen || b1 != bandLen || b2 != bandLen {
		return fmt.Errorf("%w: band lengths %d/%d/%d for full-band %d",
			ErrInvalidFrameLength, b0, b1, b2, full)
	}
	return nil
}
