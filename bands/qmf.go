package bands

import "fmt"

// MaxTwoBandFrame is the largest full-band frame the two-band filter accepts.
const MaxTwoBandFrame = 640

// Coefficients of the three cascaded first-order all-pass sections in each
// polyphase branch. The two branches form a power-complementary pair whose
// sum and difference give the low and high band.
var (
	qmfOddBranchCoeffs  = [3]float64{6418.0 / 65536.0, 36982.0 / 65536.0, 57261.0 / 65536.0}
	qmfEvenBranchCoeffs = [3]float64{21333.0 / 65536.0, 49062.0 / 65536.0, 63010.0 / 65536.0}
)

// allPassChain is a cascade of three first-order all-pass sections
// y[n] = c*(x[n] - y[n-1]) + x[n-1], applied on a critically sampled branch.
type allPassChain struct {
	coeffs [3]float64
	state  [6]float64 // per section: previous input, previous output
}

func (f *allPassChain) process(dst, src []float64) {
	for n := range src {
		x := src[n]
		for s := 0; s < 3; s++ {
			xPrev := f.state[2*s]
			yPrev := f.state[2*s+1]
			y := f.coeffs[s]*(x-yPrev) + xPrev
			f.state[2*s] = x
			f.state[2*s+1] = y
			x = y
		}
		dst[n] = x
	}
}

func (f *allPassChain) reset() {
	for i := range f.state {
		f.state[i] = 0
	}
}

// TwoBandFilter splits a full-band signal into low and high halves and merges
// them back, using quadrature-mirror all-pass branches. Analysis and synthesis
// carry independent filter state; one TwoBandFilter serves one channel.
//
// The filter is length-agnostic: any even frame length up to [MaxTwoBandFrame]
// works, and consecutive calls continue the filter state seamlessly.
type TwoBandFilter struct {
	analysisOdd   allPassChain
	analysisEven  allPassChain
	synthesisSum  allPassChain
	synthesisDiff allPassChain

	branch1 []float64
	branch2 []float64
}

// NewTwoBandFilter creates a two-band splitting filter with zeroed state.
func NewTwoBandFilter() *TwoBandFilter {
	f := &TwoBandFilter{
		branch1: make([]float64, MaxTwoBandFrame/2),
		branch2: make([]float64, MaxTwoBandFrame/2),
	}
	f.analysisOdd.coeffs = qmfOddBranchCoeffs
	f.analysisEven.coeffs = qmfEvenBranchCoeffs
	f.synthesisSum.coeffs = qmfEvenBranchCoeffs
	f.synthesisDiff.coeffs = qmfOddBranchCoeffs
	return f
}

// Analysis splits in into low and high bands of half the input length.
func (f *TwoBandFilter) Analysis(in, low, high []float64) error {
	half := len(in) / 2
	if err := checkTwoBandLengths(len(in), len(low), len(high)); err != nil {
		return err
	}

	b1 := f.branch1[:half]
	b2 := f.branch2[:half]
	for i := 0; i < half; i++ {
		b1[i] = in[2*i+1]
		b2[i] = in[2*i]
	}
	f.analysisOdd.process(b1, b1)
	f.analysisEven.process(b2, b2)

	for i := 0; i < half; i++ {
		low[i] = 0.5 * (b1[i] + b2[i])
		high[i] = 0.5 * (b1[i] - b2[i])
	}
	return nil
}

// Synthesis merges low and high bands back into a full-band signal.
func (f *TwoBandFilter) Synthesis(low, high, out []float64) error {
	half := len(out) / 2
	if err := checkTwoBandLengths(len(out), len(low), len(high)); err != nil {
		return err
	}

	b1 := f.branch1[:half]
	b2 := f.branch2[:half]
	for i := 0; i < half; i++ {
		b1[i] = low[i] + high[i]
		b2[i] = low[i] - high[i]
	}
	f.synthesisSum.process(b1, b1)
	f.synthesisDiff.process(b2, b2)

	for i := 0; i < half; i++ {
		out[2*i] = b2[i]
		out[2*i+1] = b1[i]
	}
	return nil
}

// Reset zeroes all filter state.
func (f *TwoBandFilter) Reset() {
	f.analysisOdd.reset()
	f.analysisEven.reset()
	f.synthesisSum.reset()
	f.synthesisDiff.reset()
}

func checkTwoBandLengths(full, low, high int) error {
	if full <= 0 || full%2 != 0 || full > MaxTwoBandFrame {
		return fmt.Errorf("%w: full-band frame length %d", ErrInvalidFrameLength, full)
	}
	if low != full/2 || high != full/2 {
		return fmt.Errorf("%w: band length %d/%d for full-band %d", ErrInvalidFrameLength, low, high, full)
	}
	return nil
}
