package ns

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

const (
	// fftSize is the analysis/synthesis frame length at the band rate.
	fftSize = 256
	// hopSize is the analysis hop; 50% overlap.
	hopSize = fftSize / 2
	// numBins is the count of non-redundant spectrum bins.
	numBins = fftSize/2 + 1
)

// analysisWindow is the square-root Hann window. Identical analysis and
// synthesis windows satisfy w[n]^2 + w[n+hop]^2 = 1, so overlap-add with
// unity spectral gain reconstructs the input exactly, delayed by one hop.
var analysisWindow [fftSize]float64

func init() {
	for n := 0; n < fftSize; n++ {
		analysisWindow[n] = math.Sin(math.Pi * (float64(n) + 0.5) / fftSize)
	}
}

// wolaTransform is a single-channel weighted overlap-add front-end. Each
// call to analyze consumes one hop of input; synthesize produces one hop of
// output from the (possibly modified) spectrum. All scratch is allocated at
// construction.
type wolaTransform struct {
	plan *algofft.Plan[complex128]

	inHistory  [hopSize]float64
	olaTail    [hopSize]float64
	timeFrame  []complex128 // fftSize
	spectrum   []complex128 // fftSize; bins [0, numBins) are authoritative
	re, im     []float64    // numBins
	magn       []float64    // numBins
	power      []float64    // numBins
}

func newWOLATransform() (*wolaTransform, error) {
	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("ns: failed to create FFT plan: %w", err)
	}
	return &wolaTransform{
		plan:      plan,
		timeFrame: make([]complex128, fftSize),
		spectrum:  make([]complex128, fftSize),
		re:        make([]float64, numBins),
		im:        make([]float64, numBins),
		magn:      make([]float64, numBins),
		power:     make([]float64, numBins),
	}, nil
}

// analyze windows [previous hop | hop] and transforms it, refreshing the
// magnitude and power spectra. hop must hold hopSize samples.
func (tr *wolaTransform) analyze(hop []float64) error {
	for n := 0; n < hopSize; n++ {
		tr.timeFrame[n] = complex(tr.inHistory[n]*analysisWindow[n], 0)
		tr.timeFrame[hopSize+n] = complex(hop[n]*analysisWindow[hopSize+n], 0)
	}
	copy(tr.inHistory[:], hop)

	if err := tr.plan.Forward(tr.spectrum, tr.timeFrame); err != nil {
		return fmt.Errorf("ns: forward FFT failed: %w", err)
	}
	for k := 0; k < numBins; k++ {
		tr.re[k] = real(tr.spectrum[k])
		tr.im[k] = imag(tr.spectrum[k])
	}
	vecmath.Magnitude(tr.magn, tr.re, tr.im)
	vecmath.Power(tr.power, tr.re, tr.im)
	return nil
}

// applyGain scales the spectrum bins by the per-bin gains.
func (tr *wolaTransform) applyGain(gain []float64) {
	for k := 0; k < numBins; k++ {
		tr.spectrum[k] *= complex(gain[k], 0)
	}
}

// synthesize inverse-transforms the spectrum, windows the result and
// overlap-adds it into dst, which must hold hopSize samples.
func (tr *wolaTransform) synthesize(dst []float64) error {
	// Restore conjugate symmetry so the inverse transform is real.
	tr.spectrum[0] = complex(real(tr.spectrum[0]), 0)
	tr.spectrum[hopSize] = complex(real(tr.spectrum[hopSize]), 0)
	for k := 1; k < hopSize; k++ {
		c := tr.spectrum[k]
		tr.spectrum[fftSize-k] = complex(real(c), -imag(c))
	}
	if err := tr.plan.Inverse(tr.timeFrame, tr.spectrum); err != nil {
		return fmt.Errorf("ns: inverse FFT failed: %w", err)
	}
	for n := 0; n < hopSize; n++ {
		dst[n] = real(tr.timeFrame[n])*analysisWindow[n] + tr.olaTail[n]
		tr.olaTail[n] = real(tr.timeFrame[hopSize+n]) * analysisWindow[hopSize+n]
	}
	return nil
}
