package ns

import "math"

const (
	// initBlocks is the length of the quantile learning phase in hops.
	initBlocks = 200
	// numSimultaneous staggered quantile trackers.
	numSimultaneous = 3
	// noiseQuantile of the log-magnitude distribution tracked per bin.
	noiseQuantile = 0.25
	// quantileWidth is the density-update acceptance window.
	quantileWidth = 0.01
	// quantileStep scales the stochastic quantile update.
	quantileStep = 40.0
	// noiseUpdateBeta is the recursive noise smoothing in the steady phase.
	noiseUpdateBeta = 0.85
	// minNoisePower floors every noise bin.
	minNoisePower = 1e-10
	// minLogMagnitude guards log() on silent bins.
	minLogMagnitude = 1e-10

	// Bin range of the pink-noise regression, skipping DC and the flat top.
	pinkFitLow  = 5
	pinkFitHigh = 96
)

// noiseEstimator tracks the per-bin noise power spectrum of one channel.
//
// During the first initBlocks hops the estimate is the 0.25-quantile of the
// log magnitude, tracked by three staggered stochastic quantile estimators,
// capped by a white+pink parametric fit of the average spectrum. The cap
// keeps tonal or speech energy present from the first hop out of the noise
// floor. Afterwards the estimate is a recursive average gated by the speech
// probability.
type noiseEstimator struct {
	blockCount int
	counters   [numSimultaneous]int

	logQuantile [numSimultaneous][numBins]float64
	density     [numSimultaneous][numBins]float64
	logMagn     [numBins]float64

	// Running log-log regression of the average spectrum shape.
	fitFrames float64
	fitMeanY  float64
	fitCovXY  float64

	noise [numBins]float64 // power per bin
}

// logBinX and its moments are fixed by the fit range.
var (
	logBinX     [numBins]float64
	logBinMeanX float64
	logBinVarX  float64
)

func init() {
	for k := 1; k < numBins; k++ {
		logBinX[k] = math.Log(float64(k))
	}
	n := float64(pinkFitHigh - pinkFitLow)
	for k := pinkFitLow; k < pinkFitHigh; k++ {
		logBinMeanX += logBinX[k]
	}
	logBinMeanX /= n
	for k := pinkFitLow; k < pinkFitHigh; k++ {
		d := logBinX[k] - logBinMeanX
		logBinVarX += d * d
	}
	logBinVarX /= n
}

func newNoiseEstimator() *noiseEstimator {
	e := &noiseEstimator{}
	for s := 0; s < numSimultaneous; s++ {
		// Stagger the trackers across the learning phase.
		e.counters[s] = s * initBlocks / numSimultaneous
		for k := 0; k < numBins; k++ {
			e.logQuantile[s][k] = 8
			e.density[s][k] = 0.3
		}
	}
	for k := 0; k < numBins; k++ {
		e.noise[k] = minNoisePower
	}
	return e
}

// Noise returns the current noise power spectrum.
func (e *noiseEstimator) Noise() []float64 { return e.noise[:] }

// Initializing reports whether the quantile learning phase is still active.
func (e *noiseEstimator) Initializing() bool { return e.blockCount < initBlocks }

// Update advances the estimate by one hop. speechProbs gates the
// steady-phase recursive update per bin; during the learning phase the
// quantile drives the estimate regardless of it.
func (e *noiseEstimator) Update(magn, power, speechProbs []float64) {
	if e.Initializing() {
		e.updateQuantile(magn)
		e.updateParametricFit()
		best := e.longestTracker()
		for k := 0; k < numBins; k++ {
			q := math.Exp(e.logQuantile[best][k])
			est := q * q
			if limit := e.parametricPower(k); limit < est {
				est = limit
			}
			e.noise[k] = math.Max(est, minNoisePower)
		}
	} else {
		for k := 0; k < numBins; k++ {
			p := speechProbs[k]
			tracked := noiseUpdateBeta*e.noise[k] + (1-noiseUpdateBeta)*power[k]
			e.noise[k] = math.Max(p*e.noise[k]+(1-p)*tracked, minNoisePower)
		}
	}
	e.blockCount++
}

// Decay relaxes the estimate toward the floor. Used on silent hops, where
// the observed power is identically zero.
func (e *noiseEstimator) Decay() {
	for k := 0; k < numBins; k++ {
		e.noise[k] = math.Max(noiseUpdateBeta*e.noise[k], minNoisePower)
	}
	e.blockCount++
}

func (e *noiseEstimator) updateQuantile(magn []float64) {
	for k := 0; k < numBins; k++ {
		e.logMagn[k] = math.Log(math.Max(magn[k], minLogMagnitude))
	}
	for s := 0; s < numSimultaneous; s++ {
		c := float64(e.counters[s] + 1)
		for k := 0; k < numBins; k++ {
			delta := quantileStep
			if e.density[s][k] > 1 {
				delta = quantileStep / e.density[s][k]
			}
			lq := e.logQuantile[s][k]
			if e.logMagn[k] > lq {
				lq += noiseQuantile * delta / c
			} else {
				lq -= (1 - noiseQuantile) * delta / c
			}
			e.logQuantile[s][k] = lq
			if math.Abs(e.logMagn[k]-lq) < quantileWidth {
				e.density[s][k] = (float64(e.counters[s])*e.density[s][k] + 1/(2*quantileWidth)) / c
			}
		}
		e.counters[s]++
		if e.counters[s] >= initBlocks {
			e.counters[s] = 0
		}
	}
}

// longestTracker picks the estimator that has observed the most hops.
func (e *noiseEstimator) longestTracker() int {
	best := 0
	for s := 1; s < numSimultaneous; s++ {
		if e.counters[s] > e.counters[best] {
			best = s
		}
	}
	return best
}

// updateParametricFit folds the current log spectrum into the running
// least-squares fit log|X(k)| ~ a - b*log(k).
func (e *noiseEstimator) updateParametricFit() {
	var meanY, covXY float64
	for k := pinkFitLow; k < pinkFitHigh; k++ {
		meanY += e.logMagn[k]
		covXY += (logBinX[k] - logBinMeanX) * e.logMagn[k]
	}
	n := float64(pinkFitHigh - pinkFitLow)
	meanY /= n
	covXY /= n

	e.fitMeanY = (e.fitFrames*e.fitMeanY + meanY) / (e.fitFrames + 1)
	e.fitCovXY = (e.fitFrames*e.fitCovXY + covXY) / (e.fitFrames + 1)
	e.fitFrames++
}

// parametricPower evaluates the fitted white/pink model as a power value.
func (e *noiseEstimator) parametricPower(k int) float64 {
	slope := -e.fitCovXY / logBinVarX
	if slope < 0 {
		slope = 0
	} else if slope > 2 {
		slope = 2
	}
	x := logBinX[k]
	if k < pinkFitLow {
		x = logBinX[pinkFitLow]
	}
	logMagn := e.fitMeanY - slope*(x-logBinMeanX)
	m := math.Exp(logMagn)
	return m * m
}
