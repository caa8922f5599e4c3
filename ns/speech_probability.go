package ns

import "math"

const (
	// ddSmooth is the decision-directed prior SNR smoothing factor.
	ddSmooth = 0.98

	// featureMeanSmooth is the long-term feature mean update factor.
	featureMeanSmooth = 0.7
	// featureMinStep relaxes the running feature minimum, giving it a
	// memory of roughly a thousand hops.
	featureMinStep = 0.001

	// Fixed sigmoid centres per feature.
	lrtCenter      = 0.5
	flatnessCenter = 0.6
	diffCenter     = 0.3

	// sigmoidSlope scales the normalised feature distance.
	sigmoidSlope = 4.0

	// minSigmoidWidth floors the adaptive width from the min/mean gap.
	minSigmoidWidth = 0.1

	// Feature weights in the combined speech probability.
	lrtWeight      = 0.5
	flatnessWeight = 0.25
	diffWeight     = 0.25

	// posteriorSmooth blends the new frame probability into the state.
	posteriorSmooth = 0.2
)

// featureStats carries the adaptive statistics of one feature.
type featureStats struct {
	mean    float64
	min     float64
	started bool
}

func (s *featureStats) update(f float64) {
	if !s.started {
		s.mean = f
		s.min = f
		s.started = true
		return
	}
	s.mean = featureMeanSmooth*s.mean + (1-featureMeanSmooth)*f
	if f < s.min {
		s.min = f
	} else {
		s.min += featureMinStep * (f - s.min)
	}
}

// width returns the sigmoid width derived from the min/mean gap.
func (s *featureStats) width() float64 {
	return math.Max(s.mean-s.min, minSigmoidWidth)
}

// frameFeatures holds the per-hop classification features of one channel.
type frameFeatures struct {
	lrt      float64
	flatness float64
	diff     float64
}

// speechProbEstimator carries the per-channel spectral state used for both
// the prior SNR and the frame classification features.
type speechProbEstimator struct {
	xi        [numBins]float64 // decision-directed prior SNR
	gamma     [numBins]float64 // posterior SNR of the current hop
	prevGamma [numBins]float64
	prevGain  [numBins]float64

	lrtStats  featureStats
	flatStats featureStats
	diffStats featureStats

	posterior float64
	binProb   [numBins]float64
}

func newSpeechProbEstimator() *speechProbEstimator {
	return &speechProbEstimator{}
}

// Posterior returns the smoothed speech probability of the last hop.
func (e *speechProbEstimator) Posterior() float64 { return e.posterior }

// computeFeatures derives the prior SNR and the classification features for
// one hop from the magnitude/power spectra and the noise estimate.
func (e *speechProbEstimator) computeFeatures(magn, power, noise []float64) frameFeatures {
	var lrtSum float64
	for k := 0; k < numBins; k++ {
		gamma := power[k] / math.Max(noise[k], minNoisePower)
		prevSNR := 0.0
		if gamma > 1 {
			prevSNR = gamma - 1
		}
		xi := ddSmooth*e.prevGain[k]*e.prevGain[k]*e.prevGamma[k] + (1-ddSmooth)*prevSNR
		e.gamma[k] = gamma
		e.xi[k] = xi
		lrtSum += xi/(1+xi)*gamma - math.Log1p(xi)
	}

	return frameFeatures{
		lrt:      lrtSum / numBins,
		flatness: spectralFlatness(magn),
		diff:     templateDifference(magn, noise),
	}
}

// probability maps averaged features through the adaptive sigmoids and
// updates the smoothed posterior.
func (e *speechProbEstimator) probability(f frameFeatures) float64 {
	e.lrtStats.update(f.lrt)
	e.flatStats.update(f.flatness)
	e.diffStats.update(f.diff)

	// High likelihood ratio, low flatness and high template difference all
	// indicate speech.
	pLRT := sigmoid((f.lrt - lrtCenter) / e.lrtStats.width())
	pFlat := sigmoid((flatnessCenter - f.flatness) / e.flatStats.width())
	pDiff := sigmoid((f.diff - diffCenter) / e.diffStats.width())

	p := lrtWeight*pLRT + flatnessWeight*pFlat + diffWeight*pDiff
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}
	e.posterior = posteriorSmooth*e.posterior + (1-posteriorSmooth)*p
	return e.posterior
}

// decayPosterior relaxes the probability toward zero on silent hops.
func (e *speechProbEstimator) decayPosterior() {
	e.posterior *= posteriorSmooth
}

// commitGains records the applied per-bin gains and the posterior SNR for
// the next hop's decision-directed update, and refreshes the per-bin speech
// posteriors that gate the next hop's noise update.
func (e *speechProbEstimator) commitGains(gains []float64) {
	copy(e.prevGain[:], gains)
	copy(e.prevGamma[:], e.gamma[:])
	e.updateBinProbabilities()
}

// BinProbabilities returns the per-bin speech posteriors of the last hop.
func (e *speechProbEstimator) BinProbabilities() []float64 { return e.binProb[:] }

// updateBinProbabilities combines the frame posterior with the per-bin
// Gaussian likelihood ratio. Bins carrying strong speech or tonal energy
// saturate to 1 so the gated noise update never absorbs them.
func (e *speechProbEstimator) updateBinProbabilities() {
	q := e.posterior
	if q < 0.01 {
		q = 0.01
	} else if q > 0.99 {
		q = 0.99
	}
	for k := 0; k < numBins; k++ {
		xi := e.xi[k]
		logLR := xi/(1+xi)*e.gamma[k] - math.Log1p(xi)
		if logLR > 50 {
			logLR = 50
		} else if logLR < -50 {
			logLR = -50
		}
		lr := math.Exp(logLR)
		e.binProb[k] = q * lr / (1 - q + q*lr)
	}
}

func sigmoid(z float64) float64 {
	z *= sigmoidSlope
	if z > 20 {
		return 1
	}
	if z < -20 {
		return 0
	}
	return 1 / (1 + math.Exp(-z))
}

// spectralFlatness is the ratio of the geometric to the arithmetic mean of
// the magnitudes over bins [1, hopSize). Near 1 for white noise, near 0 for
// tonal or voiced content.
func spectralFlatness(magn []float64) float64 {
	var logSum, sum float64
	for k := 1; k < hopSize; k++ {
		m := math.Max(magn[k], minLogMagnitude)
		logSum += math.Log(m)
		sum += m
	}
	n := float64(hopSize - 1)
	return math.Exp(logSum/n) / (sum / n)
}

// templateDifference is one minus the normalised correlation between the
// magnitude spectrum and the noise template shape. Spectra that look like
// the current noise estimate score near zero.
func templateDifference(magn, noise []float64) float64 {
	var dot, sigEnergy, noiseEnergy float64
	for k := 1; k < hopSize; k++ {
		n := math.Sqrt(math.Max(noise[k], minNoisePower))
		dot += magn[k] * n
		sigEnergy += magn[k] * magn[k]
		noiseEnergy += n * n
	}
	denom := math.Sqrt(sigEnergy * noiseEnergy)
	if denom < minNoisePower {
		return 0
	}
	rho := dot / denom
	if rho > 1 {
		rho = 1
	}
	return 1 - rho
}
