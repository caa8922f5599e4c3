package ns

// accumulateWienerGains adds one channel's probability-blended Wiener gains
// into dst: p + (1-p) * xi/(1+xi) per bin.
func accumulateWienerGains(dst, xi []float64, speechProb float64) {
	for k := 0; k < numBins; k++ {
		wiener := xi[k] / (1 + xi[k])
		dst[k] += speechProb + (1-speechProb)*wiener
	}
}

// finalizeGains divides the accumulated gains by the channel count and
// applies the configured gain floor.
func finalizeGains(gains []float64, numChannels int, gainFloor float64) {
	inv := 1 / float64(numChannels)
	for k := 0; k < numBins; k++ {
		g := gains[k] * inv
		if g < gainFloor {
			g = gainFloor
		} else if g > 1 {
			g = 1
		}
		gains[k] = g
	}
}

// highBandGain is the time-domain gain applied to bands above the analysed
// one: the gain floor in noise, unity in speech.
func highBandGain(speechProb, gainFloor float64) float64 {
	g := speechProb + (1-speechProb)*gainFloor
	if g < gainFloor {
		g = gainFloor
	} else if g > 1 {
		g = 1
	}
	return g
}
