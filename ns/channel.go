package ns

// channelState bundles the per-channel processing state: two independent
// analysis front-ends (one for Analyze, one for Process, so their overlap
// histories never mix), the hop FIFOs and the estimators.
type channelState struct {
	process *wolaTransform
	analyze *wolaTransform

	inFIFO      *sampleFIFO
	outFIFO     *sampleFIFO
	analyzeFIFO *sampleFIFO

	noise  *noiseEstimator
	speech *speechProbEstimator
}

func newChannelState(bandLen int) (*channelState, error) {
	process, err := newWOLATransform()
	if err != nil {
		return nil, err
	}
	analyze, err := newWOLATransform()
	if err != nil {
		return nil, err
	}
	c := &channelState{
		process:     process,
		analyze:     analyze,
		inFIFO:      newSampleFIFO(bandLen + hopSize),
		outFIFO:     newSampleFIFO(bandLen + 2*hopSize),
		analyzeFIFO: newSampleFIFO(bandLen + hopSize),
		noise:       newNoiseEstimator(),
		speech:      newSpeechProbEstimator(),
	}
	c.primeOutput()
	return c, nil
}

// primeOutput queues the fixed processing delay of one hop.
func (c *channelState) primeOutput() {
	c.outFIFO.PushZeros(hopSize)
}

// front returns the transform carrying the requested path's spectra.
func (c *channelState) front(analyzePath bool) *wolaTransform {
	if analyzePath {
		return c.analyze
	}
	return c.process
}
