package ns

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-ns/audiobuf"
	"github.com/cwbudde/algo-vecmath"
)

// NoiseSuppressor removes stationary background noise from a stream of
// 10 ms frames. One instance carries one stream; frames must arrive in
// order and match the configuration.
//
// The zero value is not usable; construct with New.
type NoiseSuppressor struct {
	cfg       Config
	gainFloor float64
	numBands  int
	bandLen   int // samples per band per frame

	channels []*channelState

	// Hops analysed via Analyze but not yet consumed by Process. While
	// positive, Process applies the gains the analysis pass computed
	// instead of re-running the estimators on the same audio.
	pendingAnalyzed int

	gains  []float64 // numBins, shared across channels
	hopBuf []float64 // hopSize scratch
}

// New creates a suppressor for the given configuration.
func New(cfg Config) (*NoiseSuppressor, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	numBands := audiobuf.NumBandsForRate(cfg.SampleRateHz)
	bandLen := cfg.SampleRateHz / 100 / numBands

	s := &NoiseSuppressor{
		cfg:       cfg,
		gainFloor: cfg.Level.GainFloor(),
		numBands:  numBands,
		bandLen:   bandLen,
		channels:  make([]*channelState, cfg.NumChannels),
		gains:     make([]float64, numBins),
		hopBuf:    make([]float64, hopSize),
	}
	for ch := range s.channels {
		c, err := newChannelState(bandLen)
		if err != nil {
			return nil, err
		}
		s.channels[ch] = c
	}
	return s, nil
}

// Config returns the configuration the suppressor was built with.
func (s *NoiseSuppressor) Config() Config { return s.cfg }

// Delay returns the fixed processing delay in samples at the band rate.
func (s *NoiseSuppressor) Delay() int { return hopSize }

// SpeechProbability returns the smoothed speech probability of the most
// recent hop, in [0, 1].
func (s *NoiseSuppressor) SpeechProbability() float64 {
	return s.channels[0].speech.Posterior()
}

// Analyze runs the estimation pipeline on a frame without modifying it.
// If the next Process call receives the same audio, it applies the gains
// computed here instead of estimating again.
//
// Frames above 16 kHz are band-split in place; the frame's full-band view
// is refreshed on the next CopyToInterleaved or MergeBands.
func (s *NoiseSuppressor) Analyze(frame *audiobuf.Frame) error {
	if err := s.checkFrame(frame); err != nil {
		return err
	}
	if frameHasNaN(frame) {
		return nil
	}
	if err := frame.SplitIntoBands(); err != nil {
		return err
	}
	band0 := frame.BandChannels(0)
	for ch, c := range s.channels {
		c.analyzeFIFO.Push(band0[ch])
	}
	for s.channels[0].analyzeFIFO.Len() >= hopSize {
		silent := true
		for _, c := range s.channels {
			c.analyzeFIFO.Pop(s.hopBuf)
			if err := c.analyze.analyze(s.hopBuf); err != nil {
				return err
			}
			if silent && !spectrumIsZero(c.analyze.power) {
				silent = false
			}
		}
		s.estimateHop(true, silent)
		if s.pendingAnalyzed < maxPendingAnalyzed {
			s.pendingAnalyzed++
		}
	}
	return nil
}

// maxPendingAnalyzed bounds the analysis lead over Process so a caller that
// only ever analyses cannot starve a later Process of gain updates.
const maxPendingAnalyzed = 4

// Process suppresses noise in the frame in place. Frames above 16 kHz are
// band-split internally when the caller has not done so; in that case the
// bands are merged back before returning.
func (s *NoiseSuppressor) Process(frame *audiobuf.Frame) error {
	if err := s.checkFrame(frame); err != nil {
		return err
	}
	if frameHasNaN(frame) {
		return nil
	}
	didSplit := false
	if s.numBands > 1 && !frame.IsSplit() {
		if err := frame.SplitIntoBands(); err != nil {
			return err
		}
		didSplit = true
	}

	band0 := frame.BandChannels(0)
	for ch, c := range s.channels {
		c.inFIFO.Push(band0[ch])
	}
	for s.channels[0].inFIFO.Len() >= hopSize {
		if err := s.processHop(); err != nil {
			return err
		}
	}
	for ch, c := range s.channels {
		c.outFIFO.Pop(band0[ch])
	}

	if s.numBands > 1 {
		hb := highBandGain(s.SpeechProbability(), s.gainFloor)
		for band := 1; band < s.numBands; band++ {
			for _, b := range frame.BandChannels(band) {
				vecmath.ScaleBlock(b, b, hb)
			}
		}
	}
	if didSplit {
		return frame.MergeBands()
	}
	return nil
}

// processHop consumes one hop from every channel's input FIFO, refreshes
// the shared gains unless a matching Analyze pass already did, and queues
// one hop of synthesised output.
func (s *NoiseSuppressor) processHop() error {
	silent := true
	for _, c := range s.channels {
		c.inFIFO.Pop(s.hopBuf)
		if err := c.process.analyze(s.hopBuf); err != nil {
			return err
		}
		if silent && !spectrumIsZero(c.process.power) {
			silent = false
		}
	}

	if s.pendingAnalyzed > 0 {
		s.pendingAnalyzed--
	} else {
		s.estimateHop(false, silent)
	}

	for _, c := range s.channels {
		c.process.applyGain(s.gains)
		if err := c.process.synthesize(s.hopBuf); err != nil {
			return err
		}
		c.outFIFO.Push(s.hopBuf)
	}
	return nil
}

// estimateHop updates the noise and speech-probability estimators from the
// selected front-end path and refreshes the shared per-bin gains.
//
// The noise update of a hop is gated by the previous hop's posterior; the
// features then use the refreshed noise estimate. Features and gains are
// averaged across channels so every channel receives the same gain.
func (s *NoiseSuppressor) estimateHop(analyzePath, silent bool) {
	if silent {
		for _, c := range s.channels {
			c.noise.Decay()
			c.speech.decayPosterior()
		}
		return
	}

	for _, c := range s.channels {
		tr := c.front(analyzePath)
		c.noise.Update(tr.magn, tr.power, c.speech.BinProbabilities())
	}

	var sum frameFeatures
	for _, c := range s.channels {
		tr := c.front(analyzePath)
		f := c.speech.computeFeatures(tr.magn, tr.power, c.noise.Noise())
		sum.lrt += f.lrt
		sum.flatness += f.flatness
		sum.diff += f.diff
	}
	n := float64(len(s.channels))
	avg := frameFeatures{lrt: sum.lrt / n, flatness: sum.flatness / n, diff: sum.diff / n}

	var p float64
	for _, c := range s.channels {
		p = c.speech.probability(avg)
	}

	for k := range s.gains {
		s.gains[k] = 0
	}
	for _, c := range s.channels {
		accumulateWienerGains(s.gains, c.speech.xi[:], p)
	}
	finalizeGains(s.gains, len(s.channels), s.gainFloor)

	for _, c := range s.channels {
		c.speech.commitGains(s.gains)
	}
}

func (s *NoiseSuppressor) checkFrame(frame *audiobuf.Frame) error {
	if frame.SampleRate() != s.cfg.SampleRateHz {
		return fmt.Errorf("%w: frame rate %d Hz, suppressor rate %d Hz",
			ErrFrameSizeMismatch, frame.SampleRate(), s.cfg.SampleRateHz)
	}
	if frame.NumChannels() != s.cfg.NumChannels {
		return fmt.Errorf("%w: frame has %d channels, suppressor has %d",
			ErrInvalidChannelCount, frame.NumChannels(), s.cfg.NumChannels)
	}
	if frame.NumFrames() != s.cfg.SampleRateHz/100 {
		return fmt.Errorf("%w: %d samples per channel, want %d",
			ErrFrameSizeMismatch, frame.NumFrames(), s.cfg.SampleRateHz/100)
	}
	if frame.NumBands() != s.numBands {
		return fmt.Errorf("%w: frame has %d bands, want %d",
			ErrBandCountMismatch, frame.NumBands(), s.numBands)
	}
	return nil
}

// frameHasNaN reports whether any sample of the frame is NaN. Such frames
// pass through untouched so corrupted input cannot poison the estimators.
func frameHasNaN(frame *audiobuf.Frame) bool {
	if frame.IsSplit() {
		for ch := 0; ch < frame.NumChannels(); ch++ {
			for _, band := range frame.SplitBands(ch) {
				for _, v := range band {
					if math.IsNaN(v) {
						return true
					}
				}
			}
		}
		return false
	}
	for _, chData := range frame.Channels() {
		for _, v := range chData {
			if math.IsNaN(v) {
				return true
			}
		}
	}
	return false
}

func spectrumIsZero(power []float64) bool {
	for _, v := range power {
		if v != 0 {
			return false
		}
	}
	return true
}
