package bands

import "fmt"

// SplittingFilter splits full-band channels into 2 or 3 frequency bands and
// merges them back. It owns one stateful filter per channel; a 1-band
// configuration is a pass-through.
//
// For each frame, call Analysis once per channel, process the bands, then
// Synthesis once per channel. The per-channel filter state continues across
// frames.
type SplittingFilter struct {
	numBands    int
	numChannels int
	fullLen     int

	twoBand   []*TwoBandFilter
	threeBand []*ThreeBandFilterBank
}

// NewSplittingFilter creates a splitting filter for the given channel count,
// band count (1, 2, or 3) and full-band frame length.
func NewSplittingFilter(numChannels, numBands, fullLen int) (*SplittingFilter, error) {
	if numChannels <= 0 {
		return nil, fmt.Errorf("%w: %d channels", ErrInvalidChannel, numChannels)
	}
	if numBands < 1 || numBands > 3 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBandCount, numBands)
	}
	if fullLen <= 0 || fullLen%numBands != 0 {
		return nil, fmt.Errorf("%w: full-band frame length %d for %d bands",
			ErrInvalidFrameLength, fullLen, numBands)
	}

	s := &SplittingFilter{
		numBands:    numBands,
		numChannels: numChannels,
		fullLen:     fullLen,
	}
	switch numBands {
	case 2:
		if fullLen%2 != 0 || fullLen > MaxTwoBandFrame {
			return nil, fmt.Errorf("%w: full-band frame length %d for two-band split",
				ErrInvalidFrameLength, fullLen)
		}
		s.twoBand = make([]*TwoBandFilter, numChannels)
		for ch := range s.twoBand {
			s.twoBand[ch] = NewTwoBandFilter()
		}
	case 3:
		s.threeBand = make([]*ThreeBandFilterBank, numChannels)
		for ch := range s.threeBand {
			fb, err := NewThreeBandFilterBank(fullLen)
			if err != nil {
				return nil, err
			}
			s.threeBand[ch] = fb
		}
	}
	return s, nil
}

// NumBands returns the configured band count.
func (s *SplittingFilter) NumBands() int { return s.numBands }

// NumChannels returns the configured channel count.
func (s *SplittingFilter) NumChannels() int { return s.numChannels }

// Analysis splits one channel's full-band frame into bands. The bands slice
// must hold numBands slices of fullLen/numBands samples each.
func (s *SplittingFilter) Analysis(ch int, full []float64, bandsOut [][]float64) error {
	if err := s.checkCall(ch, len(full), bandsOut); err != nil {
		return err
	}
	switch s.numBands {
	case 1:
		copy(bandsOut[0], full)
		return nil
	case 2:
		return s.twoBand[ch].Analysis(full, bandsOut[0], bandsOut[1])
	default:
		return s.threeBand[ch].Analysis(full, bandsOut[0], bandsOut[1], bandsOut[2])
	}
}

// Synthesis merges one channel's bands back into a full-band frame.
func (s *SplittingFilter) Synthesis(ch int, bandsIn [][]float64, full []float64) error {
	if err := s.checkCall(ch, len(full), bandsIn); err != nil {
		return err
	}
	switch s.numBands {
	case 1:
		copy(full, bandsIn[0])
		return nil
	case 2:
		return s.twoBand[ch].Synthesis(bandsIn[0], bandsIn[1], full)
	default:
		return s.threeBand[ch].Synthesis(bandsIn[0], bandsIn[1], bandsIn[2], full)
	}
}

func (s *SplittingFilter) checkCall(ch, fullLen int, bandSlices [][]float64) error {
	if ch < 0 || ch >= s.numChannels {
		return fmt.Errorf("%w: %d of %d", ErrInvalidChannel, ch, s.numChannels)
	}
	if fullLen != s.fullLen {
		return fmt.Errorf("%w: full-band frame length %d, configured %d",
			ErrInvalidFrameLength, fullLen, s.fullLen)
	}
	if len(bandSlices) != s.numBands {
		return fmt.Errorf("%w: got %d band slices, configured %d",
			ErrInvalidBandCount, len(bandSlices), s.numBands)
	}
	bandLen := s.fullLen / s.numBands
	for b, band := range bandSlices {
		if len(band) != bandLen {
			return fmt.Errorf("%w: band %d has %d samples, want %d",
				ErrInvalidFrameLength, b, len(band), bandLen)
		}
	}
	return nil
}
