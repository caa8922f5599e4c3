package ns

import "fmt"

// SuppressionLevel selects how aggressively stationary noise is attenuated.
// The level fixes the lower bound of the spectral gain.
type SuppressionLevel int

const (
	// Low6dB limits suppression to about 6 dB.
	Low6dB SuppressionLevel = iota
	// Moderate12dB limits suppression to about 12 dB.
	Moderate12dB
	// High18dB limits suppression to about 18 dB.
	High18dB
	// VeryHigh21dB limits suppression to about 21 dB.
	VeryHigh21dB
)

// GainFloor returns the minimum spectral gain for the level.
func (l SuppressionLevel) GainFloor() float64 {
	switch l {
	case Low6dB:
		return 0.5012
	case Moderate12dB:
		return 0.2512
	case High18dB:
		return 0.1259
	case VeryHigh21dB:
		return 0.0891
	default:
		return 0.2512
	}
}

func (l SuppressionLevel) String() string {
	switch l {
	case Low6dB:
		return "low (6 dB)"
	case Moderate12dB:
		return "moderate (12 dB)"
	case High18dB:
		return "high (18 dB)"
	case VeryHigh21dB:
		return "very high (21 dB)"
	default:
		return fmt.Sprintf("SuppressionLevel(%d)", int(l))
	}
}

func (l SuppressionLevel) valid() bool {
	return l >= Low6dB && l <= VeryHigh21dB
}

// MaxNumChannels is the largest supported channel count.
const MaxNumChannels = 8

// Config describes a suppressor instance.
type Config struct {
	// SampleRateHz is one of 8000, 16000, 24000, 32000, 48000.
	SampleRateHz int
	// NumChannels is the channel count, in [1, MaxNumChannels].
	NumChannels int
	// Level selects the suppression aggressiveness.
	Level SuppressionLevel
}

func (c Config) validate() error {
	switch c.SampleRateHz {
	case 8000, 16000, 24000, 32000, 48000:
	default:
		return fmt.Errorf("%w: %d Hz", ErrUnsupportedSampleRate, c.SampleRateHz)
	}
	if c.NumChannels < 1 || c.NumChannels > MaxNumChannels {
		return fmt.Errorf("%w: %d", ErrInvalidChannelCount, c.NumChannels)
	}
	if !c.Level.valid() {
		return fmt.Errorf("ns: invalid suppression level %d", int(c.Level))
	}
	return nil
}
