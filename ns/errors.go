package ns

import "errors"

var (
	// ErrUnsupportedSampleRate is returned for sample rates other than
	// 8000, 16000, 24000, 32000 and 48000 Hz.
	ErrUnsupportedSampleRate = errors.New("ns: unsupported sample rate")

	// ErrInvalidChannelCount is returned for channel counts outside [1, 8].
	ErrInvalidChannelCount = errors.New("ns: invalid channel count")

	// ErrFrameSizeMismatch is returned when a frame's sample rate or length
	// does not match the suppressor's configuration.
	ErrFrameSizeMismatch = errors.New("ns: frame size mismatch")

	// ErrBandCountMismatch is returned when a frame's band structure does
	// not match the suppressor's sample rate.
	ErrBandCountMismatch = errors.New("ns: band count mismatch")
)
