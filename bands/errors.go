package bands

import "errors"

var (
	// ErrInvalidFrameLength reports a frame or band slice whose length does
	// not match the filter's expectations.
	ErrInvalidFrameLength = errors.New("bands: invalid frame length")

	// ErrInvalidBandCount reports an unsupported number of bands.
	ErrInvalidBandCount = errors.New("bands: invalid band count")

	// ErrInvalidChannel reports a channel index outside the configured range.
	ErrInvalidChannel = errors.New("bands: invalid channel index")
)
