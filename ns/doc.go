// Package ns implements a spectral noise suppressor for speech audio.
//
// The suppressor operates on 10 ms frames at 8, 16, 24, 32 or 48 kHz with
// up to eight channels. Internally it runs a 256-point square-root Hann
// analysis/synthesis front-end with 50% overlap on the lowest frequency
// band; rates above 16 kHz are split into two or three bands and the upper
// bands receive a time-domain gain driven by the speech probability.
//
// Noise is tracked per frequency bin by a quantile estimator during an
// initial learning phase and by a speech-probability-gated recursive
// average afterwards. The speech probability combines a likelihood-ratio
// statistic, spectral flatness and a spectral template difference. The
// final per-bin gain is a Wiener filter blended with the probability and
// limited below by the configured suppression level's gain floor.
//
// Processing adds a fixed delay of 128 samples at the band rate. All
// buffers are allocated at construction; Analyze and Process do not
// allocate.
package ns
