// Package audiobuf provides deinterleaved per-channel, per-band sample
// storage for 10 ms audio frames.
//
// ChannelBuffer owns a single backing array and exposes three aliased views
// of it: per-channel full-band data, per-channel band data, and per-band
// channel data. Frame wraps a full-band buffer together with an optional
// band-split buffer and the splitting filter that moves data between them.
package audiobuf
