package audiobuf

import (
	"testing"

	"github.com/cwbudde/algo-ns/internal/testutil"
)

func TestFrameInterleaveRoundTrip(t *testing.T) {
	f, err := NewFrame(16000, 2)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	src := testutil.WhiteNoise(11, 1000, 320)
	dst := make([]float64, 320)

	if err := f.CopyFromInterleaved(src); err != nil {
		t.Fatalf("CopyFromInterleaved: %v", err)
	}
	if err := f.CopyToInterleaved(dst); err != nil {
		t.Fatalf("CopyToInterleaved: %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, dst, src, 0)

	// Deinterleaving separated the channels.
	if f.Channels()[0][0] != src[0] || f.Channels()[1][0] != src[1] {
		t.Fatal("unexpected deinterleaved layout")
	}
}

func TestFrameSplitMergeRoundTrip48k(t *testing.T) {
	f, err := NewFrame(48000, 1)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	const frameLen = 480
	in := testutil.Sine(440, 48000, 8000, 4*frameLen)
	out := make([]float64, len(in))

	for frame := 0; frame < 4; frame++ {
		chunk := in[frame*frameLen : (frame+1)*frameLen]
		if err := f.CopyFromInterleaved(chunk); err != nil {
			t.Fatalf("CopyFromInterleaved: %v", err)
		}
		if err := f.SplitIntoBands(); err != nil {
			t.Fatalf("SplitIntoBands: %v", err)
		}
		if !f.IsSplit() {
			t.Fatal("IsSplit false after split")
		}
		if err := f.CopyToInterleaved(out[frame*frameLen : (frame+1)*frameLen]); err != nil {
			t.Fatalf("CopyToInterleaved: %v", err)
		}
	}

	// Merge-after-split reproduces the input through the exact three-band
	// bank, delayed by its 3-sample reconstruction delay.
	want := make([]float64, len(in))
	copy(want[3:], in)
	if rms := testutil.RMSDiff(out, want); rms > 1e-3 {
		t.Fatalf("split/merge round-trip RMS = %v", rms)
	}
}

func TestFrameBandDimensions(t *testing.T) {
	cases := []struct {
		rate      int
		bands     int
		perBand   int
		numFrames int
	}{
		{8000, 1, 80, 80},
		{16000, 1, 160, 160},
		{24000, 2, 120, 240},
		{32000, 2, 160, 320},
		{48000, 3, 160, 480},
	}
	for _, tc := range cases {
		f, err := NewFrame(tc.rate, 1)
		if err != nil {
			t.Fatalf("NewFrame(%d): %v", tc.rate, err)
		}
		if f.NumBands() != tc.bands {
			t.Fatalf("rate %d: bands = %d, want %d", tc.rate, f.NumBands(), tc.bands)
		}
		if f.NumFramesPerBand() != tc.perBand {
			t.Fatalf("rate %d: per-band = %d, want %d", tc.rate, f.NumFramesPerBand(), tc.perBand)
		}
		if f.NumFrames() != tc.numFrames {
			t.Fatalf("rate %d: frames = %d, want %d", tc.rate, f.NumFrames(), tc.numFrames)
		}
		if got := len(f.SplitBands(0)); got != tc.bands {
			t.Fatalf("rate %d: SplitBands len = %d, want %d", tc.rate, got, tc.bands)
		}
	}
}

func TestFrameUnsupportedRate(t *testing.T) {
	if _, err := NewFrame(44100, 1); err == nil {
		t.Fatal("expected error for 44.1 kHz")
	}
	if _, err := NewFrame(16000, 0); err == nil {
		t.Fatal("expected error for zero channels")
	}
}

func TestFrameInterleavedLengthValidation(t *testing.T) {
	f, err := NewFrame(16000, 2)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	if err := f.CopyFromInterleaved(make([]float64, 100)); err == nil {
		t.Fatal("expected error for short interleaved input")
	}
	if err := f.CopyToInterleaved(make([]float64, 100)); err == nil {
		t.Fatal("expected error for short interleaved output")
	}
}
