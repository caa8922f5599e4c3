package ns

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-ns/audiobuf"
	"github.com/cwbudde/algo-ns/internal/testutil"
)

func newTestSuppressor(t *testing.T, rate, channels int, level SuppressionLevel) (*NoiseSuppressor, *audiobuf.Frame) {
	t.Helper()
	s, err := New(Config{SampleRateHz: rate, NumChannels: channels, Level: level})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f, err := audiobuf.NewFrame(rate, channels)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	return s, f
}

// processAll streams interleaved samples through the suppressor in 10 ms
// frames and returns the interleaved output.
func processAll(t *testing.T, s *NoiseSuppressor, f *audiobuf.Frame, in []float64) []float64 {
	t.Helper()
	frameLen := f.NumFrames() * f.NumChannels()
	out := make([]float64, 0, len(in))
	buf := make([]float64, frameLen)
	for off := 0; off+frameLen <= len(in); off += frameLen {
		if err := f.CopyFromInterleaved(in[off : off+frameLen]); err != nil {
			t.Fatalf("CopyFromInterleaved: %v", err)
		}
		if err := s.Process(f); err != nil {
			t.Fatalf("Process: %v", err)
		}
		if err := f.CopyToInterleaved(buf); err != nil {
			t.Fatalf("CopyToInterleaved: %v", err)
		}
		out = append(out, buf...)
	}
	return out
}

func TestSilenceStaysSilent(t *testing.T) {
	for _, rate := range []int{16000, 48000} {
		s, f := newTestSuppressor(t, rate, 1, Moderate12dB)
		in := make([]float64, 350*rate/100)
		out := processAll(t, s, f, in)
		for i, v := range out {
			if v != 0 {
				t.Fatalf("rate %d, sample %d: %v, want exact zero", rate, i, v)
			}
		}
		if p := s.SpeechProbability(); p > 1e-6 {
			t.Fatalf("rate %d: speech probability on silence = %v, want ~0", rate, p)
		}
	}
}

func TestWhiteNoiseAttenuatedPerLevel(t *testing.T) {
	levels := []SuppressionLevel{Low6dB, Moderate12dB, High18dB, VeryHigh21dB}
	for _, level := range levels {
		t.Run(level.String(), func(t *testing.T) {
			s, f := newTestSuppressor(t, 16000, 1, level)
			in := testutil.WhiteNoise(7, 1000, 4*16000)
			out := processAll(t, s, f, in)

			// Measure after the noise estimate has converged.
			tail := 16000
			inRMS := testutil.RMS(in[len(in)-tail:])
			outRMS := testutil.RMS(out[len(out)-tail:])
			floor := level.GainFloor()
			ratio := outRMS / inRMS
			if ratio > floor+0.05 {
				t.Fatalf("residual ratio = %v, want <= %v", ratio, floor+0.05)
			}
			if ratio < floor*0.3 {
				t.Fatalf("residual ratio = %v below the gain floor %v", ratio, floor)
			}
		})
	}
}

func TestTonePassesThrough(t *testing.T) {
	s, f := newTestSuppressor(t, 16000, 1, High18dB)
	const total = 4 * 16000
	in := testutil.Sine(1000, 16000, 10000, total)
	noise := testutil.WhiteNoise(9, 100, total)
	for i := range in {
		in[i] += noise[i]
	}
	out := processAll(t, s, f, in)

	tail := 16000
	inRMS := testutil.RMS(in[len(in)-tail:])
	outRMS := testutil.RMS(out[len(out)-tail:])
	if ratio := outRMS / inRMS; ratio < 0.8 {
		t.Fatalf("tone ratio = %v, want >= 0.8", ratio)
	}
	if p := s.SpeechProbability(); p < 0.5 {
		t.Fatalf("speech probability on a strong tone = %v, want high", p)
	}
}

func TestPureSinePassesThrough(t *testing.T) {
	s, f := newTestSuppressor(t, 16000, 1, Moderate12dB)
	in := testutil.Sine(440, 16000, 8000, 3*16000)
	out := processAll(t, s, f, in)

	tail := 16000
	inRMS := testutil.RMS(in[len(in)-tail:])
	outRMS := testutil.RMS(out[len(out)-tail:])
	if ratio := outRMS / inRMS; ratio < 0.75 {
		t.Fatalf("sine ratio = %v, want >= 0.75", ratio)
	}
}

func TestProcessingIsDeterministic(t *testing.T) {
	in := testutil.WhiteNoise(21, 2000, 16000)

	s1, f1 := newTestSuppressor(t, 16000, 1, High18dB)
	out1 := processAll(t, s1, f1, in)
	s2, f2 := newTestSuppressor(t, 16000, 1, High18dB)
	out2 := processAll(t, s2, f2, in)

	for i := range out1 {
		if out1[i] != out2[i] {
			t.Fatalf("sample %d differs between runs: %v vs %v", i, out1[i], out2[i])
		}
	}
}

func TestStereoChannelsShareGains(t *testing.T) {
	s, f := newTestSuppressor(t, 8000, 2, Moderate12dB)
	const frames = 200
	mono := testutil.WhiteNoise(5, 1000, frames*80)
	in := make([]float64, 2*len(mono))
	for i, v := range mono {
		in[2*i] = v
		in[2*i+1] = 0.5 * v
	}
	out := processAll(t, s, f, in)

	// Identical gains applied to a scaled copy keep the scale.
	left := make([]float64, len(mono))
	right := make([]float64, len(mono))
	for i := range mono {
		left[i] = out[2*i]
		right[i] = out[2*i+1]
	}
	scaled := make([]float64, len(left))
	for i := range left {
		scaled[i] = 0.5 * left[i]
	}
	if rms := testutil.RMSDiff(right, scaled); rms > 1e-6 {
		t.Fatalf("stereo gain divergence RMS = %v", rms)
	}
}

func TestAnalyzeThenProcessMatchesProcessOnly(t *testing.T) {
	in := testutil.WhiteNoise(13, 1000, 100*160)

	sRef, fRef := newTestSuppressor(t, 16000, 1, High18dB)
	want := processAll(t, sRef, fRef, in)

	s, f := newTestSuppressor(t, 16000, 1, High18dB)
	got := make([]float64, 0, len(in))
	buf := make([]float64, 160)
	for off := 0; off+160 <= len(in); off += 160 {
		if err := f.CopyFromInterleaved(in[off : off+160]); err != nil {
			t.Fatalf("CopyFromInterleaved: %v", err)
		}
		if err := s.Analyze(f); err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if err := s.Process(f); err != nil {
			t.Fatalf("Process: %v", err)
		}
		if err := f.CopyToInterleaved(buf); err != nil {
			t.Fatalf("CopyToInterleaved: %v", err)
		}
		got = append(got, buf...)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: analyze+process %v, process-only %v", i, got[i], want[i])
		}
	}
}

func TestNaNFramePassesThrough(t *testing.T) {
	s, f := newTestSuppressor(t, 16000, 1, Moderate12dB)

	in := testutil.WhiteNoise(17, 1000, 160)
	in[50] = math.NaN()
	if err := f.CopyFromInterleaved(in); err != nil {
		t.Fatalf("CopyFromInterleaved: %v", err)
	}
	if err := s.Process(f); err != nil {
		t.Fatalf("Process: %v", err)
	}
	out := make([]float64, 160)
	if err := f.CopyToInterleaved(out); err != nil {
		t.Fatalf("CopyToInterleaved: %v", err)
	}
	for i := range in {
		if i == 50 {
			if !math.IsNaN(out[i]) {
				t.Fatal("NaN sample not preserved")
			}
			continue
		}
		if out[i] != in[i] {
			t.Fatalf("sample %d modified in a NaN frame: %v vs %v", i, out[i], in[i])
		}
	}

	// Clean frames afterwards are processed normally.
	clean := testutil.WhiteNoise(18, 1000, 160)
	if err := f.CopyFromInterleaved(clean); err != nil {
		t.Fatalf("CopyFromInterleaved: %v", err)
	}
	if err := s.Process(f); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if err := f.CopyToInterleaved(out); err != nil {
		t.Fatalf("CopyToInterleaved: %v", err)
	}
	testutil.RequireFinite(t, out)
}

func TestSplitRatesEndToEnd(t *testing.T) {
	rates := []int{24000, 32000, 48000}
	for _, rate := range rates {
		s, f := newTestSuppressor(t, rate, 1, High18dB)
		in := testutil.WhiteNoise(31, 1000, 3*rate)
		out := processAll(t, s, f, in)
		testutil.RequireFinite(t, out)

		tail := rate
		inRMS := testutil.RMS(in[len(in)-tail:])
		outRMS := testutil.RMS(out[len(out)-tail:])
		if ratio := outRMS / inRMS; ratio > 0.4 {
			t.Fatalf("rate %d: residual ratio = %v, want strong attenuation", rate, ratio)
		}
	}
}

func TestFrameMismatchErrors(t *testing.T) {
	s, _ := newTestSuppressor(t, 16000, 1, Moderate12dB)

	wrongRate, err := audiobuf.NewFrame(8000, 1)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	if err := s.Process(wrongRate); !errors.Is(err, ErrFrameSizeMismatch) {
		t.Fatalf("wrong rate: err = %v, want ErrFrameSizeMismatch", err)
	}

	wrongChannels, err := audiobuf.NewFrame(16000, 2)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	if err := s.Process(wrongChannels); !errors.Is(err, ErrInvalidChannelCount) {
		t.Fatalf("wrong channels: err = %v, want ErrInvalidChannelCount", err)
	}
	if err := s.Analyze(wrongChannels); !errors.Is(err, ErrInvalidChannelCount) {
		t.Fatalf("Analyze wrong channels: err = %v, want ErrInvalidChannelCount", err)
	}
}

func TestConfigValidation(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want error
	}{
		{"bad rate", Config{SampleRateHz: 44100, NumChannels: 1}, ErrUnsupportedSampleRate},
		{"zero channels", Config{SampleRateHz: 16000, NumChannels: 0}, ErrInvalidChannelCount},
		{"too many channels", Config{SampleRateHz: 16000, NumChannels: 9}, ErrInvalidChannelCount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.cfg); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
	if _, err := New(Config{SampleRateHz: 16000, NumChannels: 1, Level: SuppressionLevel(9)}); err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestProcessDoesNotAllocate(t *testing.T) {
	s, f := newTestSuppressor(t, 48000, 2, Moderate12dB)
	frameLen := f.NumFrames() * f.NumChannels()
	in := testutil.WhiteNoise(41, 1000, frameLen)
	buf := make([]float64, frameLen)

	// Warm up lazy state before measuring.
	for i := 0; i < 5; i++ {
		if err := f.CopyFromInterleaved(in); err != nil {
			t.Fatalf("CopyFromInterleaved: %v", err)
		}
		if err := s.Process(f); err != nil {
			t.Fatalf("Process: %v", err)
		}
	}

	allocs := testing.AllocsPerRun(20, func() {
		if err := f.CopyFromInterleaved(in); err != nil {
			t.Fatal(err)
		}
		if err := s.Process(f); err != nil {
			t.Fatal(err)
		}
		if err := f.CopyToInterleaved(buf); err != nil {
			t.Fatal(err)
		}
	})
	if allocs != 0 {
		t.Fatalf("Process allocates %v times per frame", allocs)
	}
}

func TestLearningPhaseEnds(t *testing.T) {
	s, f := newTestSuppressor(t, 16000, 1, Moderate12dB)
	for _, c := range s.channels {
		if !c.noise.Initializing() {
			t.Fatal("fresh suppressor not in the learning phase")
		}
	}
	in := testutil.WhiteNoise(23, 1000, 300*160)
	processAll(t, s, f, in)
	for _, c := range s.channels {
		if c.noise.Initializing() {
			t.Fatal("noise estimator still learning after 300 frames")
		}
	}
}
