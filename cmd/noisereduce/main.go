// Command noisereduce removes stationary background noise from a WAV file.
//
// Usage:
//
//	noisereduce [flags] INPUT.wav [OUTPUT.wav]
//
// Without an output path the result is written next to the input with an
// "_out" suffix. The file is processed in 10 ms frames, exactly as a
// streaming caller would feed the suppressor.
//
// Examples:
//
//	noisereduce speech.wav
//	noisereduce -level high speech.wav cleaned.wav
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-ns/audiobuf"
	"github.com/cwbudde/algo-ns/ns"
)

var levels = map[string]ns.SuppressionLevel{
	"low":      ns.Low6dB,
	"moderate": ns.Moderate12dB,
	"high":     ns.High18dB,
	"veryhigh": ns.VeryHigh21dB,
}

func main() {
	levelName := flag.String("level", "moderate", "suppression level: low, moderate, high, veryhigh")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: noisereduce [flags] INPUT.wav [OUTPUT.wav]\n\n")
		fmt.Fprintf(os.Stderr, "Removes stationary background noise from a WAV file.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 || len(args) > 2 {
		flag.Usage()
		os.Exit(2)
	}
	level, ok := levels[strings.ToLower(*levelName)]
	if !ok {
		fmt.Fprintf(os.Stderr, "error: unknown level %q\n", *levelName)
		os.Exit(2)
	}

	inPath := args[0]
	outPath := defaultOutputPath(inPath)
	if len(args) == 2 {
		outPath = args[1]
	}

	if err := run(inPath, outPath, level); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// defaultOutputPath derives "name_out.wav" from "name.wav".
func defaultOutputPath(inPath string) string {
	ext := filepath.Ext(inPath)
	return strings.TrimSuffix(inPath, ext) + "_out" + ext
}

func run(inPath, outPath string, level ns.SuppressionLevel) error {
	buf, err := readWAV(inPath)
	if err != nil {
		return err
	}
	rate := buf.Format.SampleRate
	channels := buf.Format.NumChannels

	sup, err := ns.New(ns.Config{
		SampleRateHz: rate,
		NumChannels:  channels,
		Level:        level,
	})
	if err != nil {
		return err
	}
	frame, err := audiobuf.NewFrame(rate, channels)
	if err != nil {
		return err
	}

	frameLen := frame.NumFrames() * channels
	numFrames := len(buf.Data) / frameLen
	scratch := make([]float64, frameLen)

	fmt.Printf("%s: %d Hz, %d channel(s), %d frames, level %s\n",
		filepath.Base(inPath), rate, channels, numFrames, level)

	start := time.Now()
	for i := 0; i < numFrames; i++ {
		chunk := buf.Data[i*frameLen : (i+1)*frameLen]
		for j, v := range chunk {
			scratch[j] = float64(v)
		}
		if err := frame.CopyFromInterleaved(scratch); err != nil {
			return err
		}
		if err := sup.Analyze(frame); err != nil {
			return err
		}
		if err := sup.Process(frame); err != nil {
			return err
		}
		if err := frame.CopyToInterleaved(scratch); err != nil {
			return err
		}
		for j, v := range scratch {
			chunk[j] = saturate16(v)
		}
	}
	elapsed := time.Since(start)

	// Trailing samples that do not fill a 10 ms frame pass through as is.
	if err := writeWAV(outPath, buf); err != nil {
		return err
	}

	audioSeconds := float64(numFrames) / 100
	fmt.Printf("%s: %.2f s of audio in %v (%.1fx realtime)\n",
		filepath.Base(outPath), audioSeconds, elapsed.Round(time.Millisecond),
		audioSeconds/elapsed.Seconds())
	return nil
}

func readWAV(path string) (*audio.IntBuffer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%s: not a valid WAV file", path)
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read PCM data: %w", err)
	}
	if decoder.BitDepth != 16 {
		return nil, fmt.Errorf("%s: %d-bit samples, want 16-bit PCM", path, decoder.BitDepth)
	}
	return buf, nil
}

func writeWAV(path string, buf *audio.IntBuffer) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	encoder := wav.NewEncoder(out, buf.Format.SampleRate, 16, buf.Format.NumChannels, 1)
	if err := encoder.Write(buf); err != nil {
		return fmt.Errorf("write PCM data: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("finalize output: %w", err)
	}
	return nil
}

func saturate16(v float64) int {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	if v >= 0 {
		return int(v + 0.5)
	}
	return int(v - 0.5)
}
