// Command headfx runs the headphone processing chain over an audio file.
//
// Usage:
//
//	headfx -in music.wav -out processed.wav -crossfeed 0.15 -limit
//	headfx -in music.mp3 -eq "0=4.5,5=-2" -play
//	headfx -in music.ogg -spatial -azimuth 0.8 -out wide.wav
//	headfx -in raw.pcm -waveform 80
//
// Input formats: WAV, MP3, Ogg Vorbis (-waveform expects raw mono PCM16).
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cwbudde/algo-vecmath"
	"github.com/ebitengine/oto/v3"

	"github.com/cwbudde/algo-headfx/audio"
	"github.com/cwbudde/algo-headfx/dsp/chain"
	"github.com/cwbudde/algo-headfx/dsp/effects/pitch"
	"github.com/cwbudde/algo-headfx/dsp/spectrum"
	"github.com/cwbudde/algo-headfx/waveform"
)

var logger = log.New(os.Stderr, "headfx: ", 0)

func main() {
	var (
		inPath  = flag.String("in", "", "input file (wav/mp3/ogg)")
		outPath = flag.String("out", "processed.wav", "output WAV file")
		play    = flag.Bool("play", false, "play instead of writing a file")
		block   = flag.Int("block", 1024, "frames per processing block")

		crossfeedStrength = flag.Float64("crossfeed", 0, "crossfeed strength in [0,1]; 0 disables")
		eqSpec            = flag.String("eq", "", "band gains as idx=dB pairs, e.g. \"0=4.5,5=-2\"")

		spatial   = flag.Bool("spatial", false, "enable the binaural spatializer")
		azimuth   = flag.Float64("azimuth", 0, "source azimuth in radians (positive = right)")
		elevation = flag.Float64("elevation", 0, "source elevation in radians")

		limit       = flag.Bool("limit", false, "enable the lookahead limiter")
		thresholdDB = flag.Float64("threshold", -0.1, "limiter threshold in dB")
		ratio       = flag.Float64("ratio", 20, "limiter ratio")
		attackMs    = flag.Float64("attack", 0.1, "limiter attack in ms")
		releaseMs   = flag.Float64("release", 100, "limiter release in ms")
		makeupDB    = flag.Float64("makeup", 0, "limiter makeup gain in dB")
		balance     = flag.Float64("balance", 0, "stereo balance in [-1,1]")

		pitchRatio = flag.Float64("pitch", 1, "pitch ratio applied after the chain")

		waveformPoints = flag.Int("waveform", 0, "print N scrub peaks of a raw PCM16 file and exit")
		showSpectrum   = flag.Bool("spectrum", false, "print output levels at the EQ band centers")
	)
	flag.Parse()

	if *inPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if *waveformPoints > 0 {
		if err := printWaveform(*inPath, *waveformPoints); err != nil {
			logger.Fatal(err)
		}
		return
	}

	c := chain.New()
	c.SetCrossfeedParams(*crossfeedStrength > 0, *crossfeedStrength)
	c.SetSpatializerEnabled(*spatial)
	c.SetLimiterEnabled(*limit)
	c.SetLimiterParams(*thresholdDB, *ratio, *attackMs, *releaseMs, *makeupDB)
	c.SetLimiterBalance(*balance)

	if *eqSpec != "" {
		c.SetEqEnabled(true)
		if err := applyEQSpec(c, *eqSpec); err != nil {
			logger.Fatal(err)
		}
	}

	src, err := audio.OpenFile(*inPath)
	if err != nil {
		logger.Fatal(err)
	}
	defer src.Close()

	c.SetPitchRatio(*pitchRatio, src.SampleRate())

	processed, err := processAll(c, src, *block, float32(*azimuth), float32(*elevation))
	if err != nil {
		logger.Fatal(err)
	}

	logger.Printf("%s: %d Hz, %d ch, %d frames, peak %.3f",
		*inPath, src.SampleRate(), src.Channels(),
		len(processed)/src.Channels(), peakOf(processed))

	if *showSpectrum {
		printSpectrum(processed, src.Channels(), float64(src.SampleRate()))
	}

	if *play {
		err = playPCM16(processed, src.SampleRate(), src.Channels())
	} else {
		err = writeWAV(*outPath, processed, src.SampleRate(), src.Channels())
	}
	if err != nil {
		logger.Fatal(err)
	}
}

// applyEQSpec parses "idx=dB" pairs and forwards them to the chain.
func applyEQSpec(c *chain.Chain, spec string) error {
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		idx, gain, ok := strings.Cut(part, "=")
		if !ok {
			return fmt.Errorf("bad EQ entry %q, want idx=dB", part)
		}

		band, err := strconv.Atoi(strings.TrimSpace(idx))
		if err != nil {
			return fmt.Errorf("bad EQ band %q: %w", idx, err)
		}

		db, err := strconv.ParseFloat(strings.TrimSpace(gain), 64)
		if err != nil {
			return fmt.Errorf("bad EQ gain %q: %w", gain, err)
		}

		c.SetEqBand(band, db)
	}

	return nil
}

// processAll streams the source through the chain block by block and
// returns the processed interleaved PCM16 samples.
func processAll(c *chain.Chain, src audio.Source, blockFrames int, azimuth, elevation float32) ([]int16, error) {
	if blockFrames <= 0 {
		blockFrames = 1024
	}

	channels := src.Channels()
	rate := src.SampleRate()

	floats := make([]float32, blockFrames*channels)
	ints := make([]int16, blockFrames*channels)

	var out []int16

	for {
		n, err := src.ReadSamples(floats)
		if n > 0 {
			frames := n / channels
			for i := 0; i < frames*channels; i++ {
				v := floats[i]
				if v > 1 {
					v = 1
				}
				if v < -1 {
					v = -1
				}
				ints[i] = int16(v * 32767)
			}

			c.ProcessPCM16(ints[:frames*channels], frames, channels, rate, azimuth, elevation)
			out = append(out, ints[:frames*channels]...)
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
	}

	if p := c.Pitch(); p.Enabled() {
		shiftPitch(p, out, channels)
	}

	return out, nil
}

// shiftPitch runs the standalone pitch stage over the processed stream.
func shiftPitch(p *pitch.Shifter, samples []int16, channels int) {
	buf := make([]float64, len(samples))
	for i, s := range samples {
		buf[i] = float64(s) / 32768.0
	}

	p.Process(buf, len(samples)/channels, channels)

	for i, v := range buf {
		if v > 1 {
			v = 1
		}
		if v < -1 {
			v = -1
		}
		samples[i] = int16(v * 32767)
	}
}

func peakOf(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}

	buf := make([]float64, len(samples))
	for i, s := range samples {
		buf[i] = float64(s) / 32768.0
	}

	return vecmath.MaxAbs(buf)
}

// printSpectrum reports output level at each EQ band center frequency.
func printSpectrum(samples []int16, channels int, sampleRate float64) {
	const fftSize = 4096

	frames := len(samples) / channels
	if frames < fftSize {
		logger.Printf("spectrum: need at least %d frames, have %d", fftSize, frames)
		return
	}

	a, err := spectrum.NewAnalyzer(fftSize)
	if err != nil {
		logger.Printf("spectrum: %v", err)
		return
	}

	// Analyze a mono mixdown of the final fftSize frames.
	mono := make([]float64, fftSize)
	start := frames - fftSize
	for i := 0; i < fftSize; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += float64(samples[(start+i)*channels+ch]) / 32768.0
		}
		mono[i] = sum / float64(channels)
	}

	mags := a.Magnitudes(mono)
	for _, freq := range []float64{31, 62, 125, 250, 500, 1000, 2000, 4000, 8000, 16000} {
		level := a.LevelAround(mags, freq, sampleRate, 2)
		fmt.Printf("%7.0f Hz  %10.6f\n", freq, level)
	}
}

func printWaveform(path string, points int) error {
	peaks, err := waveform.Extract(path, points)
	if err != nil {
		return err
	}

	for i, p := range peaks {
		fmt.Printf("%4d %.4f\n", i, p)
	}

	return nil
}

func writeWAV(path string, samples []int16, sampleRate, channels int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := audio.WriteWAV16(f, sampleRate, channels, samples); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// playPCM16 plays the processed stream through the default output device.
func playPCM16(samples []int16, sampleRate, channels int) error {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("audio output: %w", err)
	}
	<-ready

	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		data[2*i] = byte(uint16(s))
		data[2*i+1] = byte(uint16(s) >> 8)
	}

	player := ctx.NewPlayer(bytes.NewReader(data))
	player.Play()

	for player.IsPlaying() {
		time.Sleep(50 * time.Millisecond)
	}

	return player.Close()
}
