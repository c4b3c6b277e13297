package eq

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-headfx/dsp/spectrum"
	"github.com/cwbudde/algo-headfx/internal/testutil"
)

const testSR = 48000.0

func TestDisabledIsNoOp(t *testing.T) {
	e := New(testSR)
	e.SetBandGain(5, 12)

	buf := testutil.DeterministicSine(1000, testSR, 0.5, 256)
	want := append([]float64(nil), buf...)

	e.Process(buf, len(buf), 1)

	for i := range buf {
		if buf[i] != want[i] {
			t.Fatalf("sample %d changed while disabled", i)
		}
	}
}

func TestZeroGainIdentity(t *testing.T) {
	e := New(testSR)
	e.SetEnabled(true)

	buf := testutil.DeterministicSine(440, testSR, 0.8, 4096)
	want := append([]float64(nil), buf...)

	e.Process(buf, len(buf), 1)

	// Allow a two-sample settling transient, then require near-identity.
	testutil.RequireSliceNearlyEqual(t, buf[2:], want[2:], 1e-5)
}

func TestBandGainClamped(t *testing.T) {
	e := New(testSR)

	e.SetBandGain(3, 40)
	if got := e.BandGain(3); got != 15 {
		t.Fatalf("BandGain(3) = %v, want 15", got)
	}

	e.SetBandGain(3, -40)
	if got := e.BandGain(3); got != -15 {
		t.Fatalf("BandGain(3) = %v, want -15", got)
	}

	e.SetBandGain(3, math.NaN())
	if got := e.BandGain(3); got != 0 {
		t.Fatalf("BandGain(3) = %v for NaN, want 0", got)
	}
}

func TestOutOfRangeBandIgnored(t *testing.T) {
	e := New(testSR)

	e.SetBandGain(-1, 12)
	e.SetBandGain(BandCount, 12)

	for i := 0; i < BandCount; i++ {
		if g := e.BandGain(i); g != 0 {
			t.Fatalf("band %d gain = %v after out-of-range sets", i, g)
		}
	}

	if g := e.BandGain(99); g != 0 {
		t.Fatalf("BandGain(99) = %v, want 0", g)
	}
}

func TestBandFrequency(t *testing.T) {
	if got := BandFrequency(0); got != 31 {
		t.Fatalf("BandFrequency(0) = %v, want 31", got)
	}

	if got := BandFrequency(9); got != 16000 {
		t.Fatalf("BandFrequency(9) = %v, want 16000", got)
	}

	if got := BandFrequency(10); got != 0 {
		t.Fatalf("BandFrequency(10) = %v, want 0", got)
	}
}

func TestMidBandBoostShapesNoise(t *testing.T) {
	// S4: +12 dB on the 1 kHz band lifts 1 kHz energy at least 8 dB above
	// 125 Hz energy for white-noise input.
	e := New(testSR)
	e.SetEnabled(true)
	e.SetBandGain(5, 12)

	const n = 4096
	left := testutil.DeterministicNoise(1, 0.5, n)
	right := testutil.DeterministicNoise(2, 0.5, n)
	buf := testutil.StereoInterleave(left, right)

	e.Process(buf, n, 2)

	mono := make([]float64, n)
	for i := 0; i < n; i++ {
		mono[i] = 0.5 * (buf[2*i] + buf[2*i+1])
	}

	a, err := spectrum.NewAnalyzer(n)
	if err != nil {
		t.Fatal(err)
	}

	mags := a.Magnitudes(mono)
	at1k := a.LevelAround(mags, 1000, testSR, 4)
	at125 := a.LevelAround(mags, 125, testSR, 4)

	gapDB := 20 * math.Log10(at1k/at125)
	if gapDB < 8 {
		t.Fatalf("1 kHz vs 125 Hz gap = %.2f dB, want >= 8", gapDB)
	}
}

func TestSetSampleRateRetunesBands(t *testing.T) {
	e := New(44100)
	e.SetEnabled(true)
	e.SetBandGain(5, 12)

	e.SetSampleRate(testSR)

	// The retuned cascade must still boost 1 kHz: feed a sine, expect gain.
	buf := testutil.DeterministicSine(1000, testSR, 0.1, 48000)
	e.Process(buf, len(buf), 1)

	var sum float64
	for _, v := range buf[1000:] {
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(len(buf)-1000))
	inRMS := 0.1 / math.Sqrt2

	gainDB := 20 * math.Log10(rms/inRMS)
	if gainDB < 10 {
		t.Fatalf("1 kHz gain after retune = %.2f dB, want ~12", gainDB)
	}
}

func TestResetClearsState(t *testing.T) {
	e := New(testSR)
	e.SetEnabled(true)
	e.SetBandGain(0, 15)

	buf := testutil.DC(1, 512)
	e.Process(buf, len(buf), 1)

	e.Reset()

	zeros := make([]float64, 512)
	e.Process(zeros, len(zeros), 1)
	for i, v := range zeros {
		if v != 0 {
			t.Fatalf("sample %d = %v after reset, want 0", i, v)
		}
	}
}

func BenchmarkProcessStereoBlock(b *testing.B) {
	e := New(testSR)
	e.SetEnabled(true)
	for i := 0; i < BandCount; i++ {
		e.SetBandGain(i, float64(i-5))
	}

	buf := testutil.DeterministicSine(440, testSR, 0.5, 1024*2)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Process(buf, 1024, 2)
	}
}
