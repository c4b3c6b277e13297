package chain_test

import (
	"fmt"

	"github.com/cwbudde/algo-headfx/dsp/chain"
)

func Example() {
	c := chain.New()

	// Shape the sound: gentle crossfeed, a bass shelf, and a protective
	// limiter at the end of the pipeline.
	c.SetCrossfeedParams(true, 0.15)
	c.SetEqEnabled(true)
	c.SetEqBand(0, 4.5)
	c.SetLimiterEnabled(true)
	c.SetLimiterParams(-0.1, 20, 0.1, 100, 0)

	// One block of interleaved stereo from the host's audio callback.
	block := make([]float32, 480*2)
	for i := range block {
		block[i] = 0.25
	}

	c.ProcessFloat(block, 0, 0, 48000)

	fmt.Println(len(block))
	// Output: 960
}
