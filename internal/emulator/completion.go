package emulator

import "github.com/zxcodes/gbcore/internal/util"

// completionDefaultMaxFrames is the frame cap RunUntilComplete uses when
// ConfigureCompletionDetection was never called; the early exit on
// repeated frame hashes still applies with the default minLoopCount.
const completionDefaultMaxFrames = 600

// ConfigureCompletionDetection arms RunUntilComplete to stop early once the
// rendered frame stops changing: test ROMs that print a fixed result screen
// and then loop forever never reach a defined "done" state on their own, so
// completion is inferred from minLoopCount consecutive frames hashing
// identical, or maxFrames elapsing, whichever comes first.
func (e *Emulator) ConfigureCompletionDetection(maxFrames uint64, minLoopCount int) {
	e.completionMaxFrames = maxFrames
	e.completionMinLoopCount = minLoopCount
}

// RunUntilComplete drives the emulator frame by frame until the completion
// condition configured by ConfigureCompletionDetection is met.
func (e *Emulator) RunUntilComplete() {
	maxFrames := e.completionMaxFrames
	if maxFrames == 0 {
		maxFrames = completionDefaultMaxFrames
	}
	minLoopCount := e.completionMinLoopCount
	if minLoopCount <= 0 {
		minLoopCount = 1
	}

	var lastHash uint32
	repeats := 0

	for frame := uint64(0); frame < maxFrames; frame++ {
		e.RunUntilFrame()

		hash := util.SuperFastHash(e.GetCurrentFrame().ToGrayscale())
		if hash == lastHash {
			repeats++
			if repeats >= minLoopCount {
				return
			}
		} else {
			repeats = 0
			lastHash = hash
		}
	}
}
