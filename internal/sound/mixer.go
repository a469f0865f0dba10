package sound

// sampleUnit converts the raw per-channel amplitude sum (each channel
// contributes roughly ±15 before envelope/panning) into the unit range a
// float32 PCM sink expects: about two channels at full volume fill the unit
// range, and louder sums are clamped to [-1, 1] by normalizeSample.
const sampleUnit = 1.0 / 30.0

// mixIntoFrameBuffer folds the cycles just advanced into the running
// left/right accumulators and, once enough cycles have passed for one host
// sample period, drains a normalized stereo frame into frameBuffer.
func (a *APU) mixIntoFrameBuffer(cycles int) {
	if a.sampleRate <= 0 || a.cyclesPerSample == 0 {
		return
	}

	a.sampleCycleAcc += float64(cycles)
	if a.sampleCycleAcc < a.cyclesPerSample {
		return
	}
	a.sampleCycleAcc -= a.cyclesPerSample

	left, right := a.drainMixedFrame()
	a.frameBuffer = append(a.frameBuffer, left, right)
}

func (a *APU) drainMixedFrame() (left, right float32) {
	if a.mixAccumCycles == 0 {
		return 0, 0
	}

	leftAvg := a.mixAccumLeft / float64(a.mixAccumCycles)
	rightAvg := a.mixAccumRight / float64(a.mixAccumCycles)

	left = normalizeSample(leftAvg, a.volLeft)
	right = normalizeSample(rightAvg, a.volRight)

	a.mixAccumLeft = 0
	a.mixAccumRight = 0
	a.mixAccumCycles = 0

	return left, right
}

// normalizeSample applies the NR50 master volume gain (0-7 maps to 1/8
// through 8/8) and clamps the result to the [-1, 1] range a float32 PCM
// frame must stay within.
func normalizeSample(avg float64, masterVol uint8) float32 {
	gain := float64(masterVol+1) / 8.0
	value := float32(avg * gain * sampleUnit)
	switch {
	case value > 1.0:
		return 1.0
	case value < -1.0:
		return -1.0
	default:
		return value
	}
}

// GetSamples returns up to count interleaved stereo float32 frames
// (left, right, left, right, ...), zero-padding if fewer are buffered.
func (a *APU) GetSamples(count int) []float32 {
	if count <= 0 {
		return nil
	}

	needed := count * 2
	available := len(a.frameBuffer) - a.frameCursor
	if available <= 0 {
		return make([]float32, needed)
	}

	out := make([]float32, needed)
	toCopy := min(available, needed)
	copy(out, a.frameBuffer[a.frameCursor:a.frameCursor+toCopy])
	a.frameCursor += toCopy

	if a.frameCursor >= len(a.frameBuffer) {
		a.frameBuffer = a.frameBuffer[:0]
		a.frameCursor = 0
	}

	return out
}
