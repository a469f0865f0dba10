package sound

import (
	"github.com/zxcodes/gbcore/internal/timing"
)

// APU is the audio processing unit of a DMG Game Boy: four channels
// (two square, one wave, one noise) driven by a 512Hz frame sequencer and
// summed into a stereo float32 stream for the host sink.
type APU struct {
	enabled  bool
	channels [4]Channel

	vinLeft, vinRight bool
	volLeft, volRight uint8 // NR50 volume, 0 to 7
	vinSample         float32

	// mixer accumulators: raw channel levels weighted by the T-cycles they
	// held, averaged down to the host sample rate in mixIntoFrameBuffer.
	mixAccumLeft   float64
	mixAccumRight  float64
	mixAccumCycles int

	frameBuffer     []float32
	frameCursor     int
	sampleCycleAcc  float64
	cyclesPerSample float64
	sampleRate      int

	// frame sequencer: one step every 8192 T-cycles (512Hz)
	frameCounter int
	seqCycleAcc  int

	NR10, NR11, NR12, NR13, NR14 uint8 // Channel 1
	NR21, NR22, NR23, NR24       uint8 // Channel 2
	NR30, NR31, NR32, NR33, NR34 uint8 // Channel 3
	NR41, NR42, NR43, NR44       uint8 // Channel 4
	NR50, NR51, NR52             uint8 // Global controls
	waveRAM                      [waveRAMSize]uint8

	// ch3CurrentByteIndex tracks which wave RAM byte channel 3 is currently
	// playing, so CPU writes while the channel is active redirect to that
	// byte regardless of the addressed offset (Pan Docs: wave RAM corruption).
	ch3CurrentByteIndex uint8
}

func New() *APU {
	apu := &APU{sampleRate: 44100, NR52: 0x80, enabled: true}
	apu.cyclesPerSample = float64(timing.CPUFrequency) / float64(apu.sampleRate)
	return apu
}

// Tick advances the APU by cpu T-cycles: channel generators run first so
// the mixer sees this tick's amplitudes, then the 512Hz sequencer catches
// up on length/sweep/envelope.
func (a *APU) Tick(cycles int) {
	if !a.enabled {
		return
	}

	a.advanceChannels(cycles)

	a.seqCycleAcc += cycles
	for a.seqCycleAcc >= cyclesPerStep {
		a.seqCycleAcc -= cyclesPerStep
		a.advanceFrameSequencer()
	}
}

func (a *APU) advanceChannels(cycles int) {
	if cycles <= 0 {
		return
	}

	var left, right float64
	for i := range a.channels {
		ch := &a.channels[i]
		if !ch.enabled || !ch.dacEnabled || ch.muted {
			continue
		}

		var level float64
		switch i {
		case 0, 1:
			level = a.squareSample(ch, cycles)
		case 2:
			level = a.waveSample(ch, cycles)
		case 3:
			level = a.noiseSample(ch, cycles)
		}
		if level == 0 {
			continue
		}

		if ch.left {
			left += level
		}
		if ch.right {
			right += level
		}
	}
	if a.vinLeft {
		left += float64(a.vinSample)
	}
	if a.vinRight {
		right += float64(a.vinSample)
	}

	a.mixAccumLeft += left * float64(cycles)
	a.mixAccumRight += right * float64(cycles)
	a.mixAccumCycles += cycles
	a.mixIntoFrameBuffer(cycles)
}

// advanceFrameSequencer steps the 512Hz sequencer by one tick.
//
//	Step | Length (256Hz) | Sweep (128Hz) | Envelope (64Hz)
//	------------------------------------------------------
//	0    | yes            | -             | -
//	1    | -              | -             | -
//	2    | yes            | yes           | -
//	3    | -              | -             | -
//	4    | yes            | -             | -
//	5    | -              | -             | -
//	6    | yes            | yes           | -
//	7    | -              | -             | yes
func (a *APU) advanceFrameSequencer() {
	switch a.frameCounter {
	case 0:
		a.tickLength()
	case 2:
		a.tickLength()
		a.tickSweep()
	case 4:
		a.tickLength()
	case 6:
		a.tickLength()
		a.tickSweep()
	case 7:
		a.tickEnvelope()
	}

	a.frameCounter++
	a.frameCounter %= 8
}

func (a *APU) tickLength() {
	for i := range a.channels {
		ch := &a.channels[i]
		if ch.lengthEnable && ch.lengthCounter > 0 {
			ch.lengthCounter--
			if ch.lengthCounter == 0 {
				ch.enabled = false
			}
		}
	}
}

func (a *APU) tickSweep() {
	ch := &a.channels[0]
	if !ch.sweepEnabled {
		return
	}

	ch.sweepTimer--
	if ch.sweepTimer > 0 {
		return
	}

	ch.sweepTimer = ch.sweepPeriod
	if ch.sweepTimer == 0 {
		ch.sweepTimer = 8
	}

	if ch.sweepPeriod == 0 {
		return
	}

	newFreq, overflow := ch.checkSweepOverflow()
	if overflow {
		ch.enabled = false
		return
	}
	if ch.sweepDown {
		ch.sweepNegUsed = true
	}
	if ch.sweepStep == 0 {
		return
	}

	ch.shadowFreq = newFreq
	ch.freq = newFreq
	a.NR14 = (a.NR14 & 0b11111000) | uint8((newFreq>>8)&0b111)
	a.NR13 = uint8(newFreq)

	if _, overflow := ch.checkSweepOverflow(); overflow {
		ch.enabled = false
	}
}

func (a *APU) tickEnvelope() {
	for _, idx := range []int{0, 1, 3} {
		ch := &a.channels[idx]
		if !ch.dacEnabled || ch.envelopeLatched {
			continue
		}

		pace := ch.envelopePace
		if pace == 0 {
			pace = 8
		}

		if ch.envelopeCounter == 0 {
			ch.envelopeCounter = pace
		}
		ch.envelopeCounter--
		if ch.envelopeCounter > 0 {
			continue
		}

		if ch.envelopeUp {
			if ch.volume < 15 {
				ch.volume++
				ch.envelopeCounter = pace
			} else {
				ch.envelopeLatched = true
				ch.envelopeCounter = 0
			}
		} else {
			if ch.volume > 0 {
				ch.volume--
				ch.envelopeCounter = pace
			} else {
				ch.envelopeLatched = true
				ch.envelopeCounter = 0
			}
		}
	}
}

// waveRAMLocked reports whether the CPU's view of wave RAM is currently
// shadowed by channel 3's playback cursor (Pan Docs: Wave RAM access).
func (a *APU) waveRAMLocked() bool {
	return a.enabled && a.channels[2].enabled && a.channels[2].dacEnabled
}

// Debug helpers required by Provider.

// ToggleChannel toggles the mute state of a channel.
func (a *APU) ToggleChannel(idx int) {
	if idx < 0 || idx >= len(a.channels) {
		return
	}
	a.channels[idx].muted = !a.channels[idx].muted
}

// SoloChannel sets a channel to solo mode (only that channel is heard).
// Calling with the same channel again disables solo.
func (a *APU) SoloChannel(channel int) {
	if channel < 0 || channel >= len(a.channels) {
		return
	}

	if !a.channels[channel].muted {
		for i := range a.channels {
			a.channels[i].muted = false
		}
	}

	for i := range a.channels {
		a.channels[i].muted = i != channel
	}
}

// GetChannelStatus returns the enabled status of each channel.
func (a *APU) GetChannelStatus() (ch1, ch2, ch3, ch4 bool) {
	return a.channels[0].enabled, a.channels[1].enabled, a.channels[2].enabled, a.channels[3].enabled
}

// GetChannelVolumes returns the current envelope volume of each channel.
func (a *APU) GetChannelVolumes() (ch1, ch2, ch3, ch4 uint8) {
	return a.channels[0].volume, a.channels[1].volume, a.channels[2].volume, a.channels[3].volume
}
