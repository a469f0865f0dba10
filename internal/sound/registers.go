package sound

import (
	"github.com/zxcodes/gbcore/internal/addr"
	"github.com/zxcodes/gbcore/internal/bit"
)

// ReadRegister returns the masked value of a sound register. Write-only
// and unused bits always read as 1.
func (a *APU) ReadRegister(address uint16) uint8 {
	switch address {
	case addr.NR10:
		return a.NR10 | 0b1000_0000
	case addr.NR11:
		return a.NR11 | 0b0011_1111
	case addr.NR12:
		return a.NR12
	case addr.NR13:
		return 0xFF
	case addr.NR14:
		return a.NR14 | 0b1011_1111
	case addr.NR21:
		return a.NR21 | 0b0011_1111
	case addr.NR22:
		return a.NR22
	case addr.NR23:
		return 0xFF
	case addr.NR24:
		return a.NR24 | 0b1011_1111
	case addr.NR30:
		return a.NR30 | 0b0111_1111
	case addr.NR31:
		return 0xFF
	case addr.NR32:
		return a.NR32 | 0b1001_1111
	case addr.NR33:
		return 0xFF
	case addr.NR34:
		return a.NR34 | 0b1011_1111
	case addr.NR41:
		return 0xFF
	case addr.NR42:
		return a.NR42
	case addr.NR43:
		return a.NR43
	case addr.NR44:
		return a.NR44 | 0b1011_1111
	case addr.NR50:
		return a.NR50
	case addr.NR51:
		return a.NR51
	case addr.NR52:
		status := uint8(0b0111_0000)
		if a.enabled {
			status = bit.Set(7, status)
		}
		for i := range a.channels {
			if a.channels[i].enabled {
				status = bit.Set(uint8(i), status)
			}
		}
		return status
	}
	if address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd {
		if a.waveRAMLocked() {
			return a.channels[2].waveLatch
		}
		return a.waveRAM[address-addr.WaveRAMStart]
	}
	return 0xFF
}

// WriteRegister stores the raw register byte, applies the wave RAM
// read/write redirect while channel 3 is active, then re-derives every
// channel's runtime state from the registers.
func (a *APU) WriteRegister(address uint16, value uint8) {
	isWaveRAM := address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd

	if !a.enabled && address != addr.NR52 && !isWaveRAM {
		return
	}

	switch address {
	case addr.NR10:
		a.NR10 = value
	case addr.NR11:
		a.NR11 = value
		a.channels[0].lengthCounter = 64 - uint16(bit.ExtractBits(value, 5, 0))
	case addr.NR12:
		a.NR12 = value
		a.reloadEnvelope(&a.channels[0], value)
	case addr.NR13:
		a.NR13 = value
	case addr.NR14:
		a.NR14 = value
	case addr.NR21:
		a.NR21 = value
		a.channels[1].lengthCounter = 64 - uint16(bit.ExtractBits(value, 5, 0))
	case addr.NR22:
		a.NR22 = value
		a.reloadEnvelope(&a.channels[1], value)
	case addr.NR23:
		a.NR23 = value
	case addr.NR24:
		a.NR24 = value
	case addr.NR30:
		a.NR30 = value
	case addr.NR31:
		a.NR31 = value
		a.channels[2].lengthCounter = 256 - uint16(value)
	case addr.NR32:
		a.NR32 = value
	case addr.NR33:
		a.NR33 = value
	case addr.NR34:
		a.NR34 = value
	case addr.NR41:
		a.NR41 = value
		a.channels[3].lengthCounter = 64 - uint16(bit.ExtractBits(value, 5, 0))
	case addr.NR42:
		a.NR42 = value
		a.reloadEnvelope(&a.channels[3], value)
	case addr.NR43:
		a.NR43 = value
	case addr.NR44:
		a.NR44 = value
	case addr.NR50:
		a.NR50 = value
	case addr.NR51:
		a.NR51 = value
	case addr.NR52:
		a.NR52 = value
	}

	if isWaveRAM {
		if a.waveRAMLocked() {
			a.waveRAM[a.ch3CurrentByteIndex] = value
			a.channels[2].waveLatch = value
		} else {
			a.waveRAM[address-addr.WaveRAMStart] = value
		}
	}

	a.mapRegistersToState()
}

// reloadEnvelope applies the NRx2 envelope-period reload that happens on
// every write to a channel's volume/envelope register, independent of
// trigger.
func (a *APU) reloadEnvelope(ch *Channel, nrx2 uint8) {
	pace := bit.ExtractBits(nrx2, 2, 0)
	if pace == 0 {
		ch.envelopeCounter = 8
	} else {
		ch.envelopeCounter = pace
	}
	ch.envelopeLatched = false
}

// handleLengthEnableTransition centralizes the length-counter oddities
// around enabling length and triggering channels:
//   - enabling length in the second half of a sequencer period clocks once
//   - triggers reload length from zero before that clock
//   - a trigger after a clocked-to-zero reloads before the forced extra clock
//   - the extra clock also occurs while already enabled when a trigger
//     reloads from zero (the "force" path)
//
// Reference: https://gbdev.io/pandocs/Audio_details.html#obscure-behavior.
func (a *APU) handleLengthEnableTransition(prevEnabled bool, lengthBefore uint16, triggered bool, maxLength uint16, chIdx int) {
	ch := &a.channels[chIdx]
	lengthWasZero := lengthBefore == 0
	clockOnEnable := !prevEnabled && ch.lengthEnable && a.frameCounter%2 == 1 && lengthBefore > 0

	if triggered && (lengthWasZero || (clockOnEnable && lengthBefore == 1)) {
		ch.lengthCounter = maxLength
	}

	if !ch.lengthEnable {
		return
	}

	forceClock := lengthWasZero && triggered && ch.lengthCounter > 0
	if !forceClock && prevEnabled {
		return
	}

	if a.frameCounter%2 == 1 && ch.lengthCounter > 0 {
		ch.lengthCounter--
		if ch.lengthCounter == 0 {
			ch.enabled = false
		}
	}
}

// mapRegistersToState re-derives every channel's runtime fields from the
// raw NRxx registers. Called after every register write so the generator
// and mixer stages never read stale derived state.
func (a *APU) mapRegistersToState() {
	a.enabled = bit.IsSet(7, a.NR52)

	if !a.enabled {
		a.NR10, a.NR11, a.NR12, a.NR13, a.NR14 = 0, 0, 0, 0, 0
		a.NR21, a.NR22, a.NR23, a.NR24 = 0, 0, 0, 0
		a.NR30, a.NR31, a.NR32, a.NR33, a.NR34 = 0, 0, 0, 0, 0
		a.NR41, a.NR42, a.NR43, a.NR44 = 0, 0, 0, 0
		a.NR50, a.NR51 = 0, 0
		for i := range a.channels {
			a.channels[i].enabled = false
		}
	}

	for i := range a.channels {
		a.channels[i].right = bit.IsSet(uint8(i), a.NR51)
		a.channels[i].left = bit.IsSet(uint8(i+4), a.NR51)
	}

	a.vinLeft, a.vinRight = bit.IsSet(7, a.NR50), bit.IsSet(3, a.NR50)
	a.volLeft, a.volRight = bit.ExtractBits(a.NR50, 6, 4), bit.ExtractBits(a.NR50, 2, 0)

	a.mapChannel1()
	a.mapChannel2()
	a.mapChannel3()
	a.mapChannel4()

	for i := range a.channels {
		if !a.channels[i].dacEnabled {
			a.channels[i].enabled = false
		}
	}
}

func (a *APU) mapChannel1() {
	ch := &a.channels[0]

	prevSweepDown := ch.sweepDown
	ch.sweepPeriod = bit.ExtractBits(a.NR10, 6, 4)
	ch.sweepDown = bit.IsSet(3, a.NR10)
	ch.sweepStep = bit.ExtractBits(a.NR10, 2, 0)
	if !ch.sweepDown && prevSweepDown && ch.sweepNegUsed && (ch.sweepPeriod > 0 || ch.sweepStep > 0) {
		// Switching sweep from subtract to add after a subtract
		// calculation disables CH1 immediately.
		ch.enabled = false
	}

	ch.duty = bit.ExtractBits(a.NR11, 7, 6)
	ch.initialLength = bit.ExtractBits(a.NR11, 5, 0)

	ch.volume = bit.ExtractBits(a.NR12, 7, 4)
	ch.envelopeUp = bit.IsSet(3, a.NR12)
	ch.envelopePace = bit.ExtractBits(a.NR12, 2, 0)
	ch.dacEnabled = ch.volume > 0 || ch.envelopeUp

	ch.freq = bit.Combine(a.NR14&0b111, a.NR13)

	prevLenEnable := ch.lengthEnable
	lengthBefore := ch.lengthCounter
	triggered := bit.IsSet(7, a.NR14)
	ch.lengthEnable = bit.IsSet(6, a.NR14)
	ch.trigger = triggered
	if ch.trigger {
		if ch.dacEnabled {
			ch.enabled = true
		}
		ch.envelopeLatched = false
		if ch.envelopePace == 0 {
			ch.envelopeCounter = 8
		} else {
			ch.envelopeCounter = ch.envelopePace
		}
		ch.dutyStep = 0
		ch.freqTimer = a.squarePeriod(ch)

		ch.sweepEnabled = ch.sweepPeriod > 0 || ch.sweepStep > 0
		ch.sweepTimer = ch.sweepPeriod
		if ch.sweepTimer == 0 {
			ch.sweepTimer = 8
		}
		ch.shadowFreq = ch.freq
		ch.sweepNegUsed = false

		if ch.sweepStep != 0 {
			if ch.sweepDown {
				ch.sweepNegUsed = true
			}
			if _, overflow := ch.calculateSweepFrequency(); overflow {
				ch.enabled = false
			}
		}

		a.NR14 = bit.Reset(7, a.NR14)
		ch.trigger = false
	}
	a.handleLengthEnableTransition(prevLenEnable, lengthBefore, triggered, 64, 0)
}

func (a *APU) mapChannel2() {
	ch := &a.channels[1]

	ch.duty = bit.ExtractBits(a.NR21, 7, 6)
	ch.initialLength = bit.ExtractBits(a.NR21, 5, 0)

	ch.volume = bit.ExtractBits(a.NR22, 7, 4)
	ch.envelopeUp = bit.IsSet(3, a.NR22)
	ch.envelopePace = bit.ExtractBits(a.NR22, 2, 0)
	ch.dacEnabled = ch.volume > 0 || ch.envelopeUp

	ch.freq = bit.Combine(a.NR24&0b111, a.NR23)

	prevLenEnable := ch.lengthEnable
	lengthBefore := ch.lengthCounter
	triggered := bit.IsSet(7, a.NR24)
	ch.lengthEnable = bit.IsSet(6, a.NR24)
	ch.trigger = triggered
	if ch.trigger {
		if ch.dacEnabled {
			ch.enabled = true
		}
		ch.envelopeLatched = false
		if ch.envelopePace == 0 {
			ch.envelopeCounter = 8
		} else {
			ch.envelopeCounter = ch.envelopePace
		}
		ch.dutyStep = 0
		ch.freqTimer = a.squarePeriod(ch)
		a.NR24 = bit.Reset(7, a.NR24)
		ch.trigger = false
	}
	a.handleLengthEnableTransition(prevLenEnable, lengthBefore, triggered, 64, 1)
}

func (a *APU) mapChannel3() {
	ch := &a.channels[2]

	ch.dacEnabled = bit.IsSet(7, a.NR30)
	ch.initialLength = a.NR31 // this register is a full byte, not 6 bits
	ch.volume = bit.ExtractBits(a.NR32, 6, 5)
	ch.freq = bit.Combine(a.NR34&0b111, a.NR33)

	prevLenEnable := ch.lengthEnable
	lengthBefore := ch.lengthCounter
	triggered := bit.IsSet(7, a.NR34)
	ch.lengthEnable = bit.IsSet(6, a.NR34)
	ch.trigger = triggered
	if ch.trigger {
		if ch.dacEnabled {
			ch.enabled = true
		}
		ch.freqTimer = a.wavePeriod(ch)
		ch.wavePos = 0
		a.ch3CurrentByteIndex = 0
		ch.waveLatch = a.waveRAM[0]
		a.NR34 = bit.Reset(7, a.NR34)
		ch.trigger = false
	}
	a.handleLengthEnableTransition(prevLenEnable, lengthBefore, triggered, 256, 2)
}

func (a *APU) mapChannel4() {
	ch := &a.channels[3]

	ch.initialLength = bit.ExtractBits(a.NR41, 5, 0)

	ch.volume = bit.ExtractBits(a.NR42, 7, 4)
	ch.envelopeUp = bit.IsSet(3, a.NR42)
	ch.envelopePace = bit.ExtractBits(a.NR42, 2, 0)

	ch.shift = bit.ExtractBits(a.NR43, 7, 4)
	ch.use7bitLFSR = bit.IsSet(3, a.NR43)
	ch.divider = bit.ExtractBits(a.NR43, 2, 0)
	ch.dacEnabled = ch.volume > 0 || ch.envelopeUp

	prevLenEnable := ch.lengthEnable
	lengthBefore := ch.lengthCounter
	triggered := bit.IsSet(7, a.NR44)
	ch.lengthEnable = bit.IsSet(6, a.NR44)
	ch.trigger = triggered
	if ch.trigger {
		if ch.dacEnabled {
			ch.enabled = true
		}
		ch.envelopeLatched = false
		if ch.envelopePace == 0 {
			ch.envelopeCounter = 8
		} else {
			ch.envelopeCounter = ch.envelopePace
		}
		ch.lfsr = 0x7FFF
		ch.noiseTimer = a.noisePeriod(ch)
		a.NR44 = bit.Reset(7, a.NR44)
		ch.trigger = false
	}
	a.handleLengthEnableTransition(prevLenEnable, lengthBefore, triggered, 64, 3)
}
