package memory

// rtcRegisters holds MBC3's five real-time-clock registers plus the
// latched copy software actually reads (§4.7).
type rtcRegisters struct {
	seconds, minutes, hours byte
	dayLow, dayHigh         byte // dayHigh bit0 = day counter bit 8, bit6 = halt, bit7 = carry
}

// MBC3Controller implements MBC3 (§4.7): MBC1-like banking (without MBC1's
// mode-dependent quirks) plus an optional real-time clock.
type MBC3Controller struct {
	rom []byte
	ram []byte

	romBank    uint8
	ramRTCSel  uint8 // 0-3 selects a RAM bank, 0x08-0x0C selects an RTC register
	ramEnabled bool
	hasBattery bool
	hasRTC     bool

	rtc       rtcRegisters
	latched   rtcRegisters
	latchStep uint8 // tracks the 0-then-1 write sequence to 0x6000-0x7FFF
	now       func() int64
}

// NewMBC3 creates an MBC3 controller. now is stored but not read by the
// controller; the RTC advances only through TickRTC, and tests typically
// pass nil and drive the RTC registers directly.
func NewMBC3(rom []byte, ramBankCount uint8, hasBattery, hasRTC bool, now func() int64) *MBC3Controller {
	return &MBC3Controller{
		rom:        rom,
		ram:        make([]byte, int(ramBankCount)*0x2000),
		romBank:    1,
		hasBattery: hasBattery,
		hasRTC:     hasRTC,
		now:        now,
	}
}

func (m *MBC3Controller) romAt(bank int, offsetInBank uint16) byte {
	if len(m.rom) == 0 {
		return 0xFF
	}
	addr := bank*0x4000 + int(offsetInBank)
	return m.rom[addr%len(m.rom)]
}

func (m *MBC3Controller) Read(a uint16) byte {
	switch {
	case a <= 0x3FFF:
		return m.romAt(0, a)
	case a >= 0x4000 && a <= 0x7FFF:
		bank := int(m.romBank)
		if bank == 0 {
			bank = 1
		}
		return m.romAt(bank, a-0x4000)
	case a >= 0xA000 && a <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		if m.hasRTC && m.ramRTCSel >= 0x08 && m.ramRTCSel <= 0x0C {
			return m.readRTC(m.ramRTCSel)
		}
		if len(m.ram) == 0 {
			return 0xFF
		}
		off := int(m.ramRTCSel)*0x2000 + int(a-0xA000)
		return m.ram[off%len(m.ram)]
	default:
		return 0xFF
	}
}

func (m *MBC3Controller) readRTC(sel uint8) byte {
	switch sel {
	case 0x08:
		return m.latched.seconds
	case 0x09:
		return m.latched.minutes
	case 0x0A:
		return m.latched.hours
	case 0x0B:
		return m.latched.dayLow
	case 0x0C:
		return m.latched.dayHigh
	}
	return 0xFF
}

func (m *MBC3Controller) Write(a uint16, v byte) {
	switch {
	case a <= 0x1FFF:
		m.ramEnabled = v&0x0F == 0x0A
	case a >= 0x2000 && a <= 0x3FFF:
		bank := v & 0x7F
		if bank == 0 {
			bank = 1
		}
		m.romBank = bank
	case a >= 0x4000 && a <= 0x5FFF:
		m.ramRTCSel = v
	case a >= 0x6000 && a <= 0x7FFF:
		// Latch sequence: write 0 then 1 copies live RTC registers into
		// the readable latched snapshot (§4.7).
		if v == 0 {
			m.latchStep = 1
		} else if v == 1 && m.latchStep == 1 {
			m.latched = m.rtc
			m.latchStep = 0
		} else {
			m.latchStep = 0
		}
	case a >= 0xA000 && a <= 0xBFFF:
		if !m.ramEnabled {
			return
		}
		if m.hasRTC && m.ramRTCSel >= 0x08 && m.ramRTCSel <= 0x0C {
			m.writeRTC(m.ramRTCSel, v)
			return
		}
		if len(m.ram) == 0 {
			return
		}
		off := int(m.ramRTCSel)*0x2000 + int(a-0xA000)
		m.ram[off%len(m.ram)] = v
	}
}

func (m *MBC3Controller) writeRTC(sel, v uint8) {
	switch sel {
	case 0x08:
		m.rtc.seconds = v
	case 0x09:
		m.rtc.minutes = v
	case 0x0A:
		m.rtc.hours = v
	case 0x0B:
		m.rtc.dayLow = v
	case 0x0C:
		m.rtc.dayHigh = v
	}
}

// TickRTC advances the live (unlatched) RTC registers by elapsed wall-clock
// seconds, when the cartridge has an RTC and the clock isn't halted
// (dayHigh bit 6).
func (m *MBC3Controller) TickRTC(seconds int64) {
	if !m.hasRTC || m.rtc.dayHigh&0x40 != 0 {
		return
	}
	for ; seconds > 0; seconds-- {
		m.rtc.seconds++
		if m.rtc.seconds < 60 {
			continue
		}
		m.rtc.seconds = 0
		m.rtc.minutes++
		if m.rtc.minutes < 60 {
			continue
		}
		m.rtc.minutes = 0
		m.rtc.hours++
		if m.rtc.hours < 24 {
			continue
		}
		m.rtc.hours = 0
		day := uint16(m.rtc.dayLow) | uint16(m.rtc.dayHigh&0x01)<<8
		day++
		if day > 0x1FF {
			day = 0
			m.rtc.dayHigh |= 0x80 // carry flag
		}
		m.rtc.dayLow = byte(day)
		m.rtc.dayHigh = m.rtc.dayHigh&0xFE | byte(day>>8)
	}
}

func (m *MBC3Controller) RAM() []byte {
	if !m.hasBattery {
		return nil
	}
	return m.ram
}

func (m *MBC3Controller) LoadRAM(data []byte) { copy(m.ram, data) }
