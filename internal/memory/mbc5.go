package memory

// MBC5Controller implements MBC5 (§4.7): a 9-bit ROM bank split across two
// write ranges (low 8 bits at 0x2000-0x2FFF, bit 8 at 0x3000-0x3FFF) and a
// 4-bit RAM bank, the first MBC to support bank 0 on the switchable window.
type MBC5Controller struct {
	rom []byte
	ram []byte

	romBankLow  uint8
	romBankHigh uint8 // only bit 0 meaningful
	ramBank     uint8 // 4 bits
	ramEnabled  bool
	hasBattery  bool
	hasRumble   bool
}

func NewMBC5(rom []byte, ramBankCount uint8, hasBattery, hasRumble bool) *MBC5Controller {
	return &MBC5Controller{
		rom:         rom,
		ram:         make([]byte, int(ramBankCount)*0x2000),
		romBankLow:  1,
		hasBattery:  hasBattery,
		hasRumble:   hasRumble,
	}
}

func (m *MBC5Controller) romBank() int {
	return int(m.romBankHigh&0x01)<<8 | int(m.romBankLow)
}

func (m *MBC5Controller) romAt(bank int, offsetInBank uint16) byte {
	if len(m.rom) == 0 {
		return 0xFF
	}
	addr := bank*0x4000 + int(offsetInBank)
	return m.rom[addr%len(m.rom)]
}

func (m *MBC5Controller) Read(a uint16) byte {
	switch {
	case a <= 0x3FFF:
		return m.romAt(0, a)
	case a >= 0x4000 && a <= 0x7FFF:
		return m.romAt(m.romBank(), a-0x4000)
	case a >= 0xA000 && a <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		off := int(m.ramBank&0x0F)*0x2000 + int(a-0xA000)
		return m.ram[off%len(m.ram)]
	default:
		return 0xFF
	}
}

func (m *MBC5Controller) Write(a uint16, v byte) {
	switch {
	case a <= 0x1FFF:
		m.ramEnabled = v&0x0F == 0x0A
	case a >= 0x2000 && a <= 0x2FFF:
		m.romBankLow = v
	case a >= 0x3000 && a <= 0x3FFF:
		m.romBankHigh = v & 0x01
	case a >= 0x4000 && a <= 0x5FFF:
		// The rumble motor, when present, is wired to bit 3 of this
		// register rather than being a genuine RAM bank bit (§4.7).
		if m.hasRumble {
			m.ramBank = v & 0x07
		} else {
			m.ramBank = v & 0x0F
		}
	case a >= 0xA000 && a <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return
		}
		off := int(m.ramBank&0x0F)*0x2000 + int(a-0xA000)
		m.ram[off%len(m.ram)] = v
	}
}

func (m *MBC5Controller) RAM() []byte {
	if !m.hasBattery {
		return nil
	}
	return m.ram
}

func (m *MBC5Controller) LoadRAM(data []byte) { copy(m.ram, data) }
