package memory

// MBC2Controller implements MBC2 (§4.7): simple ROM banking plus 512x4-bit
// built-in RAM, discriminated from ROM bank writes by address bit 8 of the
// write address.
type MBC2Controller struct {
	rom []byte
	ram [512]byte // only the low nibble of each byte is meaningful

	romBank    uint8
	ramEnabled bool
	hasBattery bool
}

func NewMBC2(rom []byte, hasBattery bool) *MBC2Controller {
	return &MBC2Controller{rom: rom, romBank: 1, hasBattery: hasBattery}
}

func (m *MBC2Controller) Read(a uint16) byte {
	switch {
	case a <= 0x3FFF:
		return m.romAt(0, a)
	case a >= 0x4000 && a <= 0x7FFF:
		return m.romAt(int(m.romBank), a-0x4000)
	case a >= 0xA000 && a <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		return m.ram[int(a-0xA000)%512] | 0xF0
	default:
		return 0xFF
	}
}

func (m *MBC2Controller) romAt(bank int, offsetInBank uint16) byte {
	if len(m.rom) == 0 {
		return 0xFF
	}
	addr := bank*0x4000 + int(offsetInBank)
	return m.rom[addr%len(m.rom)]
}

func (m *MBC2Controller) Write(a uint16, v byte) {
	switch {
	case a <= 0x3FFF:
		// Address bit 8 discriminates RAM-enable (0) from ROM bank (1).
		if a&0x0100 == 0 {
			m.ramEnabled = v&0x0F == 0x0A
		} else {
			bank := v & 0x0F
			if bank == 0 {
				bank = 1
			}
			m.romBank = bank
		}
	case a >= 0xA000 && a <= 0xBFFF:
		if !m.ramEnabled {
			return
		}
		m.ram[int(a-0xA000)%512] = v & 0x0F
	}
}

func (m *MBC2Controller) RAM() []byte {
	if !m.hasBattery {
		return nil
	}
	return m.ram[:]
}

func (m *MBC2Controller) LoadRAM(data []byte) { copy(m.ram[:], data) }
