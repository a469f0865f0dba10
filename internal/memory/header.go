package memory

import (
	"fmt"
	"strings"
)

// MBCType identifies a cartridge's bank-controller variant (§3, §4.7).
type MBCType uint8

const (
	MBCNone MBCType = iota
	MBC1
	MBC1Multi
	MBC2
	MBC3
	MBC5
	MBCUnknown
)

func (t MBCType) String() string {
	switch t {
	case MBCNone:
		return "None"
	case MBC1:
		return "MBC1"
	case MBC1Multi:
		return "MBC1(multicart)"
	case MBC2:
		return "MBC2"
	case MBC3:
		return "MBC3"
	case MBC5:
		return "MBC5"
	default:
		return "Unknown"
	}
}

// Header is the parsed Nintendo cartridge header at 0x0100-0x014F (§6).
type Header struct {
	Title        string
	MBCType      MBCType
	HasBattery   bool
	HasRTC       bool
	HasRumble    bool
	ROMSizeBytes int
	RAMSizeBytes int
}

// ParseHeader reads the standard header fields out of rom. rom must be at
// least 0x150 bytes; callers should reject anything shorter before calling.
func ParseHeader(rom []byte) (Header, error) {
	if len(rom) < 0x150 {
		return Header{}, fmt.Errorf("ROM too short to contain a header: %d bytes", len(rom))
	}

	title := strings.TrimRight(string(rom[0x134:0x144]), "\x00")
	cartType := rom[0x147]
	romSizeCode := rom[0x148]
	ramSizeCode := rom[0x149]

	h := Header{Title: title}
	h.MBCType, h.HasBattery, h.HasRTC, h.HasRumble = classifyCartridgeType(cartType)
	h.ROMSizeBytes = romSizeFromCode(romSizeCode)
	h.RAMSizeBytes = ramSizeFromCode(ramSizeCode)

	return h, nil
}

func classifyCartridgeType(b byte) (mbc MBCType, battery, rtc, rumble bool) {
	switch b {
	case 0x00:
		return MBCNone, false, false, false
	case 0x08:
		return MBCNone, false, false, false
	case 0x09:
		return MBCNone, true, false, false
	case 0x01, 0x02:
		return MBC1, false, false, false
	case 0x03:
		return MBC1, true, false, false
	case 0x05:
		return MBC2, false, false, false
	case 0x06:
		return MBC2, true, false, false
	case 0x0F, 0x10:
		return MBC3, true, true, false
	case 0x11, 0x12:
		return MBC3, false, false, false
	case 0x13:
		return MBC3, true, false, false
	case 0x19, 0x1A:
		return MBC5, false, false, false
	case 0x1B:
		return MBC5, true, false, false
	case 0x1C, 0x1D:
		return MBC5, false, false, true
	case 0x1E:
		return MBC5, true, false, true
	default:
		return MBCUnknown, false, false, false
	}
}

func romSizeFromCode(code byte) int {
	if code > 8 {
		return 32 * 1024 // fall back to the smallest plausible size
	}
	return (32 * 1024) << code
}

func ramSizeFromCode(code byte) int {
	switch code {
	case 0x00:
		return 0
	case 0x01:
		return 2 * 1024
	case 0x02:
		return 8 * 1024
	case 0x03:
		return 32 * 1024
	case 0x04:
		return 128 * 1024
	case 0x05:
		return 64 * 1024
	default:
		return 0
	}
}
