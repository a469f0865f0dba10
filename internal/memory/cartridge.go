package memory

import (
	"github.com/zxcodes/gbcore/internal/util"
)

// Cartridge holds ROM bytes, the parsed header, and a stable ROM identity
// hash used to key battery-RAM and replay storage (§3, §6).
type Cartridge struct {
	Header Header
	data   []byte
	hash   uint32
}

// NewCartridge returns an empty cartridge (no ROM loaded), equivalent to
// turning on a DMG with no cartridge inserted.
func NewCartridge() *Cartridge {
	return &Cartridge{Header: Header{MBCType: MBCNone}}
}

// NewCartridgeWithData parses rom's header and computes its identity hash.
// Invalid/too-short headers degrade to a bare, unbanked NoMBC cartridge
// rather than failing outright, since some homebrew/test ROMs are smaller
// than a full header would require.
func NewCartridgeWithData(rom []byte) *Cartridge {
	c := &Cartridge{data: rom, hash: util.SuperFastHash(rom)}

	if h, err := ParseHeader(rom); err == nil {
		c.Header = h
	} else {
		c.Header = Header{MBCType: MBCNone}
	}

	return c
}

// Hash returns the SuperFastHash of the full ROM image (§6).
func (c *Cartridge) Hash() uint32 { return c.hash }

// Data returns the raw ROM bytes.
func (c *Cartridge) Data() []byte { return c.data }

// RAMBankCount returns how many 8 KiB external RAM banks the header
// declares (0 for cartridges with no external RAM, or MBC2's fixed
// built-in 512x4-bit RAM which isn't counted in 8 KiB banks).
func (c *Cartridge) RAMBankCount() uint8 {
	if c.Header.RAMSizeBytes == 0 {
		return 0
	}
	banks := c.Header.RAMSizeBytes / 0x2000
	if banks == 0 {
		banks = 1
	}
	return uint8(banks)
}
