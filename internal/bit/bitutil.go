// Package bit provides the small set of bitfield helpers the CPU, PPU and
// APU decoders share: combining register halves, testing/setting single
// bits, and slicing out multi-bit fields from a status byte.
package bit

// Combine combines two 8 bit values into a single 16 bit value.
// The high byte will be the most significant one.
func Combine(high, low uint8) uint16 {
	return (uint16(high) << 8) | uint16(low)
}

// IsSet reports whether the bit at the given index is 1.
func IsSet(index, value uint8) bool {
	return ((value >> index) & 1) == 1
}

// Set returns value with the bit at index forced to 1.
func Set(index, value uint8) uint8 {
	return value | (1 << index)
}

// Reset returns value with the bit at index forced to 0.
func Reset(index, value uint8) uint8 {
	return value & ((1 << index) ^ 0xFF)
}

// Clear is an alias of Reset kept for call sites that read better with the
// "clear a flag" phrasing (e.g. serial control bits).
func Clear(index, value uint8) uint8 {
	return Reset(index, value)
}

// ExtractBits extracts the inclusive bit range [lowBit, highBit] from value.
// Example: ExtractBits(0b11010110, 6, 4) -> 0b101 (bits 6, 5, 4)
func ExtractBits(value uint8, highBit, lowBit uint8) uint8 {
	width := highBit - lowBit + 1
	mask := uint8((1 << width) - 1)
	return (value >> lowBit) & mask
}
