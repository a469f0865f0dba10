package memory

// JoypadButton enumerates the 8 physical inputs, split across the two
// groups the P1 register multiplexes between (§4.2, §4.10).
type JoypadButton uint8

const (
	JoypadA JoypadButton = iota
	JoypadB
	JoypadSelect
	JoypadStart
	JoypadRight
	JoypadLeft
	JoypadUp
	JoypadDown
)

// JoypadSource abstracts where button state comes from, so the same
// Joypad register plumbing serves live input, a scripted controller, a
// replay recorder tap, and replay playback (§6, §9 "supplemented
// features").
type JoypadSource interface {
	// Pressed reports whether b is currently held down.
	Pressed(b JoypadButton) bool
}

// StaticSource is a JoypadSource backed by a plain bitset, the default
// when no recording/playback wrapper is in use.
type StaticSource struct {
	pressed [8]bool
}

func NewStaticSource() *StaticSource { return &StaticSource{} }

func (s *StaticSource) Press(b JoypadButton)   { s.pressed[b] = true }
func (s *StaticSource) Release(b JoypadButton) { s.pressed[b] = false }
func (s *StaticSource) Pressed(b JoypadButton) bool { return s.pressed[b] }

// Joypad implements the P1/JOYP register (§4.2): writes select which of the
// two 4-bit groups (direction keys, action keys) subsequent reads expose,
// and Poll requests the Joypad interrupt while any selected bit reads pressed.
type Joypad struct {
	source           JoypadSource
	selectButtons    bool // bit 5 written as 0: action buttons selected
	selectDirections bool // bit 4 written as 0: direction buttons selected
	requestInterrupt func()
}

func NewJoypad(requestInterrupt func()) *Joypad {
	return &Joypad{source: NewStaticSource(), requestInterrupt: requestInterrupt}
}

// SetSource swaps the underlying input source, e.g. to wrap it with a
// replay recorder or substitute a replay player (§9).
func (j *Joypad) SetSource(s JoypadSource) { j.source = s }
func (j *Joypad) Source() JoypadSource     { return j.source }

func (j *Joypad) Read() byte {
	result := byte(0xC0) // bits 6-7 always read 1
	if !j.selectButtons {
		result |= 0x20
	}
	if !j.selectDirections {
		result |= 0x10
	}

	low := byte(0x0F)
	if j.selectDirections {
		low &= j.groupNibble(JoypadRight, JoypadLeft, JoypadUp, JoypadDown)
	}
	if j.selectButtons {
		low &= j.groupNibble(JoypadA, JoypadB, JoypadSelect, JoypadStart)
	}
	return result | low
}

// groupNibble returns a 4-bit field with bit N cleared (0) when the
// corresponding button is pressed, per the active-low hardware convention.
func (j *Joypad) groupNibble(bit0, bit1, bit2, bit3 JoypadButton) byte {
	n := byte(0x0F)
	if j.source.Pressed(bit0) {
		n &^= 0x01
	}
	if j.source.Pressed(bit1) {
		n &^= 0x02
	}
	if j.source.Pressed(bit2) {
		n &^= 0x04
	}
	if j.source.Pressed(bit3) {
		n &^= 0x08
	}
	return n
}

func (j *Joypad) Write(v byte) {
	j.selectButtons = v&0x20 == 0
	j.selectDirections = v&0x10 == 0
}

// Poll requests the Joypad interrupt if any selected button reads pressed
// at the time of the call. It keeps no previous state, so it does not
// detect a released-to-pressed transition and repeats the request on every
// call while a button is held.
func (j *Joypad) Poll() {
	if j.Read()&0x0F != 0x0F {
		if j.requestInterrupt != nil {
			j.requestInterrupt()
		}
	}
}
