package memory

// ControllerSource is a JoypadSource fed by an external gamepad poll rather
// than discrete key events: analog stick axes are thresholded into the
// direction buttons the same way the original's controller backend folds
// stick movement into ButtonCode::{Up,Down,Left,Right} (§9 "supplemented
// features"). The host renderer owns the actual gamepad library call and
// drives this type through SetButton/SetAxis once per poll.
type ControllerSource struct {
	buttons [8]bool
}

// axisDeadzone is the minimum absolute stick deflection treated as a
// direction press; below this the axis reads as centered.
const axisDeadzone = 0.5

func NewControllerSource() *ControllerSource { return &ControllerSource{} }

func (c *ControllerSource) Pressed(b JoypadButton) bool { return c.buttons[b] }

// SetButton records a discrete gamepad button's state (A/B/Start/Select).
func (c *ControllerSource) SetButton(b JoypadButton, pressed bool) {
	c.buttons[b] = pressed
}

// SetAxis folds a left-stick reading into the four direction buttons,
// mirroring the original's axis-changed handling for LeftStickX/LeftStickY.
func (c *ControllerSource) SetAxis(x, y float64) {
	c.buttons[JoypadRight] = x > axisDeadzone
	c.buttons[JoypadLeft] = x < -axisDeadzone
	c.buttons[JoypadUp] = y < -axisDeadzone
	c.buttons[JoypadDown] = y > axisDeadzone
}
