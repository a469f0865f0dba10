package emulator

import "fmt"

// CrashError wraps the CPU's fatal decode message (an unimplemented or
// invalid opcode) so a host can errors.As it out of whatever wrapping a
// caller added, instead of string-matching a generic error (§4.1, §7).
type CrashError struct {
	PC      uint16
	Message string
}

func (e *CrashError) Error() string {
	return fmt.Sprintf("cpu crashed at 0x%04X: %s", e.PC, e.Message)
}

// CheckCrash returns a *CrashError if the CPU has hit a fatal decode
// condition, or nil otherwise. The crash state persists, so every later
// call reports it again.
func (e *Emulator) CheckCrash() error {
	msg, crashed := e.cpu.Crashed()
	if !crashed {
		return nil
	}
	return &CrashError{PC: e.cpu.PC(), Message: msg}
}
