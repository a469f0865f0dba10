package emulator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zxcodes/gbcore/internal/memory"
)

func TestNewHasNoCartridgeAndZeroHash(t *testing.T) {
	e := New()
	require.Equal(t, uint32(0), e.ROMHash())
}

func TestRunUntilFrameAdvancesFrameCount(t *testing.T) {
	e := New()
	e.RunUntilFrame()
	require.Equal(t, uint64(1), e.GetFrameCount())
}

func TestDebuggerPauseStopsFrameAdvancement(t *testing.T) {
	e := New()
	e.DebuggerPause()
	e.RunUntilFrame()
	require.Equal(t, uint64(0), e.GetFrameCount())
}

func TestDebuggerStepFrameAdvancesExactlyOneFrameThenPauses(t *testing.T) {
	e := New()
	e.DebuggerStepFrame()
	e.RunUntilFrame()
	require.Equal(t, uint64(1), e.GetFrameCount())
	require.Equal(t, DebuggerPaused, e.GetDebuggerState())
}

func TestSetJoypadSourceInstallsCustomSource(t *testing.T) {
	e := New()
	src := memory.NewControllerSource()
	src.SetButton(memory.JoypadA, true)
	e.SetJoypadSource(src)

	require.True(t, e.GetMMU().Joypad().Source().Pressed(memory.JoypadA))
}

func TestSaveBatteryRAMNoOpWithoutROM(t *testing.T) {
	e := New()
	require.NoError(t, e.SaveBatteryRAM())
}

func TestCheckCrashNilWhenNotCrashed(t *testing.T) {
	e := New()
	require.NoError(t, e.CheckCrash())
}
