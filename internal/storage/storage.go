// Package storage is the filesystem-backed implementation of the save-file
// persistence capability (§6): battery-backed cartridge RAM next to the
// ROM, and replay recordings next to the ROM with a .replay extension. It uses only
// os/io, following the pack's own idiom for this kind of local persistence
// (_examples/IntuitionAmiga-IntuitionEngine/debug_snapshot.go writes its
// snapshots straight through os.WriteFile/os.ReadFile rather than through a
// database or embedded KV store).
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SavePath returns the conventional battery-RAM save file path for a ROM
// at romPath: the same directory, same basename, a ".sav" extension.
func SavePath(romPath string) string {
	ext := filepath.Ext(romPath)
	base := strings.TrimSuffix(romPath, ext)
	return base + ".sav"
}

// LoadBatteryRAM reads a previously-saved battery RAM image for romPath, or
// returns (nil, nil) if no save file exists yet.
func LoadBatteryRAM(romPath string) ([]byte, error) {
	data, err := os.ReadFile(SavePath(romPath))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: load battery RAM: %w", err)
	}
	return data, nil
}

// SaveBatteryRAM persists ram to the conventional save path for romPath. A
// nil or empty ram is a no-op, since cartridges with no battery have
// nothing worth persisting.
func SaveBatteryRAM(romPath string, ram []byte) error {
	if len(ram) == 0 {
		return nil
	}
	if err := os.WriteFile(SavePath(romPath), ram, 0644); err != nil {
		return fmt.Errorf("storage: save battery RAM: %w", err)
	}
	return nil
}

// ReplayPath returns the conventional replay recording path for a ROM at
// romPath: the same basename with a ".replay" extension.
func ReplayPath(romPath string) string {
	ext := filepath.Ext(romPath)
	base := strings.TrimSuffix(romPath, ext)
	return base + ".replay"
}

// SaveReplay writes an already-encoded replay (see internal/replay.Encode)
// to the conventional path for romPath.
func SaveReplay(romPath string, encoded []byte) error {
	if err := os.WriteFile(ReplayPath(romPath), encoded, 0644); err != nil {
		return fmt.Errorf("storage: save replay: %w", err)
	}
	return nil
}

// LoadReplay reads a raw encoded replay from path (explicit, since replay
// playback is usually pointed at a specific file rather than the
// ROM-derived convention used for recording).
func LoadReplay(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storage: load replay: %w", err)
	}
	return data, nil
}
