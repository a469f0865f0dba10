package disasm

import (
	"fmt"

	"github.com/zxcodes/gbcore/internal/bit"
	"github.com/zxcodes/gbcore/internal/memory"
)

// DisassemblyLine represents a single disassembled instruction
type DisassemblyLine struct {
	Address     uint16
	Instruction string
	Length      int
}

// DisassembleAt decodes the single instruction at pc, using the CB-prefixed
// opcode tables when the byte at pc is the 0xCB escape.
func DisassembleAt(pc uint16, mmu *memory.MMU) DisassemblyLine {
	opcode := mmu.Read(pc)

	if opcode == 0xCB {
		return disassembleCB(pc, mmu)
	}
	return disassembleUnprefixed(pc, mmu)
}

func disassembleCB(pc uint16, mmu *memory.MMU) DisassemblyLine {
	if pc == 0xFFFF {
		return DisassemblyLine{Address: pc, Instruction: "CB ??", Length: 2}
	}
	cbOpcode := mmu.Read(pc + 1)
	return DisassemblyLine{
		Address:     pc,
		Instruction: CBInstructionTemplates[cbOpcode],
		Length:      CBInstructionLengths[cbOpcode],
	}
}

func disassembleUnprefixed(pc uint16, mmu *memory.MMU) DisassemblyLine {
	opcode := mmu.Read(pc)
	length := InstructionLengths[opcode]
	template := InstructionTemplates[opcode]

	var instruction string
	switch length {
	case 2:
		n := byte(0)
		if pc != 0xFFFF {
			n = mmu.Read(pc + 1)
		}
		instruction = fmt.Sprintf(template, n)
	case 3:
		nn := uint16(0)
		if pc < 0xFFFE {
			nn = bit.Combine(mmu.Read(pc+2), mmu.Read(pc+1))
		}
		instruction = fmt.Sprintf(template, nn)
	default:
		instruction = template
	}

	return DisassemblyLine{Address: pc, Instruction: instruction, Length: length}
}

// DisassembleRange decodes count consecutive instructions starting at startPC.
func DisassembleRange(startPC uint16, count int, mmu *memory.MMU) []DisassemblyLine {
	lines := make([]DisassemblyLine, 0, count)
	pc := startPC

	for i := 0; i < count && pc <= 0xFFFF; i++ {
		line := DisassembleAt(pc, mmu)
		lines = append(lines, line)
		pc += uint16(line.Length)
	}

	return lines
}

// findBackwardOrigin locates a PC such that decoding forward from it lands
// exactly on currentPC after wantBefore instructions. The LR35902's
// variable-length encoding means there's no way to walk backwards directly,
// so candidate origins are tried in decreasing distance from currentPC
// until one decodes cleanly onto it with enough instructions to spare.
func findBackwardOrigin(currentPC uint16, wantBefore int, mmu *memory.MMU) (origin uint16, found int) {
	maxScan := wantBefore * 3
	for offset := maxScan; offset > 0; offset-- {
		if uint16(offset) > currentPC {
			continue
		}
		candidate := currentPC - uint16(offset)

		pc, count := candidate, 0
		for count < wantBefore*2 && pc <= currentPC {
			if pc == currentPC && count >= wantBefore {
				return candidate, count
			}
			line := DisassembleAt(pc, mmu)
			pc += uint16(line.Length)
			count++
		}
	}
	return currentPC, 0
}

// DisassembleAround decodes a window of instructions centered on currentPC:
// the preceding instructions found by findBackwardOrigin (between beforeCount
// and 2*beforeCount-1 of them, or none when no aligned origin is found),
// currentPC itself, then afterCount following.
func DisassembleAround(currentPC uint16, beforeCount, afterCount int, mmu *memory.MMU) []DisassemblyLine {
	startPC, instructionsFound := findBackwardOrigin(currentPC, beforeCount, mmu)
	totalCount := instructionsFound + 1 + afterCount
	return DisassembleRange(startPC, totalCount, mmu)
}

// FormatDisassemblyLine formats a disassembly line for display
func FormatDisassemblyLine(line DisassemblyLine, isCurrentPC bool) string {
	prefix := " "
	if isCurrentPC {
		prefix = ">"
	}
	
	return fmt.Sprintf("%s0x%04X: %s", prefix, line.Address, line.Instruction)
}