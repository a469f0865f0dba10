package cpu

// executeCB dispatches a single CB-prefixed opcode. The entire page is
// regular: bits 7-6 select the operation group, bits 5-3 select either a
// bit index (BIT/RES/SET) or a rotate/shift variant, and bits 2-0 select
// the register (with 6 = (HL) indirect), so the whole 256-entry page is
// handled by splitting the opcode rather than one case per byte (§4.1).
func (c *CPU) executeCB(opcode uint8) int {
	r := reg8(opcode & 0x07)
	group := opcode >> 6
	selector := (opcode >> 3) & 0x07

	indirect := r == regHLInd

	switch group {
	case 0: // rotate/shift/swap
		v := c.get8(r)
		switch selector {
		case 0:
			v = c.rlc(v)
		case 1:
			v = c.rrc(v)
		case 2:
			v = c.rl(v)
		case 3:
			v = c.rr(v)
		case 4:
			v = c.sla(v)
		case 5:
			v = c.sra(v)
		case 6:
			v = c.swap(v)
		case 7:
			v = c.srl(v)
		}
		c.set8(r, v)
		if indirect {
			return 16
		}
		return 8

	case 1: // BIT b,r
		v := c.get8(r)
		c.setFlagTo(flagZero, v&(1<<selector) == 0)
		c.clearFlag(flagSubtract)
		c.setFlag(flagHalfCarry)
		if indirect {
			return 12
		}
		return 8

	case 2: // RES b,r
		c.set8(r, c.get8(r)&^(1<<selector))
		if indirect {
			return 16
		}
		return 8

	case 3: // SET b,r
		c.set8(r, c.get8(r)|(1<<selector))
		if indirect {
			return 16
		}
		return 8
	}

	panic("unreachable CB group")
}
