// arm_coproc.go - coprocessor load/store and coprocessor data/register
// ops, routed to CP15 or the CP14 stub, per spec.md §4.5/§4.8.

package arm

// armCoprocessor dispatches primary index 0xC0-0xEF: LDC/STC (0xC0-
// 0xDF), and CDP or MRC/MCR (0xE0-0xEF, selected by bit 4).
func armCoprocessor(c *Core, instr uint32) {
	if (instr>>24)&0xF != 0xE {
		armLDCSTC(c, instr)
		return
	}
	if instr&(1<<4) == 0 {
		armCDP(c, instr)
		return
	}
	armMRCMCR(c, instr)
}

// armLDCSTC: this core implements only CP15 and the CP14 stub, neither
// of which defines a memory-mapped coprocessor register transfer, so
// LDC/STC always trap undefined - matching real CP15/CP14 hardware.
func armLDCSTC(c *Core, instr uint32) {
	c.pending.Undefined = true
}

// armCDP: CP15 and CP14 define no coprocessor-internal data operation,
// so CDP always traps undefined.
func armCDP(c *Core, instr uint32) {
	c.pending.Undefined = true
}

// armMRCMCR implements MRC/MCR against coprocessor 15 (CP15) or 14
// (the CP14 clock-counter/debug-status stub); any other coprocessor
// number traps undefined, per spec.md §1's scope (coprocessors other
// than CP14 stub and CP15 are a non-goal).
func armMRCMCR(c *Core, instr uint32) {
	cReg := uint8((instr >> 16) & 0xF)
	rd := int((instr >> 12) & 0xF)
	cpNum := (instr >> 8) & 0xF
	op2 := uint8((instr >> 5) & 0x7)
	crm := uint8(instr & 0xF)
	load := instr&(1<<20) != 0

	switch cpNum {
	case 15:
		if load {
			c.WriteReg(rd, c.cp15.ReadReg(cReg, op2, crm))
		} else {
			modeChanged, flushPrefetch := c.cp15.WriteReg(cReg, op2, crm, c.rf.Read(rd))
			if modeChanged {
				c.modeChanged = true
			}
			if flushPrefetch {
				c.fetch.Invalidate()
			}
		}
	case 14:
		if load {
			c.WriteReg(rd, c.cp15.ReadCP14(cReg))
		} else {
			c.cp15.WriteCP14(cReg, c.rf.Read(rd))
		}
	default:
		c.pending.Undefined = true
	}
}
