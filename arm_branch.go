// arm_branch.go - branch/branch-with-link, BX/BLX/CLZ (v4T/v5
// extensions), and the v5 cond==NV unconditional family (BLX-immediate,
// PLD), per spec.md §4.4/§4.5.

package arm

// armBranch implements B/BL: sign-extended 24-bit word offset<<2 added
// to the instruction's address + 8. The caller has already advanced PC
// to the next instruction (address + 4); ReadPCOperand adds the other 4.
func armBranch(c *Core, instr uint32) {
	link := instr&(1<<24) != 0
	offset := int32(instr&0xFFFFFF) << 8 >> 6 // sign-extend 24 bits, then <<2
	target := c.rf.ReadPCOperand(false) + uint32(offset)
	if link {
		c.WriteReg(14, c.rf.PC())
	}
	c.WriteReg(15, target)
	c.modeChanged = true
}

// armBX implements BX: branch and exchange instruction set per target
// bit 0.
func armBX(c *Core, instr uint32) {
	rm := int(instr & 0xF)
	c.BranchExchange(c.rf.Read(rm))
}

// armBLXRegister implements v5's BLX Rm: like BX but also sets LR to
// the return address.
func armBLXRegister(c *Core, instr uint32) {
	rm := int(instr & 0xF)
	target := c.rf.Read(rm)
	c.WriteReg(14, c.rf.PC())
	c.BranchExchange(target)
}

// armCLZ implements v5's CLZ Rd, Rm: count leading zeros.
func armCLZ(c *Core, instr uint32) {
	rd := int((instr >> 12) & 0xF)
	rm := int(instr & 0xF)
	v := c.rf.Read(rm)
	n := uint32(0)
	if v == 0 {
		n = 32
	} else {
		for v&0x80000000 == 0 {
			n++
			v <<= 1
		}
	}
	c.WriteReg(rd, n)
}

// armV5Unconditional handles cond==0xF (NV) instructions on v5+:
// BLX-immediate (switches to Thumb and sets LR) and PLD (a hint, no-op
// here since this core has no cache model beyond CP15 control bits).
func armV5Unconditional(c *Core, instr uint32) {
	if instr&0xFE000000 == 0xFA000000 {
		armBLXImmediate(c, instr)
		return
	}
	if instr&0xFD70F000 == 0xF550F000 {
		return // PLD: prefetch hint, no-op
	}
	c.pending.Undefined = true
}

// armBLXImmediate implements BLX <label> (v5): like BL but also sets
// the T bit, and the half-word H bit (bit 24) contributes a two-byte
// adjustment to the target for sub-word Thumb alignment.
func armBLXImmediate(c *Core, instr uint32) {
	offset := int32(instr&0xFFFFFF) << 8 >> 6
	h := (instr >> 24) & 1
	target := c.rf.ReadPCOperand(false) + uint32(offset) + h*2
	c.WriteReg(14, c.rf.PC())
	cpsr := c.rf.CPSR() | FlagT
	c.rf.SetCPSRFlagsPreservingMode(cpsr)
	c.WriteReg(15, target)
	c.modeChanged = true
}
