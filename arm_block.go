// arm_block.go - block data transfer (LDM/STM), per spec.md §4.5.

package arm

// armBlockTransfer implements LDM/STM with the S-bit user-bank
// semantics and the first-register-in-list base-value quirk spec.md
// §4.5 documents: "the base register's value read during transfer is
// its original value if it is the first register in the list".
func armBlockTransfer(c *Core, instr uint32) {
	preIndex := instr&(1<<24) != 0
	up := instr&(1<<23) != 0
	sBit := instr&(1<<22) != 0
	writeback := instr&(1<<21) != 0
	load := instr&(1<<20) != 0
	rn := int((instr >> 16) & 0xF)
	regList := instr & 0xFFFF

	count := 0
	for r := 0; r < 16; r++ {
		if regList&(1<<r) != 0 {
			count++
		}
	}
	if count == 0 {
		return // empty register list: architecturally unpredictable, treated as a no-op
	}

	base := c.rf.Read(rn)
	userBank := sBit && regList&(1<<15) == 0

	start := base
	if !up {
		start = base - uint32(count)*4
	}
	addr := start
	if preIndex == up {
		// LDM/STM IB and DA both start one word in from the naive base;
		// the four addressing-mode combinations collapse to this single
		// offset rule (ARM ARM A4.1.20-23).
		addr += 4
	}

	baseIsFirstInList := false
	for r := 0; r < 16; r++ {
		if regList&(1<<r) != 0 {
			baseIsFirstInList = r == rn
			break
		}
	}

	wroteBase := false
	for r := 0; r < 16; r++ {
		if regList&(1<<r) == 0 {
			continue
		}
		if load {
			v, ok := c.ReadMem32(addr)
			if !ok {
				return
			}
			if r == 15 {
				c.WriteReg(15, v)
				if sBit {
					c.rf.SetCPSR(c.rf.ReadSPSR(c.log))
					c.modeChanged = true
				}
			} else if userBank {
				c.rf.WriteUserBank(r, v)
			} else {
				c.WriteReg(r, v)
			}
			if r == rn {
				wroteBase = true
			}
		} else {
			var v uint32
			switch {
			case r == 15:
				v = c.rf.ReadPCOperand(false)
			case userBank:
				v = c.rf.ReadUserBank(r)
			case r == rn && !baseIsFirstInList:
				v = base // stores the base value from before this instruction
			default:
				v = c.rf.Read(r)
			}
			if !c.WriteMem32(addr, v) {
				return
			}
		}
		addr += 4
	}

	if writeback && !(load && wroteBase) {
		if up {
			c.WriteReg(rn, base+uint32(count)*4)
		} else {
			c.WriteReg(rn, base-uint32(count)*4)
		}
	}
}
