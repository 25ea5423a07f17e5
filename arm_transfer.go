// arm_transfer.go - single data transfer (LDR/STR byte/word) with the
// unaligned-word rotate quirk, per spec.md §4.5.

package arm

// armSingleTransfer implements LDR/STR{B} with pre/post-index,
// up/down, and register or immediate offset, selected by instr's bits
// 25/24/23/22/21/20.
func armSingleTransfer(c *Core, instr uint32) {
	immOffset := instr&(1<<25) == 0
	preIndex := instr&(1<<24) != 0
	up := instr&(1<<23) != 0
	byteAccess := instr&(1<<22) != 0
	writeback := instr&(1<<21) != 0
	load := instr&(1<<20) != 0
	rn := int((instr >> 16) & 0xF)
	rd := int((instr >> 12) & 0xF)

	var offset uint32
	if immOffset {
		offset = instr & 0xFFF
	} else {
		val, _ := shifterOperand(c, instr&^uint32(1<<25))
		offset = val
	}

	base := c.rf.Read(rn)
	addr := base
	if preIndex {
		if up {
			addr = base + offset
		} else {
			addr = base - offset
		}
	}

	if load {
		if byteAccess {
			v, ok := c.ReadMem8(addr)
			if !ok {
				return
			}
			c.WriteReg(rd, uint32(v))
		} else {
			// The address bus only ever presents a word-aligned address for
			// a word access (A[1:0] are dropped, not decoded); the CPU then
			// rotates the fetched word right by 8*(addr&3) to compensate,
			// the documented ARM v4 quirk (spec.md §4.5). Reading from the
			// unaligned address directly would fetch the wrong bytes
			// entirely instead of reproducing this behavior.
			v, ok := c.ReadMem32(addr &^ 3)
			if !ok {
				return
			}
			v = rotateRight32(v, uint(8*(addr&3)))
			c.WriteReg(rd, v)
		}
	} else {
		storeVal := c.rf.Read(rd)
		if rd == 15 {
			storeVal = c.rf.ReadPCOperand(false)
		}
		if byteAccess {
			if !c.WriteMem8(addr, uint8(storeVal)) {
				return
			}
		} else {
			if !c.WriteMem32(addr, storeVal) {
				return
			}
		}
	}

	if !preIndex {
		if up {
			addr = base + offset
		} else {
			addr = base - offset
		}
	}
	// T-bit (user-mode force, bit 21 when !preIndex) is not modelled -
	// this core has no separate user/privileged bus-access distinction
	// beyond the MMU's own AP/domain check, which already runs with the
	// current (not forced-user) privilege for every access.
	if writeback || !preIndex {
		c.WriteReg(rn, addr)
	}
}
