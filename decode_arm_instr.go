// decode_arm_instr.go - ARM-state condition evaluation, fetch/decode loop,
// and the 256-way primary dispatch table, per spec.md §4.4/§4.5.
//
// Grounded on cpu_z80.go's initBaseOps table-of-256-function-pointers
// construction, generalized from a flat opcode byte to ARM's
// bits[27:20] primary index plus the bits[7:4] sub-decode the family
// handlers perform themselves.

package arm

// armHandler executes one decoded ARM instruction. instr is the full
// 32-bit word; the condition field has already been checked.
type armHandler func(c *Core, instr uint32)

var armTable [256]armHandler

func armIndex(instr uint32) int { return int((instr >> 20) & 0xFF) }

func init() {
	for i := 0; i < 256; i++ {
		switch {
		case i < 0x20:
			// Data-processing register-operand and multiply/swap/halfword-
			// signed share this range; armDataProcOrMultiply re-examines
			// bits[7:4] of the full instruction to tell them apart, since
			// the 8-bit primary index alone cannot (spec.md §4.5).
			armTable[i] = armDataProcOrMultiply
		case i < 0x40:
			armTable[i] = armDataProcessingImmOrMSR
		case i < 0x80:
			armTable[i] = armSingleTransfer
		case i < 0xA0:
			armTable[i] = armBlockTransfer
		case i < 0xC0:
			armTable[i] = armBranch
		case i < 0xF0:
			armTable[i] = armCoprocessor
		default:
			armTable[i] = armSWI
		}
	}
}

// condPassed evaluates the top 4 bits of instr against cpsr's N/Z/C/V,
// per spec.md §4.4. cond 0xF (NV) is handled by the caller before
// condPassed is ever consulted on v5+.
func condPassed(cond uint32, cpsr uint32) bool {
	n := cpsr&FlagN != 0
	z := cpsr&FlagZ != 0
	c := cpsr&FlagC != 0
	v := cpsr&FlagV != 0
	switch cond {
	case 0x0:
		return z // EQ
	case 0x1:
		return !z // NE
	case 0x2:
		return c // CS/HS
	case 0x3:
		return !c // CC/LO
	case 0x4:
		return n // MI
	case 0x5:
		return !n // PL
	case 0x6:
		return v // VS
	case 0x7:
		return !v // VC
	case 0x8:
		return c && !z // HI
	case 0x9:
		return !c || z // LS
	case 0xA:
		return n == v // GE
	case 0xB:
		return n != v // LT
	case 0xC:
		return !z && n == v // GT
	case 0xD:
		return z || n != v // LE
	case 0xE:
		return true // AL
	default: // 0xF, NV on v4; reserved/unconditional on v5, handled by caller
		return false
	}
}

// stepARM fetches, decodes and executes one ARM instruction using the
// given fetch-word variant. It always costs 1 cycle, including
// condition-failed instructions (spec.md §4.4).
func (c *Core) stepARM(fw fetchWordFn) int {
	pc := c.rf.PC()
	instr, ok := c.fetchWord(fw, pc)
	if !ok {
		// PrefetchAbort already pending (or about to be, for a speculative
		// miss fetched through the queue); advance PC past the faulting
		// slot exactly as hardware does, the abort fires on the next Step.
		c.rf.SetPC(pc + 4)
		return 1
	}

	cond := instr >> 28
	if cond == 0xF {
		if c.cfg.Rev >= RevARMv5 {
			c.rf.SetPC(pc + 4)
			armV5Unconditional(c, instr)
			return 1
		}
		c.rf.SetPC(pc + 4)
		return 1
	}

	if !condPassed(cond, c.rf.CPSR()) {
		c.rf.SetPC(pc + 4)
		return 1
	}

	c.rf.SetPC(pc + 4)
	armTable[armIndex(instr)](c, instr)
	return 1
}

func armUndefined(c *Core, instr uint32) {
	c.pending.Undefined = true
}

func armSWI(c *Core, instr uint32) {
	c.pending.SWI = true
}
