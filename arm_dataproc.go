// arm_dataproc.go - data-processing ALU ops, the shifter-operand
// producer, MSR/MRS, multiply family, swap, and halfword/signed
// transfers - the families sharing the 0x00-0x3F primary dispatch
// range, per spec.md §4.5.

package arm

// DP opcodes, bits 24:21.
const (
	dpAND = 0x0
	dpEOR = 0x1
	dpSUB = 0x2
	dpRSB = 0x3
	dpADD = 0x4
	dpADC = 0x5
	dpSBC = 0x6
	dpRSC = 0x7
	dpTST = 0x8
	dpTEQ = 0x9
	dpCMP = 0xA
	dpCMN = 0xB
	dpORR = 0xC
	dpMOV = 0xD
	dpBIC = 0xE
	dpMVN = 0xF
)

// armDataProcOrMultiply handles primary index 0x00-0x1F: plain
// register-operand data-processing, or - when bits[7:4] match one of
// the multiply/swap/halfword-signed-transfer encodings - dispatches to
// that family instead.
func armDataProcOrMultiply(c *Core, instr uint32) {
	if instr&0x0FFFFFF0 == 0x012FFF10 {
		armBX(c, instr)
		return
	}
	if instr&0x0FFFFFF0 == 0x012FFF30 {
		armBLXRegister(c, instr)
		return
	}
	if c.cfg.Rev >= RevARMv5 && instr&0x0FFF0FF0 == 0x016F0F10 {
		armCLZ(c, instr)
		return
	}

	bits74 := (instr >> 4) & 0xF
	if c.cfg.Flags&FlagEnhancedDSP != 0 && bits74 == 0x5 &&
		(instr>>24)&0xF == 0x1 && (instr>>23)&1 == 0 && (instr>>20)&1 == 0 {
		armSaturatingArith(c, instr)
		return
	}
	if bits74 == 0x9 {
		armMultiplyOrSwap(c, instr)
		return
	}
	if bits74&0x9 == 0x9 && (instr>>25)&1 == 0 {
		// Halfword/signed-byte load/store: bit 4 set, bit 7 set, not an
		// immediate data-processing operand (bit 25 clear is implied by
		// this whole range already).
		armHalfwordSignedTransfer(c, instr)
		return
	}

	op := (instr >> 21) & 0xF
	sBit := instr&(1<<20) != 0
	if !sBit {
		switch op {
		case dpTST, dpCMP:
			armMRS(c, instr)
			return
		case dpTEQ, dpCMN:
			armMSR(c, instr, false)
			return
		}
	}
	armDataProcessing(c, instr, false)
}

func armMultiplyOrSwap(c *Core, instr uint32) {
	if (instr>>24)&1 == 1 {
		armSwap(c, instr)
		return
	}
	if (instr>>23)&1 == 1 {
		armMultiplyLong(c, instr)
		return
	}
	armMultiply(c, instr)
}

// shifterOperand decodes a data-processing operand2: immediate with
// rotate (bit 25 set) or register with LSL/LSR/ASR/ROR by immediate or
// by register (bit 25 clear), per spec.md §4.5.
func shifterOperand(c *Core, instr uint32) (val uint32, carryOut bool) {
	carryIn := c.rf.CPSR()&FlagC != 0
	if instr&(1<<25) != 0 {
		imm := instr & 0xFF
		rot := (instr >> 8) & 0xF
		if rot == 0 {
			return imm, carryIn
		}
		v := rotateRight32(imm, uint(rot*2))
		return v, v&0x80000000 != 0
	}

	rm := int(instr & 0xF)
	val = c.operand(rm)
	kind := int((instr >> 5) & 3)

	if instr&(1<<4) != 0 {
		rs := int((instr >> 8) & 0xF)
		amount := uint(c.rf.Read(rs) & 0xFF)
		res := shiftByAmount(kind, val, amount, carryIn, false)
		return res.value, res.carryOut
	}
	amount := uint((instr >> 7) & 0x1F)
	res := shiftByAmount(kind, val, amount, carryIn, true)
	return res.value, res.carryOut
}

// operand reads register r as a data-processing/shift source, applying
// the PC-as-operand convention (PC+8 in ARM state) for r==15.
func (c *Core) operand(r int) uint32 {
	if r == 15 {
		return c.rf.ReadPCOperand(false)
	}
	return c.rf.Read(r)
}

// armDataProcessing executes AND..MVN. shifterOperand picks the
// immediate or register form of operand2 from instruction bit 25; the
// imm argument is not consulted.
func armDataProcessing(c *Core, instr uint32, imm bool) {
	op := (instr >> 21) & 0xF
	sBit := instr&(1<<20) != 0
	rn := int((instr >> 16) & 0xF)
	rd := int((instr >> 12) & 0xF)

	op2, shiftCarry := shifterOperand(c, instr)
	rnVal := c.operand(rn)

	result, flags, writesResult := dpCompute(op, rnVal, op2, c.rf.CPSR()&FlagC != 0)

	if writesResult {
		if rd == 15 && sBit {
			c.WriteReg(15, result)
			c.rf.SetCPSR(c.rf.ReadSPSR(c.log))
			c.modeChanged = true
			return
		}
		c.WriteReg(rd, result)
	}

	if sBit && rd != 15 {
		cpsr := c.rf.CPSR() &^ (FlagN | FlagZ | FlagC | FlagV)
		if flags.n {
			cpsr |= FlagN
		}
		if flags.z {
			cpsr |= FlagZ
		}
		c_ := flags.c
		if op != dpADD && op != dpADC && op != dpSUB && op != dpSBC && op != dpRSB && op != dpRSC && op != dpCMP && op != dpCMN {
			c_ = shiftCarry
		}
		if c_ {
			cpsr |= FlagC
		}
		if flags.v {
			cpsr |= FlagV
		}
		c.rf.SetCPSRFlagsPreservingMode(cpsr)
	}
}

type dpFlags struct{ n, z, c, v bool }

// dpCompute implements the sixteen data-processing opcodes, returning
// the result, its flags, and whether the result is actually written
// (TST/TEQ/CMP/CMN only update flags).
func dpCompute(op uint32, a, b uint32, carryIn bool) (result uint32, flags dpFlags, writes bool) {
	switch op {
	case dpAND:
		result = a & b
		flags = logicalFlags(result)
		return result, flags, true
	case dpEOR:
		result = a ^ b
		flags = logicalFlags(result)
		return result, flags, true
	case dpSUB:
		r, n, z, c, v := flagsFromSub(a, b, false)
		return r, dpFlags{n, z, c, v}, true
	case dpRSB:
		r, n, z, c, v := flagsFromSub(b, a, false)
		return r, dpFlags{n, z, c, v}, true
	case dpADD:
		r, n, z, c, v := flagsFromAdd(a, b, false)
		return r, dpFlags{n, z, c, v}, true
	case dpADC:
		r, n, z, c, v := flagsFromAdd(a, b, carryIn)
		return r, dpFlags{n, z, c, v}, true
	case dpSBC:
		r, n, z, c, v := flagsFromSub(a, b, !carryIn)
		return r, dpFlags{n, z, c, v}, true
	case dpRSC:
		r, n, z, c, v := flagsFromSub(b, a, !carryIn)
		return r, dpFlags{n, z, c, v}, true
	case dpTST:
		result = a & b
		return result, logicalFlags(result), false
	case dpTEQ:
		result = a ^ b
		return result, logicalFlags(result), false
	case dpCMP:
		r, n, z, c, v := flagsFromSub(a, b, false)
		return r, dpFlags{n, z, c, v}, false
	case dpCMN:
		r, n, z, c, v := flagsFromAdd(a, b, false)
		return r, dpFlags{n, z, c, v}, false
	case dpORR:
		result = a | b
		return result, logicalFlags(result), true
	case dpMOV:
		return b, logicalFlags(b), true
	case dpBIC:
		result = a &^ b
		return result, logicalFlags(result), true
	default: // dpMVN
		result = ^b
		return result, logicalFlags(result), true
	}
}

func logicalFlags(result uint32) dpFlags {
	return dpFlags{n: result&0x80000000 != 0, z: result == 0}
}

// armDataProcessingImmOrMSR handles primary index 0x20-0x3F: immediate
// data-processing operand, or MSR-immediate when the opcode field is
// TST/TEQ/CMP/CMN's range with the S-bit clear (the PSR-transfer
// encoding reuses those opcode bits).
func armDataProcessingImmOrMSR(c *Core, instr uint32) {
	op := (instr >> 21) & 0xF
	sBit := instr&(1<<20) != 0
	if !sBit && (op == dpTST || op == dpTEQ || op == dpCMP || op == dpCMN) {
		armMSR(c, instr, true)
		return
	}
	armDataProcessing(c, instr, true)
}

// armMSR/armMRS implement PSR transfer. imm selects whether the source
// operand for MSR is an immediate (bit 25 set) or a register.
func armMSR(c *Core, instr uint32, imm bool) {
	toSPSR := instr&(1<<22) != 0
	writeControl := instr&(1<<16) != 0
	writeFlags := instr&(1<<19) != 0

	var val uint32
	if imm {
		rotImm := instr & 0xFF
		rot := (instr >> 8) & 0xF
		val = rotateRight32(rotImm, uint(rot*2))
	} else {
		val = c.rf.Read(int(instr & 0xF))
	}

	var mask uint32
	if writeControl {
		mask |= 0x000000FF
	}
	if writeFlags {
		mask |= 0xFF000000
	}

	if toSPSR {
		cur := c.rf.ReadSPSR(c.log)
		c.rf.WriteSPSR(c.log, (cur &^ mask) | (val & mask))
		return
	}
	cur := c.rf.CPSR()
	next := (cur &^ mask) | (val & mask)
	if writeControl {
		c.rf.SetCPSR(next)
		c.modeChanged = true
	} else {
		c.rf.SetCPSRFlagsPreservingMode(next)
	}
}

func armMRS(c *Core, instr uint32) {
	rd := int((instr >> 12) & 0xF)
	if instr&(1<<22) != 0 {
		c.WriteReg(rd, c.rf.ReadSPSR(c.log))
	} else {
		c.WriteReg(rd, c.rf.CPSR())
	}
}

// armMultiply implements 32-bit MUL/MLA (bit 21 selects accumulate).
func armMultiply(c *Core, instr uint32) {
	rd := int((instr >> 16) & 0xF)
	rn := int((instr >> 12) & 0xF)
	rs := int((instr >> 8) & 0xF)
	rm := int(instr & 0xF)
	sBit := instr&(1<<20) != 0
	accumulate := instr&(1<<21) != 0

	result := c.rf.Read(rm) * c.rf.Read(rs)
	if accumulate {
		result += c.rf.Read(rn)
	}
	c.WriteReg(rd, result)
	if sBit {
		cpsr := c.rf.CPSR() &^ (FlagN | FlagZ)
		if result&0x80000000 != 0 {
			cpsr |= FlagN
		}
		if result == 0 {
			cpsr |= FlagZ
		}
		c.rf.SetCPSRFlagsPreservingMode(cpsr)
	}
}

// armMultiplyLong implements UMULL/UMLAL/SMULL/SMLAL (64-bit result
// split across RdHi:RdLo).
func armMultiplyLong(c *Core, instr uint32) {
	rdHi := int((instr >> 16) & 0xF)
	rdLo := int((instr >> 12) & 0xF)
	rs := int((instr >> 8) & 0xF)
	rm := int(instr & 0xF)
	sBit := instr&(1<<20) != 0
	accumulate := instr&(1<<21) != 0
	signed := instr&(1<<22) != 0

	var result uint64
	if signed {
		result = uint64(int64(int32(c.rf.Read(rm))) * int64(int32(c.rf.Read(rs))))
	} else {
		result = uint64(c.rf.Read(rm)) * uint64(c.rf.Read(rs))
	}
	if accumulate {
		result += uint64(c.rf.Read(rdHi))<<32 | uint64(c.rf.Read(rdLo))
	}
	c.WriteReg(rdLo, uint32(result))
	c.WriteReg(rdHi, uint32(result>>32))
	if sBit {
		cpsr := c.rf.CPSR() &^ (FlagN | FlagZ)
		if result&0x8000000000000000 != 0 {
			cpsr |= FlagN
		}
		if result == 0 {
			cpsr |= FlagZ
		}
		c.rf.SetCPSRFlagsPreservingMode(cpsr)
	}
}

// armSwap implements SWP/SWPB: atomic (within this single-threaded
// core, trivially so) load-then-store of a word or byte.
func armSwap(c *Core, instr uint32) {
	rn := int((instr >> 16) & 0xF)
	rd := int((instr >> 12) & 0xF)
	rm := int(instr & 0xF)
	byteSwap := instr&(1<<22) != 0
	addr := c.rf.Read(rn)

	if byteSwap {
		old, ok := c.ReadMem8(addr)
		if !ok {
			return
		}
		if !c.WriteMem8(addr, uint8(c.rf.Read(rm))) {
			return
		}
		c.WriteReg(rd, uint32(old))
		return
	}
	old, ok := c.ReadMem32(addr)
	if !ok {
		return
	}
	old = rotateRight32(old, uint(8*(addr&3)))
	if !c.WriteMem32(addr, c.rf.Read(rm)) {
		return
	}
	c.WriteReg(rd, old)
}

// Saturating-arithmetic ops, bits 22:21 of the QADD/QSUB family.
const (
	qopADD  = 0x0
	qopSUB  = 0x1
	qopDADD = 0x2
	qopDSUB = 0x3
)

// armSaturatingArith implements QADD/QSUB/QDADD/QDSUB (v5TE,
// FlagEnhancedDSP only): Rd = sat(Rm + Rn) or sat(Rm - Rn), with the
// "D" forms doubling-and-saturating Rn first. Any saturation anywhere
// in the computation sets CPSR.Q and it stays set until software
// clears it. Apart from this, only an MSR to the CPSR flags field
// writes FlagQ.
func armSaturatingArith(c *Core, instr uint32) {
	rn := int((instr >> 16) & 0xF)
	rd := int((instr >> 12) & 0xF)
	rm := int(instr & 0xF)
	op := (instr >> 21) & 0x3

	m := int64(int32(c.rf.Read(rm)))
	n := int64(int32(c.rf.Read(rn)))
	saturated := false

	if op == qopDADD || op == qopDSUB {
		doubled, sat := saturateSigned(n * 2)
		n = int64(int32(doubled))
		saturated = saturated || sat
	}

	var result int64
	switch op {
	case qopADD, qopDADD:
		result = m + n
	case qopSUB, qopDSUB:
		result = m - n
	}

	out, sat := saturateSigned(result)
	saturated = saturated || sat

	if saturated {
		c.rf.SetCPSRFlagsPreservingMode(c.rf.CPSR() | FlagQ)
	}
	c.WriteReg(rd, out)
}

// armHalfwordSignedTransfer implements LDRH/STRH/LDRSB/LDRSH with
// register or immediate offset, pre/post-indexed.
func armHalfwordSignedTransfer(c *Core, instr uint32) {
	rn := int((instr >> 16) & 0xF)
	rd := int((instr >> 12) & 0xF)
	preIndex := instr&(1<<24) != 0
	up := instr&(1<<23) != 0
	immOffset := instr&(1<<22) != 0
	writeback := instr&(1<<21) != 0
	load := instr&(1<<20) != 0
	sh := (instr >> 5) & 3

	var offset uint32
	if immOffset {
		offset = ((instr >> 8) & 0xF << 4) | (instr & 0xF)
	} else {
		offset = c.rf.Read(int(instr & 0xF))
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
		switch sh {
		case 1: // unsigned halfword
			v, ok := c.ReadMem16(addr)
			if !ok {
				return
			}
			c.WriteReg(rd, uint32(v))
		case 2: // signed byte
			v, ok := c.ReadMem8(addr)
			if !ok {
				return
			}
			c.WriteReg(rd, uint32(int32(int8(v))))
		case 3: // signed halfword
			v, ok := c.ReadMem16(addr)
			if !ok {
				return
			}
			c.WriteReg(rd, uint32(int32(int16(v))))
		}
	} else {
		if !c.WriteMem16(addr, uint16(c.rf.Read(rd))) {
			return
		}
	}

	if !preIndex {
		if up {
			addr = base + offset
		} else {
			addr = base - offset
		}
	}
	if writeback || !preIndex {
		c.WriteReg(rn, addr)
	}
}
