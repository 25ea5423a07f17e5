// thumb_ops.go - semantics for every Thumb instruction family
// decode_thumb.go dispatches to, per spec.md §4.6.

package arm

func thumbShiftImm(c *Core, op uint16) {
	kind := int((op >> 11) & 3)
	amount := uint((op >> 6) & 0x1F)
	rs := int((op >> 3) & 7)
	rd := int(op & 7)
	carryIn := c.rf.CPSR()&FlagC != 0

	var res shiftResult
	switch kind {
	case ShiftLSL:
		res = shiftLSLImm(c.rf.Read(rs), amount, carryIn)
	case ShiftLSR:
		if amount == 0 {
			res = shiftLSRImm(c.rf.Read(rs), 0, carryIn) // LSR #0 means LSR #32
		} else {
			res = shiftLSRImm(c.rf.Read(rs), amount, carryIn)
		}
	default: // ShiftASR
		res = shiftASRImm(c.rf.Read(rs), amount, carryIn)
	}
	c.WriteReg(rd, res.value)
	setThumbLogicalFlags(c, res.value, res.carryOut)
}

func thumbAddSub3(c *Core, op uint16) {
	immediate := op&(1<<10) != 0
	subtract := op&(1<<9) != 0
	rs := int((op >> 3) & 7)
	rd := int(op & 7)

	var b uint32
	if immediate {
		b = uint32((op >> 6) & 7)
	} else {
		b = c.rf.Read(int((op >> 6) & 7))
	}
	a := c.rf.Read(rs)

	var result uint32
	var n, z, cf, v bool
	if subtract {
		result, n, z, cf, v = flagsFromSub(a, b, false)
	} else {
		result, n, z, cf, v = flagsFromAdd(a, b, false)
	}
	c.WriteReg(rd, result)
	setThumbNZCV(c, n, z, cf, v)
}

func thumbImmediateOp(c *Core, op uint16) {
	kind := (op >> 11) & 3 // 0=MOV 1=CMP 2=ADD 3=SUB
	rd := int((op >> 8) & 7)
	imm := uint32(op & 0xFF)

	switch kind {
	case 0:
		c.WriteReg(rd, imm)
		setThumbLogicalFlags(c, imm, c.rf.CPSR()&FlagC != 0)
	case 1:
		result, n, z, cf, v := flagsFromSub(c.rf.Read(rd), imm, false)
		_ = result
		setThumbNZCV(c, n, z, cf, v)
	case 2:
		result, n, z, cf, v := flagsFromAdd(c.rf.Read(rd), imm, false)
		c.WriteReg(rd, result)
		setThumbNZCV(c, n, z, cf, v)
	default:
		result, n, z, cf, v := flagsFromSub(c.rf.Read(rd), imm, false)
		c.WriteReg(rd, result)
		setThumbNZCV(c, n, z, cf, v)
	}
}

// Thumb ALU op selectors (bits 9:6 of a 010000xx instruction).
const (
	thAND = 0x0
	thEOR = 0x1
	thLSL = 0x2
	thLSR = 0x3
	thASR = 0x4
	thADC = 0x5
	thSBC = 0x6
	thROR = 0x7
	thTST = 0x8
	thNEG = 0x9
	thCMP = 0xA
	thCMN = 0xB
	thORR = 0xC
	thMUL = 0xD
	thBIC = 0xE
	thMVN = 0xF
)

func thumbALU(c *Core, op uint16) {
	kind := (op >> 6) & 0xF
	rs := int((op >> 3) & 7)
	rd := int(op & 7)
	a := c.rf.Read(rd)
	b := c.rf.Read(rs)
	carryIn := c.rf.CPSR()&FlagC != 0

	switch kind {
	case thAND:
		r := a & b
		c.WriteReg(rd, r)
		setThumbLogicalFlags(c, r, carryIn)
	case thEOR:
		r := a ^ b
		c.WriteReg(rd, r)
		setThumbLogicalFlags(c, r, carryIn)
	case thLSL:
		res := shiftByAmount(ShiftLSL, a, uint(b&0xFF), carryIn, false)
		c.WriteReg(rd, res.value)
		setThumbLogicalFlags(c, res.value, res.carryOut)
	case thLSR:
		res := shiftByAmount(ShiftLSR, a, uint(b&0xFF), carryIn, false)
		c.WriteReg(rd, res.value)
		setThumbLogicalFlags(c, res.value, res.carryOut)
	case thASR:
		res := shiftByAmount(ShiftASR, a, uint(b&0xFF), carryIn, false)
		c.WriteReg(rd, res.value)
		setThumbLogicalFlags(c, res.value, res.carryOut)
	case thADC:
		r, n, z, cf, v := flagsFromAdd(a, b, carryIn)
		c.WriteReg(rd, r)
		setThumbNZCV(c, n, z, cf, v)
	case thSBC:
		r, n, z, cf, v := flagsFromSub(a, b, !carryIn)
		c.WriteReg(rd, r)
		setThumbNZCV(c, n, z, cf, v)
	case thROR:
		res := shiftByAmount(ShiftROR, a, uint(b&0xFF), carryIn, false)
		c.WriteReg(rd, res.value)
		setThumbLogicalFlags(c, res.value, res.carryOut)
	case thTST:
		setThumbLogicalFlags(c, a&b, carryIn)
	case thNEG:
		r, n, z, cf, v := flagsFromSub(0, b, false)
		c.WriteReg(rd, r)
		setThumbNZCV(c, n, z, cf, v)
	case thCMP:
		_, n, z, cf, v := flagsFromSub(a, b, false)
		setThumbNZCV(c, n, z, cf, v)
	case thCMN:
		_, n, z, cf, v := flagsFromAdd(a, b, false)
		setThumbNZCV(c, n, z, cf, v)
	case thORR:
		r := a | b
		c.WriteReg(rd, r)
		setThumbLogicalFlags(c, r, carryIn)
	case thMUL:
		r := a * b
		c.WriteReg(rd, r)
		setThumbLogicalFlags(c, r, carryIn)
	case thBIC:
		r := a &^ b
		c.WriteReg(rd, r)
		setThumbLogicalFlags(c, r, carryIn)
	default: // thMVN
		r := ^b
		c.WriteReg(rd, r)
		setThumbLogicalFlags(c, r, carryIn)
	}
}

func thumbHiRegOrBranchExchange(c *Core, op uint16) {
	kind := (op >> 8) & 3
	h1 := op&(1<<7) != 0
	h2 := op&(1<<6) != 0
	rs := int((op >> 3) & 7)
	rd := int(op & 7)
	if h1 {
		rd += 8
	}
	if h2 {
		rs += 8
	}

	switch kind {
	case 0: // ADD
		c.WriteReg(rd, c.operandThumbHi(rd)+c.operandThumbHi(rs))
	case 1: // CMP
		_, n, z, cf, v := flagsFromSub(c.operandThumbHi(rd), c.operandThumbHi(rs), false)
		setThumbNZCV(c, n, z, cf, v)
	case 2: // MOV
		c.WriteReg(rd, c.operandThumbHi(rs))
	default: // BX / BLX
		target := c.operandThumbHi(rs)
		if h1 { // BLX (v5): h1 set distinguishes BLX from BX in this encoding slot
			c.WriteReg(14, c.rf.PC()|1)
		}
		c.BranchExchange(target)
	}
}

// operandThumbHi reads a register as a hi-register ALU operand,
// applying the PC-as-operand convention (Thumb: PC+4) for r==15.
func (c *Core) operandThumbHi(r int) uint32 {
	if r == 15 {
		return c.rf.ReadPCOperand(true) &^ 3 // word-aligned, ARM ARM A7.1.20
	}
	return c.rf.Read(r)
}

func thumbPCRelativeLoad(c *Core, op uint16) {
	rd := int((op >> 8) & 7)
	imm := uint32(op&0xFF) << 2
	base := (c.rf.ReadPCOperand(true) &^ 3)
	v, ok := c.ReadMem32(base + imm)
	if !ok {
		return
	}
	c.WriteReg(rd, v)
}

func thumbLoadStoreRegOffset(c *Core, op uint16) {
	load := op&(1<<11) != 0
	byteAccess := op&(1<<10) != 0
	ro := int((op >> 6) & 7)
	rb := int((op >> 3) & 7)
	rd := int(op & 7)
	addr := c.rf.Read(rb) + c.rf.Read(ro)

	if load {
		if byteAccess {
			v, ok := c.ReadMem8(addr)
			if !ok {
				return
			}
			c.WriteReg(rd, uint32(v))
		} else {
			v, ok := c.ReadMem32(addr)
			if !ok {
				return
			}
			c.WriteReg(rd, rotateRight32(v, uint(8*(addr&3))))
		}
	} else if byteAccess {
		c.WriteMem8(addr, uint8(c.rf.Read(rd)))
	} else {
		c.WriteMem32(addr, c.rf.Read(rd))
	}
}

func thumbLoadStoreSignExtended(c *Core, op uint16) {
	opc := (op >> 10) & 3 // 0=STRH 1=LDSB 2=LDRH 3=LDSH
	ro := int((op >> 6) & 7)
	rb := int((op >> 3) & 7)
	rd := int(op & 7)
	addr := c.rf.Read(rb) + c.rf.Read(ro)

	switch opc {
	case 0:
		c.WriteMem16(addr, uint16(c.rf.Read(rd)))
	case 1:
		v, ok := c.ReadMem8(addr)
		if !ok {
			return
		}
		c.WriteReg(rd, uint32(int32(int8(v))))
	case 2:
		v, ok := c.ReadMem16(addr)
		if !ok {
			return
		}
		c.WriteReg(rd, uint32(v))
	default:
		v, ok := c.ReadMem16(addr)
		if !ok {
			return
		}
		c.WriteReg(rd, uint32(int32(int16(v))))
	}
}

func thumbLoadStoreImmOffset(c *Core, op uint16) {
	byteAccess := op&(1<<12) != 0
	load := op&(1<<11) != 0
	var imm uint32
	if byteAccess {
		imm = uint32((op >> 6) & 0x1F)
	} else {
		imm = uint32((op>>6)&0x1F) << 2
	}
	rb := int((op >> 3) & 7)
	rd := int(op & 7)
	addr := c.rf.Read(rb) + imm

	if load {
		if byteAccess {
			v, ok := c.ReadMem8(addr)
			if !ok {
				return
			}
			c.WriteReg(rd, uint32(v))
		} else {
			v, ok := c.ReadMem32(addr)
			if !ok {
				return
			}
			c.WriteReg(rd, rotateRight32(v, uint(8*(addr&3))))
		}
	} else if byteAccess {
		c.WriteMem8(addr, uint8(c.rf.Read(rd)))
	} else {
		c.WriteMem32(addr, c.rf.Read(rd))
	}
}

func thumbLoadStoreHalfImm(c *Core, op uint16) {
	load := op&(1<<11) != 0
	imm := uint32((op>>6)&0x1F) << 1
	rb := int((op >> 3) & 7)
	rd := int(op & 7)
	addr := c.rf.Read(rb) + imm

	if load {
		v, ok := c.ReadMem16(addr)
		if !ok {
			return
		}
		c.WriteReg(rd, uint32(v))
	} else {
		c.WriteMem16(addr, uint16(c.rf.Read(rd)))
	}
}

func thumbSPRelativeLoadStore(c *Core, op uint16) {
	load := op&(1<<11) != 0
	rd := int((op >> 8) & 7)
	imm := uint32(op&0xFF) << 2
	addr := c.rf.Read(13) + imm

	if load {
		v, ok := c.ReadMem32(addr)
		if !ok {
			return
		}
		c.WriteReg(rd, rotateRight32(v, uint(8*(addr&3))))
	} else {
		c.WriteMem32(addr, c.rf.Read(rd))
	}
}

func thumbLoadAddress(c *Core, op uint16) {
	spSource := op&(1<<11) != 0
	rd := int((op >> 8) & 7)
	imm := uint32(op&0xFF) << 2

	var base uint32
	if spSource {
		base = c.rf.Read(13)
	} else {
		base = c.rf.ReadPCOperand(true) &^ 3
	}
	c.WriteReg(rd, base+imm)
}

func thumbAdjustSP(c *Core, op uint16) {
	negative := op&(1<<7) != 0
	imm := uint32(op&0x7F) << 2
	sp := c.rf.Read(13)
	if negative {
		c.WriteReg(13, sp-imm)
	} else {
		c.WriteReg(13, sp+imm)
	}
}

func thumbPushPop(c *Core, op uint16) {
	load := op&(1<<11) != 0
	includeLRorPC := op&(1<<8) != 0
	regList := uint8(op & 0xFF)

	if load {
		sp := c.rf.Read(13)
		for r := 0; r < 8; r++ {
			if regList&(1<<r) == 0 {
				continue
			}
			v, ok := c.ReadMem32(sp)
			if !ok {
				return
			}
			c.WriteReg(r, v)
			sp += 4
		}
		if includeLRorPC {
			v, ok := c.ReadMem32(sp)
			if !ok {
				return
			}
			c.WriteReg(15, v&^1)
			sp += 4
		}
		c.WriteReg(13, sp)
		return
	}

	count := 0
	for r := 0; r < 8; r++ {
		if regList&(1<<r) != 0 {
			count++
		}
	}
	if includeLRorPC {
		count++
	}
	sp := c.rf.Read(13) - uint32(count)*4
	base := sp
	for r := 0; r < 8; r++ {
		if regList&(1<<r) == 0 {
			continue
		}
		if !c.WriteMem32(base, c.rf.Read(r)) {
			return
		}
		base += 4
	}
	if includeLRorPC {
		if !c.WriteMem32(base, c.rf.Read(14)) {
			return
		}
	}
	c.WriteReg(13, sp)
}

func thumbLoadStoreMultiple(c *Core, op uint16) {
	load := op&(1<<11) != 0
	rb := int((op >> 8) & 7)
	regList := uint8(op & 0xFF)
	addr := c.rf.Read(rb)

	count := 0
	for r := 0; r < 8; r++ {
		if regList&(1<<r) != 0 {
			count++
		}
	}

	for r := 0; r < 8; r++ {
		if regList&(1<<r) == 0 {
			continue
		}
		if load {
			v, ok := c.ReadMem32(addr)
			if !ok {
				return
			}
			c.WriteReg(r, v)
		} else {
			if !c.WriteMem32(addr, c.rf.Read(r)) {
				return
			}
		}
		addr += 4
	}
	c.WriteReg(rb, c.rf.Read(rb)+uint32(count)*4)
}

func thumbConditionalBranch(c *Core, op uint16) {
	cond := uint32((op >> 8) & 0xF)
	if !condPassed(cond, c.rf.CPSR()) {
		return
	}
	offset := int32(int8(op & 0xFF)) << 1
	c.WriteReg(15, c.rf.ReadPCOperand(true)+uint32(offset))
	c.modeChanged = true
}

func thumbUnconditionalBranch(c *Core, op uint16) {
	offset := (int32(op&0x7FF) << 21) >> 20 // sign-extend 11-bit <<1
	c.WriteReg(15, c.rf.ReadPCOperand(true)+uint32(offset))
	c.modeChanged = true
}

// thumbBranchLinkPrefix stashes the sign-extended high 11 bits of a
// BL/BLX 32-bit target into LR, per the classic two-halfword BL
// encoding (ARM ARM A6.2.3). LR carries the partial target between the
// prefix and suffix halfwords, which is safe because Thumb BL/BLX is
// always exactly two consecutive halfwords with no interrupt boundary
// between them in this core's single-step model.
func thumbBranchLinkPrefix(c *Core, op uint16) {
	offsetHigh := int32(op&0x7FF) << 21 >> 9 // sign-extended, pre-shifted into bits 22..12
	c.rf.Write(14, c.rf.ReadPCOperand(true)+uint32(offsetHigh))
}

func thumbBranchLinkSuffix(c *Core, op uint16) {
	blx := op&0xF800 == 0xE800 // BLX suffix (v5); 0xF800 pattern is plain BL
	offsetLow := uint32(op&0x7FF) << 1
	target := c.rf.Read(14) + offsetLow
	ret := c.rf.PC() | 1 // link value must keep Thumb state for a later BX LR
	c.WriteReg(14, ret)
	if blx {
		c.BranchExchange(target &^ 1)
		return
	}
	c.WriteReg(15, target)
	c.modeChanged = true
}

func setThumbLogicalFlags(c *Core, result uint32, carryOut bool) {
	cpsr := c.rf.CPSR() &^ (FlagN | FlagZ | FlagC)
	if result&0x80000000 != 0 {
		cpsr |= FlagN
	}
	if result == 0 {
		cpsr |= FlagZ
	}
	if carryOut {
		cpsr |= FlagC
	}
	c.rf.SetCPSRFlagsPreservingMode(cpsr)
}

func setThumbNZCV(c *Core, n, z, cf, v bool) {
	cpsr := c.rf.CPSR() &^ (FlagN | FlagZ | FlagC | FlagV)
	if n {
		cpsr |= FlagN
	}
	if z {
		cpsr |= FlagZ
	}
	if cf {
		cpsr |= FlagC
	}
	if v {
		cpsr |= FlagV
	}
	c.rf.SetCPSRFlagsPreservingMode(cpsr)
}
