package arm

// Instruction encoders used only by tests, mirroring the bit layouts the
// decode_arm_instr.go/arm_*.go handlers themselves consume (cond in bits
// 31:28, the I/op/S/Rn/Rd/operand2 fields at the positions documented in
// arm_dataproc.go, arm_transfer.go, arm_block.go and arm_branch.go).

const condAL = 0xE
const condEQ = 0x0
const condNE = 0x1

// encDPImm builds a data-processing instruction with an immediate
// operand2 (rotate applied per shifterOperand's rot*2 convention).
func encDPImm(cond, op uint32, s bool, rn, rd, rot, imm8 uint32) uint32 {
	w := cond<<28 | 1<<25 | op<<21 | rn<<16 | rd<<12 | rot<<8 | imm8
	if s {
		w |= 1 << 20
	}
	return w
}

// encDPReg builds a data-processing instruction whose operand2 is a bare
// register (no shift: LSL #0).
func encDPReg(cond, op uint32, s bool, rn, rd, rm uint32) uint32 {
	w := cond<<28 | op<<21 | rn<<16 | rd<<12 | rm
	if s {
		w |= 1 << 20
	}
	return w
}

// encDPRegShiftImm builds a data-processing instruction with operand2 =
// Rm shifted by an immediate amount.
func encDPRegShiftImm(cond, op uint32, s bool, rn, rd, rm, shiftKind, amount uint32) uint32 {
	w := cond<<28 | op<<21 | rn<<16 | rd<<12 | amount<<7 | shiftKind<<5 | rm
	if s {
		w |= 1 << 20
	}
	return w
}

// encB builds B/BL with a word-granularity signed offset (already
// divided by 4, i.e. the architectural imm24 field).
func encB(cond uint32, link bool, imm24 uint32) uint32 {
	w := cond<<28 | 0x5<<25 | (imm24 & 0xFFFFFF)
	if link {
		w |= 1 << 24
	}
	return w
}

// encBX builds BX Rm.
func encBX(cond, rm uint32) uint32 {
	return cond<<28 | 0x012FFF10 | rm
}

// encBLXReg builds v5's BLX Rm.
func encBLXReg(cond, rm uint32) uint32 {
	return cond<<28 | 0x012FFF30 | rm
}

// encSingleTransfer builds LDR/STR{B} with an immediate offset.
func encSingleTransfer(cond uint32, load, byteAccess, preIndex, up, writeback bool, rn, rd, imm12 uint32) uint32 {
	w := cond<<28 | 0x01<<26 | rn<<16 | rd<<12 | (imm12 & 0xFFF)
	if load {
		w |= 1 << 20
	}
	if byteAccess {
		w |= 1 << 22
	}
	if preIndex {
		w |= 1 << 24
	}
	if up {
		w |= 1 << 23
	}
	if writeback {
		w |= 1 << 21
	}
	return w
}

// encBlockTransfer builds LDM/STM.
func encBlockTransfer(cond uint32, load, writeback, sBit, up, preIndex bool, rn uint32, regList uint32) uint32 {
	w := cond<<28 | 0x4<<25 | rn<<16 | (regList & 0xFFFF)
	if load {
		w |= 1 << 20
	}
	if writeback {
		w |= 1 << 21
	}
	if sBit {
		w |= 1 << 22
	}
	if up {
		w |= 1 << 23
	}
	if preIndex {
		w |= 1 << 24
	}
	return w
}

// encSWI builds SWI #imm24.
func encSWI(cond, imm24 uint32) uint32 {
	return cond<<28 | 0xF<<24 | (imm24 & 0xFFFFFF)
}

// encThumbB builds an unconditional Thumb B <label> (format: 11100
// offset11, offset already halfword-granularity signed 11-bit field).
func encThumbB(offset11 uint32) uint16 {
	return uint16(0xE000 | (offset11 & 0x7FF))
}

// encThumbBX builds Thumb BX Rm (format 010001_11_0 Rm(4) 000).
func encThumbBX(rm uint32) uint16 {
	return uint16(0x4700 | (rm&0xF)<<3)
}

// encThumbMovImm builds Thumb MOV Rd, #imm8 (format 00100 Rd(3) imm8).
func encThumbMovImm(rd, imm8 uint32) uint16 {
	return uint16(0x2000 | (rd&7)<<8 | (imm8 & 0xFF))
}
