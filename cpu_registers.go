// cpu_registers.go - register file and processor-mode machine.
//
// Physical storage is a flat 37-slot array; each of the six register
// banks (User and System share one) gets a 16-entry permutation that
// maps architectural register
// index (0-15) to a physical slot. switch_mode only ever repoints the
// active permutation - it never copies register values - which is how
// FIQ's R8-R14 bank and the other modes' R13/R14 banks stay intact
// across mode changes without an explicit save/restore step. This
// generalizes the teacher's single-shadow-bank swap
// (cpu_z80.go:exchangeRegisters, which swaps A/F/B/C/D/E/H/L with their
// primed shadows) to six banks addressed by an indirection table, per
// SPEC_FULL.md's design note.

package arm

import "fmt"

// CPSR/SPSR bit layout.
const (
	FlagN = uint32(1) << 31
	FlagZ = uint32(1) << 30
	FlagC = uint32(1) << 29
	FlagV = uint32(1) << 28
	FlagQ = uint32(1) << 27 // v5E only

	FlagI = uint32(1) << 7
	FlagF = uint32(1) << 6
	FlagT = uint32(1) << 5

	ModeFieldMask = uint32(0x1F)
)

// Processor mode field values (CPSR[4:0]).
const (
	ModeUser       = uint32(0x10)
	ModeFIQ        = uint32(0x11)
	ModeIRQ        = uint32(0x12)
	ModeSupervisor = uint32(0x13)
	ModeAbort      = uint32(0x17)
	ModeUndefined  = uint32(0x1B)
	ModeSystem     = uint32(0x1F)
)

// Internal mode-bank indices, one per distinct register bank. User and
// System share the usr/sys bank.
const (
	bankUser = iota
	bankFIQ
	bankIRQ
	bankSVC
	bankABT
	bankUND
	bankCount
)

// Physical slot layout within RegisterFile.slots.
const (
	slotR0 = iota // 0..7: R0-R7, shared by every mode
	slotR1
	slotR2
	slotR3
	slotR4
	slotR5
	slotR6
	slotR7
	slotR8Usr // 8..12: R8-R12, shared by every mode except FIQ
	slotR9Usr
	slotR10Usr
	slotR11Usr
	slotR12Usr
	slotR8Fiq // 13..17: R8-R12, FIQ bank only
	slotR9Fiq
	slotR10Fiq
	slotR11Fiq
	slotR12Fiq
	slotR13Usr // 18..29: banked R13/R14, one pair per bank
	slotR14Usr
	slotR13Fiq
	slotR14Fiq
	slotR13Irq
	slotR14Irq
	slotR13Svc
	slotR14Svc
	slotR13Abt
	slotR14Abt
	slotR13Und
	slotR14Und
	slotR15  // 30: program counter, shared by every mode
	slotCPSR // 31
	slotSPSRFiq
	slotSPSRIrq
	slotSPSRSvc
	slotSPSRAbt
	slotSPSRUnd
	slotCount // 37
)

// view is the per-mode register-index -> physical-slot permutation.
type view [16]int

// RegisterFile holds the flat backing store plus the bank-indexed view
// table (see bankOf for the mode-to-bank mapping).
type RegisterFile struct {
	slots [slotCount]uint32
	views [bankCount]view

	mode uint32 // current CPSR mode field
	bank int    // current bankXxx index (view cache)
}

func bankOf(mode uint32) int {
	switch mode {
	case ModeFIQ:
		return bankFIQ
	case ModeIRQ:
		return bankIRQ
	case ModeSupervisor:
		return bankSVC
	case ModeAbort:
		return bankABT
	case ModeUndefined:
		return bankUND
	default: // User, System
		return bankUser
	}
}

func spsrSlotOf(bank int) (int, bool) {
	switch bank {
	case bankFIQ:
		return slotSPSRFiq, true
	case bankIRQ:
		return slotSPSRIrq, true
	case bankSVC:
		return slotSPSRSvc, true
	case bankABT:
		return slotSPSRAbt, true
	case bankUND:
		return slotSPSRUnd, true
	default:
		return 0, false
	}
}

// NewRegisterFile builds the six bank views and resets to the
// power-on state (Supervisor, I and F set, PC at 0).
func NewRegisterFile() *RegisterFile {
	rf := &RegisterFile{}
	rf.buildViews()
	rf.Reset(0)
	return rf
}

func (rf *RegisterFile) buildViews() {
	for b := 0; b < bankCount; b++ {
		v := &rf.views[b]
		for r := 0; r < 8; r++ {
			v[r] = slotR0 + r
		}
		if b == bankFIQ {
			for r := 8; r <= 12; r++ {
				v[r] = slotR8Fiq + (r - 8)
			}
			v[13] = slotR13Fiq
			v[14] = slotR14Fiq
		} else {
			for r := 8; r <= 12; r++ {
				v[r] = slotR8Usr + (r - 8)
			}
			switch b {
			case bankIRQ:
				v[13], v[14] = slotR13Irq, slotR14Irq
			case bankSVC:
				v[13], v[14] = slotR13Svc, slotR14Svc
			case bankABT:
				v[13], v[14] = slotR13Abt, slotR14Abt
			case bankUND:
				v[13], v[14] = slotR13Und, slotR14Und
			default: // bankUser (User and System)
				v[13], v[14] = slotR13Usr, slotR14Usr
			}
		}
		v[15] = slotR15
	}
}

// Reset re-initializes to Supervisor mode with I and F set and PC =
// vectorBase, per spec.md §3 "Lifecycles".
func (rf *RegisterFile) Reset(vectorBase uint32) {
	for i := range rf.slots {
		rf.slots[i] = 0
	}
	rf.mode = ModeSupervisor
	rf.bank = bankSVC
	rf.slots[slotCPSR] = ModeSupervisor | FlagI | FlagF
	rf.slots[slotR15] = vectorBase
}

// CurrentMode returns the CPSR mode field.
func (rf *RegisterFile) CurrentMode() uint32 { return rf.mode }

// Read returns the raw stored value of architectural register r (0-15)
// under the current mode's view. It does not apply the PC-ahead
// convention for R15 - callers that need PC-as-operand semantics use
// ReadPCOperand.
func (rf *RegisterFile) Read(r int) uint32 {
	return rf.slots[rf.views[rf.bank][r]]
}

// Write stores val into architectural register r under the current
// mode's view. Writing R15 does not flush the prefetch queue by
// itself - Core.WriteReg does that, since RegisterFile has no notion of
// the prefetch pipeline.
func (rf *RegisterFile) Write(r int, val uint32) {
	rf.slots[rf.views[rf.bank][r]] = val
}

// ReadPCOperand returns R15 as it appears to an executing instruction:
// PC+8 in ARM state (two pipeline stages ahead), PC+4 in Thumb state,
// per spec.md §4.1. The stored slot is already the fetch-advanced
// address (stepARM/stepThumb set it to the current instruction's
// address plus one instruction size before dispatch), so only one more
// instruction size is added here to reach the architectural PC+8/PC+4
// convention - adding the full 8/4 on top of the already-advanced value
// would double-count the first instruction size.
func (rf *RegisterFile) ReadPCOperand(thumb bool) uint32 {
	pc := rf.slots[slotR15]
	if thumb {
		return pc + 2
	}
	return pc + 4
}

// CPSR returns the current program status word.
func (rf *RegisterFile) CPSR() uint32 { return rf.slots[slotCPSR] }

// SetCPSR stores a new CPSR value and, if the mode field changed,
// switches the active register bank to match - preserving invariant 1
// of spec.md §3 ("CPSR mode field and the active register-view pointer
// agree").
func (rf *RegisterFile) SetCPSR(val uint32) {
	rf.slots[slotCPSR] = val
	rf.SwitchMode(val & ModeFieldMask)
}

// SwitchMode repoints the active view to newMode's bank and updates the
// CPSR mode field to match. It is a no-op on the underlying register
// values themselves - see the package comment.
func (rf *RegisterFile) SwitchMode(newMode uint32) {
	rf.mode = newMode
	rf.bank = bankOf(newMode)
	rf.slots[slotCPSR] = (rf.slots[slotCPSR] &^ ModeFieldMask) | newMode
}

// SetCPSRFlagsPreservingMode overwrites CPSR with val without
// re-deriving the active bank, for callers (the exception engine) that
// have already called SwitchMode and only need to set flag bits
// afterwards.
func (rf *RegisterFile) SetCPSRFlagsPreservingMode(val uint32) {
	rf.slots[slotCPSR] = val
}

// ReadSPSR returns the saved program status register for the current
// mode. In User or System mode SPSR is architecturally undefined; this
// core follows spec.md §4.1's documented compatibility quirk and
// returns CPSR instead of faulting, logging through log so the
// fallback is visible without being fatal (DESIGN.md Open Question 3).
func (rf *RegisterFile) ReadSPSR(log Logger) uint32 {
	slot, ok := spsrSlotOf(rf.bank)
	if !ok {
		log.Printf("arm: SPSR read in mode %#x (User/System); returning CPSR", rf.mode)
		return rf.slots[slotCPSR]
	}
	return rf.slots[slot]
}

// WriteSPSR stores val into the current mode's SPSR. In User/System
// mode there is no SPSR to write to; the write is silently discarded
// (logged), matching the same fallback policy as ReadSPSR.
func (rf *RegisterFile) WriteSPSR(log Logger, val uint32) {
	slot, ok := spsrSlotOf(rf.bank)
	if !ok {
		log.Printf("arm: SPSR write in mode %#x (User/System); discarded", rf.mode)
		return
	}
	rf.slots[slot] = val
}

// ReadUserBank reads architectural register r using the User/System
// bank regardless of the current mode. Used by LDM/STM with the S-bit
// set and R15 absent from the register list, per spec.md §4.5.
func (rf *RegisterFile) ReadUserBank(r int) uint32 {
	return rf.slots[rf.views[bankUser][r]]
}

// WriteUserBank is the write counterpart of ReadUserBank.
func (rf *RegisterFile) WriteUserBank(r int, val uint32) {
	rf.slots[rf.views[bankUser][r]] = val
}

// PC returns the raw program counter (not PC-as-operand).
func (rf *RegisterFile) PC() uint32 { return rf.slots[slotR15] }

// SetPC stores a new program counter value directly, bypassing the
// normal Write(15, ...) path used by instruction semantics; Core uses
// this after alignment-masking a branch target.
func (rf *RegisterFile) SetPC(val uint32) { rf.slots[slotR15] = val }

// String renders a one-line register dump, in the teacher's
// fmt.Sprintf diagnostic style (cpu_m68k.go's status printer).
func (rf *RegisterFile) String() string {
	return fmt.Sprintf("PC=%08X CPSR=%08X mode=%#x", rf.slots[slotR15], rf.slots[slotCPSR], rf.mode)
}
