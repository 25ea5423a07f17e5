// exceptions.go - exception delivery pipeline: pending-flag bookkeeping
// and priority-ordered vector entry, per spec.md §4.7.
//
// Grounded on cpu_m68k.go's ProcessException/pendingException machinery
// (an atomic pending-vector word, a vector-table base register, and a
// handler that pushes the saved PC/SR and jumps through the vector
// table) - adapted from M68K's single prioritized vector number and
// stack-frame push to ARM's six independent pending flags, fixed
// 8-vector table, and banked-LR/SPSR capture instead of a stack push.

package arm

// PendingExceptions holds the six latched exception requests; the
// "any pending" aggregate is computed by Any rather than stored.
type PendingExceptions struct {
	IRQ           bool
	FIQ           bool
	DataAbort     bool
	PrefetchAbort bool
	Undefined     bool
	SWI           bool
}

// Any reports whether any exception is pending, recomputed from the
// individual flags rather than cached, so it can never drift out of
// sync with them (spec.md §3 invariant 6).
func (p *PendingExceptions) Any() bool {
	return p.IRQ || p.FIQ || p.DataAbort || p.PrefetchAbort || p.Undefined || p.SWI
}

// Vector table offsets (ARM ARM A2-18).
const (
	vecReset          = 0x00
	vecUndefined      = 0x04
	vecSWI            = 0x08
	vecPrefetchAbort  = 0x0C
	vecDataAbort      = 0x10
	vecIRQ            = 0x18
	vecFIQ            = 0x1C
)

// ExceptionKind identifies which of the six architectural exceptions
// was serviced by the most recent Service call.
type ExceptionKind int

const (
	ExcNone ExceptionKind = iota
	ExcDataAbort
	ExcFIQ
	ExcIRQ
	ExcPrefetchAbort
	ExcUndefined
	ExcSWI
)

type exceptionSpec struct {
	vector     uint32
	targetMode uint32
	setF       bool
}

var exceptionSpecs = map[ExceptionKind]exceptionSpec{
	ExcDataAbort:     {vecDataAbort, ModeAbort, false},
	ExcFIQ:           {vecFIQ, ModeFIQ, true},
	ExcIRQ:           {vecIRQ, ModeIRQ, false},
	ExcPrefetchAbort: {vecPrefetchAbort, ModeAbort, false},
	ExcUndefined:     {vecUndefined, ModeUndefined, false},
	ExcSWI:           {vecSWI, ModeSupervisor, false},
}

// ExceptionEngine has no state of its own; it operates on the
// RegisterFile and PendingExceptions Core owns. It is a value type
// purely for documentation/grouping, matching the teacher's convention
// of giving each concern its own small receiver type even when that
// type carries no fields (e.g. debug_conditions.go's parser helpers).
type ExceptionEngine struct{}

// Service checks pending exceptions in priority order (Data Abort, FIQ,
// IRQ, Prefetch Abort, Undefined, SWI - Reset is handled directly by
// Core.Reset and never reaches here) and, if one is pending, delivers
// it: computes the saved-PC offset, switches mode, banks LR and SPSR,
// masks interrupts, clears T, and sets PC to the vector. Returns the
// kind serviced, or ExcNone if nothing was pending.
func (ExceptionEngine) Service(pending *PendingExceptions, rf *RegisterFile, log Logger, thumb bool, instrAddr, vectorBase uint32) ExceptionKind {
	kind := ExcNone
	switch {
	case pending.DataAbort:
		kind = ExcDataAbort
	case pending.FIQ:
		kind = ExcFIQ
	case pending.IRQ:
		kind = ExcIRQ
	case pending.PrefetchAbort:
		kind = ExcPrefetchAbort
	case pending.Undefined:
		kind = ExcUndefined
	case pending.SWI:
		kind = ExcSWI
	default:
		return ExcNone
	}

	spec := exceptionSpecs[kind]

	// instrAddr is rf.PC() at the top of the Step loop: stepARM/stepThumb
	// pre-advance PC by one instruction size before dispatch, so by the
	// time a synchronous exception is serviced on the next loop
	// iteration, instrAddr already equals the causing instruction's
	// address plus one instruction size (call it nextAddr). The saved
	// link-register values ARM defines are constants measured from the
	// causing instruction's own address, not from nextAddr:
	//
	//   Undefined/SWI:  LR = addr + instrSize        -> always == nextAddr
	//   Prefetch Abort: LR = addr + 4  (fixed, any state)
	//   Data Abort:     LR = addr + 8  (fixed, any state)
	//   IRQ/FIQ:        LR = nextAddr + 4 (defined from the next
	//                   instruction directly, not the causing one)
	//
	// so only IRQ/FIQ add a flat 4 to instrAddr; the other four need the
	// causing address recovered first.
	var savedPC uint32
	switch kind {
	case ExcIRQ, ExcFIQ:
		savedPC = instrAddr + 4
	case ExcUndefined, ExcSWI:
		savedPC = instrAddr
	default: // ExcPrefetchAbort, ExcDataAbort
		instrSize := uint32(4)
		if thumb {
			instrSize = 2
		}
		causingAddr := instrAddr - instrSize
		if kind == ExcDataAbort {
			savedPC = causingAddr + 8
		} else {
			savedPC = causingAddr + 4
		}
	}

	oldCPSR := rf.CPSR()
	rf.SwitchMode(spec.targetMode)
	rf.Write(14, savedPC)
	rf.WriteSPSR(log, oldCPSR)

	newCPSR := rf.CPSR() | FlagI
	if spec.setF {
		newCPSR |= FlagF
	}
	newCPSR &^= FlagT
	rf.SetCPSRFlagsPreservingMode(newCPSR)

	rf.SetPC(vectorBase + spec.vector)
	clearPending(pending, kind)
	return kind
}

func clearPending(p *PendingExceptions, kind ExceptionKind) {
	switch kind {
	case ExcDataAbort:
		p.DataAbort = false
	case ExcFIQ:
		p.FIQ = false
	case ExcIRQ:
		p.IRQ = false
	case ExcPrefetchAbort:
		p.PrefetchAbort = false
	case ExcUndefined:
		p.Undefined = false
	case ExcSWI:
		p.SWI = false
	}
}
