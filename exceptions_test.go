package arm

import "testing"

// TestPendingAnyTracksIndividualFlags is spec.md §3 invariant 6: Any()
// must never be cacheable-stale, since it's recomputed every call.
func TestPendingAnyTracksIndividualFlags(t *testing.T) {
	var p PendingExceptions
	requireBool(t, "Any on empty", p.Any(), false)

	p.IRQ = true
	requireBool(t, "Any with IRQ set", p.Any(), true)
	p.IRQ = false
	requireBool(t, "Any after IRQ cleared", p.Any(), false)

	p.SWI = true
	requireBool(t, "Any with SWI set", p.Any(), true)
}

// TestExceptionPriorityOrder checks spec.md §4.7's fixed priority (Data
// Abort > FIQ > IRQ > Prefetch Abort > Undefined > SWI): with every flag
// raised at once, only the highest-priority one is serviced and cleared.
func TestExceptionPriorityOrder(t *testing.T) {
	cases := []struct {
		raise func(p *PendingExceptions)
		want  ExceptionKind
	}{
		{func(p *PendingExceptions) { *p = PendingExceptions{DataAbort: true, FIQ: true, IRQ: true, PrefetchAbort: true, Undefined: true, SWI: true} }, ExcDataAbort},
		{func(p *PendingExceptions) { *p = PendingExceptions{FIQ: true, IRQ: true, PrefetchAbort: true, Undefined: true, SWI: true} }, ExcFIQ},
		{func(p *PendingExceptions) { *p = PendingExceptions{IRQ: true, PrefetchAbort: true, Undefined: true, SWI: true} }, ExcIRQ},
		{func(p *PendingExceptions) { *p = PendingExceptions{PrefetchAbort: true, Undefined: true, SWI: true} }, ExcPrefetchAbort},
		{func(p *PendingExceptions) { *p = PendingExceptions{Undefined: true, SWI: true} }, ExcUndefined},
		{func(p *PendingExceptions) { *p = PendingExceptions{SWI: true} }, ExcSWI},
	}
	for _, tc := range cases {
		rf := NewRegisterFile()
		rf.SetCPSR(ModeUser)
		rf.SetPC(0x8004)
		var p PendingExceptions
		tc.raise(&p)
		before := p
		var eng ExceptionEngine
		kind := eng.Service(&p, rf, &testLogger{}, false, rf.PC(), 0)
		if kind != tc.want {
			t.Fatalf("serviced %v, want %v", kind, tc.want)
		}
		// Every flag that was pending before, except the one serviced,
		// must remain pending afterward.
		after := p
		clearPending(&before, kind)
		if before != after {
			t.Fatalf("Service cleared more than the serviced flag: before-minus-serviced=%+v after=%+v", before, after)
		}
	}
}

// TestExceptionSavedLR_ARM pins down the LR values the ARM architecture
// defines for each exception, per the derivation in exceptions.go's
// Service comment: instrAddr is already the causing instruction's
// address plus one instruction size by the time Service runs.
func TestExceptionSavedLR_ARM(t *testing.T) {
	const instrAddr = 0x8004 // causing instruction was at 0x8000
	cases := []struct {
		name     string
		pending  PendingExceptions
		wantLR   uint32
		wantMode uint32
		wantF    bool
	}{
		{"Undefined", PendingExceptions{Undefined: true}, 0x8004, ModeUndefined, false},
		{"SWI", PendingExceptions{SWI: true}, 0x8004, ModeSupervisor, false},
		{"PrefetchAbort", PendingExceptions{PrefetchAbort: true}, 0x8004, ModeAbort, false},
		{"DataAbort", PendingExceptions{DataAbort: true}, 0x8008, ModeAbort, false},
		{"IRQ", PendingExceptions{IRQ: true}, 0x8008, ModeIRQ, false},
		{"FIQ", PendingExceptions{FIQ: true}, 0x8008, ModeFIQ, true},
	}
	for _, tc := range cases {
		rf := NewRegisterFile()
		rf.SetCPSR(ModeUser)
		p := tc.pending
		var eng ExceptionEngine
		eng.Service(&p, rf, &testLogger{}, false, instrAddr, 0)
		requireU32(t, tc.name+" LR", rf.Read(14), tc.wantLR)
		requireU32(t, tc.name+" mode", rf.CurrentMode(), tc.wantMode)
		requireBool(t, tc.name+" F bit", rf.CPSR()&FlagF != 0, tc.wantF)
		requireBool(t, tc.name+" I bit set", rf.CPSR()&FlagI != 0, true)
		requireBool(t, tc.name+" T bit cleared", rf.CPSR()&FlagT != 0, false)
	}
}

// TestExceptionSavedLR_Thumb checks the Thumb-state LR offsets: Prefetch
// Abort and Data Abort use architecture-fixed offsets (not scaled to the
// 2-byte Thumb instruction size), while Undefined/SWI scale with it.
func TestExceptionSavedLR_Thumb(t *testing.T) {
	const instrAddr = 0x8002 // causing Thumb instruction was at 0x8000
	cases := []struct {
		name   string
		pendF  func(p *PendingExceptions)
		wantLR uint32
	}{
		{"Undefined", func(p *PendingExceptions) { p.Undefined = true }, 0x8002},
		{"SWI", func(p *PendingExceptions) { p.SWI = true }, 0x8002},
		{"PrefetchAbort", func(p *PendingExceptions) { p.PrefetchAbort = true }, 0x8004},
		{"DataAbort", func(p *PendingExceptions) { p.DataAbort = true }, 0x8008},
	}
	for _, tc := range cases {
		rf := NewRegisterFile()
		rf.SetCPSR(ModeUser | FlagT)
		var p PendingExceptions
		tc.pendF(&p)
		var eng ExceptionEngine
		eng.Service(&p, rf, &testLogger{}, true, instrAddr, 0)
		requireU32(t, tc.name+" Thumb LR", rf.Read(14), tc.wantLR)
	}
}

// TestExceptionSPSRCapturesOldCPSR checks that SPSR_<mode> receives the
// full CPSR as it was before the mode switch, including flag bits.
func TestExceptionSPSRCapturesOldCPSR(t *testing.T) {
	rf := NewRegisterFile()
	rf.SetCPSR(ModeUser | FlagZ | FlagC)
	p := PendingExceptions{SWI: true}
	var eng ExceptionEngine
	eng.Service(&p, rf, &testLogger{}, false, 0x8004, 0)
	requireU32(t, "SPSR_svc", rf.ReadSPSR(&testLogger{}), ModeUser|FlagZ|FlagC)
}

// TestExceptionVectorBase checks PC lands on vectorBase+vector offset.
func TestExceptionVectorBase(t *testing.T) {
	rf := NewRegisterFile()
	rf.SetCPSR(ModeUser)
	p := PendingExceptions{DataAbort: true}
	var eng ExceptionEngine
	eng.Service(&p, rf, &testLogger{}, false, 0x8004, 0xFFFF0000)
	requireU32(t, "data abort vector", rf.PC(), 0xFFFF0010)
}
