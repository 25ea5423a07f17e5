// state.go - serialization round-trip via named (key, []byte) pairs,
// grounded on debug_snapshot.go's MachineSnapshot/TakeSnapshot/
// RestoreSnapshot, narrowed from "CPU registers + full memory" to
// "register bank + CP15 state" since this core does not own memory
// (SPEC_FULL.md §4.1a, §6 "State interface").

package arm

import "encoding/binary"

// StateEntry is one named binary-encoded piece of state.
type StateEntry struct {
	Key   string
	Value []byte
}

// StateView is the serialization surface spec.md §6 names: "a sequence
// of named (key, value_bytes) pairs covering all state listed in §3".
type StateView interface {
	Entries() []StateEntry
	Restore(entries []StateEntry) error
}

func putU32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func getU32(b []byte) uint32 {
	if len(b) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// Entries captures every register-file slot, CPSR/mode, and the CP15
// registers spec.md §3 names, as flat named entries.
func (c *Core) Entries() []StateEntry {
	out := make([]StateEntry, 0, 48)
	for i, v := range c.rf.slots {
		out = append(out, StateEntry{Key: registerSlotName(i), Value: putU32(v)})
	}
	out = append(out, StateEntry{Key: "cp15.control", Value: putU32(c.cp15.control)})
	out = append(out, StateEntry{Key: "cp15.ttbBase", Value: putU32(c.cp15.ttbBase)})
	out = append(out, StateEntry{Key: "cp15.dacr", Value: putU32(c.cp15.dacr)})
	out = append(out, StateEntry{Key: "cp15.fsrData", Value: putU32(c.cp15.fsrData)})
	out = append(out, StateEntry{Key: "cp15.fsrPrefetch", Value: putU32(c.cp15.fsrPrefetch)})
	out = append(out, StateEntry{Key: "cp15.far", Value: putU32(c.cp15.far)})
	out = append(out, StateEntry{Key: "cp15.fcsePID", Value: putU32(c.cp15.fcsePID)})
	out = append(out, StateEntry{Key: "pending", Value: []byte{packPending(c.pending)}})
	return out
}

// Restore applies entries produced by Entries, rebuilding derived state
// (fault table, domain-access table, view pointers) exactly as the live
// write paths would.
func (c *Core) Restore(entries []StateEntry) error {
	byKey := make(map[string][]byte, len(entries))
	for _, e := range entries {
		byKey[e.Key] = e.Value
	}

	for i := range c.rf.slots {
		if v, ok := byKey[registerSlotName(i)]; ok {
			c.rf.slots[i] = getU32(v)
		}
	}
	c.rf.mode = c.rf.slots[slotCPSR] & ModeFieldMask
	c.rf.bank = bankOf(c.rf.mode)

	c.cp15.control = getU32(byKey["cp15.control"])
	c.cp15.ttbBase = getU32(byKey["cp15.ttbBase"])
	c.cp15.dacr = getU32(byKey["cp15.dacr"])
	c.cp15.fsrData = getU32(byKey["cp15.fsrData"])
	c.cp15.fsrPrefetch = getU32(byKey["cp15.fsrPrefetch"])
	c.cp15.far = getU32(byKey["cp15.far"])
	c.cp15.fcsePID = getU32(byKey["cp15.fcsePID"])
	c.cp15.pidOffset = ((c.cp15.fcsePID >> 25) & 0x7F) * 0x02000000
	c.cp15.decodeDACR()
	c.cp15.rebuildFaultTable()
	if c.tcm != nil {
		c.tcm.recompute()
	}

	if p, ok := byKey["pending"]; ok && len(p) == 1 {
		unpackPending(c.pending, p[0])
	}

	c.fetch.Invalidate()
	c.modeChanged = true
	return nil
}

var registerSlotNames = [slotCount]string{
	slotR0: "r.r0", slotR1: "r.r1", slotR2: "r.r2", slotR3: "r.r3",
	slotR4: "r.r4", slotR5: "r.r5", slotR6: "r.r6", slotR7: "r.r7",
	slotR8Usr: "r.r8.usr", slotR9Usr: "r.r9.usr", slotR10Usr: "r.r10.usr", slotR11Usr: "r.r11.usr", slotR12Usr: "r.r12.usr",
	slotR8Fiq: "r.r8.fiq", slotR9Fiq: "r.r9.fiq", slotR10Fiq: "r.r10.fiq", slotR11Fiq: "r.r11.fiq", slotR12Fiq: "r.r12.fiq",
	slotR13Usr: "r.r13.usr", slotR14Usr: "r.r14.usr",
	slotR13Fiq: "r.r13.fiq", slotR14Fiq: "r.r14.fiq",
	slotR13Irq: "r.r13.irq", slotR14Irq: "r.r14.irq",
	slotR13Svc: "r.r13.svc", slotR14Svc: "r.r14.svc",
	slotR13Abt: "r.r13.abt", slotR14Abt: "r.r14.abt",
	slotR13Und: "r.r13.und", slotR14Und: "r.r14.und",
	slotR15: "r.r15", slotCPSR: "r.cpsr",
	slotSPSRFiq: "r.spsr.fiq", slotSPSRIrq: "r.spsr.irq", slotSPSRSvc: "r.spsr.svc", slotSPSRAbt: "r.spsr.abt", slotSPSRUnd: "r.spsr.und",
}

func registerSlotName(i int) string { return registerSlotNames[i] }

func packPending(p *PendingExceptions) byte {
	var b byte
	if p.IRQ {
		b |= 1 << 0
	}
	if p.FIQ {
		b |= 1 << 1
	}
	if p.DataAbort {
		b |= 1 << 2
	}
	if p.PrefetchAbort {
		b |= 1 << 3
	}
	if p.Undefined {
		b |= 1 << 4
	}
	if p.SWI {
		b |= 1 << 5
	}
	return b
}

func unpackPending(p *PendingExceptions, b byte) {
	p.IRQ = b&(1<<0) != 0
	p.FIQ = b&(1<<1) != 0
	p.DataAbort = b&(1<<2) != 0
	p.PrefetchAbort = b&(1<<3) != 0
	p.Undefined = b&(1<<4) != 0
	p.SWI = b&(1<<5) != 0
}
