// mmu.go - two-level page-table walker: section / coarse / fine / large /
// small / tiny pages, access-permission decoding, domain checking, and
// fault-status reporting, per spec.md §4.2.
//
// Grounded on coprocessor_manager.go's pattern of a manager type that
// holds a bus reference and mutates shared shadow state on every
// request; here the MMU holds the bus, the CP15 bank it reads
// descriptors' permission bits against, and the core's pending-exception
// flags it raises a fault into.

package arm

// AccessKind describes one memory reference: its direction and whether
// it's an instruction fetch (spec.md §4.2's access_kind parameter).
type AccessKind struct {
	Write       bool
	Instruction bool
}

// ARM MMU fault-status codes (ARM ARM B3-16, FSR[3:0]).
const (
	fsrSectionTranslation = 5
	fsrPageTranslation    = 7
	fsrSectionDomain      = 9
	fsrPageDomain         = 11
	fsrSectionPermission  = 13
	fsrPagePermission     = 15
)

// MMU is the TLB-less page-table walker. It has no cache of its own
// (spec.md §4.8: "this core does not cache translations") so every
// translation re-walks the tables; the prefetch pipeline is what keeps
// that off the hot path for sequential instruction fetch.
type MMU struct {
	bus     Bus
	cp15    *CP15
	pending *PendingExceptions
	log     Logger

	privileged bool
	sBit, rBit bool

	tcm *TCM // nil except on ARM946ES/IGS036 variants; see AttachTCM
}

func NewMMU(bus Bus, cp15 *CP15, pending *PendingExceptions, log Logger) *MMU {
	return &MMU{bus: bus, cp15: cp15, pending: pending, log: log}
}

// AttachTCM wires the TCM controller so DirectPhysAccess can answer for
// it, per SPEC_FULL.md §4.2a.
func (m *MMU) AttachTCM(t *TCM) { m.tcm = t }

// InvalidateTLB acknowledges a CP15 cReg 8 TLB-invalidate write.
// This core caches no translations (spec.md §4.8: TLB ops are a
// no-op), so there is nothing to flush; the operation exists so CP15's
// WriteReg has a concrete call site instead of special-casing cReg 8
// away entirely, per SPEC_FULL.md §4.2a.
func (m *MMU) InvalidateTLB() {}

// DirectPhysAccess reports whether paddr is currently covered by an
// active ITCM or DTCM window. Core's translateData calls it with the
// virtual address before any table walk, so TCM-backed data accesses
// skip translation and go straight to tightly-coupled memory.
func (m *MMU) DirectPhysAccess(paddr uint32) bool {
	if m.tcm == nil {
		return false
	}
	if _, ok := m.tcm.Lookup(paddr, false); ok {
		return true
	}
	_, ok := m.tcm.Lookup(paddr, true)
	return ok
}

func (m *MMU) readDesc(addr uint32) uint32 {
	if db, ok := m.bus.(DirectBus); ok {
		if p, ok := db.DirectReadPtr(addr); ok {
			return *p
		}
	}
	return m.bus.ReadWord(addr)
}

// Translate implements spec.md §4.2's translate(vaddr, access_kind)
// operation. When the MMU is disabled, virtual == physical
// unconditionally (spec.md §3 invariant 4). On fault it writes FSR/FAR
// into CP15 and sets the matching pending abort flag before returning
// ok=false.
func (m *MMU) Translate(vaddr uint32, access AccessKind) (paddr uint32, ok bool) {
	if !m.cp15.MMUEnabled() {
		return vaddr, true
	}
	vaddr = m.cp15.FCSERemap(vaddr)

	desc1Addr := m.cp15.TTBPhysBase() | ((vaddr >> 20) << 2)
	desc1 := m.readDesc(desc1Addr)

	switch desc1 & 3 {
	case 0:
		return m.fault(vaddr, access, fsrSectionTranslation, 0)
	case 2:
		return m.translateSection(vaddr, access, desc1)
	case 1:
		return m.translateSubpage(vaddr, access, desc1, false)
	default: // 3: fine page table
		return m.translateSubpage(vaddr, access, desc1, true)
	}
}

// PrefetchTranslate is the lighter variant spec.md §4.2 describes for
// filling the prefetch queue: it performs the same walk but never
// raises a pending-abort flag or mutates FSR/FAR. The real abort is
// raised only if and when the faulting slot is actually consumed
// (prefetch.go).
func (m *MMU) PrefetchTranslate(vaddr uint32) (paddr uint32, ok bool) {
	if !m.cp15.MMUEnabled() {
		return vaddr, true
	}
	v := m.cp15.FCSERemap(vaddr)
	desc1 := m.readDesc(m.cp15.TTBPhysBase() | ((v >> 20) << 2))
	switch desc1 & 3 {
	case 0:
		return 0, false
	case 2:
		return m.sectionPhys(v, desc1)
	case 1:
		return m.subpagePhys(v, desc1, false)
	default:
		return m.subpagePhys(v, desc1, true)
	}
}

func (m *MMU) translateSection(vaddr uint32, access AccessKind, desc1 uint32) (uint32, bool) {
	ap := uint8((desc1 >> 10) & 3)
	domain := uint8((desc1 >> 5) & 0xF)
	domainAC := m.cp15.DomainAccessControl(domain)
	privileged := m.currentPrivileged()
	sBit, rBit := m.srBits()

	switch m.cp15.LookupFault(access.Write, domainAC, ap, privileged, sBit, rBit) {
	case faultDomain:
		return m.fault(vaddr, access, fsrSectionDomain, domain)
	case faultPermission:
		return m.fault(vaddr, access, fsrSectionPermission, domain)
	}
	return (desc1 & 0xFFF00000) | (vaddr & 0x000FFFFF), true
}

func (m *MMU) sectionPhys(vaddr, desc1 uint32) (uint32, bool) {
	return (desc1 & 0xFFF00000) | (vaddr & 0x000FFFFF), true
}

func (m *MMU) translateSubpage(vaddr uint32, access AccessKind, desc1 uint32, fine bool) (uint32, bool) {
	domain := uint8((desc1 >> 5) & 0xF)
	domainAC := m.cp15.DomainAccessControl(domain)
	if domainAC != DomainClient && domainAC != DomainManager {
		return m.fault(vaddr, access, fsrPageDomain, domain)
	}

	var desc2Addr uint32
	if fine {
		index := (vaddr >> 10) & 0x3FF
		desc2Addr = (desc1 & 0xFFFFF000) | (index << 2)
	} else {
		index := (vaddr >> 12) & 0xFF
		desc2Addr = (desc1 & 0xFFFFFC00) | (index << 2)
	}
	desc2 := m.readDesc(desc2Addr)

	privileged := m.currentPrivileged()
	sBit, rBit := m.srBits()

	switch desc2 & 3 {
	case 0:
		return m.fault(vaddr, access, fsrPageTranslation, domain)
	case 1: // large page, 64 KiB
		ap := subpageAP(desc2, (vaddr>>14)&3)
		if d := m.cp15.LookupFault(access.Write, domainAC, ap, privileged, sBit, rBit); d != faultNone {
			return m.faultFor(d, vaddr, access, domain)
		}
		return (desc2 & 0xFFFF0000) | (vaddr & 0x0000FFFF), true
	case 2: // small page, 4 KiB
		ap := subpageAP(desc2, (vaddr>>10)&3)
		if d := m.cp15.LookupFault(access.Write, domainAC, ap, privileged, sBit, rBit); d != faultNone {
			return m.faultFor(d, vaddr, access, domain)
		}
		return (desc2 & 0xFFFFF000) | (vaddr & 0x00000FFF), true
	default: // tiny page, 1 KiB - fine tables only
		ap := uint8((desc2 >> 4) & 3)
		if d := m.cp15.LookupFault(access.Write, domainAC, ap, privileged, sBit, rBit); d != faultNone {
			return m.faultFor(d, vaddr, access, domain)
		}
		return (desc2 & 0xFFFFFC00) | (vaddr & 0x000003FF), true
	}
}

func (m *MMU) subpagePhys(vaddr, desc1 uint32, fine bool) (uint32, bool) {
	var desc2Addr uint32
	if fine {
		index := (vaddr >> 10) & 0x3FF
		desc2Addr = (desc1 & 0xFFFFF000) | (index << 2)
	} else {
		index := (vaddr >> 12) & 0xFF
		desc2Addr = (desc1 & 0xFFFFFC00) | (index << 2)
	}
	desc2 := m.readDesc(desc2Addr)
	switch desc2 & 3 {
	case 0:
		return 0, false
	case 1:
		return (desc2 & 0xFFFF0000) | (vaddr & 0x0000FFFF), true
	case 2:
		return (desc2 & 0xFFFFF000) | (vaddr & 0x00000FFF), true
	default:
		return (desc2 & 0xFFFFFC00) | (vaddr & 0x000003FF), true
	}
}

// subpageAP extracts one of the four 2-bit AP sub-fields packed into
// desc2 bits 11:4, selected by slot (0-3), per spec.md §4.2 steps 5.1/5.2.
func subpageAP(desc2 uint32, slot uint32) uint8 {
	return uint8((desc2 >> (4 + slot*2)) & 3)
}

func (m *MMU) faultFor(d faultDecision, vaddr uint32, access AccessKind, domain uint8) (uint32, bool) {
	if d == faultDomain {
		return m.fault(vaddr, access, fsrPageDomain, domain)
	}
	return m.fault(vaddr, access, fsrPagePermission, domain)
}

func (m *MMU) fault(vaddr uint32, access AccessKind, code uint8, domain uint8) (uint32, bool) {
	fsr := uint32(code) | uint32(domain)<<4
	if access.Instruction {
		m.cp15.SetPrefetchFault(fsr, vaddr)
		m.pending.PrefetchAbort = true
	} else {
		m.cp15.SetDataFault(fsr, vaddr)
		m.pending.DataAbort = true
	}
	return 0, false
}

func (m *MMU) currentPrivileged() bool { return m.privileged }
func (m *MMU) srBits() (bool, bool)    { return m.sBit, m.rBit }

// privileged/sBit/rBit are snapshotted by Core.syncMMUContext before
// each Translate call so the MMU need not reach back into the register
// file or CP15 control register on every lookup.
func (m *MMU) syncContext(privileged, sBit, rBit bool) {
	m.privileged, m.sBit, m.rBit = privileged, sBit, rBit
}
