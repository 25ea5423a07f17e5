// cp15.go - CP15 system control coprocessor: control register, TTB,
// DACR, fault-status/address registers, FCSE PID, and the precomputed
// fault-decision table the MMU walker consults on every translation.
//
// Grounded on coprocessor_manager.go's MMIO-register-bank dispatch
// (readReg/writeReg switches keyed on an aligned register address,
// rebuilding derived state eagerly on write rather than lazily on
// read) - generalized from a flat MMIO address space to CP15's
// (cReg, op2, op3) coordinate space, per spec.md §4.8.

package arm

// Control register bits (cReg 1).
const (
	CtlMMU      = uint32(1) << 0  // M: MMU enable
	CtlAlign    = uint32(1) << 1  // A: alignment fault check
	CtlDCache   = uint32(1) << 2  // C: data cache enable
	CtlWBuf     = uint32(1) << 3  // W: write buffer enable
	CtlBigEnd   = uint32(1) << 7  // B: big-endian override
	CtlSystem   = uint32(1) << 8  // S: old-style system protection bit
	CtlROM      = uint32(1) << 9  // R: old-style ROM protection bit
	CtlICache   = uint32(1) << 12 // I: instruction cache enable
	CtlHighVec  = uint32(1) << 13 // V: relocate exception vectors to 0xFFFF0000
	CtlDTCMEn   = uint32(1) << 16 // ARM946: DTCM enable
	CtlITCMEn   = uint32(1) << 18 // ARM946: ITCM enable
)

// Domain access control values (2 bits per domain in DACR).
const (
	DomainNoAccess = 0
	DomainClient   = 1
	DomainReserved = 2
	DomainManager  = 3
)

// faultDecision is the outcome the 512-entry fault table resolves to.
type faultDecision uint8

const (
	faultNone faultDecision = iota
	faultDomain
	faultPermission
)

// CP15 is the system control coprocessor state shared by every device
// variant; the ARM946ES/IGS036 variants additionally wire a *TCM
// controller that cReg 9 writes update.
type CP15 struct {
	control uint32

	ttbBase uint32
	ttbMask uint32

	dacr         uint32
	domainAccess [16]uint8 // decoded 2-bit DACR field per domain, rebuilt on write

	fsrData     uint32
	fsrPrefetch uint32
	far         uint32

	fcsePID    uint32 // full MCR value written to cReg 13, not just the PID field
	pidOffset  uint32

	faultTable [512]faultDecision

	// CP14 clock-counter stub (SPEC_FULL.md §4.8a).
	cp14Status  uint32
	clockTicks  uint64

	idCode     uint32
	cacheType  uint32
	tcmType    uint32
	tlbType    uint32

	tcm *TCM // nil except on ARM946ES/IGS036 variants
	mmu *MMU // wired post-construction so cReg 8 has a concrete TLB-flush target

	log Logger
}

// NewCP15 constructs a CP15 bank carrying the given read-only ID
// registers (device-variant specific, see variants.go).
func NewCP15(idCode, cacheType, tcmType, tlbType uint32, log Logger) *CP15 {
	c := &CP15{
		idCode:    idCode,
		cacheType: cacheType,
		tcmType:   tcmType,
		tlbType:   tlbType,
		ttbMask:   0xFFFFC000,
		log:       log,
	}
	c.rebuildFaultTable()
	return c
}

// AttachTCM wires a tightly-coupled-memory controller so cReg 9 writes
// update its windows (ARM946ES/IGS036 only, per spec.md §4.9).
func (c *CP15) AttachTCM(t *TCM) { c.tcm = t }

// AttachMMU wires the MMU so a cReg 8 TLB-invalidate write has a
// concrete target, per SPEC_FULL.md §4.2a.
func (c *CP15) AttachMMU(m *MMU) { c.mmu = m }

func (c *CP15) MMUEnabled() bool  { return c.control&CtlMMU != 0 }
func (c *CP15) AlignCheck() bool  { return c.control&CtlAlign != 0 }
func (c *CP15) HighVectors() bool { return c.control&CtlHighVec != 0 }

// TTBPhysBase returns the masked translation-table-base pointer.
func (c *CP15) TTBPhysBase() uint32 { return c.ttbBase & c.ttbMask }

// FCSERemap applies the fast-context-switch PID offset to virtual
// addresses below the 32MiB boundary, per spec.md §4.2 step 1.
func (c *CP15) FCSERemap(vaddr uint32) uint32 {
	if vaddr < 0x02000000 {
		return vaddr + c.pidOffset
	}
	return vaddr
}

// DomainAccessControl returns the 2-bit DACR value for domain d (0-15).
func (c *CP15) DomainAccessControl(domain uint8) uint8 {
	return c.domainAccess[domain&0xF]
}

// LookupFault resolves the precomputed fault-decision table for the
// given access. privileged is true for every mode except User.
func (c *CP15) LookupFault(write bool, domainAC, ap uint8, privileged, sBit, rBit bool) faultDecision {
	return c.faultTable[faultKey(write, domainAC, ap, privileged, sBit, rBit)]
}

func faultKey(write bool, domainAC, ap uint8, privileged, sBit, rBit bool) int {
	key := 0
	if write {
		key |= 1 << 8
	}
	key |= int(domainAC&3) << 6
	key |= int(ap&3) << 4
	if privileged {
		key |= 4
	}
	if sBit {
		key |= 2
	}
	if rBit {
		key |= 1
	}
	return key
}

// rebuildFaultTable materializes the 5-variable permission function
// (domain access control, AP, privileged, S, R, write) once, giving
// constant-time fault resolution on the MMU's hot path, per spec.md §4.2
// "The fault-table construction materializes...".
func (c *CP15) rebuildFaultTable() {
	sBit := c.control&CtlSystem != 0
	rBit := c.control&CtlROM != 0
	for write := 0; write < 2; write++ {
		for domainAC := uint8(0); domainAC < 4; domainAC++ {
			for ap := uint8(0); ap < 4; ap++ {
				for priv := 0; priv < 2; priv++ {
					key := faultKey(write == 1, domainAC, ap, priv == 1, sBit, rBit)
					c.faultTable[key] = resolveAccess(domainAC, ap, priv == 1, sBit, rBit, write == 1)
				}
			}
		}
	}
}

// resolveAccess implements the classic ARM MMU AP/domain permission
// matrix (ARM ARM B3-14, "Access permissions").
func resolveAccess(domainAC, ap uint8, privileged, sBit, rBit, write bool) faultDecision {
	switch domainAC {
	case DomainNoAccess, DomainReserved:
		return faultDomain
	case DomainManager:
		return faultNone
	}
	// DomainClient: check AP against the requested access.
	switch ap {
	case 0:
		switch {
		case sBit && !rBit: // privileged read-only, no user access
			if !privileged || write {
				return faultPermission
			}
		case !sBit && rBit: // privileged RW, user read-only
			if !privileged && write {
				return faultPermission
			}
		case !sBit && !rBit: // no access for anyone
			return faultPermission
		default: // S=1,R=1 reserved combination
			return faultPermission
		}
	case 1: // privileged RW, no user access
		if !privileged {
			return faultPermission
		}
	case 2: // privileged RW, user read-only
		if !privileged && write {
			return faultPermission
		}
	case 3: // RW for everyone
	}
	return faultNone
}

// ReadReg decodes an MRC against CP15 (cReg, op2, op3) per spec.md §4.8.
func (c *CP15) ReadReg(cReg, op2, op3 uint8) uint32 {
	switch cReg {
	case 0:
		switch op2 {
		case 1:
			return c.cacheType
		case 2:
			return c.tcmType
		case 3:
			return c.tlbType
		default:
			return c.idCode
		}
	case 1:
		return c.control
	case 2:
		return c.ttbBase
	case 3:
		return c.dacr
	case 5:
		if op3 == 1 {
			return c.fsrPrefetch
		}
		return c.fsrData
	case 6:
		return c.far
	case 7, 8:
		return 0 // cache/TLB ops: no-op, read-as-zero
	case 9, 15:
		return 0 // cache-lockdown / implementation-defined test regs: no-op stub
	case 13:
		return c.fcsePID
	default:
		c.log.Printf("arm: CP15 read of unassigned cReg %d (op2=%d op3=%d)", cReg, op2, op3)
		return 0
	}
}

// WriteReg decodes an MCR against CP15, applying the side effects
// spec.md §4.8 names (fault-table rebuild on DACR/control, PID-offset
// recompute, TCM window recompute via the attached TCM controller).
// modeChangeRelevant asks the caller to re-select the step variant (the
// MMU-enable bit changed dispatch-relevant state); flushPrefetch asks
// the caller to invalidate the queued prefetch words (prefetch.go:
// "any CP15 TTB/DACR write that could change what a queued virtual
// address maps to must call this").
func (c *CP15) WriteReg(cReg, op2, op3 uint8, val uint32) (modeChangeRelevant, flushPrefetch bool) {
	switch cReg {
	case 1:
		c.control = val
		c.rebuildFaultTable()
		if c.tcm != nil {
			c.tcm.recompute()
		}
		return true, true
	case 2:
		c.ttbBase = val
		return false, true
	case 3:
		c.dacr = val
		c.decodeDACR()
		c.rebuildFaultTable()
		return false, true
	case 5:
		if op3 == 1 {
			c.fsrPrefetch = val
		} else {
			c.fsrData = val
		}
	case 6:
		c.far = val
	case 7:
		// Cache maintenance: this core models no cache beyond the
		// control-register bits, so the operation is acknowledged and
		// discarded (spec.md §4.8).
	case 8:
		if c.mmu != nil {
			c.mmu.InvalidateTLB()
		}
	case 9:
		if c.tcm != nil {
			c.tcm.WriteReg9(op2, val)
		}
	case 15:
		// Implementation-defined test register: discarded.
	case 13:
		c.fcsePID = val
		c.pidOffset = ((val >> 25) & 0x7F) * 0x02000000
	default:
		c.log.Printf("arm: CP15 write of unassigned cReg %d (op2=%d op3=%d) val=%#x", cReg, op2, op3, val)
	}
	return false, false
}

func (c *CP15) decodeDACR() {
	for d := 0; d < 16; d++ {
		c.domainAccess[d] = uint8((c.dacr >> (d * 2)) & 3)
	}
}

// ReadCP14 and WriteCP14 implement the clock-counter stub spec.md §1
// names as in-scope ambient behavior: a debug-status register and a
// free-running tick counter that advances once per read of CP14
// register 1, so
// software timing loops observe monotonically increasing values without
// this core modelling real wall-clock timing (a stated non-goal).
func (c *CP15) ReadCP14(cReg uint8) uint32 {
	switch cReg {
	case 0:
		return c.cp14Status
	case 1:
		c.clockTicks++
		return uint32(c.clockTicks)
	default:
		return 0
	}
}

func (c *CP15) WriteCP14(cReg uint8, val uint32) {
	if cReg == 0 {
		c.cp14Status = val
	}
}

// FSR/FAR accessors used by the exception engine and the MMU walker.
func (c *CP15) SetDataFault(fsr, far uint32)     { c.fsrData, c.far = fsr, far }
func (c *CP15) SetPrefetchFault(fsr, far uint32) { c.fsrPrefetch, c.far = fsr, far }
