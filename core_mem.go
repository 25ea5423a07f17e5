// core_mem.go - fetch-variant construction and the translate-then-access
// helpers instruction semantics use for loads, stores, and register
// writes that target R15.

package arm

type fetchWordFn func(c *Core, vaddr uint32) (uint32, bool)

func fetchWordDirect(c *Core, vaddr uint32) (uint32, bool) {
	return c.bus.ReadInstrWord(vaddr), true
}

func fetchWordDirectPrefetch(c *Core, vaddr uint32) (uint32, bool) {
	return c.fetch.Fetch(vaddr)
}

func fetchWordMMU(c *Core, vaddr uint32) (uint32, bool) {
	if c.tcm != nil {
		if w, ok := c.tcm.Lookup(vaddr, true); ok {
			return w.readWord(vaddr), true
		}
	}
	c.syncMMUContext()
	paddr, ok := c.mmu.Translate(vaddr, AccessKind{Instruction: true})
	if !ok {
		return 0, false
	}
	return c.bus.ReadInstrWord(paddr), true
}

func fetchWordMMUPrefetch(c *Core, vaddr uint32) (uint32, bool) {
	c.syncMMUContext()
	return c.fetch.Fetch(vaddr)
}

// buildVariants materializes the eight (thumb, mmuEnabled,
// prefetchEnabled) step closures once, per SPEC_FULL.md §4.9.
func (c *Core) buildVariants() {
	plainFetch := [4]fetchWordFn{
		fetchWordDirect,         // mmu off, prefetch off
		fetchWordDirectPrefetch, // mmu off, prefetch on
		fetchWordMMU,            // mmu on, prefetch off
		fetchWordMMUPrefetch,    // mmu on, prefetch on
	}
	for i := 0; i < 8; i++ {
		thumbBit := i&1 != 0
		mmuBit := i&2 != 0
		pfBit := i&4 != 0

		fidx := 0
		if mmuBit {
			fidx |= 2
		}
		if pfBit {
			fidx |= 1
		}
		fw := plainFetch[fidx]

		if thumbBit {
			c.variants[i] = func(c *Core) int { return c.stepThumb(fw) }
		} else {
			c.variants[i] = func(c *Core) int { return c.stepARM(fw) }
		}
	}
}

// fetchWord reads one word-aligned instruction word at the current
// variant's fetch granularity.
func (c *Core) fetchWord(fw fetchWordFn, vaddr uint32) (uint32, bool) {
	return fw(c, vaddr&^3)
}

// translateData runs the full MMU translation (with side effects) for a
// data access, snapshotting the privilege/S/R context first. A vaddr
// covered by an active TCM window bypasses the page-table walk
// entirely, per spec.md §4.9 ("All memory accesses consult the
// ITCM/DTCM windows before the general bus") - matching fetchWordMMU's
// instruction-side TCM check.
func (c *Core) translateData(vaddr uint32, write bool) (uint32, bool) {
	c.syncMMUContext()
	if c.mmu.DirectPhysAccess(vaddr) {
		return vaddr, true
	}
	return c.mmu.Translate(vaddr, AccessKind{Write: write})
}

func (c *Core) ReadMem8(addr uint32) (uint8, bool) {
	paddr, ok := c.translateData(addr, false)
	if !ok {
		return 0, false
	}
	return c.bus.ReadByte(paddr), true
}

func (c *Core) ReadMem16(addr uint32) (uint16, bool) {
	paddr, ok := c.translateData(addr, false)
	if !ok {
		return 0, false
	}
	return c.bus.ReadHalf(paddr), true
}

func (c *Core) ReadMem32(addr uint32) (uint32, bool) {
	paddr, ok := c.translateData(addr, false)
	if !ok {
		return 0, false
	}
	return c.bus.ReadWord(paddr), true
}

func (c *Core) WriteMem8(addr uint32, v uint8) bool {
	paddr, ok := c.translateData(addr, true)
	if !ok {
		return false
	}
	c.bus.WriteByte(paddr, v)
	return true
}

func (c *Core) WriteMem16(addr uint32, v uint16) bool {
	paddr, ok := c.translateData(addr, true)
	if !ok {
		return false
	}
	c.bus.WriteHalf(paddr, v)
	return true
}

func (c *Core) WriteMem32(addr uint32, v uint32) bool {
	paddr, ok := c.translateData(addr, true)
	if !ok {
		return false
	}
	c.bus.WriteWord(paddr, v)
	return true
}

// WriteReg writes architectural register r, applying R15's alignment
// mask and prefetch-queue flush (spec.md §4.1: "Writes to R15 flush the
// prefetch queue").
func (c *Core) WriteReg(r int, val uint32) {
	if r == 15 {
		if c.thumb() {
			val &^= 1
		} else {
			val &^= 3
		}
		c.rf.SetPC(val)
		c.fetch.Invalidate()
		return
	}
	c.rf.Write(r, val)
}

// BranchExchange sets PC to target and switches ARM/Thumb state on
// target's bit 0, per the BX/BLX instruction family (ARM ARM A4.1.10/
// A4.1.11, v4T+).
func (c *Core) BranchExchange(target uint32) {
	cpsr := c.rf.CPSR()
	if target&1 != 0 {
		cpsr |= FlagT
	} else {
		cpsr &^= FlagT
	}
	c.rf.SetCPSRFlagsPreservingMode(cpsr)
	c.WriteReg(15, target)
	c.modeChanged = true
}
