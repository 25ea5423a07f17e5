// core.go - ties the register file, CP15, MMU, TCM, prefetch pipeline
// and exception engine into the top-level Step loop, per spec.md §2
// "Data flow" and SPEC_FULL.md §4.9.
//
// Grounded on the teacher's CPU_Z80.Execute() cycle-budget loop
// (decode, dispatch through a function-pointer table, decrement a
// cycle counter, stop at <= 0) and its initBaseOps-style
// once-at-construction table build, generalized to the 8 (thumb,
// mmuEnabled, prefetchEnabled) step variants SPEC_FULL.md §4.9 names.

package arm

// Core is one ARM processor instance: register file, system control
// coprocessor, MMU, optional TCM overlay, prefetch pipeline and
// pending-exception state, plus the host-supplied Bus and optional
// DebugHook.
type Core struct {
	rf      *RegisterFile
	cp15    *CP15
	mmu     *MMU
	tcm     *TCM
	pending *PendingExceptions
	fetch   *PrefetchQueue
	exc     ExceptionEngine

	bus       *tcmBus
	log       Logger
	debugHook DebugHook

	cfg Config

	modeChanged bool // forces a variant re-select before the next instruction
	variantIdx  int  // cached result of variantIndex(), refreshed only when modeChanged
	lastWord    uint32
	lastWordVA  uint32
	lastWordOK  bool

	variants [8]func(c *Core) int

	fault *Fault
}

// NewCore builds a Core from cfg. The caller is responsible for
// supplying cfg.Bus; cfg.Log defaults to a no-op logger.
func NewCore(cfg Config) *Core {
	cfg.normalize()
	c := &Core{cfg: cfg, log: cfg.Log, debugHook: cfg.DebugHook}

	c.rf = NewRegisterFile()
	c.pending = &PendingExceptions{}
	c.cp15 = NewCP15(cfg.IDCode, cfg.CacheType, cfg.TCMType, cfg.TLBType, cfg.Log)
	if cfg.HasTCM {
		c.tcm = NewTCM(c.cp15, cfg.Endian == BigEndian)
		c.cp15.AttachTCM(c.tcm)
	}
	c.bus = &tcmBus{tcm: c.tcm, bus: cfg.Bus}
	c.mmu = NewMMU(c.bus, c.cp15, c.pending, cfg.Log)
	c.mmu.AttachTCM(c.tcm)
	c.cp15.AttachMMU(c.mmu)
	c.fetch = NewPrefetchQueue(cfg.PrefetchDepth, c.mmu, c.bus)

	c.buildVariants()
	c.Reset()
	return c
}

// Reset re-initializes the register file to Supervisor mode with I/F
// set and PC at the effective vector base, and flushes the prefetch
// queue, per spec.md §3 "Lifecycles".
func (c *Core) Reset() {
	c.rf.Reset(c.vectorBase())
	*c.pending = PendingExceptions{}
	c.fetch.Invalidate()
	c.modeChanged = true
	c.fault = nil
}

func (c *Core) vectorBase() uint32 {
	if c.cp15.HighVectors() {
		return 0xFFFF0000
	}
	return c.cfg.VectorBase
}

func (c *Core) thumb() bool { return c.rf.CPSR()&FlagT != 0 }

// SetInputLine asserts or clears one of the five external interrupt
// lines into the matching pending-exception flag, per spec.md §6
// "Interrupt lines".
func (c *Core) SetInputLine(line InterruptLine, state bool) {
	switch line {
	case LineIRQ:
		c.pending.IRQ = state
	case LineFIQ:
		c.pending.FIQ = state
	case LineAbortData:
		c.pending.DataAbort = state
	case LineAbortPrefetch:
		c.pending.PrefetchAbort = state
	case LineUndefined:
		c.pending.Undefined = state
	}
}

// SetDebugHook installs or clears the per-instruction debugger hook.
func (c *Core) SetDebugHook(h DebugHook) { c.debugHook = h }

// Registers exposes the underlying register file for the debugger
// adapter and tests.
func (c *Core) Registers() *RegisterFile { return c.rf }

// CP15Bank exposes the coprocessor bank for the debugger adapter and
// tests.
func (c *Core) CP15Bank() *CP15 { return c.cp15 }

// Step runs up to cycles worth of instructions (one cycle per executed
// instruction, including condition-failed ones, per spec.md §4.4),
// stopping early if the debug hook panics out of it on a breakpoint
// (Step does not recover that panic; the hook's owner, e.g. armmon's
// stepBreak handler, does) or if FaultPolicyAbort is
// configured and an implementation fault is hit. It returns the number
// of instructions actually executed and, if FaultPolicyAbort fired, the
// fault.
func (c *Core) Step(cycles int) (executed int, err error) {
	for executed < cycles {
		c.serviceExceptions()

		if c.debugHook != nil {
			c.debugHook.InstructionHook(c.rf.PC())
		}

		if c.modeChanged {
			c.variantIdx = c.variantIndex()
			c.modeChanged = false
		}
		idx := c.variantIdx
		step := c.variants[idx]
		if step == nil {
			c.raiseImplementationFault("no step variant built for index %d", idx)
			if c.fault != nil {
				return executed, c.fault
			}
			executed++
			continue
		}
		spent := step(c)
		executed += spent

		if c.fault != nil {
			return executed, c.fault
		}
	}
	return executed, nil
}

func (c *Core) variantIndex() int {
	idx := 0
	if c.thumb() {
		idx |= 1
	}
	if c.cp15.MMUEnabled() {
		idx |= 2
	}
	if c.cfg.PrefetchDepth > 1 {
		idx |= 4
	}
	return idx
}

// serviceExceptions checks pending_any and, if set, delivers the
// highest-priority exception before the next instruction fetch, per
// spec.md §4.7. Reset is never delivered through this path - only
// Core.Reset raises it.
func (c *Core) serviceExceptions() {
	if !c.pending.Any() {
		return
	}
	kind := c.exc.Service(c.pending, c.rf, c.log, c.thumb(), c.rf.PC(), c.vectorBase())
	if kind != ExcNone {
		c.fetch.Invalidate()
		c.modeChanged = true
	}
}

// syncMMUContext snapshots the bits the MMU's fault-table lookup needs
// (current privilege, CP15 control S/R bits) so MMU.Translate doesn't
// reach back into the register file on every call.
func (c *Core) syncMMUContext() {
	privileged := c.rf.CurrentMode() != ModeUser
	c.mmu.syncContext(privileged, c.cp15.control&CtlSystem != 0, c.cp15.control&CtlROM != 0)
}

// raiseImplementationFault applies SPEC_FULL.md §7's FaultPolicy: log
// always; under FaultPolicyAbort, latch a *Fault that Step returns
// after finishing the current instruction's cycle accounting; under
// FaultPolicyUndefined, raise pending_Undefined instead and continue.
func (c *Core) raiseImplementationFault(format string, args ...any) {
	c.log.Printf("arm: implementation fault: "+format, args...)
	switch c.cfg.FaultPolicy {
	case FaultPolicyAbort:
		c.fault = &Fault{PC: c.rf.PC(), Message: "arm: implementation fault"}
	default:
		c.pending.Undefined = true
	}
}
