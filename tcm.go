// tcm.go - ARM946ES/IGS036 tightly-coupled-memory overlay: two
// independent on-chip RAM windows (ITCM, DTCM) that intercept memory
// accesses before the MMU and general bus, per spec.md §4.9.
//
// Grounded on coprocessor_manager.go's MMIO shadow-register pattern
// (a handful of registers whose writes recompute derived state), here
// recomputing a window's [base, end) bounds whenever CP15 cReg 9 is
// written.

package arm

// tcmWindow is one of the two TCM regions. When disabled, base is set
// to the all-ones sentinel spec.md §4.9 specifies so no address can
// ever match.
type tcmWindow struct {
	base      uint32
	end       uint32
	mem       []byte
	bigEndian bool // TCM is CPU-internal RAM, not behind the host Bus, so it must apply the core's own configured endianness directly
}

const tcmDisabledSentinel = 0xFFFFFFFF

func newTCMWindow(capacity int, bigEndian bool) tcmWindow {
	return tcmWindow{base: tcmDisabledSentinel, mem: make([]byte, capacity), bigEndian: bigEndian}
}

func (w *tcmWindow) contains(addr uint32) bool {
	return w.base != tcmDisabledSentinel && addr >= w.base && addr < w.end
}

// recompute derives [base, end) from a CP15 reg9 value and the control
// register's enable bit, per spec.md §4.9: size = 512 << ((reg&0x3F)>>1).
func (w *tcmWindow) recompute(reg9 uint32, enabled bool) {
	if !enabled {
		w.base = tcmDisabledSentinel
		w.end = tcmDisabledSentinel
		return
	}
	size := uint32(512) << ((reg9 & 0x3F) >> 1)
	if int(size) > len(w.mem) {
		size = uint32(len(w.mem))
	}
	base := reg9 & 0xFFFFF000 // region base occupies the upper bits of the register
	w.base = base
	w.end = base + size
}

// TCM is the ARM946ES/IGS036 TCM controller: up to 32KiB of ITCM, up to
// 16KiB of DTCM.
type TCM struct {
	itcm tcmWindow
	dtcm tcmWindow

	reg9Data, reg9Instr uint32
	control             *CP15 // consulted for the enable bits on each recompute
}

const (
	tcmITCMCapacity = 32 * 1024
	tcmDTCMCapacity = 16 * 1024
)

// NewTCM builds a disabled ITCM/DTCM controller; AttachTCM on the CP15
// bank wires it into cReg 9 writes. bigEndian matches the owning core's
// Config.Endian, since TCM is CPU-internal RAM rather than something
// behind the host Bus.
func NewTCM(cp15 *CP15, bigEndian bool) *TCM {
	t := &TCM{
		itcm:    newTCMWindow(tcmITCMCapacity, bigEndian),
		dtcm:    newTCMWindow(tcmDTCMCapacity, bigEndian),
		control: cp15,
	}
	return t
}

// WriteReg9 handles an MCR to CP15 cReg 9: op2=1 is the data (DTCM)
// region register, op2=0 is the instruction (ITCM) region register, per
// the ARM946ES technical reference.
func (t *TCM) WriteReg9(op2 uint8, val uint32) {
	if op2 == 1 {
		t.reg9Data = val
	} else {
		t.reg9Instr = val
	}
	t.recompute()
}

func (t *TCM) recompute() {
	t.dtcm.recompute(t.reg9Data, t.control.control&CtlDTCMEn != 0)
	t.itcm.recompute(t.reg9Instr, t.control.control&CtlITCMEn != 0)
}

// Lookup reports whether addr (physical) falls inside an active TCM
// window, and if so a pointer to the controller that should serve it
// directly instead of going through the MMU/bus - spec.md §4.9: "All
// memory accesses consult the ITCM/DTCM windows before the general
// bus".
func (t *TCM) Lookup(addr uint32, instruction bool) (*tcmWindow, bool) {
	if instruction {
		if t.itcm.contains(addr) {
			return &t.itcm, true
		}
		// Data accesses may also target ITCM (it's plain RAM); only the
		// instruction path is restricted to ITCM-or-bus.
		return nil, false
	}
	if t.dtcm.contains(addr) {
		return &t.dtcm, true
	}
	if t.itcm.contains(addr) {
		return &t.itcm, true
	}
	return nil, false
}

// tcmBus wraps the host Bus so every access consults the ITCM/DTCM
// windows first, per spec.md §4.9 ("All memory accesses consult the
// ITCM/DTCM windows before the general bus"). Core wires this in place
// of the raw host Bus everywhere a physical address is read or
// written - the MMU's descriptor walk, the prefetch queue, and
// load/store semantics all go through it uniformly.
type tcmBus struct {
	tcm  *TCM // nil when the variant has no TCM (non-946 parts)
	bus  Bus
}

func (b *tcmBus) lookup(addr uint32, instr bool) (*tcmWindow, bool) {
	if b.tcm == nil {
		return nil, false
	}
	return b.tcm.Lookup(addr, instr)
}

func (b *tcmBus) ReadByte(addr uint32) uint8 {
	if w, ok := b.lookup(addr, false); ok {
		return w.readByte(addr)
	}
	return b.bus.ReadByte(addr)
}

func (b *tcmBus) ReadHalf(addr uint32) uint16 {
	if w, ok := b.lookup(addr, false); ok {
		return w.readHalf(addr)
	}
	return b.bus.ReadHalf(addr)
}

func (b *tcmBus) ReadWord(addr uint32) uint32 {
	if w, ok := b.lookup(addr, false); ok {
		return w.readWord(addr)
	}
	return b.bus.ReadWord(addr)
}

// ReadInstrWord is used by the instruction-fetch path, which must check
// the ITCM window specifically (spec.md §4.9: the instruction path is
// ITCM-or-bus, not DTCM).
func (b *tcmBus) ReadInstrWord(addr uint32) uint32 {
	if w, ok := b.lookup(addr, true); ok {
		return w.readWord(addr)
	}
	return b.bus.ReadWord(addr)
}

func (b *tcmBus) WriteByte(addr uint32, v uint8) {
	if w, ok := b.lookup(addr, false); ok {
		w.writeByte(addr, v)
		return
	}
	b.bus.WriteByte(addr, v)
}

func (b *tcmBus) WriteHalf(addr uint32, v uint16) {
	if w, ok := b.lookup(addr, false); ok {
		w.writeHalf(addr, v)
		return
	}
	b.bus.WriteHalf(addr, v)
}

func (b *tcmBus) WriteWord(addr uint32, v uint32) {
	if w, ok := b.lookup(addr, false); ok {
		w.writeWord(addr, v)
		return
	}
	b.bus.WriteWord(addr, v)
}

// DirectReadPtr passes through to the host bus's fast path, if any; TCM
// windows are small enough that the MMU's descriptor-table walk never
// needs to consult them (descriptor tables do not live in TCM in
// practice).
func (b *tcmBus) DirectReadPtr(addr uint32) (*uint32, bool) {
	if db, ok := b.bus.(DirectBus); ok {
		return db.DirectReadPtr(addr)
	}
	return nil, false
}

func (w *tcmWindow) readByte(addr uint32) uint8 { return w.mem[addr-w.base] }

func (w *tcmWindow) readHalf(addr uint32) uint16 {
	off := addr - w.base
	lo, hi := w.mem[off], w.mem[off+1]
	if w.bigEndian {
		lo, hi = hi, lo
	}
	return uint16(lo) | uint16(hi)<<8
}

func (w *tcmWindow) readWord(addr uint32) uint32 {
	off := addr - w.base
	b0, b1, b2, b3 := w.mem[off], w.mem[off+1], w.mem[off+2], w.mem[off+3]
	if w.bigEndian {
		b0, b1, b2, b3 = b3, b2, b1, b0
	}
	return uint32(b0) | uint32(b1)<<8 | uint32(b2)<<16 | uint32(b3)<<24
}

func (w *tcmWindow) writeByte(addr uint32, v uint8) { w.mem[addr-w.base] = v }

func (w *tcmWindow) writeHalf(addr uint32, v uint16) {
	off := addr - w.base
	lo, hi := byte(v), byte(v>>8)
	if w.bigEndian {
		lo, hi = hi, lo
	}
	w.mem[off] = lo
	w.mem[off+1] = hi
}

func (w *tcmWindow) writeWord(addr uint32, v uint32) {
	off := addr - w.base
	b0, b1, b2, b3 := byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
	if w.bigEndian {
		b0, b1, b2, b3 = b3, b2, b1, b0
	}
	w.mem[off] = b0
	w.mem[off+1] = b1
	w.mem[off+2] = b2
	w.mem[off+3] = b3
}
