// debug.go - debugger-facing register inspection, grounded on the
// teacher's debug_cpu_z80.go/debug_interface.go RegisterInfo/
// DebuggableCPU pattern, adapted to ARM's 16 GPRs per mode plus CPSR
// and the five SPSRs (SPEC_FULL.md §4.1a).

package arm

// RegisterInfo describes one inspectable register, in the teacher's
// debug_interface.go shape.
type RegisterInfo struct {
	Name     string
	BitWidth int
	Value    uint64
	Group    string
}

var gprNames = [16]string{
	"R0", "R1", "R2", "R3", "R4", "R5", "R6", "R7",
	"R8", "R9", "R10", "R11", "R12", "R13", "R14", "R15",
}

// RegisterList returns every architecturally visible register under
// the current mode's view, plus CPSR and (when not User/System) the
// active SPSR - the set a debugger would show for "current state".
func (c *Core) RegisterList() []RegisterInfo {
	out := make([]RegisterInfo, 0, 18)
	for r := 0; r < 16; r++ {
		out = append(out, RegisterInfo{Name: gprNames[r], BitWidth: 32, Value: uint64(c.rf.Read(r)), Group: "general"})
	}
	out = append(out, RegisterInfo{Name: "CPSR", BitWidth: 32, Value: uint64(c.rf.CPSR()), Group: "status"})
	if c.rf.CurrentMode() != ModeUser && c.rf.CurrentMode() != ModeSystem {
		out = append(out, RegisterInfo{Name: "SPSR", BitWidth: 32, Value: uint64(c.rf.ReadSPSR(c.log)), Group: "status"})
	}
	return out
}

// GetRegister looks up one register by name from RegisterList's set,
// per the teacher's DebuggableCPU.GetRegister contract.
func (c *Core) GetRegister(name string) (uint64, bool) {
	for _, r := range c.RegisterList() {
		if r.Name == name {
			return r.Value, true
		}
	}
	return 0, false
}

// SetRegister writes one GPR, CPSR, or SPSR by name.
func (c *Core) SetRegister(name string, value uint64) bool {
	for r := 0; r < 16; r++ {
		if gprNames[r] == name {
			c.WriteReg(r, uint32(value))
			return true
		}
	}
	switch name {
	case "CPSR":
		c.rf.SetCPSR(uint32(value))
		c.modeChanged = true
		return true
	case "SPSR":
		c.rf.WriteSPSR(c.log, uint32(value))
		return true
	}
	return false
}

// CPUName satisfies the teacher's DebuggableCPU.CPUName slot.
func (c *Core) CPUName() string { return "ARM" }

// AddressWidth satisfies DebuggableCPU.AddressWidth: this core's
// address space is always 32 bits.
func (c *Core) AddressWidth() int { return 32 }

// GetPC/SetPCValue adapt DebuggableCPU's 64-bit-addr convention to the
// register file's uint32 PC.
func (c *Core) GetPC() uint64    { return uint64(c.rf.PC()) }
func (c *Core) SetPCValue(v uint64) { c.WriteReg(15, uint32(v)) }
