package arm

import "testing"

// newThumbTestCore builds an ARMv4T core (Thumb-capable, unlike the
// plain ARM7 newTestCore rig) over a fresh testBus.
func newThumbTestCore(t *testing.T) (*Core, *testBus) {
	t.Helper()
	bus := &testBus{}
	c := NewARM9(bus, nullLogger{})
	return c, bus
}

// TestThumbBXSwitchesToARM is spec.md §8 scenario 4: a Thumb BX Rm with
// Rm's bit 0 clear switches the core out of Thumb state and lands on
// the word-aligned target.
func TestThumbBXSwitchesToARM(t *testing.T) {
	c, bus := newThumbTestCore(t)
	bus.WriteHalf(0, encThumbBX(1)) // BX R1
	c.Registers().SetCPSR(ModeSupervisor | FlagT)
	c.Registers().Write(1, 0x1000) // bit 0 clear: target is ARM state

	c.Step(1)
	requireBool(t, "T bit cleared", c.Registers().CPSR()&FlagT != 0, false)
	requireU32(t, "PC", c.Registers().PC(), 0x1000)
}

// TestThumbBXStaysInThumb checks the complementary case: Rm's bit 0 set
// keeps the core in Thumb state and the target is still used verbatim
// for PC (bit 0 itself is dropped only by the write-to-R15 alignment
// mask, not by BranchExchange).
func TestThumbBXStaysInThumb(t *testing.T) {
	c, bus := newThumbTestCore(t)
	bus.WriteHalf(0, encThumbBX(2)) // BX R2
	c.Registers().SetCPSR(ModeSupervisor | FlagT)
	c.Registers().Write(2, 0x2001)

	c.Step(1)
	requireBool(t, "T bit stays set", c.Registers().CPSR()&FlagT != 0, true)
	requireU32(t, "PC word/half aligned", c.Registers().PC(), 0x2000)
}

// TestThumbMovImmediate checks the compact 8-bit-immediate encoding
// lands in the right register and advances PC by one halfword.
func TestThumbMovImmediate(t *testing.T) {
	c, bus := newThumbTestCore(t)
	bus.WriteHalf(0, encThumbMovImm(3, 0x55)) // MOV R3, #0x55
	c.Registers().SetCPSR(ModeSupervisor | FlagT)

	c.Step(1)
	requireU32(t, "R3", c.Registers().Read(3), 0x55)
	requireU32(t, "PC advances by 2", c.Registers().PC(), 2)
}

// TestThumbUnconditionalBranch checks the 11-bit signed halfword-offset
// branch's target computation against the Thumb PC-operand convention
// (PC+4).
func TestThumbUnconditionalBranch(t *testing.T) {
	c, bus := newThumbTestCore(t)
	bus.WriteHalf(0, encThumbB(4)) // offset11 = 4 halfwords = 8 bytes
	c.Registers().SetCPSR(ModeSupervisor | FlagT)

	c.Step(1)
	// Raw PC advances 0->2 before dispatch; ReadPCOperand(true) = 2+2=4;
	// target = 4 + 4*2 = 12.
	requireU32(t, "branch target", c.Registers().PC(), 12)
}
