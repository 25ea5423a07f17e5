// variants.go - the nine concrete device constructors spec.md §6 names,
// each wiring Config, CP15 ID registers, and (for the 946-family parts)
// TCM attachment.
//
// Grounded on the teacher's per-chip constructor pattern (NewCPU_Z80,
// NewCPU_M68K taking a clock rate and bus and returning a ready
// instance) generalized to ARM's architecture-revision/flag axis.

package arm

// baseConfig fills in the fields every variant shares; callers override
// the rest.
func baseConfig(bus Bus, log Logger) Config {
	return Config{
		ClockHz:       0,
		Endian:        LittleEndian,
		VectorBase:    0,
		PrefetchDepth: 3,
		FaultPolicy:   FaultPolicyUndefined,
		Bus:           bus,
		Log:           log,
	}
}

// NewARM7 builds a little-endian ARMv4 core (no Thumb, no v5
// extensions) - the baseline ARM7 family part.
func NewARM7(bus Bus, log Logger) *Core {
	cfg := baseConfig(bus, log)
	cfg.Rev = RevARMv4
	cfg.IDCode = 0x41007000 // ARM Ltd, ARM7TDMI-class ID (ARMv4 variant reports no T bit here)
	cfg.CacheType = 0
	cfg.TLBType = 0
	return NewCore(cfg)
}

// NewARM7BigEndian is ARM7 with the bus and core configured
// big-endian.
func NewARM7BigEndian(bus Bus, log Logger) *Core {
	cfg := baseConfig(bus, log)
	cfg.Rev = RevARMv4
	cfg.Endian = BigEndian
	cfg.IDCode = 0x41007000
	return NewCore(cfg)
}

// NewARM7500 is the 26-bit-compatible ARM7500FE: ARMv4 core flagged for
// legacy 26-bit PC/status-word compatibility (the flag is recorded in
// Config.Flags but no code path reads it; the 32-bit register file and
// dispatch are unconditionally used, matching this core's stated
// non-goal of full 26-bit mode emulation beyond the flag).
func NewARM7500(bus Bus, log Logger) *Core {
	cfg := baseConfig(bus, log)
	cfg.Rev = RevARMv4
	cfg.Flags |= Flag26BitCompat
	cfg.IDCode = 0x41007500
	return NewCore(cfg)
}

// NewARM9 is a plain ARMv4T core (adds Thumb over ARM7).
func NewARM9(bus Bus, log Logger) *Core {
	cfg := baseConfig(bus, log)
	cfg.Rev = RevARMv4T
	cfg.Flags |= FlagThumb
	cfg.IDCode = 0x41059000
	return NewCore(cfg)
}

// NewARM920T is ARMv4T with a real two-level MMU walk (ARM920T ships a
// full MMU; the generic ARM7/ARM9 constructors above leave
// cfg.HasTCM/MMU fields at their defaults, which is fine since the MMU
// is always present in this core - variants differ in ID registers and
// feature flags, not in which subsystems exist).
func NewARM920T(bus Bus, log Logger) *Core {
	cfg := baseConfig(bus, log)
	cfg.Rev = RevARMv4T
	cfg.Flags |= FlagThumb
	cfg.IDCode = 0x41129200
	cfg.CacheType = 0x1D172172
	cfg.TLBType = 0x00000000
	return NewCore(cfg)
}

// NewARM946ES is the TCM-equipped ARMv5TE core used in many embedded
// SoCs: adds the ITCM/DTCM overlay on top of ARM920T's feature set.
func NewARM946ES(bus Bus, log Logger) *Core {
	cfg := baseConfig(bus, log)
	cfg.Rev = RevARMv5TE
	cfg.Flags |= FlagThumb | FlagEnhancedDSP
	cfg.IDCode = 0x41059460
	cfg.CacheType = 0x0F0D2112
	cfg.TCMType = 0x0A114121
	cfg.HasTCM = true
	return NewCore(cfg)
}

// NewIGS036 is an ARM946ES-derived part (arcade-board SoC convention:
// same core, distinct ID register so software can branch on it).
func NewIGS036(bus Bus, log Logger) *Core {
	cfg := baseConfig(bus, log)
	cfg.Rev = RevARMv5TE
	cfg.Flags |= FlagThumb | FlagEnhancedDSP
	cfg.IDCode = 0x41069460
	cfg.CacheType = 0x0F0D2112
	cfg.TCMType = 0x0A114121
	cfg.HasTCM = true
	return NewCore(cfg)
}

// NewPXA255 is an XScale-flagged ARMv5TE core (StrongARM's
// microarchitectural successor; this core models only the
// architectural flag, not XScale's distinct pipeline).
func NewPXA255(bus Bus, log Logger) *Core {
	cfg := baseConfig(bus, log)
	cfg.Rev = RevARMv5TE
	cfg.Flags |= FlagThumb | FlagEnhancedDSP | FlagXScale
	cfg.IDCode = 0x69052D06
	return NewCore(cfg)
}

// NewSA1110 is a StrongARM-flagged ARMv4 core (no Thumb - StrongARM
// predates the T variant's general availability in this product line).
func NewSA1110(bus Bus, log Logger) *Core {
	cfg := baseConfig(bus, log)
	cfg.Rev = RevARMv4
	cfg.Flags |= FlagStrongARM
	cfg.IDCode = 0x6901B119
	return NewCore(cfg)
}
