// config.go - construction-time configuration: clock rate, endianness,
// architecture revision/flags, vector base, and the nine concrete
// device variants spec.md §6 "CLI / config" names.

package arm

// Endianness selects how the host Bus is addressed for multi-byte
// accesses.
type Endianness int

const (
	LittleEndian Endianness = iota
	BigEndian
)

// Revision is the architecture generation: it gates which instruction
// families the decoder recognizes (v4T's Thumb state, v5's BLX/CLZ).
type Revision int

const (
	RevARMv4 Revision = iota
	RevARMv4T
	RevARMv5
	RevARMv5TE
)

// Flags are architecture feature bits independent of Revision.
type Flags uint32

const (
	FlagThumb        Flags = 1 << 0
	FlagEnhancedDSP  Flags = 1 << 1 // v5TE saturating/multiply-accumulate extensions
	FlagXScale       Flags = 1 << 2
	FlagStrongARM    Flags = 1 << 3
	Flag26BitCompat  Flags = 1 << 4 // ARM7500-style 26-bit PC/status word
)

// FaultPolicy selects what Step does when it hits an implementation
// fault (spec.md §7 population 2), per SPEC_FULL.md §7.
type FaultPolicy int

const (
	// FaultPolicyUndefined raises pending_Undefined and continues,
	// matching reference behavior for recoverable decode gaps.
	FaultPolicyUndefined FaultPolicy = iota
	// FaultPolicyAbort returns a *Fault from Step and halts that Step
	// call. The only implementation fault raised today is Step finding
	// no step variant built for the current state.
	FaultPolicyAbort
)

// Fault is returned by Step when FaultPolicyAbort is configured and an
// implementation fault (not an architectural exception) is hit.
type Fault struct {
	PC      uint32
	Message string
}

func (f *Fault) Error() string { return f.Message }

// Config bundles every construction-time parameter. Zero value is not
// meaningful; use one of the Variant constructors in variants.go or
// fill every field explicitly.
type Config struct {
	ClockHz       uint64
	Endian        Endianness
	Rev           Revision
	Flags         Flags
	VectorBase    uint32
	PrefetchDepth int
	FaultPolicy   FaultPolicy

	IDCode    uint32
	CacheType uint32
	TCMType   uint32
	TLBType   uint32
	HasTCM    bool

	Bus      Bus
	Log      Logger
	DebugHook DebugHook
}

func (c *Config) normalize() {
	if c.PrefetchDepth <= 0 {
		c.PrefetchDepth = 3
	}
	if c.Log == nil {
		c.Log = nullLogger{}
	}
}
