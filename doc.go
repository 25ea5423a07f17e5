// Package arm implements a cycle-approximate core for the 32-bit ARM
// v3/v4/v4T/v5/v5TE instruction set, including the Thumb subset and the
// ARM946ES tightly-coupled-memory extension.
//
// The core advances architectural state only: register banks, the
// program counter, condition flags, processor mode, the CP15 system
// control coprocessor, and the simulated MMU. It owns no memory of its
// own and drives no display or audio device — those are the host's
// responsibility, reached through the Bus interface.
package arm
