// main.go - armmon: a raw-terminal register/memory monitor for the arm
// core, grounded on the teacher's terminal_host.go raw-mode stdin reader
// and debug_commands.go ParseCommand/address-expression parser, adapted
// from a machine-wide monitor driving many CPUs to a single-core session
// driving one arm.Core over a flat RAM Bus.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	arm "github.com/siliconforge/armcore"
)

func main() {
	variant := flag.String("cpu", "arm7", "CPU variant: arm7, arm7be, arm7500, arm9, arm920t, arm946es, igs036, pxa255, sa1110")
	ramSize := flag.Int("ram", 1<<20, "RAM size in bytes")
	loadPath := flag.String("load", "", "binary file to load at --base before starting")
	base := flag.Uint64("base", 0, "load/vector base address")
	flag.Parse()

	bus := newRAMBus(*ramSize)
	if *loadPath != "" {
		data, err := os.ReadFile(*loadPath)
		if err != nil {
			log.Fatalf("armmon: %v", err)
		}
		if err := bus.loadBytes(uint32(*base), data); err != nil {
			log.Fatalf("armmon: %v", err)
		}
	}

	logger := log.New(os.Stderr, "arm: ", 0)
	core, err := newVariant(*variant, bus, logger)
	if err != nil {
		log.Fatalf("armmon: %v", err)
	}
	if *base != 0 {
		core.WriteReg(15, uint32(*base))
	}

	mon := &monitor{core: core, bus: bus}
	core.SetDebugHook(mon)

	fmt.Printf("armmon: %s core ready, %d bytes RAM. Type 'help' for commands.\n", *variant, *ramSize)
	mon.run()
}

func newVariant(name string, bus arm.Bus, logger arm.Logger) (*arm.Core, error) {
	switch strings.ToLower(name) {
	case "arm7":
		return arm.NewARM7(bus, logger), nil
	case "arm7be":
		return arm.NewARM7BigEndian(bus, logger), nil
	case "arm7500":
		return arm.NewARM7500(bus, logger), nil
	case "arm9":
		return arm.NewARM9(bus, logger), nil
	case "arm920t":
		return arm.NewARM920T(bus, logger), nil
	case "arm946es":
		return arm.NewARM946ES(bus, logger), nil
	case "igs036":
		return arm.NewIGS036(bus, logger), nil
	case "pxa255":
		return arm.NewPXA255(bus, logger), nil
	case "sa1110":
		return arm.NewSA1110(bus, logger), nil
	default:
		return nil, fmt.Errorf("unknown CPU variant %q", name)
	}
}

// monitor owns the raw terminal session and the set of breakpoints this
// session's InstructionHook checks on every instruction.
type monitor struct {
	core *arm.Core
	bus  *ramBus

	fd           int
	oldTermState *term.State
	nonblockSet  bool

	breakpoints map[uint32]bool
	running     bool // true between "cont" and the next breakpoint hit
}

// InstructionHook implements arm.DebugHook: when a breakpoint address is
// hit mid-"cont", it halts that Step call by panicking with stepBreak,
// caught in runCycles - the same break-by-panic idiom cpu_z80.go's debug
// hook uses rather than threading a stop flag through every instruction
// handler.
type stepBreak struct{ pc uint32 }

func (m *monitor) InstructionHook(pc uint32) {
	if m.running && m.breakpoints[pc] {
		panic(stepBreak{pc: pc})
	}
}

func (m *monitor) run() {
	m.breakpoints = make(map[uint32]bool)
	m.fd = int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(m.fd)
	if err != nil {
		// Not a real terminal (e.g. piped input/tests) - fall back to
		// line-buffered reads instead of refusing to run.
		m.runCooked()
		return
	}
	m.oldTermState = oldState
	defer m.restore()

	if err := syscall.SetNonblock(m.fd, true); err != nil {
		m.restore()
		m.runCooked()
		return
	}
	m.nonblockSet = true

	var line []byte
	buf := make([]byte, 1)
	fmt.Print("armmon> ")
	for {
		n, err := syscall.Read(m.fd, buf)
		if n > 0 {
			b := buf[0]
			switch {
			case b == '\r' || b == '\n':
				fmt.Print("\r\n")
				cmd := string(line)
				line = line[:0]
				if m.dispatch(cmd) {
					return
				}
				fmt.Print("armmon> ")
			case b == 0x7F || b == 0x08:
				if len(line) > 0 {
					line = line[:len(line)-1]
					fmt.Print("\b \b")
				}
			case b == 0x03: // Ctrl-C
				fmt.Print("\r\n")
				return
			default:
				line = append(line, b)
				fmt.Printf("%c", b)
			}
			continue
		}
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if err != nil {
			return
		}
	}
}

func (m *monitor) restore() {
	if m.nonblockSet {
		_ = syscall.SetNonblock(m.fd, false)
		m.nonblockSet = false
	}
	if m.oldTermState != nil {
		_ = term.Restore(m.fd, m.oldTermState)
		m.oldTermState = nil
	}
}

// runCooked is the non-interactive fallback: plain line-buffered stdin,
// used when stdin isn't a real terminal (scripted sessions, tests).
func (m *monitor) runCooked() {
	var sc lineScanner
	for {
		fmt.Print("armmon> ")
		cmd, ok := sc.next()
		if !ok {
			return
		}
		if m.dispatch(cmd) {
			return
		}
	}
}

// dispatch parses and runs one command line. It returns true when the
// session should end.
func (m *monitor) dispatch(line string) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "quit", "q", "exit":
		return true
	case "help", "?":
		printHelp()
	case "regs", "r":
		m.printRegisters()
	case "step", "s":
		n := argCount(args, 1)
		m.runCycles(n)
	case "cont", "c", "g":
		n := argCount(args, 1<<30)
		m.running = true
		m.runCycles(n)
		m.running = false
	case "break", "b":
		m.withAddr(args, func(a uint32) { m.breakpoints[a] = true; fmt.Printf("breakpoint set at %#08x\n", a) })
	case "clear":
		m.withAddr(args, func(a uint32) { delete(m.breakpoints, a); fmt.Printf("breakpoint cleared at %#08x\n", a) })
	case "breaks":
		for a := range m.breakpoints {
			fmt.Printf("  %#08x\n", a)
		}
	case "mem", "m":
		m.dumpMemory(args)
	case "poke":
		m.poke(args)
	case "setreg":
		m.setReg(args)
	case "reset":
		m.core.Reset()
		fmt.Println("core reset")
	default:
		fmt.Printf("unknown command %q (try 'help')\n", name)
	}
	return false
}

func argCount(args []string, def int) int {
	if len(args) == 0 {
		return def
	}
	if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
		return n
	}
	return def
}

// parseAddress accepts $hex, 0xhex, or bare hex forms, per the
// teacher's debug_commands.go ParseAddress (narrowed to the one hex
// prefix armmon actually needs).
func parseAddress(s string) (uint32, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

func (m *monitor) withAddr(args []string, f func(uint32)) {
	if len(args) == 0 {
		fmt.Println("usage: <cmd> <address>")
		return
	}
	a, ok := parseAddress(args[0])
	if !ok {
		fmt.Printf("bad address %q\n", args[0])
		return
	}
	f(a)
}

func (m *monitor) runCycles(n int) {
	defer func() {
		if r := recover(); r != nil {
			if br, ok := r.(stepBreak); ok {
				fmt.Printf("breakpoint hit at %#08x\n", br.pc)
				return
			}
			panic(r)
		}
	}()
	executed, err := m.core.Step(n)
	if err != nil {
		fmt.Printf("fault after %d instructions: %v\n", executed, err)
		return
	}
	if n > 1 {
		fmt.Printf("executed %d instructions\n", executed)
	}
}

func (m *monitor) printRegisters() {
	for _, r := range m.core.RegisterList() {
		fmt.Printf("  %-5s = %#010x\n", r.Name, uint32(r.Value))
	}
}

func (m *monitor) dumpMemory(args []string) {
	if len(args) == 0 {
		fmt.Println("usage: mem <address> [length]")
		return
	}
	addr, ok := parseAddress(args[0])
	if !ok {
		fmt.Printf("bad address %q\n", args[0])
		return
	}
	length := 64
	if len(args) > 1 {
		if n, err := strconv.Atoi(args[1]); err == nil && n > 0 {
			length = n
		}
	}
	for off := 0; off < length; off += 16 {
		fmt.Printf("%#08x: ", addr+uint32(off))
		for col := 0; col < 16 && off+col < length; col++ {
			fmt.Printf("%02x ", m.bus.ReadByte(addr+uint32(off+col)))
		}
		fmt.Println()
	}
}

func (m *monitor) poke(args []string) {
	if len(args) < 2 {
		fmt.Println("usage: poke <address> <byte>")
		return
	}
	addr, ok := parseAddress(args[0])
	if !ok {
		fmt.Printf("bad address %q\n", args[0])
		return
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(args[1], "0x"), 16, 8)
	if err != nil {
		fmt.Printf("bad byte value %q\n", args[1])
		return
	}
	m.bus.WriteByte(addr, uint8(v))
}

func (m *monitor) setReg(args []string) {
	if len(args) < 2 {
		fmt.Println("usage: setreg <name> <hex-value>")
		return
	}
	v, ok := parseAddress(args[1])
	if !ok {
		fmt.Printf("bad value %q\n", args[1])
		return
	}
	if !m.core.SetRegister(strings.ToUpper(args[0]), uint64(v)) {
		fmt.Printf("unknown register %q\n", args[0])
	}
}

func printHelp() {
	fmt.Print(`commands:
  step [n]            execute n instructions (default 1)
  cont                run until a breakpoint fires
  regs                dump all registers for the current mode
  break <addr>        set a breakpoint
  clear <addr>        clear a breakpoint
  breaks              list breakpoints
  mem <addr> [len]    hex-dump memory
  poke <addr> <byte>  write one byte
  setreg <r> <hex>    set a register by name (R0-R15, CPSR, SPSR)
  reset               reset the core
  quit                exit armmon
`)
}
