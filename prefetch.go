// prefetch.go - 3-deep instruction prefetch queue with translated-address
// caching, per spec.md §4.3.
//
// The queue only ever deals in word-aligned fetches; Thumb halfword
// selection from a fetched word happens one level up in decode_thumb.go
// (fetchThumbWord), which
// matches spec.md §4.3's description of the queue holding raw 32-bit
// words regardless of instruction-set state.
//
// Grounded on the teacher's fetchOpcode/fetchByte pair in cpu_z80.go
// (PC-relative fetch-then-advance helpers) generalized to a queue of
// such fetches performed ahead of need, with the MMU walk memoized per
// spec.md §3's "MMU walk result cache (prefetch queue)".

package arm

type prefetchEntry struct {
	vaddr          uint32
	word           uint32
	translationOK  bool
}

// PrefetchQueue is a FIFO of up to depth previously fetched words.
// At depth=1 the queue still holds one word of lookahead (refill tops
// it up after each fetch); Core does not route fetches through the
// queue at all when Config.PrefetchDepth is 1 or less.
type PrefetchQueue struct {
	depth   int
	entries []prefetchEntry
	mmu     *MMU
	bus     *tcmBus
}

// NewPrefetchQueue builds an empty queue of the given depth against mmu
// and bus. Depth is clamped to at least 1.
func NewPrefetchQueue(depth int, mmu *MMU, bus *tcmBus) *PrefetchQueue {
	if depth < 1 {
		depth = 1
	}
	return &PrefetchQueue{depth: depth, mmu: mmu, bus: bus}
}

// Invalidate discards all queued entries. Any write to R15, any MMU
// enable/disable toggle, and any CP15 TTB/DACR write that could change
// what a queued virtual address maps to must call this - spec.md §4.1
// ("Writes to R15 flush the prefetch queue") and §4.3.
func (q *PrefetchQueue) Invalidate() {
	q.entries = q.entries[:0]
}

// Fetch returns the word at the word-aligned virtual address vaddr,
// consuming the head of the queue if it matches and refilling behind
// it, or falling back to a direct fetch on a miss (spec.md §4.3: "If
// the head slot's address != PC, invalidate the queue").
//
// ok is false when the slot was filled through a failed speculative
// translation (translationOK was false) or the direct fallback
// translation itself fails; in both cases the caller is responsible for
// observing the pending prefetch-abort flag the MMU has (by now)
// raised - Fetch re-runs the real, side-effecting Translate in that
// case specifically so FSR/FAR and the pending flag get set at the
// instant the faulting instruction is actually reached, not when it was
// speculatively queued (spec.md §4.2's prefetch-translation check).
func (q *PrefetchQueue) Fetch(vaddr uint32) (word uint32, ok bool) {
	if len(q.entries) == 0 || q.entries[0].vaddr != vaddr {
		q.Invalidate()
		return q.fetchDirect(vaddr)
	}

	e := q.entries[0]
	q.entries = q.entries[1:]
	q.refill(vaddr + 4)

	if !e.translationOK {
		_, _ = q.mmu.Translate(vaddr, AccessKind{Instruction: true})
		return 0, false
	}
	return e.word, true
}

func (q *PrefetchQueue) fetchDirect(vaddr uint32) (uint32, bool) {
	paddr, ok := q.mmu.Translate(vaddr, AccessKind{Instruction: true})
	if !ok {
		return 0, false
	}
	word := q.bus.ReadInstrWord(paddr)
	q.refill(vaddr + 4)
	return word, true
}

// refill tops the queue back up to depth, each new slot one word past
// the last queued (or just-consumed) address, using the
// non-side-effecting PrefetchTranslate per spec.md §4.2. after is the
// virtual address one word past whatever was just consumed or directly
// fetched - the queue may be empty at this point (a direct-fetch miss
// leaves nothing queued), so the next address can't be derived from the
// queue's own tail.
func (q *PrefetchQueue) refill(after uint32) {
	next := after
	if len(q.entries) > 0 {
		next = q.entries[len(q.entries)-1].vaddr + 4
	}
	for len(q.entries) < q.depth {
		paddr, ok := q.mmu.PrefetchTranslate(next)
		entry := prefetchEntry{vaddr: next, translationOK: ok}
		if ok {
			entry.word = q.bus.ReadInstrWord(paddr)
		}
		q.entries = append(q.entries, entry)
		next += 4
	}
}
