package kernel

import (
	"math/bits"
	"unsafe"
)

// stackRedZone is left unused at the top of every block. The initial stack
// pointer is rounded down to the same alignment.
const stackRedZone = 16

// stackArena hands out fixed-size stack blocks carved from one region
// reserved at boot. A set bit in used marks a block that belongs to a task.
type stackArena struct {
	mem  []byte
	size int
	n    int
	used []uint64
}

func newStackArena(blocks, size int) stackArena {
	return stackArena{
		mem:  make([]byte, blocks*size),
		size: size,
		n:    blocks,
		used: make([]uint64, (blocks+63)/64),
	}
}

// alloc claims the lowest free block.
func (a *stackArena) alloc() (int, bool) {
	for w, word := range a.used {
		if word == ^uint64(0) {
			continue
		}
		i := w*64 + bits.TrailingZeros64(^word)
		if i >= a.n {
			return -1, false
		}
		a.used[w] |= 1 << uint(i%64)
		return i, true
	}
	return -1, false
}

func (a *stackArena) free(i int) {
	if i < 0 || i >= a.n {
		return
	}
	a.used[i/64] &^= 1 << uint(i%64)
}

func (a *stackArena) inUse(i int) bool {
	return i >= 0 && i < a.n && a.used[i/64]&(1<<uint(i%64)) != 0
}

func (a *stackArena) block(i int) []byte {
	return a.mem[i*a.size : (i+1)*a.size : (i+1)*a.size]
}

// top returns the initial stack pointer for block i. Stacks grow down.
func (a *stackArena) top(i int) uintptr {
	b := a.block(i)
	return uintptr(unsafe.Pointer(&b[len(b)-stackRedZone])) &^ (stackRedZone - 1)
}

func (a *stackArena) allocated() int {
	n := 0
	for _, w := range a.used {
		n += bits.OnesCount64(w)
	}
	return n
}
