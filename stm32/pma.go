package stm32

import "github.com/ardnew/stm32usb/pkg"

// Packet memory geometry.
const (
	// MemSize is the total packet memory capacity in bytes.
	MemSize = 512

	// memStart is the first byte past the buffer descriptor table, which
	// occupies one 8-byte entry per endpoint slot.
	memStart = NumEndpoints * 8
)

// memAllocator hands out non-overlapping byte ranges of packet memory.
// Allocation is monotonic and permanent: endpoint buffers live for the
// driver's lifetime, so nothing is ever reclaimed.
type memAllocator struct {
	next uint16
}

func newMemAllocator() memAllocator {
	return memAllocator{next: memStart}
}

// allocate reserves size bytes and returns their packet-memory offset.
// size must be even; callers round to the controller's 2-byte granularity
// before allocating.
func (a *memAllocator) allocate(size uint16) (uint16, error) {
	if size&1 != 0 {
		panic("stm32: odd packet memory allocation")
	}
	addr := a.next
	if int(addr)+int(size) > MemSize {
		return 0, pkg.ErrSizeOverflow
	}
	a.next += size
	pkg.LogDebug(pkg.ComponentPMA, "packet memory allocated",
		"addr", addr, "size", size)
	return addr, nil
}

// rxBufferFields computes the block encoding the controller requires for a
// receive buffer of at least size bytes. Buffers up to 62 bytes are counted
// in 2-byte blocks; larger buffers up to 512 bytes in 32-byte blocks with
// the high bit set and the count stored minus one. It returns the rounded
// buffer size together with the DescCountRx field value, or
// pkg.ErrSizeOverflow for sizes neither family can express.
func rxBufferFields(size int) (int, uint16, error) {
	switch {
	case size <= 62:
		size = (size + 1) &^ 1
		return size, uint16(size>>1) << 10, nil
	case size <= 512:
		size = (size + 31) &^ 31
		return size, 0x8000 | uint16(size>>5-1)<<10, nil
	default:
		return 0, 0, pkg.ErrSizeOverflow
	}
}

// pmaWrite copies data into packet memory starting at the given byte
// offset. The offset is always even; a trailing odd byte occupies the low
// half of its word.
func pmaWrite(hw Peripheral, offset uint16, data []byte) {
	word := int(offset) >> 1
	for len(data) >= 2 {
		hw.SetPMA(word, uint16(data[0])|uint16(data[1])<<8)
		word++
		data = data[2:]
	}
	if len(data) == 1 {
		hw.SetPMA(word, uint16(data[0]))
	}
}

// pmaRead copies len(buf) bytes out of packet memory starting at the given
// byte offset.
func pmaRead(hw Peripheral, offset uint16, buf []byte) {
	word := int(offset) >> 1
	for len(buf) >= 2 {
		v := hw.PMA(word)
		buf[0] = byte(v)
		buf[1] = byte(v >> 8)
		word++
		buf = buf[2:]
	}
	if len(buf) == 1 {
		buf[0] = byte(hw.PMA(word))
	}
}
