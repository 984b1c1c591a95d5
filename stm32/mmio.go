package stm32

import (
	"sync"
	"unsafe"
)

// Memory map of the USB controller on STM32F103-class parts.
const (
	regsBase uintptr = 0x4000_5C00 // Register block
	pmaBase  uintptr = 0x4000_6000 // Packet memory, CPU-side view
)

// MMIO implements [Peripheral] over the memory-mapped register block.
// Packet memory is dedicated on-chip memory holding 16-bit words that the
// CPU sees on 32-bit strides, so word index n lives at pmaBase + 4*n.
type MMIO struct {
	base uintptr
	pma  uintptr
}

var (
	takeMu sync.Mutex
	taken  bool
)

// Take returns the memory-mapped peripheral. The hardware has exactly one
// instance, so only the first call succeeds; every later call returns nil.
func Take() *MMIO {
	takeMu.Lock()
	defer takeMu.Unlock()
	if taken {
		return nil
	}
	taken = true
	return &MMIO{base: regsBase, pma: pmaBase}
}

func (m *MMIO) reg(off uintptr) *uint16 {
	return (*uint16)(unsafe.Pointer(m.base + off))
}

func (m *MMIO) CNTR() uint16       { return *m.reg(offCNTR) }
func (m *MMIO) SetCNTR(v uint16)   { *m.reg(offCNTR) = v }
func (m *MMIO) ISTR() uint16       { return *m.reg(offISTR) }
func (m *MMIO) SetISTR(v uint16)   { *m.reg(offISTR) = v }
func (m *MMIO) FNR() uint16        { return *m.reg(offFNR) }
func (m *MMIO) DADDR() uint16      { return *m.reg(offDADDR) }
func (m *MMIO) SetDADDR(v uint16)  { *m.reg(offDADDR) = v }
func (m *MMIO) SetBTABLE(v uint16) { *m.reg(offBTABLE) = v }

func (m *MMIO) EPR(n int) uint16 {
	return *m.reg(offEPR + uintptr(n)*4)
}

func (m *MMIO) SetEPR(n int, v uint16) {
	*m.reg(offEPR+uintptr(n)*4) = v
}

func (m *MMIO) PMA(word int) uint16 {
	return *(*uint16)(unsafe.Pointer(m.pma + uintptr(word)*4))
}

func (m *MMIO) SetPMA(word int, v uint16) {
	*(*uint16)(unsafe.Pointer(m.pma + uintptr(word)*4)) = v
}

// Compile-time interface check
var _ Peripheral = (*MMIO)(nil)
