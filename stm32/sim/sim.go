package sim

import (
	"sync"

	"github.com/ardnew/stm32usb/pkg"
	"github.com/ardnew/stm32usb/stm32"
)

// istrSticky are the interrupt-status bits the model stores. They follow
// the hardware's clear-on-write-0 rule; stm32.IstrCTR is never stored
// because the real register derives it from the endpoint registers.
const istrSticky = stm32.IstrPMAOVR | stm32.IstrERR | stm32.IstrWKUP |
	stm32.IstrSUSP | stm32.IstrRESET | stm32.IstrSOF | stm32.IstrESOF

// Peripheral is a software model of the USB device controller. The zero
// value is not ready for use; construct instances with [New].
type Peripheral struct {
	mu     sync.Mutex
	cntr   uint16
	istr   uint16
	fnr    uint16
	daddr  uint16
	btable uint16
	epr    [stm32.NumEndpoints]uint16
	pma    [stm32.MemSize / 2]uint16
}

// New returns a model in its power-on state: transceiver powered down and
// the controller held in reset, as on real silicon.
func New() *Peripheral {
	return &Peripheral{cntr: stm32.CntrFRES | stm32.CntrPDWN}
}

// Register access, [stm32.Peripheral].

func (p *Peripheral) CNTR() uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cntr
}

func (p *Peripheral) SetCNTR(v uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cntr = v
}

// ISTR reports the sticky event bits, with stm32.IstrCTR set while any
// endpoint has a pending transfer-complete bit.
func (p *Peripheral) ISTR() uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := p.istr
	for _, e := range p.epr {
		if e&(stm32.EprCtrRx|stm32.EprCtrTx) != 0 {
			v |= stm32.IstrCTR
			break
		}
	}
	return v
}

// SetISTR clears every sticky bit written as 0; bits written as 1 are left
// unchanged.
func (p *Peripheral) SetISTR(v uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.istr &= v & istrSticky
}

func (p *Peripheral) FNR() uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fnr
}

func (p *Peripheral) DADDR() uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.daddr
}

func (p *Peripheral) SetDADDR(v uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.daddr = v
}

func (p *Peripheral) SetBTABLE(v uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.btable = v
}

func (p *Peripheral) EPR(n int) uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.epr[n]
}

// SetEPR applies the endpoint register's per-field write encoding: the
// address, kind, and type fields are written through; STAT and DTOG fields
// toggle where a 1 is written; the CTR bits clear on a written 0 and hold
// on a written 1. SETUP is read-only and falls with EprCtrRx.
func (p *Peripheral) SetEPR(n int, v uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()

	old := p.epr[n]
	rw := v & (stm32.EprEA | stm32.EprKind | stm32.EprType)
	toggled := (old ^ v) & (stm32.EprStatTx | stm32.EprStatRx | stm32.EprDtogTx | stm32.EprDtogRx)
	held := old & v & (stm32.EprCtrRx | stm32.EprCtrTx)
	setup := old & stm32.EprSetup
	if held&stm32.EprCtrRx == 0 {
		setup = 0
	}
	p.epr[n] = rw | toggled | held | setup
}

func (p *Peripheral) PMA(word int) uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pma[word]
}

func (p *Peripheral) SetPMA(word int, v uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pma[word] = v
}

// Host-side API.

// SignalReset raises the bus-reset interrupt, as the host does when it
// drives the reset condition.
func (p *Peripheral) SignalReset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.istr |= stm32.IstrRESET
}

// SignalSuspend raises the suspend interrupt.
func (p *Peripheral) SignalSuspend() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.istr |= stm32.IstrSUSP
}

// SignalWakeup raises the wakeup interrupt with the given D+/D- levels
// latched in the frame number register.
func (p *Peripheral) SignalWakeup(dp, dm bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.istr |= stm32.IstrWKUP
	p.fnr &^= stm32.FnrRXDP | stm32.FnrRXDM
	if dp {
		p.fnr |= stm32.FnrRXDP
	}
	if dm {
		p.fnr |= stm32.FnrRXDM
	}
}

// SendOut delivers a packet from the host to an OUT endpoint. It returns
// false when the endpoint is not armed (the wire-level answer would be NAK
// or STALL). On success the received count is latched, the receive status
// falls to NAK, and the transfer-complete bit is raised, as hardware does
// at the end of a reception.
func (p *Peripheral) SendOut(index int, data []byte, setup bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	e := p.epr[index]
	if stm32.Status(e&stm32.EprStatRx>>stm32.EprStatRxShift) != stm32.StatusValid {
		return false
	}

	addr := int(p.pma[stm32.DescWord(index, stm32.DescAddrRx)])
	for i := 0; i < len(data); i += 2 {
		w := uint16(data[i])
		if i+1 < len(data) {
			w |= uint16(data[i+1]) << 8
		}
		p.pma[(addr+i)>>1] = w
	}

	countWord := stm32.DescWord(index, stm32.DescCountRx)
	p.pma[countWord] = p.pma[countWord]&^stm32.CountRxMask | uint16(len(data))&stm32.CountRxMask

	e = e&^stm32.EprStatRx | uint16(stm32.StatusNak)<<stm32.EprStatRxShift
	e |= stm32.EprCtrRx
	if setup {
		e |= stm32.EprSetup
	} else {
		e &^= stm32.EprSetup
	}
	p.epr[index] = e

	pkg.LogDebug(pkg.ComponentSim, "host OUT packet delivered",
		"endpoint", index, "len", len(data), "setup", setup)
	return true
}

// CollectIn retrieves the packet the device armed on an IN endpoint, or
// ok=false when nothing is armed. On success the transmit status falls to
// NAK and the transfer-complete bit is raised, as hardware does once the
// host has acknowledged the packet.
func (p *Peripheral) CollectIn(index int) (data []byte, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e := p.epr[index]
	if stm32.Status(e&stm32.EprStatTx>>stm32.EprStatTxShift) != stm32.StatusValid {
		return nil, false
	}

	addr := int(p.pma[stm32.DescWord(index, stm32.DescAddrTx)])
	count := int(p.pma[stm32.DescWord(index, stm32.DescCountTx)] & stm32.CountTxMask)

	data = make([]byte, count)
	for i := 0; i < count; i += 2 {
		w := p.pma[(addr+i)>>1]
		data[i] = byte(w)
		if i+1 < count {
			data[i+1] = byte(w >> 8)
		}
	}

	p.epr[index] = e&^stm32.EprStatTx | uint16(stm32.StatusNak)<<stm32.EprStatTxShift | stm32.EprCtrTx

	pkg.LogDebug(pkg.ComponentSim, "host IN packet collected",
		"endpoint", index, "len", count)
	return data, true
}

// Inspection helpers.

// DeviceAddress returns the address programmed into DADDR.
func (p *Peripheral) DeviceAddress() uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return uint8(p.daddr & stm32.DaddrAdd)
}

// AddressEnabled reports whether address matching is enabled.
func (p *Peripheral) AddressEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.daddr&stm32.DaddrEF != 0
}

// PoweredDown reports whether the analog transceiver is powered down.
func (p *Peripheral) PoweredDown() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cntr&stm32.CntrPDWN != 0
}

// Suspended reports whether the controller is forced into suspend.
func (p *Peripheral) Suspended() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cntr&stm32.CntrFSUSP != 0
}

// Snapshot returns the endpoint registers and the buffer descriptor table,
// for comparing hardware configuration across resets.
func (p *Peripheral) Snapshot() (epr [stm32.NumEndpoints]uint16, desc [stm32.NumEndpoints * 4]uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	epr = p.epr
	copy(desc[:], p.pma[:len(desc)])
	return epr, desc
}

// Pin is a recording [stm32.OutputPin].
type Pin struct {
	mu          sync.Mutex
	low         bool
	transitions int
}

// Low drives the pin low.
func (p *Pin) Low() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.low = true
	p.transitions++
}

// High drives the pin high.
func (p *Pin) High() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.low = false
	p.transitions++
}

// IsLow reports whether the pin was last driven low.
func (p *Pin) IsLow() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.low
}

// Transitions returns the number of level changes driven so far.
func (p *Pin) Transitions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.transitions
}

// Compile-time interface checks
var (
	_ stm32.Peripheral = (*Peripheral)(nil)
	_ stm32.OutputPin  = (*Pin)(nil)
)
