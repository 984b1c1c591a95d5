package stm32

import (
	"sync"

	"github.com/ardnew/stm32usb/pkg"
	"github.com/ardnew/stm32usb/usb"
)

// startupCycles busy-waits through the transceiver's mandated startup
// delay after leaving power-down: 1 microsecond, counted at the highest
// supported core clock (72 MHz).
const startupCycles = 72

// OutputPin is an owned push-pull digital output. The driver drives it low
// to pull D+ down during a forced reset.
type OutputPin interface {
	High()
	Low()
}

// resetCap is the optional forced-reset capability: a pin wired to D+ and
// a busy-wait cycle count derived from the core clock.
type resetCap struct {
	cycles uint32
	pin    OutputPin
}

// Bus is the USB device controller driver. It implements [usb.Bus].
//
// Construct one with [New], allocate endpoints, then call Enable exactly
// once before the first Poll. A single mutex guards the register block;
// Poll acquires it without blocking so an interrupt handler and the code
// it interrupted can never deadlock against each other.
type Bus struct {
	hw        Peripheral
	mu        sync.Mutex
	endpoints [NumEndpoints]endpoint
	mem       memAllocator

	// maxEndpoint bounds the Poll scan; fixed at Enable time.
	maxEndpoint int
	enabled     bool
	reset       *resetCap
}

// New constructs a driver over the given peripheral.
func New(hw Peripheral) *Bus {
	b := &Bus{hw: hw, mem: newMemAllocator()}
	for i := range b.endpoints {
		b.endpoints[i] = endpoint{hw: hw, index: i}
	}
	return b
}

// EnableReset configures the forced-reset capability. clockHz is the core
// clock frequency; the disconnect is held for one second's worth of
// cycles, comfortably beyond the threshold at which the host declares a
// detach. Refused once the bus has been enabled.
func (b *Bus) EnableReset(clockHz uint32, pin OutputPin) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.enabled {
		return pkg.ErrInvalidState
	}
	b.reset = &resetCap{cycles: clockHz, pin: pin}
	return nil
}

// AllocEndpoint implements [usb.Bus]. Candidate slots are scanned in
// ascending order (or just the explicitly requested slot), skipping slots
// committed to a different transfer type and directions already taken, so
// a bidirectional endpoint naturally lands both directions on one slot.
// The interval is not used by this controller.
func (b *Bus) AllocEndpoint(dir usb.Direction, ea *usb.EndpointAddress, epType usb.EndpointType, maxPacketSize uint16, interval uint8) (usb.EndpointAddress, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.enabled {
		return 0, pkg.ErrInvalidState
	}

	first, last := 1, NumEndpoints-1
	if ea != nil {
		if ea.Index() >= NumEndpoints {
			return 0, pkg.ErrEndpointOverflow
		}
		first, last = ea.Index(), ea.Index()
	}

	for index := first; index <= last; index++ {
		ep := &b.endpoints[index]

		if !ep.typeSet {
			ep.epType = epType
			ep.typeSet = true
		} else if ep.epType != epType {
			continue
		}

		switch dir {
		case usb.DirOut:
			if ep.outSet {
				continue
			}
			size, count, err := rxBufferFields(int(maxPacketSize))
			if err != nil {
				return 0, err
			}
			addr, err := b.mem.allocate(uint16(size))
			if err != nil {
				return 0, err
			}
			ep.outBuf = bufferDescriptor{addr: addr, size: uint16(size)}
			ep.outCount = count
			ep.outSet = true

		case usb.DirIn:
			if ep.inSet {
				continue
			}
			addr, err := b.mem.allocate((maxPacketSize + 1) &^ 1)
			if err != nil {
				return 0, err
			}
			ep.inBuf = bufferDescriptor{addr: addr, size: maxPacketSize}
			ep.inSet = true

		default:
			return 0, pkg.ErrInvalidEndpoint
		}

		addr := usb.NewEndpointAddress(index, dir)
		pkg.LogDebug(pkg.ComponentBus, "endpoint allocated",
			"address", addr.String(), "type", epType.String(),
			"maxPacketSize", maxPacketSize)
		return addr, nil
	}

	return 0, pkg.ErrEndpointOverflow
}

// Enable implements [usb.Bus]: powers up the analog transceiver, programs
// the buffer descriptor table base, releases the force-reset condition,
// and clears all pending interrupt status. It also freezes the endpoint
// allocation and the forced-reset capability.
func (b *Bus) Enable() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.enabled = true
	max := 0
	for i := range b.endpoints {
		if b.endpoints[i].inSet || b.endpoints[i].outSet {
			max = i
		}
	}
	b.maxEndpoint = max

	hw := b.hw
	hw.SetCNTR(hw.CNTR() &^ CntrPDWN)
	delayCycles(startupCycles)
	hw.SetBTABLE(0)
	hw.SetCNTR(hw.CNTR() &^ CntrFRES)
	hw.SetISTR(0)

	pkg.LogInfo(pkg.ComponentBus, "bus enabled", "maxEndpoint", max)
}

// Reset implements [usb.Bus]: clears pending interrupt status, resets the
// device address to 0 with address matching enabled, and rebuilds every
// endpoint slot's hardware state from the allocation records. Idempotent;
// the host may reset the bus at any time, including mid-transfer.
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hw.SetISTR(0)
	b.hw.SetDADDR(DaddrEF)
	for i := range b.endpoints {
		b.endpoints[i].configure()
	}

	pkg.LogDebug(pkg.ComponentBus, "bus reset")
}

// SetDeviceAddress implements [usb.Bus].
func (b *Bus) SetDeviceAddress(addr uint8) {
	b.mu.Lock()
	defer b.mu.Unlock()

	v := b.hw.DADDR()
	b.hw.SetDADDR(v&^DaddrAdd | uint16(addr)&DaddrAdd)

	pkg.LogDebug(pkg.ComponentBus, "device address set", "addr", addr)
}

// Poll implements [usb.Bus]. At most one pending condition is reported per
// call, most specific first: wakeup, reset, suspend, transfer complete.
// Conditions left unreported stay pending in the sticky status bits.
func (b *Bus) Poll() usb.PollResult {
	if !b.mu.TryLock() {
		// A concurrent poll already owns the registers; it, or the next
		// call, will observe the same sticky status bits.
		return usb.PollResult{Event: usb.EventNone}
	}
	defer b.mu.Unlock()

	hw := b.hw
	istr := hw.ISTR()

	switch {
	case istr&IstrWKUP != 0:
		hw.SetISTR(^uint16(IstrWKUP))

		// Distinguish genuine resume signaling from line noise: resume
		// drives D+ low, with D- either low (bus idle) or high (K state).
		fnr := hw.FNR()
		if fnr&FnrRXDP == 0 {
			return usb.PollResult{Event: usb.EventResume}
		}
		return usb.PollResult{Event: usb.EventSuspend}

	case istr&IstrRESET != 0:
		hw.SetISTR(^uint16(IstrRESET))
		return usb.PollResult{Event: usb.EventReset}

	case istr&IstrSUSP != 0:
		hw.SetISTR(^uint16(IstrSUSP))
		return usb.PollResult{Event: usb.EventSuspend}

	case istr&IstrCTR != 0:
		var out, inComplete, setup uint16
		for i := 0; i <= b.maxEndpoint; i++ {
			ep := &b.endpoints[i]
			v := ep.readReg()
			bit := uint16(1) << i

			if v&EprCtrRx != 0 {
				out |= bit
				if v&EprSetup != 0 {
					setup |= bit
				}
				// EprCtrRx stays set until Read consumes the data.
			}
			if v&EprCtrTx != 0 {
				inComplete |= bit
				ep.clearCtrTx()
			}
		}
		return usb.PollResult{
			Event:        usb.EventData,
			EpOut:        out,
			EpInComplete: inComplete,
			EpSetup:      setup,
		}
	}

	return usb.PollResult{Event: usb.EventNone}
}

// Write implements [usb.Bus].
func (b *Bus) Write(ea usb.EndpointAddress, data []byte) (int, error) {
	if !ea.IsIn() || ea.Index() >= NumEndpoints {
		return 0, pkg.ErrInvalidEndpoint
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.endpoints[ea.Index()].write(data)
}

// Read implements [usb.Bus].
func (b *Bus) Read(ea usb.EndpointAddress, buf []byte) (int, error) {
	if !ea.IsOut() || ea.Index() >= NumEndpoints {
		return 0, pkg.ErrInvalidEndpoint
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.endpoints[ea.Index()].read(buf)
}

// SetStalled implements [usb.Bus]. Clearing a stall moves the direction to
// NAK rather than VALID; the consuming stack re-arms transfers explicitly.
func (b *Bus) SetStalled(ea usb.EndpointAddress, stalled bool) {
	if ea.Index() >= NumEndpoints {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stalled(ea) == stalled {
		return
	}

	status := StatusNak
	if stalled {
		status = StatusStall
	}
	ep := &b.endpoints[ea.Index()]
	if ea.IsIn() {
		ep.setStatTx(status)
	} else {
		ep.setStatRx(status)
	}
}

// Stalled implements [usb.Bus].
func (b *Bus) Stalled(ea usb.EndpointAddress) bool {
	if ea.Index() >= NumEndpoints {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stalled(ea)
}

// stalled requires b.mu held.
func (b *Bus) stalled(ea usb.EndpointAddress) bool {
	ep := &b.endpoints[ea.Index()]
	if ea.IsIn() {
		return ep.statTx() == StatusStall
	}
	return ep.statRx() == StatusStall
}

// Suspend implements [usb.Bus]: forces the controller into suspend and
// drops the transceiver into low-power mode.
func (b *Bus) Suspend() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hw.SetCNTR(b.hw.CNTR() | CntrFSUSP | CntrLPMODE)
}

// Resume implements [usb.Bus]: leaves suspend and low-power mode.
func (b *Bus) Resume() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hw.SetCNTR(b.hw.CNTR() &^ (CntrFSUSP | CntrLPMODE))
}

// ForceReset implements [usb.Bus]: powers down the transceiver, holds D+
// low through the reset pin for the configured cycle count, then restores
// the transceiver's previous power state. The host perceives a physical
// disconnect and re-enumerates the device.
func (b *Bus) ForceReset() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.reset == nil {
		return pkg.ErrNotSupported
	}

	hw := b.hw
	pdwn := hw.CNTR() & CntrPDWN
	hw.SetCNTR(hw.CNTR() | CntrPDWN)

	b.reset.pin.Low()
	delayCycles(b.reset.cycles)

	hw.SetCNTR(hw.CNTR()&^CntrPDWN | pdwn)

	pkg.LogInfo(pkg.ComponentBus, "forced bus reset")
	return nil
}

// delaySink keeps delayCycles from being optimized away.
var delaySink uint32

// delayCycles busy-waits for roughly the given number of core cycles. The
// driver never yields; all delays are short, bounded spins.
func delayCycles(n uint32) {
	for i := uint32(0); i < n; i++ {
		delaySink++
	}
}

// Compile-time interface check
var _ usb.Bus = (*Bus)(nil)
