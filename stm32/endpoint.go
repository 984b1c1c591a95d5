package stm32

import (
	"github.com/ardnew/stm32usb/pkg"
	"github.com/ardnew/stm32usb/usb"
)

// bufferDescriptor records one direction's reserved range of packet memory.
type bufferDescriptor struct {
	addr uint16 // byte offset into packet memory
	size uint16 // usable capacity in bytes
}

// endpoint is the driver-side state of one hardware endpoint slot. The
// transfer type and buffer descriptors are assigned during allocation,
// before the bus is enabled, and never change afterwards.
//
// Methods that touch the endpoint register or packet memory require the
// owning bus's critical section to be held. The STAT fields are only ever
// moved through setStatTx and setStatRx, which encapsulate the register's
// write-1-to-toggle encoding; nothing above this type issues raw toggles.
type endpoint struct {
	hw      Peripheral
	index   int
	epType  usb.EndpointType
	typeSet bool

	inBuf bufferDescriptor
	inSet bool

	outBuf   bufferDescriptor
	outCount uint16 // DescCountRx block encoding for outBuf
	outSet   bool
}

func (e *endpoint) readReg() uint16 {
	return e.hw.EPR(e.index)
}

// eprInvariant is the write value that leaves every field of the endpoint
// register unchanged: read-write fields keep their current value, toggle
// fields receive 0, and the rc_w0 transfer-complete bits receive 1.
func eprInvariant(v uint16) uint16 {
	return v&(EprEA|EprKind|EprType) | EprCtrRx | EprCtrTx
}

// setStatTx moves the transmit status field to the given value.
func (e *endpoint) setStatTx(status Status) {
	v := e.readReg()
	e.hw.SetEPR(e.index, eprInvariant(v)|(v^uint16(status)<<EprStatTxShift)&EprStatTx)
}

// setStatRx moves the receive status field to the given value.
func (e *endpoint) setStatRx(status Status) {
	v := e.readReg()
	e.hw.SetEPR(e.index, eprInvariant(v)|(v^uint16(status)<<EprStatRxShift)&EprStatRx)
}

func (e *endpoint) statTx() Status {
	return Status(e.readReg() & EprStatTx >> EprStatTxShift)
}

func (e *endpoint) statRx() Status {
	return Status(e.readReg() & EprStatRx >> EprStatRxShift)
}

// clearCtrTx acknowledges a completed transmission. A set bit would keep
// re-raising the transfer interrupt.
func (e *endpoint) clearCtrTx() {
	e.hw.SetEPR(e.index, eprInvariant(e.readReg())&^EprCtrTx)
}

// clearCtrRx acknowledges consumed received data. Hardware drops the SETUP
// flag together with it.
func (e *endpoint) clearCtrRx() {
	e.hw.SetEPR(e.index, eprInvariant(e.readReg())&^EprCtrRx)
}

// configure programs the slot's buffer descriptor table entry and endpoint
// register from the allocation state: address and type fields rewritten,
// data toggles zeroed, transfer-complete bits cleared, and each direction's
// status set to NAK (transmit) or VALID (receive) when its buffer exists.
// Invoked on every bus reset; repeat calls produce identical state.
func (e *endpoint) configure() {
	if !e.typeSet {
		return
	}

	if e.inSet {
		e.hw.SetPMA(DescWord(e.index, DescAddrTx), e.inBuf.addr)
		e.hw.SetPMA(DescWord(e.index, DescCountTx), 0)
	}
	if e.outSet {
		e.hw.SetPMA(DescWord(e.index, DescAddrRx), e.outBuf.addr)
		e.hw.SetPMA(DescWord(e.index, DescCountRx), e.outCount)
	}

	statTx, statRx := StatusDisabled, StatusDisabled
	if e.inSet {
		statTx = StatusNak
	}
	if e.outSet {
		statRx = StatusValid
	}

	v := e.readReg()
	w := epTypeBits(e.epType)<<EprTypeShift | uint16(e.index)&EprEA
	w |= v & (EprDtogTx | EprDtogRx) // toggle current value back to zero
	w |= (v ^ uint16(statTx)<<EprStatTxShift) & EprStatTx
	w |= (v ^ uint16(statRx)<<EprStatRxShift) & EprStatRx
	e.hw.SetEPR(e.index, w)
}

// write copies data into the transmit buffer and arms the transmission.
// Returns 0 while the previous packet is still awaiting the host.
func (e *endpoint) write(data []byte) (int, error) {
	if !e.inSet {
		return 0, pkg.ErrInvalidEndpoint
	}
	if len(data) > int(e.inBuf.size) {
		return 0, pkg.ErrSizeOverflow
	}
	if e.statTx() == StatusValid {
		return 0, nil
	}

	pmaWrite(e.hw, e.inBuf.addr, data)
	e.hw.SetPMA(DescWord(e.index, DescCountTx), uint16(len(data)))
	e.setStatTx(StatusValid)
	return len(data), nil
}

// read copies pending received data into buf, truncating to its length,
// and re-arms reception. Returns 0 when nothing has been received.
func (e *endpoint) read(buf []byte) (int, error) {
	if !e.outSet {
		return 0, pkg.ErrInvalidEndpoint
	}
	if e.readReg()&EprCtrRx == 0 {
		return 0, nil
	}

	count := int(e.hw.PMA(DescWord(e.index, DescCountRx)) & CountRxMask)
	n := count
	if n > len(buf) {
		n = len(buf)
	}
	pmaRead(e.hw, e.outBuf.addr, buf[:n])

	e.clearCtrRx()
	e.setStatRx(StatusValid)
	return n, nil
}

// epTypeBits maps an endpoint type to the EprType field encoding.
func epTypeBits(t usb.EndpointType) uint16 {
	switch t {
	case usb.EndpointTypeControl:
		return 0x1
	case usb.EndpointTypeIsochronous:
		return 0x2
	case usb.EndpointTypeInterrupt:
		return 0x3
	default: // Bulk
		return 0x0
	}
}
