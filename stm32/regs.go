package stm32

// NumEndpoints is the number of endpoint slots the controller provides.
const NumEndpoints = 8

// Register offsets from the USB peripheral base (RM0008 section 23.5).
const (
	offEPR    = 0x00 // Endpoint registers EP0R-EP7R (array, stride 4)
	offCNTR   = 0x40 // Control register
	offISTR   = 0x44 // Interrupt status register
	offFNR    = 0x48 // Frame number register
	offDADDR  = 0x4C // Device address register
	offBTABLE = 0x50 // Buffer table address register
)

// CNTR register bits.
const (
	CntrFRES   = 1 << 0 // Force USB reset
	CntrPDWN   = 1 << 1 // Power down the analog transceiver
	CntrLPMODE = 1 << 2 // Low-power mode
	CntrFSUSP  = 1 << 3 // Force suspend
	CntrRESUME = 1 << 4 // Resume request signaling
)

// ISTR register bits. The event bits are sticky: they stay set until
// software clears them by writing 0 at their position (writing 1 leaves
// them unchanged). IstrCTR is read-only and tracks the per-endpoint
// transfer-complete bits.
const (
	IstrESOF   = 1 << 8  // Expected start of frame
	IstrSOF    = 1 << 9  // Start of frame
	IstrRESET  = 1 << 10 // USB reset request
	IstrSUSP   = 1 << 11 // Suspend mode request
	IstrWKUP   = 1 << 12 // Wakeup
	IstrERR    = 1 << 13 // Error
	IstrPMAOVR = 1 << 14 // Packet memory overrun/underrun
	IstrCTR    = 1 << 15 // Correct transfer (R)
)

// FNR register bits (receive data line status).
const (
	FnrRXDM = 1 << 14 // D- line level
	FnrRXDP = 1 << 15 // D+ line level
)

// DADDR register fields.
const (
	DaddrAdd = 0x007F   // Device address
	DaddrEF  = 1 << 7   // Enable address matching
)

// EPnR register fields. The STAT and DTOG fields are toggle-encoded:
// writing 1 to a bit flips it, writing 0 leaves it unchanged. The CTR bits
// clear on a 0 write and hold on a 1 write. SETUP is read-only and is
// cleared by hardware together with EprCtrRx.
const (
	EprEA          = 0x000F  // Endpoint address field
	EprStatTx      = 0x0030  // Transmit status (toggle)
	EprDtogTx      = 1 << 6  // Transmit data toggle (toggle)
	EprCtrTx       = 1 << 7  // Correct transfer, transmit (rc_w0)
	EprKind        = 1 << 8  // Endpoint kind
	EprType        = 0x0600  // Endpoint type field
	EprSetup       = 1 << 11 // Last received packet was SETUP (R)
	EprStatRx      = 0x3000  // Receive status (toggle)
	EprDtogRx      = 1 << 14 // Receive data toggle (toggle)
	EprCtrRx       = 1 << 15 // Correct transfer, receive (rc_w0)
	EprStatTxShift = 4
	EprTypeShift   = 9
	EprStatRxShift = 12
)

// Status is the logical value of an endpoint's 2-bit STAT field.
type Status uint16

// Endpoint status values.
const (
	StatusDisabled Status = 0 // All transactions ignored
	StatusStall    Status = 1 // Transactions answered with STALL
	StatusNak      Status = 2 // Transactions answered with NAK
	StatusValid    Status = 3 // Endpoint armed for transactions
)

// Buffer descriptor table layout: one 4-word entry per endpoint slot,
// located at the start of packet memory.
const (
	DescAddrTx  = 0 // Transmit buffer offset
	DescCountTx = 1 // Transmit byte count
	DescAddrRx  = 2 // Receive buffer offset
	DescCountRx = 3 // Receive block encoding and received byte count
)

// Byte-count fields occupy the low 10 bits of their descriptor words.
const (
	CountTxMask = 0x03FF // Transmit byte count in DescCountTx
	CountRxMask = 0x03FF // Received byte count in DescCountRx
)

// DescWord returns the packet-memory word index of one field of an
// endpoint's buffer descriptor table entry. The driver programs BTABLE to
// 0, placing the table at the start of packet memory.
func DescWord(index, field int) int {
	return index*4 + field
}

// Peripheral is the register-level access contract for the controller.
// Register reads and writes carry the peripheral's native semantics: the
// implementation does not interpret toggle or clear-on-write-0 encodings,
// it only moves 16-bit values to and from the hardware (or a behavioral
// model of it). Packet memory is addressed by 16-bit word index.
type Peripheral interface {
	CNTR() uint16
	SetCNTR(v uint16)
	ISTR() uint16
	SetISTR(v uint16)
	FNR() uint16
	DADDR() uint16
	SetDADDR(v uint16)
	SetBTABLE(v uint16)
	EPR(n int) uint16
	SetEPR(n int, v uint16)
	PMA(word int) uint16
	SetPMA(word int, v uint16)
}
