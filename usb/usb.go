package usb

import "fmt"

// Direction is the transfer direction of an endpoint, named from the host's
// point of view as in the USB specification.
type Direction uint8

// Endpoint directions.
const (
	DirOut Direction = 0x00 // Host to device
	DirIn  Direction = 0x80 // Device to host
)

// String returns a human-readable direction name.
func (d Direction) String() string {
	if d == DirIn {
		return "IN"
	}
	return "OUT"
}

// EndpointType is the transfer type of an endpoint (USB 2.0 Spec Table 9-13).
type EndpointType uint8

// Endpoint transfer types.
const (
	EndpointTypeControl     EndpointType = 0x00 // Control transfer
	EndpointTypeIsochronous EndpointType = 0x01 // Isochronous transfer
	EndpointTypeBulk        EndpointType = 0x02 // Bulk transfer
	EndpointTypeInterrupt   EndpointType = 0x03 // Interrupt transfer
)

// String returns a human-readable transfer type name.
func (t EndpointType) String() string {
	switch t {
	case EndpointTypeControl:
		return "Control"
	case EndpointTypeIsochronous:
		return "Isochronous"
	case EndpointTypeBulk:
		return "Bulk"
	case EndpointTypeInterrupt:
		return "Interrupt"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

// EndpointAddress is a USB endpoint address: the endpoint number in the low
// nibble and the direction in bit 7, as encoded in endpoint descriptors.
type EndpointAddress uint8

// NewEndpointAddress combines an endpoint slot index and a direction into
// an endpoint address.
func NewEndpointAddress(index int, dir Direction) EndpointAddress {
	return EndpointAddress(uint8(index)&0x0F | uint8(dir))
}

// Index returns the endpoint slot index (0-15).
func (a EndpointAddress) Index() int {
	return int(a & 0x0F)
}

// Direction returns the endpoint direction.
func (a EndpointAddress) Direction() Direction {
	return Direction(a & 0x80)
}

// IsIn returns true for a device-to-host address.
func (a EndpointAddress) IsIn() bool {
	return a.Direction() == DirIn
}

// IsOut returns true for a host-to-device address.
func (a EndpointAddress) IsOut() bool {
	return a.Direction() == DirOut
}

// String returns a human-readable endpoint address.
func (a EndpointAddress) String() string {
	return fmt.Sprintf("EP%d %s", a.Index(), a.Direction())
}

// Event discriminates the outcome of a single [Bus.Poll] call.
type Event uint8

// Poll events.
const (
	EventNone    Event = iota // Nothing pending
	EventReset                // Bus reset seen; the stack must call Bus.Reset
	EventResume               // Resume signaling seen while suspended
	EventSuspend              // Suspend condition seen
	EventData                 // One or more endpoints completed a transfer
)

// String returns a human-readable event name.
func (e Event) String() string {
	switch e {
	case EventNone:
		return "none"
	case EventReset:
		return "reset"
	case EventResume:
		return "resume"
	case EventSuspend:
		return "suspend"
	case EventData:
		return "data"
	default:
		return "unknown"
	}
}

// PollResult reports what happened on the bus since the previous poll.
// The endpoint masks are only meaningful when Event is [EventData]; bit n
// of a mask refers to endpoint slot n.
type PollResult struct {
	Event Event

	// EpOut flags endpoints with received data pending. The bit stays set
	// until the pending data is consumed with [Bus.Read].
	EpOut uint16

	// EpInComplete flags endpoints that finished transmitting a packet.
	// The condition is consumed by the poll that reports it.
	EpInComplete uint16

	// EpSetup flags endpoints whose pending received data is a SETUP
	// packet. A set bit here implies the same bit in EpOut.
	EpSetup uint16
}
