package usb

// Bus is the contract a device controller driver implements for the device
// stack. The stack allocates endpoints before Enable, then drives the bus
// by calling Poll repeatedly (from the main loop, an interrupt handler, or
// both) and reacting to the returned events.
//
// No Bus method blocks. Transient non-availability (endpoint busy on write,
// no data on read) is reported as a zero count with a nil error so callers
// can retry without exception-driven control flow.
type Bus interface {
	// AllocEndpoint allocates controller resources for one direction of an
	// endpoint and returns the resulting address. A non-nil ea requests a
	// specific endpoint slot (endpoint 0 for control transfers); otherwise
	// the driver picks the first compatible slot. Allocation is only valid
	// before Enable.
	//
	// Fails with pkg.ErrEndpointOverflow when no slot satisfies the
	// request, or pkg.ErrSizeOverflow when packet memory is exhausted or
	// maxPacketSize is not representable by the controller.
	AllocEndpoint(dir Direction, ea *EndpointAddress, epType EndpointType, maxPacketSize uint16, interval uint8) (EndpointAddress, error)

	// Enable activates the controller. Called exactly once, after all
	// endpoint allocation and before the first Poll.
	Enable()

	// Reset restores every allocated endpoint's controller state and
	// resets the device address to 0. The stack calls it whenever Poll
	// reports EventReset. It is idempotent; the host may reset the bus at
	// any time, including mid-transfer.
	Reset()

	// SetDeviceAddress sets the address assigned by the host during
	// enumeration.
	SetDeviceAddress(addr uint8)

	// Poll reports at most one pending bus condition. Conditions it does
	// not report remain pending for subsequent calls.
	Poll() PollResult

	// Write copies data into the endpoint's transmit buffer and arms the
	// transmission. Returns 0 while a previous transmission is still in
	// flight. Fails with pkg.ErrInvalidEndpoint unless ea is an allocated
	// IN address.
	Write(ea EndpointAddress, data []byte) (int, error)

	// Read copies received data out of the endpoint's buffer and re-arms
	// reception. Returns 0 when no data is pending. Fails with
	// pkg.ErrInvalidEndpoint unless ea is an allocated OUT address.
	Read(ea EndpointAddress, buf []byte) (int, error)

	// SetStalled sets or clears the endpoint's STALL condition. Clearing
	// leaves the endpoint NAKing; the stack re-arms transfers explicitly.
	SetStalled(ea EndpointAddress, stalled bool)

	// Stalled reports whether the endpoint is currently stalled.
	Stalled(ea EndpointAddress) bool

	// Suspend puts the controller into its low-power suspended state.
	// Called when Poll reports EventSuspend.
	Suspend()

	// Resume brings the controller out of suspend. Called when Poll
	// reports EventResume.
	Resume()

	// ForceReset forces the host to re-enumerate the device by simulating
	// a physical disconnect. Fails with pkg.ErrNotSupported when the
	// controller has no disconnect capability configured.
	ForceReset() error
}
