// Package usb defines the generic bus contract between a protocol-agnostic
// USB device stack and a platform-specific device controller driver.
//
// The contract is transport-level only: a [Bus] implementation moves bytes
// between host-visible endpoints and controller packet memory and reports
// raw bus events through [Bus.Poll]. It knows nothing about descriptors,
// classes, or enumeration; those belong to the consuming device stack.
//
// Endpoints are identified by [EndpointAddress], a single byte combining a
// slot index with a [Direction] bit, matching the wire encoding used in
// endpoint descriptors. [PollResult] is the single discriminated result the
// stack dispatches on after each poll.
package usb
