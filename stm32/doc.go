// Package stm32 implements the [usb.Bus] contract for the USB full-speed
// device controller found on STM32F103-class microcontrollers.
//
// The controller exposes a fixed array of eight endpoint slots, each with
// independent IN and OUT buffers carved out of 512 bytes of dedicated
// packet memory. The driver owns the endpoint slot array, a monotonic
// packet-memory allocator, and the interrupt-status state machine behind
// [Bus.Poll].
//
// Register access goes through the [Peripheral] interface. [Take] hands out
// the single memory-mapped instance on real hardware; the stm32/sim package
// provides a behavioral model with the same register semantics for tests
// and host-side development.
//
// Two execution contexts may call into the driver concurrently: an
// interrupt handler and an ordinary polling loop. Every operation runs
// inside a short critical section guarding the register block; Poll
// acquires it without blocking and degrades to an idle result when the
// guard is contended, relying on the sticky interrupt-status bits to keep
// the event pending.
package stm32
