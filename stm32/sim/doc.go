// Package sim provides a behavioral model of the STM32F103-class USB
// device controller for tests and host-side development.
//
// [Peripheral] implements [stm32.Peripheral] with the hardware's register
// write semantics rather than plain memory: endpoint STAT and DTOG fields
// toggle on a written 1, the transfer-complete bits clear on a written 0,
// and the sticky interrupt-status bits clear on a written 0. On top of the
// register surface it offers a host-side API (SignalReset, SendOut,
// CollectIn, ...) that plays the role of the USB host, so a full
// allocate/enable/poll/transfer cycle runs without hardware.
package sim
