// Package pkg provides shared utilities for the stm32usb driver.
//
// This package contains common functionality used across the bus contract
// and the controller driver, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel error types for driver error conditions
//   - Component identifiers for log filtering
//
// The package is designed to have zero external dependencies, relying
// only on the Go standard library.
//
// # Logging
//
// The logging subsystem wraps [log/slog] with driver-specific context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentBus, "bus enabled", "maxEndpoint", 2)
//
// # Errors
//
// Driver errors are defined as sentinel values:
//
//	if errors.Is(err, pkg.ErrEndpointOverflow) {
//	    // No compatible endpoint slot left
//	}
package pkg
