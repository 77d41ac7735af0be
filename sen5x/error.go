// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sen5x

import "fmt"

// NotMeasuringError is returned by commands that are only valid in
// measurement mode when Start() has not been called, or after Halt().
type NotMeasuringError struct {
	Cmd uint16
}

func (e *NotMeasuringError) Error() string {
	return fmt.Sprintf("sen5x: cmd 0x%04x requires measurement mode, call Start() first", e.Cmd)
}

// TransportError wraps a failure of the underlying bus (nack, timeout,
// arbitration loss). The session does not retry.
type TransportError struct {
	// Op is "write" or "read".
	Op  string
	Cmd uint16
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("sen5x: cmd 0x%04x %s: %v", e.Cmd, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ChecksumError reports a word whose CRC did not match its data. For the
// read-values command Index is the Slot of the affected field.
type ChecksumError struct {
	Cmd   uint16
	Index int
	Got   byte
	Want  byte
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("sen5x: cmd 0x%04x word %d: invalid crc 0x%02x, expected 0x%02x", e.Cmd, e.Index, e.Got, e.Want)
}

// Slot returns the field affected by the mismatch.
func (e *ChecksumError) Slot() Slot {
	return Slot(e.Index)
}

// FrameSizeError is returned when a response buffer does not have the exact
// size of the command's response. It indicates a broken transport, not sensor
// noise.
type FrameSizeError struct {
	Len  int
	Want int
}

func (e *FrameSizeError) Error() string {
	return fmt.Sprintf("sen5x: response is %d bytes, expected %d", e.Len, e.Want)
}
