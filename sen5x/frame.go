// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sen5x

import "github.com/GermanBionicSystems/airquality/common"

// FrameSize is the length in bytes of the response to the read-values command.
const FrameSize = SlotCount * common.WordSize

// Record is one slot of a decoded frame. Value is 0 unless Valid.
type Record struct {
	Value int16
	Valid bool
	// CRC is the checksum received, Expected the one computed over the data.
	CRC      byte
	Expected byte
}

// Frame holds the eight records of a read-values response in slot order.
type Frame [SlotCount]Record

// DecodeFrame validates and decodes a measurement frame. raw must be exactly
// FrameSize bytes long. A record with a bad CRC is marked invalid and decoding
// continues with the next record.
func DecodeFrame(raw []byte) (Frame, error) {
	var f Frame
	if len(raw) != FrameSize {
		return f, &FrameSizeError{Len: len(raw), Want: FrameSize}
	}
	words, err := common.DecodeWords(raw)
	if err != nil {
		return f, err
	}
	for ix, w := range words {
		f[ix].CRC = w.CRC
		f[ix].Expected = w.Expected()
		if w.Valid() {
			f[ix].Value = w.Int16()
			f[ix].Valid = true
		}
	}
	return f, nil
}

// Scale converts the valid records to physical values. Invalid records stay
// absent.
func (f *Frame) Scale() Reading {
	var r Reading
	for ix, rec := range f {
		if rec.Valid {
			r[ix] = Present(float64(rec.Value) / Slot(ix).Divisor())
		}
	}
	return r
}
