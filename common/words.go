// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package common

import "fmt"

// WordSize is the number of bytes a single word occupies on the wire: two
// data bytes followed by their CRC.
const WordSize = 3

// Word is one CRC protected record read from a device.
type Word struct {
	// Data is the big-endian payload.
	Data [2]byte
	// CRC is the checksum received from the device.
	CRC byte
}

// Expected returns the CRC computed locally over Data.
func (w Word) Expected() byte {
	return WordCRC(w.Data)
}

// Valid reports whether the received CRC matches Data.
func (w Word) Valid() bool {
	return w.CRC == w.Expected()
}

// Uint16 returns the payload as an unsigned big-endian integer.
func (w Word) Uint16() uint16 {
	return uint16(w.Data[0])<<8 | uint16(w.Data[1])
}

// Int16 returns the payload as a big-endian two's complement integer.
func (w Word) Int16() int16 {
	return int16(w.Uint16())
}

// DecodeWords splits raw into words. The length of raw must be a multiple of
// WordSize. The CRC of each word is not checked here; callers decide whether a
// single bad word invalidates the whole response.
func DecodeWords(raw []byte) ([]Word, error) {
	if len(raw)%WordSize != 0 {
		return nil, fmt.Errorf("common: response length %d is not a multiple of %d", len(raw), WordSize)
	}
	words := make([]Word, len(raw)/WordSize)
	for ix := range words {
		off := ix * WordSize
		words[ix] = Word{Data: [2]byte{raw[off], raw[off+1]}, CRC: raw[off+2]}
	}
	return words, nil
}

// EncodeWords converts the slice of word values into bytes with the CRC
// following each word.
func EncodeWords(data []uint16) []byte {
	bytes := make([]byte, len(data)*WordSize)
	for ix, val := range data {
		off := ix * WordSize
		bytes[off] = byte(val >> 8)
		bytes[off+1] = byte(val)
		bytes[off+2] = CRC8(bytes[off : off+2])
	}
	return bytes
}
