// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains the framing shared by the Sensirion drivers: the
// CRC-8 that protects every 16-bit word on the wire, and helpers to encode and
// decode sequences of CRC protected words.
package common

const (
	// CRC8Polynomial is x^8 + x^5 + x^4 + 1. The x^8 term is implied.
	CRC8Polynomial byte = 0x31
	// CRC8Init is the initial value of the CRC accumulator.
	CRC8Init byte = 0xff
)

// CRC8 calculates the 8-bit CRC of the byte slice parameter and returns the
// calculated value. There is no input or output reflection and no final XOR.
//
// Sensirion devices compute the CRC over each 2 byte data word, so CRC8 is
// normally called with a slice of length 2.
func CRC8(bytes []byte) byte {
	crc := CRC8Init
	for _, val := range bytes {
		crc ^= val
		for range 8 {
			if (crc & 0x80) == 0 {
				crc <<= 1
			} else {
				crc = (crc << 1) ^ CRC8Polynomial
			}
		}
	}
	return crc
}

// WordCRC returns the CRC of a single big-endian data word.
func WordCRC(word [2]byte) byte {
	return CRC8(word[:])
}
