// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sen5x

import "periph.io/x/conn/v3/i2c"

// Transport is the bus the sensor is attached to. Both operations block until
// they complete or the bus gives up; timeouts are the transport's business.
type Transport interface {
	// SendCommand writes a command, optionally followed by CRC framed
	// arguments, to the device at addr.
	SendCommand(addr uint16, cmd []byte) error
	// ReadResponse reads n bytes from the device at addr.
	ReadResponse(addr uint16, n int) ([]byte, error)
}

// I2CTransport implements Transport on a periph I²C bus. The write and the
// read are separate bus transactions since the sensor needs time in between.
type I2CTransport struct {
	b i2c.Bus
}

// NewI2CTransport returns a Transport using b.
func NewI2CTransport(b i2c.Bus) *I2CTransport {
	return &I2CTransport{b: b}
}

// SendCommand implements Transport.
func (t *I2CTransport) SendCommand(addr uint16, cmd []byte) error {
	return t.b.Tx(addr, cmd, nil)
}

// ReadResponse implements Transport.
func (t *I2CTransport) ReadResponse(addr uint16, n int) ([]byte, error) {
	r := make([]byte, n)
	if err := t.b.Tx(addr, nil, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (t *I2CTransport) String() string {
	return t.b.String()
}

var _ Transport = &I2CTransport{}
