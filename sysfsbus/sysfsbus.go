// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sysfsbus implements sen5x.Transport on top of a Linux i2c-dev
// character device opened with gobot's sysfs package.
//
// It is an alternative to the periph host drivers on boards where only
// /dev/i2c-N is available.
package sysfsbus

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/GermanBionicSystems/airquality/sen5x"
	"gobot.io/x/gobot/sysfs"
)

// Device is typically the value returned by sysfs.NewI2cDevice.
type Device interface {
	SetAddress(address int) error
	io.ReadWriter
}

// Transport addresses a Device before every transfer.
type Transport struct {
	mu sync.Mutex
	d  Device
}

// New returns a Transport using d.
func New(d Device) (*Transport, error) {
	if d == nil {
		return nil, errors.New("sysfsbus: nil device")
	}
	return &Transport{d: d}, nil
}

// Open opens the i2c-dev device at location, e.g. "/dev/i2c-1".
func Open(location string) (*Transport, error) {
	d, err := sysfs.NewI2cDevice(location)
	if err != nil {
		return nil, fmt.Errorf("sysfsbus: open %s: %w", location, err)
	}
	return &Transport{d: d}, nil
}

// SendCommand implements sen5x.Transport.
func (t *Transport) SendCommand(addr uint16, cmd []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.d.SetAddress(int(addr)); err != nil {
		return fmt.Errorf("sysfsbus: set address 0x%02x: %w", addr, err)
	}
	n, err := t.d.Write(cmd)
	if err != nil {
		return fmt.Errorf("sysfsbus: write: %w", err)
	}
	if n != len(cmd) {
		return fmt.Errorf("sysfsbus: wrote %d of %d bytes", n, len(cmd))
	}
	return nil
}

// ReadResponse implements sen5x.Transport.
func (t *Transport) ReadResponse(addr uint16, n int) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.d.SetAddress(int(addr)); err != nil {
		return nil, fmt.Errorf("sysfsbus: set address 0x%02x: %w", addr, err)
	}
	b := make([]byte, n)
	m, err := io.ReadFull(t.d, b)
	if err != nil {
		return nil, fmt.Errorf("sysfsbus: read %d of %d bytes: %w", m, n, err)
	}
	return b, nil
}

// Close closes the underlying device if it supports it.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok := t.d.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (t *Transport) String() string {
	return "sysfs"
}

var _ sen5x.Transport = &Transport{}
