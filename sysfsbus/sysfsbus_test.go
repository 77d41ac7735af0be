// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sysfsbus

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/GermanBionicSystems/airquality/common"
	"github.com/GermanBionicSystems/airquality/sen5x"
	"github.com/google/go-cmp/cmp"
)

type fakeDevice struct {
	addrs   []int
	written []byte
	r       io.Reader
	addrErr error
	closed  bool
}

func (f *fakeDevice) SetAddress(a int) error {
	f.addrs = append(f.addrs, a)
	return f.addrErr
}

func (f *fakeDevice) Write(b []byte) (int, error) {
	f.written = append(f.written, b...)
	return len(b), nil
}

func (f *fakeDevice) Read(b []byte) (int, error) {
	return f.r.Read(b)
}

func (f *fakeDevice) Close() error {
	f.closed = true
	return nil
}

func TestTransport(t *testing.T) {
	f := &fakeDevice{r: bytes.NewReader([]byte{1, 2, 3, 4})}
	tr, err := New(f)
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.SendCommand(0x69, []byte{0x03, 0xc4}); err != nil {
		t.Fatal(err)
	}
	b, err := tr.ReadResponse(0x69, 3)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]byte{1, 2, 3}, b); diff != "" {
		t.Errorf("read mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0x69, 0x69}, f.addrs); diff != "" {
		t.Errorf("addresses mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]byte{0x03, 0xc4}, f.written); diff != "" {
		t.Errorf("write mismatch (-want +got):\n%s", diff)
	}
	// Only one byte is left.
	if _, err := tr.ReadResponse(0x69, 3); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected short read error, got %v", err)
	}
	if err := tr.Close(); err != nil || !f.closed {
		t.Errorf("Close()=%v closed=%t", err, f.closed)
	}
}

func TestTransportAddressError(t *testing.T) {
	errAddr := errors.New("ioctl failed")
	tr, err := New(&fakeDevice{addrErr: errAddr})
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.SendCommand(0x69, []byte{0, 0x21}); !errors.Is(err, errAddr) {
		t.Errorf("SendCommand() returned %v", err)
	}
	if _, err := tr.ReadResponse(0x69, 3); !errors.Is(err, errAddr) {
		t.Errorf("ReadResponse() returned %v", err)
	}
	if _, err := New(nil); err == nil {
		t.Error("expected error for nil device")
	}
}

func TestSessionOverSysfs(t *testing.T) {
	frame := common.EncodeWords([]uint16{10, 25, 30, 40, 4521, 4690, 1000, 10})
	f := &fakeDevice{r: bytes.NewReader(frame)}
	tr, err := New(f)
	if err != nil {
		t.Fatal(err)
	}
	dev, err := sen5x.New(tr, sen5x.SensorAddress, &sen5x.Opts{ReadDelay: sen5x.MinReadDelay})
	if err != nil {
		t.Fatal(err)
	}
	if err := dev.Start(); err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	r, err := dev.Poll()
	if err != nil {
		t.Fatal(err)
	}
	if time.Since(start) < sen5x.MinReadDelay {
		t.Error("poll did not wait for the response delay")
	}
	if v, ok := r.Get(sen5x.SlotPM25); !ok || v != 2.5 {
		t.Errorf("pm2.5=%v,%t", v, ok)
	}
	if diff := cmp.Diff([]byte{0x00, 0x21, 0x03, 0xc4}, f.written); diff != "" {
		t.Errorf("write mismatch (-want +got):\n%s", diff)
	}
	if err := dev.Halt(); err != nil {
		t.Fatal(err)
	}
}
