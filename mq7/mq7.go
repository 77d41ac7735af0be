// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mq7 converts the analog output of an MQ-7 carbon monoxide sensor to
// a concentration in parts per million.
//
// The conversion is linear: ppm = max(0, (V - Offset) * PPMPerVolt). The
// defaults match an uncalibrated sensor on a 3.3V supply; adjust them after
// calibrating against a reference.
package mq7

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/physic"
)

// ADC is the analog input the sensor is wired to. analog.PinADC satisfies it.
type ADC interface {
	Read() (analog.Sample, error)
}

// Opts holds the conversion parameters.
type Opts struct {
	// Offset is the sensor output in clean air.
	Offset physic.ElectricPotential
	// PPMPerVolt is the slope of the conversion.
	PPMPerVolt float64
}

// DefaultOpts holds the default conversion parameters.
var DefaultOpts = Opts{
	Offset:     200 * physic.MilliVolt,
	PPMPerVolt: 100,
}

// Dev is an MQ-7 attached to an ADC input.
type Dev struct {
	adc  ADC
	opts Opts
}

// New returns a Dev reading from adc. opts may be nil.
func New(adc ADC, opts *Opts) (*Dev, error) {
	if adc == nil {
		return nil, errors.New("mq7: nil adc")
	}
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.PPMPerVolt <= 0 {
		return nil, fmt.Errorf("mq7: invalid slope %g ppm/V", o.PPMPerVolt)
	}
	return &Dev{adc: adc, opts: o}, nil
}

// Sense returns the CO concentration in ppm.
func (d *Dev) Sense() (float64, error) {
	s, err := d.adc.Read()
	if err != nil {
		return 0, fmt.Errorf("mq7: %w", err)
	}
	return d.toPPM(s.V), nil
}

func (d *Dev) toPPM(v physic.ElectricPotential) float64 {
	ppm := float64(v-d.opts.Offset) / float64(physic.Volt) * d.opts.PPMPerVolt
	if ppm < 0 {
		return 0
	}
	return ppm
}

// Halt implements conn.Resource. It halts the ADC input when it is a resource.
func (d *Dev) Halt() error {
	if r, ok := d.adc.(conn.Resource); ok {
		return r.Halt()
	}
	return nil
}

func (d *Dev) String() string {
	if s, ok := d.adc.(fmt.Stringer); ok {
		return "mq7: " + s.String()
	}
	return "mq7"
}

var _ conn.Resource = &Dev{}
