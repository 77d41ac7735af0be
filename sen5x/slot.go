// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sen5x

import (
	"fmt"
	"strconv"
)

// Slot is one of the fixed positions of a measurement frame.
type Slot int

const (
	SlotPM1 Slot = iota
	SlotPM25
	SlotPM4
	SlotPM10
	SlotHumidity
	SlotTemperature
	SlotVOC
	SlotNOx

	// SlotCount is the number of values in a measurement frame.
	SlotCount = 8
)

// AbsentMarker is what Reading.Text prints for a slot without a value.
const AbsentMarker = "ERR"

var slotInfo = [SlotCount]struct {
	name     string
	label    string
	unit     string
	divisor  float64
	decimals int
}{
	{name: "pm1_0", label: "PM1.0", unit: "ug/m3", divisor: 10, decimals: 1},
	{name: "pm2_5", label: "PM2.5", unit: "ug/m3", divisor: 10, decimals: 1},
	{name: "pm4_0", label: "PM4.0", unit: "ug/m3", divisor: 10, decimals: 1},
	{name: "pm10", label: "PM10", unit: "ug/m3", divisor: 10, decimals: 1},
	{name: "humidity", label: "Humidity", unit: "%", divisor: 100, decimals: 2},
	{name: "temperature", label: "Temp", unit: "C", divisor: 200, decimals: 3},
	{name: "voc_index", label: "VOC idx", divisor: 10, decimals: 1},
	{name: "nox_index", label: "NOx idx", divisor: 10, decimals: 1},
}

// Slots returns all slots in frame order.
func Slots() []Slot {
	s := make([]Slot, SlotCount)
	for ix := range s {
		s[ix] = Slot(ix)
	}
	return s
}

// Divisor is applied to the signed raw count to get the physical value.
func (s Slot) Divisor() float64 {
	return slotInfo[s].divisor
}

// Name is a stable machine readable identifier, e.g. "pm2_5".
func (s Slot) Name() string {
	return slotInfo[s].name
}

// Label is the short human readable name, e.g. "PM2.5".
func (s Slot) Label() string {
	return slotInfo[s].label
}

// Unit returns the unit of the scaled value. Indices have no unit.
func (s Slot) Unit() string {
	return slotInfo[s].unit
}

func (s Slot) String() string {
	if s < 0 || s >= SlotCount {
		return fmt.Sprintf("Slot(%d)", int(s))
	}
	return s.Label()
}

// Value is an optional physical value. The zero Value is absent.
type Value struct {
	V     float64
	Valid bool
}

// Present returns a valid Value.
func Present(v float64) Value {
	return Value{V: v, Valid: true}
}

// Format returns v with the given number of decimals, or AbsentMarker.
func (v Value) Format(decimals int) string {
	if !v.Valid {
		return AbsentMarker
	}
	return strconv.FormatFloat(v.V, 'f', decimals, 64)
}

func (v Value) String() string {
	return v.Format(-1)
}

// Reading is one decoded measurement frame. Each slot is independently present
// or absent.
type Reading [SlotCount]Value

// Get returns the value of slot s and whether it is present.
func (r Reading) Get(s Slot) (float64, bool) {
	return r[s].V, r[s].Valid
}

// Text formats slot s at the sensor's resolution, or returns AbsentMarker.
func (r Reading) Text(s Slot) string {
	return r[s].Format(slotInfo[s].decimals)
}

// Absent returns the slots that have no value.
func (r Reading) Absent() []Slot {
	var absent []Slot
	for ix := range r {
		if !r[ix].Valid {
			absent = append(absent, Slot(ix))
		}
	}
	return absent
}

// Complete reports whether every slot is present.
func (r Reading) Complete() bool {
	return len(r.Absent()) == 0
}
