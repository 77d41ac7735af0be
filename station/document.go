// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package station

import (
	"time"

	"github.com/GermanBionicSystems/airquality/sen5x"
)

// Document is the JSON form of a Snapshot. Absent values are null.
type Document struct {
	Time   time.Time           `json:"time"`
	Values map[string]*float64 `json:"values"`
	CO     *float64            `json:"co_ppm"`
	Absent []string            `json:"absent,omitempty"`
	Error  string              `json:"error,omitempty"`
}

// Document returns the JSON form of s, keyed by sen5x.Slot.Name.
func (s Snapshot) Document() Document {
	d := Document{
		Time:   s.Time,
		Values: make(map[string]*float64, sen5x.SlotCount),
		CO:     optional(s.CO),
	}
	for _, slot := range sen5x.Slots() {
		d.Values[slot.Name()] = optional(s.Air[slot])
		if !s.Air[slot].Valid {
			d.Absent = append(d.Absent, slot.Name())
		}
	}
	if s.Err != nil {
		d.Error = s.Err.Error()
	}
	return d
}

func optional(v sen5x.Value) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.V
	return &f
}
