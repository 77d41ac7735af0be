// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package station

import (
	"github.com/GermanBionicSystems/airquality/sen5x"
)

// Line is one labelled value of a snapshot, ready for display.
type Line struct {
	Label string
	// Text is the formatted value or sen5x.AbsentMarker.
	Text    string
	Unit    string
	Present bool
	// Slot is the sensor slot, or -1 for the CO line.
	Slot sen5x.Slot
}

// COSlot identifies the CO line in Lines.
const COSlot sen5x.Slot = -1

func (l Line) String() string {
	s := l.Label + ": " + l.Text
	switch l.Unit {
	case "":
	case "%":
		s += l.Unit
	default:
		s += " " + l.Unit
	}
	return s
}

// Lines returns the eight sensor slots followed by CO.
func Lines(s Snapshot) []Line {
	lines := make([]Line, 0, sen5x.SlotCount+1)
	for _, slot := range sen5x.Slots() {
		lines = append(lines, Line{
			Label:   slot.Label(),
			Text:    s.Air.Text(slot),
			Unit:    slot.Unit(),
			Present: s.Air[slot].Valid,
			Slot:    slot,
		})
	}
	return append(lines, Line{
		Label:   "CO",
		Text:    s.CO.Format(1),
		Unit:    "ppm",
		Present: s.CO.Valid,
		Slot:    COSlot,
	})
}
