// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package console prints station snapshots to a terminal, one line per value,
// each prefixed by a colour swatch using ANSI colour codes.
//
// Particulate matter swatches follow the US EPA AQI colour bands, absent
// values are red.
package console

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"io"
	"sync"

	"github.com/GermanBionicSystems/airquality/sen5x"
	"github.com/GermanBionicSystems/airquality/station"
	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// Opts represents the options available for the console.
type Opts struct {
	// Writer defaults to stdout, with ANSI codes translated on Windows.
	Writer  io.Writer
	Palette *ansi256.Palette
	// TimeFormat of the header line. Defaults to "2006-01-02 15:04:05".
	TimeFormat string

	_ struct{}
}

var (
	colorAbsent  = color.NRGBA{R: 255, A: 255}
	colorNeutral = color.NRGBA{R: 128, G: 128, B: 128, A: 255}

	colorGood          = color.NRGBA{G: 228, A: 255}
	colorModerate      = color.NRGBA{R: 255, G: 255, A: 255}
	colorSensitive     = color.NRGBA{R: 255, G: 126, A: 255}
	colorUnhealthy     = color.NRGBA{R: 255, A: 255}
	colorVeryUnhealthy = color.NRGBA{R: 143, G: 63, B: 151, A: 255}
	colorHazardous     = color.NRGBA{R: 126, B: 35, A: 255}
)

type band struct {
	max float64
	c   color.NRGBA
}

// Upper bounds in ug/m3 of the AQI categories.
var (
	pm25Bands = []band{{12, colorGood}, {35.4, colorModerate}, {55.4, colorSensitive}, {150.4, colorUnhealthy}, {250.4, colorVeryUnhealthy}}
	pm10Bands = []band{{54, colorGood}, {154, colorModerate}, {254, colorSensitive}, {354, colorUnhealthy}, {424, colorVeryUnhealthy}}
)

// Dev prints snapshots to the console.
type Dev struct {
	w          io.Writer
	palette    ansi256.Palette
	timeFormat string

	mu  sync.Mutex
	buf bytes.Buffer
}

// New returns a Dev that displays at the console. opts may be nil.
func New(opts *Opts) *Dev {
	var o Opts
	if opts != nil {
		o = *opts
	}
	p := o.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := o.Writer
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	tf := o.TimeFormat
	if tf == "" {
		tf = "2006-01-02 15:04:05"
	}
	return &Dev{w: w, palette: *p, timeFormat: tf}
}

func (d *Dev) String() string {
	return "Console"
}

// Halt implements conn.Resource.
//
// It resets the terminal colours.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\033[0m"))
	return err
}

// Render implements station.Renderer.
func (d *Dev) Render(_ context.Context, s station.Snapshot) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	// This code is designed to minimize the amount of memory allocated per call.
	d.buf.Reset()
	fmt.Fprintf(&d.buf, "\033[0m%s\n", s.Time.Format(d.timeFormat))
	for _, l := range station.Lines(s) {
		_, _ = io.WriteString(&d.buf, d.palette.Block(swatch(l, s)))
		_, _ = fmt.Fprintf(&d.buf, "\033[0m %s\n", l)
	}
	if s.Err != nil {
		_, _ = io.WriteString(&d.buf, d.palette.Block(colorAbsent))
		_, _ = fmt.Fprintf(&d.buf, "\033[0m error: %v\n", s.Err)
	}
	_, err := d.buf.WriteTo(d.w)
	return err
}

func swatch(l station.Line, s station.Snapshot) color.NRGBA {
	if !l.Present {
		return colorAbsent
	}
	var bands []band
	switch l.Slot {
	case sen5x.SlotPM1, sen5x.SlotPM25:
		bands = pm25Bands
	case sen5x.SlotPM4, sen5x.SlotPM10:
		bands = pm10Bands
	default:
		return colorNeutral
	}
	v := s.Air[l.Slot].V
	for _, b := range bands {
		if v <= b.max {
			return b.c
		}
	}
	return colorHazardous
}

var _ station.Renderer = &Dev{}
var _ fmt.Stringer = &Dev{}
