// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package console

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/GermanBionicSystems/airquality/sen5x"
	"github.com/GermanBionicSystems/airquality/station"
	"github.com/maruel/ansi256"
)

func TestRender(t *testing.T) {
	buf := bytes.Buffer{}
	d := New(&Opts{Writer: &buf})
	var air sen5x.Reading
	air[sen5x.SlotPM25] = sen5x.Present(40)
	air[sen5x.SlotHumidity] = sen5x.Present(45.2)
	s := station.Snapshot{Time: time.Date(2026, 10, 16, 8, 30, 0, 0, time.UTC), Air: air, CO: sen5x.Present(2)}
	if err := d.Render(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	p := ansi256.Default
	for _, want := range []string{
		"2026-10-16 08:30:00\n",
		p.Block(colorSensitive) + "\033[0m PM2.5: 40.0 ug/m3\n",
		p.Block(colorNeutral) + "\033[0m Humidity: 45.20%\n",
		p.Block(colorAbsent) + "\033[0m NOx idx: ERR\n",
		p.Block(colorNeutral) + "\033[0m CO: 2.0 ppm\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output is missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "error:") {
		t.Error("unexpected error line")
	}
}

func TestRenderError(t *testing.T) {
	buf := bytes.Buffer{}
	d := New(&Opts{Writer: &buf, TimeFormat: time.Kitchen})
	if err := d.Render(context.Background(), station.Snapshot{Err: errors.New("sen5x: nack")}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "error: sen5x: nack\n") {
		t.Errorf("missing error line:\n%s", out)
	}
	if n := strings.Count(out, ": ERR"); n != sen5x.SlotCount+1 {
		t.Errorf("expected %d ERR markers, got %d", sen5x.SlotCount+1, n)
	}
}

func TestSwatch(t *testing.T) {
	tests := []struct {
		slot sen5x.Slot
		v    float64
		want color.NRGBA
	}{
		{sen5x.SlotPM25, 5, colorGood},
		{sen5x.SlotPM25, 12, colorGood},
		{sen5x.SlotPM25, 20, colorModerate},
		{sen5x.SlotPM1, 100, colorUnhealthy},
		{sen5x.SlotPM25, 500, colorHazardous},
		{sen5x.SlotPM10, 60, colorModerate},
		{sen5x.SlotPM4, 400, colorVeryUnhealthy},
		{sen5x.SlotVOC, 400, colorNeutral},
	}
	for _, test := range tests {
		var s station.Snapshot
		s.Air[test.slot] = sen5x.Present(test.v)
		l := station.Line{Slot: test.slot, Present: true}
		if got := swatch(l, s); got != test.want {
			t.Errorf("swatch(%s=%v)=%v expected %v", test.slot, test.v, got, test.want)
		}
	}
}

func TestHalt(t *testing.T) {
	buf := bytes.Buffer{}
	d := New(&Opts{Writer: &buf})
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "\033[0m" {
		t.Errorf("Halt() wrote %q", buf.String())
	}
	if d.String() != "Console" {
		t.Errorf("String()=%q", d.String())
	}
}
