// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package panel draws station snapshots as pages of text on a display.
//
// Small screens cannot show all nine values at once, so the lines are split
// into pages of LinesPerPage lines. Render shows the current page of a new
// snapshot; Next and Rotate step through the pages.
package panel

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/GermanBionicSystems/airquality/station"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"periph.io/x/conn/v3/display"
)

// Opts holds the layout options.
type Opts struct {
	// LinesPerPage defaults to 4.
	LinesPerPage int
	// Face defaults to basicfont.Face7x13. Use TrueTypeFace for larger
	// displays.
	Face font.Face
	// Margin in pixels from the top left corner. Defaults to 2.
	Margin int
	// Foreground, Background and Absent colours. Absent is used for lines
	// without a value. Default white, black and red.
	Foreground color.Color
	Background color.Color
	Absent     color.Color
}

// Panel renders snapshots on a display.Drawer.
type Panel struct {
	d    display.Drawer
	opts Opts

	mu   sync.Mutex
	page int
	last station.Snapshot
}

// New returns a Panel drawing on d. opts may be nil.
func New(d display.Drawer, opts *Opts) (*Panel, error) {
	if d == nil {
		return nil, errors.New("panel: nil display")
	}
	var o Opts
	if opts != nil {
		o = *opts
	}
	if o.LinesPerPage < 0 || o.Margin < 0 {
		return nil, errors.New("panel: negative layout option")
	}
	if o.LinesPerPage == 0 {
		o.LinesPerPage = 4
	}
	if o.Face == nil {
		o.Face = basicfont.Face7x13
	}
	if o.Margin == 0 {
		o.Margin = 2
	}
	if o.Foreground == nil {
		o.Foreground = color.White
	}
	if o.Background == nil {
		o.Background = color.Black
	}
	if o.Absent == nil {
		o.Absent = color.RGBA{R: 255, A: 255}
	}
	return &Panel{d: d, opts: o}, nil
}

// TrueTypeFace returns the Go Regular font at size points.
func TrueTypeFace(size float64) (font.Face, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{Size: size}), nil
}

// Render implements station.Renderer. It draws the current page of s.
func (p *Panel) Render(_ context.Context, s station.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = s
	return p.drawLocked()
}

// Next advances to the next page and redraws the latest snapshot.
func (p *Panel) Next() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.page = (p.page + 1) % p.pages()
	return p.drawLocked()
}

// Page returns the index of the page on screen.
func (p *Panel) Page() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page
}

// Rotate calls Next every interval until ctx is done.
func (p *Panel) Rotate(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.Next(); err != nil {
				return err
			}
		}
	}
}

// Halt clears the display.
func (p *Panel) Halt() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	b := p.d.Bounds()
	dc := gg.NewContext(b.Dx(), b.Dy())
	dc.SetColor(p.opts.Background)
	dc.Clear()
	return p.d.Draw(b, dc.Image(), image.Point{})
}

func (p *Panel) pages() int {
	n := len(station.Lines(p.last))
	return (n + p.opts.LinesPerPage - 1) / p.opts.LinesPerPage
}

func (p *Panel) drawLocked() error {
	lines := station.Lines(p.last)
	start := p.page * p.opts.LinesPerPage
	end := min(start+p.opts.LinesPerPage, len(lines))

	b := p.d.Bounds()
	dc := gg.NewContext(b.Dx(), b.Dy())
	dc.SetColor(p.opts.Background)
	dc.Clear()
	dc.SetFontFace(p.opts.Face)
	m := p.opts.Face.Metrics()
	lineHeight := float64(m.Height.Ceil())
	x := float64(p.opts.Margin)
	y := float64(p.opts.Margin + m.Ascent.Ceil())
	for _, l := range lines[start:end] {
		if l.Present {
			dc.SetColor(p.opts.Foreground)
		} else {
			dc.SetColor(p.opts.Absent)
		}
		dc.DrawString(l.String(), x, y)
		y += lineHeight
	}
	return p.d.Draw(b, dc.Image(), image.Point{})
}

var _ station.Renderer = &Panel{}
