// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package station runs the measurement loop of an air quality station. One
// SEN5x session is polled on a fixed interval, optionally together with a CO
// sensor, and every snapshot is handed to each configured Renderer. Displays,
// consoles, metrics and publishers all see the same reading.
package station

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GermanBionicSystems/airquality/sen5x"
	"github.com/sirupsen/logrus"
)

// Sensor is the measurement session. *sen5x.Dev implements it.
type Sensor interface {
	Start() error
	Poll() (sen5x.Reading, error)
	Halt() error
}

// GasSensor returns a gas concentration in ppm. *mq7.Dev implements it.
type GasSensor interface {
	Sense() (float64, error)
}

// Renderer consumes snapshots. Render is called from the station goroutine;
// a slow renderer delays the next poll.
type Renderer interface {
	Render(ctx context.Context, s Snapshot) error
}

// RendererFunc adapts a function to a Renderer.
type RendererFunc func(ctx context.Context, s Snapshot) error

// Render implements Renderer.
func (f RendererFunc) Render(ctx context.Context, s Snapshot) error {
	return f(ctx, s)
}

// Snapshot is the result of one poll.
type Snapshot struct {
	Time time.Time
	Air  sen5x.Reading
	// CO in ppm. Absent when no CO sensor is configured or it failed.
	CO sen5x.Value
	// Err is the poll error. Air is entirely absent when Err is set.
	Err error
}

// Opts holds the station configuration.
type Opts struct {
	// Interval between polls. Default is 10s.
	Interval time.Duration
	// Settle is the wait between Start and the first poll. Default is
	// sen5x.SettlingTime.
	Settle time.Duration
	// RetryInterval is the wait before retrying a failed Start. Default is 5s.
	RetryInterval time.Duration
	// CO is an optional carbon monoxide sensor.
	CO GasSensor
	// Logger defaults to the logrus standard logger.
	Logger logrus.FieldLogger
}

// Station polls a Sensor and fans the snapshots out to renderers.
type Station struct {
	sensor    Sensor
	renderers []Renderer
	opts      Opts
	log       logrus.FieldLogger
	now       func() time.Time

	mu     sync.RWMutex
	latest Snapshot
}

// New returns a Station. opts may be nil.
func New(sensor Sensor, opts *Opts, renderers ...Renderer) (*Station, error) {
	if sensor == nil {
		return nil, errors.New("station: nil sensor")
	}
	var o Opts
	if opts != nil {
		o = *opts
	}
	if o.Interval < 0 || o.Settle < 0 || o.RetryInterval < 0 {
		return nil, errors.New("station: negative duration in options")
	}
	if o.Interval == 0 {
		o.Interval = 10 * time.Second
	}
	if o.Settle == 0 {
		o.Settle = sen5x.SettlingTime
	}
	if o.RetryInterval == 0 {
		o.RetryInterval = 5 * time.Second
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	return &Station{
		sensor:    sensor,
		renderers: renderers,
		opts:      o,
		log:       o.Logger,
		now:       time.Now,
	}, nil
}

// Run starts the sensor, waits for it to settle and polls until ctx is done.
// A failed Start is retried every RetryInterval. Poll errors are logged and
// rendered; the session is never restarted because of them. The sensor is
// halted on return. Run returns ctx.Err().
func (s *Station) Run(ctx context.Context) error {
	if err := s.start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := s.sensor.Halt(); err != nil {
			s.log.WithError(err).Warn("halt sensor")
		}
	}()
	s.log.WithField("settle", s.opts.Settle).Info("measurement started, waiting for sensor to settle")
	if err := sleep(ctx, s.opts.Settle); err != nil {
		return err
	}
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()
	for {
		s.PollOnce(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Station) start(ctx context.Context) error {
	for {
		err := s.sensor.Start()
		if err == nil {
			return nil
		}
		s.log.WithError(err).Warnf("start measurement, retrying in %s", s.opts.RetryInterval)
		if err := sleep(ctx, s.opts.RetryInterval); err != nil {
			return err
		}
	}
}

// PollOnce takes one snapshot, stores it as the latest and renders it.
func (s *Station) PollOnce(ctx context.Context) Snapshot {
	snap := Snapshot{Time: s.now()}
	snap.Air, snap.Err = s.sensor.Poll()
	if snap.Err != nil {
		s.log.WithError(snap.Err).Error("poll sensor")
	} else if absent := snap.Air.Absent(); len(absent) > 0 {
		s.log.WithField("absent", absent).Warn("incomplete reading")
	}
	if s.opts.CO != nil {
		if ppm, err := s.opts.CO.Sense(); err != nil {
			s.log.WithError(err).Warn("read CO sensor")
		} else {
			snap.CO = sen5x.Present(ppm)
		}
	}

	s.mu.Lock()
	s.latest = snap
	s.mu.Unlock()

	for _, r := range s.renderers {
		if err := r.Render(ctx, snap); err != nil {
			s.log.WithError(err).WithField("renderer", fmt.Sprintf("%T", r)).Warn("render snapshot")
		}
	}
	return snap
}

// Latest returns the most recent snapshot. It is the zero Snapshot until the
// first poll.
func (s *Station) Latest() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
