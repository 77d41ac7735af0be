// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package monitor exports the state of an air quality station as Prometheus
// metrics and logs the protocol errors the sensor recovers from.
//
// A Collector is both a sen5x.Observer, counting checksum and transport
// failures, and a station.Renderer, exporting the latest values. Absent values
// are removed from the value gauge instead of being exported as 0.
package monitor

import (
	"context"

	"github.com/GermanBionicSystems/airquality/sen5x"
	"github.com/GermanBionicSystems/airquality/station"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

const (
	namespace = "airquality"
	subsystem = "sen5x"

	coLabel = "co"
)

// Collector holds the station metrics.
type Collector struct {
	log logrus.FieldLogger

	checksumErrors  *prometheus.CounterVec
	transportErrors *prometheus.CounterVec
	polls           *prometheus.CounterVec
	values          *prometheus.GaugeVec
	present         *prometheus.GaugeVec
	lastPoll        prometheus.Gauge
}

// New registers the station metrics with reg. It panics if they are already
// registered.
func New(reg prometheus.Registerer, log logrus.FieldLogger) *Collector {
	if log == nil {
		log = logrus.StandardLogger()
	}
	f := promauto.With(reg)
	return &Collector{
		log: log,
		checksumErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "checksum_errors_total",
			Help:      "Measurement values dropped because of a CRC mismatch.",
		}, []string{"slot"}),
		transportErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "transport_errors_total",
			Help:      "Failed bus operations.",
		}, []string{"op"}),
		polls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "polls_total",
			Help:      "Polls by result: complete, partial or error.",
		}, []string{"result"}),
		values: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "value",
			Help:      "Latest value per slot in the slot's unit. Absent values are not exported.",
		}, []string{"slot"}),
		present: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "value_present",
			Help:      "1 if the slot had a value in the latest poll, 0 otherwise.",
		}, []string{"slot"}),
		lastPoll: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "last_poll_timestamp_seconds",
			Help:      "Time of the latest poll.",
		}),
	}
}

// ChecksumMismatch implements sen5x.Observer.
func (c *Collector) ChecksumMismatch(err *sen5x.ChecksumError) {
	slot := err.Slot()
	c.checksumErrors.WithLabelValues(slot.Name()).Inc()
	c.log.WithFields(logrus.Fields{
		"slot": slot.Name(),
		"got":  err.Got,
		"want": err.Want,
	}).Warn("checksum mismatch, value dropped")
}

// TransportFailure implements sen5x.Observer. The error itself is returned to
// the caller, which logs it.
func (c *Collector) TransportFailure(err *sen5x.TransportError) {
	c.transportErrors.WithLabelValues(err.Op).Inc()
	c.log.WithError(err.Err).WithField("cmd", err.Cmd).Debug("transport failure")
}

// Render implements station.Renderer.
func (c *Collector) Render(_ context.Context, s station.Snapshot) error {
	c.lastPoll.Set(float64(s.Time.UnixNano()) / 1e9)
	switch {
	case s.Err != nil:
		c.polls.WithLabelValues("error").Inc()
	case s.Air.Complete():
		c.polls.WithLabelValues("complete").Inc()
	default:
		c.polls.WithLabelValues("partial").Inc()
	}
	for _, slot := range sen5x.Slots() {
		c.set(slot.Name(), s.Air[slot])
	}
	c.set(coLabel, s.CO)
	return nil
}

func (c *Collector) set(label string, v sen5x.Value) {
	if v.Valid {
		c.values.WithLabelValues(label).Set(v.V)
		c.present.WithLabelValues(label).Set(1)
		return
	}
	c.values.DeleteLabelValues(label)
	c.present.WithLabelValues(label).Set(0)
}

var _ sen5x.Observer = &Collector{}
var _ station.Renderer = &Collector{}
