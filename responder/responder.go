// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package responder serves the latest station snapshot over HTTP.
//
// Routes:
//
//	/             HTML table of the latest values
//	/api/reading  JSON document, absent values are null
//	/metrics      Prometheus metrics
//	/healthz      200 once a complete reading was taken, 503 otherwise
//	/display      optional, e.g. a videosink mirror of the panel
package responder

import (
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/GermanBionicSystems/airquality/station"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Source returns the latest snapshot. *station.Station implements it.
type Source interface {
	Latest() station.Snapshot
}

// Opts holds the optional parts of the handler.
type Opts struct {
	// Gatherer for /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
	// Display is mounted on /display when set.
	Display http.Handler
	// MaxAge after which /healthz reports the reading as stale. Zero
	// disables the check.
	MaxAge time.Duration
	// Logger defaults to the logrus standard logger.
	Logger logrus.FieldLogger
}

type handler struct {
	src  Source
	opts Opts
	now  func() time.Time
}

// New returns the HTTP handler. opts may be nil.
func New(src Source, opts *Opts) http.Handler {
	var o Opts
	if opts != nil {
		o = *opts
	}
	if o.Gatherer == nil {
		o.Gatherer = prometheus.DefaultGatherer
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	h := &handler{src: src, opts: o, now: time.Now}
	return h.mux()
}

func (h *handler) mux() *http.ServeMux {
	m := http.NewServeMux()
	m.HandleFunc("/", h.index)
	m.HandleFunc("/api/reading", h.reading)
	m.HandleFunc("/healthz", h.healthz)
	m.Handle("/metrics", promhttp.HandlerFor(h.opts.Gatherer, promhttp.HandlerOpts{}))
	if h.opts.Display != nil {
		m.Handle("/display", h.opts.Display)
	}
	return m
}

var page = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="10">
<title>Air quality</title>
</head>
<body>
<h1>Air quality</h1>
{{if .Time.IsZero}}<p>No reading yet.</p>{{else}}<p>{{.Time.Format "2006-01-02 15:04:05"}}</p>{{end}}
<table>
{{range .Lines}}<tr{{if not .Present}} class="absent"{{end}}><th>{{.Label}}</th><td>{{.Text}}</td><td>{{.Unit}}</td></tr>
{{end}}</table>
{{with .Err}}<p class="error">{{.}}</p>{{end}}
</body>
</html>
`))

func (h *handler) index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s := h.src.Latest()
	data := struct {
		Time  time.Time
		Lines []station.Line
		Err   error
	}{s.Time, station.Lines(s), s.Err}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Execute(w, data); err != nil {
		h.opts.Logger.WithError(err).Warn("render index")
	}
}

func (h *handler) reading(w http.ResponseWriter, r *http.Request) {
	s := h.src.Latest()
	if s.Time.IsZero() {
		http.Error(w, "no reading yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Document()); err != nil {
		h.opts.Logger.WithError(err).Warn("encode reading")
	}
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	s := h.src.Latest()
	switch {
	case s.Time.IsZero():
		http.Error(w, "no reading yet", http.StatusServiceUnavailable)
	case s.Err != nil:
		http.Error(w, s.Err.Error(), http.StatusServiceUnavailable)
	case h.opts.MaxAge > 0 && h.now().Sub(s.Time) > h.opts.MaxAge:
		http.Error(w, "reading is stale", http.StatusServiceUnavailable)
	default:
		_, _ = w.Write([]byte("ok\n"))
	}
}
