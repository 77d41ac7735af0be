// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package airquality is a container for the packages of an air quality
// station built around a Sensirion SEN5x sensor.
//
// The sen5x package is the driver; common holds the Sensirion CRC-8 word
// framing. station polls the sensor and hands every snapshot to renderers:
// panel, console, monitor and publish. responder serves the latest snapshot
// over HTTP and cmd/airmon wires everything from a YAML config.
package airquality
