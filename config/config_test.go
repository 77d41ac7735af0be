// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDefault(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "airmon.yaml")
	data := `
bus:
  name: "1"
sensor:
  address: 0x69
  read_delay: 150ms
  interval: 30s
co:
  enabled: true
  channel: 2
display:
  ssd1306: true
  height: 32
redis:
  enabled: true
  addr: redis:6379
log:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := Default()
	want.Bus.Name = "1"
	want.Sensor.ReadDelay = 150 * time.Millisecond
	want.Sensor.Interval = 30 * time.Second
	want.CO.Enabled = true
	want.CO.Channel = 2
	want.Display.SSD1306 = true
	want.Display.Height = 32
	want.Redis.Enabled = true
	want.Redis.Addr = "redis:6379"
	want.Log.Level = "debug"
	want.Log.Format = "json"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		data string
		want string
	}{
		{"sensor: [", "config: parse"},
		{"bus: {driver: spi}", "bus.driver"},
		{"bus: {driver: sysfs, device: ''}", "bus.device"},
		{"bus: {driver: sysfs}\nco: {enabled: true}", "periph bus driver"},
		{"sensor: {address: 0x80}", "sensor.address"},
		{"sensor: {read_delay: 50ms}", "sensor.read_delay"},
		{"sensor: {settle: 1s}", "sensor.settle"},
		{"sensor: {interval: 0s}", "sensor.interval"},
		{"sensor: {retry: 0s}", "sensor.retry"},
		{"co: {enabled: true, channel: 4}", "co.channel"},
		{"co: {enabled: true, address: 0}", "co.address"},
		{"display: {videosink: true, width: 0}", "display size"},
		{"display: {page_interval: -1s}", "display.page_interval"},
		{"redis: {enabled: true, addr: ''}", "redis.addr"},
		{"log: {format: xml}", "log.format"},
	}
	for _, test := range tests {
		_, err := Parse([]byte(test.data))
		if err == nil {
			t.Errorf("Parse(%q) expected error", test.data)
			continue
		}
		if !strings.Contains(err.Error(), test.want) {
			t.Errorf("Parse(%q) = %v, expected mention of %q", test.data, err, test.want)
		}
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	c := Default()
	c.Sensor.Interval = 0
	c.Log.Format = "xml"
	err := c.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "sensor.interval") || !strings.Contains(err.Error(), "log.format") {
		t.Errorf("expected both errors, got %v", err)
	}
}

func TestParseSysfs(t *testing.T) {
	c, err := Parse([]byte("bus: {driver: sysfs, device: /dev/i2c-3}"))
	if err != nil {
		t.Fatal(err)
	}
	if c.Bus.Driver != "sysfs" || c.Bus.Device != "/dev/i2c-3" {
		t.Errorf("unexpected bus %#v", c.Bus)
	}
}
