// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config loads the airmon YAML configuration.
//
// Durations are written as strings, e.g. "100ms" or "10s". Fields missing from
// the file keep their Default value.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/GermanBionicSystems/airquality/sen5x"
	"gopkg.in/yaml.v3"
)

// Config is the complete airmon configuration.
type Config struct {
	Bus     BusConfig     `yaml:"bus"`
	Sensor  SensorConfig  `yaml:"sensor"`
	CO      COConfig      `yaml:"co"`
	Display DisplayConfig `yaml:"display"`
	HTTP    HTTPConfig    `yaml:"http"`
	Redis   RedisConfig   `yaml:"redis"`
	Log     LogConfig     `yaml:"log"`
}

// BusConfig selects the I²C bus.
type BusConfig struct {
	// Driver is "periph" or "sysfs".
	Driver string `yaml:"driver"`
	// Name is the periph bus name or number. Empty selects the first bus.
	Name string `yaml:"name"`
	// Device is the i2c-dev path used by the sysfs driver.
	Device string `yaml:"device"`
}

// SensorConfig configures the SEN5x session and the station loop.
type SensorConfig struct {
	Address   uint16        `yaml:"address"`
	ReadDelay time.Duration `yaml:"read_delay"`
	Settle    time.Duration `yaml:"settle"`
	Interval  time.Duration `yaml:"interval"`
	Retry     time.Duration `yaml:"retry"`
	// TemperatureOffset in °C is written to the sensor at startup when not 0.
	TemperatureOffset float64 `yaml:"temperature_offset"`
}

// COConfig configures the MQ-7 sensor behind an ADS1115.
type COConfig struct {
	Enabled bool `yaml:"enabled"`
	// Address of the ADS1115.
	Address uint16 `yaml:"address"`
	// Channel is the single ended input, 0 to 3.
	Channel int `yaml:"channel"`
	// Offset in volts subtracted before scaling.
	Offset     float64 `yaml:"offset"`
	PPMPerVolt float64 `yaml:"ppm_per_volt"`
}

// DisplayConfig selects the renderers.
type DisplayConfig struct {
	Console bool `yaml:"console"`
	SSD1306 bool `yaml:"ssd1306"`
	// Videosink mirrors the panel on /display.
	Videosink    bool          `yaml:"videosink"`
	Width        int           `yaml:"width"`
	Height       int           `yaml:"height"`
	PageInterval time.Duration `yaml:"page_interval"`
}

// HTTPConfig configures the responder. An empty Addr disables it.
type HTTPConfig struct {
	Addr   string        `yaml:"addr"`
	MaxAge time.Duration `yaml:"max_age"`
}

// RedisConfig configures the publisher.
type RedisConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	PoolSize   int    `yaml:"pool_size"`
	Channel    string `yaml:"channel"`
	HistoryKey string `yaml:"history_key"`
	HistoryLen int64  `yaml:"history_len"`
}

// LogConfig configures logrus.
type LogConfig struct {
	Level string `yaml:"level"`
	// Format is "text" or "json".
	Format string `yaml:"format"`
	// Output is "stdout" or "file".
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Bus: BusConfig{
			Driver: "periph",
			Device: "/dev/i2c-1",
		},
		Sensor: SensorConfig{
			Address:   sen5x.SensorAddress,
			ReadDelay: sen5x.MinReadDelay,
			Settle:    sen5x.SettlingTime,
			Interval:  10 * time.Second,
			Retry:     5 * time.Second,
		},
		CO: COConfig{
			Address:    0x48,
			Offset:     0.2,
			PPMPerVolt: 100,
		},
		Display: DisplayConfig{
			Console:      true,
			Width:        128,
			Height:       64,
			PageInterval: 5 * time.Second,
		},
		HTTP: HTTPConfig{
			Addr:   ":8080",
			MaxAge: time.Minute,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   4,
			Channel:    "airquality",
			HistoryKey: "airquality:history",
			HistoryLen: 1000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// Load reads the file at path over Default and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over Default and validates the result.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the values the drivers would otherwise reject at runtime.
func (c *Config) Validate() error {
	var errs []error
	switch c.Bus.Driver {
	case "periph":
	case "sysfs":
		if c.Bus.Device == "" {
			errs = append(errs, errors.New("bus.device is required with the sysfs driver"))
		}
		if c.CO.Enabled || c.Display.SSD1306 {
			errs = append(errs, errors.New("co and display.ssd1306 require the periph bus driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("bus.driver %q must be periph or sysfs", c.Bus.Driver))
	}
	if c.Sensor.Address == 0 || c.Sensor.Address > 0x7f {
		errs = append(errs, fmt.Errorf("sensor.address 0x%x is not a 7-bit address", c.Sensor.Address))
	}
	if c.Sensor.ReadDelay < sen5x.MinReadDelay {
		errs = append(errs, fmt.Errorf("sensor.read_delay %s is below %s", c.Sensor.ReadDelay, sen5x.MinReadDelay))
	}
	if c.Sensor.Settle < sen5x.SettlingTime {
		errs = append(errs, fmt.Errorf("sensor.settle %s is below %s", c.Sensor.Settle, sen5x.SettlingTime))
	}
	if c.Sensor.Interval <= 0 {
		errs = append(errs, errors.New("sensor.interval must be positive"))
	}
	if c.Sensor.Retry <= 0 {
		errs = append(errs, errors.New("sensor.retry must be positive"))
	}
	if c.CO.Enabled {
		if c.CO.Channel < 0 || c.CO.Channel > 3 {
			errs = append(errs, fmt.Errorf("co.channel %d must be 0 to 3", c.CO.Channel))
		}
		if c.CO.Address == 0 || c.CO.Address > 0x7f {
			errs = append(errs, fmt.Errorf("co.address 0x%x is not a 7-bit address", c.CO.Address))
		}
	}
	if (c.Display.SSD1306 || c.Display.Videosink) && (c.Display.Width <= 0 || c.Display.Height <= 0) {
		errs = append(errs, fmt.Errorf("display size %dx%d is invalid", c.Display.Width, c.Display.Height))
	}
	if c.Display.PageInterval < 0 {
		errs = append(errs, errors.New("display.page_interval must not be negative"))
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required when redis is enabled"))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
