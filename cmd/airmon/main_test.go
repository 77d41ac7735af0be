// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GermanBionicSystems/airquality/config"
	"github.com/sirupsen/logrus"
)

func TestSetupLogger(t *testing.T) {
	log := setupLogger(config.LogConfig{Level: "debug", Format: "json"})
	if log.GetLevel() != logrus.DebugLevel {
		t.Errorf("level %s", log.GetLevel())
	}
	if _, ok := log.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("formatter %T", log.Formatter)
	}

	log = setupLogger(config.LogConfig{Level: "bogus", Format: "text"})
	if log.GetLevel() != logrus.InfoLevel {
		t.Errorf("invalid level should default to info, got %s", log.GetLevel())
	}
	if _, ok := log.Formatter.(*logrus.TextFormatter); !ok {
		t.Errorf("formatter %T", log.Formatter)
	}
}

func TestSetupLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "airmon.log")
	log := setupLogger(config.LogConfig{Level: "info", Format: "text", Output: "file", FilePath: path})
	log.Info("hello")
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "msg=hello") {
		t.Errorf("log file content %q", b)
	}
}
