// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// airmon runs an air quality station: a SEN5x particulate matter sensor,
// optionally an MQ-7 CO sensor behind an ADS1115, rendered on the console, an
// SSD1306 OLED, Prometheus, Redis and a small HTTP page.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/color"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/GermanBionicSystems/airquality/config"
	"github.com/GermanBionicSystems/airquality/console"
	"github.com/GermanBionicSystems/airquality/monitor"
	"github.com/GermanBionicSystems/airquality/mq7"
	"github.com/GermanBionicSystems/airquality/panel"
	"github.com/GermanBionicSystems/airquality/publish"
	"github.com/GermanBionicSystems/airquality/responder"
	"github.com/GermanBionicSystems/airquality/sen5x"
	"github.com/GermanBionicSystems/airquality/station"
	"github.com/GermanBionicSystems/airquality/sysfsbus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/videosink"
	"periph.io/x/host/v3"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configFile := flag.String("config", "", "YAML configuration file; built-in defaults when empty")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("airmon %s (build %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	cfg := config.Default()
	if *configFile != "" {
		c, err := config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "airmon: %v\n", err)
			os.Exit(1)
		}
		cfg = c
	}

	log := setupLogger(cfg.Log)
	log.Infof("airmon %s starting", Version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("airmon")
	}
	log.Info("airmon stopped")
}

func setupLogger(cfg config.LogConfig) *logrus.Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	if cfg.Output == "file" && cfg.FilePath != "" {
		file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			log.SetOutput(file)
		} else {
			log.Warnf("open log file: %v, using stdout", err)
		}
	}
	return log
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("initialize periph: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	mon := monitor.New(reg, log)
	renderers := []station.Renderer{mon}

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				log.WithError(err).Warn("close")
			}
		}
	}()

	t, bus, c, err := openBus(cfg.Bus)
	if err != nil {
		return err
	}
	closers = append(closers, c)

	dev, err := sen5x.New(t, cfg.Sensor.Address, &sen5x.Opts{ReadDelay: cfg.Sensor.ReadDelay, Observer: mon})
	if err != nil {
		return err
	}
	logIdentity(dev, log)
	if cfg.Sensor.TemperatureOffset != 0 {
		offset := physic.Temperature(cfg.Sensor.TemperatureOffset * float64(physic.Kelvin))
		if err := dev.SetTemperatureCompensation(offset, 0, 0); err != nil {
			return err
		}
	}

	var co station.GasSensor
	if cfg.CO.Enabled {
		m, err := openCO(bus, cfg.CO)
		if err != nil {
			return err
		}
		defer m.Halt()
		co = m
	}

	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Display.Console {
		cons := console.New(nil)
		defer cons.Halt()
		renderers = append(renderers, cons)
	}
	if cfg.Display.SSD1306 {
		opts := ssd1306.DefaultOpts
		opts.W = cfg.Display.Width
		opts.H = cfg.Display.Height
		opts.Sequential = opts.H == 32
		oled, err := ssd1306.NewI2C(bus, &opts)
		if err != nil {
			return fmt.Errorf("ssd1306: %w", err)
		}
		// The OLED is monochrome; absent values are still marked ERR.
		p, err := panel.New(oled, &panel.Opts{Absent: color.White})
		if err != nil {
			return err
		}
		defer p.Halt()
		renderers = append(renderers, p)
		rotate(ctx, &wg, p, cfg.Display.PageInterval, log)
	}
	var sink http.Handler
	if cfg.Display.Videosink {
		vs := videosink.New(&videosink.Options{Width: cfg.Display.Width, Height: cfg.Display.Height, Format: videosink.PNG})
		face, err := panel.TrueTypeFace(float64(cfg.Display.Height) / 6)
		if err != nil {
			return err
		}
		p, err := panel.New(vs, &panel.Opts{Face: face})
		if err != nil {
			return err
		}
		defer vs.Halt()
		renderers = append(renderers, p)
		rotate(ctx, &wg, p, cfg.Display.PageInterval, log)
		sink = vs
	}
	if cfg.Redis.Enabled {
		rc, err := publish.Dial(ctx, &redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			return err
		}
		closers = append(closers, rc)
		pub, err := publish.New(rc, &publish.Opts{
			Channel:    cfg.Redis.Channel,
			HistoryKey: cfg.Redis.HistoryKey,
			HistoryLen: cfg.Redis.HistoryLen,
			Logger:     log,
		})
		if err != nil {
			return err
		}
		renderers = append(renderers, pub)
		log.WithField("addr", cfg.Redis.Addr).Info("publishing to redis")
	}

	st, err := station.New(dev, &station.Opts{
		Interval:      cfg.Sensor.Interval,
		Settle:        cfg.Sensor.Settle,
		RetryInterval: cfg.Sensor.Retry,
		CO:            co,
		Logger:        log,
	}, renderers...)
	if err != nil {
		return err
	}

	if cfg.HTTP.Addr != "" {
		srv := &http.Server{
			Addr: cfg.HTTP.Addr,
			Handler: responder.New(st, &responder.Opts{
				Gatherer: reg,
				Display:  sink,
				MaxAge:   cfg.HTTP.MaxAge,
				Logger:   log,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}
		wg.Add(2)
		go func() {
			defer wg.Done()
			log.WithField("addr", srv.Addr).Info("http listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("http server")
				cancel()
			}
		}()
		go func() {
			defer wg.Done()
			<-ctx.Done()
			sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer scancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	return st.Run(ctx)
}

// openBus returns the sensor transport and, with the periph driver, the bus
// shared with the other I²C peripherals.
func openBus(cfg config.BusConfig) (sen5x.Transport, i2c.Bus, io.Closer, error) {
	if cfg.Driver == "sysfs" {
		t, err := sysfsbus.Open(cfg.Device)
		if err != nil {
			return nil, nil, nil, err
		}
		return t, nil, t, nil
	}
	b, err := i2creg.Open(cfg.Name)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open I²C bus %q: %w", cfg.Name, err)
	}
	return sen5x.NewI2CTransport(b), b, b, nil
}

func openCO(bus i2c.Bus, cfg config.COConfig) (*mq7.Dev, error) {
	adc, err := ads1x15.NewADS1115(bus, &ads1x15.Opts{I2cAddress: cfg.Address})
	if err != nil {
		return nil, fmt.Errorf("ads1115: %w", err)
	}
	pin, err := adc.PinForChannel(ads1x15.Channel0+ads1x15.Channel(cfg.Channel), 5*physic.Volt, 8*physic.Hertz, ads1x15.SaveEnergy)
	if err != nil {
		return nil, fmt.Errorf("ads1115: %w", err)
	}
	return mq7.New(pin, &mq7.Opts{
		Offset:     physic.ElectricPotential(cfg.Offset * float64(physic.Volt)),
		PPMPerVolt: cfg.PPMPerVolt,
	})
}

func rotate(ctx context.Context, wg *sync.WaitGroup, p *panel.Panel, interval time.Duration, log logrus.FieldLogger) {
	if interval <= 0 {
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := p.Rotate(ctx, interval); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Warn("rotate panel")
		}
	}()
}

func logIdentity(dev *sen5x.Dev, log logrus.FieldLogger) {
	name, err := dev.ProductName()
	if err != nil {
		log.WithError(err).Warn("read product name")
		return
	}
	sn, err := dev.SerialNumber()
	if err != nil {
		log.WithError(err).Warn("read serial number")
		return
	}
	fw, err := dev.FirmwareVersion()
	if err != nil {
		log.WithError(err).Warn("read firmware version")
		return
	}
	log.WithFields(logrus.Fields{"product": name, "serial": sn, "firmware": fw}).Info("sensor found")
	if st, err := dev.Status(); err == nil && st != 0 {
		log.WithField("status", st).Warn("sensor status")
	}
}
