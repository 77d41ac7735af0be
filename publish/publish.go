// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package publish sends station snapshots to Redis.
//
// Each snapshot is published as JSON on a pub/sub channel and pushed to a
// capped list holding the most recent history.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/GermanBionicSystems/airquality/station"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Client is the subset of redis.Cmdable used by the Publisher.
type Client interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
}

// Opts holds the publisher configuration.
type Opts struct {
	// Channel defaults to "airquality".
	Channel string
	// HistoryKey is the list holding recent snapshots. Defaults to
	// "airquality:history".
	HistoryKey string
	// HistoryLen caps the list. Defaults to 1000, negative disables the list.
	HistoryLen int64
	// Logger defaults to the logrus standard logger.
	Logger logrus.FieldLogger
}

// Publisher is a station.Renderer writing to Redis.
type Publisher struct {
	c    Client
	opts Opts
}

// Dial connects to Redis and checks the connection with a PING.
func Dial(ctx context.Context, ropts *redis.Options) (*redis.Client, error) {
	c := redis.NewClient(ropts)
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("publish: connect to redis %s: %w", ropts.Addr, err)
	}
	return c, nil
}

// New returns a Publisher. opts may be nil.
func New(c Client, opts *Opts) (*Publisher, error) {
	if c == nil {
		return nil, errors.New("publish: nil client")
	}
	var o Opts
	if opts != nil {
		o = *opts
	}
	if o.Channel == "" {
		o.Channel = "airquality"
	}
	if o.HistoryKey == "" {
		o.HistoryKey = "airquality:history"
	}
	if o.HistoryLen == 0 {
		o.HistoryLen = 1000
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	return &Publisher{c: c, opts: o}, nil
}

// Render implements station.Renderer.
//
// A failure to publish is returned. A failure to update the history list is
// only logged.
func (p *Publisher) Render(ctx context.Context, s station.Snapshot) error {
	b, err := json.Marshal(s.Document())
	if err != nil {
		return fmt.Errorf("publish: encode snapshot: %w", err)
	}
	if err := p.c.Publish(ctx, p.opts.Channel, b).Err(); err != nil {
		return fmt.Errorf("publish: %s: %w", p.opts.Channel, err)
	}
	if p.opts.HistoryLen < 0 {
		return nil
	}
	if err := p.c.LPush(ctx, p.opts.HistoryKey, b).Err(); err != nil {
		p.opts.Logger.WithError(err).WithField("key", p.opts.HistoryKey).Warn("push history")
		return nil
	}
	if err := p.c.LTrim(ctx, p.opts.HistoryKey, 0, p.opts.HistoryLen-1).Err(); err != nil {
		p.opts.Logger.WithError(err).WithField("key", p.opts.HistoryKey).Warn("trim history")
	}
	return nil
}

func (p *Publisher) String() string {
	return "redis:" + p.opts.Channel
}

var _ station.Renderer = &Publisher{}
var _ Client = &redis.Client{}
