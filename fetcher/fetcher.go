// Copyright (C) 2026 Digital Epidemiology Lab, EPFL.
// See LICENSE for copying information.

// Package fetcher retrieves documents from an object store with a
// server-side select query.
package fetcher

import (
	"context"
	"math"
	"time"

	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
	"go.uber.org/zap"
	"storj.io/common/sync2"

	"github.com/digitalepidemiologylab/streamer/objectstore"
)

var (
	mon = monkit.Package()

	// Error is the default error class for the fetcher package.
	Error = errs.Class("fetcher")
)

// Config contains the configuration for the exponential backoff strategy
// used while the queried key is missing from the store.
type Config struct {
	InitialBackoff time.Duration `help:"the duration of the first retry interval" default:"20ms"`
	MaxBackoff     time.Duration `help:"the maximum duration of any retry interval" default:"5s"`
	Multiplier     float64       `help:"the factor by which the retry interval will be multiplied on each iteration" default:"2"`
	MaxRetries     int           `help:"the maximum number of times to retry a fetch whose key is missing, 0 retries indefinitely" default:"0"`
}

// Fetcher runs select queries against an object store and accumulates the
// streamed result into memory.
//
// A missing key is not treated as a failure: the document may be written
// moments later by another process, so the fetcher logs the miss and
// retries with backoff. Every other error aborts the fetch immediately.
type Fetcher struct {
	log    *zap.Logger
	store  objectstore.Store
	config Config
}

// New creates a new Fetcher around the store.
func New(log *zap.Logger, store objectstore.Store, config Config) *Fetcher {
	return &Fetcher{
		log:    log,
		store:  store,
		config: config,
	}
}

// Fetch runs the query until it succeeds or fails with an error other
// than a missing key, and returns the accumulated payload as text.
func (fetcher *Fetcher) Fetch(ctx context.Context, query objectstore.Query) (_ string, err error) {
	defer mon.Task()(&ctx)(&err)

	if err := ctx.Err(); err != nil {
		return "", err
	}

	backoff := float64(fetcher.config.InitialBackoff)
	for retry := 0; ; retry++ {
		payload, err := fetcher.fetchOnce(ctx, query)
		if err == nil {
			return payload, nil
		}

		if !fetcher.shouldRetry(retry, err) {
			return "", Error.Wrap(err)
		}

		fetcher.log.Error("configuration object missing from store, retrying",
			zap.String("bucket", query.Bucket),
			zap.String("key", query.Key),
			zap.Int("retry", retry),
			zap.Error(err))

		if !sync2.Sleep(ctx, time.Duration(backoff)) {
			return "", ctx.Err()
		}

		backoff = math.Min(backoff*fetcher.config.Multiplier, float64(fetcher.config.MaxBackoff))
	}
}

// shouldRetry returns whether a failed select should be retried.
func (fetcher *Fetcher) shouldRetry(retry int, err error) bool {
	if fetcher.config.MaxRetries > 0 && retry >= fetcher.config.MaxRetries {
		return false
	}
	return objectstore.ErrKeyNotFound.Has(err)
}

// fetchOnce runs a single select and drains its stream.
func (fetcher *Fetcher) fetchOnce(ctx context.Context, query objectstore.Query) (_ string, err error) {
	stream, err := fetcher.store.Select(ctx, query)
	if err != nil {
		return "", err
	}
	defer func() { err = errs.Combine(err, stream.Close()) }()

	var records []byte
	for {
		event, err := stream.Next(ctx)
		if err != nil {
			return "", Error.Wrap(err)
		}
		if len(event.Records) > 0 {
			records = append(records, event.Records...)
		}
		if event.End {
			return string(records), nil
		}
	}
}
