// Copyright (C) 2026 Digital Epidemiology Lab, EPFL.
// See LICENSE for copying information.

// Package s3 implements the object store contract on top of amazon s3
// and compatible services.
package s3

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"

	"github.com/digitalepidemiologylab/streamer/objectstore"
)

var (
	// Error is an s3 error.
	Error = errs.Class("s3")

	mon = monkit.Package()
)

// noSuchKey is the error code s3 reports for reads of missing objects.
const noSuchKey = "NoSuchKey"

// Config contains the configuration for connecting to s3 or a compatible
// service.
type Config struct {
	Region    string `help:"aws region of the configuration bucket" default:""`
	Endpoint  string `help:"custom endpoint of an s3 compatible service, e.g. minio or localstack" default:""`
	PathStyle bool   `help:"use path-style addressing with the custom endpoint" default:"false"`
}

// Client implements the object store contract using the s3 select API.
type Client struct {
	api *awss3.Client
}

// New wraps an already configured s3 API client.
func New(api *awss3.Client) *Client {
	return &Client{api: api}
}

// OpenClient returns a configured Client instance, resolving credentials
// through the usual aws configuration chain.
func OpenClient(ctx context.Context, config Config) (*Client, error) {
	var loadOptions []func(*awsconfig.LoadOptions) error
	if config.Region != "" {
		loadOptions = append(loadOptions, awsconfig.WithRegion(config.Region))
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, Error.Wrap(err)
	}

	api := awss3.NewFromConfig(awsConfig, func(options *awss3.Options) {
		if config.Endpoint != "" {
			options.BaseEndpoint = aws.String(config.Endpoint)
		}
		options.UsePathStyle = config.PathStyle
	})

	return New(api), nil
}

// Select runs the query against a single stored object.
func (client *Client) Select(ctx context.Context, query objectstore.Query) (_ objectstore.Stream, err error) {
	defer mon.Task()(&ctx)(&err)

	if err := query.Validate(); err != nil {
		return nil, err
	}

	output, err := client.api.SelectObjectContent(ctx, selectInput(query))
	if err != nil {
		return nil, wrapSelectError(err, query)
	}

	return &stream{events: output.GetStream()}, nil
}

// Close implements objectstore.Store.
func (client *Client) Close() error { return nil }

// selectInput maps the query onto the s3 select API. The output format
// is fixed to JSON records per the objectstore contract.
func selectInput(query objectstore.Query) *awss3.SelectObjectContentInput {
	input := &awss3.SelectObjectContentInput{
		Bucket:         aws.String(query.Bucket),
		Key:            aws.String(query.Key),
		Expression:     aws.String(query.Expression),
		ExpressionType: types.ExpressionTypeSql,
		InputSerialization: &types.InputSerialization{
			CompressionType: types.CompressionType(query.Input.Compression),
		},
		OutputSerialization: &types.OutputSerialization{
			JSON: &types.JSONOutput{},
		},
	}
	if query.Input.JSON != nil {
		input.InputSerialization.JSON = &types.JSONInput{
			Type: types.JSONType(query.Input.JSON.Type),
		}
	}
	return input
}

// wrapSelectError classifies errors reported by the service. A missing
// key maps to the shared not found class and keeps the reported code,
// message and the requested key; everything else is an s3 fault.
func wrapSelectError(err error, query objectstore.Query) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == noSuchKey {
		return objectstore.ErrKeyNotFound.New("%s: %s (key %q)", apiErr.ErrorCode(), apiErr.ErrorMessage(), query.Key)
	}
	return Error.Wrap(err)
}

// stream adapts the s3 select event stream to the objectstore contract.
// Progress, stats and continuation events are skipped.
type stream struct {
	events *awss3.SelectObjectContentEventStream
}

// Next implements objectstore.Stream.
func (stream *stream) Next(ctx context.Context) (objectstore.Event, error) {
	for {
		select {
		case event, ok := <-stream.events.Events():
			if !ok {
				if err := stream.events.Err(); err != nil {
					return objectstore.Event{}, Error.Wrap(err)
				}
				return objectstore.Event{}, Error.New("stream closed before the end event")
			}
			switch event := event.(type) {
			case *types.SelectObjectContentEventStreamMemberRecords:
				return objectstore.Event{Records: event.Value.Payload}, nil
			case *types.SelectObjectContentEventStreamMemberEnd:
				return objectstore.Event{End: true}, nil
			}
		case <-ctx.Done():
			return objectstore.Event{}, ctx.Err()
		}
	}
}

// Close implements objectstore.Stream.
func (stream *stream) Close() error {
	return Error.Wrap(stream.events.Close())
}
