// Copyright (C) 2026 Digital Epidemiology Lab, EPFL.
// See LICENSE for copying information.

// Package objectstore defines the contract between the streamer and the
// object store that holds its configuration documents.
package objectstore

import (
	"context"

	"github.com/zeebo/errs"
)

// SelectAll is the expression that selects every record in an object.
const SelectAll = "select * from s3object"

var (
	// Error is the default error class for the objectstore package.
	Error = errs.Class("objectstore")

	// ErrKeyNotFound is returned when the store reports that the queried
	// key does not exist. The object can still appear once its writer
	// finishes, so callers may treat this class as transient.
	ErrKeyNotFound = errs.Class("key not found")

	// ErrInvalidQuery is returned when a query is missing its bucket,
	// key, or expression.
	ErrInvalidQuery = errs.Class("invalid query")
)

// Compression is an enumeration of the compression formats a stored
// object can use.
type Compression string

const (
	// CompressionNone marks an uncompressed object.
	CompressionNone Compression = "NONE"

	// CompressionGzip marks a gzip compressed object.
	CompressionGzip Compression = "GZIP"

	// CompressionBzip2 marks a bzip2 compressed object.
	CompressionBzip2 Compression = "BZIP2"
)

// CompressionFromString parses the string into a Compression.
func CompressionFromString(s string) (Compression, error) {
	compression := Compression(s)
	switch compression {
	case CompressionNone, CompressionGzip, CompressionBzip2:
		return compression, nil
	default:
		return "", Error.New("no such compression %q", compression)
	}
}

// JSONType is an enumeration of the JSON layouts a stored object can use.
type JSONType string

const (
	// JSONDocument marks an object containing a single JSON document.
	JSONDocument JSONType = "DOCUMENT"

	// JSONLines marks an object containing newline delimited JSON values.
	JSONLines JSONType = "LINES"
)

// JSONTypeFromString parses the string into a JSONType.
func JSONTypeFromString(s string) (JSONType, error) {
	jsonType := JSONType(s)
	switch jsonType {
	case JSONDocument, JSONLines:
		return jsonType, nil
	default:
		return "", Error.New("no such json type %q", jsonType)
	}
}

// JSONInput describes a JSON encoded object.
type JSONInput struct {
	Type JSONType
}

// InputSerialization describes how records are encoded inside a stored
// object.
type InputSerialization struct {
	Compression Compression
	JSON        *JSONInput
}

// Query addresses a single stored object together with the server-side
// expression to evaluate against it. Results are always delivered as
// JSON records.
type Query struct {
	Bucket     string
	Key        string
	Expression string
	Input      InputSerialization
}

// Validate returns an error when the query cannot be sent to a store.
func (query Query) Validate() error {
	switch {
	case query.Bucket == "":
		return ErrInvalidQuery.New("bucket is missing")
	case query.Key == "":
		return ErrInvalidQuery.New("key is missing")
	case query.Expression == "":
		return ErrInvalidQuery.New("expression is missing")
	}
	return nil
}

// Event is a single event delivered on a select stream. A stream carries
// zero or more record fragments followed by exactly one event with End
// set.
type Event struct {
	Records []byte
	End     bool
}

// Stream delivers the result of a select query as a sequence of events.
type Stream interface {
	// Next blocks until the next event arrives or the context is done.
	Next(ctx context.Context) (Event, error)
	// Close releases the resources held by the stream.
	Close() error
}

// Store describes object stores that evaluate select queries server-side,
// like s3 and its compatible implementations.
type Store interface {
	// Select runs the query against a single stored object.
	Select(ctx context.Context, query Query) (Stream, error)
	// Close closes the store.
	Close() error
}
