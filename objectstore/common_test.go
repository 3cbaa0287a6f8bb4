// Copyright (C) 2026 Digital Epidemiology Lab, EPFL.
// See LICENSE for copying information.

package objectstore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalepidemiologylab/streamer/objectstore"
)

func TestCompressionFromString(t *testing.T) {
	for _, tt := range []struct {
		name  string
		input string
		want  objectstore.Compression
		err   bool
	}{
		{name: "none", input: "NONE", want: objectstore.CompressionNone},
		{name: "gzip", input: "GZIP", want: objectstore.CompressionGzip},
		{name: "bzip2", input: "BZIP2", want: objectstore.CompressionBzip2},
		{name: "lower case", input: "gzip", err: true},
		{name: "empty", input: "", err: true},
		{name: "unknown", input: "ZSTD", err: true},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			compression, err := objectstore.CompressionFromString(tt.input)
			if tt.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, compression)
		})
	}
}

func TestJSONTypeFromString(t *testing.T) {
	for _, tt := range []struct {
		name  string
		input string
		want  objectstore.JSONType
		err   bool
	}{
		{name: "document", input: "DOCUMENT", want: objectstore.JSONDocument},
		{name: "lines", input: "LINES", want: objectstore.JSONLines},
		{name: "lower case", input: "document", err: true},
		{name: "unknown", input: "XML", err: true},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			jsonType, err := objectstore.JSONTypeFromString(tt.input)
			if tt.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, jsonType)
		})
	}
}

func TestQueryValidate(t *testing.T) {
	valid := objectstore.Query{
		Bucket:     "configs",
		Key:        "stream.json",
		Expression: objectstore.SelectAll,
	}
	require.NoError(t, valid.Validate())

	missingBucket := valid
	missingBucket.Bucket = ""
	require.True(t, objectstore.ErrInvalidQuery.Has(missingBucket.Validate()))

	missingKey := valid
	missingKey.Key = ""
	require.True(t, objectstore.ErrInvalidQuery.Has(missingKey.Validate()))

	missingExpression := valid
	missingExpression.Expression = ""
	require.True(t, objectstore.ErrInvalidQuery.Has(missingExpression.Validate()))
}
