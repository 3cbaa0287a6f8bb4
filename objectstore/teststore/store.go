// Copyright (C) 2026 Digital Epidemiology Lab, EPFL.
// See LICENSE for copying information.

// Package teststore implements an in-memory object store for testing.
package teststore

import (
	"context"
	"sync"

	"github.com/zeebo/errs"

	"github.com/digitalepidemiologylab/streamer/objectstore"
)

type location struct {
	bucket string
	key    string
}

// Client implements an in-memory object store. Selects are identity
// reads: the stored bytes are delivered unchanged, split into fragments
// of at most FragmentSize bytes, followed by a single end event.
type Client struct {
	mu      sync.Mutex
	objects map[location][]byte

	// FragmentSize splits the payload into record events of at most this
	// many bytes. Zero delivers the payload as a single event.
	FragmentSize int

	// MissingReads makes that many selects report a missing key before
	// the stored object becomes visible.
	MissingReads int

	// Fail, when set, makes every select return this error.
	Fail error

	CallCount struct {
		Select int
		Close  int
	}
}

// New creates a new in-memory object store.
func New() *Client {
	return &Client{objects: map[location][]byte{}}
}

// Put stores data under the bucket and key.
func (store *Client) Put(bucket, key string, data []byte) {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.objects[location{bucket, key}] = append([]byte{}, data...)
}

// Delete removes the object stored under the bucket and key.
func (store *Client) Delete(bucket, key string) {
	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.objects, location{bucket, key})
}

// Select implements objectstore.Store.
func (store *Client) Select(ctx context.Context, query objectstore.Query) (objectstore.Stream, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.CallCount.Select++

	if err := query.Validate(); err != nil {
		return nil, err
	}
	if store.Fail != nil {
		return nil, store.Fail
	}
	if store.MissingReads > 0 {
		store.MissingReads--
		return nil, objectstore.ErrKeyNotFound.New("NoSuchKey: the specified key does not exist (key %q)", query.Key)
	}

	data, ok := store.objects[location{query.Bucket, query.Key}]
	if !ok {
		return nil, objectstore.ErrKeyNotFound.New("NoSuchKey: the specified key does not exist (key %q)", query.Key)
	}

	return &stream{fragments: split(data, store.FragmentSize)}, nil
}

// Close implements objectstore.Store.
func (store *Client) Close() error {
	store.CallCount.Close++
	return nil
}

func split(data []byte, size int) [][]byte {
	if len(data) == 0 {
		return nil
	}
	if size <= 0 {
		size = len(data)
	}

	var fragments [][]byte
	for len(data) > 0 {
		n := size
		if n > len(data) {
			n = len(data)
		}
		fragments = append(fragments, append([]byte{}, data[:n]...))
		data = data[n:]
	}
	return fragments
}

type stream struct {
	fragments [][]byte
	next      int
	ended     bool
}

// Next implements objectstore.Stream.
func (stream *stream) Next(ctx context.Context) (objectstore.Event, error) {
	if err := ctx.Err(); err != nil {
		return objectstore.Event{}, err
	}
	if stream.next < len(stream.fragments) {
		fragment := stream.fragments[stream.next]
		stream.next++
		return objectstore.Event{Records: fragment}, nil
	}
	if !stream.ended {
		stream.ended = true
		return objectstore.Event{End: true}, nil
	}
	return objectstore.Event{}, errs.New("stream already finished")
}

// Close implements objectstore.Stream.
func (stream *stream) Close() error { return nil }
