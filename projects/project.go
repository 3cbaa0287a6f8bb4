// Copyright (C) 2026 Digital Epidemiology Lab, EPFL.
// See LICENSE for copying information.

// Package projects manages the per-project configuration of the pooled
// tweet streamer.
package projects

import (
	"encoding/json"

	"github.com/zeebo/errs"
)

var (
	// Error is the default error class for the projects package.
	Error = errs.Class("projects")

	// ErrMalformed is returned when the configuration document or one of
	// its records cannot be decoded.
	ErrMalformed = errs.Class("malformed configuration")

	// ErrVersionSelection is returned when the configuration document
	// contains no version labels.
	ErrVersionSelection = errs.Class("version selection")

	// ErrProjectNotFound is returned when no project matches the
	// requested slug.
	ErrProjectNotFound = errs.Class("project not found")
)

// StorageMode is an enumeration of the ways a project stores its matched
// tweets.
type StorageMode string

const (
	// StorageModeTest keeps matched tweets out of permanent storage.
	StorageModeTest StorageMode = "TEST_MODE"

	// StorageModeS3ES stores matched tweets in s3 and elasticsearch.
	StorageModeS3ES StorageMode = "S3_ES"

	// StorageModeS3ESNoUnmatched stores matched tweets but drops the ones
	// that match no tracked keyword.
	StorageModeS3ESNoUnmatched StorageMode = "S3_ES_NO_UNMATCHED"

	// StorageModeS3ESNoRetweets stores matched tweets but drops retweets.
	StorageModeS3ESNoRetweets StorageMode = "S3_ES_NO_RETWEETS"
)

// StorageModeFromString parses the string into a StorageMode.
func StorageModeFromString(s string) (StorageMode, error) {
	mode := StorageMode(s)
	switch mode {
	case StorageModeTest, StorageModeS3ES, StorageModeS3ESNoUnmatched, StorageModeS3ESNoRetweets:
		return mode, nil
	default:
		return "", ErrMalformed.New("no such storage mode %q", mode)
	}
}

// String implements the Stringer interface.
func (mode StorageMode) String() string { return string(mode) }

// ImageStorageMode is an enumeration of the image archiving states of a
// project.
type ImageStorageMode string

const (
	// ImageStorageActive archives media attached to matched tweets.
	ImageStorageActive ImageStorageMode = "ACTIVE"

	// ImageStorageInactive skips media archiving.
	ImageStorageInactive ImageStorageMode = "INACTIVE"
)

// ImageStorageModeFromString parses the string into an ImageStorageMode.
func ImageStorageModeFromString(s string) (ImageStorageMode, error) {
	mode := ImageStorageMode(s)
	switch mode {
	case ImageStorageActive, ImageStorageInactive:
		return mode, nil
	default:
		return "", ErrMalformed.New("no such image storage mode %q", mode)
	}
}

// String implements the Stringer interface.
func (mode ImageStorageMode) String() string { return string(mode) }

// Project is the configuration of a single project tracked by the pooled
// streamer.
type Project struct {
	Keywords         []string         `json:"keywords"`
	Langs            []string         `json:"lang"`
	Locales          []string         `json:"locales"`
	Slug             string           `json:"slug"`
	StorageMode      StorageMode      `json:"storage_mode"`
	ImageStorageMode ImageStorageMode `json:"image_storage_mode"`

	// ModelEndpoints maps model names to their inference endpoints. It
	// stays nil for projects without inference attached, which is
	// distinct from an empty map.
	ModelEndpoints map[string]string `json:"model_endpoints"`
}

// TrackingInfo tags downstream records with the criteria their project
// tracks.
type TrackingInfo struct {
	Langs    []string `json:"lang"`
	Keywords []string `json:"keywords"`
	Slug     string   `json:"slug"`
}

// TrackingInfo returns the tracking fields of the project.
func (project Project) TrackingInfo() TrackingInfo {
	return TrackingInfo{
		Langs:    project.Langs,
		Keywords: project.Keywords,
		Slug:     project.Slug,
	}
}

// rawProject mirrors the wire form of a project record. The pointer
// fields distinguish missing keys from zero values.
type rawProject struct {
	Keywords         *[]string         `json:"keywords"`
	Langs            *[]string         `json:"lang"`
	Locales          *[]string         `json:"locales"`
	Slug             *string           `json:"slug"`
	StorageMode      *string           `json:"storage_mode"`
	ImageStorageMode *string           `json:"image_storage_mode"`
	ModelEndpoints   map[string]string `json:"model_endpoints"`
}

// decodeProject decodes a single project record, rejecting records with
// missing or mistyped fields.
func decodeProject(data json.RawMessage) (Project, error) {
	var raw rawProject
	if err := json.Unmarshal(data, &raw); err != nil {
		return Project{}, ErrMalformed.Wrap(err)
	}

	switch {
	case raw.Keywords == nil:
		return Project{}, ErrMalformed.New("missing field %q", "keywords")
	case raw.Langs == nil:
		return Project{}, ErrMalformed.New("missing field %q", "lang")
	case raw.Locales == nil:
		return Project{}, ErrMalformed.New("missing field %q", "locales")
	case raw.Slug == nil:
		return Project{}, ErrMalformed.New("missing field %q", "slug")
	case raw.StorageMode == nil:
		return Project{}, ErrMalformed.New("missing field %q", "storage_mode")
	case raw.ImageStorageMode == nil:
		return Project{}, ErrMalformed.New("missing field %q", "image_storage_mode")
	}

	storageMode, err := StorageModeFromString(*raw.StorageMode)
	if err != nil {
		return Project{}, err
	}
	imageStorageMode, err := ImageStorageModeFromString(*raw.ImageStorageMode)
	if err != nil {
		return Project{}, err
	}

	return Project{
		Keywords:         *raw.Keywords,
		Langs:            *raw.Langs,
		Locales:          *raw.Locales,
		Slug:             *raw.Slug,
		StorageMode:      storageMode,
		ImageStorageMode: imageStorageMode,
		ModelEndpoints:   raw.ModelEndpoints,
	}, nil
}
