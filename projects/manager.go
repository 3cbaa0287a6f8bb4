// Copyright (C) 2026 Digital Epidemiology Lab, EPFL.
// See LICENSE for copying information.

package projects

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/spacemonkeygo/monkit/v3"
	"go.uber.org/zap"

	"github.com/digitalepidemiologylab/streamer/objectstore"
)

var mon = monkit.Package()

// Config contains the fixed location of the versioned configuration
// document.
type Config struct {
	Bucket string `help:"bucket holding the versioned project configuration document" default:""`
	Key    string `help:"object key of the versioned project configuration document" default:""`
}

// Fetcher retrieves a raw configuration payload from the object store.
type Fetcher interface {
	Fetch(ctx context.Context, query objectstore.Query) (string, error)
}

// Manager holds the decoded configuration of every tracked project.
//
// It loads the latest version of the configuration document once during
// construction and stays immutable afterwards, so all read methods are
// safe for concurrent use.
type Manager struct {
	log      *zap.Logger
	projects []Project
	filter   FilterConfig
}

// NewManager fetches and decodes the latest version of the configuration
// document and derives the pooled filter configuration from it. A record
// that fails to decode aborts construction, leaving no partially loaded
// manager behind.
func NewManager(ctx context.Context, log *zap.Logger, fetcher Fetcher, config Config) (_ *Manager, err error) {
	defer mon.Task()(&ctx)(&err)

	projects, version, err := load(ctx, fetcher, config)
	if err != nil {
		return nil, err
	}

	log.Info("project configuration loaded",
		zap.String("version", version),
		zap.Int("projects", len(projects)))

	return &Manager{
		log:      log,
		projects: projects,
		filter:   poolFilter(projects),
	}, nil
}

// load fetches the document and decodes the records under its latest
// version label.
func load(ctx context.Context, fetcher Fetcher, config Config) (_ []Project, version string, err error) {
	payload, err := fetcher.Fetch(ctx, objectstore.Query{
		Bucket:     config.Bucket,
		Key:        config.Key,
		Expression: objectstore.SelectAll,
		Input: objectstore.InputSerialization{
			Compression: objectstore.CompressionNone,
			JSON:        &objectstore.JSONInput{Type: objectstore.JSONDocument},
		},
	})
	if err != nil {
		return nil, "", err
	}

	var document map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &document); err != nil {
		return nil, "", ErrMalformed.Wrap(err)
	}

	version, err = latestVersion(document)
	if err != nil {
		return nil, "", err
	}

	var records []json.RawMessage
	if err := json.Unmarshal(document[version], &records); err != nil {
		return nil, "", ErrMalformed.Wrap(err)
	}

	projects := make([]Project, 0, len(records))
	for _, record := range records {
		project, err := decodeProject(record)
		if err != nil {
			return nil, "", err
		}
		projects = append(projects, project)
	}

	return projects, version, nil
}

// latestVersion returns the version label of the form _<N> with the
// numerically highest N. Labels of any other form are ignored.
func latestVersion(document map[string]json.RawMessage) (string, error) {
	latest, highest, found := "", 0, false
	for label := range document {
		number, ok := strings.CutPrefix(label, "_")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(number)
		if err != nil {
			continue
		}
		if !found || n > highest {
			latest, highest, found = label, n, true
		}
	}
	if !found {
		return "", ErrVersionSelection.New("no version labels in configuration document")
	}
	return latest, nil
}

// Projects returns every loaded project in document order.
func (manager *Manager) Projects() []Project {
	return append([]Project(nil), manager.projects...)
}

// GetBySlug returns the first project with the slug.
func (manager *Manager) GetBySlug(slug string) (Project, error) {
	for _, project := range manager.projects {
		if project.Slug == slug {
			return project, nil
		}
	}
	return Project{}, ErrProjectNotFound.New("%q", slug)
}

// GetTrackingInfo returns the tracking fields of the first project with
// the slug.
func (manager *Manager) GetTrackingInfo(slug string) (TrackingInfo, error) {
	project, err := manager.GetBySlug(slug)
	if err != nil {
		return TrackingInfo{}, err
	}
	return project.TrackingInfo(), nil
}

// FilterConfig returns the pooled filter configuration derived during
// construction.
func (manager *Manager) FilterConfig() FilterConfig {
	return FilterConfig{
		Keywords: manager.filter.Keywords.Clone(),
		Langs:    manager.filter.Langs.Clone(),
	}
}

// WriteFile writes every project as an indented JSON array to the file
// at path, replacing whatever the file contained before.
func (manager *Manager) WriteFile(path string) error {
	data, err := json.MarshalIndent(manager.projects, "", "    ")
	if err != nil {
		return Error.Wrap(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return Error.Wrap(err)
	}
	manager.log.Debug("configuration written", zap.String("path", path))
	return nil
}
