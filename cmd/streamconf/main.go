// Copyright (C) 2026 Digital Epidemiology Lab, EPFL.
// See LICENSE for copying information.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/zeebo/errs"
	"go.uber.org/zap"
	"storj.io/common/cfgstruct"
	"storj.io/common/fpath"
	"storj.io/common/process"

	"github.com/digitalepidemiologylab/streamer/fetcher"
	"github.com/digitalepidemiologylab/streamer/objectstore/s3"
	"github.com/digitalepidemiologylab/streamer/projects"
)

var (
	rootCmd = &cobra.Command{
		Use:   "streamconf",
		Short: "Streamer project configuration tool",
	}
	setupCmd = &cobra.Command{
		Use:         "setup",
		Short:       "Create config files",
		RunE:        cmdSetup,
		Annotations: map[string]string{"type": "setup"},
	}
	dumpCmd = &cobra.Command{
		Use:   "dump <path>",
		Short: "Write the loaded project configuration to a file",
		RunE:  cmdDump,
		Args:  cobra.ExactArgs(1),
	}
	showCmd = &cobra.Command{
		Use:   "show <slug>",
		Short: "Print the configuration of a single project",
		RunE:  cmdShow,
		Args:  cobra.ExactArgs(1),
	}
	trackingCmd = &cobra.Command{
		Use:   "tracking <slug>",
		Short: "Print the tracking info of a single project",
		RunE:  cmdTracking,
		Args:  cobra.ExactArgs(1),
	}
	filterCmd = &cobra.Command{
		Use:   "filter",
		Short: "Print the pooled filter configuration",
		RunE:  cmdFilter,
	}
	confDir string

	loadCfg  StreamerConf
	setupCfg StreamerConf
)

// StreamerConf is the configuration of the streamconf tool.
type StreamerConf struct {
	Fetcher  fetcher.Config
	Projects projects.Config
	S3       s3.Config
}

func cmdSetup(cmd *cobra.Command, args []string) (err error) {
	setupDir, err := filepath.Abs(confDir)
	if err != nil {
		return err
	}

	valid, _ := fpath.IsValidSetupDir(setupDir)
	if !valid {
		return fmt.Errorf("streamconf configuration already exists (%v)", setupDir)
	}

	err = os.MkdirAll(setupDir, 0700)
	if err != nil {
		return err
	}

	if setupCfg.Projects.Bucket == "" {
		return fmt.Errorf("projects.bucket is required")
	}

	if setupCfg.Projects.Key == "" {
		return fmt.Errorf("projects.key is required")
	}

	return process.SaveConfig(cmd, filepath.Join(setupDir, "config.yaml"))
}

func cmdDump(cmd *cobra.Command, args []string) (err error) {
	manager, err := loadManager(cmd)
	if err != nil {
		return err
	}
	return manager.WriteFile(args[0])
}

func cmdShow(cmd *cobra.Command, args []string) (err error) {
	manager, err := loadManager(cmd)
	if err != nil {
		return err
	}

	project, err := manager.GetBySlug(args[0])
	if err != nil {
		return err
	}
	return printJSON(project)
}

func cmdTracking(cmd *cobra.Command, args []string) (err error) {
	manager, err := loadManager(cmd)
	if err != nil {
		return err
	}

	info, err := manager.GetTrackingInfo(args[0])
	if err != nil {
		return err
	}
	return printJSON(info)
}

func cmdFilter(cmd *cobra.Command, args []string) (err error) {
	manager, err := loadManager(cmd)
	if err != nil {
		return err
	}
	return printJSON(manager.FilterConfig())
}

// loadManager connects to the object store and loads the project
// configuration. The store is only needed during the load and is closed
// before returning.
func loadManager(cmd *cobra.Command) (_ *projects.Manager, err error) {
	ctx, _ := process.Ctx(cmd)
	log := zap.L()

	store, err := s3.OpenClient(ctx, loadCfg.S3)
	if err != nil {
		return nil, errs.New("Error opening object store client: %+v", err)
	}
	defer func() {
		err = errs.Combine(err, store.Close())
	}()

	manager, err := projects.NewManager(ctx,
		log.Named("projects"),
		fetcher.New(log.Named("fetcher"), store, loadCfg.Fetcher),
		loadCfg.Projects)
	if err != nil {
		return nil, errs.New("Error loading project configuration: %+v", err)
	}

	return manager, nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return errs.Wrap(err)
	}
	fmt.Println(string(data))
	return nil
}

func init() {
	defaultConfDir := fpath.ApplicationDir("streamer", "streamconf")
	cfgstruct.SetupFlag(zap.L(), rootCmd, &confDir, "config-dir", defaultConfDir, "main directory for streamconf configuration")
	defaults := cfgstruct.DefaultsFlag(rootCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(trackingCmd)
	rootCmd.AddCommand(filterCmd)
	process.Bind(setupCmd, &setupCfg, defaults, cfgstruct.ConfDir(confDir), cfgstruct.SetupMode())
	process.Bind(dumpCmd, &loadCfg, defaults, cfgstruct.ConfDir(confDir))
	process.Bind(showCmd, &loadCfg, defaults, cfgstruct.ConfDir(confDir))
	process.Bind(trackingCmd, &loadCfg, defaults, cfgstruct.ConfDir(confDir))
	process.Bind(filterCmd, &loadCfg, defaults, cfgstruct.ConfDir(confDir))
}

func main() {
	logger, _, _ := process.NewLogger("streamconf")
	zap.ReplaceGlobals(logger)

	process.Exec(rootCmd)
}
