// Copyright © 2018 One Concern

package cmd

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const defaultConfigPath = ".gitshed/config.json"

type flagsT struct {
	root struct {
		config   string
		logLevel string
		verbose  bool
	}
	paths struct {
		argfile string
	}
}

var gitshedFlags flagsT

func addConfigFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&gitshedFlags.root.config, "config",
		defaultConfigPath, "Path to the gitshed config file, relative to the repo root")
}

func addLogLevelFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&gitshedFlags.root.logLevel, "log-level",
		"none", "Log level (debug|info|warn|error|none)")
}

func addVerboseFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVar(&gitshedFlags.root.verbose, "verbose",
		false, "Shorthand for --log-level info")
}

func addArgfileFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&gitshedFlags.paths.argfile, "argfile", "f",
		"", "Read paths to operate on from this file, one per line")
}

func logLevel() string {
	if gitshedFlags.root.verbose && gitshedFlags.root.logLevel == "none" {
		return "info"
	}
	return gitshedFlags.root.logLevel
}

// resolvePathArgs expands shell style glob arguments and merges in paths
// read from the argfile, if one was given.
func resolvePathArgs(args []string) ([]string, error) {
	paths := make([]string, 0, len(args))
	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			// no match: keep the literal argument so the caller reports
			// a sensible file not found error
			paths = append(paths, arg)
			continue
		}
		paths = append(paths, matches...)
	}
	if gitshedFlags.paths.argfile != "" {
		fromFile, err := readArgfile(gitshedFlags.paths.argfile)
		if err != nil {
			return nil, err
		}
		paths = append(paths, fromFile...)
	}
	return paths, nil
}

func readArgfile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var paths []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			paths = append(paths, line)
		}
	}
	return paths, scanner.Err()
}
