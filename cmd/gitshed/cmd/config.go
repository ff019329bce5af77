// Copyright © 2018 One Concern

package cmd

import (
	"os"
	"path/filepath"
	"time"

	"github.com/oneconcern/gitshed/pkg/content"
	"github.com/oneconcern/gitshed/pkg/core"
	"github.com/oneconcern/gitshed/pkg/dlogger"
	"github.com/oneconcern/gitshed/pkg/status"
	"github.com/oneconcern/gitshed/pkg/storage"
	"github.com/oneconcern/gitshed/pkg/storage/hybrid"
	"github.com/oneconcern/gitshed/pkg/storage/localfs"
	"github.com/oneconcern/gitshed/pkg/storage/rsync"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const defaultRemoteTimeoutSecs = 5

// CLIConfig describes the CLI configuration, read from
// .gitshed/config.json at the repo root.
type CLIConfig struct {
	// bug in viper? Need to keep names of fields the same as the serialized names..
	Exclude     []string `json:"exclude" mapstructure:"exclude"`
	Concurrency struct {
		Get int `json:"get" mapstructure:"get"`
		Put int `json:"put" mapstructure:"put"`
	} `json:"concurrency" mapstructure:"concurrency"`
	ContentStore struct {
		Local *struct {
			Root string `json:"root" mapstructure:"root"`
		} `json:"local" mapstructure:"local"`
		Remote *struct {
			Host        string `json:"host" mapstructure:"host"`
			RootPath    string `json:"root_path" mapstructure:"root_path"`
			RootURL     string `json:"root_url" mapstructure:"root_url"`
			TimeoutSecs int    `json:"timeout_secs" mapstructure:"timeout_secs"`
		} `json:"remote" mapstructure:"remote"`
	} `json:"content_store" mapstructure:"content_store"`
}

func newConfig(path string) (*CLIConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) || errorIsNotFound(err) {
			return nil, status.ErrConfig.WrapMessage(nil, "no config file found at %s", path)
		}
		return nil, status.ErrConfig.WrapMessage(err, "invalid config at %s", path)
	}
	var config CLIConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, status.ErrConfig.WrapMessage(err, "invalid config at %s", path)
	}
	return &config, nil
}

func errorIsNotFound(err error) bool {
	_, ok := err.(viper.ConfigFileNotFoundError)
	return ok
}

// backend builds the content store backend described by the config.
func (c *CLIConfig) backend(l *zap.Logger) (storage.Store, error) {
	cs := c.ContentStore
	switch {
	case cs.Remote != nil:
		r := cs.Remote
		for key, val := range map[string]string{
			"content_store.remote.host":      r.Host,
			"content_store.remote.root_path": r.RootPath,
			"content_store.remote.root_url":  r.RootURL,
		} {
			if val == "" {
				return nil, status.ErrConfig.WrapMessage(nil, "missing key: %s", key)
			}
		}
		timeoutSecs := r.TimeoutSecs
		if timeoutSecs <= 0 {
			timeoutSecs = defaultRemoteTimeoutSecs
		}
		timeout := time.Duration(timeoutSecs) * time.Second
		write := rsync.New(r.Host, r.RootPath, rsync.Timeout(timeout), rsync.Logger(l))
		return hybrid.New(r.RootURL, write, hybrid.Timeout(timeout), hybrid.Logger(l)), nil
	case cs.Local != nil:
		if cs.Local.Root == "" {
			return nil, status.ErrConfig.WrapMessage(nil, "missing key: content_store.local.root")
		}
		return localfs.New(cs.Local.Root), nil
	default:
		return nil, status.ErrConfig.WrapMessage(nil, "no content store specified")
	}
}

// newShed wires a shed from the cwd repo and the config file. Extra
// engine options come last so commands can attach progress reporting.
func newShed(engineOpts ...content.Option) (*core.Shed, error) {
	l, err := dlogger.GetLogger(logLevel())
	if err != nil {
		return nil, err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	repo, err := core.NewRepo(cwd)
	if err != nil {
		return nil, err
	}

	configPath := gitshedFlags.root.config
	if !filepath.IsAbs(configPath) {
		configPath = filepath.Join(repo.Root(), configPath)
	}
	config, err := newConfig(configPath)
	if err != nil {
		return nil, err
	}

	backend, err := config.backend(l)
	if err != nil {
		return nil, err
	}
	opts := []content.Option{
		content.GetConcurrency(config.Concurrency.Get),
		content.PutConcurrency(config.Concurrency.Put),
		content.Logger(l),
	}
	opts = append(opts, engineOpts...)
	engine := content.New(backend, opts...)

	return core.NewShed(repo, engine, core.Exclude(config.Exclude), core.Logger(l))
}
