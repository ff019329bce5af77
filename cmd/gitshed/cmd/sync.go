// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"os"

	"github.com/oneconcern/gitshed/pkg/content"
	"github.com/oneconcern/gitshed/pkg/progress"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync [path|glob ...]",
	Short: "Fetch missing content for managed files",
	Long: `Fetch missing content for managed files.

With no arguments, syncs every managed file in the repo. Paths that are
already synced, or not managed, are skipped.
`,
	Run: func(cmd *cobra.Command, args []string) {
		paths, err := resolvePathArgs(args)
		if err != nil {
			wrapFatalln("resolve paths", err)
			return
		}
		bar := progress.NewBar(os.Stderr)
		shed, err := newShed(content.Progress(bar))
		if err != nil {
			wrapFatalln("configure", err)
			return
		}
		ctx := context.Background()
		if len(args) == 0 && gitshedFlags.paths.argfile == "" {
			err = shed.SyncAll(ctx)
		} else {
			err = shed.Sync(ctx, paths)
		}
		bar.Done()
		if err != nil {
			wrapFatalln("sync", err)
			return
		}
	},
}

func init() {
	addArgfileFlag(syncCmd)
	rootCmd.AddCommand(syncCmd)
}
