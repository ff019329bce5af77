// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"os"

	"github.com/oneconcern/gitshed/pkg/content"
	"github.com/oneconcern/gitshed/pkg/progress"

	"github.com/spf13/cobra"
)

var resyncCmd = &cobra.Command{
	Use:   "resync [path|glob ...]",
	Short: "Discard local shed content and refetch it",
	Long: `Discard local shed content and refetch it from the content store.

Use this to repair corrupted files in the shed. With no arguments,
resyncs every managed file in the repo.
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
			err = shed.ResyncAll(ctx)
		} else {
			err = shed.Resync(ctx, paths)
		}
		bar.Done()
		if err != nil {
			wrapFatalln("resync", err)
			return
		}
	},
}

func init() {
	addArgfileFlag(resyncCmd)
	rootCmd.AddCommand(resyncCmd)
}
