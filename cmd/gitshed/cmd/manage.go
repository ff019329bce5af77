// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"os"

	"github.com/oneconcern/gitshed/pkg/content"
	"github.com/oneconcern/gitshed/pkg/progress"

	"github.com/spf13/cobra"
)

var manageCmd = &cobra.Command{
	Use:   "manage [path|glob ...]",
	Short: "Put files under gitshed management",
	Long: `Put files under gitshed management.

Each file is uploaded to the content store, moved into the shed, and
replaced by a relative symlink. Commit the symlink, not the content.
`,
	Run: func(cmd *cobra.Command, args []string) {
		paths, err := resolvePathArgs(args)
		if err != nil {
			wrapFatalln("resolve paths", err)
			return
		}
		if len(paths) == 0 {
			wrapFatalWithCodef(2, "nothing to manage: pass paths or --argfile")
			return
		}
		bar := progress.NewBar(os.Stderr)
		shed, err := newShed(content.Progress(bar))
		if err != nil {
			wrapFatalln("configure", err)
			return
		}
		err = shed.Manage(context.Background(), paths)
		bar.Done()
		if err != nil {
			wrapFatalln("manage", err)
			return
		}
	},
}

func init() {
	addArgfileFlag(manageCmd)
	rootCmd.AddCommand(manageCmd)
}
