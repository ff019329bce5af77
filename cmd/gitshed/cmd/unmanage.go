// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"os"

	"github.com/oneconcern/gitshed/pkg/content"
	"github.com/oneconcern/gitshed/pkg/progress"

	"github.com/spf13/cobra"
)

var unmanageCmd = &cobra.Command{
	Use:   "unmanage [path|glob ...]",
	Short: "Take files out of gitshed management",
	Long: `Take files out of gitshed management.

The symlink is replaced by a writable copy of the content. The shed and
content store keep their copies: store entries are never deleted.
`,
	Run: func(cmd *cobra.Command, args []string) {
		paths, err := resolvePathArgs(args)
		if err != nil {
			wrapFatalln("resolve paths", err)
			return
		}
		if len(paths) == 0 {
			wrapFatalWithCodef(2, "nothing to unmanage: pass paths or --argfile")
			return
		}
		bar := progress.NewBar(os.Stderr)
		shed, err := newShed(content.Progress(bar))
		if err != nil {
			wrapFatalln("configure", err)
			return
		}
		err = shed.Unmanage(context.Background(), paths)
		bar.Done()
		if err != nil {
			wrapFatalln("unmanage", err)
			return
		}
	},
}

func init() {
	addArgfileFlag(unmanageCmd)
	rootCmd.AddCommand(unmanageCmd)
}
