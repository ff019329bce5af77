// Copyright © 2018 One Concern

package cmd

import (
	"os"
	"path/filepath"

	"github.com/oneconcern/gitshed/pkg/core"

	"github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show how many managed files exist and how many need syncing",
	Run: func(cmd *cobra.Command, args []string) {
		shed, err := newShed()
		if err != nil {
			wrapFatalln("configure", err)
			return
		}
		total, unsynced, err := shed.Status()
		if err != nil {
			wrapFatalln("scan repo", err)
			return
		}
		size, err := shedSize(shed.Repo().Root())
		if err != nil {
			wrapFatalln("measure shed", err)
			return
		}

		infoLogger.Printf("%d files in gitshed (%s in the shed). %s synced. %s need syncing.",
			total,
			units.HumanSize(float64(size)),
			color.GreenString("%d", total-unsynced),
			color.RedString("%d", unsynced),
		)
		if unsynced > 0 {
			infoLogger.Println(`Use "git shed unsynced" to list unsynced files.`)
			infoLogger.Println(`Use "git shed sync <file_glob>" to sync specific files.`)
			infoLogger.Println(`Use "git shed sync" to sync all files.`)
		}
	},
}

// shedSize totals the local shed content, what the cache actually
// occupies on disk rather than what the repo references.
func shedSize(repoRoot string) (int64, error) {
	var size int64
	shedAbs := filepath.Join(repoRoot, filepath.FromSlash(core.ShedRoot))
	err := filepath.Walk(shedAbs, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if fi.Mode().IsRegular() {
			size += fi.Size()
		}
		return nil
	})
	if os.IsNotExist(err) {
		return 0, nil
	}
	return size, err
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
