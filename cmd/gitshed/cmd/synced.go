// Copyright © 2018 One Concern

package cmd

import (
	"github.com/spf13/cobra"
)

var syncedCmd = &cobra.Command{
	Use:   "synced",
	Short: "List managed files whose content is present locally",
	Run: func(cmd *cobra.Command, args []string) {
		shed, err := newShed()
		if err != nil {
			wrapFatalln("configure", err)
			return
		}
		paths, err := shed.Synced()
		if err != nil {
			wrapFatalln("scan repo", err)
			return
		}
		for _, p := range paths {
			infoLogger.Println(p)
		}
	},
}

func init() {
	rootCmd.AddCommand(syncedCmd)
}
