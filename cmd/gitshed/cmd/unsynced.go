// Copyright © 2018 One Concern

package cmd

import (
	"github.com/spf13/cobra"
)

var unsyncedCmd = &cobra.Command{
	Use:   "unsynced",
	Short: "List managed files whose content is missing locally",
	Run: func(cmd *cobra.Command, args []string) {
		shed, err := newShed()
		if err != nil {
			wrapFatalln("configure", err)
			return
		}
		paths, err := shed.Unsynced()
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
	rootCmd.AddCommand(unsyncedCmd)
}
