// Copyright © 2018 One Concern

package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "git-shed",
	Short: "git-shed keeps large files out of your git repo",
	Long: `git-shed versions large files outside your git repo.

A managed file is committed as a symlink into a local cache, the shed.
The symlink target encodes a content key, so any clone can refetch the
bytes from a shared content store. Synced symlinks are safe to commit:
their content is available in the content store for other clones.

Configuration lives in .gitshed/config.json at the repo root.
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	log.SetFlags(0)
	addConfigFlag(rootCmd)
	addLogLevelFlag(rootCmd)
	addVerboseFlag(rootCmd)
}
