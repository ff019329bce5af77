// Copyright © 2018 One Concern

package cmd

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/oneconcern/gitshed/pkg/core"
	"github.com/oneconcern/gitshed/pkg/errors"

	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Verify that the repo and content store are usable",
	Long: `Verify that the repo and content store are usable.

Checks that the shed is gitignored, then exercises the content store
with a full write/read round trip against a sacrificial probe key.
Probe objects live under GITSHED_CLIENT_CHECK_DELETABLE and are safe to
purge server side.
`,
	Run: func(cmd *cobra.Command, args []string) {
		shed, err := newShed()
		if err != nil {
			wrapFatalln("configure", err)
			return
		}
		if err := checkShedIgnored(shed.Repo().Root()); err != nil {
			wrapFatalln("setup", err)
			return
		}
		if err := shed.Engine().VerifySetup(context.Background()); err != nil {
			wrapFatalln("content store check failed", err)
			return
		}
		infoLogger.Println("gitshed is set up correctly.")
	},
}

// checkShedIgnored makes sure the shed never lands in version control.
func checkShedIgnored(repoRoot string) error {
	ignorePath := filepath.Join(repoRoot, ".gitignore")
	f, err := os.Open(ignorePath)
	if err != nil {
		if os.IsNotExist(err) {
			return errShedNotIgnored
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		entry := strings.TrimSpace(scanner.Text())
		entry = strings.TrimSuffix(entry, "/")
		if entry == ".gitshed" || entry == filepath.ToSlash(core.ShedRoot) {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return errShedNotIgnored
}

var errShedNotIgnored = errors.New(".gitshed must be in your .gitignore file")

func init() {
	rootCmd.AddCommand(setupCmd)
}
