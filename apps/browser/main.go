// Command repobrowse serves and queries a cached, read-only view of a
// remote repository tree.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "repobrowse",
		Short:        "Browse folders, files and parsed content of a remote repository",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("REPOBROWSE_CONFIG"),
		"path to a YAML config file (env REPOBROWSE_CONFIG)")

	root.AddCommand(
		newServeCmd(&configPath),
		newFoldersCmd(&configPath),
		newFilesCmd(&configPath),
		newContentCmd(&configPath),
	)
	return root
}
