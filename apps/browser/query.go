package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tilsley/repobrowse/apps/browser/internal/browse"
	"github.com/tilsley/repobrowse/apps/browser/internal/platform/config"
	"github.com/tilsley/repobrowse/pkg/logging"
)

func newFoldersCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "folders PATH",
		Short: "List the folders directly below PATH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return query(cmd, *configPath, func(ctx context.Context, svc *browse.Service) (any, error) {
				return svc.ListSubfolders(ctx, args[0])
			})
		},
	}
}

func newFilesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "files PATH",
		Short: "List the files directly inside PATH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return query(cmd, *configPath, func(ctx context.Context, svc *browse.Service) (any, error) {
				return svc.ListFiles(ctx, args[0])
			})
		},
	}
}

func newContentCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "content PATH NAME",
		Short: "Print the parsed content of NAME inside PATH",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return query(cmd, *configPath, func(ctx context.Context, svc *browse.Service) (any, error) {
				doc, err := svc.GetFileContent(ctx, args[0], args[1])
				if err != nil {
					return nil, err
				}
				if doc == nil {
					return nil, fmt.Errorf("file %q not found in %q", args[1], args[0])
				}
				return doc, nil
			})
		},
	}
}

// query wires a Service from config, runs fn once and prints its result as JSON.
func query(cmd *cobra.Command, configPath string, fn func(context.Context, *browse.Service) (any, error)) error {
	log := logging.New(serviceName)

	cfg, err := config.Load(configPath, nil)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.cleanup()

	result, err := fn(ctx, a.svc)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
