package cli

import (
	"github.com/spf13/cobra"

	"github.com/matthewbaird/zkgen/internal/config"
	"github.com/matthewbaird/zkgen/internal/snapshot"
)

func newSnapshotCommand(s Streams) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save a workspace schema for offline generation",
		Long: `snapshot fetches the workspace and every list schema and writes them as
JSON. Pass the file to zkgen --snapshot to generate without API access.`,
		Example: `  zkgen snapshot --workspace "Acme CRM" --out acme.json`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := load(cmd, s)
			if err != nil {
				return err
			}
			if err := cfg.Require(config.KeyWorkspace, config.KeyToken); err != nil {
				return err
			}
			client, err := newClient(cfg, log)
			if err != nil {
				return err
			}
			snap, err := snapshot.Capture(cmd.Context(), client, cfg.Workspace, cfg.Concurrency)
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				return snap.Write(s.Out)
			}
			if err := snap.Save(out); err != nil {
				return err
			}
			log.Infow("saved snapshot", "workspace", snap.Workspace.Name, "lists", len(snap.Lists), "file", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", `snapshot file, "-" for stdout`)
	return cmd
}
