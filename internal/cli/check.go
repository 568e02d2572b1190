package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

// ErrDrift is returned by check when the output directory is out of date.
var ErrDrift = errors.New("generated code is out of date")

func newCheckCommand(s Streams) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the output directory matches the current schema",
		Long: `check generates into a temporary directory and compares the result with
the output directory. Files that differ, are missing, or were generated
for lists that no longer exist are reported, and the command fails.`,
		Example: `  zkgen check --workspace "Acme CRM" --output ./acme`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := load(cmd, s)
			if err != nil {
				return err
			}
			tmp, err := os.MkdirTemp("", "zkgen-check-")
			if err != nil {
				return errors.Wrap(err, "creating scratch directory")
			}
			defer os.RemoveAll(tmp)

			res, err := generate(cmd.Context(), cfg, log, tmp)
			if err != nil {
				return err
			}
			drift, err := compare(tmp, res.Files, cfg.Output)
			if err != nil {
				return err
			}
			for _, line := range drift {
				fmt.Fprintln(s.Out, line)
			}
			if len(drift) > 0 {
				return errors.WithHint(
					errors.Wrapf(ErrDrift, "%d file(s) in %s", len(drift), cfg.Output),
					"run zkgen with the same settings to regenerate")
			}
			log.Infow("generated code is up to date", "dir", cfg.Output)
			return nil
		},
	}
}

// compare reports each of fresh (paths under freshDir) that is missing from
// or differs in dir, and each generated list file in dir that fresh lacks.
func compare(freshDir string, fresh []string, dir string) ([]string, error) {
	var drift []string
	want := make(map[string]bool, len(fresh))
	for _, path := range fresh {
		rel, err := filepath.Rel(freshDir, path)
		if err != nil {
			return nil, errors.Wrapf(err, "relativizing %s", path)
		}
		want[rel] = true

		exp, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "reading generated file")
		}
		got, err := os.ReadFile(filepath.Join(dir, rel))
		switch {
		case os.IsNotExist(err):
			drift = append(drift, "missing "+rel)
		case err != nil:
			return nil, errors.Wrapf(err, "reading %s", rel)
		case !bytes.Equal(exp, got):
			drift = append(drift, "stale   "+rel)
		}
	}

	existing, err := filepath.Glob(filepath.Join(dir, "*_gen.go"))
	if err != nil {
		return nil, errors.Wrap(err, "listing output directory")
	}
	for _, path := range existing {
		if rel := filepath.Base(path); !want[rel] {
			drift = append(drift, "orphan  "+rel)
		}
	}
	sort.Strings(drift)
	return drift, nil
}
