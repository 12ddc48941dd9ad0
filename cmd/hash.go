package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"driftwatch/internal/drift"
)

type hashOptions struct {
	filter  bool
	exclude []string
}

func newHashCmd() *cobra.Command {
	opts := &hashOptions{}

	cmd := &cobra.Command{
		Use:   "hash <file>",
		Short: "Print the drift hash of a YAML or JSON document",
		Long: `Print the 8-character hash driftwatch uses to compare configuration and
deployment layers. The document is normalized first, so key order and
YAML versus JSON encoding do not change the hash. Use '-' to read from stdin.

With --filter, runtime fields (counters, timestamps, status) are removed
before hashing, matching what a drift check compares.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHash(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.filter, "filter", false, "Remove excluded runtime fields before hashing")
	cmd.Flags().StringSliceVar(&opts.exclude, "exclude", nil, "Additional field names or paths to remove (implies --filter)")

	return cmd
}

func runHash(cmd *cobra.Command, opts *hashOptions, path string) error {
	data, err := readInput(cmd, path)
	if err != nil {
		return err
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if opts.filter || len(opts.exclude) > 0 {
		doc = drift.OmitExcludedFields(doc, opts.exclude, "")
	}

	hash, err := drift.Hash(doc)
	if err != nil {
		return fmt.Errorf("failed to hash %s: %w", path, err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
