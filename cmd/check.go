package cmd

import (
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"driftwatch/internal/config"
	"driftwatch/internal/drift"
	"driftwatch/internal/formatting"
	"driftwatch/internal/reconciler"
	"driftwatch/internal/resource"
	"driftwatch/pkg/logging"
)

type checkOptions struct {
	output      string
	diff        bool
	failOnDrift bool
	quiet       bool
	noColor     bool
}

func newCheckCmd(global *globalOptions) *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check [uuid...]",
		Short: "Compare resources with their deployed state once",
		Long: `Compare the managed configuration of each resource with the fields the
router reported after the last deployment.

Without arguments every resource in the resources directory is checked.
Pass one or more UUIDs to check only those resources.

Examples:
  driftwatch check
  driftwatch check --diff 3f0c1a52-8d1e-4b6f-9a57-0c2d7e1f4b10
  driftwatch check --output json --fail-on-drift`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, global, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", string(formatting.FormatTable), "Output format: table, console, json or yaml")
	cmd.Flags().BoolVar(&opts.diff, "diff", false, "Show a line diff for drifted resources")
	cmd.Flags().BoolVar(&opts.failOnDrift, "fail-on-drift", false, "Exit with code 2 when any resource drifted")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress progress and summary output")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func runCheck(cmd *cobra.Command, global *globalOptions, opts *checkOptions, args []string) error {
	format, err := formatting.ParseFormat(opts.output)
	if err != nil {
		return err
	}

	cfg, err := loadRuntime(cmd, global)
	if err != nil {
		return err
	}

	resources, err := loadForCheck(cmd, cfg, opts, format, args)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	compare := compareOptions(cfg)
	logging.Info("CLI", "Check run %s: comparing %d resources", runID, len(resources))

	entries := make([]formatting.ReportEntry, 0, len(resources))
	for _, res := range resources {
		result := drift.Detect(res, compare)
		entry := formatting.ReportEntry{
			UUID:     res.UUID,
			Type:     res.Type,
			Name:     res.Name,
			Priority: reconciler.GetResourcePriority(res.Type).String(),
			Result:   result,
		}

		if opts.diff && result.HasDrift {
			diff, err := drift.RenderDiff(
				drift.OmitExcludedFields(res.Configuration, compare.ExcludeFields, ""),
				drift.OmitExcludedFields(res.Deployment.GeneratedFields, compare.ExcludeFields, ""),
			)
			if err != nil {
				logging.Warn("CLI", "Failed to render diff for %s: %v", res.UUID, err)
			} else {
				entry.Diff = diff
			}
		}

		entries = append(entries, entry)
	}

	report := formatting.NewReport(runID, time.Now().UTC(), entries)

	formatter := formatting.NewFormatter(formatting.Options{
		Format: format,
		Quiet:  opts.quiet,
		Color:  !opts.noColor && useColor(cmd),
		Diff:   opts.diff,
		Output: cmd.OutOrStdout(),
	})
	if err := formatter.FormatReport(report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	drifted := report.Summary.ByStatus[drift.StatusDrifted]
	logging.Info("CLI", "Check run %s finished: %d drifted, %d errors", runID, drifted, report.Summary.ByStatus[drift.StatusError])

	if opts.failOnDrift && drifted > 0 {
		return &DriftDetectedError{Count: drifted}
	}
	return nil
}

// loadForCheck reads the requested resources, showing a spinner for
// interactive formats.
func loadForCheck(cmd *cobra.Command, cfg config.Config, opts *checkOptions, format formatting.OutputFormat, args []string) ([]resource.Resource, error) {
	store := resource.NewStore(cfg.Resources.Dir)

	var s *spinner.Spinner
	if !opts.quiet && (format == formatting.FormatTable || format == formatting.FormatConsole) {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
		s.Suffix = " Loading resources..."
		s.Start()
	}

	var (
		resources []resource.Resource
		err       error
	)
	if len(args) == 0 {
		resources, err = store.LoadAll(cmd.Context())
	} else {
		resources, err = store.Fetch(cmd.Context(), args)
		if err == nil {
			err = checkAllFound(args, resources)
		}
	}

	if s != nil {
		if err != nil {
			s.FinalMSG = text.FgRed.Sprint("Failed to load resources") + "\n"
		}
		s.Stop()
	}

	return resources, err
}

func checkAllFound(requested []string, resources []resource.Resource) error {
	found := make(map[string]bool, len(resources))
	for _, res := range resources {
		found[res.UUID] = true
	}
	for _, id := range requested {
		if !found[id] {
			return fmt.Errorf("resource %s: %w", id, resource.ErrNotFound)
		}
	}
	return nil
}
