package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/levelforge/pkg/graphio"
	"github.com/matzehuels/levelforge/pkg/pipeline"
)

// scanCommand creates the scan command.
func (c *CLI) scanCommand() *cobra.Command {
	var (
		refresh     bool
		noCache     bool
		summaryOnly bool
		output      string
	)

	cmd := &cobra.Command{
		Use:   "scan <level>",
		Short: "Build a level's asset graph and report its health",
		Long: `Build a level's asset graph from disk and report what it holds: asset and
reference counts per kind, incomplete assets, and unresolved references.

The graph is always rebuilt from the level's current files. With --summary
the cached summary is served instead, as long as the level's content
signature still matches.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runScan(cmd.Context(), args[0], refresh, noCache, summaryOnly, output)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the summary cache")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the summary cache")
	cmd.Flags().BoolVar(&summaryOnly, "summary", false, "serve the cached summary when current instead of scanning")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the flattened graph as JSON")

	return cmd
}

func (c *CLI) runScan(ctx context.Context, levelName string, refresh, noCache, summaryOnly bool, output string) error {
	runner := c.newRunner(ctx, noCache)
	defer runner.Close()
	opts := c.scanOptions(levelName, refresh)

	if summaryOnly && output == "" {
		summary, cached, err := runner.SummaryWithCacheInfo(ctx, opts)
		if err != nil {
			return err
		}
		printSuccess("Scanned %s", levelName)
		printScanSummary(summary, cached)
		return nil
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Scanning %s...", levelName))
	spinner.Start()
	res, err := runner.Scan(ctx, opts)
	if err != nil {
		spinner.StopWithError("Scan failed")
		return err
	}
	spinner.Stop()

	printSuccess("Scanned %s", levelName)
	printScanSummary(res.Summary, false)

	if output != "" {
		if err := graphio.ExportJSON(graphio.Flatten(res.Graph, levelName), output); err != nil {
			return err
		}
		printFile(output)
	}

	printNewline()
	if res.Summary.Incomplete > 0 || res.Summary.Unresolved > 0 {
		printNextStep("Inspect", "levelforge graph "+levelName+" --format svg")
	} else {
		printNextStep("Reclaim space", "levelforge shrink "+levelName)
	}
	return nil
}

// printScanSummary prints the aggregate counts of one scan.
func printScanSummary(s pipeline.ScanSummary, cached bool) {
	printStats(s.Nodes, s.Edges, cached)
	printKeyValue("Files", fmt.Sprintf("%d scanned, %d skipped", s.Files, s.FilesSkipped))
	printKeyValue("Roots", strconv.Itoa(s.Roots))
	printKeyValue("Kinds", formatKinds(s.Kinds))
	if s.Incomplete > 0 {
		printWarning("%d assets are incomplete (missing files on disk)", s.Incomplete)
	}
	if s.Unresolved > 0 {
		printWarning("%d references never resolved to an asset", s.Unresolved)
	}
	if s.Warnings > 0 || s.Errors > 0 {
		printDetail("%d warnings, %d errors during the scan", s.Warnings, s.Errors)
	}
}

// formatKinds renders a kind histogram as "shape 12, texture 9, ...",
// largest first.
func formatKinds(kinds map[string]int) string {
	if len(kinds) == 0 {
		return "none"
	}
	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		if kinds[names[i]] != kinds[names[j]] {
			return kinds[names[i]] > kinds[names[j]]
		}
		return names[i] < names[j]
	})
	parts := make([]string, len(names))
	for i, k := range names {
		parts[i] = fmt.Sprintf("%s %d", k, kinds[k])
	}
	return strings.Join(parts, ", ")
}
