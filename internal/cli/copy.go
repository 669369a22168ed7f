package cli

import (
	"context"
	"fmt"
	"sort"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/levelforge/pkg/asset"
	"github.com/matzehuels/levelforge/pkg/errors"
	"github.com/matzehuels/levelforge/pkg/pipeline"
)

// copyCommand creates the copy command.
func (c *CLI) copyCommand() *cobra.Command {
	var (
		target  string
		all     bool
		refresh bool
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "copy <source-level> [brush...]",
		Short: "Copy forest brushes into another level",
		Long: `Copy forest brushes from a source level into a target level, together
with everything they require: brush elements, item data, shapes, and the
files behind them.

Brushes can be named as arguments, selected interactively when none are
given, or copied wholesale with --all. Assets the target already holds
are detected by content and skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCopy(cmd.Context(), args[0], args[1:], target, all, refresh, noCache)
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "level to copy into")
	cmd.Flags().BoolVar(&all, "all", false, "copy every brush in the source level")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the summary cache")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the summary cache")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func (c *CLI) runCopy(ctx context.Context, source string, brushes []string, target string, all, refresh, noCache bool) error {
	runner := c.newRunner(ctx, noCache)
	defer runner.Close()

	if len(brushes) == 0 && !all {
		picked, err := c.pickBrushes(ctx, runner, source, refresh)
		if err != nil {
			return err
		}
		if len(picked) == 0 {
			printDetail("No selection made")
			return nil
		}
		brushes = picked
	}

	opts := c.scanOptions(source, refresh)
	opts.TargetLevel = target
	opts.Brushes = brushes
	opts.AllBrushes = all

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Copying into %s...", target))
	spinner.Start()
	res, err := runner.Copy(ctx, opts)
	if res == nil {
		spinner.StopWithError("Copy failed")
		return err
	}
	spinner.Stop()

	printSuccess("Copied %d of %d required assets into %s", res.Copied, res.Required, target)
	if res.Duplicates > 0 {
		printDetail("%d assets already existed in the target", res.Duplicates)
	}
	if res.Tainted > 0 {
		printWarning("%d required assets have unresolved references, their subtrees may be incomplete", res.Tainted)
	}
	if res.Failed > 0 {
		printWarning("%d assets failed to copy, re-run to retry", res.Failed)
	}
	return err
}

// pickBrushes scans the source level and lets the user choose brushes
// interactively. A canceled selection returns an empty list and no error.
func (c *CLI) pickBrushes(ctx context.Context, runner *pipeline.Runner, source string, refresh bool) ([]string, error) {
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Scanning %s...", source))
	spinner.Start()
	res, err := runner.Scan(ctx, c.scanOptions(source, refresh))
	if err != nil {
		spinner.StopWithError("Scan failed")
		return nil, err
	}
	spinner.Stop()

	g := res.Graph
	ids := g.NodesOfKind(asset.KindForestBrush)
	if len(ids) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "level %q has no forest brushes", source)
	}

	items := make([]BrushItem, 0, len(ids))
	for _, id := range ids {
		n := g.Node(id)
		items = append(items, BrushItem{
			Name:       n.EffectiveName(),
			Elements:   len(g.Outgoing(id)),
			Incomplete: n.Incomplete,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })

	printSuccess("Found %d forest brushes in %s", len(items), source)
	printNewline()

	p := tea.NewProgram(NewBrushListModel(items))
	finalModel, err := p.Run()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "interactive selection unavailable, name brushes as arguments or pass --all")
	}

	fm, ok := finalModel.(BrushListModel)
	if !ok {
		return nil, nil
	}
	return fm.Chosen, nil
}
