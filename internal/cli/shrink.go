package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/levelforge/pkg/errors"
)

// shrinkCommand creates the shrink command.
func (c *CLI) shrinkCommand() *cobra.Command {
	var (
		apply       bool
		keepMissing string
		refresh     bool
		noCache     bool
	)

	cmd := &cobra.Command{
		Use:   "shrink <level>",
		Short: "Delete files no live asset references",
		Long: `Find files in a level's managed folders that no live asset references and
delete them.

Without --apply the command only plans: it lists the deletable files and
touches nothing. Missing-file reports from the game can be fed back with
--keep-missing so assets the engine resolved at runtime survive the
liveness analysis.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runShrink(cmd.Context(), args[0], apply, keepMissing, refresh, noCache)
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "delete the planned files")
	cmd.Flags().StringVar(&keepMissing, "keep-missing", "", "file listing paths the game reported missing, one per line")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the summary cache")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the summary cache")

	return cmd
}

func (c *CLI) runShrink(ctx context.Context, levelName string, apply bool, keepMissing string, refresh, noCache bool) error {
	keep, err := readKeepList(keepMissing)
	if err != nil {
		return err
	}

	runner := c.newRunner(ctx, noCache)
	defer runner.Close()

	opts := c.scanOptions(levelName, refresh)
	opts.ManagedFolders = c.cfg.ManagedFolders
	opts.KeepMissing = keep
	opts.Apply = apply

	action := "Planning shrink of"
	if apply {
		action = "Shrinking"
	}
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("%s %s...", action, levelName))
	spinner.Start()
	res, err := runner.Shrink(ctx, opts)
	if res == nil {
		spinner.StopWithError("Shrink failed")
		return err
	}
	spinner.Stop()

	if res.Tainted > 0 {
		printWarning("%d live assets have unresolved references; their files are kept", res.Tainted)
	}

	if len(res.Candidates) == 0 {
		printSuccess("Nothing to delete, all %d live assets account for every managed file", res.Live)
		return err
	}

	if !apply {
		printInfo("%d files are not referenced by any live asset:", len(res.Candidates))
		for _, rel := range res.Candidates {
			printFile(rel)
		}
		printNewline()
		printNextStep("Delete them", "levelforge shrink "+levelName+" --apply")
		return err
	}

	printSuccess("Deleted %d of %d files", res.Deleted, len(res.Candidates))
	if res.Failed > 0 {
		printWarning("%d files could not be deleted, re-run to retry", res.Failed)
	}
	return err
}

// readKeepList reads a missing-file report: one level-relative path per
// line, blank lines and #-comments skipped. An empty path returns nil.
func readKeepList(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "read keep list %q", path)
	}
	var keep []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		keep = append(keep, line)
	}
	return keep, nil
}
