package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/levelforge/pkg/errors"
	"github.com/matzehuels/levelforge/pkg/graphio"
)

const (
	formatDOT  = "dot"  // Graphviz source
	formatSVG  = "svg"  // rendered with the embedded graphviz engine
	formatJSON = "json" // flattened document, re-importable
)

// graphCommand creates the graph command.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		format   string
		output   string
		detailed bool
		refresh  bool
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "graph <level>",
		Short: "Export a level's asset graph for inspection",
		Long: `Export a level's asset graph as Graphviz DOT, a rendered SVG, or a JSON
document.

Unresolved references render as dashed edges into red placeholder nodes,
which makes broken requirement chains easy to spot in the SVG.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatDOT && format != formatSVG && format != formatJSON {
				return errors.New(errors.ErrCodeInvalidInput, "invalid format %q (must be 'dot', 'svg', or 'json')", format)
			}
			return c.runGraph(cmd.Context(), args[0], format, output, detailed, refresh, noCache)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatDOT, "output format: dot, svg, json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout; svg defaults to <level>.svg)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include kind, size, and container path in node labels")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the summary cache")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the summary cache")

	return cmd
}

func (c *CLI) runGraph(ctx context.Context, levelName, format, output string, detailed, refresh, noCache bool) error {
	runner := c.newRunner(ctx, noCache)
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Scanning %s...", levelName))
	spinner.Start()
	res, err := runner.Scan(ctx, c.scanOptions(levelName, refresh))
	if err != nil {
		spinner.StopWithError("Scan failed")
		return err
	}
	spinner.Stop()

	doc := graphio.Flatten(res.Graph, levelName)

	switch format {
	case formatJSON:
		if output == "" {
			return graphio.WriteJSON(doc, os.Stdout)
		}
		if err := graphio.ExportJSON(doc, output); err != nil {
			return err
		}

	case formatDOT:
		dot := graphio.ToDOT(doc, graphio.DotOptions{Detailed: detailed})
		if output == "" {
			fmt.Print(dot)
			return nil
		}
		if err := os.WriteFile(output, []byte(dot), 0o644); err != nil {
			return errors.Wrap(errors.ErrCodeIO, err, "write %q", output)
		}

	case formatSVG:
		if output == "" {
			output = levelName + ".svg"
		}
		svg, err := graphio.RenderSVG(graphio.ToDOT(doc, graphio.DotOptions{Detailed: detailed}))
		if err != nil {
			return err
		}
		if err := os.WriteFile(output, svg, 0o644); err != nil {
			return errors.Wrap(errors.ErrCodeIO, err, "write %q", output)
		}
	}

	printSuccess("Exported %s graph of %s (%d assets, %d references)", format, levelName, res.Summary.Nodes, res.Summary.Edges)
	printFile(output)
	return nil
}
