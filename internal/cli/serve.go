package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/levelforge/internal/api"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Run the HTTP API server. It exposes the scan, shrink, and copy
operations over JSON so editors and mod managers can drive them without
shelling out.

The server binds to loopback by default; pass --listen to change that.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), listen)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config, 127.0.0.1:8484)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, listen string) error {
	addr := listen
	if addr == "" {
		addr = c.cfg.API.Listen
	}
	if addr == "" {
		addr = "127.0.0.1:8484"
	}

	runner := c.newRunner(ctx, false)
	defer runner.Close()

	printInfo("Serving on %s", StyleLink.Render("http://"+addr))
	printDetail("Levels root: %s", c.cfg.LevelsRoot)
	printNewline()

	srv := api.New(runner, runner.Reports, c.cfg, c.Logger)
	return srv.ListenAndServe(ctx, addr)
}
