package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/levelforge/pkg/level"
)

// levelsCommand creates the levels listing command.
func (c *CLI) levelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "levels",
		Short: "List levels under the configured root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLevels()
		},
	}
}

func (c *CLI) runLevels() error {
	infos, err := level.List(c.cfg.LevelsRoot)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		printInfo("No levels under %s", c.cfg.LevelsRoot)
		return nil
	}

	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		title := info.Title
		if title == "" {
			title = "-"
		}
		rows = append(rows, []string{info.Name, title, formatBytes(info.SizeBytes)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleTableBorder).
		Headers("Level", "Title", "Size").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleTableHeader
			}
			if col == 2 {
				return StyleDim
			}
			return StyleValue
		})
	fmt.Println(t.Render())
	printDetail("%d levels in %s", len(infos), c.cfg.LevelsRoot)
	return nil
}
