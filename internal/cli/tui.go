package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// BrushListModel - Interactive forest brush selection
// =============================================================================

// BrushItem is one selectable forest brush.
type BrushItem struct {
	Name       string
	Elements   int
	Incomplete bool
}

// BrushListModel is the bubbletea model for interactive brush selection.
// Space toggles the brush under the cursor, enter confirms. When nothing
// was toggled, enter selects the brush under the cursor alone.
type BrushListModel struct {
	Brushes []BrushItem
	Cursor  int
	Picked  map[int]bool
	Chosen  []string
	Height  int
	Offset  int
}

// NewBrushListModel creates a new brush list model.
func NewBrushListModel(brushes []BrushItem) BrushListModel {
	return BrushListModel{
		Brushes: brushes,
		Picked:  make(map[int]bool),
		Height:  15,
	}
}

func (m BrushListModel) Init() tea.Cmd {
	return nil
}

func (m BrushListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Brushes)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case " ":
			if m.Picked[m.Cursor] {
				delete(m.Picked, m.Cursor)
			} else {
				m.Picked[m.Cursor] = true
			}
		case "enter":
			if len(m.Picked) == 0 {
				m.Chosen = []string{m.Brushes[m.Cursor].Name}
				return m, tea.Quit
			}
			for i, b := range m.Brushes {
				if m.Picked[i] {
					m.Chosen = append(m.Chosen, b.Name)
				}
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m BrushListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Forest Brushes"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ␣ toggle  ⏎ confirm  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Brushes) {
		end = len(m.Brushes)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		br := m.Brushes[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		picked := ""
		if m.Picked[i] {
			picked = iconSuccess
		}

		state := ""
		if br.Incomplete {
			state = "incomplete"
		}

		rows = append(rows, []string{cursor, br.Name, strconv.Itoa(br.Elements), picked, state})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleTableBorder).
		Headers("", "Brush", "Elements", "", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleTableHeader
			}

			actualIdx := m.Offset + row
			if actualIdx >= len(m.Brushes) {
				return lipgloss.NewStyle()
			}
			br := m.Brushes[actualIdx]
			isCurrent := actualIdx == m.Cursor

			base := lipgloss.NewStyle()
			if col == 4 {
				return base.Foreground(colorYellow)
			}
			if br.Incomplete {
				base = base.Foreground(colorDim)
			} else if m.Picked[actualIdx] {
				base = base.Foreground(colorGreen)
			}
			if isCurrent {
				return base.Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]  %d selected", m.Cursor+1, len(m.Brushes), len(m.Picked))))

	return b.String()
}
