package ui

import (
	"fmt"
	"strconv"
	"strings"

	"plotterctl/model"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

var filterNames = map[int]string{
	model.FilterNone:      "all",
	model.FilterPending:   "pending",
	model.FilterFetched:   "fetched",
	model.FilterUploaded:  "uploaded",
	model.FilterFailed:    "failed",
	model.FilterCancelled: "cancelled",
}

type column struct {
	title string
	width int
}

var columns = []column{
	{"ID", 6},
	{"TARGET", 7},
	{"POSITION", 10},
	{"KEY", 14},
	{"KEY ID", 7},
	{"STATUS", 16},
	{"TIME", 20},
	{"", 8},
}

func (a *App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("plotterctl"))
	b.WriteString("  ")
	b.WriteString(mutedStyle.Render(a.pageLabel()))
	b.WriteString("\n\n")

	listHeight := a.height - 10
	if listHeight < 3 {
		listHeight = 3
	}
	b.WriteString(a.renderTable(listHeight))
	b.WriteString("\n")
	b.WriteString(a.renderNav())
	b.WriteString("\n")

	switch a.mode {
	case modeConfirm:
		b.WriteString("\n")
		b.WriteString(warningStyle.Render(fmt.Sprintf("Cancel command %d? (y/n)", a.confirmID)))
		b.WriteString("\n")
	case modeFilter:
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("Filter: "))
		b.WriteString(a.filterInput.View())
		b.WriteString("\n")
	case modeSearch:
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("Find: "))
		b.WriteString(a.searchInput.View())
		b.WriteString("\n")
	case modeQueue:
		b.WriteString("\n")
		b.WriteString(a.renderForm())
	}

	b.WriteString("\n")
	if a.alert != "" {
		b.WriteString(errorStyle.Render(a.alert))
		b.WriteString("\n")
	}
	if a.status != "" {
		b.WriteString(successStyle.Render(a.status))
		b.WriteString("\n")
	}

	b.WriteString(a.renderHelp())

	return appStyle.Render(b.String())
}

func (a *App) pageLabel() string {
	name, ok := filterNames[a.filter]
	if !ok {
		name = strconv.Itoa(a.filter)
	}
	label := fmt.Sprintf("page %d / %d  •  filter: %s", a.pager.page+1, a.pager.pages, name)
	if a.loading {
		label += "  •  loading..."
	}
	return label
}

// renderTable draws at most height rows, scrolled so the cursor stays visible.
func (a *App) renderTable(height int) string {
	var lines []string

	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = pad(c.title, c.width)
	}
	lines = append(lines, headerStyle.Render(strings.Join(header, " ")))

	if a.loadErr != nil {
		lines = append(lines, errorStyle.Render(loadErrorText))
		return strings.Join(lines, "\n") + "\n"
	}

	if len(a.rows) == 0 {
		lines = append(lines, mutedStyle.Render("No commands on this page."))
		return strings.Join(lines, "\n") + "\n"
	}

	start := 0
	if a.cursor >= height {
		start = a.cursor - height + 1
	}
	end := min(start+height, len(a.rows))

	for i := start; i < end; i++ {
		lines = append(lines, a.renderRow(a.rows[i], i == a.cursor))
	}
	return strings.Join(lines, "\n") + "\n"
}

func (a *App) renderRow(c model.Command, selected bool) string {
	cancel := ""
	if c.Cancellable() {
		cancel = cancelButtonStyle.Render("[cancel]")
	}

	cells := []string{
		strconv.FormatInt(c.ID, 10),
		strconv.FormatInt(c.Target, 10),
		model.Position(c.Position).String(),
		c.KeyName,
		strconv.FormatInt(c.KeyID, 10),
		fmt.Sprintf("%d %s", c.Status, c.Status),
		c.Datetime,
	}
	for i, cell := range cells {
		cells[i] = pad(ansi.Truncate(cell, columns[i].width, "..."), columns[i].width)
	}
	cells[5] = statusStyle(c.Status).Render(cells[5])

	style := normalStyle
	prefix := "  "
	if selected {
		style = selectedStyle
		prefix = "▸ "
	}
	return style.Render(prefix+strings.Join(cells, " ")) + " " + cancel
}

func (a *App) renderNav() string {
	buttons := []struct {
		label   string
		enabled bool
	}{
		{"« first", a.pager.firstEnabled},
		{"‹ prev", a.pager.prevEnabled},
		{"next ›", a.pager.nextEnabled},
		{"last »", a.pager.lastEnabled},
	}

	parts := make([]string, len(buttons))
	for i, btn := range buttons {
		style := disabledStyle
		if btn.enabled {
			style = navStyle
		}
		parts[i] = style.Render(btn.label)
	}
	return strings.Join(parts, "  ")
}

func (a *App) renderForm() string {
	var b strings.Builder

	b.WriteString(labelStyle.Render("Queue Command"))
	b.WriteString("\n\n")

	for i, input := range a.formInputs {
		b.WriteString(labelStyle.Render(formLabels[i] + ": "))
		style := inputStyle
		if i == a.formFocus {
			style = focusedInputStyle
		}
		b.WriteString(style.Width(max(a.width-20, 20)).Render(input.View()))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("tab: next field • enter: queue • esc: back"))
	b.WriteString("\n")

	return b.String()
}

func (a *App) renderHelp() string {
	if a.mode != modeNormal {
		return ""
	}

	keys := []struct{ key, desc string }{
		{"n/p", "page"},
		{"g/G", "first/last"},
		{"c", "cancel"},
		{"f", "filter"},
		{"/", "find"},
		{"a", "queue"},
		{"r", "reload"},
		{"q", "quit"},
	}

	var parts []string
	for _, k := range keys {
		parts = append(parts, helpKeyStyle.Render(k.key)+" "+helpStyle.Render(k.desc))
	}

	return strings.Join(parts, "  ")
}

func statusStyle(s model.Status) lipgloss.Style {
	switch {
	case s == model.StatusPending:
		return pendingStyle
	case s == model.StatusCancelled:
		return cancelledStyle
	case s < 0:
		return errorStyle
	}
	return successStyle
}

func pad(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
