package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/assetdesk/internal/assets"
)

const maxCellWidth = 24

var assetColumns = []struct {
	title string
	value func(a assets.Asset) string
}{
	{"ID", func(a assets.Asset) string { return strconv.Itoa(a.ID) }},
	{"Serial", func(a assets.Asset) string { return a.SerialNumber }},
	{"Name", func(a assets.Asset) string { return a.Name }},
	{"Category", func(a assets.Asset) string { return a.Category }},
	{"Department", func(a assets.Asset) string { return a.Department }},
	{"Location", func(a assets.Asset) string { return a.Location }},
	{"Recipient", func(a assets.Asset) string { return a.Recipient }},
	{"Created", func(a assets.Asset) string { return a.CreatedAt }},
}

// RenderAssetTable renders one page of the asset list as an aligned table
// followed by a "page x of y" footer.
func RenderAssetTable(page assets.Page) string {
	if len(page.Assets) == 0 {
		return lipgloss.NewStyle().Foreground(MutedColor).Render("No assets found.")
	}

	rows := make([][]string, len(page.Assets))
	widths := make([]int, len(assetColumns))
	for c, col := range assetColumns {
		widths[c] = lipgloss.Width(col.title)
	}
	for r, a := range page.Assets {
		rows[r] = make([]string, len(assetColumns))
		for c, col := range assetColumns {
			cell := truncate(col.value(a), maxCellWidth)
			rows[r][c] = cell
			if w := lipgloss.Width(cell); w > widths[c] {
				widths[c] = w
			}
		}
	}

	var b strings.Builder
	for c, col := range assetColumns {
		b.WriteString(TableHeaderStyle.Render(pad(col.title, widths[c])))
		b.WriteString("  ")
	}
	b.WriteString("\n")
	for _, row := range rows {
		for c, cell := range row {
			b.WriteString(TableCellStyle.Render(pad(cell, widths[c])))
			b.WriteString("  ")
		}
		b.WriteString("\n")
	}
	b.WriteString(lipgloss.NewStyle().Foreground(MutedColor).Render(
		fmt.Sprintf("Page %d of %d, %d assets", page.Page, max(page.Pages, 1), page.Total)))
	return b.String()
}

func pad(s string, width int) string {
	if n := width - lipgloss.Width(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
