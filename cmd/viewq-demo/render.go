package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/AnatoleLucet/viewq"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	rootStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("111"))
	itemStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	fadedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	metaStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	panelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type screen struct {
	tree      *viewq.TreeNode
	totals    viewq.FrameStats
	last      viewq.FrameStats
	roots     int
	views     int
	animating bool
	profile   map[string]int64
	width     int
}

func renderScreen(s screen) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("viewq demo"))
	b.WriteString("\n\n")
	b.WriteString(panelStyle.Render(renderTree(s.tree)))
	b.WriteString("\n")
	b.WriteString(renderStats(s.totals, s.roots, s.views))
	b.WriteString("\n")

	anim := "on"
	if !s.animating {
		anim = "off"
	}
	b.WriteString(metaStyle.Render(fmt.Sprintf("animating %d  layout animation %s", s.last.Animating, anim)))
	b.WriteString("\n")

	if len(s.profile) > 0 {
		b.WriteString(renderProfile(s.profile))
		b.WriteString("\n")
	}
	b.WriteString(metaStyle.Render("p profile next batch  a toggle animation  q quit"))

	if s.width > 0 {
		return lipgloss.NewStyle().MaxWidth(s.width).Render(b.String())
	}
	return b.String()
}

// renderTree draws a registry snapshot, one view per line.
func renderTree(node *viewq.TreeNode) string {
	lines := make([]string, 0)
	walk(node, 0, &lines)
	return strings.Join(lines, "\n")
}

func walk(node *viewq.TreeNode, depth int, lines *[]string) {
	indent := strings.Repeat("  ", depth)
	f := node.Frame
	geometry := metaStyle.Render(fmt.Sprintf("(%d,%d %dx%d)", f.X, f.Y, f.Width, f.Height))

	var label string
	switch {
	case depth == 0:
		label = rootStyle.Render(fmt.Sprintf("%s #%d", node.TypeName, node.Tag))
	case node.Props["label"] != nil:
		style := itemStyle
		if o, ok := node.Props["opacity"].(float64); ok && o < 0.5 {
			style = fadedStyle
		}
		label = style.Render(fmt.Sprintf("%s #%d %v", node.TypeName, node.Tag, node.Props["label"]))
	default:
		label = itemStyle.Render(fmt.Sprintf("%s #%d", node.TypeName, node.Tag))
	}

	*lines = append(*lines, indent+label+" "+geometry)
	for _, child := range node.Children {
		walk(child, depth+1, lines)
	}
}

func renderStats(totals viewq.FrameStats, roots, views int) string {
	return metaStyle.Render(fmt.Sprintf(
		"batches %d  applied %d  failed %d  roots %d  views %d",
		totals.Batches, totals.Applied, totals.Failed, roots, views,
	))
}

func renderProfile(counters map[string]int64) string {
	keys := slices.Sorted(maps.Keys(counters))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counters[k]))
	}
	return metaStyle.Render("profile " + strings.Join(parts, " "))
}
