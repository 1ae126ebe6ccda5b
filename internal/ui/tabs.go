package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/saravenpi/e63/internal/models"
)

const tabSeparator = "│"

// tabSegment is the horizontal span a tab occupies in the tab bar.
type tabSegment struct {
	tab        models.Tab
	start, end int
}

func tabSegments() []tabSegment {
	segments := make([]tabSegment, 0, len(models.Tabs))
	x := 0
	for i, tab := range models.Tabs {
		if i > 0 {
			x += lipgloss.Width(tabSeparator)
		}
		// Both styles share the same padding, so the width does not depend on
		// which tab is active.
		w := lipgloss.Width(tabStyle.Render(tab.Title()))
		segments = append(segments, tabSegment{tab: tab, start: x, end: x + w})
		x += w
	}
	return segments
}

// tabAt returns the tab under column x of the tab bar.
func tabAt(x int) (models.Tab, bool) {
	for _, seg := range tabSegments() {
		if x >= seg.start && x < seg.end {
			return seg.tab, true
		}
	}
	return 0, false
}

func renderTabBar(active models.Tab) string {
	parts := make([]string, 0, len(models.Tabs))
	for _, tab := range models.Tabs {
		if tab == active {
			parts = append(parts, activeTabStyle.Render(tab.Title()))
		} else {
			parts = append(parts, tabStyle.Render(tab.Title()))
		}
	}
	return strings.Join(parts, helpStyle.Render(tabSeparator))
}
