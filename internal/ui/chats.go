package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/saravenpi/e63/internal/models"
)

// rowHeight is the number of lines every list row takes.
const rowHeight = 2

// lastMessage is the latest activity in a conversation since start-up.
type lastMessage struct {
	text string
	time string
}

func chatPreview(msg models.Message) lastMessage {
	text := msg.Text
	if msg.Kind == models.KindImage {
		text = "Фото: " + msg.Text
	}
	return lastMessage{text: text, time: msg.Time}
}

func renderChatRow(conv models.Conversation, latest *lastMessage, selected bool, width int) string {
	preview, at := conv.LastMessage, conv.Time
	if latest != nil {
		preview, at = latest.text, latest.time
	}

	cursor := "  "
	nameStyle := normalStyle
	if selected {
		cursor = selectedStyle.Render("▸ ")
		nameStyle = selectedStyle
	}

	name := nameStyle.Render(conv.Name)
	if conv.Online {
		name += onlineStyle.Render(" ●")
	}

	right := messageHeaderStyle.Render(at)
	if conv.Unread > 0 {
		right = unreadStyle.Render(fmt.Sprintf("%d", conv.Unread)) + " " + right
	}

	gap := width - lipgloss.Width(cursor) - lipgloss.Width(name) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	title := cursor + name + strings.Repeat(" ", gap) + right

	previewWidth := width - 4
	if previewWidth < 1 {
		previewWidth = 1
	}
	desc := "  " + helpStyle.Render(truncate.StringWithTail(preview, uint(previewWidth), "…"))

	return title + "\n" + desc
}

func (a *App) renderChats(visible int) string {
	convs := a.ctrl.FilteredConversations()
	if len(convs) == 0 {
		return normalStyle.Render("  Ничего не найдено.")
	}

	offset := listOffset(a.ctrl.Highlight(), len(convs), visible)
	var rows []string
	for i := offset; i < len(convs) && i < offset+visible; i++ {
		var latest *lastMessage
		if lm, ok := a.latest[convs[i].ID]; ok {
			latest = &lm
		}
		rows = append(rows, renderChatRow(convs[i], latest, i == a.ctrl.Highlight(), a.width))
	}
	return strings.Join(rows, "\n")
}

// listOffset is the index of the first visible row that keeps the
// highlighted row on screen.
func listOffset(highlight, n, visible int) int {
	if visible <= 0 || n <= visible {
		return 0
	}
	offset := highlight - visible + 1
	if offset < 0 {
		offset = 0
	}
	if offset > n-visible {
		offset = n - visible
	}
	return offset
}
