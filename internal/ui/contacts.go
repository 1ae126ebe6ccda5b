package ui

import (
	"strings"

	"github.com/saravenpi/e63/internal/models"
)

func renderContactRow(contact models.Contact, selected bool) string {
	cursor := "  "
	nameStyle := normalStyle
	if selected {
		cursor = selectedStyle.Render("▸ ")
		nameStyle = selectedStyle
	}

	title := cursor + avatarStyle.Render(models.Initial(contact.Name)) + " " + nameStyle.Render(contact.Name)

	status := helpStyle.Render(contact.Status)
	if contact.Online {
		status = onlineStyle.Render(contact.Status)
	}
	return title + "\n" + "      " + status
}

func (a *App) renderContacts(visible int) string {
	contacts := a.ctrl.FilteredContacts()
	if len(contacts) == 0 {
		return normalStyle.Render("  Ничего не найдено.")
	}

	offset := listOffset(a.ctrl.Highlight(), len(contacts), visible)
	var rows []string
	for i := offset; i < len(contacts) && i < offset+visible; i++ {
		rows = append(rows, renderContactRow(contacts[i], i == a.ctrl.Highlight()))
	}
	return strings.Join(rows, "\n")
}
