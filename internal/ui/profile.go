package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/saravenpi/e63/internal/models"
)

func renderProfile(p models.Profile, width int) string {
	card := cardStyle.Width(cardWidth(width))

	header := avatarStyle.Render(models.Initial(p.Name)) + " " + selectedStyle.Render(p.Name)
	lines := []string{
		header,
		"",
		helpStyle.Render("Телефон") + "  " + normalStyle.Render(p.Phone),
		helpStyle.Render("Имя пользователя") + "  " + statusStyle.Render(p.Username),
	}
	if p.About != "" {
		lines = append(lines, helpStyle.Render("О себе")+"  "+normalStyle.Render(p.About))
	}

	s := card.Render(strings.Join(lines, "\n"))
	if len(p.Actions) > 0 {
		actions := make([]string, len(p.Actions))
		for i, action := range p.Actions {
			actions[i] = normalStyle.Render("› " + action)
		}
		s = lipgloss.JoinVertical(lipgloss.Left, s, card.Render(strings.Join(actions, "\n")))
	}
	return s
}

func renderSettings(sections []models.SettingsSection, width int) string {
	w := cardWidth(width)
	card := cardStyle.Width(w)

	cards := make([]string, 0, len(sections))
	for _, section := range sections {
		lines := []string{inputStyle.Render(section.Title)}
		for _, item := range section.Items {
			label := normalStyle.Render(item.Label)
			value := statusStyle.Render(item.Value)
			// Width includes the horizontal padding but not the border.
			gap := w - 2 - lipgloss.Width(label) - lipgloss.Width(value)
			if gap < 1 {
				gap = 1
			}
			lines = append(lines, label+strings.Repeat(" ", gap)+value)
		}
		cards = append(cards, card.Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func cardWidth(width int) int {
	w := width - 2
	if w > 60 {
		w = 60
	}
	if w < 20 {
		w = 20
	}
	return w
}
