package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/saravenpi/e63/internal/models"
)

func presence(conv models.Conversation) string {
	if conv.Online {
		return onlineStyle.Render("в сети")
	}
	return helpStyle.Render("был(а) недавно")
}

func renderChatHeader(conv models.Conversation) string {
	return selectedStyle.Render(fmt.Sprintf("💬 %s", conv.Name)) + "  " + presence(conv)
}

// renderMessages lays out a conversation for the message viewport. Own
// messages are right aligned.
func renderMessages(conv models.Conversation, messages []models.Message, width int) string {
	if len(messages) == 0 {
		return normalStyle.Render("  Сообщений пока нет.")
	}

	wrapWidth := width
	if wrapWidth <= 0 {
		wrapWidth = 80
	}
	textWidth := wrapWidth - 10
	if textWidth < 10 {
		textWidth = 10
	}
	right := lipgloss.NewStyle().Align(lipgloss.Right).Width(wrapWidth)

	var content strings.Builder
	for i, message := range messages {
		if i > 0 {
			content.WriteString("\n")
		}

		sender := conv.Name
		if message.Mine {
			sender = "Вы"
		}
		header := messageHeaderStyle.Render(fmt.Sprintf("%s • %s", sender, message.Time))

		var body []string
		switch message.Kind {
		case models.KindImage:
			body = append(body, renderImage(message))
		default:
			wrapped := wordwrap.String(message.Text, textWidth)
			if message.Mine {
				body = append(body, messageFromMeStyle.Render(wrapped))
			} else {
				body = append(body, messageFromOtherStyle.Render(wrapped))
			}
		}

		if message.Mine {
			content.WriteString(right.Render(header) + "\n")
			for _, b := range body {
				content.WriteString(right.Render(b) + "\n")
			}
		} else {
			content.WriteString(header + "\n")
			for _, b := range body {
				content.WriteString(b + "\n")
			}
		}
	}

	return content.String()
}

func renderImage(message models.Message) string {
	if message.Image == nil {
		return messageHeaderStyle.Render(fmt.Sprintf("📎 [Фото: %s]", message.Text))
	}
	caption := messageHeaderStyle.Render(fmt.Sprintf("📎 %s (%d×%d, %s)",
		message.Text, message.Image.Width, message.Image.Height, message.Image.MIME))
	if message.Image.Preview == "" {
		return caption
	}
	return message.Image.Preview + "\n" + caption
}
