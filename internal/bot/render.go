package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xaenox/routine-bot/internal/models"
)

// render turns a reply into a Telegram message for chatID.
func render(chatID int64, reply models.Outbound) tgbotapi.MessageConfig {
	switch r := reply.(type) {
	case models.QuickReply:
		msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("*%s*\n%s", escapeMarkdown(r.Title), escapeMarkdown(r.Body)))
		msg.ParseMode = tgbotapi.ModeMarkdownV2
		if len(r.Options) > 0 {
			rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(r.Options))
			for _, opt := range r.Options {
				rows = append(rows, tgbotapi.NewInlineKeyboardRow(
					tgbotapi.NewInlineKeyboardButtonData(opt.Label, opt.Text),
				))
			}
			msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
		}
		return msg
	case models.TemplatePrompt:
		var sb strings.Builder
		sb.WriteString("*" + escapeMarkdown(r.Title) + "*")
		for _, line := range r.Lines {
			sb.WriteString("\n" + escapeMarkdown(line))
		}
		msg := tgbotapi.NewMessage(chatID, sb.String())
		msg.ParseMode = tgbotapi.ModeMarkdownV2
		return msg
	case models.Text:
		return tgbotapi.NewMessage(chatID, r.Body)
	default:
		return tgbotapi.NewMessage(chatID, fmt.Sprint(reply))
	}
}

func escapeMarkdown(text string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, text)
}
