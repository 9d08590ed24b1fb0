package telegram

import (
	"fmt"
	"strings"

	"go-joblog-automation/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of the bot API the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api    Sender
	chatID int64
}

func NewBot(token string, chatID int64) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}
	return NewBotWithSender(api, chatID), nil
}

func NewBotWithSender(api Sender, chatID int64) *Bot {
	return &Bot{api: api, chatID: chatID}
}

var markdownEscaper = strings.NewReplacer(
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
	")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
	"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
	"}", "\\}", ".", "\\.", "!", "\\!",
)

func escapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

// FormatJob renders one posting as a MarkdownV2 message body.
func FormatJob(job models.JobRecord) string {
	var b strings.Builder
	title := job.Title
	if title == "" {
		title = "Untitled"
	}
	fmt.Fprintf(&b, "💼 *%s*\n", escapeMarkdown(title))

	company := job.Company
	if company == "" {
		company = "N/A"
	}
	if job.CompanyLink != "" {
		fmt.Fprintf(&b, "🏢 [%s](%s)\n", escapeMarkdown(company), escapeLink(job.CompanyLink))
	} else {
		fmt.Fprintf(&b, "🏢 %s\n", escapeMarkdown(company))
	}

	posted := job.DateText
	if posted == "" {
		posted = job.Date
	}
	if posted != "" {
		fmt.Fprintf(&b, "📅 %s\n", escapeMarkdown(posted))
	}
	if job.Link != "" {
		fmt.Fprintf(&b, "🔗 [View Job](%s)\n", escapeLink(job.Link))
	}
	return b.String()
}

// inside (...) only ")" and "\" need escaping
func escapeLink(u string) string {
	return strings.NewReplacer(`\`, `\\`, ")", `\)`).Replace(u)
}

func (b *Bot) SendJob(job models.JobRecord) error {
	msg := tgbotapi.NewMessage(b.chatID, FormatJob(job))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true
	if job.Link != "" {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL("🔗 View Job", job.Link),
			),
		)
	}

	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) SendError(err error) error {
	msg := tgbotapi.NewMessage(b.chatID, fmt.Sprintf("❌ Error: %v", err))
	_, sendErr := b.api.Send(msg)
	return sendErr
}

func (b *Bot) SendStatus(message string) error {
	msg := tgbotapi.NewMessage(b.chatID, message)
	_, err := b.api.Send(msg)
	return err
}
