// internal/infra/telegram/client.go
package telegram

import (
	"phq9_screening_bot/internal/domain/dialogue"

	"gopkg.in/telebot.v3"
)

// TelebotAdapter renders dialogue messages as Telegram messages.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// Deliver sends the messages to the recipient in order, stopping at the first failure.
func (tba *TelebotAdapter) Deliver(recipient telebot.Recipient, messages []dialogue.Message) error {
	for _, m := range messages {
		if _, err := tba.bot.Send(recipient, m.Content, SendOptions(m)); err != nil {
			return err
		}
	}
	return nil
}

// SendOptions turns suggested replies into a one-time reply keyboard, one answer per row.
func SendOptions(m dialogue.Message) *telebot.SendOptions {
	opts := &telebot.SendOptions{ParseMode: telebot.ModeDefault}
	if len(m.Replies) == 0 {
		return opts
	}

	markup := &telebot.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
	rows := make([]telebot.Row, 0, len(m.Replies))
	for _, label := range m.Replies {
		rows = append(rows, markup.Row(markup.Text(label)))
	}
	markup.Reply(rows...)
	opts.ReplyMarkup = markup
	return opts
}
