// internal/infra/telegram/conversation_handlers.go
package telegram

import (
	"context"

	"phq9_screening_bot/internal/app"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterConversationHandlers routes every plain text message through the dialogue.
func RegisterConversationHandlers(
	ctx context.Context,
	b *telebot.Bot,
	adapter *TelebotAdapter,
	conversations *app.ConversationService,
	baseLogger *logrus.Entry,
) {
	textLogger := baseLogger.WithField("handler_group", "conversation")

	b.Handle(telebot.OnText, func(c telebot.Context) error {
		chatID := c.Chat().ID
		msgs, err := conversations.HandleMessage(ctx, ConversationID(chatID), c.Text())
		if err != nil {
			textLogger.WithError(err).WithField("chat_id", chatID).Error("Failed to handle message")
			return c.Send(apologyText)
		}
		if len(msgs) == 0 {
			return nil
		}
		return adapter.Deliver(c.Chat(), msgs)
	})
}
