// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"context"
	"strconv"
	"strings"

	"phq9_screening_bot/internal/app"
	"phq9_screening_bot/internal/domain/dialogue"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const apologyText = "Sorry, something went wrong on my side. Please try again in a moment. If you need immediate help, please contact emergency services."

// ConversationID namespaces Telegram chats within the session store.
func ConversationID(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}

func RegisterBotCommands(
	ctx context.Context,
	b *telebot.Bot,
	adapter *TelebotAdapter,
	conversations *app.ConversationService,
	baseLogger *logrus.Entry,
) {
	commandLogger := baseLogger.WithField("handler_group", "commands")

	b.Handle("/start", func(c telebot.Context) error {
		logCtx := commandLogger.WithFields(logrus.Fields{"command": "/start", "chat_id": c.Chat().ID})
		logCtx.Info("Processing /start command")

		msgs, err := conversations.Start(ctx, ConversationID(c.Chat().ID))
		if err != nil {
			logCtx.WithError(err).Error("Failed to start conversation")
			return c.Send(apologyText)
		}
		return adapter.Deliver(c.Chat(), msgs)
	})

	b.Handle("/screen", func(c telebot.Context) error {
		logCtx := commandLogger.WithFields(logrus.Fields{"command": "/screen", "chat_id": c.Chat().ID})
		logCtx.Info("Processing /screen command")

		msgs, err := conversations.StartScreening(ctx, ConversationID(c.Chat().ID))
		if err != nil {
			logCtx.WithError(err).Error("Failed to start screening")
			return c.Send(apologyText)
		}
		return adapter.Deliver(c.Chat(), msgs)
	})

	b.Handle("/help", func(c telebot.Context) error {
		commandLogger.WithFields(logrus.Fields{"command": "/help", "chat_id": c.Chat().ID}).Info("Processing /help command")

		var helpText strings.Builder
		helpText.WriteString("I can walk you through a brief nine-question mental health screening.\n\n")
		helpText.WriteString("/start - begin a new conversation\n")
		helpText.WriteString("/screen - start the screening right away (after declining you can also type '")
		helpText.WriteString(dialogue.StartScreeningCommand)
		helpText.WriteString("')\n")
		helpText.WriteString("/help - show this message\n\n")
		helpText.WriteString("I am not a replacement for professional medical advice.")
		return c.Send(helpText.String())
	})
}
