package notify

import (
	"context"
	"fmt"

	tele "gopkg.in/telebot.v3"

	"github.com/markaz-center/markazbot/internal/logger"
)

// TelegramNotifier sends templated messages through the Telegram Bot API.
// It is send-only; the conversational bot owns the update loop.
type TelegramNotifier struct {
	bot *tele.Bot
}

func NewTelegramNotifier(token string) (*TelegramNotifier, error) {
	// No poller: this bot only sends. Token verification still happens here.
	bot, err := tele.NewBot(tele.Settings{Token: token})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot}, nil
}

func (n *TelegramNotifier) Send(ctx context.Context, recipientID int64, kind TemplateKind, params map[string]string) error {
	text := renderTemplate(kind, params)

	done := make(chan error, 1)
	go func() {
		_, err := n.bot.Send(&tele.User{ID: recipientID}, text, tele.ModeMarkdown)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.Log.WithFields(map[string]interface{}{
				"recipient": recipientID,
				"template":  kind,
			}).Warnf("telegram send failed: %v", err)
			return err
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func renderTemplate(kind TemplateKind, params map[string]string) string {
	switch kind {
	case TemplateCourseReminder:
		return fmt.Sprintf(
			"🔔 *Reminder*\n\nYour course *%s* starts at %s.\nSee you there!\n\n🎓 Markaz Training Center",
			params["course_name"], params["starts_at"],
		)
	case TemplateAdminAlert:
		return fmt.Sprintf("🚨 *[%s]* scheduling engine\n\n%s", params["severity"], params["message"])
	default:
		return params["message"]
	}
}
