// Package telegram notifies staff about order events in a Telegram chat.
package telegram

import (
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"salgados/internal/audit"
)

// Sender is satisfied by *tgbotapi.BotAPI.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier is an audit processor that forwards order events to one chat.
// Other records are ignored.
type Notifier struct {
	bot    Sender
	chatID int64
}

func NewNotifier(token string, chatID int64) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	log.Printf("Authorized on account %s", bot.Self.UserName)
	return NewNotifierFrom(bot, chatID), nil
}

func NewNotifierFrom(bot Sender, chatID int64) *Notifier {
	return &Notifier{bot: bot, chatID: chatID}
}

func (n *Notifier) Process(batch []audit.Record) error {
	var lines []string
	for _, rec := range batch {
		if line, ok := describe(rec); ok {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil
	}
	msg := tgbotapi.NewMessage(n.chatID, strings.Join(lines, "\n"))
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func describe(rec audit.Record) (string, bool) {
	switch rec.Action {
	case "place_order":
		return "🆕 Novo pedido " + rec.Message, true
	case "advance_order":
		return fmt.Sprintf("📦 %s (%s → %s)", rec.Message, rec.OldState, rec.NewState), true
	case "reject_order":
		return "❌ " + rec.Message, true
	}
	return "", false
}
