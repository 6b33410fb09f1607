// Package notify pushes a Telegram notification to users who miss a message
// because they have no live session. Users opt in by linking a Telegram chat
// id to their profile; everyone else is silently skipped.
package notify

import (
	"fmt"
	"log"
	"strconv"
	"unicode/utf8"

	"datelink/backend/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const previewLimit = 80

// TelegramNotifier implements chathub.OfflineNotifier via the Bot API.
type TelegramNotifier struct {
	Bot     *tgbotapi.BotAPI
	Storage storage.Storage
}

// NewTelegramNotifier authorizes the bot with the given token.
func NewTelegramNotifier(token string, s storage.Storage) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot auth: %w", err)
	}
	log.Printf("Telegram notifier authorized as %s", bot.Self.UserName)
	return &TelegramNotifier{Bot: bot, Storage: s}, nil
}

// NotifyNewMessage tells the receiver about a message that was not
// live-delivered. Best effort: lookup or send failures are only logged.
func (n *TelegramNotifier) NotifyNewMessage(receiverID, senderID, content string) {
	receiver, err := n.Storage.GetUserByID(receiverID)
	if err != nil {
		log.Printf("Notify: receiver %s lookup failed: %v", receiverID, err)
		return
	}
	if receiver.TelegramChatID == "" {
		return
	}

	chatID, err := strconv.ParseInt(receiver.TelegramChatID, 10, 64)
	if err != nil {
		log.Printf("Notify: bad telegram chat id for %s: %v", receiverID, err)
		return
	}

	senderName := senderID
	if sender, err := n.Storage.GetUserByID(senderID); err == nil {
		senderName = sender.Username
	}

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("💌 New message from %s:\n%s", senderName, previewOf(content)))
	if _, err := n.Bot.Send(msg); err != nil {
		log.Printf("Notify: telegram send to %s failed: %v", receiverID, err)
	}
}

// previewOf shortens the message body for the notification, cutting on a rune
// boundary so a multi-byte character at the limit is dropped, not split.
func previewOf(content string) string {
	if len(content) <= previewLimit {
		return content
	}
	cut := previewLimit
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + "…"
}
