package messenger

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/qx/ledger_robot/api/internal/types"
)

type Telegram struct {
	bot *tgbotapi.BotAPI
}

// NewTelegram connects to the Bot API; every request is bounded by timeout.
// The long-poll request needs more than timeout, so pollTimeout is added on top.
func NewTelegram(token string, debug bool, timeout time.Duration, pollTimeout time.Duration) (*Telegram, error) {
	client := &http.Client{Timeout: timeout + pollTimeout}
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, err
	}
	bot.Debug = debug

	return &Telegram{bot: bot}, nil
}

func (t *Telegram) Bot() *tgbotapi.BotAPI {
	return t.bot
}

func (t *Telegram) Send(ctx context.Context, chatID int64, text string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	sent, err := t.bot.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("%w: send: %v", types.ErrTransport, err)
	}
	return int64(sent.MessageID), nil
}

func (t *Telegram) Pin(ctx context.Context, chatID, messageID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pin := tgbotapi.PinChatMessageConfig{
		ChatID:    chatID,
		MessageID: int(messageID),
	}
	if _, err := t.bot.Request(pin); err != nil {
		return fmt.Errorf("%w: pin: %v", types.ErrTransport, err)
	}
	return nil
}

func (t *Telegram) Unpin(ctx context.Context, chatID, messageID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	unpin := tgbotapi.UnpinChatMessageConfig{
		ChatID:    chatID,
		MessageID: int(messageID),
	}
	if _, err := t.bot.Request(unpin); err != nil {
		return fmt.Errorf("%w: unpin: %v", types.ErrTransport, err)
	}
	return nil
}

func (t *Telegram) Edit(ctx context.Context, chatID, messageID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	edit := tgbotapi.NewEditMessageText(chatID, int(messageID), text)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := t.bot.Send(edit); err != nil {
		return fmt.Errorf("%w: edit: %v", types.ErrTransport, err)
	}
	return nil
}

func (t *Telegram) Reply(ctx context.Context, chatID, replyTo int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyToMessageID = int(replyTo)
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("%w: reply: %v", types.ErrTransport, err)
	}
	return nil
}
