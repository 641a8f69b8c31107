package messenger

import "context"

// Messenger is the chat transport the ledger renders into. All texts are HTML.
type Messenger interface {
	Send(ctx context.Context, chatID int64, text string) (int64, error)
	Pin(ctx context.Context, chatID, messageID int64) error
	Unpin(ctx context.Context, chatID, messageID int64) error
	Edit(ctx context.Context, chatID, messageID int64, text string) error
	Reply(ctx context.Context, chatID, replyTo int64, text string) error
}
