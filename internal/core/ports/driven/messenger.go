package driven

import "context"

// Messenger sends plain-text replies over a chat platform.
type Messenger interface {
	// SendText delivers body to recipient from the given sender account.
	SendText(ctx context.Context, senderID, recipient, body string) error
}
