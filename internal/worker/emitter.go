package worker

import "context"

// ResponseEmitter is the downstream half of "response emitter" in spec.md
// §2's data-flow diagram: an external collaborator (the transport, out of
// scope per spec.md §1) that actually delivers text back to a chat.
type ResponseEmitter interface {
	SendText(ctx context.Context, chatID int64, text string) error
}
