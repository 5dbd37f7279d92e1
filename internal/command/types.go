// Package command implements dispatch for the bot's inbound command
// surface (spec.md §4.10, §6): argument parsing, validation, a queue
// capacity guard, and an immediate acknowledgement, with all heavy lifting
// deferred to the workers in internal/worker.
package command

// Input is what the transport (out of scope per spec.md §1) hands the
// dispatcher for one inbound command invocation.
type Input struct {
	ChatID            int64
	UserID            int64
	ChatType          string // "private", "group", "supergroup", ...
	AskerDisplayName  string
	AskerUsername     string
	RawArgs           string // text after the command token, untrimmed
}

// Result is the dispatcher's synchronous response. Ack is sent back to the
// chat immediately; nothing in Result blocks on queued work completing.
type Result struct {
	Ack                   string
	ShowTyping            bool
	InlineAddToChatButton bool
	Err                   error
}

func errResult(ack string, err error) Result {
	return Result{Ack: ack, Err: err}
}

func okResult(ack string) Result {
	return Result{Ack: ack}
}
