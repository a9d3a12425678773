package command

import (
	"context"

	"github.com/mymmrac/telego"
)

// Command is the contract every command module satisfies. OnStart handles a
// direct invocation with a normalized request.
type Command interface {
	Meta() Meta
	OnStart(ctx context.Context, req *Request) error
}

// ReplyHandler is implemented by commands that solicit a follow-up message.
// The dispatcher routes the reply here together with the state the command
// stored when it asked for the follow-up.
type ReplyHandler interface {
	OnReply(ctx context.Context, req *ReplyRequest) error
}

// CallbackHandler is implemented by commands that attach inline keyboards.
// Button presses carrying this command's name in their payload land here.
type CallbackHandler interface {
	OnCallback(ctx context.Context, req *CallbackRequest) error
}

// Event modules run on every inbound message regardless of command matching.
type Event interface {
	Meta() Meta
	OnMessage(ctx context.Context, req *EventRequest) error
}

// MessageRef identifies one sent message for edits and deletes.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// SendOptions tweaks an outbound send or edit. The zero value is plain text
// with no keyboard.
type SendOptions struct {
	ParseMode   string
	ReplyMarkup telego.ReplyMarkup
	Caption     string
}

// Responder is the outbound messaging facade handed to every handler, bound
// to the chat the triggering message came from.
type Responder interface {
	Reply(ctx context.Context, text string, opts *SendOptions) (*telego.Message, error)
	Send(ctx context.Context, text string, opts *SendOptions) (*telego.Message, error)
	EditText(ctx context.Context, ref MessageRef, text string, opts *SendOptions) (*telego.Message, error)
	Delete(ctx context.Context, ref MessageRef) error
	Photo(ctx context.Context, file telego.InputFile, opts *SendOptions) (*telego.Message, error)
	Document(ctx context.Context, file telego.InputFile, opts *SendOptions) (*telego.Message, error)
	Video(ctx context.Context, file telego.InputFile, opts *SendOptions) (*telego.Message, error)
	Audio(ctx context.Context, file telego.InputFile, opts *SendOptions) (*telego.Message, error)
}

// Request is the normalized context for a direct command invocation.
type Request struct {
	Bot      *telego.Bot
	Msg      telego.Message
	Args     []string
	Response Responder

	// Usages sends the command's usage guide to the chat.
	Usages func(ctx context.Context) error

	// Continue registers a pending-reply continuation: the next direct reply
	// to the given bot message resumes this command through OnReply with the
	// supplied state.
	Continue func(sent *telego.Message, state any)
}

// ReplyRequest is the context for a continuation turn. Msg is the user's
// reply; State is whatever the command stored when soliciting it.
type ReplyRequest struct {
	Request
	State any
}

// CallbackRequest is the context for an inline button press.
type CallbackRequest struct {
	Bot       *telego.Bot
	Query     telego.CallbackQuery
	ChatID    int64
	MessageID int
	Args      []string
	Response  Responder
}

// EventRequest is the context passed to event modules.
type EventRequest struct {
	Bot      *telego.Bot
	Msg      telego.Message
	ChatID   int64
	Response Responder
}
