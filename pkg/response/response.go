// Package response is the outbound messaging facade. It binds a chat,
// normalizes send options, and rate-limits per chat so a chatty command
// cannot trip the platform's flood control.
package response

import (
	"context"
	"sync"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"golang.org/x/time/rate"

	"github.com/ajirodesu/chaldea/pkg/command"
)

// Telegram's per-chat guidance is one message per second. The limiter allows
// a short burst so multi-message commands feel responsive.
const (
	perChatRate  = rate.Limit(1)
	perChatBurst = 3
)

// Sender is the slice of the platform client the facade uses. *telego.Bot
// satisfies it.
type Sender interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
	EditMessageText(ctx context.Context, params *telego.EditMessageTextParams) (*telego.Message, error)
	DeleteMessage(ctx context.Context, params *telego.DeleteMessageParams) error
	SendPhoto(ctx context.Context, params *telego.SendPhotoParams) (*telego.Message, error)
	SendDocument(ctx context.Context, params *telego.SendDocumentParams) (*telego.Message, error)
	SendVideo(ctx context.Context, params *telego.SendVideoParams) (*telego.Message, error)
	SendAudio(ctx context.Context, params *telego.SendAudioParams) (*telego.Message, error)
}

// Factory hands out chat-bound responders sharing one limiter table, so the
// same chat is throttled consistently across commands and callbacks.
type Factory struct {
	sender Sender

	mu       sync.Mutex
	limiters map[int64]*rate.Limiter
}

func NewFactory(sender Sender) *Factory {
	return &Factory{sender: sender, limiters: make(map[int64]*rate.Limiter)}
}

// For returns a responder bound to the given chat. replyTo, when nonzero, is
// the message Reply targets.
func (f *Factory) For(chatID int64, replyTo int) *Responder {
	return &Responder{factory: f, chatID: chatID, replyTo: replyTo}
}

func (f *Factory) limiter(chatID int64) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	lim, ok := f.limiters[chatID]
	if !ok {
		lim = rate.NewLimiter(perChatRate, perChatBurst)
		f.limiters[chatID] = lim
	}
	return lim
}

// Responder implements command.Responder for one chat.
type Responder struct {
	factory *Factory
	chatID  int64
	replyTo int
}

var _ command.Responder = (*Responder)(nil)

// Reply sends text quoting the triggering message when one is known.
func (r *Responder) Reply(ctx context.Context, text string, opts *command.SendOptions) (*telego.Message, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	params := tu.Message(tu.ID(r.chatID), text)
	if r.replyTo != 0 {
		params.ReplyParameters = &telego.ReplyParameters{MessageID: r.replyTo}
	}
	applyMessageOpts(params, opts)
	return r.factory.sender.SendMessage(ctx, params)
}

// Send sends text to the chat without quoting.
func (r *Responder) Send(ctx context.Context, text string, opts *command.SendOptions) (*telego.Message, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	params := tu.Message(tu.ID(r.chatID), text)
	applyMessageOpts(params, opts)
	return r.factory.sender.SendMessage(ctx, params)
}

func (r *Responder) EditText(ctx context.Context, ref command.MessageRef, text string, opts *command.SendOptions) (*telego.Message, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	params := tu.EditMessageText(tu.ID(ref.ChatID), ref.MessageID, text)
	if opts != nil {
		params.ParseMode = opts.ParseMode
		if markup, ok := opts.ReplyMarkup.(*telego.InlineKeyboardMarkup); ok {
			params.ReplyMarkup = markup
		}
	}
	return r.factory.sender.EditMessageText(ctx, params)
}

// Delete removes a message. Deletes are not throttled; the platform does not
// flood-control them the way it does sends.
func (r *Responder) Delete(ctx context.Context, ref command.MessageRef) error {
	return r.factory.sender.DeleteMessage(ctx, &telego.DeleteMessageParams{
		ChatID:    tu.ID(ref.ChatID),
		MessageID: ref.MessageID,
	})
}

func (r *Responder) Photo(ctx context.Context, file telego.InputFile, opts *command.SendOptions) (*telego.Message, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	params := &telego.SendPhotoParams{ChatID: tu.ID(r.chatID), Photo: file}
	if opts != nil {
		params.Caption = opts.Caption
		params.ParseMode = opts.ParseMode
		params.ReplyMarkup = opts.ReplyMarkup
	}
	return r.factory.sender.SendPhoto(ctx, params)
}

func (r *Responder) Document(ctx context.Context, file telego.InputFile, opts *command.SendOptions) (*telego.Message, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	params := &telego.SendDocumentParams{ChatID: tu.ID(r.chatID), Document: file}
	if opts != nil {
		params.Caption = opts.Caption
		params.ParseMode = opts.ParseMode
		params.ReplyMarkup = opts.ReplyMarkup
	}
	return r.factory.sender.SendDocument(ctx, params)
}

func (r *Responder) Video(ctx context.Context, file telego.InputFile, opts *command.SendOptions) (*telego.Message, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	params := &telego.SendVideoParams{ChatID: tu.ID(r.chatID), Video: file}
	if opts != nil {
		params.Caption = opts.Caption
		params.ParseMode = opts.ParseMode
		params.ReplyMarkup = opts.ReplyMarkup
	}
	return r.factory.sender.SendVideo(ctx, params)
}

func (r *Responder) Audio(ctx context.Context, file telego.InputFile, opts *command.SendOptions) (*telego.Message, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	params := &telego.SendAudioParams{ChatID: tu.ID(r.chatID), Audio: file}
	if opts != nil {
		params.Caption = opts.Caption
		params.ParseMode = opts.ParseMode
		params.ReplyMarkup = opts.ReplyMarkup
	}
	return r.factory.sender.SendAudio(ctx, params)
}

func (r *Responder) wait(ctx context.Context) error {
	return r.factory.limiter(r.chatID).Wait(ctx)
}

func applyMessageOpts(params *telego.SendMessageParams, opts *command.SendOptions) {
	if opts == nil {
		return
	}
	params.ParseMode = opts.ParseMode
	params.ReplyMarkup = opts.ReplyMarkup
}
