package callback

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/mymmrac/telego"

	"github.com/ajirodesu/chaldea/pkg/command"
	"github.com/ajirodesu/chaldea/pkg/logger"
)

// AnswerAPI is the slice of the platform client used to acknowledge button
// presses. *telego.Bot satisfies it.
type AnswerAPI interface {
	AnswerCallbackQuery(ctx context.Context, params *telego.AnswerCallbackQueryParams) error
}

// ResponderFactory builds a chat-bound responder for handler use.
type ResponderFactory func(chatID int64) command.Responder

// Router delivers button presses to the command named in the payload. Every
// query is acknowledged exactly once: commands never answer queries
// themselves, they only edit or send messages.
type Router struct {
	reg        *command.Registry
	api        AnswerAPI
	responders ResponderFactory

	mu     sync.Mutex
	active *Listener
}

func NewRouter(reg *command.Registry, api AnswerAPI, responders ResponderFactory) *Router {
	return &Router{reg: reg, api: api, responders: responders}
}

// Listener is the router's delivery handle. At most one listener is live per
// router; attaching a new one retires the previous, so a restarted update
// loop can never double-deliver.
type Listener struct {
	router *Router
	closed atomic.Bool
}

// Attach retires the current listener, if any, and returns a fresh one.
func (r *Router) Attach() *Listener {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		r.active.closed.Store(true)
	}
	l := &Listener{router: r}
	r.active = l
	return l
}

// Close retires the listener. Queries handed to a closed listener are
// acknowledged and dropped.
func (l *Listener) Close() {
	l.closed.Store(true)

	r := l.router
	r.mu.Lock()
	if r.active == l {
		r.active = nil
	}
	r.mu.Unlock()
}

// Handle routes one callback query. The returned error covers handler and
// transport failures; the query is acknowledged in every path.
func (l *Listener) Handle(ctx context.Context, bot *telego.Bot, query telego.CallbackQuery) error {
	r := l.router
	if l.closed.Load() {
		return r.answer(ctx, query.ID, "")
	}

	payload, err := Decode(query.Data)
	if err != nil {
		logger.DebugCF("callback", "undecodable payload", map[string]any{
			"data": query.Data,
		})
		return r.answer(ctx, query.ID, "This button is not supported.")
	}

	cmd, ok := r.reg.Resolve(payload.Command)
	if !ok {
		return r.answer(ctx, query.ID, "This button is not supported.")
	}
	handler, ok := cmd.(command.CallbackHandler)
	if !ok {
		return r.answer(ctx, query.ID, "This button is not supported.")
	}

	if query.Message == nil || !query.Message.IsAccessible() {
		return r.answer(ctx, query.ID, "That message is no longer available.")
	}
	chatID := query.Message.GetChat().ID
	messageID := query.Message.GetMessageID()

	req := &command.CallbackRequest{
		Bot:       bot,
		Query:     query,
		ChatID:    chatID,
		MessageID: messageID,
		Args:      payload.Args,
		Response:  r.responders(chatID),
	}

	handlerErr := invoke(ctx, handler, req)
	if handlerErr != nil {
		logger.ErrorCF("callback", "handler failed", map[string]any{
			"command": payload.Command,
			"error":   handlerErr.Error(),
		})
		if err := r.answer(ctx, query.ID, "Something went wrong."); err != nil {
			return err
		}
		return handlerErr
	}
	return r.answer(ctx, query.ID, "")
}

// invoke contains handler panics so one bad keyboard cannot take down the
// update loop.
func invoke(ctx context.Context, handler command.CallbackHandler, req *command.CallbackRequest) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("callback handler panic: %v\n%s", rec, debug.Stack())
		}
	}()
	return handler.OnCallback(ctx, req)
}

func (r *Router) answer(ctx context.Context, queryID, text string) error {
	params := &telego.AnswerCallbackQueryParams{CallbackQueryID: queryID}
	if text != "" {
		params.Text = text
		params.ShowAlert = true
	}
	return r.api.AnswerCallbackQuery(ctx, params)
}
