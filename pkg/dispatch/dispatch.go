// Package dispatch turns inbound messages into command invocations. One
// dispatcher serves one bot instance; a fleet of instances splits group
// traffic by chat id so every group message is handled exactly once.
package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mymmrac/telego"

	"github.com/ajirodesu/chaldea/pkg/access"
	"github.com/ajirodesu/chaldea/pkg/command"
	"github.com/ajirodesu/chaldea/pkg/config"
	"github.com/ajirodesu/chaldea/pkg/cooldown"
	"github.com/ajirodesu/chaldea/pkg/logger"
	"github.com/ajirodesu/chaldea/pkg/pending"
	"github.com/ajirodesu/chaldea/pkg/response"
	"github.com/ajirodesu/chaldea/pkg/shard"
)

// Options wires one dispatcher. ShardIndex and ShardTotal describe this
// instance's slot in the fleet; BotUsername strips "@BotName" suffixes from
// command words in group chats.
type Options struct {
	Registry    *command.Registry
	Store       *config.Store
	Gate        *access.Gate
	Cooldowns   *cooldown.Store
	Pending     *pending.Store
	Responders  *response.Factory
	ShardIndex  int
	ShardTotal  int
	BotUsername string
}

type Dispatcher struct {
	reg   *command.Registry
	store *config.Store
	gate  *access.Gate
	cool  *cooldown.Store
	pend  *pending.Store
	resp  *response.Factory

	shardIndex int
	shardTotal int
	botName    string
}

func New(opts Options) *Dispatcher {
	return &Dispatcher{
		reg:        opts.Registry,
		store:      opts.Store,
		gate:       opts.Gate,
		cool:       opts.Cooldowns,
		pend:       opts.Pending,
		resp:       opts.Responders,
		shardIndex: opts.ShardIndex,
		shardTotal: opts.ShardTotal,
		botName:    strings.ToLower(strings.TrimPrefix(opts.BotUsername, "@")),
	}
}

// HandleMessage runs one inbound message through the full pipeline: shard
// filter, event fan-out, reply continuations, command resolution, gates,
// invocation. Handler failures are contained here and never propagate to the
// update loop.
func (d *Dispatcher) HandleMessage(ctx context.Context, bot *telego.Bot, msg telego.Message) {
	chat := msg.Chat
	private := chat.Type == telego.ChatTypePrivate

	// Private chats bypass sharding so every instance answers its own DMs.
	if !private && !shard.Owns(chat.ID, d.shardTotal, d.shardIndex) {
		return
	}

	trace := uuid.NewString()
	d.runEvents(ctx, bot, msg, trace)

	if msg.From == nil {
		return
	}
	userID := strconv.FormatInt(msg.From.ID, 10)

	settings, err := d.store.Settings()
	if err != nil {
		logger.ErrorCF("dispatch", "settings unavailable", map[string]any{
			"trace": trace,
			"error": err.Error(),
		})
		return
	}

	// A direct reply to one of our prompts resumes the waiting command and
	// never goes through command parsing.
	if d.resumeContinuation(ctx, bot, msg, settings.Prefixes(), trace) {
		return
	}

	tokens := strings.Fields(messageText(msg))
	if len(tokens) == 0 {
		return
	}

	word := d.stripMention(tokens[0])
	prefixes := settings.Prefixes()
	cmd, invoked, resolved := d.resolve(word, prefixes)

	// Maintenance mode blocks anything command-like from non-owners, even
	// words that match no command, while plain chatter passes through.
	if settings.OwnerOnly && !settings.IsOwner(userID) {
		if resolved || hasPrefix(word, prefixes) {
			d.notify(ctx, d.resp.For(chat.ID, msg.MessageID),
				"The bot is under maintenance. Please try again later.", trace)
		}
		return
	}
	if !resolved {
		return
	}
	meta := cmd.Meta()

	role, roleErr := d.gate.ResolveRole(ctx, userID, chat)
	if roleErr != nil {
		logger.WarnCF("dispatch", "role resolution degraded", map[string]any{
			"trace": trace,
			"user":  userID,
			"error": roleErr.Error(),
		})
	}

	responder := d.resp.For(chat.ID, msg.MessageID)

	if remaining := d.cool.Check(meta.Name, userID); remaining > 0 {
		d.notify(ctx, responder,
			fmt.Sprintf("Please wait %d more second(s) before using %s again.",
				int(remaining.Round(time.Second).Seconds()), invoked), trace)
		return
	}

	if !access.Check(meta.Access, role) {
		d.notify(ctx, responder,
			fmt.Sprintf("You don't have permission to use %s. Required level: %s.", invoked, meta.Access), trace)
		return
	}

	d.cool.Touch(meta.Name, userID, meta.Cooldown)

	req := &command.Request{
		Bot:      bot,
		Msg:      msg,
		Args:     tokens[1:],
		Response: responder,
		Usages: func(ctx context.Context) error {
			_, err := responder.Reply(ctx, command.FormatUsage(meta, settings.Prefixes()[0]), nil)
			return err
		},
		Continue: func(sent *telego.Message, state any) {
			if sent == nil {
				return
			}
			d.pend.Put(sent.Chat.ID, sent.MessageID, meta.Name, state)
		},
	}

	logger.InfoCF("dispatch", "invoking command", map[string]any{
		"trace":   trace,
		"command": meta.Name,
		"chat":    chat.ID,
		"user":    userID,
	})
	if err := invokeStart(ctx, cmd, req); err != nil {
		logger.ErrorCF("dispatch", "command failed", map[string]any{
			"trace":   trace,
			"command": meta.Name,
			"error":   err.Error(),
		})
		d.notify(ctx, responder, "Something went wrong running that command.", trace)
	}
}

// resolve matches a message word to a command. A bare registered name wins
// first; otherwise each configured prefix is tried in order.
func (d *Dispatcher) resolve(word string, prefixes []string) (command.Command, string, bool) {
	lower := strings.ToLower(word)
	if cmd, ok := d.reg.Resolve(lower); ok {
		return cmd, lower, true
	}
	for _, prefix := range prefixes {
		if prefix == "" || !strings.HasPrefix(lower, strings.ToLower(prefix)) {
			continue
		}
		stripped := lower[len(prefix):]
		if cmd, ok := d.reg.Resolve(stripped); ok {
			return cmd, word, true
		}
	}
	return nil, "", false
}

// messageText is the dispatchable text of a message: the caption stands in
// when the text is empty, so photo captions can carry commands and replies.
func messageText(msg telego.Message) string {
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}

func hasPrefix(word string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(word, p) {
			return true
		}
	}
	return false
}

// stripMention drops a trailing @BotName from the command word so
// "/help@MyBot" works in groups.
func (d *Dispatcher) stripMention(word string) string {
	at := strings.LastIndex(word, "@")
	if at <= 0 || d.botName == "" {
		return word
	}
	if strings.ToLower(word[at+1:]) == d.botName {
		return word[:at]
	}
	return word
}

// resumeContinuation consumes a stored reply continuation if this message
// directly replies to one of our prompts. Returns true when the message was
// consumed by a continuation, handled or not.
func (d *Dispatcher) resumeContinuation(ctx context.Context, bot *telego.Bot, msg telego.Message, prefixes []string, trace string) bool {
	if msg.ReplyToMessage == nil {
		return false
	}
	cont, ok := d.pend.Consume(msg.Chat.ID, msg.ReplyToMessage.MessageID)
	if !ok {
		return false
	}

	cmd, ok := d.reg.Get(cont.Command)
	if !ok {
		// Command unloaded while the prompt was outstanding.
		return true
	}
	handler, ok := cmd.(command.ReplyHandler)
	if !ok {
		return true
	}

	responder := d.resp.For(msg.Chat.ID, msg.MessageID)
	meta := cmd.Meta()
	req := &command.ReplyRequest{
		Request: command.Request{
			Bot:      bot,
			Msg:      msg,
			Args:     strings.Fields(messageText(msg)),
			Response: responder,
			Continue: func(sent *telego.Message, state any) {
				if sent == nil {
					return
				}
				d.pend.Put(sent.Chat.ID, sent.MessageID, meta.Name, state)
			},
		},
		State: cont.State,
	}
	req.Usages = func(ctx context.Context) error {
		_, err := responder.Reply(ctx, command.FormatUsage(meta, prefixes[0]), nil)
		return err
	}

	if err := invokeReply(ctx, handler, req); err != nil {
		logger.ErrorCF("dispatch", "continuation failed", map[string]any{
			"trace":   trace,
			"command": cont.Command,
			"error":   err.Error(),
		})
		d.notify(ctx, responder, "Something went wrong handling that reply.", trace)
	}
	return true
}

// runEvents fans the message out to every event module in registration
// order. Event failures are logged and never block command handling.
func (d *Dispatcher) runEvents(ctx context.Context, bot *telego.Bot, msg telego.Message, trace string) {
	for _, ev := range d.reg.Events() {
		req := &command.EventRequest{
			Bot:      bot,
			Msg:      msg,
			ChatID:   msg.Chat.ID,
			Response: d.resp.For(msg.Chat.ID, 0),
		}
		if err := invokeEvent(ctx, ev, req); err != nil {
			logger.WarnCF("dispatch", "event failed", map[string]any{
				"trace": trace,
				"event": ev.Meta().Name,
				"error": err.Error(),
			})
		}
	}
}

func (d *Dispatcher) notify(ctx context.Context, responder command.Responder, text, trace string) {
	if _, err := responder.Reply(ctx, text, nil); err != nil {
		logger.WarnCF("dispatch", "notice send failed", map[string]any{
			"trace": trace,
			"error": err.Error(),
		})
	}
}

func invokeStart(ctx context.Context, cmd command.Command, req *command.Request) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("command panic: %v\n%s", rec, debug.Stack())
		}
	}()
	return cmd.OnStart(ctx, req)
}

func invokeReply(ctx context.Context, handler command.ReplyHandler, req *command.ReplyRequest) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("continuation panic: %v\n%s", rec, debug.Stack())
		}
	}()
	return handler.OnReply(ctx, req)
}

func invokeEvent(ctx context.Context, ev command.Event, req *command.EventRequest) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("event panic: %v\n%s", rec, debug.Stack())
		}
	}()
	return ev.OnMessage(ctx, req)
}
