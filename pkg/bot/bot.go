// Package bot runs the Telegram instances. Every configured token becomes
// one instance; the fleet splits group traffic across instances by chat id
// while each instance answers its own direct messages.
package bot

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/ajirodesu/chaldea/pkg/access"
	"github.com/ajirodesu/chaldea/pkg/callback"
	"github.com/ajirodesu/chaldea/pkg/command"
	"github.com/ajirodesu/chaldea/pkg/config"
	"github.com/ajirodesu/chaldea/pkg/cooldown"
	"github.com/ajirodesu/chaldea/pkg/dispatch"
	"github.com/ajirodesu/chaldea/pkg/logger"
	"github.com/ajirodesu/chaldea/pkg/pending"
	"github.com/ajirodesu/chaldea/pkg/response"
)

// Instance is one logged-in bot with its slot in the fleet.
type Instance struct {
	bot        *telego.Bot
	dispatcher *dispatch.Dispatcher
	listener   *callback.Listener
	store      *config.Store
	index      int
	total      int
	startedAt  time.Time
	sendDirect func(ctx context.Context, chatID int64, text string) error
}

// Deps are the shared services every instance dispatches through. The
// registry and state stores are fleet-wide; a command loaded once serves
// every instance, and a continuation can be resumed by whichever instance
// owns the chat.
type Deps struct {
	Registry  *command.Registry
	Store     *config.Store
	Cooldowns *cooldown.Store
	Pending   *pending.Store
}

// NewInstance logs in one token at the given fleet slot.
func NewInstance(token string, index, total int, deps Deps) (*Instance, error) {
	bot, err := telego.NewBot(token, telego.WithDiscardLogger())
	if err != nil {
		return nil, fmt.Errorf("bot %d: login: %w", index, err)
	}

	responders := response.NewFactory(bot)
	gate := access.NewGate(deps.Store, bot)
	router := callback.NewRouter(deps.Registry, bot, func(chatID int64) command.Responder {
		return responders.For(chatID, 0)
	})

	inst := &Instance{
		bot:   bot,
		store: deps.Store,
		index: index,
		total: total,
		sendDirect: func(ctx context.Context, chatID int64, text string) error {
			_, err := bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text))
			return err
		},
	}
	inst.dispatcher = dispatch.New(dispatch.Options{
		Registry:    deps.Registry,
		Store:       deps.Store,
		Gate:        gate,
		Cooldowns:   deps.Cooldowns,
		Pending:     deps.Pending,
		Responders:  responders,
		ShardIndex:  index,
		ShardTotal:  total,
		BotUsername: bot.Username(),
	})
	inst.listener = router.Attach()
	return inst, nil
}

// Run consumes updates until ctx is canceled.
func (i *Instance) Run(ctx context.Context) error {
	updates, err := i.bot.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout: 30,
	})
	if err != nil {
		return fmt.Errorf("bot %d: long polling: %w", i.index, err)
	}

	i.startedAt = time.Now()
	logger.InfoCF("bot", "instance connected", map[string]any{
		"index":    i.index,
		"total":    i.total,
		"username": i.bot.Username(),
	})

	for {
		select {
		case <-ctx.Done():
			i.listener.Close()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				i.listener.Close()
				return fmt.Errorf("bot %d: updates channel closed", i.index)
			}
			i.handleUpdate(ctx, update)
		}
	}
}

func (i *Instance) handleUpdate(ctx context.Context, update telego.Update) {
	switch {
	case update.Message != nil:
		i.dispatcher.HandleMessage(ctx, i.bot, *update.Message)
	case update.CallbackQuery != nil:
		if err := i.listener.Handle(ctx, i.bot, *update.CallbackQuery); err != nil {
			logger.WarnCF("bot", "callback handling failed", map[string]any{
				"index": i.index,
				"error": err.Error(),
			})
		}
	}
}

// Uptime reports how long the instance has been connected.
func (i *Instance) Uptime() time.Duration {
	if i.startedAt.IsZero() {
		return 0
	}
	return time.Since(i.startedAt)
}

// Username returns the instance's bot username.
func (i *Instance) Username() string { return i.bot.Username() }

// NotifyDevelopers sends a direct message to every configured developer id.
// Delivery failures are logged per recipient; a developer who never opened a
// DM with the bot cannot be messaged and must not block startup.
func (i *Instance) NotifyDevelopers(ctx context.Context, text string) {
	settings, err := i.store.Settings()
	if err != nil {
		logger.WarnCF("bot", "developer notice skipped", map[string]any{
			"index": i.index,
			"error": err.Error(),
		})
		return
	}
	for _, dev := range settings.DevID {
		id, err := strconv.ParseInt(dev, 10, 64)
		if err != nil {
			continue
		}
		if err := i.sendDirect(ctx, id, text); err != nil {
			logger.WarnCF("bot", "developer notice failed", map[string]any{
				"index": i.index,
				"dev":   dev,
				"error": err.Error(),
			})
		}
	}
}
