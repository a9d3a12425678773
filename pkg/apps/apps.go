// Package apps holds the built-in command and event modules. The catalogs
// assembled here are the full module set a fresh deployment starts with.
package apps

import (
	"net/http"
	"time"

	"github.com/ajirodesu/chaldea/pkg/command"
	"github.com/ajirodesu/chaldea/pkg/config"
	"github.com/ajirodesu/chaldea/pkg/loader"
)

// Deps are the services modules close over. Loader is a getter because the
// loader itself is built from these catalogs; it is bound once at startup.
type Deps struct {
	Store    *config.Store
	Registry *command.Registry
	Loader   func() *loader.Loader
	Uptime   func() time.Duration

	OpenAIKey      string
	OpenAIModel    string
	AnthropicKey   string
	AnthropicModel string

	HTTPClient *http.Client
}

func (d Deps) httpClient() *http.Client {
	if d.HTTPClient != nil {
		return d.HTTPClient
	}
	return &http.Client{Timeout: 15 * time.Second}
}

// Commands builds the full command catalog.
func Commands(deps Deps) loader.Catalog[command.Command] {
	return loader.Catalog[command.Command]{
		"help":        func() command.Command { return &helpCommand{store: deps.Store, registry: deps.Registry} },
		"start":       func() command.Command { return &startCommand{store: deps.Store} },
		"uptime":      func() command.Command { return &uptimeCommand{uptime: deps.Uptime} },
		"prefix":      func() command.Command { return &prefixCommand{store: deps.Store} },
		"maintenance": func() command.Command { return &maintenanceCommand{store: deps.Store} },
		"vip":         func() command.Command { return &vipCommand{store: deps.Store} },
		"owner":       func() command.Command { return &ownerCommand{store: deps.Store} },
		"cmd":         func() command.Command { return &cmdCommand{loader: deps.Loader} },
		"weather":     func() command.Command { return &weatherCommand{client: deps.httpClient()} },
		"gpt":         func() command.Command { return newGPTCommand(deps.OpenAIKey, deps.OpenAIModel) },
		"claude":      func() command.Command { return newClaudeCommand(deps.AnthropicKey, deps.AnthropicModel) },
		"qr":          func() command.Command { return &qrCommand{} },
		"rps":         func() command.Command { return &rpsCommand{} },
		"guess":       func() command.Command { return &guessCommand{} },
	}
}

// Events builds the event module catalog.
func Events(deps Deps) loader.Catalog[command.Event] {
	return loader.Catalog[command.Event]{
		"greet":    func() command.Event { return &greetEvent{} },
		"activity": func() command.Event { return &activityEvent{} },
	}
}
