package apps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ajirodesu/chaldea/pkg/command"
	"github.com/ajirodesu/chaldea/pkg/config"
)

type helpCommand struct {
	store    *config.Store
	registry *command.Registry
}

func (c *helpCommand) Meta() command.Meta {
	return command.Meta{
		Name:        "help",
		Aliases:     []string{"menu"},
		Description: "List available commands or show a command's guide",
		Category:    "general",
		Guide:       []string{"", "<command>"},
	}
}

func (c *helpCommand) OnStart(ctx context.Context, req *command.Request) error {
	settings, err := c.store.Settings()
	if err != nil {
		return err
	}
	prefix := settings.Prefixes()[0]

	if len(req.Args) > 0 {
		name := strings.TrimPrefix(strings.ToLower(req.Args[0]), prefix)
		cmd, ok := c.registry.Resolve(name)
		if !ok {
			_, err := req.Response.Reply(ctx, fmt.Sprintf("No command named %q.", req.Args[0]), nil)
			return err
		}
		m := cmd.Meta()
		var b strings.Builder
		b.WriteString(prefix + m.Name)
		if len(m.Aliases) > 0 {
			b.WriteString(" (" + strings.Join(m.Aliases, ", ") + ")")
		}
		if m.Description != "" {
			b.WriteString("\n" + m.Description)
		}
		b.WriteString("\n" + command.FormatUsage(m, prefix))
		_, err := req.Response.Reply(ctx, b.String(), nil)
		return err
	}

	_, err = req.Response.Reply(ctx, command.FormatHelp(c.registry.Commands(), prefix), nil)
	return err
}

type startCommand struct {
	store *config.Store
}

func (c *startCommand) Meta() command.Meta {
	return command.Meta{
		Name:        "start",
		Description: "Introduce the bot",
		Category:    "general",
	}
}

func (c *startCommand) OnStart(ctx context.Context, req *command.Request) error {
	settings, err := c.store.Settings()
	if err != nil {
		return err
	}
	name := "there"
	if req.Msg.From != nil && req.Msg.From.FirstName != "" {
		name = req.Msg.From.FirstName
	}
	text := fmt.Sprintf("Hello %s! I'm Chaldea. Send %shelp to see what I can do.",
		name, settings.Prefixes()[0])
	_, err = req.Response.Reply(ctx, text, nil)
	return err
}

type uptimeCommand struct {
	uptime func() time.Duration
}

func (c *uptimeCommand) Meta() command.Meta {
	return command.Meta{
		Name:        "uptime",
		Description: "Show how long the bot has been running",
		Category:    "general",
		Cooldown:    5 * time.Second,
	}
}

func (c *uptimeCommand) OnStart(ctx context.Context, req *command.Request) error {
	d := c.uptime().Round(time.Second)
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	_, err := req.Response.Reply(ctx, "Up for "+strings.Join(parts, " "), nil)
	return err
}
