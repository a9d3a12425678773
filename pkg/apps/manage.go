package apps

import (
	"context"
	"fmt"
	"strings"

	"github.com/ajirodesu/chaldea/pkg/command"
	"github.com/ajirodesu/chaldea/pkg/config"
	"github.com/ajirodesu/chaldea/pkg/loader"
)

type prefixCommand struct {
	store *config.Store
}

func (c *prefixCommand) Meta() command.Meta {
	return command.Meta{
		Name:        "prefix",
		Description: "Show or change the command prefix",
		Category:    "manage",
		Guide:       []string{"", "set <prefix>"},
	}
}

func (c *prefixCommand) OnStart(ctx context.Context, req *command.Request) error {
	settings, err := c.store.Settings()
	if err != nil {
		return err
	}

	if len(req.Args) == 0 {
		_, err := req.Response.Reply(ctx,
			"Current prefix: "+strings.Join(settings.Prefixes(), " "), nil)
		return err
	}

	if req.Args[0] != "set" || len(req.Args) < 2 {
		return req.Usages(ctx)
	}
	if !isOwner(settings, req) {
		return replyOwnerOnly(ctx, req)
	}

	newPrefix := req.Args[1]
	if len(newPrefix) > 3 || strings.ContainsAny(newPrefix, " \t@") {
		_, err := req.Response.Reply(ctx, "That prefix is not usable.", nil)
		return err
	}
	settings.Prefix = config.FlexibleStringSlice{newPrefix}
	if err := c.store.SaveSettings(settings); err != nil {
		return err
	}
	_, err = req.Response.Reply(ctx, "Prefix changed to "+newPrefix, nil)
	return err
}

type maintenanceCommand struct {
	store *config.Store
}

func (c *maintenanceCommand) Meta() command.Meta {
	return command.Meta{
		Name:        "maintenance",
		Aliases:     []string{"ownersonly"},
		Description: "Toggle maintenance mode",
		Category:    "manage",
		Access:      command.AccessOwner,
		Guide:       []string{"on", "off"},
	}
}

func (c *maintenanceCommand) OnStart(ctx context.Context, req *command.Request) error {
	if len(req.Args) == 0 {
		return req.Usages(ctx)
	}
	settings, err := c.store.Settings()
	if err != nil {
		return err
	}

	switch strings.ToLower(req.Args[0]) {
	case "on":
		settings.OwnerOnly = true
	case "off":
		settings.OwnerOnly = false
	default:
		return req.Usages(ctx)
	}
	if err := c.store.SaveSettings(settings); err != nil {
		return err
	}

	state := "off"
	if settings.OwnerOnly {
		state = "on"
	}
	_, err = req.Response.Reply(ctx, "Maintenance mode is now "+state+".", nil)
	return err
}

type vipCommand struct {
	store *config.Store
}

func (c *vipCommand) Meta() command.Meta {
	return command.Meta{
		Name:        "vip",
		Description: "Manage the VIP list",
		Category:    "manage",
		Access:      command.AccessOwner,
		Guide:       []string{"list", "add <user id>", "remove <user id>"},
	}
}

func (c *vipCommand) OnStart(ctx context.Context, req *command.Request) error {
	if len(req.Args) == 0 {
		return req.Usages(ctx)
	}
	vip, err := c.store.VIP()
	if err != nil {
		return err
	}

	switch strings.ToLower(req.Args[0]) {
	case "list":
		if len(vip.UID) == 0 {
			_, err := req.Response.Reply(ctx, "The VIP list is empty.", nil)
			return err
		}
		_, err := req.Response.Reply(ctx, "VIPs:\n"+strings.Join(vip.UID, "\n"), nil)
		return err
	case "add":
		id, ok := argUserID(req)
		if !ok {
			return req.Usages(ctx)
		}
		if vip.UID.Contains(id) {
			_, err := req.Response.Reply(ctx, id+" is already a VIP.", nil)
			return err
		}
		vip.UID = append(vip.UID, id)
		if err := c.store.SaveVIP(vip); err != nil {
			return err
		}
		_, err := req.Response.Reply(ctx, "Added "+id+" to the VIP list.", nil)
		return err
	case "remove":
		id, ok := argUserID(req)
		if !ok {
			return req.Usages(ctx)
		}
		kept := vip.UID[:0]
		for _, uid := range vip.UID {
			if uid != id {
				kept = append(kept, uid)
			}
		}
		if len(kept) == len(vip.UID) {
			_, err := req.Response.Reply(ctx, id+" is not on the VIP list.", nil)
			return err
		}
		vip.UID = kept
		if err := c.store.SaveVIP(vip); err != nil {
			return err
		}
		_, err := req.Response.Reply(ctx, "Removed "+id+" from the VIP list.", nil)
		return err
	default:
		return req.Usages(ctx)
	}
}

type ownerCommand struct {
	store *config.Store
}

func (c *ownerCommand) Meta() command.Meta {
	return command.Meta{
		Name:        "owner",
		Description: "Manage the owner list",
		Category:    "manage",
		Access:      command.AccessOwner,
		Guide:       []string{"list", "add <user id>", "remove <user id>"},
	}
}

func (c *ownerCommand) OnStart(ctx context.Context, req *command.Request) error {
	if len(req.Args) == 0 {
		return req.Usages(ctx)
	}
	settings, err := c.store.Settings()
	if err != nil {
		return err
	}

	switch strings.ToLower(req.Args[0]) {
	case "list":
		if len(settings.Owner) == 0 {
			_, err := req.Response.Reply(ctx, "No owners configured.", nil)
			return err
		}
		_, err := req.Response.Reply(ctx, "Owners:\n"+strings.Join(settings.Owner, "\n"), nil)
		return err
	case "add":
		id, ok := argUserID(req)
		if !ok {
			return req.Usages(ctx)
		}
		if settings.Owner.Contains(id) {
			_, err := req.Response.Reply(ctx, id+" is already an owner.", nil)
			return err
		}
		settings.Owner = append(settings.Owner, id)
		if err := c.store.SaveSettings(settings); err != nil {
			return err
		}
		_, err := req.Response.Reply(ctx, "Added "+id+" as an owner.", nil)
		return err
	case "remove":
		id, ok := argUserID(req)
		if !ok {
			return req.Usages(ctx)
		}
		if len(settings.Owner) == 1 && settings.Owner.Contains(id) {
			_, err := req.Response.Reply(ctx, "Refusing to remove the last owner.", nil)
			return err
		}
		kept := settings.Owner[:0]
		for _, uid := range settings.Owner {
			if uid != id {
				kept = append(kept, uid)
			}
		}
		if len(kept) == len(settings.Owner) {
			_, err := req.Response.Reply(ctx, id+" is not an owner.", nil)
			return err
		}
		settings.Owner = kept
		if err := c.store.SaveSettings(settings); err != nil {
			return err
		}
		_, err := req.Response.Reply(ctx, "Removed "+id+" from the owners.", nil)
		return err
	default:
		return req.Usages(ctx)
	}
}

type cmdCommand struct {
	loader func() *loader.Loader
}

func (c *cmdCommand) Meta() command.Meta {
	return command.Meta{
		Name:        "cmd",
		Description: "Load, unload, or reload command modules",
		Category:    "manage",
		Access:      command.AccessOwner,
		Guide:       []string{"load <module>", "unload <module>", "reload <module>", "loadall"},
	}
}

func (c *cmdCommand) OnStart(ctx context.Context, req *command.Request) error {
	if len(req.Args) == 0 {
		return req.Usages(ctx)
	}
	l := c.loader()
	if l == nil {
		_, err := req.Response.Reply(ctx, "Module control is not available.", nil)
		return err
	}

	action := strings.ToLower(req.Args[0])
	if action == "loadall" {
		rep, err := l.ReloadAll()
		if err != nil {
			return err
		}
		text := fmt.Sprintf("Loaded %d commands and %d events.", len(rep.Commands), len(rep.Events))
		if len(rep.Failures) > 0 {
			var lines []string
			for _, f := range rep.Failures {
				lines = append(lines, f.Name+": "+f.Err.Error())
			}
			text += "\nFailures:\n" + strings.Join(lines, "\n")
		}
		_, err = req.Response.Reply(ctx, text, nil)
		return err
	}

	if len(req.Args) < 2 {
		return req.Usages(ctx)
	}
	module := strings.ToLower(req.Args[1])

	var err error
	switch action {
	case "load":
		err = l.LoadOne(module)
	case "unload":
		err = l.Unload(module)
	case "reload":
		err = l.Reload(module)
	default:
		return req.Usages(ctx)
	}
	if err != nil {
		_, replyErr := req.Response.Reply(ctx, "Could not "+action+" "+module+": "+err.Error(), nil)
		return replyErr
	}
	_, err = req.Response.Reply(ctx, "Done: "+action+" "+module+".", nil)
	return err
}

func isOwner(settings *config.Settings, req *command.Request) bool {
	if req.Msg.From == nil {
		return false
	}
	return settings.IsOwner(fmt.Sprintf("%d", req.Msg.From.ID))
}

func replyOwnerOnly(ctx context.Context, req *command.Request) error {
	_, err := req.Response.Reply(ctx, "Only owners can do that.", nil)
	return err
}

func argUserID(req *command.Request) (string, bool) {
	if len(req.Args) >= 2 && req.Args[1] != "" {
		return req.Args[1], true
	}
	// Replying to someone's message targets that user.
	if req.Msg.ReplyToMessage != nil && req.Msg.ReplyToMessage.From != nil {
		return fmt.Sprintf("%d", req.Msg.ReplyToMessage.From.ID), true
	}
	return "", false
}
