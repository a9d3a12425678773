package apps

import (
	"context"
	"fmt"

	"github.com/ajirodesu/chaldea/pkg/command"
	"github.com/ajirodesu/chaldea/pkg/logger"
)

type greetEvent struct{}

func (e *greetEvent) Meta() command.Meta {
	return command.Meta{
		Name:        "greet",
		Description: "Welcome new members and say goodbye to leavers",
		Category:    "events",
	}
}

func (e *greetEvent) OnMessage(ctx context.Context, req *command.EventRequest) error {
	for _, member := range req.Msg.NewChatMembers {
		if member.IsBot {
			continue
		}
		text := fmt.Sprintf("Welcome, %s!", member.FirstName)
		if _, err := req.Response.Send(ctx, text, nil); err != nil {
			return err
		}
	}
	if left := req.Msg.LeftChatMember; left != nil && !left.IsBot {
		text := fmt.Sprintf("Goodbye, %s.", left.FirstName)
		if _, err := req.Response.Send(ctx, text, nil); err != nil {
			return err
		}
	}
	return nil
}

type activityEvent struct{}

func (e *activityEvent) Meta() command.Meta {
	return command.Meta{
		Name:        "activity",
		Description: "Trace inbound chat activity",
		Category:    "events",
	}
}

func (e *activityEvent) OnMessage(_ context.Context, req *command.EventRequest) error {
	from := int64(0)
	if req.Msg.From != nil {
		from = req.Msg.From.ID
	}
	logger.DebugCF("activity", "message", map[string]any{
		"chat": req.ChatID,
		"user": from,
		"len":  len(req.Msg.Text) + len(req.Msg.Caption),
	})
	return nil
}
