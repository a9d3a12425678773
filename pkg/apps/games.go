package apps

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/ajirodesu/chaldea/pkg/callback"
	"github.com/ajirodesu/chaldea/pkg/command"
)

var rpsChoices = []string{"rock", "paper", "scissors"}

type rpsCommand struct{}

func (c *rpsCommand) Meta() command.Meta {
	return command.Meta{
		Name:        "rps",
		Description: "Rock, paper, scissors",
		Category:    "games",
		Cooldown:    3 * time.Second,
	}
}

func (c *rpsCommand) OnStart(ctx context.Context, req *command.Request) error {
	keyboard := tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("Rock").WithCallbackData(callback.Encode("rps", "rock")),
			tu.InlineKeyboardButton("Paper").WithCallbackData(callback.Encode("rps", "paper")),
			tu.InlineKeyboardButton("Scissors").WithCallbackData(callback.Encode("rps", "scissors")),
		),
	)
	_, err := req.Response.Reply(ctx, "Rock, paper, scissors. Pick one:", &command.SendOptions{
		ReplyMarkup: keyboard,
	})
	return err
}

func (c *rpsCommand) OnCallback(ctx context.Context, req *command.CallbackRequest) error {
	if len(req.Args) == 0 {
		return fmt.Errorf("rps: payload has no choice")
	}
	player := req.Args[0]
	valid := false
	for _, choice := range rpsChoices {
		if choice == player {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("rps: unknown choice %q", player)
	}

	mine := rpsChoices[rand.Intn(len(rpsChoices))]
	var verdict string
	switch {
	case mine == player:
		verdict = "It's a draw!"
	case beats(player, mine):
		verdict = "You win!"
	default:
		verdict = "I win!"
	}

	text := fmt.Sprintf("You chose %s, I chose %s. %s", player, mine, verdict)
	_, err := req.Response.EditText(ctx, command.MessageRef{
		ChatID:    req.ChatID,
		MessageID: req.MessageID,
	}, text, nil)
	return err
}

func beats(a, b string) bool {
	switch a {
	case "rock":
		return b == "scissors"
	case "paper":
		return b == "rock"
	case "scissors":
		return b == "paper"
	}
	return false
}

type guessState struct {
	Secret   int
	Attempts int
}

type guessCommand struct{}

func (c *guessCommand) Meta() command.Meta {
	return command.Meta{
		Name:        "guess",
		Description: "Guess a number between 1 and 100",
		Category:    "games",
		Cooldown:    3 * time.Second,
	}
}

const guessMaxAttempts = 7

func (c *guessCommand) OnStart(ctx context.Context, req *command.Request) error {
	sent, err := req.Response.Reply(ctx,
		fmt.Sprintf("I'm thinking of a number between 1 and 100. You have %d tries. Reply to this message with your guess.", guessMaxAttempts),
		nil)
	if err != nil {
		return err
	}
	req.Continue(sent, &guessState{Secret: rand.Intn(100) + 1})
	return nil
}

func (c *guessCommand) OnReply(ctx context.Context, req *command.ReplyRequest) error {
	state, ok := req.State.(*guessState)
	if !ok {
		return fmt.Errorf("guess: unexpected state %T", req.State)
	}

	reprompt := func(text string) error {
		sent, err := req.Response.Reply(ctx, text, nil)
		if err != nil {
			return err
		}
		req.Continue(sent, state)
		return nil
	}

	if len(req.Args) == 0 {
		return reprompt("Reply with a number between 1 and 100.")
	}
	guess, err := strconv.Atoi(req.Args[0])
	if err != nil || guess < 1 || guess > 100 {
		return reprompt("That's not a number between 1 and 100. Try again.")
	}

	state.Attempts++
	switch {
	case guess == state.Secret:
		_, err := req.Response.Reply(ctx,
			fmt.Sprintf("Correct! It was %d, found in %d tries.", state.Secret, state.Attempts), nil)
		return err
	case state.Attempts >= guessMaxAttempts:
		_, err := req.Response.Reply(ctx,
			fmt.Sprintf("Out of tries! The number was %d.", state.Secret), nil)
		return err
	case guess < state.Secret:
		return reprompt(fmt.Sprintf("Higher than %d. %d tries left.", guess, guessMaxAttempts-state.Attempts))
	default:
		return reprompt(fmt.Sprintf("Lower than %d. %d tries left.", guess, guessMaxAttempts-state.Attempts))
	}
}

var (
	_ command.CallbackHandler = (*rpsCommand)(nil)
	_ command.ReplyHandler    = (*guessCommand)(nil)
)
