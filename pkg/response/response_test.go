package response

import (
	"context"
	"testing"
	"time"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajirodesu/chaldea/pkg/command"
)

type fakeSender struct {
	messages []telego.SendMessageParams
	edits    []telego.EditMessageTextParams
	deletes  []telego.DeleteMessageParams
	photos   []telego.SendPhotoParams
}

func (f *fakeSender) SendMessage(_ context.Context, p *telego.SendMessageParams) (*telego.Message, error) {
	f.messages = append(f.messages, *p)
	return &telego.Message{MessageID: len(f.messages), Chat: telego.Chat{ID: p.ChatID.ID}}, nil
}

func (f *fakeSender) EditMessageText(_ context.Context, p *telego.EditMessageTextParams) (*telego.Message, error) {
	f.edits = append(f.edits, *p)
	return &telego.Message{MessageID: p.MessageID}, nil
}

func (f *fakeSender) DeleteMessage(_ context.Context, p *telego.DeleteMessageParams) error {
	f.deletes = append(f.deletes, *p)
	return nil
}

func (f *fakeSender) SendPhoto(_ context.Context, p *telego.SendPhotoParams) (*telego.Message, error) {
	f.photos = append(f.photos, *p)
	return &telego.Message{}, nil
}

func (f *fakeSender) SendDocument(_ context.Context, p *telego.SendDocumentParams) (*telego.Message, error) {
	return &telego.Message{}, nil
}

func (f *fakeSender) SendVideo(_ context.Context, p *telego.SendVideoParams) (*telego.Message, error) {
	return &telego.Message{}, nil
}

func (f *fakeSender) SendAudio(_ context.Context, p *telego.SendAudioParams) (*telego.Message, error) {
	return &telego.Message{}, nil
}

func TestReplyQuotesTriggeringMessage(t *testing.T) {
	sender := &fakeSender{}
	r := NewFactory(sender).For(-100, 55)

	_, err := r.Reply(context.Background(), "pong", nil)
	require.NoError(t, err)

	require.Len(t, sender.messages, 1)
	msg := sender.messages[0]
	assert.Equal(t, int64(-100), msg.ChatID.ID)
	assert.Equal(t, "pong", msg.Text)
	require.NotNil(t, msg.ReplyParameters)
	assert.Equal(t, 55, msg.ReplyParameters.MessageID)
}

func TestSendDoesNotQuote(t *testing.T) {
	sender := &fakeSender{}
	r := NewFactory(sender).For(-100, 55)

	_, err := r.Send(context.Background(), "hello", &command.SendOptions{ParseMode: telego.ModeHTML})
	require.NoError(t, err)

	require.Len(t, sender.messages, 1)
	assert.Nil(t, sender.messages[0].ReplyParameters)
	assert.Equal(t, telego.ModeHTML, sender.messages[0].ParseMode)
}

func TestEditCarriesKeyboard(t *testing.T) {
	sender := &fakeSender{}
	r := NewFactory(sender).For(-100, 0)

	markup := &telego.InlineKeyboardMarkup{}
	_, err := r.EditText(context.Background(), command.MessageRef{ChatID: -100, MessageID: 9}, "updated",
		&command.SendOptions{ReplyMarkup: markup})
	require.NoError(t, err)

	require.Len(t, sender.edits, 1)
	assert.Equal(t, 9, sender.edits[0].MessageID)
	assert.Same(t, markup, sender.edits[0].ReplyMarkup)
}

func TestPerChatLimiterIsShared(t *testing.T) {
	sender := &fakeSender{}
	factory := NewFactory(sender)

	// Two responders for the same chat draw from one bucket; a different
	// chat gets its own.
	a := factory.For(-1, 0)
	b := factory.For(-1, 0)
	other := factory.For(-2, 0)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := a.Send(ctx, "x", nil)
		require.NoError(t, err)
	}
	_, err := b.Send(ctx, "x", nil)
	require.NoError(t, err)

	// Bucket for chat -1 is drained; the next send must block past a short
	// deadline while the fresh chat goes through immediately.
	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = b.Send(short, "x", nil)
	require.Error(t, err)

	_, err = other.Send(ctx, "x", nil)
	require.NoError(t, err)
}

func TestDelete(t *testing.T) {
	sender := &fakeSender{}
	r := NewFactory(sender).For(-100, 0)

	require.NoError(t, r.Delete(context.Background(), command.MessageRef{ChatID: -100, MessageID: 3}))
	require.Len(t, sender.deletes, 1)
	assert.Equal(t, 3, sender.deletes[0].MessageID)
}
