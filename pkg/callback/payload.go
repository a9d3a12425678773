// Package callback decodes inline-keyboard payloads and routes them to the
// command that owns the keyboard.
package callback

import (
	"errors"
	"strings"

	"github.com/bytedance/sonic"
)

// Payload is the structured form carried in callback data. The wire form is
// JSON; older keyboards used a bare colon-delimited string, which Decode
// still accepts.
type Payload struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// ErrEmptyPayload reports callback data with no usable content.
var ErrEmptyPayload = errors.New("callback: empty payload")

// Encode renders a payload as callback data. Telegram caps callback data at
// 64 bytes, so commands should keep args short.
func Encode(command string, args ...string) string {
	data, err := sonic.MarshalString(Payload{Command: command, Args: args})
	if err != nil {
		// Payload is strings only; marshal cannot fail in practice.
		return command
	}
	return data
}

// Decode parses callback data. JSON objects decode into the tagged form;
// anything else is treated as colon-delimited "command:arg:arg".
func Decode(data string) (Payload, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return Payload{}, ErrEmptyPayload
	}

	if strings.HasPrefix(data, "{") {
		var p Payload
		if err := sonic.UnmarshalString(data, &p); err != nil {
			return Payload{}, err
		}
		if p.Command == "" {
			return Payload{}, ErrEmptyPayload
		}
		p.Command = strings.ToLower(p.Command)
		return p, nil
	}

	parts := strings.Split(data, ":")
	p := Payload{Command: strings.ToLower(parts[0])}
	if p.Command == "" {
		return Payload{}, ErrEmptyPayload
	}
	if len(parts) > 1 {
		p.Args = parts[1:]
	}
	return p, nil
}
