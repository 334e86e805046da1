package stream

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CommandType is the verb of a client command.
type CommandType string

const (
	CommandSubscribe   CommandType = "subscribe"
	CommandUnsubscribe CommandType = "unsubscribe"
	CommandPing        CommandType = "ping"
)

// Command is a decoded client command.
type Command struct {
	Type     CommandType
	Selector Selector
	Filter   Filter
}

// wireCommand is the JSON shape sent by clients, e.g.
// {"type":"subscribe","stream":"hashtag","tag":"golang"}.
type wireCommand struct {
	Type              string   `json:"type"`
	Event             string   `json:"event"`
	Stream            string   `json:"stream"`
	Tag               string   `json:"tag"`
	List              string   `json:"list"`
	LanguagesExcluded []string `json:"languages_excluded"`
	OnlyMedia         bool     `json:"only_media"`
}

// ParseCommand decodes a client command. Malformed payloads wrap ErrInvalidCommand;
// unknown streams are returned as *SubscriptionError.
func ParseCommand(data []byte) (Command, error) {
	var w wireCommand
	if err := json.Unmarshal(data, &w); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}

	verb := strings.ToLower(strings.TrimSpace(w.Type))
	if verb == "" {
		verb = strings.ToLower(strings.TrimSpace(w.Event))
	}

	switch verb {
	case "ping", "heartbeat":
		return Command{Type: CommandPing}, nil
	case "subscribe", "unsubscribe":
	case "":
		return Command{}, fmt.Errorf("%w: missing type", ErrInvalidCommand)
	default:
		return Command{}, fmt.Errorf("%w: unknown type %q", ErrInvalidCommand, verb)
	}

	sel, mediaOnly, err := ParseSelector(w.Stream, w.Tag, w.List)
	if err != nil {
		return Command{}, &SubscriptionError{Stream: w.Stream, Err: err}
	}

	return Command{
		Type:     CommandType(verb),
		Selector: sel,
		Filter:   NewFilter(w.LanguagesExcluded, mediaOnly || w.OnlyMedia),
	}, nil
}
