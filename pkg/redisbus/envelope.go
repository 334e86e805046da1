package redisbus

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrymomot/streamhub/pkg/stream"
)

// Envelope is the JSON message producers publish to the events channel.
// Kind selects which of the optional sections must be present.
type Envelope struct {
	Kind         string          `json:"kind"`
	Status       *Status         `json:"status,omitempty"`
	Notification *Notification   `json:"notification,omitempty"`
	AccountID    string          `json:"account_id,omitempty"`
	TargetID     string          `json:"target_id,omitempty"`
	Keywords     []Keyword       `json:"keywords,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	QueuedAt     *time.Time      `json:"queued_at,omitempty"`
}

type Status struct {
	ID         string   `json:"id"`
	AuthorID   string   `json:"author_id"`
	Visibility string   `json:"visibility"`
	Local      bool     `json:"local"`
	Language   string   `json:"language,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Mentions   []string `json:"mentions,omitempty"`
	HasMedia   bool     `json:"has_media"`
	Text       string   `json:"text,omitempty"`
}

type Notification struct {
	ID          string `json:"id"`
	RecipientID string `json:"recipient_id"`
	ActorID     string `json:"actor_id,omitempty"`
	Type        string `json:"type"`
}

type Keyword struct {
	Phrase    string     `json:"phrase"`
	Contexts  []string   `json:"contexts"`
	WholeWord bool       `json:"whole_word"`
	Action    string     `json:"action,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Decode parses a channel message into a hub event.
func Decode(data []byte) (*stream.Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Join(ErrInvalidEnvelope, err)
	}
	ev, err := env.Event()
	if err != nil {
		return nil, errors.Join(ErrInvalidEnvelope, err)
	}
	return ev, nil
}

// Encode serialises env for publishing.
func Encode(env Envelope) ([]byte, error) {
	if _, err := stream.ParseEventKind(env.Kind); err != nil {
		return nil, errors.Join(ErrInvalidEnvelope, err)
	}
	return json.Marshal(env)
}

// Event converts the envelope through the stream event constructors, so every
// decoded event satisfies the same invariants as one built in process.
func (e Envelope) Event() (*stream.Event, error) {
	kind, err := stream.ParseEventKind(e.Kind)
	if err != nil {
		return nil, err
	}

	switch kind {
	case stream.EventStatusCreated, stream.EventStatusUpdated, stream.EventStatusDeleted:
		if e.Status == nil {
			return nil, fmt.Errorf("%w: %s without status", stream.ErrInvalidEvent, e.Kind)
		}
		vis, err := stream.ParseVisibility(e.Status.Visibility)
		if err != nil {
			return nil, err
		}
		return stream.NewStatusEvent(kind, stream.StatusRef{
			ID:         e.Status.ID,
			AuthorID:   e.Status.AuthorID,
			Visibility: vis,
			Local:      e.Status.Local,
			Language:   e.Status.Language,
			Tags:       e.Status.Tags,
			Mentions:   e.Status.Mentions,
			HasMedia:   e.Status.HasMedia,
			Text:       e.Status.Text,
		}, e.Payload)

	case stream.EventNotificationCreated:
		if e.Notification == nil {
			return nil, fmt.Errorf("%w: %s without notification", stream.ErrInvalidEvent, e.Kind)
		}
		return stream.NewNotificationEvent(stream.NotificationRef{
			ID:          e.Notification.ID,
			RecipientID: e.Notification.RecipientID,
			ActorID:     e.Notification.ActorID,
			Type:        e.Notification.Type,
		}, e.Payload)

	case stream.EventAccountUpdated:
		return stream.NewAccountUpdatedEvent(e.AccountID, e.Payload)

	case stream.EventFiltersChanged:
		keywords := make([]stream.Keyword, 0, len(e.Keywords))
		for _, kw := range e.Keywords {
			k := stream.Keyword{
				Phrase:    kw.Phrase,
				WholeWord: kw.WholeWord,
				Action:    stream.KeywordAction(kw.Action),
			}
			for _, c := range kw.Contexts {
				k.Contexts = append(k.Contexts, stream.KeywordContext(c))
			}
			if kw.ExpiresAt != nil {
				k.ExpiresAt = *kw.ExpiresAt
			}
			keywords = append(keywords, k)
		}
		return stream.NewFiltersChangedEvent(e.AccountID, keywords)

	case stream.EventRelationshipChanged:
		return stream.NewRelationshipChangedEvent(e.AccountID, e.TargetID)

	default:
		return nil, fmt.Errorf("%w: unsupported kind %q", stream.ErrInvalidEvent, e.Kind)
	}
}
