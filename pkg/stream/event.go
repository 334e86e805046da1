package stream

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// EventKind tags the variant carried by an Event.
type EventKind uint8

const (
	EventStatusCreated EventKind = iota + 1
	EventStatusUpdated
	EventStatusDeleted
	EventNotificationCreated
	EventAccountUpdated
	EventFiltersChanged
	EventRelationshipChanged
)

var eventKindNames = map[EventKind]string{
	EventStatusCreated:       "status.created",
	EventStatusUpdated:       "status.updated",
	EventStatusDeleted:       "status.deleted",
	EventNotificationCreated: "notification.created",
	EventAccountUpdated:      "account.updated",
	EventFiltersChanged:      "filters.changed",
	EventRelationshipChanged: "relationship.changed",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseEventKind is the inverse of EventKind.String.
func ParseEventKind(s string) (EventKind, error) {
	for k, name := range eventKindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, s)
}

// frameEvent returns the client-facing event name.
func (k EventKind) frameEvent() string {
	switch k {
	case EventStatusCreated:
		return FrameUpdate
	case EventStatusUpdated:
		return FrameStatusUpdate
	case EventStatusDeleted:
		return FrameDelete
	case EventNotificationCreated:
		return FrameNotification
	case EventAccountUpdated:
		return FrameAccountUpdate
	case EventFiltersChanged:
		return FrameFiltersChanged
	default:
		return ""
	}
}

func (k EventKind) isStatus() bool {
	return k == EventStatusCreated || k == EventStatusUpdated || k == EventStatusDeleted
}

// Visibility is the audience class of a status.
type Visibility uint8

const (
	VisibilityPublic Visibility = iota + 1
	VisibilityUnlisted
	VisibilityPrivate
	VisibilityDirect
)

func (v Visibility) String() string {
	switch v {
	case VisibilityPublic:
		return "public"
	case VisibilityUnlisted:
		return "unlisted"
	case VisibilityPrivate:
		return "private"
	case VisibilityDirect:
		return "direct"
	default:
		return "unknown"
	}
}

// ParseVisibility parses the API name of a visibility.
func ParseVisibility(s string) (Visibility, error) {
	switch s {
	case "public":
		return VisibilityPublic, nil
	case "unlisted":
		return VisibilityUnlisted, nil
	case "private":
		return VisibilityPrivate, nil
	case "direct":
		return VisibilityDirect, nil
	default:
		return 0, fmt.Errorf("%w: unknown visibility %q", ErrInvalidEvent, s)
	}
}

// StatusRef carries the fields of a status needed for routing and filtering.
type StatusRef struct {
	ID         string
	AuthorID   string
	Visibility Visibility
	Local      bool
	Language   string
	Tags       []string
	Mentions   []string
	HasMedia   bool
	Text       string // plain text of content and spoiler, matched by keyword filters
}

// HasTag reports whether the status carries the (normalised) tag.
func (s *StatusRef) HasTag(tag string) bool {
	return slices.Contains(s.Tags, tag)
}

// Mentioned reports whether accountID is mentioned by the status.
func (s *StatusRef) Mentioned(accountID string) bool {
	return slices.Contains(s.Mentions, accountID)
}

// NotificationRef carries the fields of a notification needed for routing.
type NotificationRef struct {
	ID          string
	RecipientID string
	ActorID     string
	Type        string // mention, follow, favourite, reblog, ...
}

// Event is an immutable record of a state change. Build it with one of the
// constructors and never modify it after it was handed to Publish: the same
// pointer is shared by every connection queue it lands in.
type Event struct {
	Kind         EventKind
	Status       *StatusRef
	Notification *NotificationRef
	AccountID    string // account the event is about (account, filters, relationship events)
	TargetID     string // other side of a relationship change
	Keywords     *KeywordSet
	Payload      json.RawMessage // serialised domain object, opaque to the core
	PublishedAt  time.Time
}

// Actor returns the account whose action produced the event.
func (e *Event) Actor() string {
	switch {
	case e.Status != nil:
		return e.Status.AuthorID
	case e.Notification != nil:
		return e.Notification.ActorID
	default:
		return e.AccountID
	}
}

// NewStatusEvent builds a StatusCreated, StatusUpdated or StatusDeleted event.
// Tags and language are normalised and the slices are copied.
func NewStatusEvent(kind EventKind, st StatusRef, payload json.RawMessage) (*Event, error) {
	if !kind.isStatus() {
		return nil, fmt.Errorf("%w: %s is not a status event", ErrInvalidEvent, kind)
	}
	if st.ID == "" || st.AuthorID == "" {
		return nil, fmt.Errorf("%w: status id and author are required", ErrInvalidEvent)
	}
	if st.Visibility == 0 {
		return nil, fmt.Errorf("%w: status visibility is required", ErrInvalidEvent)
	}

	tags := make([]string, 0, len(st.Tags))
	for _, t := range st.Tags {
		if t = NormalizeTag(t); t != "" && !slices.Contains(tags, t) {
			tags = append(tags, t)
		}
	}
	st.Tags = tags
	st.Mentions = slices.Clone(st.Mentions)
	st.Language = NormalizeLanguage(st.Language)
	st.Text = strings.TrimSpace(st.Text)

	if kind == EventStatusDeleted && len(payload) == 0 {
		payload, _ = json.Marshal(st.ID)
	}

	return &Event{
		Kind:        kind,
		Status:      &st,
		Payload:     slices.Clone(payload),
		PublishedAt: time.Now(),
	}, nil
}

// NewNotificationEvent builds a NotificationCreated event.
func NewNotificationEvent(n NotificationRef, payload json.RawMessage) (*Event, error) {
	if n.ID == "" || n.RecipientID == "" {
		return nil, fmt.Errorf("%w: notification id and recipient are required", ErrInvalidEvent)
	}
	return &Event{
		Kind:         EventNotificationCreated,
		Notification: &n,
		Payload:      slices.Clone(payload),
		PublishedAt:  time.Now(),
	}, nil
}

// NewAccountUpdatedEvent builds an AccountUpdated event for accountID.
func NewAccountUpdatedEvent(accountID string, payload json.RawMessage) (*Event, error) {
	if accountID == "" {
		return nil, fmt.Errorf("%w: account id is required", ErrInvalidEvent)
	}
	return &Event{
		Kind:        EventAccountUpdated,
		AccountID:   accountID,
		Payload:     slices.Clone(payload),
		PublishedAt: time.Now(),
	}, nil
}

// NewFiltersChangedEvent builds a FiltersChanged event carrying the complete new
// keyword filter set of accountID.
func NewFiltersChangedEvent(accountID string, keywords []Keyword) (*Event, error) {
	if accountID == "" {
		return nil, fmt.Errorf("%w: account id is required", ErrInvalidEvent)
	}
	set, err := NewKeywordSet(keywords...)
	if err != nil {
		return nil, err
	}
	return &Event{
		Kind:        EventFiltersChanged,
		AccountID:   accountID,
		Keywords:    set,
		PublishedAt: time.Now(),
	}, nil
}

// NewRelationshipChangedEvent signals that the relationship between accountID and
// targetID changed (follow, block, mute). It is not delivered to clients.
func NewRelationshipChangedEvent(accountID, targetID string) (*Event, error) {
	if accountID == "" || targetID == "" {
		return nil, fmt.Errorf("%w: both accounts are required", ErrInvalidEvent)
	}
	return &Event{
		Kind:        EventRelationshipChanged,
		AccountID:   accountID,
		TargetID:    targetID,
		PublishedAt: time.Now(),
	}, nil
}
