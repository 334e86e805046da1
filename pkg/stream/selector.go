package stream

import (
	"fmt"
	"strings"
)

// SelectorKind enumerates the logical streams a connection can subscribe to.
type SelectorKind uint8

const (
	KindPublic SelectorKind = iota + 1
	KindPublicLocal
	KindUser
	KindUserNotification
	KindHashtag
	KindList
	KindDirect
)

// Kinds lists every selector kind in display order.
var Kinds = []SelectorKind{
	KindPublic,
	KindPublicLocal,
	KindUser,
	KindUserNotification,
	KindHashtag,
	KindList,
	KindDirect,
}

func (k SelectorKind) String() string {
	switch k {
	case KindPublic:
		return "public"
	case KindPublicLocal:
		return "public:local"
	case KindUser:
		return "user"
	case KindUserNotification:
		return "user:notification"
	case KindHashtag:
		return "hashtag"
	case KindList:
		return "list"
	case KindDirect:
		return "direct"
	default:
		return "unknown"
	}
}

// Selector identifies one logical stream. User, UserNotification and Direct are
// scoped to the owning account of the connection that subscribes to them.
type Selector struct {
	Kind   SelectorKind
	Tag    string // case-folded hashtag name, KindHashtag only
	ListID string // KindList only
}

func Public() Selector           { return Selector{Kind: KindPublic} }
func PublicLocal() Selector      { return Selector{Kind: KindPublicLocal} }
func User() Selector             { return Selector{Kind: KindUser} }
func UserNotification() Selector { return Selector{Kind: KindUserNotification} }
func Direct() Selector           { return Selector{Kind: KindDirect} }

// Hashtag returns a selector for the given tag. The tag is normalised with NormalizeTag.
func Hashtag(tag string) Selector {
	return Selector{Kind: KindHashtag, Tag: NormalizeTag(tag)}
}

// List returns a selector for the list with the given id.
func List(id string) Selector {
	return Selector{Kind: KindList, ListID: strings.TrimSpace(id)}
}

// String returns the canonical stream name, e.g. "hashtag:rust" or "list:42".
func (s Selector) String() string {
	switch s.Kind {
	case KindHashtag:
		return "hashtag:" + s.Tag
	case KindList:
		return "list:" + s.ListID
	default:
		return s.Kind.String()
	}
}

// StreamTag is the value of the "stream" field of outgoing frames.
func (s Selector) StreamTag() []string {
	switch s.Kind {
	case KindHashtag:
		return []string{"hashtag", s.Tag}
	case KindList:
		return []string{"list", s.ListID}
	default:
		return []string{s.Kind.String()}
	}
}

// Valid reports whether the selector is complete.
func (s Selector) Valid() bool {
	switch s.Kind {
	case KindPublic, KindPublicLocal, KindUser, KindUserNotification, KindDirect:
		return true
	case KindHashtag:
		return s.Tag != ""
	case KindList:
		return s.ListID != ""
	default:
		return false
	}
}

// key returns the registry index key for a subscription owned by accountID.
func (s Selector) key(accountID string) string {
	switch s.Kind {
	case KindPublic:
		return publicKey
	case KindPublicLocal:
		return publicLocalKey
	case KindUser:
		return userKey(accountID)
	case KindUserNotification:
		return notificationKey(accountID)
	case KindHashtag:
		return hashtagKey(s.Tag)
	case KindList:
		return listKey(s.ListID)
	case KindDirect:
		return directKey(accountID)
	default:
		return ""
	}
}

const (
	publicKey      = "public"
	publicLocalKey = "public:local"
)

func userKey(accountID string) string         { return "user:" + accountID }
func notificationKey(accountID string) string { return "user:notification:" + accountID }
func hashtagKey(tag string) string            { return "hashtag:" + tag }
func listKey(listID string) string            { return "list:" + listID }
func directKey(accountID string) string       { return "direct:" + accountID }

// NormalizeTag strips a leading '#' and case-folds the tag.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
}

// ParseSelector parses a client supplied stream name. For the bare "hashtag" and
// "list" names the argument is taken from tag or list respectively. The ":media"
// variants of the public streams report mediaOnly=true.
func ParseSelector(name, tag, list string) (sel Selector, mediaOnly bool, err error) {
	name = strings.TrimSpace(name)
	switch name {
	case "public":
		return Public(), false, nil
	case "public:media":
		return Public(), true, nil
	case "public:local", "local":
		return PublicLocal(), false, nil
	case "public:local:media":
		return PublicLocal(), true, nil
	case "user":
		return User(), false, nil
	case "user:notification", "notifications":
		return UserNotification(), false, nil
	case "direct":
		return Direct(), false, nil
	case "hashtag":
		sel = Hashtag(tag)
	case "list":
		sel = List(list)
	default:
		switch {
		case strings.HasPrefix(name, "hashtag:"):
			sel = Hashtag(strings.TrimPrefix(name, "hashtag:"))
		case strings.HasPrefix(name, "list:"):
			sel = List(strings.TrimPrefix(name, "list:"))
		default:
			return Selector{}, false, fmt.Errorf("%w: %q", ErrUnknownSelector, name)
		}
	}

	if !sel.Valid() {
		return Selector{}, false, fmt.Errorf("%w: %q is missing its argument", ErrUnknownSelector, name)
	}
	return sel, false, nil
}
