package stream

import (
	"slices"
	"time"
)

// Filter holds the per-subscription client filter parameters. Values are
// immutable: an update replaces the whole Filter on the Subscription.
type Filter struct {
	ExcludedLanguages []string
	MediaOnly         bool
}

// NewFilter normalises and de-duplicates the excluded languages.
func NewFilter(excludedLanguages []string, mediaOnly bool) Filter {
	langs := make([]string, 0, len(excludedLanguages))
	for _, l := range excludedLanguages {
		if l = NormalizeLanguage(l); l != "" {
			langs = append(langs, l)
		}
	}
	slices.Sort(langs)
	return Filter{
		ExcludedLanguages: slices.Compact(langs),
		MediaOnly:         mediaOnly,
	}
}

func (f Filter) excludes(lang string) bool {
	return lang != "" && slices.Contains(f.ExcludedLanguages, lang)
}

// Subscription pairs a stream selector with its filter.
type Subscription struct {
	Selector Selector
	Filter   Filter
}

// Relationship describes how a subscriber's account relates to the actor of an event.
type Relationship struct {
	Following bool // subscriber follows the actor
	Blocking  bool // subscriber blocks the actor
	BlockedBy bool // actor blocks the subscriber
	Muting    bool // subscriber mutes the actor
}

func (r Relationship) excludes() bool {
	return r.Blocking || r.BlockedBy || r.Muting
}

// Audience is everything the predicate needs to know about the subscriber side.
// The router gathers it from the relationship collaborator before calling Matches.
type Audience struct {
	AccountID    string
	Relationship Relationship
	ListMember   bool // the actor belongs to the subscribed list
	Keywords     *KeywordSet
	Now          time.Time
}

// Matches reports whether ev may be delivered on sub to the subscriber described by
// aud. It has no side effects; anything it cannot decide yields false.
func Matches(ev *Event, sub Subscription, aud Audience) bool {
	if ev == nil || aud.AccountID == "" || !sub.Selector.Valid() {
		return false
	}

	switch {
	case ev.Kind.isStatus() && ev.Status != nil:
		return matchStatus(ev, sub, aud)
	case ev.Kind == EventNotificationCreated && ev.Notification != nil:
		return matchNotification(ev.Notification, sub, aud)
	case ev.Kind == EventAccountUpdated, ev.Kind == EventFiltersChanged:
		return sub.Selector.Kind == KindUser && ev.AccountID == aud.AccountID
	default:
		return false
	}
}

func matchStatus(ev *Event, sub Subscription, aud Audience) bool {
	st := ev.Status
	self := st.AuthorID == aud.AccountID
	if !self && aud.Relationship.excludes() {
		return false
	}
	if !visibleTo(st, aud, self) {
		return false
	}

	public := st.Visibility == VisibilityPublic
	sel := sub.Selector
	switch sel.Kind {
	case KindPublic:
		if !public {
			return false
		}
	case KindPublicLocal:
		if !public || !st.Local {
			return false
		}
	case KindHashtag:
		if !public || !st.HasTag(sel.Tag) {
			return false
		}
	case KindUser:
		if st.Visibility == VisibilityDirect || !(self || aud.Relationship.Following) {
			return false
		}
	case KindList:
		if st.Visibility == VisibilityDirect || !aud.ListMember {
			return false
		}
	case KindDirect:
		if st.Visibility != VisibilityDirect {
			return false
		}
	default:
		return false
	}

	// Deletions carry no content, so content filters do not apply.
	if ev.Kind == EventStatusDeleted {
		return true
	}
	if sub.Filter.MediaOnly && !st.HasMedia {
		return false
	}
	if sub.Filter.excludes(st.Language) {
		return false
	}
	if !self && aud.Keywords.Hides(st.Text, keywordContext(sel.Kind), aud.Now) {
		return false
	}
	return true
}

func visibleTo(st *StatusRef, aud Audience, self bool) bool {
	switch st.Visibility {
	case VisibilityPublic, VisibilityUnlisted:
		return true
	case VisibilityPrivate:
		return self || aud.Relationship.Following || st.Mentioned(aud.AccountID)
	case VisibilityDirect:
		return self || st.Mentioned(aud.AccountID)
	default:
		return false
	}
}

func matchNotification(n *NotificationRef, sub Subscription, aud Audience) bool {
	if n.RecipientID != aud.AccountID {
		return false
	}
	if n.ActorID != "" && n.ActorID != aud.AccountID && aud.Relationship.excludes() {
		return false
	}
	return sub.Selector.Kind == KindUser || sub.Selector.Kind == KindUserNotification
}

func keywordContext(kind SelectorKind) KeywordContext {
	switch kind {
	case KindPublic, KindPublicLocal, KindHashtag:
		return ContextPublic
	case KindDirect:
		return ContextThread
	case KindUserNotification:
		return ContextNotifications
	default:
		return ContextHome
	}
}
