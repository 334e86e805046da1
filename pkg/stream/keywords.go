package stream

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"
)

// KeywordContext names where a keyword filter applies.
type KeywordContext string

const (
	ContextHome          KeywordContext = "home"
	ContextNotifications KeywordContext = "notifications"
	ContextPublic        KeywordContext = "public"
	ContextThread        KeywordContext = "thread"
	ContextAccount       KeywordContext = "account"
)

// KeywordAction is what clients do with a matching status. Only ActionHide is
// enforced server side; warn-filtered statuses are delivered and flagged by clients.
type KeywordAction string

const (
	ActionWarn KeywordAction = "warn"
	ActionHide KeywordAction = "hide"
)

// Keyword is one user-defined content filter.
type Keyword struct {
	Phrase    string
	Contexts  []KeywordContext
	WholeWord bool
	Action    KeywordAction
	ExpiresAt time.Time // zero means never
}

type compiledKeyword struct {
	contexts  []KeywordContext
	action    KeywordAction
	expiresAt time.Time
	re        *regexp.Regexp
}

// KeywordSet is an immutable, pre-compiled set of keyword filters belonging to one
// account. A nil *KeywordSet hides nothing.
type KeywordSet struct {
	entries []compiledKeyword
}

// NewKeywordSet compiles the given keywords. Keywords with an empty phrase are skipped.
func NewKeywordSet(keywords ...Keyword) (*KeywordSet, error) {
	set := &KeywordSet{entries: make([]compiledKeyword, 0, len(keywords))}
	for _, kw := range keywords {
		phrase := strings.TrimSpace(kw.Phrase)
		if phrase == "" {
			continue
		}

		pattern := regexp.QuoteMeta(phrase)
		if kw.WholeWord {
			pattern = `\b` + pattern + `\b`
		}
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: keyword %q: %v", ErrInvalidEvent, phrase, err)
		}

		action := kw.Action
		if action == "" {
			action = ActionWarn
		}

		set.entries = append(set.entries, compiledKeyword{
			contexts:  slices.Clone(kw.Contexts),
			action:    action,
			expiresAt: kw.ExpiresAt,
			re:        re,
		})
	}
	return set, nil
}

// Len returns the number of compiled keywords.
func (s *KeywordSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Hides reports whether text is hidden by an unexpired ActionHide keyword that
// applies to ctx.
func (s *KeywordSet) Hides(text string, ctx KeywordContext, now time.Time) bool {
	if s == nil || text == "" {
		return false
	}
	for _, kw := range s.entries {
		if kw.action != ActionHide {
			continue
		}
		if !kw.expiresAt.IsZero() && !now.Before(kw.expiresAt) {
			continue
		}
		if !slices.Contains(kw.contexts, ctx) {
			continue
		}
		if kw.re.MatchString(text) {
			return true
		}
	}
	return false
}
