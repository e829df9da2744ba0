package smalltalk

import (
	"context"
	"math/rand"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/zhouzirui/weatherchat/backend/internal/i18n"
	"github.com/zhouzirui/weatherchat/backend/internal/model/chat"
)

// Companion generates a free-form reply when no canned group matches.
type Companion interface {
	Chat(ctx context.Context, locale i18n.Locale, history []chat.Message, text string) (string, error)
}

// Responder produces canned chit-chat replies from the locale dictionary.
type Responder struct {
	catalog   *i18n.Catalog
	companion Companion
	pick      func(n int) int
	log       *zap.Logger
}

// Option configures a Responder.
type Option func(*Responder)

// WithCompanion enables the LLM fallback for unmatched utterances.
func WithCompanion(c Companion) Option {
	return func(r *Responder) {
		r.companion = c
	}
}

// WithPicker replaces the random variant picker, mainly for tests.
func WithPicker(pick func(n int) int) Option {
	return func(r *Responder) {
		r.pick = pick
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Responder) {
		r.log = log
	}
}

// NewResponder creates a Responder over catalog.
func NewResponder(catalog *i18n.Catalog, opts ...Option) *Responder {
	r := &Responder{
		catalog: catalog,
		pick:    rand.Intn,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.Named("smalltalk")
	return r
}

// Match checks the locale's keyword groups in order and returns the reply
// of the first group that matches.
func (r *Responder) Match(locale i18n.Locale, text string) (string, bool) {
	normalized := strings.ToLower(text)
	for _, group := range r.catalog.Get(locale).SmallTalk {
		for _, keyword := range group.Keywords {
			if containsKeyword(normalized, strings.ToLower(keyword)) {
				return r.choose(group.Replies), true
			}
		}
	}
	return "", false
}

// Reply answers a chit-chat utterance. It never fails: unmatched input goes
// to the companion when configured, then to the "didn't understand" text.
func (r *Responder) Reply(ctx context.Context, locale i18n.Locale, history []chat.Message, text string) string {
	if reply, ok := r.Match(locale, text); ok {
		return reply
	}

	if r.companion != nil {
		reply, err := r.companion.Chat(ctx, locale, history, text)
		if err == nil && strings.TrimSpace(reply) != "" {
			return strings.TrimSpace(reply)
		}
		if err != nil {
			r.log.Warn("companion reply failed, using canned fallback", zap.Error(err))
		}
	}

	return r.catalog.Get(locale).Fallback
}

func (r *Responder) choose(replies []string) string {
	if len(replies) == 1 {
		return replies[0]
	}
	return replies[r.pick(len(replies))]
}

// containsKeyword matches Latin keywords on word boundaries so that "hi"
// does not fire on "this"; other scripts match by substring.
func containsKeyword(text, keyword string) bool {
	if keyword == "" {
		return false
	}
	if !isLatin(keyword) {
		return strings.Contains(text, keyword)
	}

	offset := 0
	for {
		idx := strings.Index(text[offset:], keyword)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(keyword)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return true
		}
		offset = start + 1
	}
}

func isLatin(s string) bool {
	for _, r := range s {
		if r >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func boundaryBefore(text string, idx int) bool {
	if idx == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:idx])
	return !isWordRune(r)
}

func boundaryAfter(text string, idx int) bool {
	if idx >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[idx:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
