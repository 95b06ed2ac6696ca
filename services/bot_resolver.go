package services

import (
	"log"
	"regexp"

	"med_voice_app_go/models"
)

// BotRef is the outcome of bot resolution. Exactly one of three states:
// a real bot (Bot != nil), a synthetic placeholder (Placeholder true, Name
// holds the recovered name) when the true bot could not be located but the
// call should still be logged, or unresolved (zero value).
type BotRef struct {
	Bot         *models.Bot
	Placeholder bool
	Name        string
}

// Resolved reports whether the ref can be attached to a call log
func (r BotRef) Resolved() bool {
	return r.Bot != nil || r.Placeholder
}

// NameExtractor recovers a candidate name from free text. Extractors are
// tried in order; extending the chain never touches call sites.
type NameExtractor func(text string) (string, bool)

func regexExtractor(pattern string) NameExtractor {
	re := regexp.MustCompile(pattern)
	return func(text string) (string, bool) {
		match := re.FindStringSubmatch(text)
		if len(match) < 2 {
			return "", false
		}
		return match[1], true
	}
}

// botNameExtractors recover a bot name from call summaries, e.g.
// "the agent Clara confirmed..." or "...identifying as MedAssist"
var botNameExtractors = []NameExtractor{
	regexExtractor(`(?i)agent ([A-Za-z][\w-]+)`),
	regexExtractor(`(?i)identifying as ([A-Za-z][\w-]+)`),
}

// ExtractBotName runs the extractor chain over free text
func ExtractBotName(text string) (string, bool) {
	for _, extract := range botNameExtractors {
		if name, ok := extract(text); ok {
			return name, true
		}
	}
	return "", false
}

// BotResolver maps webhook identifiers to stored bots
type BotResolver struct {
	store *Store
}

func NewBotResolver(store *Store) *BotResolver {
	return &BotResolver{store: store}
}

// Resolve finds the best-matching bot for the payload's identifier and
// optional name hints, stopping at the first success:
//  1. exact UID match
//  2. case-insensitive substring match against bot names (first row in the
//     store's creation order, so repeated resolution is deterministic)
//  3. a name hint (structured or recovered from the summary) that matches
//     no stored bot yields a placeholder ref so the call can still be
//     logged, at the risk of misattribution
func (r *BotResolver) Resolve(uid, nameHint, summary string) (BotRef, error) {
	if uid != "" {
		bot, err := r.store.FindBotByUID(uid)
		if err != nil {
			return BotRef{}, err
		}
		if bot != nil {
			return BotRef{Bot: bot}, nil
		}

		log.Printf("Bot not found by uid %q, trying name search", uid)
		bots, err := r.store.FindBotsByNameLike(uid)
		if err != nil {
			return BotRef{}, err
		}
		if len(bots) > 0 {
			return BotRef{Bot: &bots[0]}, nil
		}
	}

	name := nameHint
	if name == "" && summary != "" {
		if extracted, ok := ExtractBotName(summary); ok {
			name = extracted
		}
	}
	if name == "" {
		return BotRef{}, nil
	}

	bots, err := r.store.FindBotsByNameLike(name)
	if err != nil {
		return BotRef{}, err
	}
	if len(bots) > 0 {
		return BotRef{Bot: &bots[0]}, nil
	}

	log.Printf("No bot matches %q, falling back to placeholder", name)
	return BotRef{Placeholder: true, Name: name}, nil
}
