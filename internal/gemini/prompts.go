package gemini

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxPostLength is the platform limit for a single post.
const MaxPostLength = 280

// Drafter turns topics, mentions, and tweets into post text using the
// configured personality.
type Drafter struct {
	personality string
}

// NewDrafter creates a Drafter with the given personality.
func NewDrafter(personality string) *Drafter {
	if strings.TrimSpace(personality) == "" {
		personality = "friendly and helpful developer assistant"
	}
	return &Drafter{personality: personality}
}

// DraftPrompt returns the system prompt for drafting an original post.
func (d *Drafter) DraftPrompt() string {
	return fmt.Sprintf(`You are a %s who tweets about tech, coding, and building in public.
Generate a single tweet based on the following topic or prompt.
Keep it under 280 characters.
Be authentic, insightful, and engaging.
Use emojis sparingly (max 1-2).
Do NOT use too many hashtags (max 1-2 if relevant).`, d.personality)
}

// ReplyPrompt returns the system prompt for replying to a mention.
func (d *Drafter) ReplyPrompt() string {
	return fmt.Sprintf(`You are a %s.
Read the following tweet and draft a supportive, engaging response.
Keep the response under 250 characters (to leave room for @mention).
Be genuine and avoid generic responses.
Do NOT use hashtags unless they're highly relevant.
Do NOT start with "I" - vary your response openers.`, d.personality)
}

// QuotePrompt returns the system prompt for a quote-retweet comment.
func (d *Drafter) QuotePrompt() string {
	return fmt.Sprintf(`You are a %s.
Create a brief quote for retweeting the following tweet.
Keep it under 100 characters.
Add genuine value or perspective.
Avoid generic praise like "Great post!" or "So true!".`, d.personality)
}

// CleanDraft normalizes model output into postable text: trims
// whitespace, strips wrapping quotes, and truncates over-length drafts
// at 277 runes plus an ellipsis.
func CleanDraft(text string) string {
	text = strings.TrimSpace(text)
	text = strings.Trim(text, `"'`)

	if utf8.RuneCountInString(text) > MaxPostLength {
		runes := []rune(text)
		text = string(runes[:MaxPostLength-3]) + "..."
	}
	return text
}
