// Package bot wires generation, bookkeeping, and publishing into the
// posting pipeline: draft, quota check, dedup check, approval gate,
// publish, record.
package bot

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"xbot/internal/gemini"
	"xbot/internal/ledger"
	"xbot/internal/xapi"
)

// Blocked-state sentinels. Callers distinguish "refused" from "failed".
var (
	ErrQuotaExhausted   = errors.New("monthly post limit reached")
	ErrDuplicateContent = errors.New("similar content already posted")
	ErrApprovalDeclined = errors.New("posting cancelled")
	ErrEmptyDraft       = errors.New("empty message cannot be posted")
	ErrDraftTooLong     = errors.New("message exceeds 280 character limit")
)

// Generator drafts text from a system prompt and user input.
type Generator interface {
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Platform publishes to the social platform.
type Platform interface {
	CreatePost(ctx context.Context, text string) (string, error)
	CreateReply(ctx context.Context, text, inReplyTo string) (string, error)
	CreateQuote(ctx context.Context, text, quotedID string) (string, error)
	Retweet(ctx context.Context, tweetID string) error
	Mentions(ctx context.Context) ([]xapi.Mention, error)
}

// Quota holds the monthly ceiling and the warn margin.
type Quota struct {
	Threshold int
	Max       int
}

// Publisher runs the approval-gated posting pipeline.
type Publisher struct {
	store    *ledger.Store
	gen      Generator
	platform Platform
	drafter  *gemini.Drafter
	quota    Quota
	logger   *zap.Logger

	// Approval gate I/O, injectable for tests. One scanner for the
	// lifetime of the publisher so buffered input survives across
	// consecutive approval prompts.
	in  *bufio.Scanner
	out io.Writer
}

// NewPublisher creates a Publisher. in/out default to the process
// stdio when nil.
func NewPublisher(store *ledger.Store, gen Generator, platform Platform, drafter *gemini.Drafter, quota Quota, logger *zap.Logger, in io.Reader, out io.Writer) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Publisher{
		store:    store,
		gen:      gen,
		platform: platform,
		drafter:  drafter,
		quota:    quota,
		logger:   logger,
		in:       bufio.NewScanner(in),
		out:      out,
	}
}

// GenerateDraft drafts a post about the topic and cleans it up.
func (p *Publisher) GenerateDraft(ctx context.Context, topic string) (string, error) {
	raw, err := p.gen.CompleteWithSystem(ctx, p.drafter.DraftPrompt(), "Topic: "+topic)
	if err != nil {
		return "", fmt.Errorf("failed to generate draft: %w", err)
	}

	draft := gemini.CleanDraft(raw)
	if draft == "" {
		return "", fmt.Errorf("%w: model returned empty text", ErrEmptyDraft)
	}

	p.logger.Info("draft generated",
		zap.String("topic", topic),
		zap.Int("length", utf8.RuneCountInString(draft)))
	return draft, nil
}

// Publish runs the full gate then posts the message. Returns the tweet
// ID on success. State is only recorded after the platform accepts.
func (p *Publisher) Publish(ctx context.Context, message string, requireApproval bool) (string, error) {
	return p.gatedPublish(ctx, message, requireApproval, func(ctx context.Context, text string) (string, error) {
		return p.platform.CreatePost(ctx, text)
	})
}

// Copilot generates a draft for the topic and publishes it with the
// approval gate always on.
func (p *Publisher) Copilot(ctx context.Context, topic string) (string, error) {
	fmt.Fprintf(p.out, "\n🤖 Generating post about: %s\n", topic)

	draft, err := p.GenerateDraft(ctx, topic)
	if err != nil {
		return "", err
	}
	return p.Publish(ctx, draft, true)
}

// gatedPublish applies validation, quota, dedup, and the approval gate
// before calling send, then records the result.
func (p *Publisher) gatedPublish(ctx context.Context, message string, requireApproval bool, send func(context.Context, string) (string, error)) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyDraft
	}
	if n := utf8.RuneCountInString(message); n > gemini.MaxPostLength {
		return "", fmt.Errorf("%w (%d characters)", ErrDraftTooLong, n)
	}

	count, err := p.store.PostCount()
	if err != nil {
		return "", fmt.Errorf("failed to read quota counter: %w", err)
	}
	if count >= p.quota.Max {
		fmt.Fprintf(p.out, "🚫 Monthly post limit reached (%d/%d). Cannot post.\n", count, p.quota.Max)
		return "", fmt.Errorf("%w (%d/%d)", ErrQuotaExhausted, count, p.quota.Max)
	}
	if count >= p.quota.Threshold {
		fmt.Fprintf(p.out, "⚠️  Approaching monthly post limit (%d/%d).\n", count, p.quota.Max)
	}

	posted, err := p.store.HasPosted(message)
	if err != nil {
		return "", fmt.Errorf("failed to check duplicates: %w", err)
	}
	if posted {
		fmt.Fprintln(p.out, "⚠️  Similar content already posted before. Skipping to avoid duplicates.")
		return "", ErrDuplicateContent
	}

	if requireApproval {
		if !p.approve(message, count) {
			fmt.Fprintln(p.out, "❌ Posting cancelled.")
			return "", ErrApprovalDeclined
		}
	}

	tweetID, err := send(ctx, message)
	if err != nil {
		if errors.Is(err, xapi.ErrPaidTierRequired) {
			p.printManualFallback(message)
			return "", err
		}
		p.logger.Error("publish failed", zap.Error(err))
		return "", fmt.Errorf("failed to publish: %w", err)
	}

	fmt.Fprintln(p.out, "✅ Successfully posted!")
	fmt.Fprintf(p.out, "🔗 %s\n", xapi.PostURL(tweetID))

	if err := p.store.IncrementPostCount(); err != nil {
		p.logger.Error("failed to increment post count", zap.Error(err))
	}
	if err := p.store.RecordPost(message, tweetID); err != nil {
		p.logger.Error("failed to record post", zap.Error(err))
	}

	return tweetID, nil
}

// approve shows the preview and reads a y/n answer.
func (p *Publisher) approve(message string, count int) bool {
	line := strings.Repeat("=", 60)
	thin := strings.Repeat("-", 60)

	fmt.Fprintln(p.out, "\n"+line)
	fmt.Fprintln(p.out, "📝 POST PREVIEW:")
	fmt.Fprintln(p.out, thin)
	fmt.Fprintln(p.out, message)
	fmt.Fprintln(p.out, thin)
	fmt.Fprintf(p.out, "Length: %d/%d characters\n", utf8.RuneCountInString(message), gemini.MaxPostLength)
	fmt.Fprintf(p.out, "Posts this month: %d/%d\n", count, p.quota.Max)
	fmt.Fprintln(p.out, line)
	fmt.Fprint(p.out, "\n✅ Post this? (y/n): ")

	if !p.in.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(p.in.Text()))
	return answer == "y" || answer == "yes"
}

// printManualFallback prints the draft so the user can post by hand
// when the developer account cannot post through the API.
func (p *Publisher) printManualFallback(message string) {
	thin := strings.Repeat("-", 60)
	fmt.Fprintln(p.out, "\n❌ POSTING FAILED: X API requires paid credits.")
	fmt.Fprintln(p.out, "💡 New X developer accounts must prepay to enable posting.")
	fmt.Fprintln(p.out, "\n📋 Here is your post to copy-paste manually:")
	fmt.Fprintln(p.out, thin)
	fmt.Fprintln(p.out, message)
	fmt.Fprintln(p.out, thin)
}
