package bot

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"xbot/internal/gemini"
)

// ReplyToMentions drafts and publishes a reply for every mention not
// yet in the processed log. Returns the number of replies sent.
// Declined approvals skip the mention without marking it processed, so
// it is offered again next run.
func (p *Publisher) ReplyToMentions(ctx context.Context, requireApproval bool) (int, error) {
	mentions, err := p.platform.Mentions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch mentions: %w", err)
	}

	replied := 0
	for _, m := range mentions {
		done, err := p.store.HasProcessedMention(m.ID)
		if err != nil {
			return replied, fmt.Errorf("failed to check mention log: %w", err)
		}
		if done {
			continue
		}

		fmt.Fprintf(p.out, "\n💬 Mention from @%s: %s\n", m.AuthorUsername, m.Text)

		raw, err := p.gen.CompleteWithSystem(ctx, p.drafter.ReplyPrompt(), "Tweet to reply to: "+m.Text)
		if err != nil {
			p.logger.Error("reply generation failed", zap.String("mention_id", m.ID), zap.Error(err))
			continue
		}
		reply := gemini.CleanDraft(raw)
		if reply == "" {
			continue
		}

		mentionID := m.ID
		_, err = p.gatedPublish(ctx, reply, requireApproval, func(ctx context.Context, text string) (string, error) {
			return p.platform.CreateReply(ctx, text, mentionID)
		})
		if err != nil {
			if errors.Is(err, ErrApprovalDeclined) || errors.Is(err, ErrDuplicateContent) {
				continue
			}
			return replied, err
		}

		if err := p.store.MarkMentionProcessed(m.ID, m.AuthorID, m.AuthorUsername); err != nil {
			p.logger.Error("failed to mark mention processed", zap.String("mention_id", m.ID), zap.Error(err))
		}
		replied++
	}

	return replied, nil
}

// RetweetPost retweets tweetID unless it is already in the retweet log.
func (p *Publisher) RetweetPost(ctx context.Context, tweetID string) error {
	done, err := p.store.HasRetweeted(tweetID)
	if err != nil {
		return fmt.Errorf("failed to check retweet log: %w", err)
	}
	if done {
		fmt.Fprintln(p.out, "⚠️  Already retweeted. Skipping.")
		return ErrDuplicateContent
	}

	if err := p.platform.Retweet(ctx, tweetID); err != nil {
		return fmt.Errorf("failed to retweet: %w", err)
	}
	fmt.Fprintln(p.out, "✅ Retweeted!")

	if err := p.store.RecordRetweet(tweetID, false); err != nil {
		p.logger.Error("failed to record retweet", zap.String("tweet_id", tweetID), zap.Error(err))
	}
	return nil
}

// QuoteRetweet drafts a quote comment about sourceText and publishes
// it as a quote of tweetID, through the usual gate.
func (p *Publisher) QuoteRetweet(ctx context.Context, tweetID, sourceText string, requireApproval bool) (string, error) {
	done, err := p.store.HasRetweeted(tweetID)
	if err != nil {
		return "", fmt.Errorf("failed to check retweet log: %w", err)
	}
	if done {
		fmt.Fprintln(p.out, "⚠️  Already retweeted. Skipping.")
		return "", ErrDuplicateContent
	}

	raw, err := p.gen.CompleteWithSystem(ctx, p.drafter.QuotePrompt(), "Original tweet: "+sourceText)
	if err != nil {
		return "", fmt.Errorf("failed to generate quote: %w", err)
	}
	quote := gemini.CleanDraft(raw)
	if quote == "" {
		return "", fmt.Errorf("%w: model returned empty text", ErrEmptyDraft)
	}

	id, err := p.gatedPublish(ctx, quote, requireApproval, func(ctx context.Context, text string) (string, error) {
		return p.platform.CreateQuote(ctx, text, tweetID)
	})
	if err != nil {
		return "", err
	}

	if err := p.store.RecordRetweet(tweetID, true); err != nil {
		p.logger.Error("failed to record quote retweet", zap.String("tweet_id", tweetID), zap.Error(err))
	}
	return id, nil
}
