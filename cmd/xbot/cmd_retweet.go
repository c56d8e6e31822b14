package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"xbot/internal/bot"
)

var quoteText string

// retweetCmd retweets a post, optionally as a quote with AI-drafted
// commentary.
var retweetCmd = &cobra.Command{
	Use:   "retweet [tweet-id]",
	Short: "Retweet a post, or quote it with drafted commentary",
	Long: `Retweets the given tweet unless it is already in the retweet log.

With --quote, the original tweet's text is passed to Gemini to draft a
short comment, which goes through the usual approval gate and is
published as a quote post.

Examples:
  xbot retweet 1234567890
  xbot retweet 1234567890 --quote "the original tweet text"`,
	Args: cobra.ExactArgs(1),
	RunE: runRetweet,
}

func init() {
	retweetCmd.Flags().StringVar(&quoteText, "quote", "", "Quote the tweet; value is the original text to comment on")
}

func runRetweet(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	tweetID := args[0]
	isQuote := quoteText != ""

	// A plain retweet needs no generation.
	rt, err := loadRuntime(isQuote, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	logger.Info("retweeting", zap.String("tweet_id", tweetID), zap.Bool("quote", isQuote))

	if isQuote {
		_, err = rt.pub.QuoteRetweet(ctx, tweetID, quoteText, true)
	} else {
		err = rt.pub.RetweetPost(ctx, tweetID)
	}
	if err != nil {
		if errors.Is(err, bot.ErrApprovalDeclined) || errors.Is(err, bot.ErrDuplicateContent) {
			return nil
		}
		return err
	}
	return nil
}
