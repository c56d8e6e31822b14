package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"xbot/internal/bot"
)

var postAuto bool

// postCmd generates a post about a topic and publishes it.
var postCmd = &cobra.Command{
	Use:   "post [topic...]",
	Short: "Generate and publish an AI-drafted post",
	Long: `Drafts a post about the given topic with Gemini, then runs the
publishing gate: monthly quota check, duplicate check, and an approval
prompt before anything is sent.

Example:
  xbot post debugging React hooks
  xbot post "Python tips" --auto`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPost,
}

func init() {
	postCmd.Flags().BoolVar(&postAuto, "auto", false, "Skip the approval prompt")
}

func runPost(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	rt, err := loadRuntime(true, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	topic := strings.Join(args, " ")
	logger.Info("generating post", zap.String("topic", topic), zap.Bool("auto", postAuto))

	fmt.Printf("\n🤖 Generating post about: %s\n", topic)
	draft, err := rt.pub.GenerateDraft(ctx, topic)
	if err != nil {
		return fmt.Errorf("failed to generate post: %w", err)
	}

	if _, err := rt.pub.Publish(ctx, draft, !postAuto); err != nil {
		// Gate refusals already explained themselves on stdout.
		if errors.Is(err, bot.ErrApprovalDeclined) {
			return nil
		}
		return err
	}
	return nil
}
