package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var replyAuto bool

// replyCmd drafts replies to mentions that have not been handled yet.
var replyCmd = &cobra.Command{
	Use:   "reply",
	Short: "Reply to unprocessed mentions",
	Long: `Fetches recent mentions of the configured account, skips the ones
already replied to, and drafts an approval-gated reply for the rest.

Requires X_USER_ID to be configured.`,
	Args: cobra.NoArgs,
	RunE: runReply,
}

func init() {
	replyCmd.Flags().BoolVar(&replyAuto, "auto", false, "Skip the approval prompt")
}

func runReply(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	rt, err := loadRuntime(true, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	logger.Info("processing mentions", zap.Bool("auto", replyAuto))

	replied, err := rt.pub.ReplyToMentions(ctx, !replyAuto)
	if err != nil {
		return err
	}

	if replied == 0 {
		fmt.Println("No new mentions to reply to.")
	} else {
		fmt.Printf("\nReplied to %d mention(s).\n", replied)
	}
	return nil
}
