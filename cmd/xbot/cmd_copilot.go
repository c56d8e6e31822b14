package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"xbot/internal/bot"
)

// copilotCmd is the recommended flow: generate, preview, approve.
var copilotCmd = &cobra.Command{
	Use:   "copilot [topic...]",
	Short: "Generate a post and approve it before publishing (recommended)",
	Long: `Drafts a post about the given topic and always shows the preview
and approval prompt before publishing.

Example:
  xbot copilot "the future of AI"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCopilot,
}

func runCopilot(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	rt, err := loadRuntime(true, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	topic := strings.Join(args, " ")
	logger.Info("copilot mode", zap.String("topic", topic))

	if _, err := rt.pub.Copilot(ctx, topic); err != nil {
		if errors.Is(err, bot.ErrApprovalDeclined) {
			return nil
		}
		return err
	}
	return nil
}
