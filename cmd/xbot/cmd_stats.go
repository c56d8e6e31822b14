package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// statsCmd shows posting statistics and remaining quota.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show bot statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime(false, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	stats, err := rt.store.GetStats()
	if err != nil {
		return fmt.Errorf("failed to read statistics: %w", err)
	}

	line := strings.Repeat("=", 40)
	max := rt.cfg.Quota.Max

	fmt.Println("\n📊 Bot Statistics")
	fmt.Println(line)
	fmt.Printf("📝 Posts this month:      %d/%d\n", stats.CurrentMonthPosts, max)
	fmt.Printf("📨 Total posts published: %d\n", stats.TotalPosts)
	fmt.Printf("💬 Mentions processed:    %d\n", stats.TotalMentions)
	fmt.Printf("🔁 Retweets:              %d\n", stats.TotalRetweets)
	fmt.Println(line)

	remaining := max - stats.CurrentMonthPosts
	if remaining < 0 {
		remaining = 0
	}
	if remaining < 50 {
		fmt.Printf("⚠️  Warning: Only %d posts remaining this month!\n", remaining)
	} else {
		fmt.Printf("✅ %d posts remaining this month\n", remaining)
	}

	return nil
}
