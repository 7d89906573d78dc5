package main

import (
	"fmt"
	"time"

	"github.com/moabank/counsel/internal/dispatch"
	"github.com/spf13/cobra"
)

func newWaitingCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "waiting",
		Short: "Show the waiting queue in dispatch order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWaiting(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "counsel.yaml", "path to Counsel config file")
	return cmd
}

func runWaiting(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	sessions, err := dispatch.ListWaiting(gormDB)
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		fmt.Fprintln(out, "The waiting queue is empty.")
		return nil
	}

	fmt.Fprintf(out, "%-8s %-10s %-10s %-10s %-8s %s\n", "SESSION", "REFERENCE", "CUSTOMER", "CATEGORY", "PRIORITY", "WAITING")
	now := time.Now()
	for _, s := range sessions {
		fmt.Fprintf(out, "%-8d %-10s %-10d %-10s %-8d %s\n",
			s.ID, shortRef(s.Reference), s.CustomerID, s.Category, s.Priority, formatWait(now.Sub(s.CreatedAt)))
	}
	fmt.Fprintf(out, "\n%d sessions waiting\n", len(sessions))
	return nil
}

// shortRef truncates a uuid reference to its first group for display.
func shortRef(ref string) string {
	if len(ref) > 8 {
		return ref[:8]
	}
	return ref
}

// formatWait renders a wait duration at minute granularity (e.g. "1h05m").
func formatWait(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	mins := int(d.Minutes())
	if mins < 60 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dh%02dm", mins/60, mins%60)
}
