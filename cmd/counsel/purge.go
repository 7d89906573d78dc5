package main

import (
	"fmt"
	"time"

	"github.com/moabank/counsel/internal/retention"
	"github.com/spf13/cobra"
)

func newPurgeCmd() *cobra.Command {
	var (
		configPath string
		days       int
	)

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Purge closed sessions past the retention window",
		Long:  "Deletes closed sessions, with their transcripts, whose closure is older than the retention window. Runs once and exits; the serve command also runs this on schedule.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPurge(cmd, configPath, days)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "counsel.yaml", "path to Counsel config file")
	cmd.Flags().IntVar(&days, "days", 0, "retention window in days (default: retention.days from config)")
	return cmd
}

func runPurge(cmd *cobra.Command, configPath string, days int) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	if days == 0 {
		days = cfg.Retention.Days
	}
	if days <= 0 {
		return fmt.Errorf("retention window must be positive, got %d", days)
	}

	cutoff := retention.Cutoff(time.Now(), days)
	purged, err := retention.PurgeClosedBefore(gormDB, cutoff)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Purged %d sessions closed before %s\n", purged, cutoff.Format("2006-01-02"))
	return nil
}
