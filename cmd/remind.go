package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

func remindCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Run one reminder scan and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(false)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			res, err := a.services.Reminders.Scan(ctx, time.Now())
			if err != nil {
				return err
			}
			a.log.Info().
				Int("sent", res.Sent).
				Int("failed", res.Failed).
				Int("skipped", res.Skipped).
				Msg("reminder scan finished")
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "abort the scan after this long")
	return cmd
}
