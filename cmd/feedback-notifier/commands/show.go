package commands

import (
	"errors"
	"feedback-notifier/lib/snapshot"
	"feedback-notifier/lib/timezone"
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newShowCommand(root *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "show [-f <scores.txt>]",
		Short: "Prints the scores stored by the last run.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(root.config)
			if err != nil {
				return fmt.Errorf("read config %s: %w", root.config, err)
			}
			err = timezone.SetLocation(cfg.Timezone)
			if err != nil {
				return fmt.Errorf("invalid timezone: %w", err)
			}

			record, found, parseErrs, err := snapshot.Load(cmd.Context(), file)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("no scores stored at %s: %w", file, os.ErrNotExist)
			}
			for _, perr := range parseErrs {
				slog.Warn("snapshot has an unreadable field", "err", perr)
			}

			title := file
			recorded, err := snapshot.ReadTimestamp(file, timezone.Location)
			if err == nil {
				title = fmt.Sprintf("%s (%s)", recorded.Format(snapshot.TimestampLayout), humanize.Time(recorded))
			} else {
				slog.Warn("snapshot has no readable timestamp", "err", err)
			}
			renderRecord(cmd.OutOrStdout(), title, record)

			if len(parseErrs) > 0 {
				return errors.Join(parseErrs...)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "scores.txt", "The file the scores are stored in.")
	return cmd
}
