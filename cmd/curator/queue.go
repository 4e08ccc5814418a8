package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/phrazzld/curator-srs/internal/domain/ranking"
	"github.com/spf13/cobra"
)

// queueFlags are the ranking overrides shared by the local and remote queue commands.
type queueFlags struct {
	userID          string
	limit           int
	newLimit        int
	order           string
	aheadOfSchedule bool
}

func (f *queueFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.userID, "user", "", "User ID whose queue to show")
	flags.IntVar(&f.limit, "limit", 0, "Maximum number of items (default from config)")
	flags.IntVar(&f.newLimit, "new-limit", 0, "Maximum number of never-reviewed items (default from config)")
	flags.StringVar(&f.order, "order", "", "Queue order: urgency, random, oldest, difficulty or interleaved")
	flags.BoolVar(&f.aheadOfSchedule, "ahead", false, "Include new items that are not yet due")
	_ = cmd.MarkFlagRequired("user")
}

// apply overlays the flags that were set on the configured defaults.
func (f *queueFlags) apply(cfg ranking.Config) ranking.Config {
	if f.limit > 0 {
		cfg.DailyReviewLimit = f.limit
	}
	if f.newLimit > 0 {
		cfg.NewItemsPerDay = f.newLimit
	}
	if f.order != "" {
		cfg.Order = ranking.Order(f.order)
	}
	if f.aheadOfSchedule {
		cfg.AheadOfSchedule = true
	}
	return cfg
}

func parseUserID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("invalid user ID %q", raw)
	}
	return id, nil
}

func newQueueCommand() *cobra.Command {
	var flags queueFlags

	command := &cobra.Command{
		Use:   "queue",
		Short: "Show a user's ranked review queue from the local database",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(flags.userID)
			if err != nil {
				return err
			}

			app, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer app.cleanup()

			cfg := flags.apply(app.config.Ranking.Config)
			if err := cfg.Validate(); err != nil {
				return err
			}

			entries, err := app.reviewService.GetReviewQueue(cmd.Context(), userID, cfg)
			if err != nil {
				return err
			}

			printQueue(cmd.OutOrStdout(), entries, time.Now())
			return nil
		},
	}

	flags.register(command)
	return command
}

// printQueue renders entries one per line, highlighting overdue and new items.
func printQueue(w io.Writer, entries []ranking.Entry, now time.Time) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "Nothing to review.")
		return
	}

	bold := color.New(color.Bold)
	overdue := color.New(color.FgRed)
	fresh := color.New(color.FgCyan)
	faint := color.New(color.Faint)

	bold.Fprintf(w, "%-3s %-32s %-12s %7s  %s\n", "#", "ITEM", "TYPE", "SCORE", "DUE")
	for i, e := range entries {
		due := faint.Sprint(e.NextReviewAt.Format(time.DateOnly))
		switch {
		case e.IsNew:
			due = fresh.Sprint("new")
		case e.NextReviewAt.Before(now):
			days := int(now.Sub(e.NextReviewAt).Hours() / 24)
			due = overdue.Sprintf("%s (%dd overdue)", e.NextReviewAt.Format(time.DateOnly), days)
		}
		fmt.Fprintf(w, "%-3d %-32s %-12s %7.3f  %s\n", i+1, e.Identifier, e.ContentType, e.Score, due)
	}
}
