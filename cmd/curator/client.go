package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/phrazzld/curator-srs/internal/client"
	"github.com/phrazzld/curator-srs/internal/config"
	"github.com/spf13/cobra"
)

func newClientCommand() *cobra.Command {
	var baseURL string

	command := &cobra.Command{
		Use:   "client",
		Short: "Talk to a running review API server",
	}
	command.PersistentFlags().StringVar(&baseURL, "url", "", "API base URL (default from config)")

	clientConfig := func() (config.ClientConfig, error) {
		cfg, err := config.Load(configFile)
		if err != nil {
			return config.ClientConfig{}, fmt.Errorf("failed to load configuration: %w", err)
		}
		if baseURL != "" {
			cfg.Client.BaseURL = baseURL
		}
		return cfg.Client, nil
	}

	command.AddCommand(newClientQueueCommand(clientConfig))
	command.AddCommand(newClientSubmitCommand(clientConfig))
	return command
}

func newClientQueueCommand(clientConfig func() (config.ClientConfig, error)) *cobra.Command {
	var flags queueFlags

	command := &cobra.Command{
		Use:   "queue",
		Short: "Fetch a user's review queue from the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(flags.userID)
			if err != nil {
				return err
			}
			cfg, err := clientConfig()
			if err != nil {
				return err
			}

			queue, err := client.New(cfg, userID).ReviewQueue(cmd.Context(), client.QueueOptions{
				Limit:           flags.limit,
				NewLimit:        flags.newLimit,
				Order:           flags.order,
				AheadOfSchedule: flags.aheadOfSchedule,
			})
			if err != nil {
				return err
			}

			printQueue(cmd.OutOrStdout(), queue.Items, queue.GeneratedAt)
			return nil
		},
	}

	flags.register(command)
	return command
}

func newClientSubmitCommand(clientConfig func() (config.ClientConfig, error)) *cobra.Command {
	var (
		userID    string
		timeSpent time.Duration
	)

	command := &cobra.Command{
		Use:   "submit <identifier> <quality>",
		Short: "Submit a review rating (0-5) for an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := parseUserID(userID)
			if err != nil {
				return err
			}
			quality, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quality must be an integer: %w", err)
			}
			cfg, err := clientConfig()
			if err != nil {
				return err
			}

			item, err := client.New(cfg, uid).SubmitReview(cmd.Context(), args[0], quality, timeSpent)
			if err != nil {
				return err
			}

			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(),
				"Next review of %s on %s (interval %.0f days, ease %.2f)\n",
				item.Identifier, item.NextReviewAt.Format(time.DateOnly), item.IntervalDays, item.EaseFactor)

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(item)
			}
			return nil
		},
	}

	command.Flags().StringVar(&userID, "user", "", "User ID submitting the review")
	command.Flags().DurationVar(&timeSpent, "time", 0, "Time spent on the review, e.g. 12s")
	command.Flags().Bool("json", false, "Also print the updated item as JSON")
	_ = command.MarkFlagRequired("user")
	return command
}
