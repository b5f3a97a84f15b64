// Command athanctl is the athan-notify operations CLI.
//
// Usage:
//
//	athanctl subscribers
//	athanctl timings --lat 30.05 --lon 31.24
//	athanctl send --chat 123456 --text "test message"
//	athanctl pass
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/athanhub/athan-notify/internal/config"
	"github.com/athanhub/athan-notify/internal/db"
	"github.com/athanhub/athan-notify/internal/engine"
	"github.com/athanhub/athan-notify/internal/store"
	"github.com/athanhub/athan-notify/internal/telegram"
	"github.com/athanhub/athan-notify/internal/timings"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "athanctl",
		Short: "athan-notify operations CLI",
	}

	root.AddCommand(subscribersCmd())
	root.AddCommand(timingsCmd())
	root.AddCommand(sendCmd())
	root.AddCommand(passCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// subscribers command
// --------------------------------------------------------------------------

func subscribersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "subscribers",
		Short: "List registered subscribers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				st := store.New(pool.Pool, logger)
				subs, err := st.LoadAll(ctx)
				if err != nil {
					return fmt.Errorf("load subscribers: %w", err)
				}
				for _, sub := range subs {
					fmt.Printf("%d\t%s\t%s\t%d markers\n",
						sub.ChatID, sub.Timezone, sub.FetchedDate, len(sub.Markers))
				}
				logger.Info("Listed subscribers", "count", len(subs))
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// timings command
// --------------------------------------------------------------------------

func timingsCmd() *cobra.Command {
	var lat, lon float64
	cmd := &cobra.Command{
		Use:   "timings",
		Short: "Look up prayer timings for a coordinate",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			client := timings.NewClient(cfg.TimingsBaseURL, cfg.CalculationMethod, cfg.TimingsPerMinute, logger)
			day, err := client.Resolve(ctx, lat, lon)
			if err != nil {
				return fmt.Errorf("resolve timings: %w", err)
			}

			fmt.Printf("date: %s  timezone: %s  hijri month: %d  weekday: %s\n",
				day.Date, day.Timezone, day.HijriMonth, day.Weekday)
			for kind, clock := range day.Times {
				fmt.Printf("%-8s %s\n", kind, clock)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}

// --------------------------------------------------------------------------
// send command
// --------------------------------------------------------------------------

func sendCmd() *cobra.Command {
	var chatID int64
	var text string
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a test message to a chat",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			sender := telegram.NewSender(cfg.BotToken, "", logger)
			if err := sender.Send(ctx, chatID, text); err != nil {
				return fmt.Errorf("send message: %w", err)
			}
			logger.Info("Message sent", "chat_id", chatID)
			return nil
		},
	}
	cmd.Flags().Int64Var(&chatID, "chat", 0, "Chat ID")
	cmd.Flags().StringVar(&text, "text", "", "Message text")
	_ = cmd.MarkFlagRequired("chat")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

// --------------------------------------------------------------------------
// pass command
// --------------------------------------------------------------------------

func passCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pass",
		Short: "Run one notification pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				st := store.New(pool.Pool, logger)
				provider := timings.NewClient(cfg.TimingsBaseURL, cfg.CalculationMethod, cfg.TimingsPerMinute, logger)
				sender := telegram.NewSender(cfg.BotToken, "", logger)

				eng := engine.New(engine.Params{
					Store:        st,
					Provider:     provider,
					Dispatcher:   sender,
					Logger:       logger,
					Offsets:      cfg.Offsets,
					MarkerPolicy: cfg.MarkerPolicy,
					Workers:      cfg.EngineWorkers,
					ReminderZone: cfg.ReminderZone,
				})
				eng.RunPass(ctx)
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------

func withPool(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}
