package cmd

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/filipexyz/compass/pkg/client"
	"github.com/spf13/cobra"
)

var (
	eventsKey   string
	eventsFrom  string
	eventsLimit int
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List config change events",
	Long: `List the config change events recorded by the server's event stream.

Examples:
  compass events
  compass events --key orders
  compass events --from 24h --limit 50
  compass events --from 2026-01-01T00:00:00Z`,
	Run: func(cmd *cobra.Command, args []string) {
		var from time.Time
		if eventsFrom != "" {
			if t, err := time.Parse(time.RFC3339, eventsFrom); err == nil {
				from = t
			} else if d, err := time.ParseDuration(eventsFrom); err == nil {
				from = time.Now().Add(-d)
			} else {
				out.Error("Invalid --from %q, want RFC3339 or a duration like 1h", eventsFrom)
				return
			}
		}

		result, err := getClient().Events(context.Background(), eventsKey, from, eventsLimit)
		if err != nil {
			out.Error("Failed to list events: %v", err)
			return
		}

		if jsonOutput {
			for _, e := range result.Events {
				out.ConfigEvent(e.Seq, e.Event.Action, e.Event.ConfigKey, e.Event.Origin, e.Timestamp)
			}
			return
		}

		if result.Count == 0 {
			out.Info("No events found")
			return
		}

		out.Header("Events")
		out.KeyValue("Count", strconv.Itoa(result.Count))
		out.Divider()

		for _, e := range result.Events {
			out.ConfigEvent(e.Seq, e.Event.Action, e.Event.ConfigKey, e.Event.Origin, e.Timestamp)
		}
	},
}

var watchKeys []string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow config changes live",
	Long: `Follow config changes as the server applies them, including changes made
by peer servers. Stop with Ctrl-C.

Examples:
  compass watch
  compass watch --key orders --key stock`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out.Info("Watching %s for config changes", serverURL)
		err := getClient().Watch(ctx, watchKeys, func(c client.Change) {
			out.ConfigEvent(0, c.Action, c.ConfigKey, c.Origin, c.Timestamp)
		})
		if err != nil {
			out.Error("Watch failed: %v", err)
		}
	},
}

func init() {
	watchCmd.Flags().StringArrayVar(&watchKeys, "key", nil, "config key to watch (repeatable, default all)")
	rootCmd.AddCommand(watchCmd)

	eventsCmd.Flags().StringVar(&eventsKey, "key", "", "filter by config key")
	eventsCmd.Flags().StringVar(&eventsFrom, "from", "", "start time (RFC3339 or duration like 1h, 24h)")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 100, "max events to return")

	rootCmd.AddCommand(eventsCmd)
}
