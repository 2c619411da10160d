package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check server health",
	Long:  `Check that the compassd server is up and that its backends are reachable.`,
	Run: func(cmd *cobra.Command, args []string) {
		c := getClient()
		ctx := context.Background()

		if err := c.Health(ctx); err != nil {
			if jsonOutput {
				out.JSON(map[string]any{
					"status": "error",
					"error":  err.Error(),
				})
			} else {
				out.Error("Server unreachable: %v", err)
			}
			return
		}

		ready, err := c.Ready(ctx)
		if ready == nil {
			out.Error("Readiness check failed: %v", err)
			return
		}

		if jsonOutput {
			out.JSON(ready)
			return
		}

		if err != nil {
			out.Warn("Server is up but not ready")
		} else {
			out.Success("Server is healthy")
		}
		out.KeyValue("Server", c.ServerURL())
		out.KeyValue("Status", ready.Status)
		out.KeyValue("Database", ready.Database)
		out.KeyValue("Cache", ready.Cache)
		out.KeyValue("NATS", ready.NATS)
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
