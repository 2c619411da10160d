package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/filipexyz/compass/internal/domain"
	"github.com/filipexyz/compass/internal/monitor"
	"github.com/filipexyz/compass/pkg/client"
	"github.com/spf13/cobra"
)

var monitorsCmd = &cobra.Command{
	Use:     "monitors",
	Aliases: []string{"monitor"},
	Short:   "Manage stored monitor configurations",
}

var monitorsListOpts client.ConfigListOptions

var monitorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List monitor configurations",
	Run: func(cmd *cobra.Command, args []string) {
		result, err := getClient().ConfigList(context.Background(), monitorsListOpts)
		if err != nil {
			out.Error("Failed to list configs: %v", err)
			return
		}

		if jsonOutput {
			out.JSON(result)
			return
		}

		if len(result.Configs) == 0 {
			out.Info("No configs found")
			return
		}

		out.Header(fmt.Sprintf("Configs (%d of %d)", len(result.Configs), result.Total))
		for _, c := range result.Configs {
			status := "enabled"
			if c.Status != domain.StatusEnabled {
				status = "disabled"
			}
			fmt.Fprintf(out.Writer(), "  %-6d %-24s %-32s %-8s %s\n",
				c.ID, truncate(c.Key, 24), truncate(c.Name, 32), status, c.UpdateTime.Format("2006-01-02 15:04"))
		}
	},
}

var monitorsGetCmd = &cobra.Command{
	Use:   "get <id|key>",
	Short: "Show a monitor configuration",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := getClient()
		ctx := context.Background()

		var (
			cfg *client.Config
			err error
		)
		if id, perr := strconv.ParseInt(args[0], 10, 64); perr == nil {
			cfg, err = c.ConfigGet(ctx, id)
		} else {
			cfg, err = c.ConfigGetByKey(ctx, args[0])
		}
		if err != nil {
			if client.IsNotFound(err) {
				out.Error("Config %s not found", args[0])
				return
			}
			out.Error("Failed to get config: %v", err)
			return
		}

		if jsonOutput {
			out.JSON(cfg)
			return
		}

		out.Header(cfg.Name)
		out.KeyValue("ID", strconv.FormatInt(cfg.ID, 10))
		out.KeyValue("Key", cfg.Key)
		out.KeyValue("Status", cfg.Status)
		if cfg.Remark != "" {
			out.KeyValue("Remark", cfg.Remark)
		}
		out.KeyValue("Updated", fmt.Sprintf("%s by %s", cfg.UpdateTime.Format("2006-01-02 15:04:05"), cfg.UpdateBy))
		out.Divider()
		fmt.Fprintln(out.Writer(), indentJSON(cfg.ConfigJSON))
	},
}

var (
	monitorsKey    string
	monitorsName   string
	monitorsStatus string
	monitorsRemark string
)

var monitorsCreateCmd = &cobra.Command{
	Use:   "create <file>",
	Short: "Create a monitor configuration from a document",
	Long: `Create a monitor configuration from a JSON or YAML document. The key and
name default to the document's code and name.

Examples:
  compass monitors create orders.yaml
  compass monitors create orders.yaml --key orders-eu --status 1`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		in, err := configInput(args[0])
		if err != nil {
			out.Error("%v", err)
			return
		}

		cfg, err := getClient().ConfigCreate(context.Background(), in)
		if err != nil {
			if client.IsConflict(err) {
				out.Error("Config key %q already exists", in.Key)
				return
			}
			out.Error("Failed to create config: %v", err)
			return
		}

		if jsonOutput {
			out.JSON(cfg)
			return
		}
		out.Success("Created config %s (id %d)", cfg.Key, cfg.ID)
	},
}

var monitorsUpdateCmd = &cobra.Command{
	Use:   "update <id> <file>",
	Short: "Replace a monitor configuration",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			out.Error("Invalid config id %q", args[0])
			return
		}

		in, err := configInput(args[1])
		if err != nil {
			out.Error("%v", err)
			return
		}
		in.ID = id

		cfg, err := getClient().ConfigUpdate(context.Background(), in)
		if err != nil {
			out.Error("Failed to update config: %v", err)
			return
		}

		if jsonOutput {
			out.JSON(cfg)
			return
		}
		out.Success("Updated config %s (id %d)", cfg.Key, cfg.ID)
	},
}

var monitorsDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete monitor configurations",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ids := make([]int64, len(args))
		for i, a := range args {
			id, err := strconv.ParseInt(a, 10, 64)
			if err != nil {
				out.Error("Invalid config id %q", a)
				return
			}
			ids[i] = id
		}

		n, err := getClient().ConfigDelete(context.Background(), ids...)
		if err != nil {
			out.Error("Failed to delete configs: %v", err)
			return
		}

		if jsonOutput {
			out.JSON(map[string]int{"deleted": n})
			return
		}
		out.Success("Deleted %d config(s)", n)
	},
}

// configInput builds a create or update body from a local document, which
// must validate first.
func configInput(path string) (client.ConfigInput, error) {
	raw, err := readDocument(path)
	if err != nil {
		return client.ConfigInput{}, err
	}

	if res := monitor.ValidateDocument(raw); !res.Valid {
		for _, e := range res.Errors {
			out.KeyValue("error", e)
		}
		return client.ConfigInput{}, fmt.Errorf("%s is invalid", path)
	}

	doc, err := monitor.ToJSON(raw)
	if err != nil {
		return client.ConfigInput{}, err
	}
	mc, err := monitor.DecodeConfig(doc)
	if err != nil {
		return client.ConfigInput{}, err
	}

	in := client.ConfigInput{
		Key:        mc.Code,
		Name:       mc.Name,
		ConfigJSON: json.RawMessage(doc),
		Status:     monitorsStatus,
		Remark:     monitorsRemark,
	}
	if monitorsKey != "" {
		in.Key = monitorsKey
	}
	if monitorsName != "" {
		in.Name = monitorsName
	}
	return in, nil
}

func indentJSON(s string) string {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return s
	}
	return string(b)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func init() {
	monitorsListCmd.Flags().StringVar(&monitorsListOpts.Key, "key", "", "filter by key (substring)")
	monitorsListCmd.Flags().StringVar(&monitorsListOpts.Name, "name", "", "filter by name (substring)")
	monitorsListCmd.Flags().StringVar(&monitorsListOpts.Status, "status", "", "filter by status (0 enabled, 1 disabled)")
	monitorsListCmd.Flags().IntVar(&monitorsListOpts.Limit, "limit", 50, "max configs to return")
	monitorsListCmd.Flags().IntVar(&monitorsListOpts.Offset, "offset", 0, "configs to skip")

	for _, c := range []*cobra.Command{monitorsCreateCmd, monitorsUpdateCmd} {
		c.Flags().StringVar(&monitorsKey, "key", "", "config key (default: document code)")
		c.Flags().StringVar(&monitorsName, "name", "", "config name (default: document name)")
		c.Flags().StringVar(&monitorsStatus, "status", domain.StatusEnabled, "0 enabled, 1 disabled")
		c.Flags().StringVar(&monitorsRemark, "remark", "", "remark")
	}

	monitorsCmd.AddCommand(monitorsListCmd)
	monitorsCmd.AddCommand(monitorsGetCmd)
	monitorsCmd.AddCommand(monitorsCreateCmd)
	monitorsCmd.AddCommand(monitorsUpdateCmd)
	monitorsCmd.AddCommand(monitorsDeleteCmd)
	rootCmd.AddCommand(monitorsCmd)
}
