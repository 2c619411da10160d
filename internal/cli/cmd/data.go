package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/filipexyz/compass/internal/monitor"
	"github.com/filipexyz/compass/pkg/client"
	"github.com/spf13/cobra"
)

var (
	dataParams []string
	dataJq     string
)

var dataCmd = &cobra.Command{
	Use:   "data <key>",
	Short: "Fetch the page data of a stored config",
	Long: `Fetch the data behind a monitor page as the server resolves it, with the
request parameters under "params". A jq filter may reshape the output;
$params holds the request parameters.

Examples:
  compass data orders --param region=eu
  compass data orders --jq '.params'
  compass data orders --param region=eu --jq '.items[] | select(.region == $params.region)'`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		params, err := parseParams(dataParams)
		if err != nil {
			out.Error("%v", err)
			return
		}

		code, err := compileJqFilter(orIdentity(dataJq))
		if err != nil {
			out.Error("Invalid jq filter: %v", err)
			return
		}

		page, err := getClient().Render(context.Background(), args[0], params)
		if err != nil {
			reportPageError(args[0], err)
			return
		}

		results, err := runJqFilter(code, page.Data, params)
		if err != nil {
			out.Error("jq: %v", err)
			return
		}
		for _, r := range results {
			out.JSON(r)
		}
	},
}

var showCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Render a stored config with its server data",
	Long: `Render the monitor page of a stored config in the terminal.

Examples:
  compass show orders
  compass show orders --param region=eu`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		params, err := parseParams(dataParams)
		if err != nil {
			out.Error("%v", err)
			return
		}

		page, err := getClient().Render(context.Background(), args[0], params)
		if err != nil {
			reportPageError(args[0], err)
			return
		}

		var vm monitor.ViewModel
		if err := json.Unmarshal(page.View, &vm); err != nil {
			out.Error("Failed to decode view: %v", err)
			return
		}
		form := viewForm(&vm)
		fillForm(form, formState(form, params))
		printView(&vm)
	},
}

var optionsCmd = &cobra.Command{
	Use:   "options <key>",
	Short: "List the dynamic select options of a stored config",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		params, err := parseParams(dataParams)
		if err != nil {
			out.Error("%v", err)
			return
		}

		options, err := getClient().SelectOptions(context.Background(), args[0], params)
		if err != nil {
			reportPageError(args[0], err)
			return
		}

		if jsonOutput {
			out.JSON(options)
			return
		}

		if len(options) == 0 {
			out.Info("No select options")
			return
		}

		props := make([]string, 0, len(options))
		for p := range options {
			props = append(props, p)
		}
		sort.Strings(props)

		out.Header("Select options")
		for _, p := range props {
			out.KeyValue(p, strings.Join(options[p], ", "))
		}
	},
}

func reportPageError(key string, err error) {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		out.Error("Request failed: %v", err)
		return
	}
	switch apiErr.StatusCode {
	case http.StatusNotFound:
		out.Error("Config %s not found", key)
	case http.StatusForbidden:
		out.Error("Config %s is disabled", key)
	case http.StatusBadGateway, http.StatusGatewayTimeout:
		out.Error("Upstream data source failed: %s", apiErr.Message)
	default:
		out.Error("Request failed: %v", err)
	}
}

func orIdentity(filter string) string {
	if filter == "" {
		return "."
	}
	return filter
}

func init() {
	for _, c := range []*cobra.Command{dataCmd, showCmd, optionsCmd} {
		c.Flags().StringArrayVar(&dataParams, "param", nil, "request parameter as key=value (repeatable)")
	}
	dataCmd.Flags().StringVar(&dataJq, "jq", "", "jq filter applied to the data")

	rootCmd.AddCommand(dataCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(optionsCmd)
}
