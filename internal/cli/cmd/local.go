package cmd

import (
	"encoding/json"
	"os"

	"github.com/filipexyz/compass/internal/cli/display"
	"github.com/filipexyz/compass/internal/datasource"
	"github.com/filipexyz/compass/internal/monitor"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Validate monitor configuration documents",
	Long: `Validate JSON or YAML monitor configuration documents without a server.
Use - to read from stdin. Exits non-zero when any document is invalid.

Examples:
  compass validate configs/orders.yaml
  compass validate configs/*.json
  cat orders.yaml | compass validate -`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		results := make(map[string]monitor.ValidationResult, len(args))
		failed := false

		for _, path := range args {
			raw, err := readDocument(path)
			if err != nil {
				out.Error("%s: %v", path, err)
				failed = true
				continue
			}

			res := monitor.ValidateDocument(raw)
			results[path] = res
			if !res.Valid {
				failed = true
			}
			if jsonOutput {
				continue
			}

			if res.Valid {
				out.Success("%s", path)
				continue
			}
			out.Error("%s", path)
			for _, e := range res.Errors {
				out.KeyValue("error", e)
			}
		}

		if jsonOutput {
			out.JSON(results)
		}
		if failed {
			os.Exit(1)
		}
	},
}

var (
	renderDataFile string
	renderParams   []string
)

var renderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Render a configuration document locally",
	Long: `Render a monitor configuration document against local data, without a
server. The data file may be JSON or YAML. Parameters are exposed to
expressions under "params"; without a data file they are the data.

Examples:
  compass render orders.yaml --data sample.json
  compass render orders.yaml --param region=eu --param year=2026
  compass render orders.yaml --data sample.json --json`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		raw, err := readDocument(args[0])
		if err != nil {
			out.Error("Failed to read %s: %v", args[0], err)
			os.Exit(1)
		}

		if res := monitor.ValidateDocument(raw); !res.Valid {
			out.Error("%s is invalid", args[0])
			for _, e := range res.Errors {
				out.KeyValue("error", e)
			}
			os.Exit(1)
		}

		mc, err := monitor.DecodeConfig(raw)
		if err != nil {
			out.Error("Failed to decode %s: %v", args[0], err)
			os.Exit(1)
		}

		params, err := parseParams(renderParams)
		if err != nil {
			out.Error("%v", err)
			os.Exit(1)
		}
		state := formState(monitor.ParseFormConfig(mc.FormItems), params)
		params = state.Params()

		var data any = params
		if renderDataFile != "" {
			data, err = readData(renderDataFile)
			if err != nil {
				out.Error("Failed to read data: %v", err)
				os.Exit(1)
			}
		}

		vm := monitor.ParseMonitorConfig(mc, datasource.MergeParams(data, params))
		fillForm(viewForm(vm), state)
		printView(vm)
	},
}

func readData(path string) (any, error) {
	raw, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	doc, err := monitor.ToJSON(raw)
	if err != nil {
		return nil, err
	}
	var data any
	if err := json.Unmarshal(doc, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func printView(vm *monitor.ViewModel) {
	if jsonOutput {
		out.JSON(vm)
		return
	}
	r := display.NewViewRenderer(display.NewColorizer(out.Colors()))
	if err := r.Render(out.Writer(), vm); err != nil {
		out.Error("Failed to render view: %v", err)
	}
}

func init() {
	renderCmd.Flags().StringVar(&renderDataFile, "data", "", "data file (JSON or YAML, - for stdin)")
	renderCmd.Flags().StringArrayVar(&renderParams, "param", nil, "request parameter as key=value (repeatable)")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(renderCmd)
}
