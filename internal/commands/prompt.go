package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formbind/pkg/render"
	"github.com/goliatone/go-formbind/pkg/renderers/tui"
)

// PromptCmd fills a form interactively in the terminal.
func PromptCmd() *cobra.Command {
	return newPromptCmd(nil)
}

func newPromptCmd(driver tui.PromptDriver) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Fill a form interactively",
		Long: `Prompts for every field of a form, re-asking invalid fields until the
answers validate, then prints them as json, form (urlencoded) or pretty.

Examples:
  formbind prompt --schema forms.yaml --form signup
  formbind prompt --schema openapi.yaml --form createPet --format form`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := mustConfig(cmd.Context())
			if err != nil {
				return err
			}
			req, err := newRequest(cfg)
			if err != nil {
				return err
			}

			opts := []tui.Option{
				tui.WithOutputFormat(tui.OutputFormat(cfg.Format)),
				tui.WithMaxAttempts(cfg.MaxAttempts),
				tui.WithLogger(cfg.Logger),
			}
			if driver != nil {
				opts = append(opts, tui.WithPromptDriver(driver))
			}
			renderer, err := tui.New(opts...)
			if err != nil {
				return err
			}

			gen := newOrchestrator(cfg)
			if err := gen.Registry().Register(renderer); err != nil {
				return fmt.Errorf("register prompt renderer: %w", err)
			}
			req.Renderer = renderer.Name()
			req.RenderOptions = render.RenderOptions{Submit: cfg.Submit}

			answers, err := gen.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, answers)
		},
	}

	addSchemaFlags(cmd)
	cmd.Flags().String("format", "", "Output format: json, form or pretty (default json)")
	cmd.Flags().Int("max-attempts", 0, "Prompt rounds before giving up (default 3)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (stdout if empty)")

	return cmd
}
