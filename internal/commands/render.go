package commands

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formbind/pkg/render"
)

// RenderCmd renders a form through a registered renderer.
func RenderCmd() *cobra.Command {
	var (
		output     string
		validate   bool
		values     []string
		submission string
		errorsPath string
		fields     string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a form as HTML",
		Long: `Renders a form with the configured renderer. Submitted values prefill
the fields; with --validate their errors are rendered too.

Examples:
  formbind render --schema forms.yaml --form signup --action /signup
  formbind render --schema openapi.yaml --form createPet --output pet.html
  formbind render --schema openapi.yaml --form createPet --errors api-errors.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := mustConfig(cmd.Context())
			if err != nil {
				return err
			}
			req, err := newRequest(cfg)
			if err != nil {
				return err
			}
			if submission != "" || len(values) > 0 {
				req.Submission, err = readSubmission(submission, values)
				if err != nil {
					return err
				}
			}
			if errorsPath != "" {
				req.ErrorPayload, err = readErrorPayload(errorsPath)
				if err != nil {
					return err
				}
			}
			req.Renderer = cfg.Renderer
			req.Validate = validate
			req.RenderOptions = render.RenderOptions{
				Action: cfg.Action,
				Method: cfg.Method,
				Submit: cfg.Submit,
				Subset: render.FieldSubset{Names: render.ParseTokenList(fields)},
			}

			html, err := newOrchestrator(cfg).Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, html)
		},
	}

	addSchemaFlags(cmd)
	cmd.Flags().StringP("renderer", "r", "", "Renderer name (default vanilla)")
	cmd.Flags().String("action", "", "Form action URL")
	cmd.Flags().String("method", "", "Form method (default post)")
	cmd.Flags().String("submit", "", "Submit button label")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (stdout if empty)")
	cmd.Flags().BoolVar(&validate, "validate", false, "Validate the submission and render errors")
	cmd.Flags().StringArrayVar(&values, "value", nil, "Prefilled value as key=value (repeatable)")
	cmd.Flags().StringVar(&submission, "submission", "", "Submission file used to prefill the form")
	cmd.Flags().StringVar(&errorsPath, "errors", "", "JSON file of backend errors keyed by field path")
	cmd.Flags().StringVar(&fields, "fields", "", "Comma separated top-level fields to render")

	return cmd
}
