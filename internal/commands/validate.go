package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ErrInvalidSubmission is returned when validation fails so the process
// exits non-zero after the report is printed.
var ErrInvalidSubmission = errors.New("submission is invalid")

type validationReport struct {
	Form       string              `json:"form"`
	Valid      bool                `json:"valid"`
	Data       map[string]any      `json:"data"`
	Errors     map[string][]string `json:"errors,omitempty"`
	FormErrors []string            `json:"form_errors,omitempty"`
}

// ValidateCmd binds a submission to a form and prints the validation report.
func ValidateCmd() *cobra.Command {
	var (
		values     []string
		submission string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a submission against a form",
		Long: `Binds values to a form, runs its validators and prints a JSON report
with the coerced data and the errors per field.

Examples:
  formbind validate --schema forms.yaml --form signup --value email=ada@example.com
  formbind validate --schema openapi.yaml --form createPet --submission pet.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := mustConfig(cmd.Context())
			if err != nil {
				return err
			}
			req, err := newRequest(cfg)
			if err != nil {
				return err
			}
			req.Submission, err = readSubmission(submission, values)
			if err != nil {
				return err
			}
			req.Validate = true

			result, err := newOrchestrator(cfg).Bind(cmd.Context(), req)
			if err != nil {
				return err
			}

			report := validationReport{
				Form:       cfg.Form,
				Valid:      result.Valid,
				Data:       result.Form.Data(),
				Errors:     result.Form.Errors(),
				FormErrors: result.Form.FormErrors(),
			}
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(report); err != nil {
				return fmt.Errorf("encode report: %w", err)
			}

			cfg.Logger.Debug("validation finished",
				zap.String("form", cfg.Form),
				zap.Bool("valid", result.Valid),
				zap.Int("errors", len(report.Errors)),
			)
			if !result.Valid {
				return fmt.Errorf("%w: %s", ErrInvalidSubmission, cfg.Form)
			}
			return nil
		},
	}

	addSchemaFlags(cmd)
	cmd.Flags().StringArrayVar(&values, "value", nil, "Submitted value as key=value (repeatable)")
	cmd.Flags().StringVar(&submission, "submission", "", "Submission file (.json object or urlencoded body)")

	return cmd
}

func addSchemaFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("schema", "s", "", "Forms or OpenAPI document path or URL")
	cmd.Flags().StringP("form", "f", "", "Form name or OpenAPI operation id")
	cmd.Flags().Duration("timeout", 0, "Timeout for remote documents")
}
