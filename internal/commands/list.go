package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formbind/pkg/orchestrator"
)

// ListCmd prints the forms a document provides.
func ListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the forms in a document",
		Long: `Lists every form a forms document declares, or every operation with a
request body in an OpenAPI document, together with its fields.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := mustConfig(cmd.Context())
			if err != nil {
				return err
			}
			src, err := parseSource(cfg.Schema)
			if err != nil {
				return err
			}

			catalog, err := newOrchestrator(cfg).Catalog(cmd.Context(), orchestrator.Request{Source: src})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "FORM\tFIELDS\n")
			for _, name := range catalog.Names() {
				fmt.Fprintf(w, "%s\t%s\n", name, strings.Join(catalog.Schemas[name].Names(), ", "))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d form(s) in %s document\n", len(catalog.Schemas), catalog.Format)
			return nil
		},
	}

	cmd.Flags().StringP("schema", "s", "", "Forms or OpenAPI document path or URL")
	cmd.Flags().Duration("timeout", 0, "Timeout for remote documents")

	return cmd
}
