package main

import (
	"os"

	"github.com/goliatone/go-formbind/internal/commands"
)

func main() {
	rootCmd := commands.RootCmd()

	rootCmd.AddCommand(commands.ValidateCmd())
	rootCmd.AddCommand(commands.RenderCmd())
	rootCmd.AddCommand(commands.PromptCmd())
	rootCmd.AddCommand(commands.ListCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
