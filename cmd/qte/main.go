package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"qte/internal/cli"
	"qte/internal/cli/commands"
	"qte/internal/config"
	"qte/internal/domain"
)

var version = "dev"

func main() {
	// Create root command
	rootCmd := &cobra.Command{
		Use:           "qte",
		Short:         "QUnit test explorer",
		Long:          `Index QUnit tests in an application's sources, bind them to the live application's test catalog and run them in a real browser.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Create initial config with defaults
	cfg := config.New()

	// Create flags struct (will be populated by command flags)
	var flags cli.Flags

	// Create commands with dependencies
	cmds := commands.NewCommands(cfg)

	// Register all commands
	cmds.Register(rootCmd, &flags, cfg)

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		if !commands.IsSilent(err) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", domain.UserMessage(err))
		}
		os.Exit(1)
	}
}
