package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"qte/internal/cli"
	"qte/internal/config"
	"qte/internal/discovery"
	"qte/internal/logging"
	"qte/internal/storage"
	"qte/internal/ui"
)

// app carries what every command needs once flags are parsed
type app struct {
	config *config.Config
	logger *slog.Logger
}

// Commands holds all CLI commands
type Commands struct {
	app   *app
	Run   *RunCommand
	List  *ListCommand
	Watch *WatchCommand
}

// NewCommands creates all commands with dependencies
func NewCommands(cfg *config.Config) *Commands {
	a := &app{config: cfg, logger: logging.New(false)}

	// Initialize dependencies
	filter := discovery.NewFilter()
	jsonStorage := storage.NewJSONStorage(cfg)
	formatter := ui.NewFormatter(cfg)
	errorViewer := ui.NewErrorViewer()

	runCommand := NewRunCommand(a, filter, jsonStorage, formatter, errorViewer)

	return &Commands{
		app:   a,
		Run:   runCommand,
		List:  NewListCommand(a, filter, formatter),
		Watch: NewWatchCommand(a, formatter, runCommand),
	}
}

// Register registers all commands with cobra
func (c *Commands) Register(rootCmd *cobra.Command, flags *cli.Flags, cfg *config.Config) {
	rootCmd.PersistentFlags().StringVarP(&flags.ProjectPath, "project", "C", config.DefaultProjectPath, "Root of the application project")
	rootCmd.PersistentFlags().StringVarP(&flags.Suite, "suite", "s", "", "Only work on one suite (unit, integration, acceptance)")
	rootCmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Log bridge traffic and page console output")
	rootCmd.PersistentFlags().BoolVarP(&flags.Wait, "wait", "w", false, "Wait until the application answers before reading its catalog")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Update config with flags after parsing
		loaded, err := config.Load(flags.ProjectPath)
		if err != nil {
			return err
		}
		*cfg = *loaded
		cfg.ApplyFlags(flags.ToConfigFlags())
		c.app.logger = logging.New(flags.Verbose)
		return nil
	}

	// Run command
	runCmd := &cobra.Command{
		Use:   "run [file|moduleId|testId...]",
		Short: "Run QUnit tests in the application's browser runner",
		Long:  "Discover tests, bind them to the running application and execute the selection in one batched run",
		RunE:  c.Run.Execute,
	}
	runCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter tests by name pattern (supports wildcards, e.g., '*checkout*')")
	runCmd.Flags().BoolVarP(&flags.Debug, "debug", "d", false, "Run in a visible browser window with devtools")
	runCmd.Flags().DurationVarP(&flags.Timeout, "timeout", "t", 0, "Bound the whole run (default 30s)")
	runCmd.Flags().StringVar(&flags.ReportPath, "report", "", "Write the JSON run report to this path")
	runCmd.Flags().BoolVar(&flags.OpenFailures, "open-failures", false, "Open the failure viewer when the run finishes with failures")
	rootCmd.AddCommand(runCmd)

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered tests",
		Long:  "Index test files and bind them to the application's catalog without running anything",
		RunE:  c.List.Execute,
	}
	listCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter test files by name pattern (supports wildcards, e.g., '*cart-test.js')")
	rootCmd.AddCommand(listCmd)

	// Watch command
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-index test files as they change",
		Long:  "Watch suite directories, keep the test tree current and optionally re-run changed files",
		RunE:  c.Watch.Execute,
	}
	watchCmd.Flags().BoolVarP(&flags.RunOnChange, "run", "r", false, "Re-run the tests of a file when it changes")
	watchCmd.Flags().BoolVarP(&flags.Debug, "debug", "d", false, "Run in a visible browser window with devtools")
	watchCmd.Flags().DurationVarP(&flags.Timeout, "timeout", "t", 0, "Bound each run (default 30s)")
	watchCmd.Flags().StringVar(&flags.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9464)")
	rootCmd.AddCommand(watchCmd)
}
