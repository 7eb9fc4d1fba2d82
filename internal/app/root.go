package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/blackwell-systems/libraryctl/internal/config"
	"github.com/blackwell-systems/libraryctl/internal/logging"
	"github.com/blackwell-systems/libraryctl/internal/tui"
	"github.com/blackwell-systems/libraryctl/internal/util"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg    *config.Config
	logger = zap.NewNop()

	flagNoColor       bool
	flagNoInteractive bool
	flagConfig        string
	flagBaseURL       string
	flagVerbose       bool
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "libraryctl",
		Short: "Browse and manage a library catalog from the terminal",
		Long: `libraryctl talks to a library REST API: list, add, edit and delete
books, borrow copies and review what is out on loan.

Run 'libraryctl' with no arguments to open the interactive books table.
Run 'libraryctl devserver' to start an in-memory backend to try it out.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if tui.ShouldUseTUI(cmd) {
				return runTUI(cmd.Context())
			}
			return cmd.Help()
		},
		PersistentPreRunE: setup,
		PersistentPostRun: func(*cobra.Command, []string) { _ = logger.Sync() },
	}

	cmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	cmd.PersistentFlags().BoolVar(&flagNoInteractive, "no-interactive", false, "Disable interactive TUI mode")
	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/libraryctl/config.yml)")
	cmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "API base URL (overrides api.base_url)")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log at debug level")

	cmd.AddCommand(
		newBooksCmd(),
		newBorrowCmd(),
		newConfigCmd(),
		newDevServerCmd(),
		newVersionCmd(),
		newCompletionCmd(),
	)
	return cmd
}

// setup loads the config and builds the logger before every command.
func setup(cmd *cobra.Command, args []string) error {
	util.InitColor(flagNoColor)

	var err error
	cfg, err = config.Load(flagConfig)
	if err != nil {
		// config init must be able to repair a broken file.
		if cmd.Name() != "init" || cmd.Parent() == nil || cmd.Parent().Name() != "config" {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = config.Default()
	}
	if flagBaseURL != "" {
		cfg.API.BaseURL = flagBaseURL
	}

	logger, err = logging.New(logging.Options{
		File:    cfg.Log.File,
		Level:   cfg.Log.Level,
		Verbose: flagVerbose,
	})
	if err != nil {
		return err
	}
	logger.Debug("config loaded", zap.String("path", config.Path(flagConfig)), zap.String("base_url", cfg.API.BaseURL))
	return nil
}

// Execute is the entry point called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

// ok prints a green success line.
func ok(format string, a ...interface{}) {
	fmt.Println(color.GreenString("✓"), fmt.Sprintf(format, a...))
}

// warn prints a yellow warning line.
func warn(format string, a ...interface{}) {
	fmt.Fprintln(os.Stderr, color.YellowString("!"), fmt.Sprintf(format, a...))
}

// header prints a cyan section heading.
func header(format string, a ...interface{}) {
	fmt.Println(color.CyanString(fmt.Sprintf(format, a...)))
}

func printField(label, value string) {
	fmt.Printf("  %-14s %s\n", color.CyanString(label+":"), value)
}
