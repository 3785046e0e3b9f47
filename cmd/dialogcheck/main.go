package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cgast/dialogcheck/internal/config"
	"github.com/cgast/dialogcheck/internal/logger"
)

// errFailed signals failing assertions. The summary has already been
// printed, so main exits 1 without an error line.
var errFailed = errors.New("assertions failed")

// app carries what every subcommand needs once flags are parsed.
type app struct {
	out    io.Writer
	errOut io.Writer

	configPath string
	verbose    bool
	color      bool

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "dialogcheck",
		Short:         "Assert on Dialogflow ES agent answers",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `dialogcheck sends test queries to a Dialogflow ES agent and checks the
matched intent, output contexts, text replies, quick replies and cards
against expectations declared in YAML suites.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", config.DefaultPath, "Configuration file path")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().BoolVar(&a.color, "color", false, "Colour diagnostics (overrides config)")

	root.AddCommand(
		newRunCmd(a),
		newCheckCmd(a),
		newValidateCmd(a),
		newHistoryCmd(a),
		newDiffCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("color") {
		cfg.Color = a.color
	}
	a.cfg = cfg
	a.logger = logger.New(a.errOut, logger.ResolveLevel(cfg.LogLevel, a.verbose))
	return nil
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

func execute(args []string, out, errOut io.Writer) int {
	root := newRootCmd(out, errOut)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(errOut, "error: %v\n", err)
		}
		return 1
	}
	return 0
}
