package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/msto63/mbasic/pkg/core/config"
	"github.com/msto63/mbasic/pkg/core/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool

	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "mbasic",
	Short: "mBASIC - lexer and parser front-end for a small BASIC dialect",
	Long: `mBASIC tokenizes and parses programs of a small BASIC-like
expression language and reports the syntax tree or a positioned
diagnostic.

Front-ends:
  repl     - interactive prompt
  run      - check a source file
  tokens   - list the tokens of a file or expression
  serve    - web UI, HTTP/WebSocket API and optional gRPC service
  history  - inspect recorded runs`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		printError(err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $MBASIC_CONFIG or ./configs/mbasic.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// setup loads the configuration and configures logging for every command
func setup(cmd *cobra.Command, args []string) error {
	var err error
	if cfgFile != "" {
		appConfig, err = config.Load(cfgFile)
	} else {
		appConfig, err = config.LoadFromEnv()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := appConfig.General.LogLevel
	if verbose {
		level = "debug"
	}
	logging.Configure(level, appConfig.General.LogFormat, os.Stderr)

	if verbose && appConfig.Source() != "" {
		logging.New("cli").Debug("Configuration loaded", "path", appConfig.Source())
	}
	return nil
}

// exitError reports a failure whose details were already printed
type exitError struct {
	msg string
}

func (e *exitError) Error() string { return e.msg }

func printError(err error) {
	if _, printed := err.(*exitError); printed {
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
