package cmd

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/msto63/mbasic/internal/tui/repl"
	"github.com/spf13/cobra"
)

var replPlain bool

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start the interactive prompt",
	Long: `Starts the interactive prompt. Every line is tokenized and parsed;
the prompt prints the result and token count, or the diagnostic.

The full-screen prompt is used on a terminal. With --plain, with
repl.plain in the config, or when standard input is not a terminal,
a line-oriented prompt is used instead.

Keys:
  Enter     - evaluate the line
  Up/Down   - input history
  Ctrl+L    - clear the transcript
  Ctrl+C    - quit`,
	Args: cobra.NoArgs,
	RunE: runREPL,
}

func init() {
	rootCmd.AddCommand(replCmd)
	replCmd.Flags().BoolVar(&replPlain, "plain", false, "line-oriented prompt without the full-screen UI")
}

func runREPL(cmd *cobra.Command, args []string) error {
	svc, err := newService(appConfig, appConfig.Frontend.Filename, nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	plain := replPlain || appConfig.REPL.Plain || !isatty.IsTerminal(os.Stdin.Fd())
	if plain {
		return repl.RunPlain(cmd.Context(), svc, cmd.InOrStdin(), cmd.OutOrStdout(), appConfig.REPL.Prompt)
	}

	return repl.Run(cmd.Context(), repl.Config{
		Prompt:   appConfig.REPL.Prompt,
		Executor: svc,
	})
}
