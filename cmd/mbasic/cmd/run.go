package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/msto63/mbasic/foundation/basic"
	"github.com/msto63/mbasic/foundation/basic/ast"
	"github.com/msto63/mbasic/internal/frontend/store"
	"github.com/msto63/mbasic/internal/tui/repl"
	"github.com/spf13/cobra"
)

var (
	runShowAST bool
	runJSON    bool
)

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Tokenize and parse a source file",
	Long: `Tokenizes and parses a source file and prints the result and
token count, or the diagnostic. "-" reads from standard input.

Examples:
  mbasic run test.txt
  mbasic run --ast program.bas
  echo "[1, 2]" | mbasic run -`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runShowAST, "ast", false, "print the syntax tree")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the JSON document the web API returns")
}

func runRun(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := readSource(path)
	if err != nil {
		return err
	}

	filename := path
	if path == "-" {
		filename = appConfig.Frontend.Filename
	}

	svc, err := newService(appConfig, filename, nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	resp, err := svc.Execute(cmd.Context(), store.OriginCLI, string(data))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if runJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp.Body()); err != nil {
			return err
		}
	} else {
		result := repl.Format(resp)
		fmt.Fprintln(out, result.Text)
	}

	if runShowAST && resp.Success && resp.SyntaxError == "" {
		node, _, _ := basic.Run(filename, string(data))
		fmt.Fprint(out, ast.Dump(node))
	}

	if !resp.Success || resp.SyntaxError != "" {
		return &exitError{msg: "run failed"}
	}
	return nil
}

func readSource(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
