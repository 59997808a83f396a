package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	tokensExpr string
	tokensJSON bool
)

var tokensCmd = &cobra.Command{
	Use:   "tokens [file]",
	Short: "List the tokens of a file or expression",
	Long: `Runs only the lexer and prints one token per line with its
position (line:column, 1-based), kind and value.

Examples:
  mbasic tokens test.txt
  mbasic tokens -e "[1, x, 2.5]"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)
	tokensCmd.Flags().StringVarP(&tokensExpr, "expr", "e", "", "source text to tokenize")
	tokensCmd.Flags().BoolVar(&tokensJSON, "json", false, "print JSON")
}

func runTokens(cmd *cobra.Command, args []string) error {
	var (
		text     string
		filename = appConfig.Frontend.Filename
	)
	switch {
	case tokensExpr != "" && len(args) > 0:
		return fmt.Errorf("use either a file or --expr, not both")
	case tokensExpr != "":
		text = tokensExpr
	case len(args) == 1:
		data, err := readSource(args[0])
		if err != nil {
			return err
		}
		text = string(data)
		if args[0] != "-" {
			filename = args[0]
		}
	default:
		return fmt.Errorf("no input: pass a file or --expr")
	}

	svc, err := newService(appConfig, filename, nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	resp, err := svc.Tokenize(cmd.Context(), text)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if tokensJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	if !resp.Success {
		fmt.Fprintln(out, resp.Error)
		return &exitError{msg: "tokenize failed"}
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "POS\tKIND\tVALUE")
	for _, tok := range resp.Tokens {
		fmt.Fprintf(tw, "%d:%d\t%s\t%s\n", tok.Line, tok.Column, tok.Kind, tok.Value)
	}
	return tw.Flush()
}
