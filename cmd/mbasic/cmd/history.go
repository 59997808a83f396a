package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/msto63/mbasic/internal/frontend/store"
	"github.com/spf13/cobra"
)

var (
	historyLimit  int
	historyOrigin string
	historyFailed bool
	historyJSON   bool
	historyKeep   int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs",
	Long: `Lists runs recorded in the history database, newest first.
Runs are recorded when history.enabled is set in the config or serve
is started with --history.

Examples:
  mbasic history --limit 10
  mbasic history --origin web --failed
  mbasic history show <id>
  mbasic history stats
  mbasic history prune --keep 100`,
	Args: cobra.NoArgs,
	RunE: runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one recorded run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize recorded runs",
	Args:  cobra.NoArgs,
	RunE:  runHistoryStats,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the newest runs",
	Args:  cobra.NoArgs,
	RunE:  runHistoryPrune,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd, historyStatsCmd, historyPruneCmd)

	historyCmd.PersistentFlags().BoolVar(&historyJSON, "json", false, "print JSON")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of runs")
	historyCmd.Flags().StringVar(&historyOrigin, "origin", "", "filter by origin (web, file, ws, rpc, cli)")
	historyCmd.Flags().BoolVar(&historyFailed, "failed", false, "only failed runs")
	historyPruneCmd.Flags().IntVar(&historyKeep, "keep", 100, "number of runs to keep")
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	runStore, err := openHistory(appConfig)
	if err != nil {
		return err
	}
	defer runStore.Close()

	filter := store.RunFilter{
		Origin: store.Origin(historyOrigin),
		Limit:  historyLimit,
	}
	if historyFailed {
		failed := false
		filter.Success = &failed
	}

	runs, err := runStore.List(cmd.Context(), filter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if historyJSON {
		return writeJSON(out, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tORIGIN\tOK\tTOKENS\tCODE")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%d\t%s\n",
			r.ID, r.Timestamp.Local().Format(time.DateTime), r.Origin, r.Success, r.Tokens, preview(r.Code, 40))
	}
	return tw.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	runStore, err := openHistory(appConfig)
	if err != nil {
		return err
	}
	defer runStore.Close()

	run, err := runStore.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if historyJSON {
		return writeJSON(out, run)
	}

	fmt.Fprintf(out, "ID:        %s\n", run.ID)
	fmt.Fprintf(out, "Time:      %s\n", run.Timestamp.Local().Format(time.RFC3339))
	fmt.Fprintf(out, "Origin:    %s\n", run.Origin)
	fmt.Fprintf(out, "File:      %s\n", run.Filename)
	fmt.Fprintf(out, "Tokens:    %d\n", run.Tokens)
	fmt.Fprintf(out, "Duration:  %.3fms\n", run.DurationMs)
	if run.RequestID != "" {
		fmt.Fprintf(out, "Request:   %s\n", run.RequestID)
	}
	fmt.Fprintf(out, "\n%s\n\n", run.Code)
	if run.Success {
		fmt.Fprintf(out, "Result: %s\n", run.Result)
	}
	if run.Error != "" {
		fmt.Fprintln(out, run.Error)
	}
	return nil
}

func runHistoryStats(cmd *cobra.Command, args []string) error {
	runStore, err := openHistory(appConfig)
	if err != nil {
		return err
	}
	defer runStore.Close()

	stats, err := runStore.Stats(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if historyJSON {
		return writeJSON(out, stats)
	}

	fmt.Fprintf(out, "Runs:    %d\n", stats.Total)
	fmt.Fprintf(out, "Failed:  %d\n", stats.Failed)
	if !stats.LastRun.IsZero() {
		fmt.Fprintf(out, "Last:    %s\n", stats.LastRun.Local().Format(time.DateTime))
	}

	origins := make([]string, 0, len(stats.ByOrigin))
	for o := range stats.ByOrigin {
		origins = append(origins, o)
	}
	sort.Strings(origins)
	for _, o := range origins {
		fmt.Fprintf(out, "  %-5s %d\n", o, stats.ByOrigin[o])
	}
	return nil
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	if historyKeep < 0 {
		return fmt.Errorf("--keep must not be negative")
	}

	runStore, err := openHistory(appConfig)
	if err != nil {
		return err
	}
	defer runStore.Close()

	deleted, err := runStore.Prune(cmd.Context(), historyKeep)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d runs.\n", deleted)
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// preview returns the first line of code, cut to n runes
func preview(code string, n int) string {
	line, _, more := strings.Cut(strings.TrimSpace(code), "\n")
	r := []rune(line)
	if len(r) > n {
		return string(r[:n-1]) + "…"
	}
	if more {
		return line + " …"
	}
	return line
}
