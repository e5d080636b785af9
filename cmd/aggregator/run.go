package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/baxromumarov/job-aggregator/internal/model"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one aggregation pass over every site",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		summary, err := newPipeline(st).Run(ctx)
		printSummary(cmd.OutOrStdout(), summary)
		// Only an unreadable site registry fails the process; site errors are in
		// the summary.
		return err
	},
}

func printSummary(w io.Writer, summary model.RunSummary) {
	table := tablewriter.NewWriter(w)
	table.Header("Site", "Status", "Fetched", "Filtered", "Written", "Failed", "Error")

	for _, s := range summary.Sites {
		table.Append(
			s.SiteID,
			string(s.Status),
			fmt.Sprintf("%d", s.Fetched),
			fmt.Sprintf("%d", s.Filtered),
			fmt.Sprintf("%d", s.Written),
			fmt.Sprintf("%d", s.FailedWrites),
			string(s.ErrorKind),
		)
	}
	table.Render()

	t := summary.Totals()
	fmt.Fprintf(w, "run %s: %d sites, %d done, %d errored, %d pending, %d written in %s\n",
		summary.ID, t.Sites, t.Done, t.Errored, t.Pending, t.Written,
		summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond))
}
