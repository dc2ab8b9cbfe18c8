package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/phmhse/csmstrack/internal/reminder"
)

func newRemindCmd() *cobra.Command {
	var (
		configPath string
		dryRun     bool
		preview    bool
	)

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Evaluate and send due reminders once",
		Long: `Runs one reminder pass. Each milestone is emailed at most once; a failed
send is released so the next run retries it.

With --preview the due reminders are listed without touching the mark store.
With --dry-run the full pass runs without claiming or sending.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemind(cmd, configPath, dryRun, preview)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to CSMS config file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "evaluate and report without sending")
	cmd.Flags().BoolVar(&preview, "preview", false, "list due reminders only")
	return cmd
}

func runRemind(cmd *cobra.Command, configPath string, dryRun, preview bool) error {
	a, err := loadApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	sender, err := a.sender()
	if err != nil {
		return err
	}
	if sender == nil && !dryRun && !preview {
		return fmt.Errorf("email.api_key is required to send reminders (use --dry-run to evaluate only)")
	}
	d, err := a.dispatcher(sender)
	if err != nil {
		return err
	}

	ctx := context.Background()
	out := cmd.OutOrStdout()
	if preview {
		res, err := d.Preview(ctx)
		if err != nil {
			return err
		}
		printCandidates(out, res)
		return nil
	}

	sum, runErr := d.Run(ctx, dryRun)
	printSummary(out, sum)
	return runErr
}

func printCandidates(out io.Writer, res reminder.Result) {
	if len(res.Candidates) == 0 {
		fmt.Fprintln(out, "No reminders due.")
	} else {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TYPE\tID\tDATE\tLABEL\tTO\tREASON")
		for _, c := range res.Candidates {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				c.RecordType, c.RecordID, c.Date(), c.Label, strings.Join(c.Recipients, ", "), c.Reason)
		}
		w.Flush()
	}
	printDiagnostics(out, res.Diagnostics)
}

func printSummary(out io.Writer, sum reminder.RunSummary) {
	if len(sum.Dispatches) > 0 {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "OUTCOME\tTYPE\tID\tDATE\tTO\tDETAIL")
		for _, x := range sum.Dispatches {
			detail := x.Reason
			if x.Error != "" {
				detail = x.Error
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				x.Outcome, x.RecordType, x.RecordID, x.Date(), strings.Join(x.Recipients, ", "), detail)
		}
		w.Flush()
	}
	mode := ""
	if sum.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(out, "\nSent %d, skipped %d, failed %d, %d candidate(s)%s\n",
		sum.Sent, sum.Skipped, sum.Failed, len(sum.Dispatches), mode)
	printDiagnostics(out, sum.Diagnostics)
}

func printDiagnostics(out io.Writer, diags []reminder.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%d record(s) skipped for malformed data:\n", len(diags))
	for _, d := range diags {
		fmt.Fprintf(out, "  %s %s %s: %s\n", d.RecordType, d.RecordID, d.Field, d.Message)
	}
}
