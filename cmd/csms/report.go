package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/phmhse/csmstrack/internal/mailer"
	"github.com/phmhse/csmstrack/internal/report"
)

type reportFlags struct {
	configPath string
	sel        report.Selection
	format     string
	out        string
	upload     bool
	email      string
}

func newReportCmd() *cobra.Command {
	var f reportFlags

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build a compliance report",
		Long: `Builds a report for one project, a date range, or everything (--all), and
writes it to a file, uploads it to Drive, or emails it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, f)
		},
	}

	cmd.Flags().StringVarP(&f.configPath, "config", "c", defaultConfig, "path to CSMS config file")
	cmd.Flags().StringVar(&f.sel.ProjectID, "project", "", "project id")
	cmd.Flags().StringVar(&f.sel.From, "from", "", "range start, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.sel.To, "to", "", "range end, YYYY-MM-DD")
	cmd.Flags().BoolVar(&f.sel.All, "all", false, "report on every record")
	cmd.Flags().StringVarP(&f.format, "format", "f", "xlsx", "xlsx, pdf or csv")
	cmd.Flags().StringVarP(&f.out, "out", "o", ".", "output file or directory")
	cmd.Flags().BoolVar(&f.upload, "upload", false, "upload to Google Drive instead of writing a file")
	cmd.Flags().StringVar(&f.email, "email", "", "comma-separated recipients; \"default\" uses reports.recipients")
	return cmd
}

func runReport(cmd *cobra.Command, f reportFlags) error {
	format, err := report.ParseFormat(f.format)
	if err != nil {
		return err
	}
	a, err := loadApp(f.configPath)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	doc, err := report.Build(ctx, a.db, f.sel, a.cal, time.Now())
	if err != nil {
		return err
	}
	art, err := report.Encode(doc, format)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %s\n", doc.Title, doc.Note())
	for _, x := range doc.Excluded {
		fmt.Fprintf(out, "  excluded %s %s: %s\n", x.Kind, x.ID, x.Reason)
	}

	switch {
	case f.upload:
		up, err := a.uploader(ctx)
		if err != nil {
			return err
		}
		if up == nil {
			return fmt.Errorf("storage.drive is not configured")
		}
		uctx, cancel := context.WithTimeout(ctx, a.cfg.Upstream.Timeout)
		defer cancel()
		ref, err := report.Deliver(uctx, art, up)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Uploaded %s: %s\n", ref.Name, ref.URL)

	case f.email != "":
		sender, err := a.sender()
		if err != nil {
			return err
		}
		if sender == nil {
			return fmt.Errorf("email.api_key is required to email reports")
		}
		to := a.cfg.Reports.Recipients
		if f.email != "default" {
			to = mailer.SplitAddresses(f.email)
		}
		mctx, cancel := context.WithTimeout(ctx, a.cfg.Upstream.Timeout)
		defer cancel()
		id, err := report.Mail(mctx, doc, art, sender, to)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Emailed %s (message %s)\n", art.Name, id)

	default:
		path := outputPath(f.out, art.Name)
		if err := os.WriteFile(path, art.Data, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Fprintf(out, "Wrote %s (%d bytes)\n", path, len(art.Data))
	}
	return nil
}

// outputPath places name inside out when out is a directory.
func outputPath(out, name string) string {
	if st, err := os.Stat(out); err == nil && st.IsDir() {
		return filepath.Join(out, name)
	}
	return out
}
