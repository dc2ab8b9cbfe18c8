package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/phmhse/csmstrack/internal/api"
	"github.com/phmhse/csmstrack/internal/reminder"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
		noTrigger  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the reminder trigger",
		Long: `Starts the JSON API and, unless --no-trigger is set, evaluates and sends
due reminders on the configured cron schedule in the reference timezone.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port, noTrigger)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to CSMS config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides server.port)")
	cmd.Flags().BoolVar(&noTrigger, "no-trigger", false, "do not run scheduled reminders")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int, noTrigger bool) error {
	a, err := loadApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()
	if port == 0 {
		port = a.cfg.Server.Port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	sender, err := a.sender()
	if err != nil {
		return err
	}
	up, err := a.uploader(ctx)
	if err != nil {
		return err
	}

	var d *reminder.Dispatcher
	if sender != nil {
		if d, err = a.dispatcher(sender); err != nil {
			return err
		}
	} else {
		a.log.Warn("email is not configured; reminders are disabled", zap.String("service", "reminder"))
	}

	if d != nil && !noTrigger {
		sched, err := reminder.ParseCron(a.cfg.Reminders.Cron)
		if err != nil {
			return err
		}
		t := &reminder.Trigger{Dispatcher: d, Schedule: sched, Location: a.cfg.Location()}
		go t.Run(ctx)
		fmt.Fprintf(cmd.OutOrStdout(), "Reminder trigger: %q (%s)\n", a.cfg.Reminders.Cron, a.cfg.Timezone)
	}

	return api.Start(ctx, api.StartOpts{
		DB:               a.db,
		Port:             port,
		Out:              cmd.OutOrStdout(),
		Logger:           a.log.Named("api"),
		Calendar:         a.cal,
		Dispatcher:       d,
		Uploader:         up,
		Mailer:           sender,
		ReportRecipients: a.cfg.Reports.Recipients,
		Timeout:          a.cfg.Upstream.Timeout,
	})
}
