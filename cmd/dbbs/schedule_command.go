package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"dbbs/pkg/scheduler"
)

func newScheduleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Scrape now and then on every interval until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.scrapeSetup()
			if err != nil {
				return err
			}

			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sinks, err := buildSinks(sigCtx, cfg, logger)
			if err != nil {
				return err
			}
			defer sinks.Close()

			service, err := newScrapeService(cfg, sinks, logger)
			if err != nil {
				return err
			}

			mgr, err := scheduler.NewManager(cfg.Schedule.Interval, cfg.Schedule.LockFile,
				func(ctx context.Context) error {
					_, err := service.Run(ctx)
					return err
				}, logger)
			if err != nil {
				return err
			}
			if err := mgr.Start(sigCtx); err != nil {
				return err
			}

			<-sigCtx.Done()
			return mgr.Stop()
		},
	}
}
