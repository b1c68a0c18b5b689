package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dbbs/pkg/glossary"
	"dbbs/pkg/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve parse and scrape endpoints over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			gin.SetMode(gin.ReleaseMode)
			parser := glossary.NewParser(glossary.WithLogger(logger))

			// Parsing works without outputs; scraping needs a valid config.
			var scraper server.Scraper
			if err := cfg.Validate(); err != nil {
				logger.Warn("scrape endpoint disabled", zap.Error(err))
			} else {
				sinks, err := buildSinks(sigCtx, cfg, logger)
				if err != nil {
					return err
				}
				defer sinks.Close()

				service, err := newScrapeService(cfg, sinks, logger)
				if err != nil {
					return err
				}
				scraper = service
			}

			return server.New(parser, scraper, logger).ListenAndServe(sigCtx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to server.addr)")
	return cmd
}
