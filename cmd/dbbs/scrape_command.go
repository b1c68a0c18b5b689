package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dbbs/pkg/config"
	"dbbs/pkg/glossary"
	"dbbs/pkg/httpclient"
	"dbbs/pkg/scrapeservice"
)

func newScrapeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Fetch, parse and store the glossary once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.scrapeSetup()
			if err != nil {
				return err
			}

			sinks, err := buildSinks(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer sinks.Close()

			service, err := newScrapeService(cfg, sinks, logger)
			if err != nil {
				return err
			}

			report, err := service.Run(cmd.Context())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}

// scrapeSetup loads and validates everything a scrape run needs.
func (c *commandContext) scrapeSetup() (*config.Config, *zap.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newScrapeService(cfg *config.Config, sinks *sinkSet, logger *zap.Logger) (*scrapeservice.Service, error) {
	timeout := cfg.Glossary.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	fetcher := httpclient.NewClient(httpclient.ParseClientType(cfg.Glossary.Client), timeout)

	return scrapeservice.New(scrapeservice.Config{
		URL:     cfg.Glossary.URL,
		Prefix:  cfg.Output.Prefix,
		Fetcher: fetcher,
		Parser:  glossary.NewParser(glossary.WithLogger(logger)),
		Sinks:   sinks.sinks,
		Logger:  logger,
	})
}
