package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dbbs/pkg/db"
	"dbbs/pkg/replication"
)

func newReplicateCommand(ctx *commandContext) *cobra.Command {
	var batchSize int
	var workers int

	cmd := &cobra.Command{
		Use:   "replicate",
		Short: "Copy stored parse results from Mongo into Postgres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateReplication(); err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			mongo := db.NewClient(cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection)
			if err := mongo.Connect(cmd.Context()); err != nil {
				return fmt.Errorf("connect to mongo: %w", err)
			}
			defer mongo.Close(context.Background())

			target, closeTarget, err := connectReplicationTarget(cmd.Context(), ctx)
			if err != nil {
				return err
			}
			defer closeTarget()

			r, err := replication.NewReplicator(replication.Config{
				Mongo:     mongo,
				Postgres:  target,
				Logger:    logger,
				BatchSize: batchSize,
				Workers:   workers,
			})
			if err != nil {
				return err
			}

			stats, err := r.ReplicateParseResults(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "processed %d runs, inserted %d\n", stats.Processed, stats.Inserted)
			if err != nil {
				logger.Error("replication failed", zap.Error(err))
			}
			return err
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", 20, "Runs checked per batch")
	cmd.Flags().IntVar(&workers, "workers", 4, "Parallel batches")
	return cmd
}

// connectReplicationTarget prefers postgres.dsn and falls back to a direct
// Supabase connection.
func connectReplicationTarget(ctx context.Context, cc *commandContext) (db.DBProvider, func() error, error) {
	cfg, err := cc.ensureConfig()
	if err != nil {
		return nil, nil, err
	}

	if cfg.Postgres.DSN != "" {
		client := db.NewPostgresClient(db.PostgresConfig{DSN: cfg.Postgres.DSN})
		if err := client.Connect(ctx); err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		return client, client.Close, nil
	}

	client := db.NewSupabaseClient(db.SupabaseConfig{
		SupabaseURL: cfg.Supabase.URL,
		SupabaseKey: cfg.Supabase.Key,
		Password:    cfg.Supabase.Password,
	})
	if err := client.Connect(ctx); err != nil {
		return nil, nil, fmt.Errorf("connect to supabase: %w", err)
	}
	if !client.HasDirectDB() {
		_ = client.Close()
		return nil, nil, fmt.Errorf("replication needs a direct database connection: set supabase.password")
	}
	return client, client.Close, nil
}
