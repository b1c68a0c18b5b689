package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"dbbs/pkg/config"
	"dbbs/pkg/db"
	"dbbs/pkg/storage"
)

// sinkSet holds the configured outputs and whatever connections they own.
type sinkSet struct {
	sinks   []storage.Sink
	closers []func() error
}

func (s *sinkSet) add(sink storage.Sink, closer func() error) {
	s.sinks = append(s.sinks, sink)
	if closer != nil {
		s.closers = append(s.closers, closer)
	}
}

func (s *sinkSet) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *sinkSet) names() []string {
	out := make([]string, 0, len(s.sinks))
	for _, sink := range s.sinks {
		out = append(out, sink.Name())
	}
	return out
}

// buildSinks connects every output named in cfg. On error, connections made
// so far are closed.
func buildSinks(ctx context.Context, cfg *config.Config, logger *zap.Logger) (set *sinkSet, err error) {
	set = &sinkSet{}
	defer func() {
		if err != nil {
			_ = set.Close()
			set = nil
		}
	}()

	if cfg.Output.Dir != "" {
		set.add(storage.NewFileSink(cfg.Output.Dir), nil)
	}

	if cfg.S3.Bucket != "" {
		sink, err := storage.NewS3Sink(ctx, storage.S3Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 sink: %w", err)
		}
		set.add(sink, nil)
	}

	if cfg.COS.URL != "" {
		sink, err := storage.NewCOSSink(cfg.COS.URL, cfg.COS.SecretID, cfg.COS.SecretKey)
		if err != nil {
			return nil, fmt.Errorf("cos sink: %w", err)
		}
		set.add(sink, nil)
	}

	if cfg.Mongo.URI != "" {
		client := db.NewClient(cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection)
		if err := client.Connect(ctx); err != nil {
			return nil, fmt.Errorf("mongo sink: %w", err)
		}
		set.add(client, func() error { return client.Close(context.Background()) })
	}

	if cfg.Postgres.DSN != "" {
		client := db.NewPostgresClient(db.PostgresConfig{DSN: cfg.Postgres.DSN})
		if err := client.Connect(ctx); err != nil {
			return nil, fmt.Errorf("postgres sink: %w", err)
		}
		store := db.NewResultStore(client, "postgres")
		if err := store.EnsureSchema(ctx); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("postgres sink: %w", err)
		}
		set.add(store, client.Close)
	}

	if cfg.Supabase.URL != "" {
		client := db.NewSupabaseClient(db.SupabaseConfig{
			SupabaseURL: cfg.Supabase.URL,
			SupabaseKey: cfg.Supabase.Key,
			Password:    cfg.Supabase.Password,
		})
		if err := client.Connect(ctx); err != nil {
			return nil, fmt.Errorf("supabase sink: %w", err)
		}
		set.add(client, client.Close)
	}

	logger.Info("outputs configured", zap.Strings("sinks", set.names()))
	return set, nil
}
