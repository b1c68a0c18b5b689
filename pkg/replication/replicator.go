package replication

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"dbbs/pkg/db"
	"dbbs/pkg/worker"
)

const (
	defaultBatchSize = 20
	defaultWorkers   = 4
)

var (
	ErrNoSource = errors.New("mongo client is required")
	ErrNoTarget = errors.New("postgres client is required")
)

// Source lists parse results held in Mongo.
type Source interface {
	AllParseResults(ctx context.Context) ([]db.ParseRecord, error)
}

// Config wires the replication dependencies.
type Config struct {
	Mongo     Source
	Postgres  db.DBProvider
	Logger    *zap.Logger
	BatchSize int
	Workers   int
}

// Replicator copies parse results from Mongo into the Postgres result tables.
// Runs already present in Postgres, matched by timestamp, are skipped.
type Replicator struct {
	mongo     Source
	store     *db.ResultStore
	logger    *zap.Logger
	batchSize int
	workers   *worker.Manager
}

// Stats counts what one replication pass did.
type Stats struct {
	Processed int
	Inserted  int
}

func NewReplicator(cfg Config) (*Replicator, error) {
	if cfg.Mongo == nil {
		return nil, ErrNoSource
	}
	if cfg.Postgres == nil {
		return nil, ErrNoTarget
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	return &Replicator{
		mongo:     cfg.Mongo,
		store:     db.NewResultStore(cfg.Postgres, "postgres"),
		logger:    logger,
		batchSize: batchSize,
		workers:   worker.NewManager(workers, logger),
	}, nil
}

// ReplicateParseResults reads every stored run from Mongo and inserts the
// missing ones into Postgres, one batch per task.
func (r *Replicator) ReplicateParseResults(ctx context.Context) (Stats, error) {
	if err := r.store.EnsureSchema(ctx); err != nil {
		return Stats{}, err
	}

	records, err := r.mongo.AllParseResults(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("read parse results from mongo: %w", err)
	}
	r.logger.Info("loaded parse results from mongo", zap.Int("runs", len(records)))

	batches := splitBatches(records, r.batchSize)
	inserted := make([]int, len(batches))
	tasks := make([]worker.Task, len(batches))
	for i, batch := range batches {
		i, batch := i, batch
		tasks[i] = worker.Task{
			Name: fmt.Sprintf("batch %d", i),
			Run: func(ctx context.Context) error {
				n, err := r.processBatch(ctx, batch)
				inserted[i] = n
				return err
			},
		}
	}

	results := r.workers.Process(ctx, tasks)

	stats := Stats{}
	for i, res := range results {
		if res.Err == nil {
			stats.Processed += len(batches[i])
		}
		stats.Inserted += inserted[i]
	}
	if err := worker.Join(results); err != nil {
		return stats, fmt.Errorf("replicate: %w", err)
	}

	r.logger.Info("replication complete",
		zap.Int("processed", stats.Processed),
		zap.Int("inserted", stats.Inserted))
	return stats, nil
}

func (r *Replicator) processBatch(ctx context.Context, batch []db.ParseRecord) (int, error) {
	existing, err := r.store.ExistingTimestamps(ctx, timestamps(batch))
	if err != nil {
		return 0, err
	}

	toInsert := filterNew(batch, existing)
	inserted := 0
	for _, rec := range toInsert {
		result := rec.ParseResult
		ok, err := r.store.SaveParseResult(ctx, rec.Key, &result, nil)
		if err != nil {
			return inserted, fmt.Errorf("insert run %s: %w", *rec.Timestamp, err)
		}
		if ok {
			inserted++
		}
	}
	r.logger.Debug("batch replicated",
		zap.Int("runs", len(batch)),
		zap.Int("existing", len(existing)),
		zap.Int("inserted", inserted))
	return inserted, nil
}

func splitBatches(records []db.ParseRecord, size int) [][]db.ParseRecord {
	var out [][]db.ParseRecord
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		out = append(out, records[start:end])
	}
	return out
}

func timestamps(batch []db.ParseRecord) []string {
	out := make([]string, 0, len(batch))
	for _, rec := range batch {
		if rec.Timestamp != nil {
			out = append(out, *rec.Timestamp)
		}
	}
	return out
}

func filterNew(batch []db.ParseRecord, existing map[string]bool) []db.ParseRecord {
	out := make([]db.ParseRecord, 0, len(batch))
	for _, rec := range batch {
		if rec.Timestamp == nil || existing[*rec.Timestamp] {
			continue
		}
		out = append(out, rec)
	}
	return out
}
