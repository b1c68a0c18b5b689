package replication

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"dbbs/pkg/db"
	"dbbs/pkg/domain"
)

func record(ts string) db.ParseRecord {
	return db.ParseRecord{
		Key:         "parsed-" + ts,
		ParseResult: domain.ParseResult{Timestamp: &ts},
	}
}

func TestSplitBatches(t *testing.T) {
	records := []db.ParseRecord{record("a"), record("b"), record("c"), record("d"), record("e")}

	batches := splitBatches(records, 2)
	if len(batches) != 3 {
		t.Fatalf("Expected 3 batches, got %d", len(batches))
	}
	if len(batches[2]) != 1 || *batches[2][0].Timestamp != "e" {
		t.Errorf("Unexpected last batch: %+v", batches[2])
	}
	if splitBatches(nil, 2) != nil {
		t.Error("Expected no batches for no records")
	}
}

func TestFilterNew(t *testing.T) {
	batch := []db.ParseRecord{record("a"), record("b"), {Key: "no-ts"}}

	got := filterNew(batch, map[string]bool{"a": true})
	if len(got) != 1 || *got[0].Timestamp != "b" {
		t.Errorf("Expected only b, got %+v", got)
	}
	if ts := timestamps(batch); len(ts) != 2 {
		t.Errorf("Expected 2 timestamps, got %v", ts)
	}
}

type nilProvider struct{}

func (nilProvider) DB() *sql.DB { return nil }

type fakeSource struct{}

func (fakeSource) AllParseResults(ctx context.Context) ([]db.ParseRecord, error) {
	return []db.ParseRecord{record("a")}, nil
}

func TestNewReplicator(t *testing.T) {
	if _, err := NewReplicator(Config{Postgres: nilProvider{}}); !errors.Is(err, ErrNoSource) {
		t.Errorf("Expected ErrNoSource, got %v", err)
	}
	if _, err := NewReplicator(Config{Mongo: fakeSource{}}); !errors.Is(err, ErrNoTarget) {
		t.Errorf("Expected ErrNoTarget, got %v", err)
	}
}

func TestReplicate_RequiresConnection(t *testing.T) {
	r, err := NewReplicator(Config{Mongo: fakeSource{}, Postgres: nilProvider{}})
	if err != nil {
		t.Fatalf("NewReplicator returned error: %v", err)
	}
	if _, err := r.ReplicateParseResults(context.Background()); !errors.Is(err, db.ErrDBNotConnected) {
		t.Fatalf("Expected ErrDBNotConnected, got %v", err)
	}
}
