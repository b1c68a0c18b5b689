// Package storage persists serialized parse results to files and object stores.
package storage

import (
	"context"

	"dbbs/pkg/domain"
)

// Sink stores one parse result under key. data is the indented JSON encoding
// of result; sinks that store documents may use result directly instead.
type Sink interface {
	Name() string
	Save(ctx context.Context, key string, result *domain.ParseResult, data []byte) error
}
