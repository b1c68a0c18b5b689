package scrapeservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dbbs/pkg/domain"
	"dbbs/pkg/glossary"
	"dbbs/pkg/storage"
	"dbbs/pkg/worker"
)

const DefaultPrefix = "parsed-"

var (
	ErrEmptyGlossaryURL = errors.New("glossary URL is empty")
	ErrNoFetcher        = errors.New("fetcher is nil")
	ErrMissingTimestamp = errors.New("parse result has no timestamp")
)

// Fetcher retrieves the glossary page.
type Fetcher interface {
	GetText(ctx context.Context, url string) (string, error)
}

// Config wires the service dependencies.
type Config struct {
	URL     string
	Prefix  string
	Fetcher Fetcher
	Parser  *glossary.Parser
	Sinks   []storage.Sink
	Logger  *zap.Logger
}

// Service fetches the glossary, parses it and stores the result in every sink.
type Service struct {
	url     string
	prefix  string
	fetcher Fetcher
	parser  *glossary.Parser
	sinks   []storage.Sink
	workers *worker.Manager
	logger  *zap.Logger
	now     func() time.Time
}

// SinkReport is the outcome of one sink write.
type SinkReport struct {
	Name  string `json:"name"`
	Error string `json:"error,omitempty"`
}

// Report summarizes one run.
type Report struct {
	RunID    string        `json:"runId"`
	Key      string        `json:"key"`
	Episodes int           `json:"episodes"`
	Bits     int           `json:"bits"`
	Sinks    []SinkReport  `json:"sinks"`
	Duration time.Duration `json:"duration"`
}

// New creates a scrape service. A nil parser gets a default one logging to cfg.Logger.
func New(cfg Config) (*Service, error) {
	if cfg.URL == "" {
		return nil, ErrEmptyGlossaryURL
	}
	if cfg.Fetcher == nil {
		return nil, ErrNoFetcher
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	parser := cfg.Parser
	if parser == nil {
		parser = glossary.NewParser(glossary.WithLogger(logger))
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}

	return &Service{
		url:     cfg.URL,
		prefix:  prefix,
		fetcher: cfg.Fetcher,
		parser:  parser,
		sinks:   cfg.Sinks,
		workers: worker.NewManager(len(cfg.Sinks), logger),
		logger:  logger,
		now:     time.Now,
	}, nil
}

// ParseOnly fetches and parses the glossary without storing anything.
func (s *Service) ParseOnly(ctx context.Context) (*domain.ParseResult, error) {
	s.logger.Info("fetching glossary", zap.String("url", s.url))
	content, err := s.fetcher.GetText(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("fetch glossary: %w", err)
	}
	s.logger.Info("fetched glossary", zap.Int("bytes", len(content)))

	result, err := s.parser.ParseString(content)
	if err != nil {
		return nil, fmt.Errorf("parse glossary: %w", err)
	}
	return result, nil
}

// Run performs one fetch, parse and store cycle. Nothing is stored when the
// fetch or parse fails. Every sink is attempted; failures are joined.
func (s *Service) Run(ctx context.Context) (*Report, error) {
	start := s.now()
	report := &Report{RunID: uuid.NewString()}
	logger := s.logger.With(zap.String("run_id", report.RunID))

	result, err := s.ParseOnly(ctx)
	if err != nil {
		logger.Error("scrape failed", zap.Error(err))
		return report, err
	}
	if result.Timestamp == nil {
		return report, ErrMissingTimestamp
	}
	report.Episodes = len(result.Episodes)
	report.Bits = len(result.Bits)

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return report, fmt.Errorf("encode parse result: %w", err)
	}
	report.Key = s.Key(result)

	tasks := make([]worker.Task, 0, len(s.sinks))
	for _, sink := range s.sinks {
		sink := sink
		tasks = append(tasks, worker.Task{
			Name: sink.Name(),
			Run: func(ctx context.Context) error {
				return sink.Save(ctx, report.Key, result, data)
			},
		})
	}
	results := s.workers.Process(ctx, tasks)

	for _, r := range results {
		sr := SinkReport{Name: r.Name}
		if r.Err != nil {
			sr.Error = r.Err.Error()
		}
		report.Sinks = append(report.Sinks, sr)
	}
	report.Duration = s.now().Sub(start)

	if err := worker.Join(results); err != nil {
		logger.Error("storing parse result failed", zap.String("key", report.Key), zap.Error(err))
		return report, fmt.Errorf("store parse result: %w", err)
	}

	logger.Info("stored parse result",
		zap.String("key", report.Key),
		zap.Int("episodes", report.Episodes),
		zap.Int("bits", report.Bits),
		zap.Int("sinks", len(report.Sinks)),
		zap.Duration("duration", report.Duration))
	return report, nil
}

// Key returns the storage key for result, <prefix><timestamp>.
func (s *Service) Key(result *domain.ParseResult) string {
	return s.prefix + *result.Timestamp
}
