package scrapeservice

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"dbbs/pkg/domain"
	"dbbs/pkg/glossary"
)

const glossaryHTML = `<ul>
<li><p><a href="https://art19.com/shows/dynamic-banter/episodes/1">Episode 1: History Road</a></p>
<ul>
<li><strong>[00:05:00]</strong> Aerosmith is late for the show</li>
<li><em>HR:</em> The Alamo</li>
</ul>
</li>
</ul>`

type fakeFetcher struct {
	body string
	err  error
	url  string
}

func (f *fakeFetcher) GetText(ctx context.Context, url string) (string, error) {
	f.url = url
	return f.body, f.err
}

type fakeSink struct {
	name string
	err  error

	mu    sync.Mutex
	keys  []string
	saved []byte
}

func (s *fakeSink) Name() string { return s.name }

func (s *fakeSink) Save(ctx context.Context, key string, result *domain.ParseResult, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, key)
	s.saved = data
	return s.err
}

func newTestService(t *testing.T, fetcher Fetcher, sinks ...*fakeSink) *Service {
	t.Helper()
	clock := func() time.Time { return time.Date(2024, time.March, 5, 7, 8, 9, 0, time.UTC) }

	cfg := Config{
		URL:     "https://example.com/glossary",
		Fetcher: fetcher,
		Parser:  glossary.NewParser(glossary.WithClock(clock)),
	}
	for _, s := range sinks {
		cfg.Sinks = append(cfg.Sinks, s)
	}

	svc, err := New(cfg)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return svc
}

func TestRun_StoresInEverySink(t *testing.T) {
	fetcher := &fakeFetcher{body: glossaryHTML}
	file := &fakeSink{name: "file"}
	bucket := &fakeSink{name: "s3"}

	report, err := newTestService(t, fetcher, file, bucket).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if fetcher.url != "https://example.com/glossary" {
		t.Errorf("Unexpected fetch URL: %s", fetcher.url)
	}
	if report.Key != "parsed-3-5-2024-07:08:09" {
		t.Errorf("Unexpected key: %s", report.Key)
	}
	if report.Episodes != 1 || report.Bits != 2 {
		t.Errorf("Unexpected counts: %+v", report)
	}
	if report.RunID == "" {
		t.Error("Expected a run ID")
	}
	if len(report.Sinks) != 2 {
		t.Fatalf("Expected 2 sink reports, got %d", len(report.Sinks))
	}

	for _, s := range []*fakeSink{file, bucket} {
		if len(s.keys) != 1 || s.keys[0] != report.Key {
			t.Errorf("%s: unexpected keys %v", s.name, s.keys)
		}
		var decoded domain.ParseResult
		if err := json.Unmarshal(s.saved, &decoded); err != nil {
			t.Fatalf("%s: stored data is not JSON: %v", s.name, err)
		}
		if len(decoded.Bits) != 2 {
			t.Errorf("%s: expected 2 bits, got %d", s.name, len(decoded.Bits))
		}
	}
	if !strings.Contains(string(file.saved), "\n  \"episodes\"") {
		t.Errorf("Expected indented JSON, got %s", file.saved)
	}
}

func TestRun_SinkFailureIsReported(t *testing.T) {
	denied := errors.New("access denied")
	file := &fakeSink{name: "file"}
	bucket := &fakeSink{name: "s3", err: denied}

	report, err := newTestService(t, &fakeFetcher{body: glossaryHTML}, file, bucket).Run(context.Background())
	if !errors.Is(err, denied) {
		t.Fatalf("Expected sink error, got %v", err)
	}
	if len(file.keys) != 1 {
		t.Error("Expected the healthy sink to still be written")
	}
	if report.Sinks[1].Name != "s3" || report.Sinks[1].Error == "" {
		t.Errorf("Expected s3 failure in report, got %+v", report.Sinks)
	}
}

func TestRun_FetchFailureStoresNothing(t *testing.T) {
	sink := &fakeSink{name: "file"}
	_, err := newTestService(t, &fakeFetcher{err: errors.New("timeout")}, sink).Run(context.Background())
	if err == nil || !strings.HasPrefix(err.Error(), "fetch glossary") {
		t.Fatalf("Expected fetch error, got %v", err)
	}
	if len(sink.keys) != 0 {
		t.Error("Expected no writes after a failed fetch")
	}
}

func TestRun_ParseFailureStoresNothing(t *testing.T) {
	broken := `<ul><li><p><a href="x">Episode 1: A</a></p><ul><li>split
bit</li></ul></li></ul>`
	sink := &fakeSink{name: "file"}

	_, err := newTestService(t, &fakeFetcher{body: broken}, sink).Run(context.Background())
	if !errors.Is(err, glossary.ErrUnmatchedBitFragment) {
		t.Fatalf("Expected ErrUnmatchedBitFragment, got %v", err)
	}
	if len(sink.keys) != 0 {
		t.Error("Expected no writes after a failed parse")
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{Fetcher: &fakeFetcher{}}); !errors.Is(err, ErrEmptyGlossaryURL) {
		t.Errorf("Expected ErrEmptyGlossaryURL, got %v", err)
	}
	if _, err := New(Config{URL: "https://example.com"}); !errors.Is(err, ErrNoFetcher) {
		t.Errorf("Expected ErrNoFetcher, got %v", err)
	}
}

func TestParseOnly(t *testing.T) {
	result, err := newTestService(t, &fakeFetcher{body: glossaryHTML}).ParseOnly(context.Background())
	if err != nil {
		t.Fatalf("ParseOnly returned error: %v", err)
	}
	if len(result.Episodes) != 1 || result.Episodes[0].Name != "History Road" {
		t.Errorf("Unexpected result: %+v", result)
	}
}
