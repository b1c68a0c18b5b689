package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"dbbs/pkg/domain"
)

// FileSink writes each result to <Dir>/<key>.json.
type FileSink struct {
	Dir string
}

func NewFileSink(dir string) *FileSink {
	return &FileSink{Dir: dir}
}

func (s *FileSink) Name() string {
	return "file"
}

// Save writes through a temp file in the same directory so readers never see
// a half-written result.
func (s *FileSink) Save(ctx context.Context, key string, _ *domain.ParseResult, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.Dir, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}

	path := s.Path(key)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}

// Path returns where key is written.
func (s *FileSink) Path(key string) string {
	return filepath.Join(s.Dir, key+".json")
}
