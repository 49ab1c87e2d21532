package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// FSSink writes records into a billy filesystem through a temp file and rename,
// so a record is either absent or complete.
type FSSink struct {
	fs billy.Filesystem
}

// NewFSSink wraps an existing filesystem.
func NewFSSink(fs billy.Filesystem) *FSSink {
	return &FSSink{fs: fs}
}

// NewLocalSink creates dir if needed and returns a sink rooted there.
func NewLocalSink(dir string) (*FSSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}
	return NewFSSink(osfs.New(dir)), nil
}

func (s *FSSink) Location(name string) string {
	return filepath.Join(s.fs.Root(), name)
}

func (s *FSSink) Write(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := s.fs.TempFile(".", "."+name+".")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = tmp.Close()
			_ = s.fs.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := s.fs.Rename(tmpName, name); err != nil {
		_ = s.fs.Remove(tmpName)
		cleanup = false
		return fmt.Errorf("rename temp file into place: %w", err)
	}
	cleanup = false
	return nil
}
