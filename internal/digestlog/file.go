// Package digestlog implements the append-only delivery audit sink as a JSON
// lines file. Each line is one domain.DigestLogEntry.
package digestlog

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/job-digest-notifier/internal/core/domain"
	"github.com/lueurxax/job-digest-notifier/internal/core/ports"
)

const (
	filePerm = 0o644
	dirPerm  = 0o755

	// maxLineBytes bounds a single entry when reading the file back.
	maxLineBytes = 1 << 20
)

// File is a file-backed ports.DigestLog. Writes are serialized; every entry
// is flushed with its own write call so concurrent channels never interleave
// partial lines.
type File struct {
	path   string
	mu     sync.Mutex
	now    func() time.Time
	logger *zerolog.Logger
}

var _ ports.DigestLog = (*File)(nil)

// NewFile creates the parent directory of path if needed.
func NewFile(path string, logger *zerolog.Logger) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, fmt.Errorf("create digest log directory: %w", err)
	}

	return &File{path: path, now: time.Now, logger: logger}, nil
}

// LogSuccess appends a successful delivery attempt.
func (f *File) LogSuccess(_ context.Context, entry domain.DigestLogEntry) error {
	entry.Status = domain.LogStatusSuccess

	return f.append(entry)
}

// LogFailure appends a failed delivery attempt.
func (f *File) LogFailure(_ context.Context, entry domain.DigestLogEntry) error {
	entry.Status = domain.LogStatusFailure

	return f.append(entry)
}

func (f *File) append(entry domain.DigestLogEntry) error {
	if entry.Time.IsZero() {
		entry.Time = f.now()
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal digest log entry: %w", err)
	}

	line = append(line, '\n')

	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("open digest log: %w", err)
	}

	if _, err := file.Write(line); err != nil {
		_ = file.Close()

		return fmt.Errorf("write digest log: %w", err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("close digest log: %w", err)
	}

	return nil
}

// FailureRate scans the file for entries logged within window. Lines that do
// not decode are skipped.
func (f *File) FailureRate(ctx context.Context, window time.Duration) (domain.FailureRate, error) {
	since := f.now().Add(-window)

	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.NewFailureRate(0, 0), nil
		}

		return domain.FailureRate{}, fmt.Errorf("open digest log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineBytes)

	var total, failed, skipped int

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return domain.FailureRate{}, fmt.Errorf("scan digest log: %w", err)
		}

		var entry domain.DigestLogEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			skipped++

			continue
		}

		if entry.Time.Before(since) {
			continue
		}

		total++

		if entry.Status == domain.LogStatusFailure {
			failed++
		}
	}

	if err := scanner.Err(); err != nil {
		return domain.FailureRate{}, fmt.Errorf("scan digest log: %w", err)
	}

	if skipped > 0 && f.logger != nil {
		f.logger.Warn().Int("lines", skipped).Str("path", f.path).Msg("skipped undecodable digest log lines")
	}

	return domain.NewFailureRate(total, failed), nil
}
