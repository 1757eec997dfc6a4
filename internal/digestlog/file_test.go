package digestlog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/job-digest-notifier/internal/core/domain"
)

func newTestFile(t *testing.T) *File {
	t.Helper()

	logger := zerolog.Nop()

	f, err := NewFile(filepath.Join(t.TempDir(), "nested", "digest-log.jsonl"), &logger)
	require.NoError(t, err)

	return f
}

func TestFile_FailureRateCountsWindow(t *testing.T) {
	f := newTestFile(t)
	ctx := context.Background()
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return now }

	require.NoError(t, f.LogSuccess(ctx, domain.DigestLogEntry{Channel: domain.ChannelEmail, Recipient: "a@example.com", Attempt: 1}))
	require.NoError(t, f.LogFailure(ctx, domain.DigestLogEntry{Channel: domain.ChannelTelegram, Recipient: "42", Attempt: 1}))
	require.NoError(t, f.LogFailure(ctx, domain.DigestLogEntry{Time: now.Add(-48 * time.Hour), Recipient: "old"}))

	rate, err := f.FailureRate(ctx, 24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 2, rate.Total)
	assert.Equal(t, 1, rate.Failed)
	assert.InDelta(t, 0.5, rate.FailureRate, 1e-9)
}

func TestFile_MissingFileIsEmpty(t *testing.T) {
	f := newTestFile(t)

	rate, err := f.FailureRate(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, domain.FailureRate{}, rate)
}

func TestFile_SkipsCorruptLines(t *testing.T) {
	f := newTestFile(t)
	ctx := context.Background()

	require.NoError(t, f.LogSuccess(ctx, domain.DigestLogEntry{Recipient: "a@example.com"}))
	require.NoError(t, appendRaw(f.path, "{not json\n"))

	rate, err := f.FailureRate(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, rate.Total)
}

func TestFile_ConcurrentAppendsKeepWholeLines(t *testing.T) {
	f := newTestFile(t)
	ctx := context.Background()

	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			entry := domain.DigestLogEntry{Recipient: strings.Repeat("x", 200), JobIDs: []string{"primary:1"}, Attempt: i}
			if i%2 == 0 {
				assert.NoError(t, f.LogSuccess(ctx, entry))
			} else {
				assert.NoError(t, f.LogFailure(ctx, entry))
			}
		}(i)
	}

	wg.Wait()

	rate, err := f.FailureRate(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 50, rate.Total)
	assert.Equal(t, 25, rate.Failed)
}

func appendRaw(path, s string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, filePerm)
	if err != nil {
		return err
	}

	if _, err := file.WriteString(s); err != nil {
		_ = file.Close()

		return err
	}

	return file.Close()
}
