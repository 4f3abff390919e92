package memory

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"videojobs/internal/core"
)

// Store keeps the job log in process memory only. Data is lost on restart.
type Store struct {
	mu    sync.Mutex
	items core.JobLog
}

func New(seed core.JobLog) *Store {
	return &Store{items: append(core.JobLog(nil), seed...)}
}

// NewFromFile seeds the store from a tab separated file of
// date, video type, duration, price. A missing file yields an empty store.
// An unreadable file or malformed rows are logged and skipped.
func NewFromFile(path string) *Store {
	seed, skipped, err := readSeed(path)
	if err != nil {
		slog.Warn("Failed to read memory seed file, starting empty", "path", path, "error", err)
	}
	if skipped > 0 {
		slog.Warn("Skipped malformed seed rows", "path", path, "skipped", skipped, "loaded", len(seed))
	}
	return New(seed)
}

// Load returns a copy of the stored log.
func (s *Store) Load(_ context.Context) (core.JobLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(core.JobLog{}, s.items...), nil
}

// Save replaces the stored log with a copy of log.
func (s *Store) Save(_ context.Context, log core.JobLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(core.JobLog{}, log...)
	return nil
}

// readSeed returns the parsed rows and how many rows were dropped. A missing
// file is not an error.
func readSeed(path string) (core.JobLog, int, error) {
	if path == "" {
		return nil, 0, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()

	var (
		out     core.JobLog
		skipped int
	)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) != 4 {
			skipped++
			continue
		}
		dur, err := strconv.Atoi(strings.TrimSpace(cols[2]))
		if err != nil {
			skipped++
			continue
		}
		price, err := strconv.ParseInt(strings.TrimSpace(cols[3]), 10, 64)
		if err != nil {
			skipped++
			continue
		}
		// unparsable dates stay as the missing marker
		date, _ := core.ParseDate(cols[0])
		out = append(out, core.JobRecord{
			Date:            date,
			VideoType:       strings.TrimSpace(cols[1]),
			DurationMinutes: dur,
			Price:           core.Money{Pesos: price},
		})
	}
	if err := sc.Err(); err != nil {
		return out, skipped, fmt.Errorf("read seed: %w", err)
	}
	return out, skipped, nil
}
