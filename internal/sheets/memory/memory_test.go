package memory

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videojobs/internal/core"
)

func TestMemoryStoreSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s := New(nil)

	log, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, log)

	want := core.JobLog{
		{Date: core.NewDate(2024, 3, 10), VideoType: "CLIP", DurationMinutes: 15, Price: core.Money{Pesos: 27500}},
		{Date: core.NewDate(2024, 3, 10), VideoType: "CLIP", DurationMinutes: 15, Price: core.Money{Pesos: 27500}},
	}
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// callers cannot mutate stored state through returned slices
	got[0].VideoType = "OPEN"
	again, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "CLIP", again[0].VideoType)
}

func TestNewFromFileSeeds(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, mustLoad(t, NewFromFile(filepath.Join(dir, "missing.tsv"))))

	path := filepath.Join(dir, "seed.tsv")
	content := "# date\ttype\tduration\tprice\n" +
		"2024-03-10\tCLIP\t15\t27500\n" +
		"not-a-date\tSAM\t2\t11000\n" +
		"2024-03-11\tbroken row\n" +
		"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	log := mustLoad(t, NewFromFile(path))
	require.Len(t, log, 2)
	assert.Equal(t, core.NewDate(2024, 3, 10), log[0].Date)
	assert.True(t, log[1].Date.IsEmpty())
	assert.Equal(t, core.Money{Pesos: 11000}, log[1].Price)
}

func TestReadSeedReportsProblems(t *testing.T) {
	dir := t.TempDir()

	log, skipped, err := readSeed(filepath.Join(dir, "missing.tsv"))
	require.NoError(t, err, "a missing seed is a normal empty start")
	assert.Empty(t, log)
	assert.Zero(t, skipped)

	path := filepath.Join(dir, "seed.tsv")
	content := "2024-03-10\tCLIP\t15\t27500\n" +
		"2024-03-11\tbroken row\n" +
		"2024-03-12\tOPEN\tten\t11000\n" +
		"2024-03-13\tSAM\t2\tfree\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	log, skipped, err = readSeed(path)
	require.NoError(t, err)
	assert.Len(t, log, 1)
	assert.Equal(t, 3, skipped)

	// a directory opens fine on Linux but cannot be read
	_, _, err = readSeed(dir)
	require.Error(t, err)
	assert.NotErrorIs(t, err, fs.ErrNotExist)
}

func mustLoad(t *testing.T, s *Store) core.JobLog {
	t.Helper()
	log, err := s.Load(context.Background())
	require.NoError(t, err)
	return log
}
