package core

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(y, m, d int, typ string, dur int, price int64) JobRecord {
	return JobRecord{Date: NewDate(y, m, d), VideoType: typ, DurationMinutes: dur, Price: Money{Pesos: price}}
}

func TestSummarizeEmpty(t *testing.T) {
	rep := Summarize(nil, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	assert.True(t, rep.IsEmpty())
	assert.Empty(t, rep.Months)
	assert.Equal(t, MonthSummary{Key: "2024-03"}, rep.Current)
}

func TestSummarizeGroupsAndOrders(t *testing.T) {
	log := JobLog{
		rec(2024, 3, 20, "Hasta 5 minutos", 3, 8863),
		rec(2023, 12, 5, "OPEN", 10, 11000),
		rec(2024, 3, 10, "CLIP", 15, 27500),
		rec(2024, 1, 31, "SAM", 4, 11000),
	}
	rep := Summarize(log, time.Date(2024, 3, 28, 12, 0, 0, 0, time.UTC))

	require.False(t, rep.IsEmpty())
	keys := rep.Keys()
	assert.Equal(t, []string{"2024-03", "2024-01", "2023-12"}, keys)
	assert.True(t, sort.SliceIsSorted(keys, func(i, j int) bool { return keys[i] > keys[j] }))

	march, ok := rep.Month("2024-03")
	require.True(t, ok)
	assert.Equal(t, 2, march.Count)
	assert.Equal(t, Money{Pesos: 36363}, march.Total)
	assert.Equal(t, []JobRecord{log[2], log[0]}, march.Records)

	assert.Equal(t, march, rep.Current)

	_, ok = rep.Month("2022-01")
	assert.False(t, ok)
}

func TestSummarizeCurrentMonthWithoutRows(t *testing.T) {
	log := JobLog{rec(2024, 3, 20, "CLIP", 3, 27500)}
	rep := Summarize(log, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-04", rep.Current.Key)
	assert.Zero(t, rep.Current.Count)
	assert.Zero(t, rep.Current.Total.Pesos)
	assert.Empty(t, rep.Current.Records)
}

func TestSummarizeStableForEqualDates(t *testing.T) {
	log := JobLog{
		rec(2024, 5, 2, "CLIP", 1, 27500),
		rec(2024, 5, 1, "OPEN", 1, 11000),
		rec(2024, 5, 2, "SAM", 1, 11000),
	}
	rep := Summarize(log, time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC))
	got := rep.Current.Records
	require.Len(t, got, 3)
	assert.Equal(t, "OPEN", got[0].VideoType)
	assert.Equal(t, "CLIP", got[1].VideoType)
	assert.Equal(t, "SAM", got[2].VideoType)
}

func TestSummarizeSkipsUndated(t *testing.T) {
	log := JobLog{
		{VideoType: "CLIP", DurationMinutes: 1, Price: Money{Pesos: 27500}},
		rec(2024, 5, 1, "OPEN", 1, 11000),
	}
	rep := Summarize(log, time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 1, rep.Undated)
	assert.Equal(t, []string{"2024-05"}, rep.Keys())
	assert.False(t, rep.IsEmpty())
}

func TestSummarizeIdempotent(t *testing.T) {
	log := JobLog{
		rec(2024, 2, 1, "CLIP", 1, 27500),
		rec(2024, 3, 1, "OPEN", 1, 11000),
		rec(2024, 2, 9, "SAM", 1, 11000),
	}
	today := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	first := Summarize(log, today)
	second := Summarize(log, today)
	assert.Equal(t, first, second)
	assert.Equal(t, "CLIP", log[0].VideoType, "input log must not be reordered")
}
