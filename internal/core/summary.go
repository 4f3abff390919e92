package core

import (
	"sort"
	"time"
)

// MonthSummary aggregates the jobs of a single "YYYY-MM" month.
type MonthSummary struct {
	Key     string
	Count   int
	Total   Money
	Records []JobRecord // ascending by date
}

// Report is the month-grouped view of a JobLog.
type Report struct {
	Months  []MonthSummary // most recent month first
	Current MonthSummary
	Undated int // records whose date could not be parsed
	size    int
}

// IsEmpty reports whether the summarized log had no records at all.
func (r Report) IsEmpty() bool {
	return r.size == 0
}

// Month returns the summary for key, if present.
func (r Report) Month(key string) (MonthSummary, bool) {
	for _, m := range r.Months {
		if m.Key == key {
			return m, true
		}
	}
	return MonthSummary{Key: key}, false
}

// Keys returns the month keys in display order.
func (r Report) Keys() []string {
	keys := make([]string, len(r.Months))
	for i, m := range r.Months {
		keys[i] = m.Key
	}
	return keys
}

// Summarize groups log by month key. today selects the current month and is
// never read from the clock here.
func Summarize(log JobLog, today time.Time) Report {
	rep := Report{size: len(log)}
	byKey := make(map[string]*MonthSummary)

	for _, rec := range log {
		key := rec.Date.MonthKey()
		if key == "" {
			rep.Undated++
			continue
		}
		ms, ok := byKey[key]
		if !ok {
			ms = &MonthSummary{Key: key}
			byKey[key] = ms
		}
		ms.Count++
		ms.Total = ms.Total.Add(rec.Price)
		ms.Records = append(ms.Records, rec)
	}

	rep.Months = make([]MonthSummary, 0, len(byKey))
	for _, ms := range byKey {
		sort.SliceStable(ms.Records, func(i, j int) bool {
			return ms.Records[i].Date.Before(ms.Records[j].Date.Time)
		})
		rep.Months = append(rep.Months, *ms)
	}
	sort.Slice(rep.Months, func(i, j int) bool {
		return rep.Months[i].Key > rep.Months[j].Key
	})

	rep.Current, _ = rep.Month(DateOf(today).MonthKey())
	return rep
}
