package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"videojobs/internal/core"
	"videojobs/internal/pricing"
	"videojobs/internal/sheets"
)

// JobService is the only mutation path into the job log. Storage is the
// source of truth; event publishing is optional and best-effort.
type JobService struct {
	store     sheets.LogStore
	prices    pricing.Table
	publisher sheets.EventPublisher
}

// NewJobService wires the recorder. publisher may be nil.
func NewJobService(store sheets.LogStore, prices pricing.Table, publisher sheets.EventPublisher) *JobService {
	return &JobService{
		store:     store,
		prices:    prices,
		publisher: publisher,
	}
}

// Pricing returns the table used to price new jobs.
func (s *JobService) Pricing() pricing.Table {
	return s.prices
}

// Record prices a job, appends it to a copy of log and persists the result.
// The caller's slice is never modified.
func (s *JobService) Record(ctx context.Context, log core.JobLog, date core.Date, videoType string, durationMinutes int) (core.JobLog, core.Money, error) {
	if durationMinutes < 1 || durationMinutes > core.MaxDurationMinutes {
		return log, core.Money{}, core.ErrInvalidDuration
	}
	if date.IsEmpty() {
		return log, core.Money{}, core.ErrMissingDate
	}

	price := s.prices.CalculatePrice(videoType, durationMinutes)

	rec := core.JobRecord{
		Date:            date,
		VideoType:       videoType,
		DurationMinutes: durationMinutes,
		Price:           price,
	}
	if err := rec.Validate(); err != nil {
		return log, core.Money{}, err
	}
	if !s.prices.IsKnown(videoType) {
		slog.WarnContext(ctx, "Recording job with unknown video type, price is zero",
			"video_type", videoType)
	}

	next := log.Append(rec)
	if err := s.store.Save(ctx, next); err != nil {
		return log, core.Money{}, fmt.Errorf("save job log: %w", err)
	}

	slog.InfoContext(ctx, "Job recorded",
		"date", date.String(),
		"video_type", videoType,
		"duration_minutes", durationMinutes,
		"price", price.Pesos,
		"records", len(next))

	if err := s.publishRecorded(ctx, len(next), rec); err != nil {
		slog.ErrorContext(ctx, "Failed to publish job recorded event",
			"position", len(next), "error", err)
		// not fatal, the job is saved
	}

	return next, price, nil
}

// RecordNow runs a full load, append, persist cycle against the store.
func (s *JobService) RecordNow(ctx context.Context, date core.Date, videoType string, durationMinutes int) (core.Money, error) {
	log, err := s.Load(ctx)
	if err != nil {
		return core.Money{}, err
	}
	_, price, err := s.Record(ctx, log, date, videoType, durationMinutes)
	return price, err
}

// Load reads the current job log.
func (s *JobService) Load(ctx context.Context) (core.JobLog, error) {
	log, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load job log: %w", err)
	}
	return log, nil
}

// Summary loads the log and groups it by month, with today selecting the
// current month.
func (s *JobService) Summary(ctx context.Context, today time.Time) (core.Report, error) {
	log, err := s.Load(ctx)
	if err != nil {
		return core.Report{}, err
	}
	return core.Summarize(log, today), nil
}

func (s *JobService) publishRecorded(ctx context.Context, position int, rec core.JobRecord) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping job recorded event")
		return nil
	}
	return s.publisher.PublishJobRecorded(ctx, position, rec)
}

// Close releases the store and publisher when they hold resources.
func (s *JobService) Close() error {
	var errs []error

	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}

	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close job service: %w", errors.Join(errs...))
	}

	return nil
}
