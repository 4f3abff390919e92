package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"videojobs/internal/amqp"
	"videojobs/internal/sheets"
)

// MirrorWorker copies the job log into a spreadsheet. The Log Store stays the
// source of truth; the sheet is never read back.
type MirrorWorker struct {
	store  sheets.LogStore
	mirror sheets.RowMirror

	mu sync.Mutex
	// highest log position known to be in the sheet
	mirrored int
}

func NewMirrorWorker(store sheets.LogStore, mirror sheets.RowMirror) *MirrorWorker {
	return &MirrorWorker{store: store, mirror: mirror}
}

// HandleJobRecorded appends the announced record as a new row. Positions
// already covered by a resync are skipped.
func (w *MirrorWorker) HandleJobRecorded(ctx context.Context, msg *amqp.JobRecordedMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if msg.Position > 0 && msg.Position <= w.mirrored {
		slog.DebugContext(ctx, "Job already mirrored, skipping",
			"position", msg.Position,
			"mirrored", w.mirrored)
		return nil
	}

	ref, err := w.mirror.AppendJob(ctx, msg.Record())
	if err != nil {
		return fmt.Errorf("append job %d to sheet: %w", msg.Position, err)
	}
	if msg.Position > w.mirrored {
		w.mirrored = msg.Position
	}

	slog.InfoContext(ctx, "Job mirrored",
		"position", msg.Position,
		"sheets_ref", ref,
		"video_type", msg.VideoType,
		"price", msg.Price)
	return nil
}

// Resync rewrites the whole sheet from the Log Store.
func (w *MirrorWorker) Resync(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	log, err := w.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load job log: %w", err)
	}
	if err := w.mirror.ReplaceAll(ctx, log); err != nil {
		return fmt.Errorf("replace sheet rows: %w", err)
	}
	w.mirrored = len(log)

	slog.InfoContext(ctx, "Sheet resync completed", "records", len(log))
	return nil
}

// Mirrored returns the highest position known to be in the sheet.
func (w *MirrorWorker) Mirrored() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mirrored
}

// ValidateSchedule checks a cron spec such as "@daily" or "0 3 * * *".
func ValidateSchedule(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid resync schedule %q: %w", spec, err)
	}
	return nil
}

// StartResync runs Resync on spec until ctx is done. The returned scheduler
// is already started.
func (w *MirrorWorker) StartResync(ctx context.Context, spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if err := w.Resync(ctx); err != nil {
			slog.ErrorContext(ctx, "Scheduled resync failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule resync %q: %w", spec, err)
	}
	c.Start()

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()

	slog.InfoContext(ctx, "Resync scheduled", "schedule", spec)
	return c, nil
}
