package sheets

import (
	"context"

	"videojobs/internal/core"
)

// Ports for outbound adapters.
type (
	// LogStore persists the complete job log. Save always writes the whole log.
	LogStore interface {
		Load(ctx context.Context) (core.JobLog, error)
		Save(ctx context.Context, log core.JobLog) error
	}

	// EventPublisher announces recorded jobs to optional downstream consumers.
	EventPublisher interface {
		PublishJobRecorded(ctx context.Context, position int, rec core.JobRecord) error
	}

	// RowMirror writes jobs to an external spreadsheet.
	RowMirror interface {
		AppendJob(ctx context.Context, rec core.JobRecord) (rowRef string, err error)
		ReplaceAll(ctx context.Context, log core.JobLog) error
	}
)
