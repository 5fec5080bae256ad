// Package chartstore reads and writes the structured side of the
// patient record: the event timeline and the document index. The raw
// chart content itself lives behind content refs and is fetched
// separately.
package chartstore

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/clearchart/abstraction-cli/internal/model"
)

// Store is the timeline database boundary.
type Store interface {
	Migrate(ctx context.Context) error
	ListPatients(ctx context.Context) ([]string, error)
	LoadTimeline(ctx context.Context, patientID string) (*model.Timeline, error)
	LoadDocuments(ctx context.Context, patientID string) ([]model.CandidateDocument, error)
	// SaveTimeline upserts the timeline's events and facts. Saving the
	// same timeline twice leaves the database unchanged.
	SaveTimeline(ctx context.Context, tl *model.Timeline) error
	Close() error
}

// Open creates a Store for the configured driver.
func Open(ctx context.Context, driver, databaseURL string) (Store, error) {
	switch driver {
	case "sqlite", "":
		return NewSQLite(databaseURL)
	case "postgres":
		return NewPostgres(ctx, databaseURL)
	default:
		return nil, eris.Errorf("chartstore: unknown driver %q", driver)
	}
}
