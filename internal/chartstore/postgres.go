package chartstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/clearchart/abstraction-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies
// it in tests.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS events (
	id          TEXT PRIMARY KEY,
	patient_id  TEXT NOT NULL,
	type        TEXT NOT NULL,
	anchor_date TIMESTAMPTZ,
	synthesized BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS event_facts (
	event_id   TEXT NOT NULL REFERENCES events(id),
	fact_name  TEXT NOT NULL,
	fact_value JSONB,
	PRIMARY KEY (event_id, fact_name)
);

CREATE TABLE IF NOT EXISTS documents (
	id          TEXT PRIMARY KEY,
	patient_id  TEXT NOT NULL,
	category    TEXT,
	doc_date    TIMESTAMPTZ,
	description TEXT,
	content_ref TEXT NOT NULL,
	image_only  BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_events_patient_id ON events(patient_id);
CREATE INDEX IF NOT EXISTS idx_documents_patient_id ON documents(patient_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) ListPatients(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT patient_id FROM events ORDER BY patient_id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list patients")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "postgres: scan patient id")
		}
		ids = append(ids, id)
	}
	return ids, eris.Wrap(rows.Err(), "postgres: list patients iterate")
}

func (s *PostgresStore) LoadTimeline(ctx context.Context, patientID string) (*model.Timeline, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, type, anchor_date, synthesized FROM events WHERE patient_id = $1`,
		patientID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: load events for %s", patientID)
	}
	defer rows.Close()

	tl := &model.Timeline{PatientID: patientID}
	byID := make(map[string]*model.Event)
	for rows.Next() {
		var ev model.Event
		var anchor *time.Time
		if err := rows.Scan(&ev.ID, &ev.Type, &anchor, &ev.Synthesized); err != nil {
			return nil, eris.Wrap(err, "postgres: scan event")
		}
		ev.PatientID = patientID
		if anchor != nil {
			d := anchor.UTC()
			ev.AnchorDate = &d
		}
		ev.Facts = make(map[string]any)
		byID[ev.ID] = &ev
		tl.Events = append(tl.Events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: load events iterate")
	}

	factRows, err := s.pool.Query(ctx,
		`SELECT f.event_id, f.fact_name, f.fact_value
		 FROM event_facts f JOIN events e ON e.id = f.event_id
		 WHERE e.patient_id = $1`,
		patientID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: load facts for %s", patientID)
	}
	defer factRows.Close()

	for factRows.Next() {
		var eventID, name string
		var value any
		if err := factRows.Scan(&eventID, &name, &value); err != nil {
			return nil, eris.Wrap(err, "postgres: scan fact")
		}
		if ev, ok := byID[eventID]; ok {
			ev.Facts[name] = value
		}
	}
	if err := factRows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: load facts iterate")
	}

	tl.Sort()
	return tl, nil
}

func (s *PostgresStore) LoadDocuments(ctx context.Context, patientID string) ([]model.CandidateDocument, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, category, doc_date, description, content_ref, image_only
		 FROM documents WHERE patient_id = $1 ORDER BY id`,
		patientID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: load documents for %s", patientID)
	}
	defer rows.Close()

	var docs []model.CandidateDocument
	for rows.Next() {
		var d model.CandidateDocument
		var category, description sql.NullString
		var date *time.Time
		if err := rows.Scan(&d.ID, &category, &date, &description, &d.ContentRef, &d.ImageOnly); err != nil {
			return nil, eris.Wrap(err, "postgres: scan document")
		}
		d.PatientID = patientID
		d.Category = model.DocCategory(category.String)
		d.Description = description.String
		if date != nil {
			t := date.UTC()
			d.Date = &t
		}
		docs = append(docs, d)
	}
	return docs, eris.Wrap(rows.Err(), "postgres: load documents iterate")
}

func (s *PostgresStore) SaveTimeline(ctx context.Context, tl *model.Timeline) error {
	for _, ev := range tl.Events {
		var anchor *time.Time
		if ev.AnchorDate != nil {
			t := ev.AnchorDate.UTC()
			anchor = &t
		}
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO events (id, patient_id, type, anchor_date, synthesized)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO UPDATE SET type = EXCLUDED.type,
			   anchor_date = EXCLUDED.anchor_date, synthesized = EXCLUDED.synthesized`,
			ev.ID, tl.PatientID, string(ev.Type), anchor, ev.Synthesized,
		); err != nil {
			return eris.Wrapf(err, "postgres: upsert event %s", ev.ID)
		}

		for name, value := range ev.Facts {
			encoded, err := encodeFactValue(value)
			if err != nil {
				return eris.Wrapf(err, "postgres: encode fact %s on %s", name, ev.ID)
			}
			if _, err := s.pool.Exec(ctx,
				`INSERT INTO event_facts (event_id, fact_name, fact_value)
				 VALUES ($1, $2, $3)
				 ON CONFLICT (event_id, fact_name) DO UPDATE SET fact_value = EXCLUDED.fact_value`,
				ev.ID, name, encoded,
			); err != nil {
				return eris.Wrapf(err, "postgres: upsert fact %s on %s", name, ev.ID)
			}
		}
	}
	return nil
}
