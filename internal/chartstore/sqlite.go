package chartstore

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/clearchart/abstraction-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS events (
	id          TEXT PRIMARY KEY,
	patient_id  TEXT NOT NULL,
	type        TEXT NOT NULL,
	anchor_date DATETIME,
	synthesized INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS event_facts (
	event_id   TEXT NOT NULL REFERENCES events(id),
	fact_name  TEXT NOT NULL,
	fact_value TEXT,
	PRIMARY KEY (event_id, fact_name)
);

CREATE TABLE IF NOT EXISTS documents (
	id          TEXT PRIMARY KEY,
	patient_id  TEXT NOT NULL,
	category    TEXT,
	doc_date    DATETIME,
	description TEXT,
	content_ref TEXT NOT NULL,
	image_only  INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_events_patient_id ON events(patient_id);
CREATE INDEX IF NOT EXISTS idx_documents_patient_id ON documents(patient_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ListPatients(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT patient_id FROM events ORDER BY patient_id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list patients")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan patient id")
		}
		ids = append(ids, id)
	}
	return ids, eris.Wrap(rows.Err(), "sqlite: list patients iterate")
}

func (s *SQLiteStore) LoadTimeline(ctx context.Context, patientID string) (*model.Timeline, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, anchor_date, synthesized FROM events WHERE patient_id = ?`,
		patientID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: load events for %s", patientID)
	}
	defer rows.Close()

	tl := &model.Timeline{PatientID: patientID}
	byID := make(map[string]*model.Event)
	for rows.Next() {
		var ev model.Event
		var anchor sql.NullTime
		var synthesized int
		if err := rows.Scan(&ev.ID, &ev.Type, &anchor, &synthesized); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan event")
		}
		ev.PatientID = patientID
		ev.Synthesized = synthesized != 0
		if anchor.Valid {
			d := anchor.Time.UTC()
			ev.AnchorDate = &d
		}
		ev.Facts = make(map[string]any)
		byID[ev.ID] = &ev
		tl.Events = append(tl.Events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: load events iterate")
	}

	factRows, err := s.db.QueryContext(ctx,
		`SELECT f.event_id, f.fact_name, f.fact_value
		 FROM event_facts f JOIN events e ON e.id = f.event_id
		 WHERE e.patient_id = ?`,
		patientID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: load facts for %s", patientID)
	}
	defer factRows.Close()

	for factRows.Next() {
		var eventID, name string
		var value sql.NullString
		if err := factRows.Scan(&eventID, &name, &value); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan fact")
		}
		if ev, ok := byID[eventID]; ok {
			ev.Facts[name] = decodeFactValue(value)
		}
	}
	if err := factRows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: load facts iterate")
	}

	tl.Sort()
	return tl, nil
}

func (s *SQLiteStore) LoadDocuments(ctx context.Context, patientID string) ([]model.CandidateDocument, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, category, doc_date, description, content_ref, image_only
		 FROM documents WHERE patient_id = ? ORDER BY id`,
		patientID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: load documents for %s", patientID)
	}
	defer rows.Close()

	var docs []model.CandidateDocument
	for rows.Next() {
		var d model.CandidateDocument
		var category, description sql.NullString
		var date sql.NullTime
		var imageOnly int
		if err := rows.Scan(&d.ID, &category, &date, &description, &d.ContentRef, &imageOnly); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan document")
		}
		d.PatientID = patientID
		d.Category = model.DocCategory(category.String)
		d.Description = description.String
		d.ImageOnly = imageOnly != 0
		if date.Valid {
			t := date.Time.UTC()
			d.Date = &t
		}
		docs = append(docs, d)
	}
	return docs, eris.Wrap(rows.Err(), "sqlite: load documents iterate")
}

func (s *SQLiteStore) SaveTimeline(ctx context.Context, tl *model.Timeline) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, ev := range tl.Events {
		var anchor any
		if ev.AnchorDate != nil {
			anchor = ev.AnchorDate.UTC()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO events (id, patient_id, type, anchor_date, synthesized)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET type = excluded.type,
			   anchor_date = excluded.anchor_date, synthesized = excluded.synthesized`,
			ev.ID, tl.PatientID, string(ev.Type), anchor, boolToInt(ev.Synthesized),
		); err != nil {
			return eris.Wrapf(err, "sqlite: upsert event %s", ev.ID)
		}

		for name, value := range ev.Facts {
			encoded, err := encodeFactValue(value)
			if err != nil {
				return eris.Wrapf(err, "sqlite: encode fact %s on %s", name, ev.ID)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO event_facts (event_id, fact_name, fact_value)
				 VALUES (?, ?, ?)
				 ON CONFLICT(event_id, fact_name) DO UPDATE SET fact_value = excluded.fact_value`,
				ev.ID, name, encoded,
			); err != nil {
				return eris.Wrapf(err, "sqlite: upsert fact %s on %s", name, ev.ID)
			}
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

// SaveDocuments upserts the document index for a patient.
func (s *SQLiteStore) SaveDocuments(ctx context.Context, docs []model.CandidateDocument) error {
	for _, d := range docs {
		var date any
		if d.Date != nil {
			date = d.Date.UTC()
		}
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO documents (id, patient_id, category, doc_date, description, content_ref, image_only)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET category = excluded.category,
			   doc_date = excluded.doc_date, description = excluded.description,
			   content_ref = excluded.content_ref, image_only = excluded.image_only`,
			d.ID, d.PatientID, string(d.Category), date, d.Description, d.ContentRef, boolToInt(d.ImageOnly),
		); err != nil {
			return eris.Wrapf(err, "sqlite: upsert document %s", d.ID)
		}
	}
	return nil
}

// Fact values are stored JSON-encoded so numeric doses round-trip as
// numbers, not strings.
func encodeFactValue(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeFactValue(v sql.NullString) any {
	if !v.Valid {
		return nil
	}
	var out any
	if err := json.Unmarshal([]byte(v.String), &out); err != nil {
		// Legacy rows may hold bare strings.
		return v.String
	}
	return out
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
