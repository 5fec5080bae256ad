package model

import "time"

// GapManifestEntry summarizes one gap's terminal outcome for the run
// artifact. Unresolved gaps carry a reason code.
type GapManifestEntry struct {
	GapType         GapType   `json:"gap_type"`
	EventID         string    `json:"event_id"`
	Status          GapStatus `json:"status"`
	Reason          string    `json:"reason,omitempty"`
	CandidatesTried int       `json:"candidates_tried"`
	OracleCalls     int       `json:"oracle_calls"`
}

// Artifact is the sole persisted boundary output of an abstraction run:
// the full event list with embedded provenance, plus the manifest of every
// gap's terminal status. The schema is stable across runs to support
// downstream diffing.
type Artifact struct {
	RunID       string             `json:"run_id"`
	PatientID   string             `json:"patient_id"`
	GeneratedAt time.Time          `json:"generated_at"`
	Events      []*Event           `json:"events"`
	GapManifest []GapManifestEntry `json:"gap_manifest"`
}
