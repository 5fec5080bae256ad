package timeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rotisserie/eris"

	"github.com/clearchart/abstraction-cli/internal/model"
)

// BuildArtifact assembles the run artifact: the integrated event list
// plus the terminal status of every gap the run touched. The manifest is
// sorted by event id then gap type so the artifact diffs cleanly between
// runs.
func BuildArtifact(runID string, tl *model.Timeline, gaps []*model.Gap, generatedAt time.Time) *model.Artifact {
	manifest := make([]model.GapManifestEntry, 0, len(gaps))
	for _, g := range gaps {
		manifest = append(manifest, model.GapManifestEntry{
			GapType:         g.Type,
			EventID:         g.EventID,
			Status:          g.Status,
			Reason:          g.Reason,
			CandidatesTried: g.CandidatesTried,
			OracleCalls:     g.OracleCalls,
		})
	}
	sort.Slice(manifest, func(i, j int) bool {
		if manifest[i].EventID != manifest[j].EventID {
			return manifest[i].EventID < manifest[j].EventID
		}
		return manifest[i].GapType < manifest[j].GapType
	})

	tl.Sort()
	return &model.Artifact{
		RunID:       runID,
		PatientID:   tl.PatientID,
		GeneratedAt: generatedAt.UTC(),
		Events:      tl.Events,
		GapManifest: manifest,
	}
}

// EncodeArtifact renders the artifact as indented JSON. Object keys are
// emitted in sorted order, so identical inputs produce identical bytes.
func EncodeArtifact(a *model.Artifact) ([]byte, error) {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "timeline: encode artifact")
	}
	return append(data, '\n'), nil
}

// WriteArtifact writes the artifact to <dir>/<patient_id>.json,
// creating the directory if needed. The write goes through a temp file
// and rename so a crash never leaves a half-written artifact behind.
func WriteArtifact(dir string, a *model.Artifact) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "timeline: create output dir %s", dir)
	}

	data, err := EncodeArtifact(a)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, a.PatientID+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", eris.Wrapf(err, "timeline: write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", eris.Wrapf(err, "timeline: rename %s", tmp)
	}
	return path, nil
}
