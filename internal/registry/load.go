package registry

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/clearchart/abstraction-cli/internal/model"
)

// overlayFile is the shape of a registry overlay document. Every section
// is optional; present entries replace the built-in tables for that gap
// type or fact.
type overlayFile struct {
	Specs   map[model.GapType]overlaySpec `yaml:"gap_types"`
	Aliases map[string][]string           `yaml:"aliases"`
}

type overlaySpec struct {
	Vocabulary      []string              `yaml:"vocabulary"`
	MinVocabMatches int                   `yaml:"min_vocab_matches"`
	Tiers           [][]model.DocCategory `yaml:"tiers"`
	Hints           map[string]string     `yaml:"hints"`
}

// LoadOverlay applies a YAML overlay file on top of the built-in registry.
// Unknown gap types in the overlay are rejected so typos surface at
// startup instead of silently disabling a table.
func LoadOverlay(r *Registry, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "registry: read overlay %s", path)
	}

	var of overlayFile
	if err := yaml.Unmarshal(data, &of); err != nil {
		return eris.Wrapf(err, "registry: parse overlay %s", path)
	}

	for gt, ov := range of.Specs {
		spec := r.specs[gt]
		if spec == nil {
			return eris.Errorf("registry: overlay references unknown gap type %q", gt)
		}
		if len(ov.Vocabulary) > 0 {
			spec.Vocabulary = ov.Vocabulary
		}
		if ov.MinVocabMatches > 0 {
			spec.MinVocabMatches = ov.MinVocabMatches
		}
		if len(ov.Tiers) > 0 {
			spec.Tiers = ov.Tiers
		}
		for field, hint := range ov.Hints {
			if spec.Hints == nil {
				spec.Hints = make(map[string]string)
			}
			spec.Hints[field] = hint
		}
	}

	for fact, extra := range of.Aliases {
		r.aliases[fact] = append(r.aliases[fact], extra...)
	}

	return nil
}
