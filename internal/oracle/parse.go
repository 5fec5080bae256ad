package oracle

import (
	"encoding/json"
	"strings"

	"github.com/clearchart/abstraction-cli/internal/model"
)

// parseResult decodes the oracle's JSON contract:
//
//	{"fields": {...}, "confidence": "high|medium|low", "excerpt": "..."}
//
// A flat object without a "fields" wrapper is accepted too, since
// different prompts elicit different shapes. Returns nil when the text is
// not parseable JSON.
func parseResult(text string) *Result {
	cleaned := cleanJSON(text)

	var raw map[string]any
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil
	}

	res := &Result{Raw: text}

	if f, ok := raw["fields"].(map[string]any); ok {
		res.Fields = f
	} else {
		// Flat shape: everything except the envelope keys is a field.
		res.Fields = make(map[string]any, len(raw))
		for k, v := range raw {
			switch k {
			case "confidence", "excerpt", "reasoning":
			default:
				res.Fields[k] = v
			}
		}
	}

	res.Confidence = parseConfidence(raw["confidence"])
	if ex, ok := raw["excerpt"].(string); ok {
		res.Excerpt = ex
	}
	return res
}

// parseConfidence maps the oracle's confidence signal — a label or a
// numeric score — onto the three-level enum. Unknown signals default to
// low rather than discarding the extraction.
func parseConfidence(v any) model.Confidence {
	switch c := v.(type) {
	case string:
		switch strings.ToLower(strings.TrimSpace(c)) {
		case "high":
			return model.ConfidenceHigh
		case "medium", "moderate":
			return model.ConfidenceMedium
		default:
			return model.ConfidenceLow
		}
	case float64:
		switch {
		case c >= 0.75:
			return model.ConfidenceHigh
		case c >= 0.4:
			return model.ConfidenceMedium
		default:
			return model.ConfidenceLow
		}
	default:
		return model.ConfidenceLow
	}
}

// cleanJSON strips markdown code fences and any prose surrounding the
// first JSON object in the text.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
