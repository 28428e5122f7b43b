// Package risk maps issue types to display labels and risk classifications.
// All functions are pure.
package risk

// Level is the risk classification of an issue.
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// Tone is the visual tone used to render a risk level.
type Tone string

const (
	ToneDanger  Tone = "danger"
	ToneWarning Tone = "warning"
	ToneSuccess Tone = "success"
)

// Built-in issue type names produced by the default review rules.
const (
	TypeGrammar    = "Grammar & Spelling"
	TypeDefinitive = "Definitive Language"
)

var typeLabels = map[string]string{
	TypeGrammar:    "Grammar & Spelling",
	TypeDefinitive: "Definitive Language",
}

var typeDescriptions = map[string]string{
	TypeGrammar:    "Spelling, grammar, and punctuation problems, including sentence structure.",
	TypeDefinitive: "Overly definitive or guarantee-like wording (\"must\", \"always\", \"guaranteed\").",
}

var typeRisk = map[string]Level{
	TypeDefinitive: LevelHigh,
	TypeGrammar:    LevelLow,
}

// TypeLabel returns the display label for an issue type. Unknown types are
// shown as-is.
func TypeLabel(issueType string) string {
	if label, ok := typeLabels[issueType]; ok {
		return label
	}
	return issueType
}

// TypeDescription returns the longer description for an issue type, or the
// empty string when none is defined.
func TypeDescription(issueType string) string {
	return typeDescriptions[issueType]
}

// normalizeLevel maps explicit risk values onto a Level. Custom review rules
// historically emit CJK spellings, so both are accepted.
func normalizeLevel(v string) (Level, bool) {
	switch v {
	case "high", "高":
		return LevelHigh, true
	case "medium", "中":
		return LevelMedium, true
	case "low", "低":
		return LevelLow, true
	default:
		return "", false
	}
}

// LevelFor classifies an issue's risk. An explicit server-set value wins;
// otherwise the type-based default table applies, and unrecognized types
// fall back to medium.
func LevelFor(issueType, explicit string) Level {
	if lvl, ok := normalizeLevel(explicit); ok {
		return lvl
	}
	if lvl, ok := typeRisk[issueType]; ok {
		return lvl
	}
	return LevelMedium
}

// ToneFor returns the visual tone for an issue's risk level.
func ToneFor(issueType, explicit string) Tone {
	switch LevelFor(issueType, explicit) {
	case LevelHigh:
		return ToneDanger
	case LevelLow:
		return ToneSuccess
	default:
		return ToneWarning
	}
}
