package engine

import (
	"errors"

	"github.com/modsentry/modsentry/internal/lexicon"
)

// ErrInvalidInput is returned when Match preconditions are violated
// (absent text, nil lexicon or rules). Callers must treat the absence
// of a verdict as "no action", never as a toxicity signal.
var ErrInvalidInput = errors.New("invalid match input")

// MatchHit is one piece of evidence: a lexicon entry or heuristic rule
// matched at a span of the normalized text. Hits are produced fresh per
// message and owned by the verdict.
type MatchHit struct {
	Start int `json:"start"` // byte offsets into Verdict.Normalized
	End   int `json:"end"`

	// Surface is the canonical matched form: the root for inflection
	// hits, the entry surface for exact/phrase hits, the rule name for
	// heuristic hits.
	Surface string `json:"surface"`
	Kind    string `json:"kind"` // exact | inflection | phrase | heuristic

	Entry *lexicon.Entry `json:"-"` // nil for heuristic hits
	Rule  *Rule          `json:"-"` // nil for lexicon hits

	Categories []lexicon.Category `json:"categories"`
	Weight     float64            `json:"weight"`
	AlwaysFlag bool               `json:"always_flag"`
}

// Verdict is the engine's per-message output. Immutable once returned;
// byte-for-byte identical for identical (text, lexicon, rules) inputs.
type Verdict struct {
	// Normalized is the normalized text hit spans index into.
	Normalized string `json:"normalized"`

	Hits       []MatchHit         `json:"hits"`
	Categories []lexicon.Category `json:"categories"` // sorted union over hits
	Severity   float64            `json:"severity"`   // sum of per-hit weights
	AlwaysFlag bool               `json:"always_flag"`
}
