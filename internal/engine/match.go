package engine

import (
	"sort"

	"github.com/modsentry/modsentry/internal/lexicon"
)

// Match classifies a single message against a compiled lexicon and a
// heuristic rule set. It is a pure synchronous function over immutable
// inputs: no globals, no retries, safe for unbounded concurrent calls
// sharing the same lexicon and rules.
//
// Scan order matters: phrases first (longest-match precedence), then
// single words over tokens not consumed by a phrase, then heuristic
// rules over the full normalized text. A word that is part of a
// matched phrase is never double-counted as its own hit.
func Match(text string, lex *lexicon.Compiled, rules *RuleSet) (*Verdict, error) {
	if text == "" || lex == nil || rules == nil {
		return nil, ErrInvalidInput
	}

	normalized := lexicon.Normalize(text)
	toks := lexicon.Tokenize(normalized)

	var hits []MatchHit
	consumed := make([]bool, len(toks))
	seen := make(map[string]struct{}) // one hit per canonical surface

	// A phrase suppresses its tokens' word hits and weights, never their
	// always-flag signal: a flagged word stays flagged inside a phrase.
	var maskedFlag bool
	maskedCats := make(map[lexicon.Category]struct{})

	// Phrase scan. lex.Phrases is compiled longest-first, so the first
	// entry to claim a token range wins over any shorter overlap.
	if lex.MaxPhraseLen > 1 {
		for _, p := range lex.Phrases {
			n := len(p.Tokens)
			if n < 2 || n > len(toks) {
				continue
			}
		window:
			for i := 0; i+n <= len(toks); i++ {
				for j := 0; j < n; j++ {
					if consumed[i+j] || toks[i+j].Text != p.Tokens[j] {
						continue window
					}
				}
				for j := 0; j < n; j++ {
					consumed[i+j] = true
					if we, ok := lex.Words[toks[i+j].Text]; ok && we.AlwaysFlag {
						maskedFlag = true
						for _, c := range we.Categories {
							maskedCats[c] = struct{}{}
						}
					}
				}
				if _, dup := seen[p.Surface]; dup {
					continue
				}
				seen[p.Surface] = struct{}{}
				hits = append(hits, MatchHit{
					Start:      toks[i].Start,
					End:        toks[i+n-1].End,
					Surface:    p.Surface,
					Kind:       p.Kind.String(),
					Entry:      p,
					Categories: p.Categories,
					Weight:     p.Weight,
					AlwaysFlag: p.AlwaysFlag,
				})
			}
		}
	}

	// Single-word scan over unconsumed tokens. Exact and inflection
	// entries share the lookup; inflection hits report their root.
	for i, tok := range toks {
		if consumed[i] {
			continue
		}
		e, ok := lex.Words[tok.Text]
		if !ok {
			continue
		}
		canonical := e.Canonical()
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		hits = append(hits, MatchHit{
			Start:      tok.Start,
			End:        tok.End,
			Surface:    canonical,
			Kind:       e.Kind.String(),
			Entry:      e,
			Categories: e.Categories,
			Weight:     e.Weight,
			AlwaysFlag: e.AlwaysFlag,
		})
	}

	// Heuristic scan runs on the full normalized text, independent of
	// lexicon hits and consumed spans.
	for _, r := range rules.rules {
		start, end, ok := r.find(normalized, rules.identity)
		if !ok {
			continue
		}
		hits = append(hits, MatchHit{
			Start:      start,
			End:        end,
			Surface:    r.Name,
			Kind:       "heuristic",
			Rule:       r,
			Categories: []lexicon.Category{r.Category},
			Weight:     r.Weight,
			AlwaysFlag: r.Unconditional,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Start != hits[j].Start {
			return hits[i].Start < hits[j].Start
		}
		if hits[i].End != hits[j].End {
			return hits[i].End > hits[j].End
		}
		return hits[i].Surface < hits[j].Surface
	})

	v := &Verdict{Normalized: normalized, Hits: hits, AlwaysFlag: maskedFlag}
	catSet := maskedCats
	for _, h := range hits {
		v.Severity += h.Weight
		v.AlwaysFlag = v.AlwaysFlag || h.AlwaysFlag
		for _, c := range h.Categories {
			catSet[c] = struct{}{}
		}
	}
	v.Categories = make([]lexicon.Category, 0, len(catSet))
	for c := range catSet {
		v.Categories = append(v.Categories, c)
	}
	sort.Slice(v.Categories, func(i, j int) bool { return v.Categories[i] < v.Categories[j] })

	return v, nil
}
