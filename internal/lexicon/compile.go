package lexicon

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Compilation is all-or-nothing: any malformed or unrecognized row
// aborts the build, a half-built lexicon is never returned.
var (
	ErrMalformedRow    = errors.New("malformed lexicon row")
	ErrUnknownCategory = errors.New("unknown category code")
)

// Kind distinguishes how an entry matches.
type Kind int

const (
	KindExact Kind = iota + 1
	KindInflection
	KindPhrase
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindExact:
		return "exact"
	case KindInflection:
		return "inflection"
	case KindPhrase:
		return "phrase"
	default:
		return "unspecified"
	}
}

// Row is one raw lexicon source row: a term tagged with one or more
// categories, optionally forced to always-flag by a flags column.
type Row struct {
	Term       string
	Categories []Category
	AlwaysFlag bool
}

// Entry is one compiled lexicon entry. Immutable after compilation;
// shared read-only by all concurrent matches.
type Entry struct {
	Surface    string     `json:"surface"`
	Categories []Category `json:"categories"` // sorted
	AlwaysFlag bool       `json:"always_flag"`
	Kind       Kind       `json:"kind"`
	Root       string     `json:"root,omitempty"` // canonical surface for inflections
	Weight     float64    `json:"weight"`
	Tokens     []string   `json:"tokens,omitempty"` // phrase entries only
}

// Canonical returns the surface hits should be reported under: the
// root for inflections, the entry's own surface otherwise.
func (e *Entry) Canonical() string {
	if e.Kind == KindInflection {
		return e.Root
	}
	return e.Surface
}

// Manifest carries compile diagnostics for the operator.
type Manifest struct {
	Terms       int              `json:"terms"`
	Phrases     int              `json:"phrases"`
	Inflections int              `json:"inflections"`
	PerCategory map[Category]int `json:"per_category"`
	Merged      []string         `json:"merged,omitempty"`     // surfaces supplied by more than one row
	Collisions  []string         `json:"collisions,omitempty"` // inflection variants that lost a collision
}

// Compiled is the immutable runtime lexicon: a single-word lookup map
// (exact and inflection entries share it) and phrase entries ordered
// longest-first so the engine can apply longest-match precedence
// without re-sorting.
type Compiled struct {
	Words        map[string]*Entry
	Phrases      []*Entry
	MaxPhraseLen int
	Declared     []Category // sorted declared category set
	Manifest     Manifest
}

// CompileOptions tunes a compile run. Zero value compiles against the
// core category set with the default inflection table.
type CompileOptions struct {
	// ExtraCategories extends the accepted category set for this
	// lexicon. Codes are validated at compile time, never at match time.
	ExtraCategories []Category
	// InflectionRules overrides DefaultInflectionRules when non-nil.
	InflectionRules []InflectionRule
}

// Compile transforms raw rows into a Compiled lexicon. Row slices may
// contain duplicates; the same normalized surface supplied under
// multiple categories compiles to one entry with the union of the
// category sets, always-flagged if any source row was.
func Compile(rows []Row, opts CompileOptions) (*Compiled, error) {
	declared := make(map[Category]struct{}, len(coreCategories)+len(opts.ExtraCategories))
	for c := range coreCategories {
		declared[c] = struct{}{}
	}
	for _, c := range opts.ExtraCategories {
		if !validCategoryCode(c) {
			return nil, fmt.Errorf("Compile: extra category %q: %w", c, ErrUnknownCategory)
		}
		declared[c] = struct{}{}
	}

	rules := opts.InflectionRules
	if rules == nil {
		rules = DefaultInflectionRules
	}

	type merged struct {
		cats       map[Category]struct{}
		alwaysFlag bool
		dup        bool
	}
	bySurface := make(map[string]*merged, len(rows))
	var order []string // first-seen order keeps collision resolution deterministic

	for i, row := range rows {
		surface := trimEdgeApostrophes(Normalize(row.Term))
		if surface == "" {
			return nil, fmt.Errorf("Compile: row %d: empty term: %w", i+1, ErrMalformedRow)
		}
		if len(row.Categories) == 0 {
			return nil, fmt.Errorf("Compile: row %d (%q): missing category: %w", i+1, row.Term, ErrMalformedRow)
		}
		for _, c := range row.Categories {
			if _, ok := declared[c]; !ok {
				return nil, fmt.Errorf("Compile: row %d (%q): category %q: %w", i+1, row.Term, c, ErrUnknownCategory)
			}
		}

		m, ok := bySurface[surface]
		if !ok {
			m = &merged{cats: make(map[Category]struct{}, len(row.Categories))}
			bySurface[surface] = m
			order = append(order, surface)
		} else {
			m.dup = true
		}
		for _, c := range row.Categories {
			m.cats[c] = struct{}{}
		}
		m.alwaysFlag = m.alwaysFlag || row.AlwaysFlag
	}

	c := &Compiled{
		Words:        make(map[string]*Entry, len(order)*4),
		MaxPhraseLen: 1,
		Manifest:     Manifest{PerCategory: make(map[Category]int)},
	}

	var wordSurfaces []string // exact single-word entries, first-seen order
	for _, surface := range order {
		m := bySurface[surface]
		cats := sortedCategories(m.cats)
		always := m.alwaysFlag || IsAlwaysFlag(cats)
		if m.dup {
			c.Manifest.Merged = append(c.Manifest.Merged, surface)
		}
		for _, cat := range cats {
			c.Manifest.PerCategory[cat]++
		}

		if strings.Contains(surface, " ") {
			tokens := strings.Fields(surface)
			c.Phrases = append(c.Phrases, &Entry{
				Surface:    surface,
				Categories: cats,
				AlwaysFlag: always,
				Kind:       KindPhrase,
				Weight:     entryWeight(cats, true),
				Tokens:     tokens,
			})
			if len(tokens) > c.MaxPhraseLen {
				c.MaxPhraseLen = len(tokens)
			}
			c.Manifest.Phrases++
			continue
		}

		c.Words[surface] = &Entry{
			Surface:    surface,
			Categories: cats,
			AlwaysFlag: always,
			Kind:       KindExact,
			Weight:     entryWeight(cats, false),
		}
		wordSurfaces = append(wordSurfaces, surface)
		c.Manifest.Terms++
	}

	// Derived variants. An exact entry always beats a variant of another
	// root; between two variants the first root in input order wins.
	for _, root := range wordSurfaces {
		re := c.Words[root]
		for _, v := range inflections(root, rules) {
			if existing, ok := c.Words[v]; ok {
				if existing.Kind == KindInflection && existing.Root != root {
					c.Manifest.Collisions = append(c.Manifest.Collisions,
						fmt.Sprintf("%s: kept root %s, dropped root %s", v, existing.Root, root))
				}
				continue
			}
			c.Words[v] = &Entry{
				Surface:    v,
				Categories: re.Categories,
				AlwaysFlag: re.AlwaysFlag,
				Kind:       KindInflection,
				Root:       root,
				Weight:     re.Weight,
			}
			c.Manifest.Inflections++
		}
	}

	// Longest phrase first; ties broken by surface for determinism.
	sort.SliceStable(c.Phrases, func(i, j int) bool {
		if len(c.Phrases[i].Tokens) != len(c.Phrases[j].Tokens) {
			return len(c.Phrases[i].Tokens) > len(c.Phrases[j].Tokens)
		}
		return c.Phrases[i].Surface < c.Phrases[j].Surface
	})

	c.Declared = sortedCategories(declared)
	return c, nil
}

// DeclaredSet returns the declared categories as a lookup set.
func (c *Compiled) DeclaredSet() map[Category]struct{} {
	set := make(map[Category]struct{}, len(c.Declared))
	for _, cat := range c.Declared {
		set[cat] = struct{}{}
	}
	return set
}

// trimEdgeApostrophes trims leading and trailing apostrophes from each
// word of a normalized surface, the same trim Tokenize applies, so
// every compiled surface ("'hood" -> "hood") is reachable by a token.
func trimEdgeApostrophes(surface string) string {
	if !strings.Contains(surface, "'") {
		return surface
	}
	fields := strings.Fields(surface)
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "'")
		if f != "" {
			out = append(out, f)
		}
	}
	return strings.Join(out, " ")
}

func validCategoryCode(c Category) bool {
	if len(c) < 2 || len(c) > 4 {
		return false
	}
	for _, r := range string(c) {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func sortedCategories(set map[Category]struct{}) []Category {
	out := make([]Category, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
