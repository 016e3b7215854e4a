package lexicon

import (
	"regexp"
	"strings"
)

// InflectionRule mechanically derives one variant surface from a
// single-word root. The rule set is a configuration artifact: the
// default table below is deliberately small and closed — no statistical
// stemming — and callers can supply their own table via CompileOptions.
type InflectionRule struct {
	Name   string
	Match  *regexp.Regexp // root must match; nil means any root
	Strip  int            // runes removed from the end of the root
	Append string
}

// Apply derives the variant, or returns "" when the rule does not
// apply to this root.
func (r InflectionRule) Apply(root string) string {
	if len(root) < minInflectRoot || len(root) <= r.Strip {
		return ""
	}
	if r.Match != nil && !r.Match.MatchString(root) {
		return ""
	}
	v := root[:len(root)-r.Strip] + r.Append
	if v == root {
		return ""
	}
	return v
}

// Roots shorter than this are never inflected; short words produce too
// many accidental collisions ("as" -> "ass").
const minInflectRoot = 3

// DefaultInflectionRules is the documented fixed rule table:
//
//	plural:      -s / -es (sibilant endings) / consonant+y -> -ies
//	past:        -ed (-d after a final "e")
//	progressive: -ing (final "e" dropped)
//	comparative: -er / -est (-r / -st after a final "e")
//
// Exceptions beyond these endings are out of scope; irregular forms
// belong in the source lexicon as their own rows.
var DefaultInflectionRules = []InflectionRule{
	{Name: "plural-ies", Match: regexp.MustCompile(`[^aeiou]y$`), Strip: 1, Append: "ies"},
	{Name: "plural-es", Match: regexp.MustCompile(`(?:s|x|z|ch|sh)$`), Append: "es"},
	{Name: "plural-s", Match: regexp.MustCompile(`(?:[^sxzyh]|[^cs]h)$`), Append: "s"},
	{Name: "past-d", Match: regexp.MustCompile(`e$`), Append: "d"},
	{Name: "past-ed", Match: regexp.MustCompile(`[^e]$`), Append: "ed"},
	{Name: "prog-ing-e", Match: regexp.MustCompile(`e$`), Strip: 1, Append: "ing"},
	{Name: "prog-ing", Match: regexp.MustCompile(`[^e]$`), Append: "ing"},
	{Name: "comp-r", Match: regexp.MustCompile(`e$`), Append: "r"},
	{Name: "comp-er", Match: regexp.MustCompile(`[^e]$`), Append: "er"},
	{Name: "sup-st", Match: regexp.MustCompile(`e$`), Append: "st"},
	{Name: "sup-est", Match: regexp.MustCompile(`[^e]$`), Append: "est"},
}

// inflections returns the deduplicated variant surfaces for a root,
// in rule-table order.
func inflections(root string, rules []InflectionRule) []string {
	if strings.ContainsRune(root, '\'') {
		return nil // contractions don't inflect mechanically
	}
	seen := make(map[string]struct{}, len(rules))
	var out []string
	for _, r := range rules {
		v := r.Apply(root)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
