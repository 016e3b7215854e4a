package engine

import (
	"fmt"
	"os"
	"regexp"

	"github.com/modsentry/modsentry/internal/lexicon"
	"gopkg.in/yaml.v3"
)

// The heuristic layer is a declarative rule table, not a branch
// cascade: each rule is a regexp template describing a threat or
// stereotype shape, evaluated against the full normalized text. Rules
// can be added (or replaced wholesale from a YAML file) without
// touching the matching algorithm.

// Rule is one structural pattern. Patterns match normalized text, so
// they are written lowercase with apostrophes intact.
type Rule struct {
	Name     string           `yaml:"name"`
	Pattern  string           `yaml:"pattern"`
	Category lexicon.Category `yaml:"category"`
	Weight   float64          `yaml:"weight"`

	// Unconditional rules mandate action on their own, like
	// always-flag lexicon categories.
	Unconditional bool `yaml:"unconditional"`

	// IdentityGated rules only fire when the first capture group is a
	// known identity word. Used by the stereotype frames to keep
	// "all cables are loose" from flagging.
	IdentityGated bool `yaml:"identity_gated"`

	re *regexp.Regexp
}

// find returns the matched span, honoring the identity gate.
func (r *Rule) find(normalized string, identity map[string]struct{}) (start, end int, ok bool) {
	if !r.IdentityGated {
		loc := r.re.FindStringIndex(normalized)
		if loc == nil {
			return 0, 0, false
		}
		return loc[0], loc[1], true
	}
	for _, loc := range r.re.FindAllStringSubmatchIndex(normalized, -1) {
		if len(loc) < 4 || loc[2] < 0 {
			continue
		}
		if _, known := identity[normalized[loc[2]:loc[3]]]; known {
			return loc[0], loc[1], true
		}
	}
	return 0, 0, false
}

// RuleSet is a compiled, immutable heuristic rule table plus the
// identity-word list gating the stereotype frames.
type RuleSet struct {
	rules    []*Rule
	identity map[string]struct{}
}

// Rules returns the compiled rules in evaluation order.
func (rs *RuleSet) Rules() []*Rule {
	return rs.rules
}

// NewRuleSet compiles a rule table. Invalid patterns fail the whole
// set; a half-built rule set is never returned.
func NewRuleSet(rules []Rule, identityWords []string) (*RuleSet, error) {
	rs := &RuleSet{identity: make(map[string]struct{}, len(identityWords))}
	for _, w := range identityWords {
		rs.identity[lexicon.Normalize(w)] = struct{}{}
	}
	for i := range rules {
		r := rules[i]
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("NewRuleSet: rule %q: %w", r.Name, err)
		}
		if r.Weight == 0 {
			r.Weight = 1.0
		}
		r.re = re
		rs.rules = append(rs.rules, &r)
	}
	return rs, nil
}

// defaultRules are kept tight to avoid false positives: first-person
// threat framing and identity-gated "all X are Y" stereotype frames.
var defaultRules = []Rule{
	{
		Name:          "threat-first-person",
		Pattern:       `\b(?:i\s*'?m\s+going\s+to|i\s+will|i'll)\s+(?:kill|hurt|beat|stab|shoot)\b`,
		Category:      lexicon.CategoryTHR,
		Weight:        3.0,
		Unconditional: true,
	},
	{
		Name:          "threat-kill-you",
		Pattern:       `\bkill\s+(?:you|u|ya)\b`,
		Category:      lexicon.CategoryTHR,
		Weight:        3.0,
		Unconditional: true,
	},
	{
		Name:          "threat-shoot-up",
		Pattern:       `\bshoot\s+up\b`,
		Category:      lexicon.CategoryTHR,
		Weight:        3.0,
		Unconditional: true,
	},
	{
		Name:          "threat-dox-swat",
		Pattern:       `\b(?:dox|swat)\s+(?:you|u|ya)\b`,
		Category:      lexicon.CategoryTHR,
		Weight:        3.0,
		Unconditional: true,
	},
	{
		Name:          "stereotype-all",
		Pattern:       `\ball\s+([a-z]{3,})\s+(?:are|r)\s+[a-z']{3,}`,
		Category:      lexicon.CategorySTE,
		Weight:        2.0,
		IdentityGated: true,
	},
	{
		Name:          "stereotype-every",
		Pattern:       `\bevery\s+([a-z]{3,})\s+(?:is|are)\s+[a-z']{3,}`,
		Category:      lexicon.CategorySTE,
		Weight:        2.0,
		IdentityGated: true,
	},
}

// defaultIdentityWords gate the stereotype frames.
var defaultIdentityWords = []string{
	"asians", "asian", "chinese", "japanese", "korean", "viet", "filipino",
	"indian", "hindu", "muslim", "jew", "jewish", "christian", "arab",
	"black", "blacks", "white", "whites", "latino", "latina", "hispanic",
	"mexicans", "russians", "ukrainians", "turks", "kurds",
	"women", "woman", "girls", "males", "men", "guys",
	"gays", "lgbt", "trans", "transgender", "queer",
	"immigrants", "refugees", "foreigners",
}

// DefaultRules returns the built-in rule set.
func DefaultRules() *RuleSet {
	rs, err := NewRuleSet(defaultRules, defaultIdentityWords)
	if err != nil {
		panic(fmt.Sprintf("default heuristic rules failed to compile: %v", err))
	}
	return rs
}

// ruleFile is the YAML shape of an external rule table.
type ruleFile struct {
	Rules         []Rule   `yaml:"rules"`
	IdentityWords []string `yaml:"identity_words"`
}

// LoadRules reads a heuristic rule table from a YAML file. A missing
// file yields the built-in defaults; a present file replaces the rule
// table wholesale (its identity_words fall back to the defaults when
// omitted).
func LoadRules(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultRules(), nil
		}
		return nil, fmt.Errorf("LoadRules: %w", err)
	}

	var rf ruleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("LoadRules: %w", err)
	}
	if len(rf.Rules) == 0 {
		return DefaultRules(), nil
	}
	words := rf.IdentityWords
	if len(words) == 0 {
		words = defaultIdentityWords
	}
	return NewRuleSet(rf.Rules, words)
}
